// Package usecase implements the saga engine: a generic state-machine executor
// that applies one transition per inbound event, atomically with the inbox
// record, the instance mutation, and the outgoing outbox rows.
package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/messaging"
	outboxusecase "github.com/allisson/ordersaga/internal/outbox/usecase"
	"github.com/allisson/ordersaga/internal/saga/domain"
)

// InstanceRepository defines saga instance repository operations.
type InstanceRepository interface {
	Create(ctx context.Context, instance *domain.Instance) error
	GetForUpdate(ctx context.Context, correlationID uuid.UUID) (*domain.Instance, error)
	GetByCorrelationID(ctx context.Context, correlationID uuid.UUID) (*domain.Instance, error)
	Update(ctx context.Context, instance *domain.Instance) error
}

// InboxGuard registers processed messages for deduplication.
type InboxGuard interface {
	Register(ctx context.Context, messageID uuid.UUID, consumer string) error
}

// StateRecorder records saga state entries for observability. A nil recorder
// disables recording.
type StateRecorder interface {
	RecordSagaState(ctx context.Context, state string)
}

// Engine executes saga transitions for one Definition.
type Engine struct {
	consumer   string
	definition *domain.Definition
	txManager  database.TxManager
	instances  InstanceRepository
	inbox      InboxGuard
	outbox     outboxusecase.Enqueuer
	recorder   StateRecorder
	logger     *slog.Logger
}

// NewEngine creates a new Engine. The consumer name keys inbox records, so it
// must be stable across deployments of the same service.
func NewEngine(
	consumer string,
	definition *domain.Definition,
	txManager database.TxManager,
	instances InstanceRepository,
	inbox InboxGuard,
	outbox outboxusecase.Enqueuer,
	recorder StateRecorder,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		consumer:   consumer,
		definition: definition,
		txManager:  txManager,
		instances:  instances,
		inbox:      inbox,
		outbox:     outbox,
		recorder:   recorder,
		logger:     logger,
	}
}

// Handle executes one transition for the inbound event. The inbox record, the
// instance mutation, and the outgoing outbox rows all commit in one
// transaction; on any error the transaction rolls back and nothing is visible.
//
// Returns errors.ErrDuplicateMessage for redeliveries, errors.ErrOrphanEvent
// for events with no instance, and errors.ErrIllegalTransition for events not
// valid in the current state. Callers decide the disposition; the consumer
// runner drops all three after its retry window.
func (e *Engine) Handle(ctx context.Context, env messaging.Envelope) error {
	var enteredState domain.State

	err := e.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := e.inbox.Register(ctx, env.MessageID, e.consumer); err != nil {
			return err
		}

		instance, created, err := e.resolveInstance(ctx, env)
		if err != nil {
			return err
		}

		// Terminal states are never exited, whatever arrives.
		if instance.CurrentState.IsTerminal() {
			return apperrors.Wrapf(apperrors.ErrIllegalTransition,
				"saga %s already in terminal state %q, got %s",
				env.CorrelationID, instance.CurrentState, env.MessageType)
		}

		transition, ok := e.definition.Resolve(instance.CurrentState, env.MessageType)
		if !ok {
			return apperrors.Wrapf(apperrors.ErrIllegalTransition,
				"no transition from state %q on %s for saga %s",
				instance.CurrentState, env.MessageType, env.CorrelationID)
		}

		outgoing, err := transition.Action(instance, env)
		if err != nil {
			return apperrors.Wrapf(err, "failed to apply %s to saga %s", env.MessageType, env.CorrelationID)
		}

		previousState := instance.CurrentState
		instance.CurrentState = transition.NextState
		enteredState = transition.NextState

		if created {
			err = e.instances.Create(ctx, instance)
		} else {
			err = e.instances.Update(ctx, instance)
		}
		if err != nil {
			return err
		}

		for _, out := range outgoing {
			if err := e.outbox.Enqueue(ctx, out); err != nil {
				return err
			}
		}

		if e.logger != nil {
			e.logger.Info("saga transition applied",
				slog.String("correlation_id", env.CorrelationID.String()),
				slog.String("message_type", env.MessageType),
				slog.String("from_state", string(previousState)),
				slog.String("to_state", string(instance.CurrentState)),
				slog.Int("outgoing", len(outgoing)),
			)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if e.recorder != nil {
		e.recorder.RecordSagaState(ctx, string(enteredState))
	}
	return nil
}

// GetInstance returns the saga instance for a correlation id, for read endpoints.
func (e *Engine) GetInstance(ctx context.Context, correlationID uuid.UUID) (*domain.Instance, error) {
	return e.instances.GetByCorrelationID(ctx, correlationID)
}

// resolveInstance loads and row-locks the instance for the event's correlation
// id, or creates a fresh unsaved one when the initiating event arrives first.
func (e *Engine) resolveInstance(
	ctx context.Context,
	env messaging.Envelope,
) (instance *domain.Instance, created bool, err error) {
	instance, err = e.instances.GetForUpdate(ctx, env.CorrelationID)
	if err == nil {
		return instance, false, nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	if env.MessageType != e.definition.InitiatingType {
		return nil, false, apperrors.Wrapf(apperrors.ErrOrphanEvent,
			"no saga instance for correlation id %s on %s", env.CorrelationID, env.MessageType)
	}

	instance = &domain.Instance{
		CorrelationID: env.CorrelationID,
		CurrentState:  domain.StateNone,
	}
	return instance, true, nil
}
