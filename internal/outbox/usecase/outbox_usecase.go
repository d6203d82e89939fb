// Package usecase implements the transactional outbox: enqueueing messages
// with the producing transaction and relaying them to the bus with retry.
package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/outbox/domain"
)

// Config holds outbox relay configuration.
type Config struct {
	// PollInterval is the delay between relay polling cycles.
	PollInterval time.Duration
	// BatchSize bounds the number of rows fetched per cycle.
	BatchSize int
	// MaxAttempts is the delivery ceiling before a row is dead-lettered.
	MaxAttempts int
	// BackoffIntervals schedules the delay before each redelivery attempt; the
	// last interval is reused as a fixed ceiling once exhausted.
	BackoffIntervals []time.Duration
	// SendTimeout bounds a single publish attempt.
	SendTimeout time.Duration
}

// MessageRepository defines outbox message repository operations.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetPending(ctx context.Context, limit int, now time.Time) ([]*domain.Message, error)
	Update(ctx context.Context, message *domain.Message) error
	ListDead(ctx context.Context, limit int) ([]*domain.Message, error)
}

// Enqueuer appends messages to the outbox. Implementations never talk to the
// network; the append is a plain insert in the caller's transaction.
type Enqueuer interface {
	Enqueue(ctx context.Context, env messaging.Envelope) error
}

// Outbox implements Enqueuer backed by a MessageRepository.
type Outbox struct {
	destination string
	repo        MessageRepository
}

// NewOutbox creates an Outbox that records the given destination on every row.
func NewOutbox(destination string, repo MessageRepository) *Outbox {
	return &Outbox{destination: destination, repo: repo}
}

// Enqueue records the envelope as a pending outbox row. The envelope's message
// id becomes the row id, keeping the wire identity stable across redeliveries.
func (o *Outbox) Enqueue(ctx context.Context, env messaging.Envelope) error {
	message := &domain.Message{
		ID:            env.MessageID,
		CorrelationID: env.CorrelationID,
		MessageType:   env.MessageType,
		Payload:       string(env.Payload),
		Destination:   o.destination,
		OccurredAt:    env.OccurredAt,
		Status:        domain.MessageStatusPending,
		NextAttemptAt: time.Now().UTC(),
	}
	return o.repo.Create(ctx, message)
}

// OperationRecorder counts relay delivery outcomes. A nil recorder disables
// recording.
type OperationRecorder interface {
	RecordOperation(ctx context.Context, domain, operation, status string)
}

// Relay periodically delivers pending outbox rows to the bus.
type Relay struct {
	config    Config
	txManager database.TxManager
	repo      MessageRepository
	publisher messaging.Publisher
	recorder  OperationRecorder
	logger    *slog.Logger
}

// NewRelay creates a new Relay.
func NewRelay(
	config Config,
	txManager database.TxManager,
	repo MessageRepository,
	publisher messaging.Publisher,
	recorder OperationRecorder,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		config:    config,
		txManager: txManager,
		repo:      repo,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
	}
}

// Start runs the polling loop until the context is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	if r.logger != nil {
		r.logger.Info("starting outbox relay",
			slog.Duration("poll_interval", r.config.PollInterval),
			slog.Int("batch_size", r.config.BatchSize),
			slog.Int("max_attempts", r.config.MaxAttempts),
		)
	}

	ticker := time.NewTicker(r.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if r.logger != nil {
				r.logger.Info("stopping outbox relay")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := r.ProcessMessages(ctx); err != nil {
				if r.logger != nil {
					r.logger.Error("failed to process outbox messages", slog.Any("error", err))
				}
			}
		}
	}
}

// ProcessMessages delivers one batch of due pending messages. The batch is
// claimed in one short transaction by pushing next_attempt_at forward, so the
// SKIP LOCKED row locks are released before any network publish; concurrent
// relays skip claimed rows until the lease expires. Each delivery outcome is
// then recorded in its own short transaction.
func (r *Relay) ProcessMessages(ctx context.Context) error {
	now := time.Now().UTC()
	var messages []*domain.Message

	err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		messages, err = r.repo.GetPending(ctx, r.config.BatchSize, now)
		if err != nil {
			return err
		}

		lease := now.Add(r.leaseInterval())
		for _, message := range messages {
			message.NextAttemptAt = lease
			if err := r.repo.Update(ctx, message); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil || len(messages) == 0 {
		return err
	}

	for _, message := range messages {
		deliverErr := r.deliver(ctx, message)
		if deliverErr != nil {
			r.registerFailure(message, deliverErr)
		} else {
			deliveredAt := time.Now().UTC()
			message.Status = domain.MessageStatusDelivered
			message.DeliveredAt = &deliveredAt
		}

		if err := r.txManager.WithTx(ctx, func(ctx context.Context) error {
			return r.repo.Update(ctx, message)
		}); err != nil {
			return err
		}

		if deliverErr != nil {
			r.recordOperation(ctx, "delivery", "error")
			if message.Status == domain.MessageStatusDead {
				r.recordOperation(ctx, "dead_letter", "error")
			}
		} else {
			r.recordOperation(ctx, "delivery", "success")
		}
	}

	return nil
}

// leaseInterval is how long a claimed row stays invisible to other relay
// cycles. It covers the worst-case send attempt plus one polling cycle, so a
// crashed relay's claims become due again on their own.
func (r *Relay) leaseInterval() time.Duration {
	lease := r.config.SendTimeout + r.config.PollInterval
	if lease <= 0 {
		lease = time.Minute
	}
	return lease
}

// recordOperation counts a relay outcome when a recorder is configured.
func (r *Relay) recordOperation(ctx context.Context, operation, status string) {
	if r.recorder != nil {
		r.recorder.RecordOperation(ctx, "outbox", operation, status)
	}
}

// deliver publishes one message with the configured send timeout.
func (r *Relay) deliver(ctx context.Context, message *domain.Message) error {
	env := messaging.Envelope{
		MessageID:     message.ID,
		CorrelationID: message.CorrelationID,
		MessageType:   message.MessageType,
		OccurredAt:    message.OccurredAt,
		Payload:       json.RawMessage(message.Payload),
	}

	sendCtx := ctx
	if r.config.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, r.config.SendTimeout)
		defer cancel()
	}

	return r.publisher.Publish(sendCtx, env)
}

// registerFailure bumps the attempt count, schedules the next attempt per the
// backoff policy, and dead-letters the message once the ceiling is reached.
func (r *Relay) registerFailure(message *domain.Message, err error) {
	message.Attempts++
	errorMsg := err.Error()
	message.LastError = &errorMsg
	message.NextAttemptAt = time.Now().UTC().Add(r.backoffFor(message.Attempts))

	if message.Attempts >= r.config.MaxAttempts {
		message.Status = domain.MessageStatusDead
		if r.logger != nil {
			r.logger.Error("outbox message dead-lettered",
				slog.String("message_id", message.ID.String()),
				slog.String("message_type", message.MessageType),
				slog.String("correlation_id", message.CorrelationID.String()),
				slog.Int("attempts", message.Attempts),
				slog.Any("error", err),
			)
		}
		return
	}

	if r.logger != nil {
		r.logger.Warn("outbox delivery failed, scheduling retry",
			slog.String("message_id", message.ID.String()),
			slog.String("message_type", message.MessageType),
			slog.Int("attempts", message.Attempts),
			slog.Time("next_attempt_at", message.NextAttemptAt),
			slog.Any("error", err),
		)
	}
}

// backoffFor returns the delay before the next attempt after the given number
// of failed attempts. Attempts beyond the schedule reuse the last interval.
func (r *Relay) backoffFor(attempts int) time.Duration {
	intervals := r.config.BackoffIntervals
	if len(intervals) == 0 {
		return time.Second
	}
	if attempts <= 0 {
		return intervals[0]
	}
	if attempts > len(intervals) {
		return intervals[len(intervals)-1]
	}
	return intervals[attempts-1]
}

// ListDead returns dead-lettered messages for operator inspection.
func (r *Relay) ListDead(ctx context.Context, limit int) ([]*domain.Message, error) {
	messages, err := r.repo.ListDead(ctx, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead-lettered messages")
	}
	return messages, nil
}
