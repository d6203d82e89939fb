// Package usecase implements order intake and the order projection consumer.
package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/order/domain"
	outboxusecase "github.com/allisson/ordersaga/internal/outbox/usecase"
)

const consumerName = "order-service"

// OrderRepository defines order repository operations.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, offset, limit int) ([]*domain.Order, error)
}

// InboxGuard registers processed messages for deduplication.
type InboxGuard interface {
	Register(ctx context.Context, messageID uuid.UUID, consumer string) error
}

// SubmitOrderInput carries the fields of a new order submission.
type SubmitOrderInput struct {
	Total     string
	ProductID uuid.UUID
	Email     string
}

// OrderUseCase handles order submission and builds the order projection from
// confirmation events.
type OrderUseCase struct {
	txManager database.TxManager
	repo      OrderRepository
	inbox     InboxGuard
	outbox    outboxusecase.Enqueuer
	logger    *slog.Logger
}

// NewOrderUseCase creates a new OrderUseCase.
func NewOrderUseCase(
	txManager database.TxManager,
	repo OrderRepository,
	inbox InboxGuard,
	outbox outboxusecase.Enqueuer,
	logger *slog.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		txManager: txManager,
		repo:      repo,
		inbox:     inbox,
		outbox:    outbox,
		logger:    logger,
	}
}

// SubmitOrder starts a new order process. The generated order id is the
// correlation id for every message of the run. No order row is written here;
// the row appears only when the process completes and the confirmation event
// carries the full snapshot back.
func (uc *OrderUseCase) SubmitOrder(ctx context.Context, input SubmitOrderInput) (uuid.UUID, error) {
	orderID := uuid.Must(uuid.NewV7())

	env, err := messaging.NewEnvelope(messaging.MessageTypeOrderSubmitted, orderID,
		messaging.OrderSubmitted{
			OrderID:   orderID,
			Total:     input.Total,
			ProductID: input.ProductID,
			Email:     input.Email,
		})
	if err != nil {
		return uuid.Nil, err
	}

	err = uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		return uc.outbox.Enqueue(ctx, env)
	})
	if err != nil {
		return uuid.Nil, err
	}

	if uc.logger != nil {
		uc.logger.Info("order submitted",
			slog.String("order_id", orderID.String()),
			slog.String("total", input.Total),
		)
	}
	return orderID, nil
}

// GetOrder retrieves a confirmed order.
func (uc *OrderUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return uc.repo.GetByID(ctx, id)
}

// ListOrders retrieves confirmed orders with pagination.
func (uc *OrderUseCase) ListOrders(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	return uc.repo.List(ctx, offset, limit)
}

// HandleOrderConfirmed materializes the order row from the confirmation
// snapshot, atomically with the inbox record.
func (uc *OrderUseCase) HandleOrderConfirmed(ctx context.Context, env messaging.Envelope) error {
	var event messaging.OrderConfirmed
	if err := env.DecodePayload(&event); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.inbox.Register(ctx, env.MessageID, consumerName); err != nil {
			return err
		}

		order := &domain.Order{
			ID:              event.OrderID,
			ProductID:       event.ProductID,
			CustomerEmail:   event.Email,
			Total:           event.Total,
			PaymentIntentID: event.PaymentIntentID,
			OrderDate:       event.OrderDate,
		}
		if err := uc.repo.Create(ctx, order); err != nil {
			return err
		}

		if uc.logger != nil {
			uc.logger.Info("order confirmed",
				slog.String("order_id", event.OrderID.String()),
				slog.String("total", event.Total),
			)
		}
		return nil
	})
}
