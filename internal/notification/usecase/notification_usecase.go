// Package usecase implements the notification service consumer.
package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/notification/domain"
)

const consumerName = "notification-service"

// NotificationRepository defines notification repository operations.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error)
}

// InboxGuard registers processed messages for deduplication.
type InboxGuard interface {
	Register(ctx context.Context, messageID uuid.UUID, consumer string) error
}

// NotificationUseCase records a customer notification for each confirmed
// order. It emits no events; it is a leaf of the process.
type NotificationUseCase struct {
	txManager database.TxManager
	repo      NotificationRepository
	inbox     InboxGuard
	logger    *slog.Logger
}

// NewNotificationUseCase creates a new NotificationUseCase.
func NewNotificationUseCase(
	txManager database.TxManager,
	repo NotificationRepository,
	inbox InboxGuard,
	logger *slog.Logger,
) *NotificationUseCase {
	return &NotificationUseCase{
		txManager: txManager,
		repo:      repo,
		inbox:     inbox,
		logger:    logger,
	}
}

// HandleOrderConfirmed records the confirmation notification, atomically with
// the inbox record.
func (uc *NotificationUseCase) HandleOrderConfirmed(ctx context.Context, env messaging.Envelope) error {
	var event messaging.OrderConfirmed
	if err := env.DecodePayload(&event); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.inbox.Register(ctx, env.MessageID, consumerName); err != nil {
			return err
		}

		notification := &domain.Notification{
			ID:      uuid.Must(uuid.NewV7()),
			OrderID: event.OrderID,
			Email:   event.Email,
			Subject: fmt.Sprintf("Order %s confirmed", event.OrderID),
			Body: fmt.Sprintf("Your order placed on %s for %s was confirmed.",
				event.OrderDate.Format("2006-01-02"), event.Total),
		}
		if err := uc.repo.Create(ctx, notification); err != nil {
			return err
		}

		if uc.logger != nil {
			uc.logger.Info("notification recorded",
				slog.String("order_id", event.OrderID.String()),
				slog.String("email", event.Email),
			)
		}
		return nil
	})
}

// ListForOrder returns the notifications recorded for an order.
func (uc *NotificationUseCase) ListForOrder(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	return uc.repo.ListByOrderID(ctx, orderID)
}
