// Package usecase implements the inventory service consumer and stock seeding.
package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/inventory/domain"
	"github.com/allisson/ordersaga/internal/messaging"
	outboxusecase "github.com/allisson/ordersaga/internal/outbox/usecase"
)

const consumerName = "inventory-service"

// Demo catalog products, seeded with stock by the seed command.
var seedProducts = []uuid.UUID{
	uuid.MustParse("b3fed189-f0fd-409b-8b5c-ae2f8a6fae9d"),
	uuid.MustParse("571636d2-ca65-433d-8746-507a1e539ae9"),
}

const seedQuantity = 100

// LineRepository defines inventory line repository operations.
type LineRepository interface {
	Upsert(ctx context.Context, line *domain.Line) error
	GetForUpdate(ctx context.Context, productID uuid.UUID) (*domain.Line, error)
	Update(ctx context.Context, line *domain.Line) error
}

// InboxGuard registers processed messages for deduplication.
type InboxGuard interface {
	Register(ctx context.Context, messageID uuid.UUID, consumer string) error
}

// InventoryUseCase handles stock reservations. An unknown product or an empty
// line commits an order.failed event; both are business outcomes.
type InventoryUseCase struct {
	txManager database.TxManager
	repo      LineRepository
	inbox     InboxGuard
	outbox    outboxusecase.Enqueuer
	logger    *slog.Logger
}

// NewInventoryUseCase creates a new InventoryUseCase.
func NewInventoryUseCase(
	txManager database.TxManager,
	repo LineRepository,
	inbox InboxGuard,
	outbox outboxusecase.Enqueuer,
	logger *slog.Logger,
) *InventoryUseCase {
	return &InventoryUseCase{
		txManager: txManager,
		repo:      repo,
		inbox:     inbox,
		outbox:    outbox,
		logger:    logger,
	}
}

// HandleReserveInventory decrements the product's stock by one unit. The line
// is row-locked for the transaction, so concurrent reservations for the same
// product serialize and the quantity never goes negative.
func (uc *InventoryUseCase) HandleReserveInventory(ctx context.Context, env messaging.Envelope) error {
	var command messaging.ReserveInventory
	if err := env.DecodePayload(&command); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.inbox.Register(ctx, env.MessageID, consumerName); err != nil {
			return err
		}

		line, err := uc.repo.GetForUpdate(ctx, command.ProductID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return uc.enqueueFailure(ctx, env.CorrelationID, command.OrderID, "product unavailable")
			}
			return err
		}

		if line.Quantity < 1 {
			return uc.enqueueFailure(ctx, env.CorrelationID, command.OrderID, "insufficient inventory")
		}

		line.Quantity--
		if err := uc.repo.Update(ctx, line); err != nil {
			return err
		}

		event, err := messaging.NewEnvelope(messaging.MessageTypeInventoryReserved, env.CorrelationID,
			messaging.InventoryReserved{OrderID: command.OrderID})
		if err != nil {
			return err
		}
		if err := uc.outbox.Enqueue(ctx, event); err != nil {
			return err
		}

		if uc.logger != nil {
			uc.logger.Info("inventory reserved",
				slog.String("order_id", command.OrderID.String()),
				slog.String("product_id", command.ProductID.String()),
				slog.Int("remaining", line.Quantity),
			)
		}
		return nil
	})
}

// Seed resets the demo catalog to its initial stock levels.
func (uc *InventoryUseCase) Seed(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, productID := range seedProducts {
			line := &domain.Line{
				ProductID: productID,
				Quantity:  seedQuantity,
			}
			if err := uc.repo.Upsert(ctx, line); err != nil {
				return err
			}
			if uc.logger != nil {
				uc.logger.Info("inventory line seeded",
					slog.String("product_id", productID.String()),
					slog.Int("quantity", seedQuantity),
				)
			}
		}
		return nil
	})
}

// enqueueFailure records the reservation failure as an order.failed event.
func (uc *InventoryUseCase) enqueueFailure(
	ctx context.Context,
	correlationID uuid.UUID,
	orderID uuid.UUID,
	reason string,
) error {
	if uc.logger != nil {
		uc.logger.Warn("inventory reservation failed",
			slog.String("order_id", orderID.String()),
			slog.String("reason", reason),
		)
	}
	event, err := messaging.NewEnvelope(messaging.MessageTypeOrderFailed, correlationID,
		messaging.OrderFailed{
			OrderID: orderID,
			Reason:  reason,
		})
	if err != nil {
		return err
	}
	return uc.outbox.Enqueue(ctx, event)
}
