// Package usecase implements the payment service consumers: capture on
// command, refund on compensation.
package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/messaging"
	outboxusecase "github.com/allisson/ordersaga/internal/outbox/usecase"
	"github.com/allisson/ordersaga/internal/payment/domain"
)

const consumerName = "payment-service"

// PaymentRepository defines payment repository operations.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}

// InboxGuard registers processed messages for deduplication.
type InboxGuard interface {
	Register(ctx context.Context, messageID uuid.UUID, consumer string) error
}

// PaymentUseCase handles payment capture and refund commands. Business
// declines become order.failed events inside the same transaction; they are
// outcomes, not errors.
type PaymentUseCase struct {
	txManager database.TxManager
	repo      PaymentRepository
	inbox     InboxGuard
	outbox    outboxusecase.Enqueuer
	logger    *slog.Logger
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	txManager database.TxManager,
	repo PaymentRepository,
	inbox InboxGuard,
	outbox outboxusecase.Enqueuer,
	logger *slog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager: txManager,
		repo:      repo,
		inbox:     inbox,
		outbox:    outbox,
		logger:    logger,
	}
}

// HandleProcessPayment captures funds for the order. A capture that cannot
// proceed for business reasons commits an order.failed event instead of
// surfacing an error.
func (uc *PaymentUseCase) HandleProcessPayment(ctx context.Context, env messaging.Envelope) error {
	var command messaging.ProcessPayment
	if err := env.DecodePayload(&command); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.inbox.Register(ctx, env.MessageID, consumerName); err != nil {
			return err
		}

		if reason, declined := declineReason(command.Amount); declined {
			if uc.logger != nil {
				uc.logger.Warn("payment declined",
					slog.String("order_id", command.OrderID.String()),
					slog.String("amount", command.Amount),
					slog.String("reason", reason),
				)
			}
			return uc.enqueueFailure(ctx, env.CorrelationID, command.OrderID, reason)
		}

		payment := &domain.Payment{
			ID:              uuid.Must(uuid.NewV7()),
			OrderID:         command.OrderID,
			Amount:          command.Amount,
			Status:          domain.PaymentStatusCaptured,
			PaymentIntentID: fmt.Sprintf("pi_%s", uuid.Must(uuid.NewV7())),
		}
		if err := uc.repo.Create(ctx, payment); err != nil {
			return err
		}

		event, err := messaging.NewEnvelope(messaging.MessageTypePaymentProcessed, env.CorrelationID,
			messaging.PaymentProcessed{
				OrderID:         command.OrderID,
				PaymentIntentID: payment.PaymentIntentID,
			})
		if err != nil {
			return err
		}
		if err := uc.outbox.Enqueue(ctx, event); err != nil {
			return err
		}

		if uc.logger != nil {
			uc.logger.Info("payment captured",
				slog.String("order_id", command.OrderID.String()),
				slog.String("amount", command.Amount),
				slog.String("payment_intent_id", payment.PaymentIntentID),
			)
		}
		return nil
	})
}

// HandleRefundPayment marks the capture refunded. The refund emits no events;
// it is the end of the compensation path.
func (uc *PaymentUseCase) HandleRefundPayment(ctx context.Context, env messaging.Envelope) error {
	var command messaging.RefundPayment
	if err := env.DecodePayload(&command); err != nil {
		return err
	}

	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.inbox.Register(ctx, env.MessageID, consumerName); err != nil {
			return err
		}

		payment, err := uc.repo.GetByOrderID(ctx, command.OrderID)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return apperrors.Wrapf(apperrors.ErrOrphanEvent,
					"no payment to refund for order %s", command.OrderID)
			}
			return err
		}

		if payment.Status == domain.PaymentStatusRefunded {
			return nil
		}

		payment.Status = domain.PaymentStatusRefunded
		if err := uc.repo.Update(ctx, payment); err != nil {
			return err
		}

		if uc.logger != nil {
			uc.logger.Info("payment refunded",
				slog.String("order_id", command.OrderID.String()),
				slog.String("amount", command.Amount),
				slog.String("payment_intent_id", payment.PaymentIntentID),
			)
		}
		return nil
	})
}

// enqueueFailure records the business decline as an order.failed event.
func (uc *PaymentUseCase) enqueueFailure(
	ctx context.Context,
	correlationID uuid.UUID,
	orderID uuid.UUID,
	reason string,
) error {
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

// declineReason applies the capture acceptance rules to the decimal amount.
func declineReason(amount string) (string, bool) {
	value, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return "payment declined: malformed amount", true
	}
	if value <= 0 {
		return "payment declined: amount must be positive", true
	}
	return "", false
}
