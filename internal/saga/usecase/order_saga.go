package usecase

import (
	"time"

	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/saga/domain"
)

// NewOrderSagaDefinition builds the transition table for the order process:
//
//	(none)             order.submitted     -> processing_payment, emit payment.process
//	processing_payment payment.processed   -> reserving_inventory, emit inventory.reserve
//	processing_payment order.failed        -> failed
//	reserving_inventory inventory.reserved -> completed, emit order.confirmed
//	reserving_inventory order.failed       -> failed, emit payment.refund
//
// A failure after payment capture triggers the refund compensation; a failure
// before capture finalizes directly.
func NewOrderSagaDefinition() *domain.Definition {
	definition := domain.NewDefinition(messaging.MessageTypeOrderSubmitted)

	definition.AddTransition(domain.StateNone, messaging.MessageTypeOrderSubmitted, domain.Transition{
		Action:    applyOrderSubmitted,
		NextState: domain.StateProcessingPayment,
	})
	definition.AddTransition(domain.StateProcessingPayment, messaging.MessageTypePaymentProcessed, domain.Transition{
		Action:    applyPaymentProcessed,
		NextState: domain.StateReservingInventory,
	})
	definition.AddTransition(domain.StateProcessingPayment, messaging.MessageTypeOrderFailed, domain.Transition{
		Action:    applyOrderFailedBeforeCapture,
		NextState: domain.StateFailed,
	})
	definition.AddTransition(domain.StateReservingInventory, messaging.MessageTypeInventoryReserved, domain.Transition{
		Action:    applyInventoryReserved,
		NextState: domain.StateCompleted,
	})
	definition.AddTransition(domain.StateReservingInventory, messaging.MessageTypeOrderFailed, domain.Transition{
		Action:    applyOrderFailedAfterCapture,
		NextState: domain.StateFailed,
	})

	return definition
}

func applyOrderSubmitted(instance *domain.Instance, env messaging.Envelope) ([]messaging.Envelope, error) {
	var event messaging.OrderSubmitted
	if err := env.DecodePayload(&event); err != nil {
		return nil, err
	}

	instance.OrderTotal = event.Total
	instance.ProductID = event.ProductID
	instance.CustomerEmail = event.Email
	instance.OrderDate = time.Now().UTC()

	command, err := messaging.NewEnvelope(messaging.MessageTypeProcessPayment, env.CorrelationID,
		messaging.ProcessPayment{
			OrderID: event.OrderID,
			Amount:  event.Total,
		})
	if err != nil {
		return nil, err
	}
	return []messaging.Envelope{command}, nil
}

func applyPaymentProcessed(instance *domain.Instance, env messaging.Envelope) ([]messaging.Envelope, error) {
	var event messaging.PaymentProcessed
	if err := env.DecodePayload(&event); err != nil {
		return nil, err
	}

	instance.PaymentIntentID = event.PaymentIntentID

	command, err := messaging.NewEnvelope(messaging.MessageTypeReserveInventory, env.CorrelationID,
		messaging.ReserveInventory{
			OrderID:   event.OrderID,
			ProductID: instance.ProductID,
		})
	if err != nil {
		return nil, err
	}
	return []messaging.Envelope{command}, nil
}

func applyOrderFailedBeforeCapture(_ *domain.Instance, _ messaging.Envelope) ([]messaging.Envelope, error) {
	// Funds were never captured, nothing to compensate.
	return nil, nil
}

func applyInventoryReserved(instance *domain.Instance, env messaging.Envelope) ([]messaging.Envelope, error) {
	event, err := messaging.NewEnvelope(messaging.MessageTypeOrderConfirmed, env.CorrelationID,
		messaging.OrderConfirmed{
			OrderID:         instance.CorrelationID,
			ProductID:       instance.ProductID,
			Email:           instance.CustomerEmail,
			Total:           instance.OrderTotal,
			OrderDate:       instance.OrderDate,
			PaymentIntentID: instance.PaymentIntentID,
		})
	if err != nil {
		return nil, err
	}
	return []messaging.Envelope{event}, nil
}

func applyOrderFailedAfterCapture(instance *domain.Instance, env messaging.Envelope) ([]messaging.Envelope, error) {
	command, err := messaging.NewEnvelope(messaging.MessageTypeRefundPayment, env.CorrelationID,
		messaging.RefundPayment{
			OrderID: instance.CorrelationID,
			Amount:  instance.OrderTotal,
		})
	if err != nil {
		return nil, err
	}
	return []messaging.Envelope{command}, nil
}
