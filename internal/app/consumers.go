package app

import (
	"context"
	"fmt"

	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/metrics"
)

// instrumentHandler wraps a message handler with business metrics recording.
func instrumentHandler(
	handler messaging.Handler,
	recorder metrics.BusinessMetrics,
	domain, operation string,
) messaging.Handler {
	return func(ctx context.Context, env messaging.Envelope) error {
		err := handler(ctx, env)
		status := "success"
		if err != nil {
			status = "error"
		}
		recorder.RecordOperation(ctx, domain, operation, status)
		return err
	}
}

// RegisterOrderServiceConsumers binds the order service's message handlers.
// The saga engine consumes the events that drive transitions; the order
// projection consumes confirmations.
func (c *Container) RegisterOrderServiceConsumers() error {
	bus, err := c.Bus()
	if err != nil {
		return fmt.Errorf("failed to get bus for order service consumers: %w", err)
	}

	engine, err := c.SagaEngine()
	if err != nil {
		return fmt.Errorf("failed to get saga engine for order service consumers: %w", err)
	}

	orderUseCase, err := c.OrderUseCase()
	if err != nil {
		return fmt.Errorf("failed to get order use case for order service consumers: %w", err)
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return fmt.Errorf("failed to get business metrics for order service consumers: %w", err)
	}

	runner := c.Runner()

	for _, messageType := range []string{
		messaging.MessageTypeOrderSubmitted,
		messaging.MessageTypePaymentProcessed,
		messaging.MessageTypeInventoryReserved,
		messaging.MessageTypeOrderFailed,
	} {
		bus.Subscribe(messageType, runner.Wrap(instrumentHandler(engine.Handle, recorder, "saga", messageType)))
	}

	bus.Subscribe(
		messaging.MessageTypeOrderConfirmed,
		runner.Wrap(instrumentHandler(orderUseCase.HandleOrderConfirmed, recorder, "order", "order_confirmed")),
	)

	return nil
}

// RegisterPaymentServiceConsumers binds the payment service's message handlers.
func (c *Container) RegisterPaymentServiceConsumers() error {
	bus, err := c.Bus()
	if err != nil {
		return fmt.Errorf("failed to get bus for payment service consumers: %w", err)
	}

	paymentUseCase, err := c.PaymentUseCase()
	if err != nil {
		return fmt.Errorf("failed to get payment use case for payment service consumers: %w", err)
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return fmt.Errorf("failed to get business metrics for payment service consumers: %w", err)
	}

	runner := c.Runner()

	bus.Subscribe(
		messaging.MessageTypeProcessPayment,
		runner.Wrap(instrumentHandler(paymentUseCase.HandleProcessPayment, recorder, "payment", "process_payment")),
	)
	bus.Subscribe(
		messaging.MessageTypeRefundPayment,
		runner.Wrap(instrumentHandler(paymentUseCase.HandleRefundPayment, recorder, "payment", "refund_payment")),
	)

	return nil
}

// RegisterInventoryServiceConsumers binds the inventory service's message handlers.
func (c *Container) RegisterInventoryServiceConsumers() error {
	bus, err := c.Bus()
	if err != nil {
		return fmt.Errorf("failed to get bus for inventory service consumers: %w", err)
	}

	inventoryUseCase, err := c.InventoryUseCase()
	if err != nil {
		return fmt.Errorf("failed to get inventory use case for inventory service consumers: %w", err)
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return fmt.Errorf("failed to get business metrics for inventory service consumers: %w", err)
	}

	runner := c.Runner()

	bus.Subscribe(
		messaging.MessageTypeReserveInventory,
		runner.Wrap(instrumentHandler(inventoryUseCase.HandleReserveInventory, recorder, "inventory", "reserve_inventory")),
	)

	return nil
}

// RegisterNotificationServiceConsumers binds the notification service's message handlers.
func (c *Container) RegisterNotificationServiceConsumers() error {
	bus, err := c.Bus()
	if err != nil {
		return fmt.Errorf("failed to get bus for notification service consumers: %w", err)
	}

	notificationUseCase, err := c.NotificationUseCase()
	if err != nil {
		return fmt.Errorf("failed to get notification use case for notification service consumers: %w", err)
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return fmt.Errorf("failed to get business metrics for notification service consumers: %w", err)
	}

	runner := c.Runner()

	bus.Subscribe(
		messaging.MessageTypeOrderConfirmed,
		runner.Wrap(instrumentHandler(notificationUseCase.HandleOrderConfirmed, recorder, "notification", "order_confirmed")),
	)

	return nil
}
