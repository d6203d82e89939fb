package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics defines the interface for recording business operation metrics.
// Implementations track saga transitions, message dispositions, and relay activity.
type BusinessMetrics interface {
	// RecordOperation records a business operation with its status.
	// Domain examples: "saga", "outbox", "payment", "inventory"
	// Operation examples: "transition", "relay_deliver", "process_payment"
	// Status examples: "success", "failed", "dropped"
	RecordOperation(ctx context.Context, domain, operation, status string)

	// RecordSagaState records a saga instance entering a state.
	RecordSagaState(ctx context.Context, state string)
}

// businessMetrics implements BusinessMetrics using OpenTelemetry metrics.
type businessMetrics struct {
	operationCounter metric.Int64Counter
	sagaStateCounter metric.Int64Counter
}

// NewBusinessMetrics creates a new BusinessMetrics implementation using the provided meter provider.
// The namespace parameter is used as a prefix for all metric names.
func NewBusinessMetrics(meterProvider metric.MeterProvider, namespace string) (BusinessMetrics, error) {
	meter := meterProvider.Meter(namespace)

	operationCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_operations_total", namespace),
		metric.WithDescription("Total number of business operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation counter: %w", err)
	}

	sagaStateCounter, err := meter.Int64Counter(
		fmt.Sprintf("%s_saga_state_transitions_total", namespace),
		metric.WithDescription("Total number of saga state transitions by target state"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create saga state counter: %w", err)
	}

	return &businessMetrics{
		operationCounter: operationCounter,
		sagaStateCounter: sagaStateCounter,
	}, nil
}

// RecordOperation increments the operation counter with domain, operation, and status labels.
func (b *businessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	b.operationCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("domain", domain),
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordSagaState increments the saga state counter with a state label.
func (b *businessMetrics) RecordSagaState(ctx context.Context, state string) {
	b.sagaStateCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("state", state),
		),
	)
}

// NoOpBusinessMetrics is a no-op implementation of BusinessMetrics for when metrics are disabled.
type NoOpBusinessMetrics struct{}

// NewNoOpBusinessMetrics creates a no-op BusinessMetrics implementation.
func NewNoOpBusinessMetrics() BusinessMetrics {
	return &NoOpBusinessMetrics{}
}

// RecordOperation does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	// No-op
}

// RecordSagaState does nothing when metrics are disabled.
func (n *NoOpBusinessMetrics) RecordSagaState(ctx context.Context, state string) {
	// No-op
}
