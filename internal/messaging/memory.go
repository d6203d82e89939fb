package messaging

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryBus is a synchronous, in-process bus. Publish dispatches to every
// handler registered for the message type before returning. It backs unit and
// integration tests where broker semantics are not under test.
type InMemoryBus struct {
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[string][]Handler
	history  []Envelope
}

// NewInMemoryBus creates an empty in-memory bus.
func NewInMemoryBus(logger *slog.Logger) *InMemoryBus {
	return &InMemoryBus{
		logger:   logger,
		handlers: make(map[string][]Handler),
	}
}

// Subscribe registers a handler for a message type.
func (b *InMemoryBus) Subscribe(messageType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[messageType] = append(b.handlers[messageType], handler)
}

// Publish records the envelope and dispatches it synchronously. The first
// handler error is returned so callers see delivery failures the way they
// would see a broker publish failure.
func (b *InMemoryBus) Publish(ctx context.Context, env Envelope) error {
	b.mu.Lock()
	b.history = append(b.history, env)
	handlers := make([]Handler, len(b.handlers[env.MessageType]))
	copy(handlers, b.handlers[env.MessageType])
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("publishing message",
			slog.String("message_type", env.MessageType),
			slog.String("message_id", env.MessageID.String()),
			slog.String("correlation_id", env.CorrelationID.String()),
			slog.Int("handler_count", len(handlers)),
		)
	}

	for _, handler := range handlers {
		if err := handler(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// Start blocks until the context is cancelled. Dispatch happens inline on
// Publish, so there is no consume loop to run.
func (b *InMemoryBus) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

// History returns a copy of every envelope published so far, in order.
func (b *InMemoryBus) History() []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	history := make([]Envelope, len(b.history))
	copy(history, b.history)
	return history
}

// HistoryByType returns published envelopes of one message type, in order.
func (b *InMemoryBus) HistoryByType(messageType string) []Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []Envelope
	for _, env := range b.history {
		if env.MessageType == messageType {
			matched = append(matched, env)
		}
	}
	return matched
}
