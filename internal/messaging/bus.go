package messaging

import "context"

// Handler processes one inbound envelope. A nil return acknowledges the
// message; a non-nil return leaves it to the consumer runner's retry and
// redelivery policy.
type Handler func(ctx context.Context, env Envelope) error

// Publisher is the send primitive over the broker. Delivery is at-least-once;
// the transactional outbox on top of it is what makes publishing reliable.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Subscriber registers handlers for message types and then consumes until the
// context is cancelled. Subscriptions must be registered before Start.
type Subscriber interface {
	Subscribe(messageType string, handler Handler)
	Start(ctx context.Context) error
}

// Bus combines both sides of the adapter.
type Bus interface {
	Publisher
	Subscriber
}
