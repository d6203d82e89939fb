package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	apperrors "github.com/allisson/ordersaga/internal/errors"
)

// RabbitMQConfig holds broker connection settings.
type RabbitMQConfig struct {
	URL      string
	Exchange string
	// Queue is the durable queue this service consumes from; message-type
	// bindings are added per subscription.
	Queue    string
	Prefetch int
}

// RabbitMQBus implements Bus over a RabbitMQ topic exchange. Routing key is
// the message type; each service owns one durable queue bound to the types it
// subscribes to. Deliveries are acknowledged manually: a handler error nacks
// with requeue, preserving at-least-once semantics.
type RabbitMQBus struct {
	cfg    RabbitMQConfig
	logger *slog.Logger

	conn        *amqp.Connection
	publishCh   *amqp.Channel
	publishMu   sync.Mutex
	subscribers map[string]Handler
}

// NewRabbitMQBus connects to the broker and declares the topic exchange.
func NewRabbitMQBus(cfg RabbitMQConfig, logger *slog.Logger) (*RabbitMQBus, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to connect to rabbitmq")
	}

	publishCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, apperrors.Wrap(err, "failed to open publish channel")
	}

	if err := publishCh.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = publishCh.Close()
		_ = conn.Close()
		return nil, apperrors.Wrap(err, "failed to declare exchange")
	}

	return &RabbitMQBus{
		cfg:         cfg,
		logger:      logger,
		conn:        conn,
		publishCh:   publishCh,
		subscribers: make(map[string]Handler),
	}, nil
}

// Publish sends the envelope to the exchange with the message type as routing
// key. Messages are persistent so a broker restart does not lose them.
func (b *RabbitMQBus) Publish(ctx context.Context, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal envelope")
	}

	b.publishMu.Lock()
	defer b.publishMu.Unlock()

	err = b.publishCh.PublishWithContext(
		ctx,
		b.cfg.Exchange,
		env.MessageType,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.MessageID.String(),
			CorrelationId: env.CorrelationID.String(),
			Timestamp:     env.OccurredAt,
			Body:          body,
		},
	)
	if err != nil {
		return apperrors.Wrapf(err, "failed to publish %s", env.MessageType)
	}
	return nil
}

// Subscribe registers a handler for a message type. Must be called before Start.
func (b *RabbitMQBus) Subscribe(messageType string, handler Handler) {
	b.subscribers[messageType] = handler
}

// Start declares and binds the service queue, then consumes until the context
// is cancelled. Each delivery is dispatched to the handler registered for its
// message type; unknown types are acked and dropped.
func (b *RabbitMQBus) Start(ctx context.Context) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return apperrors.Wrap(err, "failed to open consume channel")
	}
	defer func() {
		_ = ch.Close()
	}()

	if err := ch.Qos(b.cfg.Prefetch, 0, false); err != nil {
		return apperrors.Wrap(err, "failed to set prefetch")
	}

	queue, err := ch.QueueDeclare(
		b.cfg.Queue,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to declare queue")
	}

	for messageType := range b.subscribers {
		if err := ch.QueueBind(queue.Name, messageType, b.cfg.Exchange, false, nil); err != nil {
			return apperrors.Wrapf(err, "failed to bind queue to %s", messageType)
		}
	}

	deliveries, err := ch.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to start consuming")
	}

	b.logger.Info("consuming from queue",
		slog.String("queue", queue.Name),
		slog.String("exchange", b.cfg.Exchange),
		slog.Int("bindings", len(b.subscribers)),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", queue.Name)
			}
			b.dispatch(ctx, delivery)
		}
	}
}

// dispatch routes one delivery to its handler and resolves the ack. A handler
// error nacks with requeue so the broker redelivers later; malformed bodies
// and unknown types are acked since redelivery cannot fix them.
func (b *RabbitMQBus) dispatch(ctx context.Context, delivery amqp.Delivery) {
	var env Envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		b.logger.Error("dropping malformed message",
			slog.String("message_id", delivery.MessageId),
			slog.Any("error", err),
		)
		_ = delivery.Ack(false)
		return
	}

	handler, ok := b.subscribers[env.MessageType]
	if !ok {
		b.logger.Warn("no handler for message type, dropping",
			slog.String("message_type", env.MessageType),
			slog.String("message_id", env.MessageID.String()),
		)
		_ = delivery.Ack(false)
		return
	}

	if err := handler(ctx, env); err != nil {
		b.logger.Error("handler failed, requeueing message",
			slog.String("message_type", env.MessageType),
			slog.String("message_id", env.MessageID.String()),
			slog.String("correlation_id", env.CorrelationID.String()),
			slog.Any("error", err),
		)
		_ = delivery.Nack(false, true)
		return
	}

	_ = delivery.Ack(false)
}

// Close releases the broker connection.
func (b *RabbitMQBus) Close() error {
	if err := b.publishCh.Close(); err != nil {
		_ = b.conn.Close()
		return apperrors.Wrap(err, "failed to close publish channel")
	}
	return b.conn.Close()
}
