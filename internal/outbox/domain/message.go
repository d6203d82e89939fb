// Package domain defines the transactional outbox entities.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// MessageStatus represents the delivery status of an outbox message.
type MessageStatus string

const (
	// MessageStatusPending marks rows awaiting delivery.
	MessageStatusPending MessageStatus = "pending"
	// MessageStatusDelivered marks rows confirmed sent to the broker.
	MessageStatusDelivered MessageStatus = "delivered"
	// MessageStatusDead marks rows that exceeded the attempt ceiling; they are
	// excluded from automatic delivery and surfaced for operator inspection.
	MessageStatusDead MessageStatus = "dead"
)

// Message is one outgoing event or command, written in the same local
// transaction as the state change that produced it. The row id doubles as the
// wire message id, so redeliveries keep a stable identity for inbox
// deduplication downstream.
type Message struct {
	ID            uuid.UUID
	CorrelationID uuid.UUID
	MessageType   string
	Payload       string
	Destination   string
	OccurredAt    time.Time
	Status        MessageStatus
	Attempts      int
	NextAttemptAt time.Time
	LastError     *string
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
