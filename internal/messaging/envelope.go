// Package messaging defines the message envelope, the typed saga contracts,
// and the bus adapter used to exchange them between services.
package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/allisson/ordersaga/internal/errors"
)

// Message types routed between the order, payment, inventory, and
// notification services. The type doubles as the broker routing key.
const (
	MessageTypeOrderSubmitted    = "order.submitted"
	MessageTypeProcessPayment    = "payment.process"
	MessageTypePaymentProcessed  = "payment.processed"
	MessageTypeReserveInventory  = "inventory.reserve"
	MessageTypeInventoryReserved = "inventory.reserved"
	MessageTypeOrderConfirmed    = "order.confirmed"
	MessageTypeOrderFailed       = "order.failed"
	MessageTypeRefundPayment     = "payment.refund"
)

// Envelope is the wire format shared by every message on the bus. MessageID is
// unique per produced message and drives inbox deduplication; CorrelationID is
// the order identifier that ties all messages of one process together.
type Envelope struct {
	MessageID     uuid.UUID       `json:"message_id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	MessageType   string          `json:"message_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope builds an envelope with a fresh message id around the given
// payload. The correlation id is carried through unchanged so downstream
// services can tie the message back to its saga.
func NewEnvelope(messageType string, correlationID uuid.UUID, payload any) (Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, apperrors.Wrap(err, "failed to marshal message payload")
	}

	return Envelope{
		MessageID:     uuid.Must(uuid.NewV7()),
		CorrelationID: correlationID,
		MessageType:   messageType,
		OccurredAt:    time.Now().UTC(),
		Payload:       body,
	}, nil
}

// DecodePayload unmarshals the envelope payload into the given contract.
func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return apperrors.Wrapf(err, "failed to decode %s payload", e.MessageType)
	}
	return nil
}
