// Package domain contains the inbox record entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record marks a message as processed by a consumer. The unique pair
// (message_id, consumer) is what makes redeliveries detectable.
type Record struct {
	MessageID  uuid.UUID `json:"message_id"`
	Consumer   string    `json:"consumer"`
	ReceivedAt time.Time `json:"received_at"`
}
