// Package domain contains the notification entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one customer message recorded by the notification service.
// Actual delivery is out of scope here; the row is the local effect.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
