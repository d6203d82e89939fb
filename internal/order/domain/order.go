// Package domain contains the order entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order is the order service's local projection of a completed process. The
// row is created when the confirmation event arrives with the full order
// snapshot; until then the saga instance is the only record of the attempt.
type Order struct {
	ID              uuid.UUID `json:"id"`
	ProductID       uuid.UUID `json:"product_id"`
	CustomerEmail   string    `json:"customer_email"`
	Total           string    `json:"total"`
	PaymentIntentID string    `json:"payment_intent_id"`
	OrderDate       time.Time `json:"order_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
