// Package domain contains the payment entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the lifecycle status of a captured payment.
type PaymentStatus string

const (
	// PaymentStatusCaptured means funds were captured for the order.
	PaymentStatusCaptured PaymentStatus = "captured"
	// PaymentStatusRefunded means a saga compensation refunded the capture.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Payment is the payment service's record of one capture.
type Payment struct {
	ID              uuid.UUID     `json:"id"`
	OrderID         uuid.UUID     `json:"order_id"`
	Amount          string        `json:"amount"`
	Status          PaymentStatus `json:"status"`
	PaymentIntentID string        `json:"payment_intent_id"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
