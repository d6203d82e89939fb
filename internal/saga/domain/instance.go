// Package domain contains the saga instance entity and the transition table
// types interpreted by the engine.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is a saga state machine state.
type State string

const (
	// StateNone is the implicit state before the initiating event arrives.
	StateNone State = ""
	// StateProcessingPayment waits for the payment service's outcome.
	StateProcessingPayment State = "processing_payment"
	// StateReservingInventory waits for the inventory service's outcome.
	StateReservingInventory State = "reserving_inventory"
	// StateCompleted is the successful terminal state.
	StateCompleted State = "completed"
	// StateFailed is the failed terminal state.
	StateFailed State = "failed"
)

// IsTerminal reports whether the state is terminal. A terminal state is never
// exited.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Instance is one execution of a saga, keyed by correlation id (the order id).
// Instances are never deleted; terminal rows remain as an audit trail.
type Instance struct {
	CorrelationID   uuid.UUID `json:"correlation_id"`
	CurrentState    State     `json:"current_state"`
	OrderTotal      string    `json:"order_total"`
	ProductID       uuid.UUID `json:"product_id"`
	CustomerEmail   string    `json:"customer_email"`
	PaymentIntentID string    `json:"payment_intent_id"`
	OrderDate       time.Time `json:"order_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
