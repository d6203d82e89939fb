package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Monetary amounts travel as decimal strings to avoid binary float drift and
// are stored verbatim on both ends.

// OrderSubmitted starts an order saga. Published by the order intake endpoint.
type OrderSubmitted struct {
	OrderID   uuid.UUID `json:"order_id"`
	Total     string    `json:"total"`
	ProductID uuid.UUID `json:"product_id"`
	Email     string    `json:"email"`
}

// ProcessPayment instructs the payment service to capture funds.
type ProcessPayment struct {
	OrderID uuid.UUID `json:"order_id"`
	Amount  string    `json:"amount"`
}

// PaymentProcessed reports a successful capture back to the orchestrator.
type PaymentProcessed struct {
	OrderID         uuid.UUID `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
}

// ReserveInventory instructs the inventory service to reserve stock.
type ReserveInventory struct {
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
}

// InventoryReserved reports a successful reservation back to the orchestrator.
type InventoryReserved struct {
	OrderID uuid.UUID `json:"order_id"`
}

// OrderConfirmed closes a successful saga and carries the full order snapshot
// for downstream projections (order record, customer notification).
type OrderConfirmed struct {
	OrderID         uuid.UUID `json:"order_id"`
	ProductID       uuid.UUID `json:"product_id"`
	Email           string    `json:"email"`
	Total           string    `json:"total"`
	OrderDate       time.Time `json:"order_date"`
	PaymentIntentID string    `json:"payment_intent_id"`
}

// OrderFailed reports a business failure from any satellite service. Reason is
// a human-readable explanation, not an error code.
type OrderFailed struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason,omitempty"`
}

// RefundPayment is the compensation command emitted when the saga fails after
// funds were already captured.
type RefundPayment struct {
	OrderID uuid.UUID `json:"order_id"`
	Amount  string    `json:"amount"`
}
