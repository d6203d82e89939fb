// Package dto defines request and response payloads for the order HTTP API.
package dto

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	orderdomain "github.com/allisson/ordersaga/internal/order/domain"
	sagadomain "github.com/allisson/ordersaga/internal/saga/domain"
	customValidation "github.com/allisson/ordersaga/internal/validation"
)

// SubmitOrderRequest is the payload for submitting a new order.
type SubmitOrderRequest struct {
	Total     string `json:"total"`
	ProductID string `json:"product_id"`
	Email     string `json:"email"`
}

// Validate validates the submit order request
func (r SubmitOrderRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Total, validation.Required, customValidation.PositiveAmount),
		validation.Field(&r.ProductID, validation.Required, validation.Length(36, 36)),
		validation.Field(&r.Email, validation.Required, customValidation.Email),
	)
	return customValidation.WrapValidationError(err)
}

// SubmitOrderResponse is returned when an order is accepted for processing.
type SubmitOrderResponse struct {
	OrderID string `json:"order_id"`
}

// OrderResponse represents a confirmed order.
type OrderResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	CustomerEmail   string    `json:"customer_email"`
	Total           string    `json:"total"`
	PaymentIntentID string    `json:"payment_intent_id"`
	OrderDate       time.Time `json:"order_date"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewOrderResponse creates an OrderResponse from a domain order
func NewOrderResponse(order *orderdomain.Order) OrderResponse {
	return OrderResponse{
		ID:              order.ID.String(),
		ProductID:       order.ProductID.String(),
		CustomerEmail:   order.CustomerEmail,
		Total:           order.Total,
		PaymentIntentID: order.PaymentIntentID,
		OrderDate:       order.OrderDate,
		CreatedAt:       order.CreatedAt,
	}
}

// SagaInstanceResponse represents the current progress of an order saga.
type SagaInstanceResponse struct {
	CorrelationID string    `json:"correlation_id"`
	CurrentState  string    `json:"current_state"`
	OrderTotal    string    `json:"order_total,omitempty"`
	ProductID     string    `json:"product_id,omitempty"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSagaInstanceResponse creates a SagaInstanceResponse from a saga instance
func NewSagaInstanceResponse(instance *sagadomain.Instance) SagaInstanceResponse {
	response := SagaInstanceResponse{
		CorrelationID: instance.CorrelationID.String(),
		CurrentState:  string(instance.CurrentState),
		OrderTotal:    instance.OrderTotal,
		CustomerEmail: instance.CustomerEmail,
		UpdatedAt:     instance.UpdatedAt,
	}
	if instance.ProductID != uuid.Nil {
		response.ProductID = instance.ProductID.String()
	}
	return response
}
