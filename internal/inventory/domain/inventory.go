// Package domain contains the inventory line entity.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Line is the on-hand quantity for one product.
type Line struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
