package dto

import (
	orderdomain "github.com/allisson/ordersaga/internal/order/domain"
)

// ListOrdersResponse represents a paginated list of confirmed orders.
type ListOrdersResponse struct {
	Data []OrderResponse `json:"data"`
}

// MapOrdersToListResponse converts a slice of domain orders to a list response.
func MapOrdersToListResponse(orders []*orderdomain.Order) ListOrdersResponse {
	data := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		data = append(data, NewOrderResponse(order))
	}
	return ListOrdersResponse{Data: data}
}
