// Package dto defines response payloads for the notification HTTP API.
package dto

import (
	"time"

	"github.com/allisson/ordersaga/internal/notification/domain"
)

// NotificationResponse represents one recorded customer notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse creates a NotificationResponse from a domain notification
func NewNotificationResponse(notification *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        notification.ID.String(),
		OrderID:   notification.OrderID.String(),
		Email:     notification.Email,
		Subject:   notification.Subject,
		Body:      notification.Body,
		CreatedAt: notification.CreatedAt,
	}
}

// ListNotificationsResponse wraps a list of notifications.
type ListNotificationsResponse struct {
	Data []NotificationResponse `json:"data"`
}

// MapNotificationsToListResponse creates a ListNotificationsResponse from domain notifications
func MapNotificationsToListResponse(notifications []*domain.Notification) ListNotificationsResponse {
	data := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		data = append(data, NewNotificationResponse(notification))
	}
	return ListNotificationsResponse{Data: data}
}
