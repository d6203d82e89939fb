// Package http implements the notification HTTP API handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/httputil"
	"github.com/allisson/ordersaga/internal/notification/domain"
	"github.com/allisson/ordersaga/internal/notification/http/dto"
)

// NotificationUseCase defines the notification operations the handler needs.
type NotificationUseCase interface {
	ListForOrder(ctx context.Context, orderID uuid.UUID) ([]*domain.Notification, error)
}

// NotificationHandler handles notification HTTP endpoints.
type NotificationHandler struct {
	notificationUseCase NotificationUseCase
	logger              *slog.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationUseCase NotificationUseCase, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		logger:              logger,
	}
}

// ListNotifications handles GET /v1/orders/:id/notifications. An order with no
// recorded notifications returns an empty list, not a 404.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "id: must be a valid uuid"))
		return
	}

	notifications, err := h.notificationUseCase.ListForOrder(c.Request.Context(), orderID)
	if err != nil {
		httputil.HandleErrorGin(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationsToListResponse(notifications))
}
