// Package http implements the order HTTP API handlers.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/httputil"
	orderdomain "github.com/allisson/ordersaga/internal/order/domain"
	"github.com/allisson/ordersaga/internal/order/http/dto"
	orderusecase "github.com/allisson/ordersaga/internal/order/usecase"
	sagadomain "github.com/allisson/ordersaga/internal/saga/domain"
)

// OrderUseCase defines the order operations the handler needs.
type OrderUseCase interface {
	SubmitOrder(ctx context.Context, input orderusecase.SubmitOrderInput) (uuid.UUID, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*orderdomain.Order, error)
	ListOrders(ctx context.Context, offset, limit int) ([]*orderdomain.Order, error)
}

// SagaReader reads the current state of a saga instance.
type SagaReader interface {
	GetInstance(ctx context.Context, correlationID uuid.UUID) (*sagadomain.Instance, error)
}

// OrderHandler handles order HTTP endpoints.
type OrderHandler struct {
	orderUseCase OrderUseCase
	sagaReader   SagaReader
	logger       *slog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderUseCase OrderUseCase, sagaReader SagaReader, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderUseCase: orderUseCase,
		sagaReader:   sagaReader,
		logger:       logger,
	}
}

// SubmitOrder handles POST /v1/orders. The order is accepted for processing
// and the saga outcome is observed through the saga endpoint.
func (h *OrderHandler) SubmitOrder(c *gin.Context) {
	var request dto.SubmitOrderRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.HandleBadRequestGin(c, err)
		return
	}

	if err := request.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, err)
		return
	}

	productID, err := uuid.Parse(request.ProductID)
	if err != nil {
		httputil.HandleValidationErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "product_id: must be a valid uuid"))
		return
	}

	orderID, err := h.orderUseCase.SubmitOrder(c.Request.Context(), orderusecase.SubmitOrderInput{
		Total:     request.Total,
		ProductID: productID,
		Email:     request.Email,
	})
	if err != nil {
		httputil.HandleErrorGin(c, h.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitOrderResponse{OrderID: orderID.String()})
}

// GetOrder handles GET /v1/orders/:id. Only confirmed orders have a row, so
// an order still in flight returns 404.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "id: must be a valid uuid"))
		return
	}

	order, err := h.orderUseCase.GetOrder(c.Request.Context(), id)
	if err != nil {
		httputil.HandleErrorGin(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOrderResponse(order))
}

// ListOrders handles GET /v1/orders with pagination.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	orders, err := h.orderUseCase.ListOrders(c.Request.Context(), offset, limit)
	if err != nil {
		httputil.HandleErrorGin(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.MapOrdersToListResponse(orders))
}

// GetSaga handles GET /v1/sagas/:correlation_id.
func (h *OrderHandler) GetSaga(c *gin.Context) {
	correlationID, err := uuid.Parse(c.Param("correlation_id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, apperrors.Wrap(apperrors.ErrInvalidInput, "correlation_id: must be a valid uuid"))
		return
	}

	instance, err := h.sagaReader.GetInstance(c.Request.Context(), correlationID)
	if err != nil {
		httputil.HandleErrorGin(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSagaInstanceResponse(instance))
}
