// Package httputil provides HTTP response helpers shared by the handlers.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/ordersaga/internal/errors"
)

// ErrorResponse is the standard error payload for the HTTP API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HandleErrorGin maps domain errors to HTTP status codes and writes the
// response on the gin context.
func HandleErrorGin(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	case apperrors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "invalid_input",
			Message: err.Error(),
		})
	default:
		if logger != nil {
			logger.Error("internal server error", "error", err)
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "an internal error occurred",
		})
	}
}

// HandleBadRequestGin writes a 400 response for malformed request bodies.
func HandleBadRequestGin(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 response for failed input validation.
func HandleValidationErrorGin(c *gin.Context, err error) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "invalid_input",
		Message: err.Error(),
	})
}
