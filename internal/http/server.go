// Package http provides the order API server and the metrics server.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/ordersaga/internal/config"
	"github.com/allisson/ordersaga/internal/metrics"
	notificationhttp "github.com/allisson/ordersaga/internal/notification/http"
	orderhttp "github.com/allisson/ordersaga/internal/order/http"
)

// Server represents the order API HTTP server.
type Server struct {
	server *http.Server
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the order API routes mounted.
func NewServer(
	cfg *config.Config,
	orderHandler *orderhttp.OrderHandler,
	notificationHandler *notificationhttp.NotificationHandler,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	router.GET("/health", HealthHandler())

	v1 := router.Group("/v1")
	{
		submitHandlers := []gin.HandlerFunc{orderHandler.SubmitOrder}
		if cfg.RateLimitEnabled {
			submitHandlers = []gin.HandlerFunc{
				RateLimitMiddleware(cfg.RateLimitRequestsPerSec, cfg.RateLimitBurst, logger),
				orderHandler.SubmitOrder,
			}
		}
		v1.POST("/orders", submitHandlers...)
		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.GET("/orders/:id/notifications", notificationHandler.ListNotifications)
		v1.GET("/sagas/:correlation_id", orderHandler.GetSaga)
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.router
}

// Start starts the HTTP server. The readiness endpoint flips to not ready
// once ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.router.GET("/ready", ReadinessHandler(ctx))

	if s.logger != nil {
		s.logger.Info("starting http server", slog.String("addr", s.server.Addr))
	}

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("shutting down http server")
	}
	return s.server.Shutdown(ctx)
}
