package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/ordersaga/internal/app"
	"github.com/allisson/ordersaga/internal/config"
)

// serviceSpec describes what a service process runs: which consumers it
// registers, whether it serves the HTTP API, and whether it relays its outbox.
type serviceSpec struct {
	name      string
	register  func(*app.Container) error
	withHTTP  bool
	withRelay bool
}

// RunOrderService starts the order service: the HTTP API, the saga engine
// consumers, the order projection consumer, and the outbox relay.
func RunOrderService(ctx context.Context, version string) error {
	return runService(ctx, version, serviceSpec{
		name:      "order-service",
		register:  (*app.Container).RegisterOrderServiceConsumers,
		withHTTP:  true,
		withRelay: true,
	})
}

// RunPaymentService starts the payment service consumers and outbox relay.
func RunPaymentService(ctx context.Context, version string) error {
	return runService(ctx, version, serviceSpec{
		name:      "payment-service",
		register:  (*app.Container).RegisterPaymentServiceConsumers,
		withRelay: true,
	})
}

// RunInventoryService starts the inventory service consumers and outbox relay.
func RunInventoryService(ctx context.Context, version string) error {
	return runService(ctx, version, serviceSpec{
		name:      "inventory-service",
		register:  (*app.Container).RegisterInventoryServiceConsumers,
		withRelay: true,
	})
}

// RunNotificationService starts the notification service consumers. The
// service emits no messages, so it runs without an outbox relay.
func RunNotificationService(ctx context.Context, version string) error {
	return runService(ctx, version, serviceSpec{
		name:     "notification-service",
		register: (*app.Container).RegisterNotificationServiceConsumers,
	})
}

// runService assembles and runs one service process until it receives
// SIGINT/SIGTERM or a component fails.
func runService(ctx context.Context, version string, spec serviceSpec) error {
	cfg := config.Load()
	cfg.ServiceName = spec.name

	gin.SetMode(cfg.GetGinMode())

	container := app.NewContainer(cfg)
	logger := container.Logger()
	logger.Info("starting service", slog.String("version", version))

	defer closeContainer(container, logger)

	if err := spec.register(container); err != nil {
		return fmt.Errorf("failed to register consumers: %w", err)
	}

	bus, err := container.Bus()
	if err != nil {
		return fmt.Errorf("failed to initialize bus: %w", err)
	}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return bus.Start(groupCtx)
	})

	if spec.withRelay {
		relay, relayErr := container.Relay()
		if relayErr != nil {
			return fmt.Errorf("failed to initialize relay: %w", relayErr)
		}
		group.Go(func() error {
			return relay.Start(groupCtx)
		})
	}

	if spec.withHTTP {
		server, serverErr := container.HTTPServer()
		if serverErr != nil {
			return fmt.Errorf("failed to initialize HTTP server: %w", serverErr)
		}
		group.Go(func() error {
			return server.Start(groupCtx)
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	if metricsServer != nil {
		group.Go(func() error {
			return metricsServer.Start(groupCtx)
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
			defer shutdownCancel()
			return metricsServer.Shutdown(shutdownCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("service stopped")
	return nil
}
