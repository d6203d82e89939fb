// Package app provides the dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/allisson/ordersaga/internal/config"
	"github.com/allisson/ordersaga/internal/database"
	"github.com/allisson/ordersaga/internal/http"
	inboxRepository "github.com/allisson/ordersaga/internal/inbox/repository"
	inboxUsecase "github.com/allisson/ordersaga/internal/inbox/usecase"
	inventoryRepository "github.com/allisson/ordersaga/internal/inventory/repository"
	inventoryUsecase "github.com/allisson/ordersaga/internal/inventory/usecase"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/metrics"
	notificationHTTP "github.com/allisson/ordersaga/internal/notification/http"
	notificationRepository "github.com/allisson/ordersaga/internal/notification/repository"
	notificationUsecase "github.com/allisson/ordersaga/internal/notification/usecase"
	orderHTTP "github.com/allisson/ordersaga/internal/order/http"
	orderRepository "github.com/allisson/ordersaga/internal/order/repository"
	orderUsecase "github.com/allisson/ordersaga/internal/order/usecase"
	outboxRepository "github.com/allisson/ordersaga/internal/outbox/repository"
	outboxUsecase "github.com/allisson/ordersaga/internal/outbox/usecase"
	paymentRepository "github.com/allisson/ordersaga/internal/payment/repository"
	paymentUsecase "github.com/allisson/ordersaga/internal/payment/usecase"
	sagaRepository "github.com/allisson/ordersaga/internal/saga/repository"
	sagaUsecase "github.com/allisson/ordersaga/internal/saga/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	bus             messaging.Bus
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Repositories
	messageRepo      outboxUsecase.MessageRepository
	recordRepo       inboxUsecase.RecordRepository
	instanceRepo     sagaUsecase.InstanceRepository
	orderRepo        orderUsecase.OrderRepository
	paymentRepo      paymentUsecase.PaymentRepository
	lineRepo         inventoryUsecase.LineRepository
	notificationRepo notificationUsecase.NotificationRepository

	// Use Cases and Workers
	outbox              *outboxUsecase.Outbox
	relay               *outboxUsecase.Relay
	inboxGuard          *inboxUsecase.Guard
	sagaEngine          *sagaUsecase.Engine
	orderUseCase        *orderUsecase.OrderUseCase
	paymentUseCase      *paymentUsecase.PaymentUseCase
	inventoryUseCase    *inventoryUsecase.InventoryUseCase
	notificationUseCase *notificationUsecase.NotificationUseCase
	runner              *messaging.Runner

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                      sync.Mutex
	loggerInit              sync.Once
	dbInit                  sync.Once
	busInit                 sync.Once
	metricsProviderInit     sync.Once
	businessMetricsInit     sync.Once
	txManagerInit           sync.Once
	messageRepoInit         sync.Once
	recordRepoInit          sync.Once
	instanceRepoInit        sync.Once
	orderRepoInit           sync.Once
	paymentRepoInit         sync.Once
	lineRepoInit            sync.Once
	notificationRepoInit    sync.Once
	outboxInit              sync.Once
	relayInit               sync.Once
	inboxGuardInit          sync.Once
	sagaEngineInit          sync.Once
	orderUseCaseInit        sync.Once
	paymentUseCaseInit      sync.Once
	inventoryUseCaseInit    sync.Once
	notificationUseCaseInit sync.Once
	runnerInit              sync.Once
	httpServerInit          sync.Once
	metricsServerInit       sync.Once
	initErrors              map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		var err error
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// Bus returns the message bus instance.
func (c *Container) Bus() (messaging.Bus, error) {
	c.busInit.Do(func() {
		var err error
		c.bus, err = c.initBus()
		if err != nil {
			c.initErrors["bus"] = err
		}
	})
	if storedErr, exists := c.initErrors["bus"]; exists {
		return nil, storedErr
	}
	return c.bus, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		var err error
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		c.businessMetrics, err = metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		var err error
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MessageRepository returns the outbox message repository instance.
func (c *Container) MessageRepository() (outboxUsecase.MessageRepository, error) {
	c.messageRepoInit.Do(func() {
		var err error
		c.messageRepo, err = c.initMessageRepository()
		if err != nil {
			c.initErrors["messageRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["messageRepo"]; exists {
		return nil, storedErr
	}
	return c.messageRepo, nil
}

// RecordRepository returns the inbox record repository instance.
func (c *Container) RecordRepository() (inboxUsecase.RecordRepository, error) {
	c.recordRepoInit.Do(func() {
		var err error
		c.recordRepo, err = c.initRecordRepository()
		if err != nil {
			c.initErrors["recordRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["recordRepo"]; exists {
		return nil, storedErr
	}
	return c.recordRepo, nil
}

// InstanceRepository returns the saga instance repository instance.
func (c *Container) InstanceRepository() (sagaUsecase.InstanceRepository, error) {
	c.instanceRepoInit.Do(func() {
		var err error
		c.instanceRepo, err = c.initInstanceRepository()
		if err != nil {
			c.initErrors["instanceRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["instanceRepo"]; exists {
		return nil, storedErr
	}
	return c.instanceRepo, nil
}

// OrderRepository returns the order repository instance.
func (c *Container) OrderRepository() (orderUsecase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		var err error
		c.orderRepo, err = c.initOrderRepository()
		if err != nil {
			c.initErrors["orderRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// PaymentRepository returns the payment repository instance.
func (c *Container) PaymentRepository() (paymentUsecase.PaymentRepository, error) {
	c.paymentRepoInit.Do(func() {
		var err error
		c.paymentRepo, err = c.initPaymentRepository()
		if err != nil {
			c.initErrors["paymentRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["paymentRepo"]; exists {
		return nil, storedErr
	}
	return c.paymentRepo, nil
}

// LineRepository returns the inventory line repository instance.
func (c *Container) LineRepository() (inventoryUsecase.LineRepository, error) {
	c.lineRepoInit.Do(func() {
		var err error
		c.lineRepo, err = c.initLineRepository()
		if err != nil {
			c.initErrors["lineRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["lineRepo"]; exists {
		return nil, storedErr
	}
	return c.lineRepo, nil
}

// NotificationRepository returns the notification repository instance.
func (c *Container) NotificationRepository() (notificationUsecase.NotificationRepository, error) {
	c.notificationRepoInit.Do(func() {
		var err error
		c.notificationRepo, err = c.initNotificationRepository()
		if err != nil {
			c.initErrors["notificationRepo"] = err
		}
	})
	if storedErr, exists := c.initErrors["notificationRepo"]; exists {
		return nil, storedErr
	}
	return c.notificationRepo, nil
}

// Outbox returns the outbox enqueuer instance.
func (c *Container) Outbox() (*outboxUsecase.Outbox, error) {
	c.outboxInit.Do(func() {
		repo, err := c.MessageRepository()
		if err != nil {
			c.initErrors["outbox"] = err
			return
		}
		c.outbox = outboxUsecase.NewOutbox(c.config.BrokerExchange, repo)
	})
	if storedErr, exists := c.initErrors["outbox"]; exists {
		return nil, storedErr
	}
	return c.outbox, nil
}

// Relay returns the outbox relay worker instance.
func (c *Container) Relay() (*outboxUsecase.Relay, error) {
	c.relayInit.Do(func() {
		var err error
		c.relay, err = c.initRelay()
		if err != nil {
			c.initErrors["relay"] = err
		}
	})
	if storedErr, exists := c.initErrors["relay"]; exists {
		return nil, storedErr
	}
	return c.relay, nil
}

// InboxGuard returns the inbox deduplication guard instance.
func (c *Container) InboxGuard() (*inboxUsecase.Guard, error) {
	c.inboxGuardInit.Do(func() {
		repo, err := c.RecordRepository()
		if err != nil {
			c.initErrors["inboxGuard"] = err
			return
		}
		c.inboxGuard = inboxUsecase.NewGuard(repo)
	})
	if storedErr, exists := c.initErrors["inboxGuard"]; exists {
		return nil, storedErr
	}
	return c.inboxGuard, nil
}

// SagaEngine returns the order saga engine instance.
func (c *Container) SagaEngine() (*sagaUsecase.Engine, error) {
	c.sagaEngineInit.Do(func() {
		var err error
		c.sagaEngine, err = c.initSagaEngine()
		if err != nil {
			c.initErrors["sagaEngine"] = err
		}
	})
	if storedErr, exists := c.initErrors["sagaEngine"]; exists {
		return nil, storedErr
	}
	return c.sagaEngine, nil
}

// OrderUseCase returns the order use case instance.
func (c *Container) OrderUseCase() (*orderUsecase.OrderUseCase, error) {
	c.orderUseCaseInit.Do(func() {
		var err error
		c.orderUseCase, err = c.initOrderUseCase()
		if err != nil {
			c.initErrors["orderUseCase"] = err
		}
	})
	if storedErr, exists := c.initErrors["orderUseCase"]; exists {
		return nil, storedErr
	}
	return c.orderUseCase, nil
}

// PaymentUseCase returns the payment use case instance.
func (c *Container) PaymentUseCase() (*paymentUsecase.PaymentUseCase, error) {
	c.paymentUseCaseInit.Do(func() {
		var err error
		c.paymentUseCase, err = c.initPaymentUseCase()
		if err != nil {
			c.initErrors["paymentUseCase"] = err
		}
	})
	if storedErr, exists := c.initErrors["paymentUseCase"]; exists {
		return nil, storedErr
	}
	return c.paymentUseCase, nil
}

// InventoryUseCase returns the inventory use case instance.
func (c *Container) InventoryUseCase() (*inventoryUsecase.InventoryUseCase, error) {
	c.inventoryUseCaseInit.Do(func() {
		var err error
		c.inventoryUseCase, err = c.initInventoryUseCase()
		if err != nil {
			c.initErrors["inventoryUseCase"] = err
		}
	})
	if storedErr, exists := c.initErrors["inventoryUseCase"]; exists {
		return nil, storedErr
	}
	return c.inventoryUseCase, nil
}

// NotificationUseCase returns the notification use case instance.
func (c *Container) NotificationUseCase() (*notificationUsecase.NotificationUseCase, error) {
	c.notificationUseCaseInit.Do(func() {
		var err error
		c.notificationUseCase, err = c.initNotificationUseCase()
		if err != nil {
			c.initErrors["notificationUseCase"] = err
		}
	})
	if storedErr, exists := c.initErrors["notificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.notificationUseCase, nil
}

// Runner returns the consumer retry runner instance.
func (c *Container) Runner() *messaging.Runner {
	c.runnerInit.Do(func() {
		c.runner = messaging.NewRunner(c.config.ConsumeRetryIntervals, c.Logger())
	})
	return c.runner
}

// HTTPServer returns the order API HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		var err error
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics HTTP server instance, or nil when metrics
// are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if closer, ok := c.bus.(interface{ Close() error }); ok && closer != nil {
		if err := closer.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("bus close: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler).With(slog.String("service", c.config.ServiceName))
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initBus creates the message bus. A "memory://" broker URL selects the
// in-process bus, used by local runs and integration tests.
func (c *Container) initBus() (messaging.Bus, error) {
	if strings.HasPrefix(c.config.BrokerURL, "memory://") {
		return messaging.NewInMemoryBus(c.Logger()), nil
	}

	bus, err := messaging.NewRabbitMQBus(messaging.RabbitMQConfig{
		URL:      c.config.BrokerURL,
		Exchange: c.config.BrokerExchange,
		Queue:    c.config.ServiceName,
		Prefetch: c.config.BrokerPrefetch,
	}, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create rabbitmq bus: %w", err)
	}
	return bus, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initMessageRepository creates the outbox message repository instance.
func (c *Container) initMessageRepository() (outboxUsecase.MessageRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for message repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLMessageRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLMessageRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRecordRepository creates the inbox record repository instance.
func (c *Container) initRecordRepository() (inboxUsecase.RecordRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for record repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return inboxRepository.NewMySQLRecordRepository(db), nil
	case "postgres":
		return inboxRepository.NewPostgreSQLRecordRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initInstanceRepository creates the saga instance repository instance.
func (c *Container) initInstanceRepository() (sagaUsecase.InstanceRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for instance repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return sagaRepository.NewMySQLInstanceRepository(db), nil
	case "postgres":
		return sagaRepository.NewPostgreSQLInstanceRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrderRepository creates the order repository instance.
func (c *Container) initOrderRepository() (orderUsecase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return orderRepository.NewMySQLOrderRepository(db), nil
	case "postgres":
		return orderRepository.NewPostgreSQLOrderRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initPaymentRepository creates the payment repository instance.
func (c *Container) initPaymentRepository() (paymentUsecase.PaymentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for payment repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return paymentRepository.NewMySQLPaymentRepository(db), nil
	case "postgres":
		return paymentRepository.NewPostgreSQLPaymentRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initLineRepository creates the inventory line repository instance.
func (c *Container) initLineRepository() (inventoryUsecase.LineRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for line repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return inventoryRepository.NewMySQLLineRepository(db), nil
	case "postgres":
		return inventoryRepository.NewPostgreSQLLineRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initNotificationRepository creates the notification repository instance.
func (c *Container) initNotificationRepository() (notificationUsecase.NotificationRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for notification repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return notificationRepository.NewMySQLNotificationRepository(db), nil
	case "postgres":
		return notificationRepository.NewPostgreSQLNotificationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initRelay creates the outbox relay worker with all its dependencies.
func (c *Container) initRelay() (*outboxUsecase.Relay, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for relay: %w", err)
	}

	repo, err := c.MessageRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get message repository for relay: %w", err)
	}

	bus, err := c.Bus()
	if err != nil {
		return nil, fmt.Errorf("failed to get bus for relay: %w", err)
	}

	relayConfig := outboxUsecase.Config{
		PollInterval:     c.config.OutboxPollInterval,
		BatchSize:        c.config.OutboxBatchSize,
		MaxAttempts:      c.config.OutboxMaxAttempts,
		BackoffIntervals: c.config.OutboxBackoffIntervals,
		SendTimeout:      c.config.OutboxSendTimeout,
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for relay: %w", err)
	}

	return outboxUsecase.NewRelay(relayConfig, txManager, repo, bus, recorder, c.Logger()), nil
}

// initSagaEngine creates the saga engine with the order saga definition.
func (c *Container) initSagaEngine() (*sagaUsecase.Engine, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for saga engine: %w", err)
	}

	instanceRepo, err := c.InstanceRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get instance repository for saga engine: %w", err)
	}

	inboxGuard, err := c.InboxGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox guard for saga engine: %w", err)
	}

	outbox, err := c.Outbox()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox for saga engine: %w", err)
	}

	recorder, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for saga engine: %w", err)
	}

	return sagaUsecase.NewEngine(
		c.config.ServiceName,
		sagaUsecase.NewOrderSagaDefinition(),
		txManager,
		instanceRepo,
		inboxGuard,
		outbox,
		recorder,
		c.Logger(),
	), nil
}

// initOrderUseCase creates the order use case with all its dependencies.
func (c *Container) initOrderUseCase() (*orderUsecase.OrderUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
	}

	repo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for order use case: %w", err)
	}

	inboxGuard, err := c.InboxGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox guard for order use case: %w", err)
	}

	outbox, err := c.Outbox()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox for order use case: %w", err)
	}

	return orderUsecase.NewOrderUseCase(txManager, repo, inboxGuard, outbox, c.Logger()), nil
}

// initPaymentUseCase creates the payment use case with all its dependencies.
func (c *Container) initPaymentUseCase() (*paymentUsecase.PaymentUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for payment use case: %w", err)
	}

	repo, err := c.PaymentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get payment repository for payment use case: %w", err)
	}

	inboxGuard, err := c.InboxGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox guard for payment use case: %w", err)
	}

	outbox, err := c.Outbox()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox for payment use case: %w", err)
	}

	return paymentUsecase.NewPaymentUseCase(txManager, repo, inboxGuard, outbox, c.Logger()), nil
}

// initInventoryUseCase creates the inventory use case with all its dependencies.
func (c *Container) initInventoryUseCase() (*inventoryUsecase.InventoryUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for inventory use case: %w", err)
	}

	repo, err := c.LineRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get line repository for inventory use case: %w", err)
	}

	inboxGuard, err := c.InboxGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox guard for inventory use case: %w", err)
	}

	outbox, err := c.Outbox()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox for inventory use case: %w", err)
	}

	return inventoryUsecase.NewInventoryUseCase(txManager, repo, inboxGuard, outbox, c.Logger()), nil
}

// initNotificationUseCase creates the notification use case with all its dependencies.
func (c *Container) initNotificationUseCase() (*notificationUsecase.NotificationUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for notification use case: %w", err)
	}

	repo, err := c.NotificationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification repository for notification use case: %w", err)
	}

	inboxGuard, err := c.InboxGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to get inbox guard for notification use case: %w", err)
	}

	return notificationUsecase.NewNotificationUseCase(txManager, repo, inboxGuard, c.Logger()), nil
}

// initHTTPServer creates the order API HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	orderUseCase, err := c.OrderUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get order use case for http server: %w", err)
	}

	sagaEngine, err := c.SagaEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to get saga engine for http server: %w", err)
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	notificationUseCase, err := c.NotificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get notification use case for http server: %w", err)
	}

	orderHandler := orderHTTP.NewOrderHandler(orderUseCase, sagaEngine, c.Logger())
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, c.Logger())
	return http.NewServer(c.config, orderHandler, notificationHandler, metricsProvider, c.Logger()), nil
}
