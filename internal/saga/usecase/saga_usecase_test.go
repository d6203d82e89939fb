package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/saga/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockInstanceRepository is a mock implementation of InstanceRepository
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) Create(ctx context.Context, instance *domain.Instance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

func (m *MockInstanceRepository) GetForUpdate(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instance), args.Error(1)
}

func (m *MockInstanceRepository) GetByCorrelationID(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	args := m.Called(ctx, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Instance), args.Error(1)
}

func (m *MockInstanceRepository) Update(ctx context.Context, instance *domain.Instance) error {
	args := m.Called(ctx, instance)
	return args.Error(0)
}

// MockInboxGuard is a mock implementation of InboxGuard
type MockInboxGuard struct {
	mock.Mock
}

func (m *MockInboxGuard) Register(ctx context.Context, messageID uuid.UUID, consumer string) error {
	args := m.Called(ctx, messageID, consumer)
	return args.Error(0)
}

// MockEnqueuer is a mock implementation of outbox usecase.Enqueuer
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, env messaging.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func newTestEngine(
	instances *MockInstanceRepository,
	inbox *MockInboxGuard,
	outbox *MockEnqueuer,
) (*Engine, *MockTxManager) {
	txManager := &MockTxManager{}
	engine := NewEngine("order-service", NewOrderSagaDefinition(), txManager, instances, inbox, outbox, nil, nil)
	return engine, txManager
}

func mustEnvelope(t *testing.T, messageType string, correlationID uuid.UUID, payload any) messaging.Envelope {
	t.Helper()
	env, err := messaging.NewEnvelope(messageType, correlationID, payload)
	require.NoError(t, err)
	return env
}

func TestEngine_Handle_OrderSubmitted(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	productID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypeOrderSubmitted, orderID, messaging.OrderSubmitted{
		OrderID:   orderID,
		Total:     "100.00",
		ProductID: productID,
		Email:     "customer@example.com",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(nil, apperrors.ErrNotFound)
	instances.On("Create", ctx, mock.MatchedBy(func(i *domain.Instance) bool {
		return i.CorrelationID == orderID &&
			i.CurrentState == domain.StateProcessingPayment &&
			i.OrderTotal == "100.00" &&
			i.ProductID == productID &&
			i.CustomerEmail == "customer@example.com" &&
			!i.OrderDate.IsZero()
	})).Return(nil)
	outbox.On("Enqueue", ctx, mock.MatchedBy(func(e messaging.Envelope) bool {
		if e.MessageType != messaging.MessageTypeProcessPayment || e.CorrelationID != orderID {
			return false
		}
		var command messaging.ProcessPayment
		if err := e.DecodePayload(&command); err != nil {
			return false
		}
		return command.OrderID == orderID && command.Amount == "100.00"
	})).Return(nil)

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	instances.AssertExpectations(t)
	inbox.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestEngine_Handle_PaymentProcessed(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	productID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID: orderID,
		CurrentState:  domain.StateProcessingPayment,
		OrderTotal:    "100.00",
		ProductID:     productID,
		CustomerEmail: "customer@example.com",
		OrderDate:     time.Now().UTC(),
	}
	env := mustEnvelope(t, messaging.MessageTypePaymentProcessed, orderID, messaging.PaymentProcessed{
		OrderID:         orderID,
		PaymentIntentID: "pi_123",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)
	instances.On("Update", ctx, mock.MatchedBy(func(i *domain.Instance) bool {
		return i.CurrentState == domain.StateReservingInventory && i.PaymentIntentID == "pi_123"
	})).Return(nil)
	outbox.On("Enqueue", ctx, mock.MatchedBy(func(e messaging.Envelope) bool {
		if e.MessageType != messaging.MessageTypeReserveInventory {
			return false
		}
		var command messaging.ReserveInventory
		if err := e.DecodePayload(&command); err != nil {
			return false
		}
		return command.OrderID == orderID && command.ProductID == productID
	})).Return(nil)

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	instances.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestEngine_Handle_OrderFailedBeforeCapture(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID: orderID,
		CurrentState:  domain.StateProcessingPayment,
		OrderTotal:    "100.00",
	}
	env := mustEnvelope(t, messaging.MessageTypeOrderFailed, orderID, messaging.OrderFailed{
		OrderID: orderID,
		Reason:  "payment declined",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)
	instances.On("Update", ctx, mock.MatchedBy(func(i *domain.Instance) bool {
		return i.CurrentState == domain.StateFailed
	})).Return(nil)

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	instances.AssertExpectations(t)
	// No compensation before funds were captured
	outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestEngine_Handle_InventoryReserved(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	productID := uuid.Must(uuid.NewV7())
	orderDate := time.Now().UTC().Truncate(time.Second)
	instance := &domain.Instance{
		CorrelationID:   orderID,
		CurrentState:    domain.StateReservingInventory,
		OrderTotal:      "100.00",
		ProductID:       productID,
		CustomerEmail:   "customer@example.com",
		PaymentIntentID: "pi_123",
		OrderDate:       orderDate,
	}
	env := mustEnvelope(t, messaging.MessageTypeInventoryReserved, orderID, messaging.InventoryReserved{
		OrderID: orderID,
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)
	instances.On("Update", ctx, mock.MatchedBy(func(i *domain.Instance) bool {
		return i.CurrentState == domain.StateCompleted
	})).Return(nil)
	outbox.On("Enqueue", ctx, mock.MatchedBy(func(e messaging.Envelope) bool {
		if e.MessageType != messaging.MessageTypeOrderConfirmed {
			return false
		}
		var event messaging.OrderConfirmed
		if err := e.DecodePayload(&event); err != nil {
			return false
		}
		return event.OrderID == orderID &&
			event.ProductID == productID &&
			event.Total == "100.00" &&
			event.Email == "customer@example.com" &&
			event.PaymentIntentID == "pi_123"
	})).Return(nil)

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	instances.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestEngine_Handle_OrderFailedAfterCapture(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID:   orderID,
		CurrentState:    domain.StateReservingInventory,
		OrderTotal:      "100.00",
		PaymentIntentID: "pi_123",
	}
	env := mustEnvelope(t, messaging.MessageTypeOrderFailed, orderID, messaging.OrderFailed{
		OrderID: orderID,
		Reason:  "inventory unavailable",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)
	instances.On("Update", ctx, mock.MatchedBy(func(i *domain.Instance) bool {
		return i.CurrentState == domain.StateFailed
	})).Return(nil)
	outbox.On("Enqueue", ctx, mock.MatchedBy(func(e messaging.Envelope) bool {
		if e.MessageType != messaging.MessageTypeRefundPayment {
			return false
		}
		var command messaging.RefundPayment
		if err := e.DecodePayload(&command); err != nil {
			return false
		}
		return command.OrderID == orderID && command.Amount == "100.00"
	})).Return(nil)

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	instances.AssertExpectations(t)
	outbox.AssertExpectations(t)
}

func TestEngine_Handle_OrphanEvent(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypePaymentProcessed, orderID, messaging.PaymentProcessed{
		OrderID:         orderID,
		PaymentIntentID: "pi_123",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(nil, apperrors.ErrNotFound)

	err := engine.Handle(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrOrphanEvent)
	instances.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	instances.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestEngine_Handle_OutOfOrderEvent(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID: orderID,
		CurrentState:  domain.StateProcessingPayment,
	}
	// InventoryReserved arrives before PaymentProcessed
	env := mustEnvelope(t, messaging.MessageTypeInventoryReserved, orderID, messaging.InventoryReserved{
		OrderID: orderID,
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)

	err := engine.Handle(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, domain.StateProcessingPayment, instance.CurrentState)
	instances.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestEngine_Handle_TerminalStateNeverExited(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID: orderID,
		CurrentState:  domain.StateCompleted,
	}
	env := mustEnvelope(t, messaging.MessageTypeOrderFailed, orderID, messaging.OrderFailed{
		OrderID: orderID,
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(instance, nil)

	err := engine.Handle(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.Equal(t, domain.StateCompleted, instance.CurrentState)
	instances.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEngine_Handle_DuplicateMessage(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypePaymentProcessed, orderID, messaging.PaymentProcessed{
		OrderID: orderID,
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(apperrors.ErrDuplicateMessage)

	err := engine.Handle(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateMessage)
	instances.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
	outbox.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestEngine_Handle_RepositoryError(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, txManager := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypePaymentProcessed, orderID, messaging.PaymentProcessed{
		OrderID: orderID,
	})
	repoError := errors.New("database error")

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(nil, repoError)

	err := engine.Handle(ctx, env)

	assert.Error(t, err)
	assert.False(t, apperrors.IsDroppable(err))
}

// MockStateRecorder is a mock implementation of StateRecorder
type MockStateRecorder struct {
	mock.Mock
}

func (m *MockStateRecorder) RecordSagaState(ctx context.Context, state string) {
	m.Called(ctx, state)
}

func TestEngine_Handle_RecordsEnteredState(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	recorder := &MockStateRecorder{}
	txManager := &MockTxManager{}
	engine := NewEngine("order-service", NewOrderSagaDefinition(), txManager, instances, inbox, outbox, recorder, nil)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypeOrderSubmitted, orderID, messaging.OrderSubmitted{
		OrderID:   orderID,
		Total:     "100.00",
		ProductID: uuid.Must(uuid.NewV7()),
		Email:     "customer@example.com",
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(nil)
	instances.On("GetForUpdate", ctx, orderID).Return(nil, apperrors.ErrNotFound)
	instances.On("Create", ctx, mock.Anything).Return(nil)
	outbox.On("Enqueue", ctx, mock.Anything).Return(nil)
	recorder.On("RecordSagaState", ctx, "processing_payment").Once()

	err := engine.Handle(ctx, env)

	assert.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestEngine_Handle_NoStateRecordedOnFailure(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	recorder := &MockStateRecorder{}
	txManager := &MockTxManager{}
	engine := NewEngine("order-service", NewOrderSagaDefinition(), txManager, instances, inbox, outbox, recorder, nil)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env := mustEnvelope(t, messaging.MessageTypePaymentProcessed, orderID, messaging.PaymentProcessed{
		OrderID: orderID,
	})

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "order-service").Return(apperrors.ErrDuplicateMessage)

	err := engine.Handle(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateMessage)
	recorder.AssertNotCalled(t, "RecordSagaState", mock.Anything, mock.Anything)
}

func TestEngine_GetInstance(t *testing.T) {
	instances := &MockInstanceRepository{}
	inbox := &MockInboxGuard{}
	outbox := &MockEnqueuer{}
	engine, _ := newTestEngine(instances, inbox, outbox)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	instance := &domain.Instance{
		CorrelationID: orderID,
		CurrentState:  domain.StateCompleted,
	}

	instances.On("GetByCorrelationID", ctx, orderID).Return(instance, nil)

	got, err := engine.GetInstance(ctx, orderID)

	assert.NoError(t, err)
	assert.Equal(t, instance, got)
	instances.AssertExpectations(t)
}
