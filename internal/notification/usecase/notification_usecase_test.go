package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/notification/domain"
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

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

// MockInboxGuard is a mock implementation of InboxGuard
type MockInboxGuard struct {
	mock.Mock
}

func (m *MockInboxGuard) Register(ctx context.Context, messageID uuid.UUID, consumer string) error {
	args := m.Called(ctx, messageID, consumer)
	return args.Error(0)
}

func TestNotificationUseCase_HandleOrderConfirmed(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	inbox := &MockInboxGuard{}
	uc := NewNotificationUseCase(txManager, repo, inbox, nil)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env, err := messaging.NewEnvelope(messaging.MessageTypeOrderConfirmed, orderID,
		messaging.OrderConfirmed{
			OrderID:   orderID,
			Email:     "customer@example.com",
			Total:     "100.00",
			OrderDate: time.Now().UTC(),
		})
	require.NoError(t, err)

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "notification-service").Return(nil)
	repo.On("Create", ctx, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.OrderID == orderID &&
			n.Email == "customer@example.com" &&
			n.Subject != "" &&
			n.Body != ""
	})).Return(nil)

	err = uc.HandleOrderConfirmed(ctx, env)

	assert.NoError(t, err)
	inbox.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestNotificationUseCase_HandleOrderConfirmed_Duplicate(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	inbox := &MockInboxGuard{}
	uc := NewNotificationUseCase(txManager, repo, inbox, nil)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	env, err := messaging.NewEnvelope(messaging.MessageTypeOrderConfirmed, orderID,
		messaging.OrderConfirmed{OrderID: orderID})
	require.NoError(t, err)

	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	inbox.On("Register", ctx, env.MessageID, "notification-service").Return(apperrors.ErrDuplicateMessage)

	err = uc.HandleOrderConfirmed(ctx, env)

	assert.ErrorIs(t, err, apperrors.ErrDuplicateMessage)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestNotificationUseCase_ListForOrder(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockNotificationRepository{}
	inbox := &MockInboxGuard{}
	uc := NewNotificationUseCase(txManager, repo, inbox, nil)

	ctx := context.Background()
	orderID := uuid.Must(uuid.NewV7())
	notifications := []*domain.Notification{
		{ID: uuid.Must(uuid.NewV7()), OrderID: orderID},
	}

	repo.On("ListByOrderID", ctx, orderID).Return(notifications, nil)

	got, err := uc.ListForOrder(ctx, orderID)

	assert.NoError(t, err)
	assert.Equal(t, notifications, got)
	repo.AssertExpectations(t)
}
