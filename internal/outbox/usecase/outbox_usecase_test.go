package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/ordersaga/internal/messaging"
	"github.com/allisson/ordersaga/internal/outbox/domain"
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

// MockMessageRepository is a mock implementation of MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetPending(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.Message, error) {
	args := m.Called(ctx, limit, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListDead(ctx context.Context, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

// MockPublisher is a mock implementation of messaging.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, env messaging.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

func testConfig() Config {
	return Config{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        10,
		MaxAttempts:      5,
		BackoffIntervals: []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond, 800 * time.Millisecond, time.Second},
		SendTimeout:      time.Second,
	}
}

func pendingMessage(messageType string) *domain.Message {
	return &domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		CorrelationID: uuid.Must(uuid.NewV7()),
		MessageType:   messageType,
		Payload:       `{"order_id":"1"}`,
		Destination:   "saga",
		OccurredAt:    time.Now().UTC().Add(-time.Minute),
		Status:        domain.MessageStatusPending,
		NextAttemptAt: time.Now().UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestOutbox_Enqueue(t *testing.T) {
	repo := &MockMessageRepository{}
	outbox := NewOutbox("saga", repo)

	ctx := context.Background()
	env, err := messaging.NewEnvelope(
		messaging.MessageTypeOrderSubmitted,
		uuid.Must(uuid.NewV7()),
		json.RawMessage(`{"order_id":"1"}`),
	)
	require.NoError(t, err)

	repo.On("Create", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == env.MessageID &&
			m.CorrelationID == env.CorrelationID &&
			m.MessageType == messaging.MessageTypeOrderSubmitted &&
			m.Payload == `{"order_id":"1"}` &&
			m.Destination == "saga" &&
			m.OccurredAt.Equal(env.OccurredAt) &&
			m.Status == domain.MessageStatusPending
	})).Return(nil)

	err = outbox.Enqueue(ctx, env)

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestOutbox_Enqueue_RepositoryError(t *testing.T) {
	repo := &MockMessageRepository{}
	outbox := NewOutbox("saga", repo)

	ctx := context.Background()
	env, err := messaging.NewEnvelope(
		messaging.MessageTypeOrderSubmitted,
		uuid.Must(uuid.NewV7()),
		json.RawMessage(`{}`),
	)
	require.NoError(t, err)
	createError := errors.New("insert failed")

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Message")).Return(createError)

	err = outbox.Enqueue(ctx, env)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "insert failed")
	repo.AssertExpectations(t)
}

func TestRelay_Start_ContextCancellation(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(testConfig(), txManager, repo, publisher, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel context immediately
	cancel()

	err := relay.Start(ctx)
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestRelay_ProcessMessages_Success(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	messages := []*domain.Message{
		pendingMessage(messaging.MessageTypeOrderSubmitted),
		pendingMessage(messaging.MessageTypeProcessPayment),
	}

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env messaging.Envelope) bool {
		return env.MessageID == messages[0].ID && env.MessageType == messaging.MessageTypeOrderSubmitted &&
			env.OccurredAt.Equal(messages[0].OccurredAt)
	})).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env messaging.Envelope) bool {
		return env.MessageID == messages[1].ID && env.MessageType == messaging.MessageTypeProcessPayment &&
			env.OccurredAt.Equal(messages[1].OccurredAt)
	})).Return(nil)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusPending && m.DeliveredAt == nil
	})).Return(nil).Times(2) // claim
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusDelivered && m.DeliveredAt != nil
	})).Return(nil).Times(2)

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRelay_ProcessMessages_NoMessages(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return([]*domain.Message{}, nil)

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRelay_ProcessMessages_GetPendingError(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	getError := errors.New("database error")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(nil, getError)

	err := relay.ProcessMessages(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestRelay_ProcessMessages_PublishError(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	message := pendingMessage(messaging.MessageTypeOrderSubmitted)
	messages := []*domain.Message{message}
	publishError := errors.New("broker unavailable")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("messaging.Envelope")).Return(publishError)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == message.ID && m.Attempts == 0
	})).Return(nil) // claim
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == message.ID &&
			m.Status == domain.MessageStatusPending &&
			m.Attempts == 1 &&
			m.LastError != nil &&
			m.NextAttemptAt.After(time.Now().UTC().Add(50*time.Millisecond))
	})).Return(nil)

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err) // delivery failures reschedule the row, the batch still commits
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRelay_ProcessMessages_MaxAttemptsReached(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	message := pendingMessage(messaging.MessageTypeOrderSubmitted)
	message.Attempts = 4 // Will become 5 after this attempt
	messages := []*domain.Message{message}
	publishError := errors.New("broker unavailable")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("messaging.Envelope")).Return(publishError)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == message.ID && m.Attempts == 4
	})).Return(nil) // claim
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.ID == message.ID &&
			m.Attempts == 5 &&
			m.Status == domain.MessageStatusDead &&
			m.LastError != nil
	})).Return(nil)

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

// MockOperationRecorder is a mock implementation of OperationRecorder
type MockOperationRecorder struct {
	mock.Mock
}

func (m *MockOperationRecorder) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func TestRelay_ProcessMessages_RecordsOutcomes(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}
	recorder := &MockOperationRecorder{}

	relay := NewRelay(config, txManager, repo, publisher, recorder, nil)

	ctx := context.Background()
	delivered := pendingMessage(messaging.MessageTypeOrderSubmitted)
	failing := pendingMessage(messaging.MessageTypeProcessPayment)
	failing.Attempts = 4 // Will dead-letter after this attempt
	messages := []*domain.Message{delivered, failing}
	publishError := errors.New("broker unavailable")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env messaging.Envelope) bool {
		return env.MessageID == delivered.ID
	})).Return(nil)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env messaging.Envelope) bool {
		return env.MessageID == failing.ID
	})).Return(publishError)
	repo.On("Update", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Times(4)
	recorder.On("RecordOperation", ctx, "outbox", "delivery", "success").Once()
	recorder.On("RecordOperation", ctx, "outbox", "delivery", "error").Once()
	recorder.On("RecordOperation", ctx, "outbox", "dead_letter", "error").Once()

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err)
	recorder.AssertExpectations(t)
}

func TestRelay_ProcessMessages_UpdateError(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	messages := []*domain.Message{pendingMessage(messaging.MessageTypeOrderSubmitted)}
	updateError := errors.New("update failed")

	// Setup expectations: the claim commits, marking the delivery fails.
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("messaging.Envelope")).Return(nil)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusPending
	})).Return(nil) // claim
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusDelivered
	})).Return(updateError)

	err := relay.ProcessMessages(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "update failed")
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRelay_ProcessMessages_ClaimReleasedBeforePublish(t *testing.T) {
	config := testConfig()
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(config, txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	message := pendingMessage(messaging.MessageTypeOrderSubmitted)
	messages := []*domain.Message{message}

	var calls []string
	// Setup expectations: one transaction claims the row, a separate one
	// records the outcome, and the publish happens between the two so no row
	// lock spans the network call.
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil).Times(2)
	repo.On("GetPending", ctx, config.BatchSize, mock.AnythingOfType("time.Time")).Return(messages, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusPending
	})).Run(func(mock.Arguments) {
		calls = append(calls, "claim")
	}).Return(nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("messaging.Envelope")).Run(func(mock.Arguments) {
		calls = append(calls, "publish")
	}).Return(nil)
	repo.On("Update", ctx, mock.MatchedBy(func(m *domain.Message) bool {
		return m.Status == domain.MessageStatusDelivered
	})).Run(func(mock.Arguments) {
		calls = append(calls, "mark")
	}).Return(nil)

	err := relay.ProcessMessages(ctx)

	assert.NoError(t, err)
	assert.Equal(t, []string{"claim", "publish", "mark"}, calls)
	// The claim pushes the retry horizon forward so concurrent relays skip
	// the row while the send is in flight.
	assert.True(t, message.NextAttemptAt.After(time.Now().UTC().Add(500*time.Millisecond)))
	txManager.AssertExpectations(t)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestRelay_BackoffFor(t *testing.T) {
	relay := NewRelay(testConfig(), nil, nil, nil, nil, nil)

	tests := []struct {
		name     string
		attempts int
		want     time.Duration
	}{
		{"first attempt", 1, 100 * time.Millisecond},
		{"second attempt", 2, 200 * time.Millisecond},
		{"fifth attempt", 5, time.Second},
		{"beyond schedule", 10, time.Second},
		{"zero attempts", 0, 100 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relay.backoffFor(tt.attempts))
		})
	}
}

func TestRelay_BackoffFor_EmptySchedule(t *testing.T) {
	config := testConfig()
	config.BackoffIntervals = nil
	relay := NewRelay(config, nil, nil, nil, nil, nil)

	assert.Equal(t, time.Second, relay.backoffFor(1))
}

func TestRelay_ListDead(t *testing.T) {
	txManager := &MockTxManager{}
	repo := &MockMessageRepository{}
	publisher := &MockPublisher{}

	relay := NewRelay(testConfig(), txManager, repo, publisher, nil, nil)

	ctx := context.Background()
	dead := pendingMessage(messaging.MessageTypeProcessPayment)
	dead.Status = domain.MessageStatusDead

	repo.On("ListDead", ctx, 50).Return([]*domain.Message{dead}, nil)

	messages, err := relay.ListDead(ctx, 50)

	assert.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, domain.MessageStatusDead, messages[0].Status)
	repo.AssertExpectations(t)
}
