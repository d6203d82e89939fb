package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/outbox/domain"
	"github.com/allisson/ordersaga/internal/testutil"
)

func newTestMessage() *domain.Message {
	return &domain.Message{
		ID:            uuid.Must(uuid.NewV7()),
		CorrelationID: uuid.Must(uuid.NewV7()),
		MessageType:   "order.submitted",
		Payload:       `{"order_id":"test"}`,
		Destination:   "saga",
		OccurredAt:    time.Now().UTC(),
		Status:        domain.MessageStatusPending,
		NextAttemptAt: time.Now().UTC(),
	}
}

func TestPostgreSQLMessageRepository_Create(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLMessageRepository(db)
	ctx := context.Background()

	message := newTestMessage()
	err := repo.Create(ctx, message)
	assert.NoError(t, err)

	created, err := repo.GetByID(ctx, message.ID)
	assert.NoError(t, err)
	assert.Equal(t, message.ID, created.ID)
	assert.Equal(t, message.CorrelationID, created.CorrelationID)
	assert.Equal(t, "order.submitted", created.MessageType)
	assert.WithinDuration(t, message.OccurredAt, created.OccurredAt, time.Millisecond)
	assert.Equal(t, domain.MessageStatusPending, created.Status)
	assert.Equal(t, 0, created.Attempts)
	assert.Nil(t, created.LastError)
	assert.Nil(t, created.DeliveredAt)
}

func TestPostgreSQLMessageRepository_GetPending(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLMessageRepository(db)
	ctx := context.Background()

	due := newTestMessage()
	require.NoError(t, repo.Create(ctx, due))

	// Not yet due for delivery
	future := newTestMessage()
	future.NextAttemptAt = time.Now().UTC().Add(time.Hour)
	require.NoError(t, repo.Create(ctx, future))

	// Already delivered
	deliveredAt := time.Now().UTC()
	delivered := newTestMessage()
	delivered.Status = domain.MessageStatusDelivered
	delivered.DeliveredAt = &deliveredAt
	require.NoError(t, repo.Create(ctx, delivered))

	pending, err := repo.GetPending(ctx, 10, time.Now().UTC())
	assert.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.ID, pending[0].ID)
}

func TestPostgreSQLMessageRepository_Update(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLMessageRepository(db)
	ctx := context.Background()

	message := newTestMessage()
	require.NoError(t, repo.Create(ctx, message))

	lastError := "broker unavailable"
	message.Status = domain.MessageStatusDead
	message.Attempts = 5
	message.LastError = &lastError
	err := repo.Update(ctx, message)
	assert.NoError(t, err)

	updated, err := repo.GetByID(ctx, message.ID)
	assert.NoError(t, err)
	assert.Equal(t, domain.MessageStatusDead, updated.Status)
	assert.Equal(t, 5, updated.Attempts)
	require.NotNil(t, updated.LastError)
	assert.Equal(t, "broker unavailable", *updated.LastError)
}

func TestPostgreSQLMessageRepository_ListDead(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLMessageRepository(db)
	ctx := context.Background()

	dead := newTestMessage()
	dead.Status = domain.MessageStatusDead
	require.NoError(t, repo.Create(ctx, dead))

	pending := newTestMessage()
	require.NoError(t, repo.Create(ctx, pending))

	messages, err := repo.ListDead(ctx, 10)
	assert.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, dead.ID, messages[0].ID)
}

func TestPostgreSQLMessageRepository_GetByID_NotFound(t *testing.T) {
	testutil.SkipIfNoPostgres(t)
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLMessageRepository(db)

	_, err := repo.GetByID(context.Background(), uuid.Must(uuid.NewV7()))
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
