// Package usecase implements the inbox guard that keeps message handling
// idempotent across broker redeliveries.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/inbox/domain"
)

// RecordRepository defines inbox record repository operations.
type RecordRepository interface {
	Create(ctx context.Context, record *domain.Record) error
}

// Guard registers processed messages per consumer. Register must run in the
// same transaction as the handler's effects so a redelivered message either
// sees the record or the effects were rolled back with it.
type Guard struct {
	repo RecordRepository
}

// NewGuard creates a new Guard.
func NewGuard(repo RecordRepository) *Guard {
	return &Guard{repo: repo}
}

// Register marks the message as processed by the consumer. Returns
// errors.ErrDuplicateMessage when the message was already registered.
func (g *Guard) Register(ctx context.Context, messageID uuid.UUID, consumer string) error {
	record := &domain.Record{
		MessageID: messageID,
		Consumer:  consumer,
	}
	return g.repo.Create(ctx, record)
}
