// Package repository provides data persistence implementations for outbox messages.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/outbox/domain"
)

// PostgreSQLMessageRepository handles outbox message persistence for PostgreSQL.
type PostgreSQLMessageRepository struct {
	db *sql.DB
}

// NewPostgreSQLMessageRepository creates a new PostgreSQLMessageRepository.
func NewPostgreSQLMessageRepository(db *sql.DB) *PostgreSQLMessageRepository {
	return &PostgreSQLMessageRepository{
		db: db,
	}
}

// Create inserts a new outbox message. Callers run this inside the same
// transaction as the state change that produced the message.
func (r *PostgreSQLMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO outbox_messages (id, correlation_id, message_type, payload, destination,
			  occurred_at, status, attempts, next_attempt_at, last_error, delivered_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, message.ID, message.CorrelationID, message.MessageType,
		message.Payload, message.Destination, message.OccurredAt, message.Status, message.Attempts,
		message.NextAttemptAt, message.LastError, message.DeliveredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox message")
	}
	return nil
}

// GetPending retrieves pending messages due for a delivery attempt, oldest
// first. Rows are locked with SKIP LOCKED so concurrent relay cycles never
// pick the same message.
func (r *PostgreSQLMessageRepository) GetPending(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages
			  WHERE status = $1 AND next_attempt_at <= $2
			  ORDER BY created_at ASC
			  LIMIT $3
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.MessageStatusPending, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	return scanMessages(rows)
}

// Update updates an outbox message after a delivery attempt.
func (r *PostgreSQLMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE outbox_messages
			  SET status = $1, attempts = $2, next_attempt_at = $3, last_error = $4,
			      delivered_at = $5, updated_at = NOW()
			  WHERE id = $6`

	_, err := querier.ExecContext(ctx, query, message.Status, message.Attempts, message.NextAttemptAt,
		message.LastError, message.DeliveredAt, message.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox message")
	}
	return nil
}

// ListDead retrieves dead-lettered messages for operator inspection, oldest first.
func (r *PostgreSQLMessageRepository) ListDead(ctx context.Context, limit int) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages
			  WHERE status = $1
			  ORDER BY created_at ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, domain.MessageStatusDead, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	return scanMessages(rows)
}

// GetByID retrieves a single outbox message.
func (r *PostgreSQLMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages WHERE id = $1`

	var message domain.Message
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&message.ID, &message.CorrelationID, &message.MessageType, &message.Payload,
		&message.Destination, &message.OccurredAt, &message.Status, &message.Attempts, &message.NextAttemptAt,
		&message.LastError, &message.DeliveredAt, &message.CreatedAt, &message.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get outbox message")
	}
	return &message, nil
}

// scanMessages reads all rows into messages.
func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		var message domain.Message
		err := rows.Scan(
			&message.ID, &message.CorrelationID, &message.MessageType, &message.Payload,
			&message.Destination, &message.OccurredAt, &message.Status, &message.Attempts, &message.NextAttemptAt,
			&message.LastError, &message.DeliveredAt, &message.CreatedAt, &message.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox messages")
	}
	return messages, nil
}
