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

// MySQLMessageRepository handles outbox message persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLMessageRepository struct {
	db *sql.DB
}

// NewMySQLMessageRepository creates a new MySQLMessageRepository.
func NewMySQLMessageRepository(db *sql.DB) *MySQLMessageRepository {
	return &MySQLMessageRepository{
		db: db,
	}
}

// Create inserts a new outbox message within the caller's transaction.
func (r *MySQLMessageRepository) Create(ctx context.Context, message *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	idValue, err := message.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal message UUID")
	}
	correlationValue, err := message.CorrelationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal correlation UUID")
	}

	query := `INSERT INTO outbox_messages (id, correlation_id, message_type, payload, destination,
			  occurred_at, status, attempts, next_attempt_at, last_error, delivered_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, idValue, correlationValue, message.MessageType,
		message.Payload, message.Destination, message.OccurredAt, message.Status, message.Attempts,
		message.NextAttemptAt, message.LastError, message.DeliveredAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create outbox message")
	}
	return nil
}

// GetPending retrieves pending messages due for a delivery attempt, oldest
// first, locked with SKIP LOCKED.
func (r *MySQLMessageRepository) GetPending(
	ctx context.Context,
	limit int,
	now time.Time,
) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages
			  WHERE status = ? AND next_attempt_at <= ?
			  ORDER BY created_at ASC
			  LIMIT ?
			  FOR UPDATE SKIP LOCKED`

	rows, err := querier.QueryContext(ctx, query, domain.MessageStatusPending, now, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get pending outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	return scanMySQLMessages(rows)
}

// Update updates an outbox message after a delivery attempt.
func (r *MySQLMessageRepository) Update(ctx context.Context, message *domain.Message) error {
	querier := database.GetTx(ctx, r.db)

	idValue, err := message.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal message UUID")
	}

	query := `UPDATE outbox_messages
			  SET status = ?, attempts = ?, next_attempt_at = ?, last_error = ?,
			      delivered_at = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, message.Status, message.Attempts, message.NextAttemptAt,
		message.LastError, message.DeliveredAt, idValue)
	if err != nil {
		return apperrors.Wrap(err, "failed to update outbox message")
	}
	return nil
}

// ListDead retrieves dead-lettered messages for operator inspection, oldest first.
func (r *MySQLMessageRepository) ListDead(ctx context.Context, limit int) ([]*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages
			  WHERE status = ?
			  ORDER BY created_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, domain.MessageStatusDead, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead outbox messages")
	}
	defer rows.Close() //nolint:errcheck

	return scanMySQLMessages(rows)
}

// GetByID retrieves a single outbox message.
func (r *MySQLMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	querier := database.GetTx(ctx, r.db)

	idValue, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal message UUID")
	}

	query := `SELECT id, correlation_id, message_type, payload, destination, occurred_at, status, attempts,
			  next_attempt_at, last_error, delivered_at, created_at, updated_at
			  FROM outbox_messages WHERE id = ?`

	var message domain.Message
	var idBytes, correlationBytes []byte
	err = querier.QueryRowContext(ctx, query, idValue).Scan(
		&idBytes, &correlationBytes, &message.MessageType, &message.Payload,
		&message.Destination, &message.OccurredAt, &message.Status, &message.Attempts, &message.NextAttemptAt,
		&message.LastError, &message.DeliveredAt, &message.CreatedAt, &message.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get outbox message")
	}

	if err := unmarshalMessageUUIDs(&message, idBytes, correlationBytes); err != nil {
		return nil, err
	}
	return &message, nil
}

// scanMySQLMessages reads all rows into messages, converting binary UUIDs.
func scanMySQLMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		var message domain.Message
		var idBytes, correlationBytes []byte
		err := rows.Scan(
			&idBytes, &correlationBytes, &message.MessageType, &message.Payload,
			&message.Destination, &message.OccurredAt, &message.Status, &message.Attempts, &message.NextAttemptAt,
			&message.LastError, &message.DeliveredAt, &message.CreatedAt, &message.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan outbox message")
		}
		if err := unmarshalMessageUUIDs(&message, idBytes, correlationBytes); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate outbox messages")
	}
	return messages, nil
}

func unmarshalMessageUUIDs(message *domain.Message, idBytes, correlationBytes []byte) error {
	if err := message.ID.UnmarshalBinary(idBytes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal message UUID")
	}
	if err := message.CorrelationID.UnmarshalBinary(correlationBytes); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal correlation UUID")
	}
	return nil
}
