// Package repository provides data persistence implementations for inbox records.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/inbox/domain"
)

// PostgreSQLRecordRepository handles inbox record persistence for PostgreSQL
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// NewPostgreSQLRecordRepository creates a new PostgreSQLRecordRepository
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{
		db: db,
	}
}

// Create inserts a new inbox record. Returns ErrDuplicateMessage when the
// (message_id, consumer) pair was already recorded.
func (r *PostgreSQLRecordRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO inbox_records (message_id, consumer, received_at)
			  VALUES ($1, $2, NOW())`

	_, err := querier.ExecContext(ctx, query, record.MessageID, record.Consumer)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return apperrors.ErrDuplicateMessage
		}
		return apperrors.Wrap(err, "failed to create inbox record")
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
