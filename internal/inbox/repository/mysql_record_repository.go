package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/inbox/domain"
)

// MySQLRecordRepository handles inbox record persistence for MySQL
type MySQLRecordRepository struct {
	db *sql.DB
}

// NewMySQLRecordRepository creates a new MySQLRecordRepository
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{
		db: db,
	}
}

// Create inserts a new inbox record. Returns ErrDuplicateMessage when the
// (message_id, consumer) pair was already recorded.
func (r *MySQLRecordRepository) Create(ctx context.Context, record *domain.Record) error {
	querier := database.GetTx(ctx, r.db)

	messageID, err := record.MessageID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal message id")
	}

	query := `INSERT INTO inbox_records (message_id, consumer, received_at)
			  VALUES (?, ?, NOW())`

	_, err = querier.ExecContext(ctx, query, messageID, record.Consumer)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return apperrors.ErrDuplicateMessage
		}
		return apperrors.Wrap(err, "failed to create inbox record")
	}
	return nil
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}
