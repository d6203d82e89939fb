package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/inventory/domain"
)

// MySQLLineRepository handles inventory line persistence for MySQL. UUIDs are
// stored as BINARY(16).
type MySQLLineRepository struct {
	db *sql.DB
}

// NewMySQLLineRepository creates a new MySQLLineRepository.
func NewMySQLLineRepository(db *sql.DB) *MySQLLineRepository {
	return &MySQLLineRepository{
		db: db,
	}
}

// Upsert inserts the line or resets its quantity. Used by seeding.
func (r *MySQLLineRepository) Upsert(ctx context.Context, line *domain.Line) error {
	querier := database.GetTx(ctx, r.db)

	productID, err := line.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `INSERT INTO inventory_lines (product_id, quantity, created_at, updated_at)
			  VALUES (?, ?, NOW(), NOW())
			  ON DUPLICATE KEY UPDATE quantity = VALUES(quantity), updated_at = NOW()`

	_, err = querier.ExecContext(ctx, query, productID, line.Quantity)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert inventory line")
	}
	return nil
}

// GetForUpdate loads the line and takes a row-level exclusive lock held until
// the enclosing transaction ends.
func (r *MySQLLineRepository) GetForUpdate(
	ctx context.Context,
	productID uuid.UUID,
) (*domain.Line, error) {
	querier := database.GetTx(ctx, r.db)

	productIDValue, err := productID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `SELECT product_id, quantity, created_at, updated_at
			  FROM inventory_lines WHERE product_id = ?
			  FOR UPDATE`

	var line domain.Line
	var rawProductID []byte
	err = querier.QueryRowContext(ctx, query, productIDValue).Scan(
		&rawProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get inventory line for update")
	}

	if err := line.ProductID.UnmarshalBinary(rawProductID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal product id")
	}
	return &line, nil
}

// Update persists a mutated inventory line.
func (r *MySQLLineRepository) Update(ctx context.Context, line *domain.Line) error {
	querier := database.GetTx(ctx, r.db)

	productID, err := line.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `UPDATE inventory_lines
			  SET quantity = ?, updated_at = NOW()
			  WHERE product_id = ?`

	_, err = querier.ExecContext(ctx, query, line.Quantity, productID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update inventory line")
	}
	return nil
}
