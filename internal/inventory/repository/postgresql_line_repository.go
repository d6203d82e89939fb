// Package repository provides data persistence implementations for inventory lines.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/inventory/domain"
)

// PostgreSQLLineRepository handles inventory line persistence for PostgreSQL.
type PostgreSQLLineRepository struct {
	db *sql.DB
}

// NewPostgreSQLLineRepository creates a new PostgreSQLLineRepository.
func NewPostgreSQLLineRepository(db *sql.DB) *PostgreSQLLineRepository {
	return &PostgreSQLLineRepository{
		db: db,
	}
}

// Upsert inserts the line or resets its quantity. Used by seeding.
func (r *PostgreSQLLineRepository) Upsert(ctx context.Context, line *domain.Line) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO inventory_lines (product_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, NOW(), NOW())
			  ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()`

	_, err := querier.ExecContext(ctx, query, line.ProductID, line.Quantity)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert inventory line")
	}
	return nil
}

// GetForUpdate loads the line and takes a row-level exclusive lock held until
// the enclosing transaction ends, serializing concurrent reservations for the
// same product.
func (r *PostgreSQLLineRepository) GetForUpdate(
	ctx context.Context,
	productID uuid.UUID,
) (*domain.Line, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT product_id, quantity, created_at, updated_at
			  FROM inventory_lines WHERE product_id = $1
			  FOR UPDATE`

	var line domain.Line
	err := querier.QueryRowContext(ctx, query, productID).Scan(
		&line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get inventory line for update")
	}
	return &line, nil
}

// Update persists a mutated inventory line.
func (r *PostgreSQLLineRepository) Update(ctx context.Context, line *domain.Line) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE inventory_lines
			  SET quantity = $1, updated_at = NOW()
			  WHERE product_id = $2`

	_, err := querier.ExecContext(ctx, query, line.Quantity, line.ProductID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update inventory line")
	}
	return nil
}
