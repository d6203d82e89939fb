// Package repository provides data persistence implementations for saga instances.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/saga/domain"
)

// PostgreSQLInstanceRepository handles saga instance persistence for PostgreSQL.
type PostgreSQLInstanceRepository struct {
	db *sql.DB
}

// NewPostgreSQLInstanceRepository creates a new PostgreSQLInstanceRepository.
func NewPostgreSQLInstanceRepository(db *sql.DB) *PostgreSQLInstanceRepository {
	return &PostgreSQLInstanceRepository{
		db: db,
	}
}

// Create inserts a new saga instance.
func (r *PostgreSQLInstanceRepository) Create(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO saga_instances (correlation_id, current_state, order_total, product_id,
			  customer_email, payment_intent_id, order_date, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, instance.CorrelationID, instance.CurrentState,
		instance.OrderTotal, instance.ProductID, instance.CustomerEmail, instance.PaymentIntentID,
		instance.OrderDate)
	if err != nil {
		return apperrors.Wrap(err, "failed to create saga instance")
	}
	return nil
}

// GetForUpdate loads the instance for the correlation id and takes a row-level
// exclusive lock held until the enclosing transaction ends. Concurrent events
// for the same correlation id block here, one behind the other.
func (r *PostgreSQLInstanceRepository) GetForUpdate(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT correlation_id, current_state, order_total, product_id, customer_email,
			  payment_intent_id, order_date, created_at, updated_at
			  FROM saga_instances WHERE correlation_id = $1
			  FOR UPDATE`

	var instance domain.Instance
	err := querier.QueryRowContext(ctx, query, correlationID).Scan(
		&instance.CorrelationID, &instance.CurrentState, &instance.OrderTotal, &instance.ProductID,
		&instance.CustomerEmail, &instance.PaymentIntentID, &instance.OrderDate,
		&instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get saga instance for update")
	}
	return &instance, nil
}

// GetByCorrelationID retrieves a saga instance without locking, for read endpoints.
func (r *PostgreSQLInstanceRepository) GetByCorrelationID(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT correlation_id, current_state, order_total, product_id, customer_email,
			  payment_intent_id, order_date, created_at, updated_at
			  FROM saga_instances WHERE correlation_id = $1`

	var instance domain.Instance
	err := querier.QueryRowContext(ctx, query, correlationID).Scan(
		&instance.CorrelationID, &instance.CurrentState, &instance.OrderTotal, &instance.ProductID,
		&instance.CustomerEmail, &instance.PaymentIntentID, &instance.OrderDate,
		&instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get saga instance")
	}
	return &instance, nil
}

// Update persists a mutated saga instance.
func (r *PostgreSQLInstanceRepository) Update(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE saga_instances
			  SET current_state = $1, order_total = $2, product_id = $3, customer_email = $4,
			      payment_intent_id = $5, order_date = $6, updated_at = NOW()
			  WHERE correlation_id = $7`

	_, err := querier.ExecContext(ctx, query, instance.CurrentState, instance.OrderTotal,
		instance.ProductID, instance.CustomerEmail, instance.PaymentIntentID, instance.OrderDate,
		instance.CorrelationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update saga instance")
	}
	return nil
}
