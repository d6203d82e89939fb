package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/saga/domain"
)

// MySQLInstanceRepository handles saga instance persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLInstanceRepository struct {
	db *sql.DB
}

// NewMySQLInstanceRepository creates a new MySQLInstanceRepository.
func NewMySQLInstanceRepository(db *sql.DB) *MySQLInstanceRepository {
	return &MySQLInstanceRepository{
		db: db,
	}
}

// Create inserts a new saga instance.
func (r *MySQLInstanceRepository) Create(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	correlationID, err := instance.CorrelationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal correlation id")
	}
	productID, err := instance.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `INSERT INTO saga_instances (correlation_id, current_state, order_total, product_id,
			  customer_email, payment_intent_id, order_date, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, correlationID, instance.CurrentState,
		instance.OrderTotal, productID, instance.CustomerEmail, instance.PaymentIntentID,
		instance.OrderDate)
	if err != nil {
		return apperrors.Wrap(err, "failed to create saga instance")
	}
	return nil
}

// GetForUpdate loads the instance for the correlation id and takes a row-level
// exclusive lock held until the enclosing transaction ends.
func (r *MySQLInstanceRepository) GetForUpdate(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	query := `SELECT correlation_id, current_state, order_total, product_id, customer_email,
			  payment_intent_id, order_date, created_at, updated_at
			  FROM saga_instances WHERE correlation_id = ?
			  FOR UPDATE`

	return r.getInstance(ctx, query, correlationID)
}

// GetByCorrelationID retrieves a saga instance without locking, for read endpoints.
func (r *MySQLInstanceRepository) GetByCorrelationID(
	ctx context.Context,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	query := `SELECT correlation_id, current_state, order_total, product_id, customer_email,
			  payment_intent_id, order_date, created_at, updated_at
			  FROM saga_instances WHERE correlation_id = ?`

	return r.getInstance(ctx, query, correlationID)
}

// Update persists a mutated saga instance.
func (r *MySQLInstanceRepository) Update(ctx context.Context, instance *domain.Instance) error {
	querier := database.GetTx(ctx, r.db)

	correlationID, err := instance.CorrelationID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal correlation id")
	}
	productID, err := instance.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `UPDATE saga_instances
			  SET current_state = ?, order_total = ?, product_id = ?, customer_email = ?,
			      payment_intent_id = ?, order_date = ?, updated_at = NOW()
			  WHERE correlation_id = ?`

	_, err = querier.ExecContext(ctx, query, instance.CurrentState, instance.OrderTotal,
		productID, instance.CustomerEmail, instance.PaymentIntentID, instance.OrderDate,
		correlationID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update saga instance")
	}
	return nil
}

// getInstance runs a single-row query and unmarshals the BINARY(16) UUID columns.
func (r *MySQLInstanceRepository) getInstance(
	ctx context.Context,
	query string,
	correlationID uuid.UUID,
) (*domain.Instance, error) {
	querier := database.GetTx(ctx, r.db)

	idValue, err := correlationID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal correlation id")
	}

	var instance domain.Instance
	var rawCorrelationID, rawProductID []byte
	err = querier.QueryRowContext(ctx, query, idValue).Scan(
		&rawCorrelationID, &instance.CurrentState, &instance.OrderTotal, &rawProductID,
		&instance.CustomerEmail, &instance.PaymentIntentID, &instance.OrderDate,
		&instance.CreatedAt, &instance.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get saga instance")
	}

	if err := instance.CorrelationID.UnmarshalBinary(rawCorrelationID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal correlation id")
	}
	if err := instance.ProductID.UnmarshalBinary(rawProductID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal product id")
	}
	return &instance, nil
}
