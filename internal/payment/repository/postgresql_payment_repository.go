// Package repository provides data persistence implementations for payments.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/payment/domain"
)

// PostgreSQLPaymentRepository handles payment persistence for PostgreSQL.
type PostgreSQLPaymentRepository struct {
	db *sql.DB
}

// NewPostgreSQLPaymentRepository creates a new PostgreSQLPaymentRepository.
func NewPostgreSQLPaymentRepository(db *sql.DB) *PostgreSQLPaymentRepository {
	return &PostgreSQLPaymentRepository{
		db: db,
	}
}

// Create inserts a new payment.
func (r *PostgreSQLPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO payments (id, order_id, amount, status, payment_intent_id, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, payment.ID, payment.OrderID, payment.Amount,
		payment.Status, payment.PaymentIntentID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create payment")
	}
	return nil
}

// GetByOrderID retrieves the payment for an order.
func (r *PostgreSQLPaymentRepository) GetByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) (*domain.Payment, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, amount, status, payment_intent_id, created_at, updated_at
			  FROM payments WHERE order_id = $1`

	var payment domain.Payment
	err := querier.QueryRowContext(ctx, query, orderID).Scan(
		&payment.ID, &payment.OrderID, &payment.Amount, &payment.Status, &payment.PaymentIntentID,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get payment by order id")
	}
	return &payment, nil
}

// Update persists a mutated payment.
func (r *PostgreSQLPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE payments
			  SET status = $1, updated_at = NOW()
			  WHERE id = $2`

	_, err := querier.ExecContext(ctx, query, payment.Status, payment.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update payment")
	}
	return nil
}
