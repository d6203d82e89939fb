package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/payment/domain"
)

// MySQLPaymentRepository handles payment persistence for MySQL. UUIDs are
// stored as BINARY(16).
type MySQLPaymentRepository struct {
	db *sql.DB
}

// NewMySQLPaymentRepository creates a new MySQLPaymentRepository.
func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{
		db: db,
	}
}

// Create inserts a new payment.
func (r *MySQLPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	id, err := payment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal payment id")
	}
	orderID, err := payment.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `INSERT INTO payments (id, order_id, amount, status, payment_intent_id, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, id, orderID, payment.Amount,
		payment.Status, payment.PaymentIntentID)
	if err != nil {
		return apperrors.Wrap(err, "failed to create payment")
	}
	return nil
}

// GetByOrderID retrieves the payment for an order.
func (r *MySQLPaymentRepository) GetByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) (*domain.Payment, error) {
	querier := database.GetTx(ctx, r.db)

	orderIDValue, err := orderID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `SELECT id, order_id, amount, status, payment_intent_id, created_at, updated_at
			  FROM payments WHERE order_id = ?`

	var payment domain.Payment
	var rawID, rawOrderID []byte
	err = querier.QueryRowContext(ctx, query, orderIDValue).Scan(
		&rawID, &rawOrderID, &payment.Amount, &payment.Status, &payment.PaymentIntentID,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get payment by order id")
	}

	if err := payment.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal payment id")
	}
	if err := payment.OrderID.UnmarshalBinary(rawOrderID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order id")
	}
	return &payment, nil
}

// Update persists a mutated payment.
func (r *MySQLPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	querier := database.GetTx(ctx, r.db)

	id, err := payment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal payment id")
	}

	query := `UPDATE payments
			  SET status = ?, updated_at = NOW()
			  WHERE id = ?`

	_, err = querier.ExecContext(ctx, query, payment.Status, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update payment")
	}
	return nil
}
