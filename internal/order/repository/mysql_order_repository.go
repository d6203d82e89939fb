package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/order/domain"
)

// MySQLOrderRepository handles order persistence for MySQL. UUIDs are stored
// as BINARY(16).
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQLOrderRepository.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{
		db: db,
	}
}

// Create inserts a new order.
func (r *MySQLOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	querier := database.GetTx(ctx, r.db)

	id, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}
	productID, err := order.ProductID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	query := `INSERT INTO orders (id, product_id, customer_email, total, payment_intent_id,
			  order_date, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err = querier.ExecContext(ctx, query, id, productID, order.CustomerEmail,
		order.Total, order.PaymentIntentID, order.OrderDate)
	if err != nil {
		return apperrors.Wrap(err, "failed to create order")
	}
	return nil
}

// GetByID retrieves an order by ID.
func (r *MySQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	idValue, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `SELECT id, product_id, customer_email, total, payment_intent_id, order_date,
			  created_at, updated_at
			  FROM orders WHERE id = ?`

	var order domain.Order
	var rawID, rawProductID []byte
	err = querier.QueryRowContext(ctx, query, idValue).Scan(
		&rawID, &rawProductID, &order.CustomerEmail, &order.Total, &order.PaymentIntentID,
		&order.OrderDate, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if apperrors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	if err := order.ID.UnmarshalBinary(rawID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal order id")
	}
	if err := order.ProductID.UnmarshalBinary(rawProductID); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal product id")
	}
	return &order, nil
}

// List retrieves orders with pagination, newest first.
func (r *MySQLOrderRepository) List(ctx context.Context, offset, limit int) ([]*domain.Order, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, product_id, customer_email, total, payment_intent_id, order_date,
			  created_at, updated_at
			  FROM orders ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer func() { _ = rows.Close() }()

	var orders []*domain.Order
	for rows.Next() {
		var order domain.Order
		var rawID, rawProductID []byte
		err := rows.Scan(
			&rawID, &rawProductID, &order.CustomerEmail, &order.Total, &order.PaymentIntentID,
			&order.OrderDate, &order.CreatedAt, &order.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}
		if err := order.ID.UnmarshalBinary(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal order id")
		}
		if err := order.ProductID.UnmarshalBinary(rawProductID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal product id")
		}
		orders = append(orders, &order)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}
	return orders, nil
}
