package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/notification/domain"
)

// MySQLNotificationRepository handles notification persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLNotificationRepository struct {
	db *sql.DB
}

// NewMySQLNotificationRepository creates a new MySQLNotificationRepository.
func NewMySQLNotificationRepository(db *sql.DB) *MySQLNotificationRepository {
	return &MySQLNotificationRepository{
		db: db,
	}
}

// Create inserts a new notification.
func (r *MySQLNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	id, err := notification.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal notification id")
	}
	orderID, err := notification.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `INSERT INTO notifications (id, order_id, email, subject, body, created_at)
			  VALUES (?, ?, ?, ?, ?, NOW())`

	_, err = querier.ExecContext(ctx, query, id, orderID,
		notification.Email, notification.Subject, notification.Body)
	if err != nil {
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListByOrderID retrieves the notifications sent for an order, oldest first.
func (r *MySQLNotificationRepository) ListByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	orderIDValue, err := orderID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	query := `SELECT id, order_id, email, subject, body, created_at
			  FROM notifications WHERE order_id = ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, orderIDValue)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close() //nolint:errcheck

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification
		var rawID, rawOrderID []byte
		err := rows.Scan(
			&rawID, &rawOrderID, &notification.Email,
			&notification.Subject, &notification.Body, &notification.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}
		if err := notification.ID.UnmarshalBinary(rawID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal notification id")
		}
		if err := notification.OrderID.UnmarshalBinary(rawOrderID); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal order id")
		}
		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate notifications")
	}
	return notifications, nil
}
