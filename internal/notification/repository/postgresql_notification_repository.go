// Package repository provides data persistence implementations for notifications.
package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/allisson/ordersaga/internal/database"
	apperrors "github.com/allisson/ordersaga/internal/errors"
	"github.com/allisson/ordersaga/internal/notification/domain"
)

// PostgreSQLNotificationRepository handles notification persistence for PostgreSQL.
type PostgreSQLNotificationRepository struct {
	db *sql.DB
}

// NewPostgreSQLNotificationRepository creates a new PostgreSQLNotificationRepository.
func NewPostgreSQLNotificationRepository(db *sql.DB) *PostgreSQLNotificationRepository {
	return &PostgreSQLNotificationRepository{
		db: db,
	}
}

// Create inserts a new notification.
func (r *PostgreSQLNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO notifications (id, order_id, email, subject, body, created_at)
			  VALUES ($1, $2, $3, $4, $5, NOW())`

	_, err := querier.ExecContext(ctx, query, notification.ID, notification.OrderID,
		notification.Email, notification.Subject, notification.Body)
	if err != nil {
		return apperrors.Wrap(err, "failed to create notification")
	}
	return nil
}

// ListByOrderID retrieves the notifications sent for an order, oldest first.
func (r *PostgreSQLNotificationRepository) ListByOrderID(
	ctx context.Context,
	orderID uuid.UUID,
) ([]*domain.Notification, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, order_id, email, subject, body, created_at
			  FROM notifications WHERE order_id = $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list notifications")
	}
	defer rows.Close() //nolint:errcheck

	var notifications []*domain.Notification
	for rows.Next() {
		var notification domain.Notification
		err := rows.Scan(
			&notification.ID, &notification.OrderID, &notification.Email,
			&notification.Subject, &notification.Body, &notification.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan notification")
		}
		notifications = append(notifications, &notification)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate notifications")
	}
	return notifications, nil
}
