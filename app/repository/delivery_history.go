package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-eventrouter/app/entity"
)

type DeliveryHistoryRepository struct {
	db *sql.DB
}

// NewDeliveryHistoryRepository constructs a repository backed by MySQL.
func NewDeliveryHistoryRepository(db *sql.DB) *DeliveryHistoryRepository {
	return &DeliveryHistoryRepository{db: db}
}

// Record inserts one delivery attempt.
func (r *DeliveryHistoryRepository) Record(ctx context.Context, d entity.Delivery) error {
	const query = `
		INSERT INTO delivery_history (message_id, recipient, subject, template, status)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, d.MessageID, d.Recipient, d.Subject, d.Template, d.Status)
	return err
}

// CountByStatus returns the number of recorded deliveries with a status.
func (r *DeliveryHistoryRepository) CountByStatus(ctx context.Context, status int16) (int, error) {
	const query = `
		SELECT COUNT(*) FROM delivery_history
		WHERE status = ?
	`
	var count int
	err := r.db.QueryRowContext(ctx, query, status).Scan(&count)
	return count, err
}
