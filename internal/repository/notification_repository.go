package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Hillway-UK/union-clock-sub000/internal/models"
)

// NotificationRepository inserts notifications for the delivery sink.
// Deduplication is enforced here on dedupe_key so retried sweeps never
// produce duplicate notifications for the same logical event.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository builds the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert enqueues a notification. It returns false when a notification with
// the same dedupe key already exists.
func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) (bool, error) {
	query := `INSERT INTO notifications (id, worker_id, title, body, type, dedupe_key, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (dedupe_key) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.WorkerID,
		n.Title,
		n.Body,
		n.Type,
		n.DedupeKey,
		n.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert notification: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert notification rows: %w", err)
	}
	return affected == 1, nil
}
