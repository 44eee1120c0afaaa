package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/julian-m-willis/spm-proj-sub000/internal/models"
)

// NotificationRepository stores workflow notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new notification repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a new notification.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO notifications (id, staff_id, message, type, read, created_at)
		VALUES (:id, :staff_id, :message, :type, :read, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListByStaff returns notifications for a staff member, newest first.
func (r *NotificationRepository) ListByStaff(ctx context.Context, staffID string) ([]models.Notification, error) {
	const query = `SELECT id, staff_id, message, type, read, created_at FROM notifications
		WHERE staff_id = $1 ORDER BY created_at DESC`
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, staffID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead flags a notification as read for its owner.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, staffID string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND staff_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, staffID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("mark notification read: no notification %s for staff %s", id, staffID)
	}
	return nil
}
