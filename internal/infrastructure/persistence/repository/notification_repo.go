package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
)

// NotificationRepository implements port.NotificationRepository
type NotificationRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sqlite.DB, logger *zap.Logger) port.NotificationRepository {
	return &NotificationRepository{db: db, logger: logger}
}

// Create inserts a notification record
func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	if n.Status == "" {
		n.Status = entity.NotificationPending
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO notifications (
			task_id, event_type, recipient, content, status,
			sent_at, error_message, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, n.TaskID, n.EventType, n.Recipient, n.Content, n.Status,
		nullTime(n.SentAt), n.ErrorMessage, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create notification",
			zap.String("task_id", n.TaskID),
			zap.Error(err))
		return fmt.Errorf("failed to create notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	return nil
}

// ListByTask returns the notifications of a task, newest first
func (r *NotificationRepository) ListByTask(ctx context.Context, taskID string) ([]*entity.Notification, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, task_id, event_type, recipient, content, status,
			sent_at, error_message, created_at, updated_at
		FROM notifications
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC
	`, taskID)
	if err != nil {
		r.logger.Error("Failed to list notifications", zap.String("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*entity.Notification
	for rows.Next() {
		var (
			n        entity.Notification
			sentAt   sql.NullTime
			errorMsg sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.TaskID, &n.EventType, &n.Recipient, &n.Content, &n.Status,
			&sentAt, &errorMsg, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.SentAt = timePtr(sentAt)
		n.ErrorMessage = errorMsg.String
		out = append(out, &n)
	}
	return out, rows.Err()
}

// UpdateStatus updates the delivery status and error message
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int64, status string, errorMsg string) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`, status, errorMsg, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update notification status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// MarkSent marks a notification as delivered
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64) error {
	now := time.Now()
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, sent_at = ?, updated_at = ?
		WHERE id = ?
	`, entity.NotificationSent, now, now, id)
	if err != nil {
		r.logger.Error("Failed to mark notification as sent",
			zap.Int64("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to mark sent: %w", err)
	}
	return nil
}

var _ port.NotificationRepository = (*NotificationRepository)(nil)
