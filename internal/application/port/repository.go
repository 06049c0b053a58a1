package port

import (
	"context"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

// CaseRecordRepository stores source records locally
type CaseRecordRepository interface {
	CaseRecordSource

	// Upsert inserts or replaces records by id
	Upsert(ctx context.Context, records []entity.CaseRecord) error

	// Count returns the number of stored records
	Count(ctx context.Context) (int, error)
}

// TaskOverlayRepository persists local edits made on top of source records
type TaskOverlayRepository interface {
	// Save merges overlay into any existing overlay for the task
	Save(ctx context.Context, overlay entity.TaskOverlay) error

	// List returns every overlay
	List(ctx context.Context) ([]entity.TaskOverlay, error)

	// Delete removes the overlay of a task
	Delete(ctx context.Context, taskID string) error
}

// StatusHistoryRepository records status transitions
type StatusHistoryRepository interface {
	Record(ctx context.Context, h *entity.StatusHistory) error
	ListByTask(ctx context.Context, taskID string) ([]*entity.StatusHistory, error)

	// DelayCounts maps status to the number of transitions that left it while overdue
	DelayCounts(ctx context.Context) (map[string]int, error)
}

// NotificationRepository persists the staff notification log
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByTask(ctx context.Context, taskID string) ([]*entity.Notification, error)
	UpdateStatus(ctx context.Context, id int64, status string, errorMsg string) error
	MarkSent(ctx context.Context, id int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
