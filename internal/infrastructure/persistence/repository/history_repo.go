package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.StatusHistoryRepository
type HistoryRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new status history repository
func NewHistoryRepository(db *sqlite.DB, logger *zap.Logger) port.StatusHistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// Record appends a status transition
func (r *HistoryRepository) Record(ctx context.Context, h *entity.StatusHistory) error {
	if h.ChangedAt.IsZero() {
		h.ChangedAt = time.Now()
	}
	if h.Source == "" {
		h.Source = entity.HistorySourceManual
	}

	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO status_history (
			task_id, health_plan, from_status, to_status, was_overdue, source, changed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`, h.TaskID, string(h.HealthPlan), h.FromStatus, h.ToStatus, boolInt(h.WasOverdue), h.Source, h.ChangedAt)
	if err != nil {
		r.logger.Error("Failed to record status change",
			zap.String("task_id", h.TaskID),
			zap.String("to_status", h.ToStatus),
			zap.Error(err))
		return fmt.Errorf("failed to record status change: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

// ListByTask returns the transitions of a task, oldest first
func (r *HistoryRepository) ListByTask(ctx context.Context, taskID string) ([]*entity.StatusHistory, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, task_id, health_plan, from_status, to_status, was_overdue, source, changed_at
		FROM status_history
		WHERE task_id = ?
		ORDER BY changed_at, id
	`, taskID)
	if err != nil {
		r.logger.Error("Failed to list status history", zap.String("task_id", taskID), zap.Error(err))
		return nil, fmt.Errorf("failed to list status history: %w", err)
	}
	defer rows.Close()

	var history []*entity.StatusHistory
	for rows.Next() {
		var (
			h          entity.StatusHistory
			plan       string
			wasOverdue int
		)
		if err := rows.Scan(&h.ID, &h.TaskID, &plan, &h.FromStatus, &h.ToStatus, &wasOverdue, &h.Source, &h.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		h.HealthPlan = entity.HealthPlan(plan)
		h.WasOverdue = wasOverdue == 1
		history = append(history, &h)
	}
	return history, rows.Err()
}

// DelayCounts maps each status to the number of transitions out of it made while overdue
func (r *HistoryRepository) DelayCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT from_status, COUNT(*)
		FROM status_history
		WHERE was_overdue = 1
		GROUP BY from_status
	`)
	if err != nil {
		r.logger.Error("Failed to count status delays", zap.Error(err))
		return nil, fmt.Errorf("failed to count status delays: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan delay count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

var _ port.StatusHistoryRepository = (*HistoryRepository)(nil)
