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

// OverlayRepository implements port.TaskOverlayRepository
type OverlayRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewOverlayRepository creates a new task overlay repository
func NewOverlayRepository(db *sqlite.DB, logger *zap.Logger) port.TaskOverlayRepository {
	return &OverlayRepository{db: db, logger: logger}
}

// Save merges the overlay into the stored one. Fields the update leaves nil keep
// their stored value; a due date and a due-date clear replace each other.
func (r *OverlayRepository) Save(ctx context.Context, overlay entity.TaskOverlay) error {
	u := overlay.Update
	if overlay.UpdatedAt.IsZero() {
		overlay.UpdatedAt = time.Now()
	}

	query := `
		INSERT INTO task_overlays (
			task_id, current_status, due_date, clear_due_date,
			assigned_to, notes, workflow_step, last_updated, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			current_status = COALESCE(excluded.current_status, task_overlays.current_status),
			due_date = CASE
				WHEN excluded.clear_due_date = 1 THEN NULL
				ELSE COALESCE(excluded.due_date, task_overlays.due_date) END,
			clear_due_date = CASE
				WHEN excluded.due_date IS NOT NULL THEN 0
				ELSE MAX(excluded.clear_due_date, task_overlays.clear_due_date) END,
			assigned_to = COALESCE(excluded.assigned_to, task_overlays.assigned_to),
			notes = COALESCE(excluded.notes, task_overlays.notes),
			workflow_step = COALESCE(excluded.workflow_step, task_overlays.workflow_step),
			last_updated = COALESCE(excluded.last_updated, task_overlays.last_updated),
			updated_at = excluded.updated_at
	`

	var due interface{}
	if u.DueDate != nil && !u.ClearDueDate {
		due = *u.DueDate
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		overlay.TaskID,
		nullString(u.CurrentStatus),
		due,
		boolInt(u.ClearDueDate),
		nullString(u.AssignedTo),
		nullString(u.Notes),
		nullString(u.WorkflowStep),
		nullTime(u.LastUpdated),
		overlay.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save task overlay", zap.String("task_id", overlay.TaskID), zap.Error(err))
		return fmt.Errorf("failed to save task overlay: %w", err)
	}
	return nil
}

// List returns every overlay ordered by task id
func (r *OverlayRepository) List(ctx context.Context) ([]entity.TaskOverlay, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT task_id, current_status, due_date, clear_due_date,
			assigned_to, notes, workflow_step, last_updated, updated_at
		FROM task_overlays
		ORDER BY task_id
	`)
	if err != nil {
		r.logger.Error("Failed to list task overlays", zap.Error(err))
		return nil, fmt.Errorf("failed to list task overlays: %w", err)
	}
	defer rows.Close()

	overlays := make([]entity.TaskOverlay, 0)
	for rows.Next() {
		var (
			o                           entity.TaskOverlay
			status, assignee, notes, st sql.NullString
			due, lastUpdated            sql.NullTime
			clearDue                    int
		)
		if err := rows.Scan(&o.TaskID, &status, &due, &clearDue, &assignee, &notes, &st, &lastUpdated, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task overlay: %w", err)
		}

		o.Update = entity.TaskUpdate{
			CurrentStatus: stringPtr(status),
			AssignedTo:    stringPtr(assignee),
			Notes:         stringPtr(notes),
			WorkflowStep:  stringPtr(st),
			DueDate:       timePtr(due),
			LastUpdated:   timePtr(lastUpdated),
			ClearDueDate:  clearDue == 1,
		}
		overlays = append(overlays, o)
	}
	return overlays, rows.Err()
}

// Delete removes the overlay of a task
func (r *OverlayRepository) Delete(ctx context.Context, taskID string) error {
	if _, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM task_overlays WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("failed to delete task overlay: %w", err)
	}
	return nil
}

var _ port.TaskOverlayRepository = (*OverlayRepository)(nil)
