package entity

import "time"

// StatusHistory is one recorded status transition of a task
type StatusHistory struct {
	ID         int64      `json:"id"`
	TaskID     string     `json:"task_id"`
	HealthPlan HealthPlan `json:"health_plan"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	WasOverdue bool       `json:"was_overdue"`
	Source     string     `json:"source"`
	ChangedAt  time.Time  `json:"changed_at"`
}

// History sources
const (
	HistorySourceManual      = "manual"
	HistorySourceBulk        = "bulk"
	HistorySourceAutoAdvance = "auto_advance"
	HistorySourceRule        = "rule"
)

// TaskOverlay is a locally saved edit layered over the source record on every load
type TaskOverlay struct {
	TaskID    string     `json:"task_id"`
	Update    TaskUpdate `json:"update"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CaseRecord is a raw source record as stored locally
type CaseRecord struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	Payload   RawRecord `json:"payload"`
	FetchedAt time.Time `json:"fetched_at"`
}
