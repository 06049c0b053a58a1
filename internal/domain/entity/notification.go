package entity

import "time"

// Notification delivery states
const (
	NotificationPending = "PENDING"
	NotificationSent    = "SENT"
	NotificationFailed  = "FAILED"
	NotificationSkipped = "SKIPPED"
)

// Notification is one staff message produced by a task event
type Notification struct {
	ID           int64      `json:"id"`
	TaskID       string     `json:"task_id"`
	EventType    string     `json:"event_type"`
	Recipient    string     `json:"recipient"`
	Content      string     `json:"content"`
	Status       string     `json:"status"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
