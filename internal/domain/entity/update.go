package entity

import "time"

// TaskUpdate is a partial update to a task's stored fields.
// Nil fields are left unchanged.
type TaskUpdate struct {
	CurrentStatus *string    `json:"current_status,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	ClearDueDate  bool       `json:"clear_due_date,omitempty"`
	AssignedTo    *string    `json:"assigned_to,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	WorkflowStep  *string    `json:"workflow_step,omitempty"`
	LastUpdated   *time.Time `json:"last_updated,omitempty"`

	// OffWorkflow accepts a manual status change that is not a permitted workflow move
	OffWorkflow bool `json:"off_workflow,omitempty"`
}

// TouchesDueDate reports whether applying the update changes the due date
func (u TaskUpdate) TouchesDueDate() bool {
	return u.DueDate != nil || u.ClearDueDate
}

// TouchesStatus reports whether applying the update changes the current status
func (u TaskUpdate) TouchesStatus() bool {
	return u.CurrentStatus != nil
}

// IsEmpty reports whether the update changes nothing
func (u TaskUpdate) IsEmpty() bool {
	return u.CurrentStatus == nil && !u.TouchesDueDate() && u.AssignedTo == nil &&
		u.Notes == nil && u.WorkflowStep == nil && u.LastUpdated == nil
}

// ApplyStored copies the update's stored fields onto t. Derived fields are not touched.
func (u TaskUpdate) ApplyStored(t *Task) {
	if u.CurrentStatus != nil {
		t.CurrentStatus = *u.CurrentStatus
	}
	if u.ClearDueDate {
		t.DueDate = nil
	}
	if u.DueDate != nil {
		due := *u.DueDate
		t.DueDate = &due
	}
	if u.AssignedTo != nil {
		t.AssignedTo = *u.AssignedTo
	}
	if u.Notes != nil {
		t.Notes = *u.Notes
	}
	if u.WorkflowStep != nil {
		t.WorkflowStep = *u.WorkflowStep
	}
	if u.LastUpdated != nil {
		t.LastUpdated = *u.LastUpdated
	}
}

// StatusUpdate builds an update that sets the current status and due date
func StatusUpdate(status string, due time.Time) TaskUpdate {
	return TaskUpdate{CurrentStatus: &status, DueDate: &due}
}
