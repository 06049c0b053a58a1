package entity

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task is one member's placement case within one health-plan workflow.
//
// Fields under "derived" are recomputed from CurrentStatus and DueDate on every
// mutation path and must never be written independently.
type Task struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`

	// Member reference (display only)
	MemberFirstName string `json:"member_first_name"`
	MemberLastName  string `json:"member_last_name"`
	MemberMRN       string `json:"member_mrn,omitempty"`
	MemberCounty    string `json:"member_county,omitempty"`

	// Classification
	HealthPlan HealthPlan `json:"health_plan"`
	Pathway    string     `json:"pathway,omitempty"`

	// Workflow position
	CurrentStatus string `json:"current_status"`
	NextStatus    string `json:"next_status,omitempty"`
	WorkflowStep  string `json:"workflow_step,omitempty"`

	// Temporal
	DueDate     *time.Time `json:"due_date,omitempty"`
	LastUpdated time.Time  `json:"last_updated"`
	CreatedDate time.Time  `json:"created_date"`

	// Assignment
	AssignedTo string `json:"assigned_to,omitempty"`
	Notes      string `json:"notes,omitempty"`

	// Derived: dates
	DaysUntilDue   int    `json:"days_until_due"`
	IsOverdue      bool   `json:"is_overdue"`
	HasDueDate     bool   `json:"has_due_date"`
	DueDescription string `json:"due_description"`

	// Derived: status and scoring
	Priority                Priority   `json:"priority"`
	PriorityScore           float64    `json:"priority_score"`
	TaskStatus              TaskStatus `json:"task_status"`
	NextAction              string     `json:"next_action"`
	CanAutoAdvance          bool       `json:"can_auto_advance"`
	EstimatedCompletionDays int        `json:"estimated_completion_days"`
	WorkflowProgress        int        `json:"workflow_progress"`

	// Plan-specific extension fields, carried through unchanged
	Details PlanDetails `json:"details,omitempty"`
}

// MemberName returns "first last"
func (t *Task) MemberName() string {
	switch {
	case t.MemberFirstName == "":
		return t.MemberLastName
	case t.MemberLastName == "":
		return t.MemberFirstName
	default:
		return t.MemberFirstName + " " + t.MemberLastName
	}
}

// DaysOverdue returns how many days past due the task is, or 0
func (t *Task) DaysOverdue() int {
	if !t.HasDueDate || !t.IsOverdue {
		return 0
	}
	return -t.DaysUntilDue
}

// IsCompleted reports whether the task has reached a completion state
func (t *Task) IsCompleted() bool {
	return t.TaskStatus == TaskStatusCompleted
}

// Kaiser returns the Kaiser extension fields when the task carries them
func (t *Task) Kaiser() (*KaiserDetails, bool) {
	d, ok := t.Details.(*KaiserDetails)
	return d, ok
}

// HealthNet returns the Health Net extension fields when the task carries them
func (t *Task) HealthNet() (*HealthNetDetails, bool) {
	d, ok := t.Details.(*HealthNetDetails)
	return d, ok
}

// PlanDetails is the tagged variant of plan-specific task data, keyed on HealthPlan
type PlanDetails interface {
	Plan() HealthPlan
}

// KaiserDetails holds Kaiser sub-statuses
type KaiserDetails struct {
	T2038Status   string `json:"t2038_status,omitempty"`
	RNVisitStatus string `json:"rn_visit_status,omitempty"`
	TierLevel     string `json:"tier_level,omitempty"`
	RCFEStatus    string `json:"rcfe_status,omitempty"`
	ILSStatus     string `json:"ils_status,omitempty"`
}

// Plan implements PlanDetails
func (*KaiserDetails) Plan() HealthPlan { return HealthPlanKaiser }

// HealthNetDetails holds Health Net sub-statuses
type HealthNetDetails struct {
	ISPStatus           string `json:"isp_status,omitempty"`
	AuthorizationStatus string `json:"authorization_status,omitempty"`
	AuthorizationNumber string `json:"authorization_number,omitempty"`
}

// Plan implements PlanDetails
func (*HealthNetDetails) Plan() HealthPlan { return HealthPlanHealthNet }

// UnmarshalJSON decodes Details into the variant matching HealthPlan
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	aux := struct {
		*plain
		Details json.RawMessage `json:"details,omitempty"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	t.Details = nil
	if len(aux.Details) == 0 || string(aux.Details) == "null" {
		return nil
	}

	var details PlanDetails
	switch t.HealthPlan {
	case HealthPlanKaiser:
		details = &KaiserDetails{}
	case HealthPlanHealthNet:
		details = &HealthNetDetails{}
	default:
		return fmt.Errorf("task %s: details for unknown health plan %q", t.ID, t.HealthPlan)
	}
	if err := json.Unmarshal(aux.Details, details); err != nil {
		return fmt.Errorf("task %s: failed to decode details: %w", t.ID, err)
	}
	t.Details = details
	return nil
}

var (
	_ PlanDetails = (*KaiserDetails)(nil)
	_ PlanDetails = (*HealthNetDetails)(nil)
)
