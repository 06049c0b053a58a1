package workflow

import (
	"time"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// Engine answers traversal and automation queries over the health-plan workflows.
// It never mutates tasks; callers apply its recommendations.
type Engine interface {
	// GetWorkflow returns the definition for a health plan
	GetWorkflow(plan entity.HealthPlan) (*domainwf.Definition, bool)

	// Workflows returns every definition in load order
	Workflows() []domainwf.Definition

	// Profile returns the status profile for (plan, status) with generic fallbacks
	Profile(plan entity.HealthPlan, status string) domainwf.StatusProfile

	// GetNextStatus returns the successor of status; false when unknown or terminal
	GetNextStatus(plan entity.HealthPlan, status string) (string, bool)

	// GetRecommendedDueDate adds the step's recommended business days to from (zero means now)
	GetRecommendedDueDate(plan entity.HealthPlan, status string, from time.Time) time.Time

	// CanAutoAdvance reports whether every auto-advance condition of the task's step is satisfied
	CanAutoAdvance(task *entity.Task, satisfied domainwf.ConditionSet) bool

	// AutoAdvanceTask computes the result of auto-advancing task without mutating it
	AutoAdvanceTask(task *entity.Task, satisfied domainwf.ConditionSet) AdvanceResult

	// ProcessAutomationRules returns the enabled rules that currently match task
	ProcessAutomationRules(task *entity.Task, satisfied domainwf.ConditionSet) []domainwf.AutomationRule

	// Rules returns every configured rule
	Rules() []domainwf.AutomationRule

	// GetWorkflowProgress returns 0-100 progress of status through the plan's chain
	GetWorkflowProgress(plan entity.HealthPlan, status string) int

	// IsValidTransition reports whether from may move to to
	IsValidTransition(plan entity.HealthPlan, from, to string) bool

	// IsCompletion reports whether status completes the plan's workflow
	IsCompletion(plan entity.HealthPlan, status string) bool
}

// AdvanceResult is the outcome of an auto-advance attempt
type AdvanceResult struct {
	Success   bool       `json:"success"`
	NewStatus string     `json:"new_status,omitempty"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Message   string     `json:"message"`
}
