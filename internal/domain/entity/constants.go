package entity

// HealthPlan selects which workflow definition applies to a task
type HealthPlan string

const (
	HealthPlanKaiser    HealthPlan = "Kaiser"
	HealthPlanHealthNet HealthPlan = "Health Net"
	HealthPlanOther     HealthPlan = "Other"
)

// String returns the plan's display name
func (p HealthPlan) String() string {
	return string(p)
}

// Priority is the tier derived from a task's priority score
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Priorities lists tiers from most to least urgent
var Priorities = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders tiers; lower is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// TaskStatus is the urgency/lifecycle classification of a task
type TaskStatus string

const (
	TaskStatusOverdue   TaskStatus = "overdue"
	TaskStatusDueToday  TaskStatus = "due-today"
	TaskStatusDueSoon   TaskStatus = "due-soon"
	TaskStatusFuture    TaskStatus = "future"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusOnHold    TaskStatus = "on-hold"
)

// Well-known pathway labels
const (
	PathwaySNFTransition = "SNF Transition"
	PathwaySNFDiversion  = "SNF Diversion"
)

// UnassignedKey is the group key for tasks without an assignee
const UnassignedKey = "Unassigned"
