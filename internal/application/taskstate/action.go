package taskstate

import (
	"time"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// ActionType names a state transition
type ActionType string

const (
	ActionSetTasks            ActionType = "SET_TASKS"
	ActionUpdateTask          ActionType = "UPDATE_TASK"
	ActionSetFilter           ActionType = "SET_FILTER"
	ActionBulkUpdateTasks     ActionType = "BULK_UPDATE_TASKS"
	ActionAutoAdvanceWorkflow ActionType = "AUTO_ADVANCE_WORKFLOW"
	ActionSetLoading          ActionType = "SET_LOADING"
	ActionSetError            ActionType = "SET_ERROR"
	ActionSetScoringContext   ActionType = "SET_SCORING_CONTEXT"
	ActionSetAutomation       ActionType = "SET_AUTOMATION"
)

// Action is one requested transition. Only the fields relevant to Type are read.
type Action struct {
	Type ActionType

	Tasks      []entity.Task
	TaskID     string
	TaskIDs    []string
	Update     entity.TaskUpdate
	Filter     entity.TaskFilter
	Satisfied  domainwf.ConditionSet
	Loading    bool
	Error      string
	Scoring    prioritizer.ScoringContext
	Automation AutomationSettings

	// At stamps LastUpdated on status changes; the store fills it when zero
	At time.Time
}

// SetTasks replaces the canonical task list
func SetTasks(tasks []entity.Task) Action {
	return Action{Type: ActionSetTasks, Tasks: tasks}
}

// UpdateTask applies update to one task
func UpdateTask(id string, update entity.TaskUpdate) Action {
	return Action{Type: ActionUpdateTask, TaskID: id, Update: update}
}

// SetFilter replaces the active filter
func SetFilter(filter entity.TaskFilter) Action {
	return Action{Type: ActionSetFilter, Filter: filter}
}

// BulkUpdateTasks applies update to every listed task
func BulkUpdateTasks(ids []string, update entity.TaskUpdate) Action {
	return Action{Type: ActionBulkUpdateTasks, TaskIDs: ids, Update: update}
}

// AutoAdvanceWorkflow advances one task when its auto-advance conditions hold
func AutoAdvanceWorkflow(id string, satisfied domainwf.ConditionSet) Action {
	return Action{Type: ActionAutoAdvanceWorkflow, TaskID: id, Satisfied: satisfied}
}

// SetLoading toggles the loading flag
func SetLoading(loading bool) Action {
	return Action{Type: ActionSetLoading, Loading: loading}
}

// SetError records a load failure; the task list is kept
func SetError(msg string) Action {
	return Action{Type: ActionSetError, Error: msg}
}

// SetScoringContext replaces the workload and history signals and re-scores every task
func SetScoringContext(ctx prioritizer.ScoringContext) Action {
	return Action{Type: ActionSetScoringContext, Scoring: ctx}
}

// SetAutomation replaces the automation settings
func SetAutomation(settings AutomationSettings) Action {
	return Action{Type: ActionSetAutomation, Automation: settings}
}
