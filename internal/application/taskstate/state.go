package taskstate

import (
	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// AutomationSettings controls on-demand automation
type AutomationSettings struct {
	Enabled       bool `json:"enabled"`
	Notifications bool `json:"notifications"`

	// Conditions maps task id to the auto-advance conditions known to hold
	Conditions map[string]domainwf.ConditionSet `json:"-"`
}

// DefaultAutomationSettings enables automation and notifications
func DefaultAutomationSettings() AutomationSettings {
	return AutomationSettings{Enabled: true, Notifications: true}
}

// State is the canonical task list plus every view derived from it.
// States are values; slices inside them are never modified after construction.
type State struct {
	Tasks  []entity.Task     `json:"tasks"`
	Filter entity.TaskFilter `json:"filter"`

	// Derived views
	FilteredTasks []entity.Task       `json:"filtered_tasks"`
	Groups        []entity.TaskGroup  `json:"groups"`
	Analytics     entity.Analytics    `json:"analytics"`
	Suggestions   []entity.Suggestion `json:"suggestions"`

	Loading    bool                       `json:"loading"`
	Error      string                     `json:"error,omitempty"`
	Scoring    prioritizer.ScoringContext `json:"-"`
	Automation AutomationSettings         `json:"automation"`
}

// Task returns the task with id
func (s State) Task(id string) (entity.Task, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Tasks[i], true
	}
	return entity.Task{}, false
}

func (s State) indexOf(id string) int {
	for i := range s.Tasks {
		if s.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// StatusChange describes one status transition produced by an action
type StatusChange struct {
	TaskID     string
	Member     string
	Assignee   string
	HealthPlan entity.HealthPlan
	From       string
	To         string
	WasOverdue bool
}

// Outcome reports what an action did beyond the new state
type Outcome struct {
	Changes []StatusChange

	// Advance is set for AUTO_ADVANCE_WORKFLOW
	Advance *workflow.AdvanceResult
}
