package taskstate

import (
	"fmt"
	"time"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/processor"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// Reducer computes state transitions. It holds no state of its own.
type Reducer struct {
	processor processor.Processor
	engine    workflow.Engine
	hub       prioritizer.Hub
}

// NewReducer creates a reducer over the task processor, workflow engine and smart hub
func NewReducer(p processor.Processor, engine workflow.Engine, hub prioritizer.Hub) *Reducer {
	return &Reducer{processor: p, engine: engine, hub: hub}
}

// Initial returns an empty state with its views computed
func (r *Reducer) Initial(settings AutomationSettings) State {
	return r.views(State{Tasks: []entity.Task{}, Automation: settings})
}

// Reduce applies action to state and returns the new state. The input state is not
// modified. On error the input state is returned unchanged.
func (r *Reducer) Reduce(state State, action Action) (State, Outcome, error) {
	next := state
	var out Outcome

	switch action.Type {
	case ActionSetTasks:
		next.Tasks = r.refreshAll(next, action.Tasks)
		next.Loading = false
		next.Error = ""

	case ActionUpdateTask:
		if state.indexOf(action.TaskID) < 0 {
			return state, Outcome{}, fmt.Errorf("%w: %s", ErrTaskNotFound, action.TaskID)
		}
		next.Tasks, out.Changes = r.apply(next, []string{action.TaskID}, action.Update, action.At)

	case ActionSetFilter:
		next.Filter = action.Filter

	case ActionBulkUpdateTasks:
		next.Tasks, out.Changes = r.apply(next, action.TaskIDs, action.Update, action.At)

	case ActionAutoAdvanceWorkflow:
		i := state.indexOf(action.TaskID)
		if i < 0 {
			return state, Outcome{}, fmt.Errorf("%w: %s", ErrTaskNotFound, action.TaskID)
		}
		task := state.Tasks[i]
		satisfied := mergeConditions(action.Satisfied, state.Automation.Conditions[task.ID])
		result := r.engine.AutoAdvanceTask(&task, satisfied)
		out.Advance = &result
		if !result.Success {
			return state, out, nil
		}
		update := entity.TaskUpdate{CurrentStatus: &result.NewStatus, DueDate: result.DueDate}
		next.Tasks, out.Changes = r.apply(next, []string{task.ID}, update, action.At)

	case ActionSetLoading:
		next.Loading = action.Loading

	case ActionSetError:
		next.Error = action.Error
		next.Loading = false

	case ActionSetScoringContext:
		next.Scoring = action.Scoring
		next.Tasks = r.refreshAll(next, next.Tasks)

	case ActionSetAutomation:
		next.Automation = action.Automation
		next.Tasks = r.refreshAll(next, next.Tasks)

	default:
		return state, Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	return r.views(next), out, nil
}

// views recomputes filter, groups, analytics and suggestions from the canonical list
func (r *Reducer) views(s State) State {
	filtered := r.processor.FilterTasks(s.Tasks, s.Filter)
	s.FilteredTasks = r.hub.PrioritizeTasks(filtered, s.Scoring)
	s.Groups = r.hub.GroupTasksIntelligently(s.FilteredTasks)
	s.Analytics = r.hub.GenerateAnalytics(s.Tasks)
	s.Suggestions = r.hub.GetSmartSuggestions(s.FilteredTasks)
	return s
}

func (r *Reducer) processorFor(s State) processor.Processor {
	return r.processor.WithContext(processor.Context{
		Scoring:    s.Scoring,
		Conditions: s.Automation.Conditions,
	})
}

func (r *Reducer) refreshAll(s State, tasks []entity.Task) []entity.Task {
	p := r.processorFor(s)
	out := make([]entity.Task, len(tasks))
	for i, t := range tasks {
		out[i] = p.Refresh(t)
	}
	return out
}

// apply runs update through the processor so derived fields are recomputed
func (r *Reducer) apply(s State, ids []string, update entity.TaskUpdate, at time.Time) ([]entity.Task, []StatusChange) {
	if update.TouchesStatus() && update.LastUpdated == nil && !at.IsZero() {
		update.LastUpdated = &at
	}

	updated := r.processorFor(s).BulkUpdateTasks(s.Tasks, update, ids)

	var changes []StatusChange
	for i := range updated {
		before, after := &s.Tasks[i], &updated[i]
		if before.CurrentStatus == after.CurrentStatus {
			continue
		}
		changes = append(changes, StatusChange{
			TaskID:     after.ID,
			Member:     after.MemberName(),
			Assignee:   after.AssignedTo,
			HealthPlan: after.HealthPlan,
			From:       before.CurrentStatus,
			To:         after.CurrentStatus,
			WasOverdue: before.HasDueDate && before.IsOverdue,
		})
	}
	return updated, changes
}

func mergeConditions(sets ...domainwf.ConditionSet) domainwf.ConditionSet {
	merged := domainwf.ConditionSet{}
	for _, set := range sets {
		for name := range set {
			merged[name] = struct{}{}
		}
	}
	return merged
}
