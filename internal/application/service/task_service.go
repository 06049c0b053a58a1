package service

import (
	"context"
	"fmt"

	"github.com/garyjia/calaim-taskhub/internal/application/port"
	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/processor"
	"github.com/garyjia/calaim-taskhub/internal/application/taskstate"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// TaskService loads case records into the task store and applies staff edits.
// Successful edits are persisted as overlays plus status history.
type TaskService interface {
	// Load fetches case records, normalizes them, layers saved edits on top and
	// replaces the task list. On failure the previous list is kept.
	Load(ctx context.Context) error

	// State returns the current task state
	State() taskstate.State

	// Tasks returns every task, most urgent first
	Tasks() []entity.Task

	// Task returns one task
	Task(id string) (entity.Task, error)

	// SetFilter replaces the active filter and returns the filtered view
	SetFilter(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error)

	// Query filters, searches and narrows to a user without touching the active filter
	Query(q TaskQuery) []entity.Task

	// Search matches term against member names, MRN and client id
	Search(term string) []entity.Task

	// ForUser returns the tasks assigned to a user
	ForUser(email, displayName string) []entity.Task

	// Group buckets tasks by dimension
	Group(dimension processor.Dimension) map[string][]entity.Task

	// UpdateTask applies update to one task
	UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (entity.Task, error)

	// ApplyRuleUpdate applies an update produced by an automation rule
	ApplyRuleUpdate(ctx context.Context, id string, update entity.TaskUpdate) (entity.Task, error)

	// BulkUpdate applies update to every listed task and returns how many matched
	BulkUpdate(ctx context.Context, ids []string, update entity.TaskUpdate) (int, error)

	// AutoAdvance moves a task to its next status when its conditions hold
	AutoAdvance(ctx context.Context, id string, satisfied []string) (workflow.AdvanceResult, error)

	// Rules returns the automation rules currently matching a task
	Rules(id string) ([]domainwf.AutomationRule, error)

	// RecommendAssignment picks the least-loaded candidate for a task
	RecommendAssignment(id string, candidates []string) (entity.AssignmentRecommendation, bool, error)

	// RefreshScoring recomputes workload and historical delays and re-scores every task
	RefreshScoring(ctx context.Context) error

	// SetAutomation replaces the automation switches, keeping derived conditions
	SetAutomation(ctx context.Context, enabled, notifications bool) error

	// Workflow returns the definition of a health plan
	Workflow(plan entity.HealthPlan) (*domainwf.Definition, bool)
}

// TaskQuery combines the read-side selectors of the task list
type TaskQuery struct {
	Filter      entity.TaskFilter
	Term        string
	UserEmail   string
	DisplayName string
}

type taskServiceImpl struct {
	store     taskstate.Store
	processor processor.Processor
	engine    workflow.Engine
	hub       prioritizer.Hub
	source    port.CaseRecordSource
	overlays  port.TaskOverlayRepository
	history   port.StatusHistoryRepository
	txManager port.TransactionManager
	clock     clock.Clock
	logger    Logger
}

// TaskServiceOption configures the task service
type TaskServiceOption func(*taskServiceImpl)

// WithPersistence saves edits and status history through the given repositories
func WithPersistence(txManager port.TransactionManager, overlays port.TaskOverlayRepository, history port.StatusHistoryRepository) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.txManager = txManager
		s.overlays = overlays
		s.history = history
	}
}

// WithServiceClock sets the clock used to stamp edits
func WithServiceClock(c clock.Clock) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.clock = clock.OrReal(c)
	}
}

// NewTaskService creates a new TaskService
func NewTaskService(
	store taskstate.Store,
	p processor.Processor,
	engine workflow.Engine,
	hub prioritizer.Hub,
	source port.CaseRecordSource,
	logger Logger,
	opts ...TaskServiceOption,
) TaskService {
	s := &taskServiceImpl{
		store:     store,
		processor: p,
		engine:    engine,
		hub:       hub,
		source:    source,
		clock:     clock.RealClock{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *taskServiceImpl) Load(ctx context.Context) error {
	if err := s.store.Load(ctx, s.fetch); err != nil {
		s.logger.Error("Failed to load tasks", "error", err)
		return err
	}

	state := s.store.State()
	settings := state.Automation
	settings.Conditions = DeriveAllConditions(state.Tasks)
	if _, _, err := s.store.Dispatch(ctx, taskstate.SetAutomation(settings)); err != nil {
		return fmt.Errorf("set automation conditions: %w", err)
	}
	if err := s.RefreshScoring(ctx); err != nil {
		return err
	}

	s.logger.Info("Tasks loaded",
		"count", len(state.Tasks),
		"with_conditions", len(settings.Conditions))
	return nil
}

// fetch reads the source and applies saved overlays newer than each record
func (s *taskServiceImpl) fetch(ctx context.Context) ([]entity.Task, error) {
	records, err := s.source.FetchCaseRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	tasks := s.processor.ProcessTasks(records, processor.Options{WorkflowAnalysis: true})
	if s.overlays == nil {
		return tasks, nil
	}

	overlays, err := s.overlays.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list task overlays: %w", err)
	}

	index := make(map[string]int, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = i
	}
	applied := 0
	for _, o := range overlays {
		i, ok := index[o.TaskID]
		if !ok || !o.UpdatedAt.After(tasks[i].LastUpdated) {
			continue
		}
		tasks = s.processor.BulkUpdateTasks(tasks, o.Update, []string{o.TaskID})
		applied++
	}
	if applied > 0 {
		s.logger.Info("Applied saved task edits", "count", applied)
	}
	return tasks, nil
}

func (s *taskServiceImpl) State() taskstate.State {
	return s.store.State()
}

func (s *taskServiceImpl) Tasks() []entity.Task {
	state := s.store.State()
	return s.hub.PrioritizeTasks(state.Tasks, state.Scoring)
}

func (s *taskServiceImpl) Task(id string) (entity.Task, error) {
	task, ok := s.store.State().Task(id)
	if !ok {
		return entity.Task{}, fmt.Errorf("%w: %s", taskstate.ErrTaskNotFound, id)
	}
	return task, nil
}

func (s *taskServiceImpl) SetFilter(ctx context.Context, filter entity.TaskFilter) ([]entity.Task, error) {
	state, _, err := s.store.Dispatch(ctx, taskstate.SetFilter(filter))
	if err != nil {
		return nil, err
	}
	return state.FilteredTasks, nil
}

func (s *taskServiceImpl) Query(q TaskQuery) []entity.Task {
	state := s.store.State()
	tasks := s.processor.FilterTasks(state.Tasks, q.Filter)
	if q.UserEmail != "" || q.DisplayName != "" {
		tasks = s.processor.GetTasksForUser(tasks, q.UserEmail, q.DisplayName)
	}
	if q.Term != "" {
		tasks = s.processor.SearchTasks(tasks, q.Term)
	}
	return s.hub.PrioritizeTasks(tasks, state.Scoring)
}

func (s *taskServiceImpl) Search(term string) []entity.Task {
	return s.Query(TaskQuery{Term: term})
}

func (s *taskServiceImpl) ForUser(email, displayName string) []entity.Task {
	return s.Query(TaskQuery{UserEmail: email, DisplayName: displayName})
}

func (s *taskServiceImpl) Group(dimension processor.Dimension) map[string][]entity.Task {
	return s.processor.GroupTasks(s.store.State().Tasks, dimension)
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, id string, update entity.TaskUpdate) (entity.Task, error) {
	if err := s.checkTransition(id, update); err != nil {
		return entity.Task{}, err
	}
	return s.updateTask(ctx, id, update, entity.HistorySourceManual)
}

// checkTransition rejects manual moves between two steps of a plan's workflow that the
// workflow does not permit. Statuses outside the workflow stay free-form.
func (s *taskServiceImpl) checkTransition(id string, update entity.TaskUpdate) error {
	if update.CurrentStatus == nil || update.OffWorkflow {
		return nil
	}
	task, ok := s.store.State().Task(id)
	if !ok {
		return nil
	}
	from, to := task.CurrentStatus, *update.CurrentStatus
	if from == to {
		return nil
	}
	def, ok := s.engine.GetWorkflow(task.HealthPlan)
	if !ok {
		return nil
	}
	if _, _, known := def.Step(from); !known {
		return nil
	}
	if s.engine.IsValidTransition(task.HealthPlan, from, to) {
		return nil
	}
	return fmt.Errorf("%w: %q -> %q", ErrInvalidTransition, from, to)
}

func (s *taskServiceImpl) ApplyRuleUpdate(ctx context.Context, id string, update entity.TaskUpdate) (entity.Task, error) {
	return s.updateTask(ctx, id, update, entity.HistorySourceRule)
}

func (s *taskServiceImpl) updateTask(ctx context.Context, id string, update entity.TaskUpdate, source string) (entity.Task, error) {
	update = s.stamp(update)
	state, outcome, err := s.store.Dispatch(ctx, taskstate.UpdateTask(id, update))
	if err != nil {
		return entity.Task{}, err
	}

	if err := s.persist(ctx, []string{id}, update, outcome.Changes, source); err != nil {
		return entity.Task{}, err
	}

	task, _ := state.Task(id)
	s.logger.Info("Task updated",
		"task_id", id,
		"source", source,
		"status", task.CurrentStatus,
		"status_changed", len(outcome.Changes) > 0)
	return task, nil
}

func (s *taskServiceImpl) BulkUpdate(ctx context.Context, ids []string, update entity.TaskUpdate) (int, error) {
	before := s.store.State()
	matched := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := before.Task(id); ok {
			matched = append(matched, id)
		}
	}

	update = s.stamp(update)
	_, outcome, err := s.store.Dispatch(ctx, taskstate.BulkUpdateTasks(ids, update))
	if err != nil {
		return 0, err
	}

	if err := s.persist(ctx, matched, update, outcome.Changes, entity.HistorySourceBulk); err != nil {
		return 0, err
	}

	s.logger.Info("Tasks bulk updated",
		"requested", len(ids),
		"matched", len(matched),
		"status_changes", len(outcome.Changes))
	return len(matched), nil
}

func (s *taskServiceImpl) AutoAdvance(ctx context.Context, id string, satisfied []string) (workflow.AdvanceResult, error) {
	state, outcome, err := s.store.Dispatch(ctx, taskstate.AutoAdvanceWorkflow(id, domainwf.NewConditionSet(satisfied...)))
	if err != nil {
		return workflow.AdvanceResult{}, err
	}
	if outcome.Advance == nil || !outcome.Advance.Success {
		var result workflow.AdvanceResult
		if outcome.Advance != nil {
			result = *outcome.Advance
		}
		return result, nil
	}

	result := *outcome.Advance
	task, _ := state.Task(id)
	update := entity.TaskUpdate{CurrentStatus: &result.NewStatus, DueDate: result.DueDate, LastUpdated: &task.LastUpdated}
	if err := s.persist(ctx, []string{id}, update, outcome.Changes, entity.HistorySourceAutoAdvance); err != nil {
		return result, err
	}

	s.logger.Info("Task auto-advanced",
		"task_id", id,
		"new_status", result.NewStatus)
	return result, nil
}

func (s *taskServiceImpl) Rules(id string) ([]domainwf.AutomationRule, error) {
	state := s.store.State()
	task, ok := state.Task(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", taskstate.ErrTaskNotFound, id)
	}
	return s.engine.ProcessAutomationRules(&task, state.Automation.Conditions[id]), nil
}

func (s *taskServiceImpl) RecommendAssignment(id string, candidates []string) (entity.AssignmentRecommendation, bool, error) {
	state := s.store.State()
	task, ok := state.Task(id)
	if !ok {
		return entity.AssignmentRecommendation{}, false, fmt.Errorf("%w: %s", taskstate.ErrTaskNotFound, id)
	}
	rec, ok := s.hub.RecommendTaskAssignment(&task, candidates, prioritizer.WorkloadFromTasks(state.Tasks))
	return rec, ok, nil
}

func (s *taskServiceImpl) RefreshScoring(ctx context.Context) error {
	state := s.store.State()
	scoring := prioritizer.ScoringContext{
		Workload:            prioritizer.WorkloadFromTasks(state.Tasks),
		ComplexityOverrides: state.Scoring.ComplexityOverrides,
		HistoricalDelays:    state.Scoring.HistoricalDelays,
	}

	if s.history != nil {
		delays, err := s.history.DelayCounts(ctx)
		if err != nil {
			s.logger.Error("Failed to read historical delays", "error", err)
			return fmt.Errorf("read historical delays: %w", err)
		}
		scoring.HistoricalDelays = delays
	}

	if _, _, err := s.store.Dispatch(ctx, taskstate.SetScoringContext(scoring)); err != nil {
		return fmt.Errorf("set scoring context: %w", err)
	}
	return nil
}

func (s *taskServiceImpl) SetAutomation(ctx context.Context, enabled, notifications bool) error {
	settings := s.store.State().Automation
	settings.Enabled = enabled
	settings.Notifications = notifications
	_, _, err := s.store.Dispatch(ctx, taskstate.SetAutomation(settings))
	return err
}

func (s *taskServiceImpl) Workflow(plan entity.HealthPlan) (*domainwf.Definition, bool) {
	return s.engine.GetWorkflow(plan)
}

// stamp sets LastUpdated on status edits so the saved overlay carries it
func (s *taskServiceImpl) stamp(update entity.TaskUpdate) entity.TaskUpdate {
	if update.TouchesStatus() && update.LastUpdated == nil {
		now := s.clock.Now()
		update.LastUpdated = &now
	}
	return update
}

// persist saves the overlay of every edited task and the status history in one transaction
func (s *taskServiceImpl) persist(ctx context.Context, ids []string, update entity.TaskUpdate, changes []taskstate.StatusChange, source string) error {
	if s.txManager == nil || len(ids) == 0 {
		return nil
	}

	now := s.clock.Now()
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if s.overlays != nil {
			for _, id := range ids {
				overlay := entity.TaskOverlay{TaskID: id, Update: update, UpdatedAt: now}
				if err := s.overlays.Save(ctx, overlay); err != nil {
					return fmt.Errorf("save overlay for %s: %w", id, err)
				}
			}
		}
		if s.history != nil {
			for _, c := range changes {
				h := &entity.StatusHistory{
					TaskID:     c.TaskID,
					HealthPlan: c.HealthPlan,
					FromStatus: c.From,
					ToStatus:   c.To,
					WasOverdue: c.WasOverdue,
					Source:     source,
					ChangedAt:  now,
				}
				if err := s.history.Record(ctx, h); err != nil {
					return fmt.Errorf("record status history for %s: %w", c.TaskID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to persist task edits",
			"error", err,
			"task_count", len(ids),
			"source", source)
		return fmt.Errorf("persist task edits: %w", err)
	}
	return nil
}

// satisfiedFor returns the derived conditions of a task merged with extra names
func satisfiedFor(state taskstate.State, id string, extra []string) domainwf.ConditionSet {
	set := domainwf.NewConditionSet(extra...)
	for name := range state.Automation.Conditions[id] {
		set[name] = struct{}{}
	}
	return set
}
