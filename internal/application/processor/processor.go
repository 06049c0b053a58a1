package processor

import (
	"strings"
	"time"

	"github.com/garyjia/calaim-taskhub/internal/application/prioritizer"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// Options controls the optional passes of ProcessTasks
type Options struct {
	// WorkflowAnalysis annotates next status, auto-advance readiness and progress
	WorkflowAnalysis bool

	// Prioritize re-scores and sorts the result most urgent first
	Prioritize bool
}

// Context carries the external signals used while deriving task fields
type Context struct {
	Scoring prioritizer.ScoringContext

	// Conditions maps task id to its externally satisfied auto-advance conditions
	Conditions map[string]domainwf.ConditionSet
}

// Dimension selects how GroupTasks buckets tasks
type Dimension string

const (
	ByStatus   Dimension = "status"
	ByAssignee Dimension = "assignee"
	ByPlan     Dimension = "plan"
	ByPriority Dimension = "priority"
	ByUrgency  Dimension = "urgency"
)

// Processor normalizes raw case records into tasks and operates on task collections.
// Every method returns new slices; inputs are never modified.
type Processor interface {
	// ProcessRawTaskData maps one source record onto the unified task model
	ProcessRawTaskData(record entity.RawRecord) entity.Task

	// ProcessTasks maps every record, then applies the optional passes
	ProcessTasks(records []entity.RawRecord, opts Options) []entity.Task

	// Refresh recomputes every derived field of task
	Refresh(task entity.Task) entity.Task

	// FilterTasks keeps tasks matching every set dimension of filter
	FilterTasks(tasks []entity.Task, filter entity.TaskFilter) []entity.Task

	// GetTasksForUser returns tasks assigned to the user by email, display name or email local part
	GetTasksForUser(tasks []entity.Task, email, displayName string) []entity.Task

	// GroupTasks buckets tasks by dimension
	GroupTasks(tasks []entity.Task, dimension Dimension) map[string][]entity.Task

	// BulkUpdateTasks applies update to every task whose id is in ids
	BulkUpdateTasks(tasks []entity.Task, update entity.TaskUpdate, ids []string) []entity.Task

	// SearchTasks matches term against member names, MRN and client id
	SearchTasks(tasks []entity.Task, term string) []entity.Task

	// WithContext returns a processor that derives fields using ctx
	WithContext(ctx Context) Processor

	// Context returns the derivation context
	Context() Context
}

// processorImpl is the concrete implementation of Processor
type processorImpl struct {
	engine workflow.Engine
	hub    prioritizer.Hub
	clock  clock.Clock
	ctx    Context
}

// Option configures the processor
type Option func(*processorImpl)

// WithClock sets the clock used for date-derived fields
func WithClock(c clock.Clock) Option {
	return func(p *processorImpl) {
		p.clock = clock.OrReal(c)
	}
}

// NewProcessor creates a processor over the workflow engine and the smart hub
func NewProcessor(engine workflow.Engine, hub prioritizer.Hub, opts ...Option) Processor {
	p := &processorImpl{
		engine: engine,
		hub:    hub,
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *processorImpl) WithContext(ctx Context) Processor {
	clone := *p
	clone.ctx = ctx
	return &clone
}

func (p *processorImpl) Context() Context {
	return p.ctx
}

func (p *processorImpl) ProcessTasks(records []entity.RawRecord, opts Options) []entity.Task {
	now := p.clock.Now()
	tasks := make([]entity.Task, 0, len(records))
	for _, r := range records {
		task := p.fromRecord(r, now)
		p.derive(&task, now, opts.WorkflowAnalysis)
		tasks = append(tasks, task)
	}

	// workflow annotation must precede prioritization
	if opts.Prioritize {
		tasks = p.hub.PrioritizeTasks(tasks, p.ctx.Scoring)
	}
	return tasks
}

func (p *processorImpl) ProcessRawTaskData(record entity.RawRecord) entity.Task {
	now := p.clock.Now()
	task := p.fromRecord(record, now)
	p.derive(&task, now, true)
	return task
}

func (p *processorImpl) Refresh(task entity.Task) entity.Task {
	p.derive(&task, p.clock.Now(), true)
	return task
}

// derive recomputes every derived field from the stored ones
func (p *processorImpl) derive(task *entity.Task, now time.Time, analysis bool) {
	var due time.Time
	if task.DueDate != nil {
		due = *task.DueDate
	}
	dates := utils.CalculateTaskDatesFor(due, now)
	task.DaysUntilDue = dates.DaysUntilDue
	task.IsOverdue = dates.IsOverdue
	task.HasDueDate = dates.HasDueDate
	if dates.HasDueDate || task.DueDescription != invalidDateDescription {
		task.DueDescription = dates.RelativeDescription
	}

	profile := p.engine.Profile(task.HealthPlan, task.CurrentStatus)
	task.NextAction = profile.NextAction
	task.EstimatedCompletionDays = profile.EstimatedDays
	task.TaskStatus = p.taskStatus(task, dates)

	task.NextStatus, task.CanAutoAdvance, task.WorkflowProgress = "", false, 0
	if analysis {
		task.NextStatus, _ = p.engine.GetNextStatus(task.HealthPlan, task.CurrentStatus)
		task.CanAutoAdvance = p.engine.CanAutoAdvance(task, p.ctx.Conditions[task.ID])
		task.WorkflowProgress = p.engine.GetWorkflowProgress(task.HealthPlan, task.CurrentStatus)
	}

	task.PriorityScore = p.hub.CalculatePriorityScore(task, p.ctx.Scoring)
	task.Priority = p.hub.GetPriorityLevel(task.PriorityScore)
}

// taskStatus classifies lifecycle first, then urgency. Plans with a workflow complete only
// at their completion states; other plans fall back to the status naming a completion.
func (p *processorImpl) taskStatus(task *entity.Task, dates utils.TaskDates) entity.TaskStatus {
	_, hasWorkflow := p.engine.GetWorkflow(task.HealthPlan)
	switch {
	case hasWorkflow && p.engine.IsCompletion(task.HealthPlan, task.CurrentStatus):
		return entity.TaskStatusCompleted
	case !hasWorkflow && strings.Contains(task.CurrentStatus, "Complete"):
		return entity.TaskStatusCompleted
	case strings.Contains(strings.ToLower(task.CurrentStatus), "hold"):
		return entity.TaskStatusOnHold
	case !dates.HasDueDate:
		return entity.TaskStatusFuture
	case dates.IsOverdue:
		return entity.TaskStatusOverdue
	case dates.IsToday:
		return entity.TaskStatusDueToday
	case dates.IsDueSoon:
		return entity.TaskStatusDueSoon
	default:
		return entity.TaskStatusFuture
	}
}

func (p *processorImpl) BulkUpdateTasks(tasks []entity.Task, update entity.TaskUpdate, ids []string) []entity.Task {
	targets := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		targets[id] = struct{}{}
	}

	now := p.clock.Now()
	out := make([]entity.Task, len(tasks))
	for i, t := range tasks {
		if _, ok := targets[t.ID]; ok {
			update.ApplyStored(&t)
			if update.TouchesDueDate() {
				t.DueDescription = ""
			}
			p.derive(&t, now, true)
		}
		out[i] = t
	}
	return out
}

var _ Processor = (*processorImpl)(nil)
