package workflow

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	definitions []domainwf.Definition
	byPlan      map[entity.HealthPlan]int
	builders    map[entity.HealthPlan]domainwf.StateMachineBuilder
	catalog     *domainwf.Catalog
	rules       []domainwf.AutomationRule
	clock       clock.Clock
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithClock sets the clock used for "today" defaults and rule evaluation
func WithClock(c clock.Clock) EngineOption {
	return func(e *engineImpl) {
		e.clock = clock.OrReal(c)
	}
}

// WithRules replaces the automation rules
func WithRules(rules []domainwf.AutomationRule) EngineOption {
	return func(e *engineImpl) {
		e.rules = append([]domainwf.AutomationRule(nil), rules...)
	}
}

// NewEngine validates and compiles the definitions. Built-in rules apply unless WithRules is given.
func NewEngine(definitions []domainwf.Definition, opts ...EngineOption) (Engine, error) {
	e := &engineImpl{
		definitions: make([]domainwf.Definition, 0, len(definitions)),
		byPlan:      make(map[entity.HealthPlan]int, len(definitions)),
		builders:    make(map[entity.HealthPlan]domainwf.StateMachineBuilder, len(definitions)),
		rules:       domainwf.DefaultRules(),
		clock:       clock.RealClock{},
	}

	for _, def := range definitions {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := e.byPlan[def.HealthPlan]; dup {
			return nil, fmt.Errorf("%w: duplicate workflow for %s", domainwf.ErrInvalidDefinition, def.HealthPlan)
		}
		e.byPlan[def.HealthPlan] = len(e.definitions)
		e.definitions = append(e.definitions, def)
		e.builders[def.HealthPlan] = def.Compile()
	}
	e.catalog = domainwf.NewCatalog(e.definitions)

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// NewDefaultEngine builds an engine over the built-in definitions and rules
func NewDefaultEngine(opts ...EngineOption) Engine {
	e, err := NewEngine(domainwf.DefaultDefinitions(), opts...)
	if err != nil {
		panic(fmt.Sprintf("built-in workflow definitions are invalid: %v", err))
	}
	return e
}

func (e *engineImpl) GetWorkflow(plan entity.HealthPlan) (*domainwf.Definition, bool) {
	idx, ok := e.byPlan[plan]
	if !ok {
		return nil, false
	}
	return &e.definitions[idx], true
}

func (e *engineImpl) Workflows() []domainwf.Definition {
	return append([]domainwf.Definition(nil), e.definitions...)
}

func (e *engineImpl) Profile(plan entity.HealthPlan, status string) domainwf.StatusProfile {
	return e.catalog.Profile(plan, status)
}

func (e *engineImpl) step(plan entity.HealthPlan, status string) (*domainwf.Definition, *domainwf.Step, int, bool) {
	def, ok := e.GetWorkflow(plan)
	if !ok {
		return nil, nil, -1, false
	}
	step, idx, ok := def.Step(status)
	if !ok {
		return def, nil, -1, false
	}
	return def, step, idx, true
}

func (e *engineImpl) GetNextStatus(plan entity.HealthPlan, status string) (string, bool) {
	_, step, _, ok := e.step(plan, status)
	if !ok || step.IsTerminal() {
		return "", false
	}
	return step.NextStatus, true
}

func (e *engineImpl) GetRecommendedDueDate(plan entity.HealthPlan, status string, from time.Time) time.Time {
	if from.IsZero() {
		from = e.clock.Now()
	}

	days := domainwf.DefaultRecommendedDays
	if _, step, _, ok := e.step(plan, status); ok {
		days = step.RecommendedDays
	}
	return utils.AddBusinessDays(from, days)
}

// machine builds a state machine positioned at status, or false when the plan or status is unknown
func (e *engineImpl) machine(plan entity.HealthPlan, status string) (domainwf.StateMachine, bool) {
	builder, ok := e.builders[plan]
	if !ok || !domainwf.State(status).IsValid() {
		return nil, false
	}
	if _, _, _, known := e.step(plan, status); !known {
		return nil, false
	}
	return builder.Build(domainwf.State(status)), true
}

func (e *engineImpl) CanAutoAdvance(task *entity.Task, satisfied domainwf.ConditionSet) bool {
	if task == nil {
		return false
	}
	m, ok := e.machine(task.HealthPlan, task.CurrentStatus)
	if !ok {
		return false
	}
	ctx := domainwf.WithConditions(context.Background(), satisfied)
	_, err := m.Evaluate(ctx, domainwf.TriggerAutoAdvance)
	return err == nil
}

func (e *engineImpl) AutoAdvanceTask(task *entity.Task, satisfied domainwf.ConditionSet) AdvanceResult {
	if task == nil {
		return AdvanceResult{Message: "No task to advance"}
	}

	def, step, _, ok := e.step(task.HealthPlan, task.CurrentStatus)
	switch {
	case def == nil:
		return AdvanceResult{Message: fmt.Sprintf("No workflow defined for health plan %q", task.HealthPlan)}
	case !ok:
		return AdvanceResult{Message: fmt.Sprintf("Status %q is not part of the %s workflow", task.CurrentStatus, task.HealthPlan)}
	case step.IsTerminal():
		if def.IsCompletion(step.Status) {
			return AdvanceResult{Message: fmt.Sprintf("Task is already complete (%s)", step.Status)}
		}
		return AdvanceResult{Message: fmt.Sprintf("No next status defined after %q", step.Status)}
	case len(step.AutoAdvanceConditions) == 0:
		return AdvanceResult{Message: fmt.Sprintf("Status %q requires manual action to advance", step.Status)}
	}

	if !e.CanAutoAdvance(task, satisfied) {
		return AdvanceResult{Message: fmt.Sprintf("Auto-advance conditions not met: missing %s", strings.Join(missing(step.AutoAdvanceConditions, satisfied), ", "))}
	}

	due := e.GetRecommendedDueDate(task.HealthPlan, step.NextStatus, time.Time{})
	return AdvanceResult{
		Success:   true,
		NewStatus: step.NextStatus,
		DueDate:   &due,
		Message:   fmt.Sprintf("Advanced from %q to %q", step.Status, step.NextStatus),
	}
}

func missing(required []string, satisfied domainwf.ConditionSet) []string {
	out := make([]string, 0, len(required))
	for _, r := range required {
		if !satisfied.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (e *engineImpl) ProcessAutomationRules(task *entity.Task, satisfied domainwf.ConditionSet) []domainwf.AutomationRule {
	if task == nil {
		return nil
	}
	now := e.clock.Now()

	var matched []domainwf.AutomationRule
	for i := range e.rules {
		if e.rules[i].Matches(task, now, satisfied) {
			matched = append(matched, e.rules[i])
		}
	}
	return matched
}

func (e *engineImpl) Rules() []domainwf.AutomationRule {
	return append([]domainwf.AutomationRule(nil), e.rules...)
}

func (e *engineImpl) GetWorkflowProgress(plan entity.HealthPlan, status string) int {
	def, _, idx, ok := e.step(plan, status)
	if !ok {
		return 0
	}
	return int(math.Round(float64(idx+1) / float64(len(def.Steps)) * 100))
}

func (e *engineImpl) IsValidTransition(plan entity.HealthPlan, from, to string) bool {
	m, ok := e.machine(plan, from)
	if !ok {
		return false
	}
	return m.CanTransitionTo(domainwf.State(to))
}

func (e *engineImpl) IsCompletion(plan entity.HealthPlan, status string) bool {
	def, ok := e.GetWorkflow(plan)
	if !ok {
		return false
	}
	return def.IsCompletion(status)
}

var _ Engine = (*engineImpl)(nil)
