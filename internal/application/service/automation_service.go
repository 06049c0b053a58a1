package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/calaim-taskhub/internal/application/taskstate"
	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/internal/domain/event"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// RuleHit records one rule matching one task during a run
type RuleHit struct {
	TaskID    string `json:"task_id"`
	RuleID    string `json:"rule_id"`
	RuleName  string `json:"rule_name"`
	NewStatus string `json:"new_status,omitempty"`
	Notified  bool   `json:"notified"`
	Error     string `json:"error,omitempty"`
}

// AutomationReport summarizes an automation run
type AutomationReport struct {
	Evaluated int       `json:"evaluated"`
	Updated   int       `json:"updated"`
	Notified  int       `json:"notified"`
	Hits      []RuleHit `json:"hits"`
}

// AutomationService evaluates automation rules against the current task list
type AutomationService interface {
	// Run evaluates every rule for every open task and applies the matching actions.
	// satisfied adds externally known conditions per task id.
	Run(ctx context.Context, satisfied map[string][]string) (*AutomationReport, error)
}

type automationServiceImpl struct {
	tasks     TaskService
	engine    workflow.Engine
	publisher taskstate.Publisher
	clock     clock.Clock
	logger    Logger
}

// NewAutomationService creates a new AutomationService
func NewAutomationService(tasks TaskService, engine workflow.Engine, publisher taskstate.Publisher, c clock.Clock, logger Logger) AutomationService {
	return &automationServiceImpl{
		tasks:     tasks,
		engine:    engine,
		publisher: publisher,
		clock:     clock.OrReal(c),
		logger:    logger,
	}
}

func (s *automationServiceImpl) Run(ctx context.Context, satisfied map[string][]string) (*AutomationReport, error) {
	state := s.tasks.State()
	if !state.Automation.Enabled {
		return nil, ErrAutomationDisabled
	}

	now := s.clock.Now()
	report := &AutomationReport{Hits: []RuleHit{}}

	for _, task := range state.Tasks {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if task.IsCompleted() {
			continue
		}
		report.Evaluated++

		conditions := satisfiedFor(state, task.ID, satisfied[task.ID])
		rules := s.engine.ProcessAutomationRules(&task, conditions)
		if len(rules) == 0 {
			continue
		}

		update, hits := s.plan(&task, rules, now)
		current := task
		if !update.IsEmpty() {
			if updated, err := s.tasks.ApplyRuleUpdate(ctx, task.ID, update); err != nil {
				s.logger.Error("Failed to apply automation rules",
					"error", err,
					"task_id", task.ID)
				for i := range hits {
					hits[i].Error = err.Error()
				}
			} else {
				current = updated
				report.Updated++
			}
		}

		for i, rule := range rules {
			if rule.Actions.Notify && hits[i].Error == "" {
				s.publishTriggered(ctx, &current, rule, state.Automation.Notifications)
				hits[i].Notified = true
				report.Notified++
			}
		}
		report.Hits = append(report.Hits, hits...)
	}

	s.logger.Info("Automation run completed",
		"evaluated", report.Evaluated,
		"hits", len(report.Hits),
		"updated", report.Updated,
		"notified", report.Notified)
	return report, nil
}

// plan folds the actions of every matching rule into one update. Later rules win on
// status and due date; notes accumulate and are never duplicated.
func (s *automationServiceImpl) plan(task *entity.Task, rules []domainwf.AutomationRule, now time.Time) (entity.TaskUpdate, []RuleHit) {
	var update entity.TaskUpdate
	notes := task.Notes
	hits := make([]RuleHit, 0, len(rules))

	for _, rule := range rules {
		hit := RuleHit{TaskID: task.ID, RuleID: rule.ID, RuleName: rule.Name}
		a := rule.Actions

		if a.NewStatus != "" && a.NewStatus != task.CurrentStatus {
			status := a.NewStatus
			due := s.engine.GetRecommendedDueDate(task.HealthPlan, status, now)
			update.CurrentStatus = &status
			update.DueDate = &due
			hit.NewStatus = status
		}
		if a.ScheduleReminderDays > 0 {
			due := utils.AddBusinessDays(now, a.ScheduleReminderDays)
			update.DueDate = &due
		}
		if a.AddNote != "" && !strings.Contains(notes, a.AddNote) {
			if notes != "" {
				notes += "\n"
			}
			notes += fmt.Sprintf("[%s] %s", now.Format("2006-01-02"), a.AddNote)
			update.Notes = &notes
		}
		hits = append(hits, hit)
	}
	return update, hits
}

func (s *automationServiceImpl) publishTriggered(ctx context.Context, task *entity.Task, rule domainwf.AutomationRule, notify bool) {
	if s.publisher == nil {
		return
	}
	payload := map[string]interface{}{
		event.KeyRuleID:     rule.ID,
		event.KeyRuleName:   rule.Name,
		event.KeyAssignee:   task.AssignedTo,
		event.KeyMember:     task.MemberName(),
		event.KeyHealthPlan: string(task.HealthPlan),
		event.KeyToStatus:   task.CurrentStatus,
		event.KeyNote:       rule.Actions.AddNote,
		event.KeyNotify:     notify,
	}
	if task.DueDate != nil {
		payload[event.KeyDueDate] = *task.DueDate
	}
	s.publisher.DispatchAsync(ctx, event.NewEvent(event.TypeRuleTriggered, task.ID, payload))
}
