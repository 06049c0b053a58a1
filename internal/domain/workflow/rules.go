package workflow

import (
	"time"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// AnyStatus matches every status in a rule condition
const AnyStatus = "*"

// RuleConditions select the tasks a rule applies to.
//
// DaysInStatus > 0 requires at least that many days since the task was last updated;
// DaysInStatus < 0 requires the task to be at least |DaysInStatus| days overdue;
// zero places no time requirement.
type RuleConditions struct {
	Status       string   `yaml:"status" json:"status" validate:"required"`
	DaysInStatus int      `yaml:"days_in_status" json:"days_in_status"`
	Custom       []string `yaml:"custom" json:"custom,omitempty"`
}

// RuleActions describe what the caller should do with a matching task
type RuleActions struct {
	NewStatus            string `yaml:"new_status" json:"new_status,omitempty"`
	AddNote              string `yaml:"add_note" json:"add_note,omitempty"`
	Notify               bool   `yaml:"notify" json:"notify,omitempty"`
	ScheduleReminderDays int    `yaml:"schedule_reminder_days" json:"schedule_reminder_days,omitempty" validate:"gte=0"`
}

// IsEmpty reports whether the actions do nothing
func (a RuleActions) IsEmpty() bool {
	return a.NewStatus == "" && a.AddNote == "" && !a.Notify && a.ScheduleReminderDays == 0
}

// AutomationRule is a declarative trigger evaluated on demand
type AutomationRule struct {
	ID         string            `yaml:"id" json:"id" validate:"required"`
	Name       string            `yaml:"name" json:"name" validate:"required"`
	Enabled    bool              `yaml:"enabled" json:"enabled"`
	HealthPlan entity.HealthPlan `yaml:"health_plan" json:"health_plan,omitempty"`
	Conditions RuleConditions    `yaml:"conditions" json:"conditions"`
	Actions    RuleActions       `yaml:"actions" json:"actions"`
}

// Matches reports whether the rule applies to task at now. Custom conditions must all be
// present in satisfied; a disabled rule never matches.
func (r *AutomationRule) Matches(task *entity.Task, now time.Time, satisfied ConditionSet) bool {
	if !r.Enabled {
		return false
	}
	if r.HealthPlan != "" && r.HealthPlan != task.HealthPlan {
		return false
	}
	if r.Conditions.Status != AnyStatus && r.Conditions.Status != task.CurrentStatus {
		return false
	}
	if !satisfied.HasAll(r.Conditions.Custom) {
		return false
	}

	threshold := r.Conditions.DaysInStatus
	switch {
	case threshold > 0:
		if task.LastUpdated.IsZero() {
			return false
		}
		return utils.DaysBetween(task.LastUpdated, now) >= threshold
	case threshold < 0:
		return task.HasDueDate && task.DaysOverdue() >= -threshold
	default:
		return true
	}
}

// DefaultRules returns the built-in automation rules
func DefaultRules() []AutomationRule {
	return []AutomationRule{
		{
			ID:         "overdue-escalation",
			Name:       "Escalate tasks a week overdue",
			Enabled:    true,
			Conditions: RuleConditions{Status: AnyStatus, DaysInStatus: -7},
			Actions:    RuleActions{Notify: true, AddNote: "Escalated: more than 7 days overdue"},
		},
		{
			ID:         "t2038-follow-up",
			Name:       "Follow up on stalled T2038 requests",
			Enabled:    true,
			HealthPlan: entity.HealthPlanKaiser,
			Conditions: RuleConditions{Status: "T2038 Requested", DaysInStatus: 10},
			Actions:    RuleActions{Notify: true, AddNote: "Follow up with Kaiser on T2038 request", ScheduleReminderDays: 3},
		},
		{
			ID:         "rn-visit-completed",
			Name:       "Record completed RN visits",
			Enabled:    true,
			HealthPlan: entity.HealthPlanKaiser,
			Conditions: RuleConditions{Status: "RN/MSW Scheduled", Custom: []string{"rn_visit_completed"}},
			Actions:    RuleActions{NewStatus: "RN Visit Complete", AddNote: "RN visit confirmed complete"},
		},
		{
			ID:         "isp-scheduling-stalled",
			Name:       "Nudge stalled ISP scheduling",
			Enabled:    true,
			HealthPlan: entity.HealthPlanHealthNet,
			Conditions: RuleConditions{Status: "Scheduling ISP", DaysInStatus: 5},
			Actions:    RuleActions{Notify: true, ScheduleReminderDays: 2},
		},
		{
			ID:         "authorization-received",
			Name:       "Close out received authorizations",
			Enabled:    true,
			HealthPlan: entity.HealthPlanHealthNet,
			Conditions: RuleConditions{Status: "Authorization Requested", Custom: []string{"authorization_received"}},
			Actions:    RuleActions{NewStatus: "Authorization Complete", AddNote: "Authorization received", Notify: true},
		},
		{
			ID:         "stale-case-review",
			Name:       "Review cases untouched for a month",
			Enabled:    false,
			Conditions: RuleConditions{Status: AnyStatus, DaysInStatus: 30},
			Actions:    RuleActions{AddNote: "No activity for 30 days; review case"},
		},
	}
}
