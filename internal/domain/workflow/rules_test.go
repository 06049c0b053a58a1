package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

func TestAutomationRule_Matches(t *testing.T) {
	now := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)

	kaiserTask := func(status string, updatedDaysAgo, daysUntilDue int, hasDue bool) *entity.Task {
		return &entity.Task{
			HealthPlan:    entity.HealthPlanKaiser,
			CurrentStatus: status,
			LastUpdated:   now.AddDate(0, 0, -updatedDaysAgo),
			DaysUntilDue:  daysUntilDue,
			IsOverdue:     hasDue && daysUntilDue < 0,
			HasDueDate:    hasDue,
		}
	}

	tests := []struct {
		name      string
		rule      AutomationRule
		task      *entity.Task
		satisfied ConditionSet
		want      bool
	}{
		{
			name: "disabled never matches",
			rule: AutomationRule{Conditions: RuleConditions{Status: AnyStatus}},
			task: kaiserTask("X", 0, 0, true),
		},
		{
			name: "wildcard status",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: AnyStatus}},
			task: kaiserTask("X", 0, 0, true),
			want: true,
		},
		{
			name: "exact status mismatch",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: "Y"}},
			task: kaiserTask("X", 0, 0, true),
		},
		{
			name: "plan scope mismatch",
			rule: AutomationRule{Enabled: true, HealthPlan: entity.HealthPlanHealthNet, Conditions: RuleConditions{Status: AnyStatus}},
			task: kaiserTask("X", 0, 0, true),
		},
		{
			name: "days in status reached",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: "X", DaysInStatus: 10}},
			task: kaiserTask("X", 10, 5, true),
			want: true,
		},
		{
			name: "days in status not reached",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: "X", DaysInStatus: 10}},
			task: kaiserTask("X", 9, 5, true),
		},
		{
			name: "overdue threshold reached",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: AnyStatus, DaysInStatus: -7}},
			task: kaiserTask("X", 0, -7, true),
			want: true,
		},
		{
			name: "overdue threshold not reached",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: AnyStatus, DaysInStatus: -7}},
			task: kaiserTask("X", 0, -6, true),
		},
		{
			name: "no due date never counts as overdue",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: AnyStatus, DaysInStatus: -1}},
			task: kaiserTask("X", 0, 999, false),
		},
		{
			name: "custom condition missing",
			rule: AutomationRule{Enabled: true, Conditions: RuleConditions{Status: "X", Custom: []string{"rn_visit_completed"}}},
			task: kaiserTask("X", 0, 0, true),
		},
		{
			name:      "custom condition satisfied",
			rule:      AutomationRule{Enabled: true, Conditions: RuleConditions{Status: "X", Custom: []string{"rn_visit_completed"}}},
			task:      kaiserTask("X", 0, 0, true),
			satisfied: NewConditionSet("rn_visit_completed"),
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Matches(tt.task, now, tt.satisfied))
		})
	}
}

func TestDefaultRules_HaveUniqueIDsAndActions(t *testing.T) {
	ids := map[string]bool{}
	for _, r := range DefaultRules() {
		assert.False(t, ids[r.ID], "duplicate %s", r.ID)
		ids[r.ID] = true
		assert.False(t, r.Actions.IsEmpty(), r.ID)
	}
}
