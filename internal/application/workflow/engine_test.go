package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// Wednesday
var testNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T, opts ...EngineOption) Engine {
	t.Helper()
	opts = append([]EngineOption{WithClock(clock.Fixed(testNow))}, opts...)
	e, err := NewEngine(domainwf.DefaultDefinitions(), opts...)
	require.NoError(t, err)
	return e
}

func kaiserTask(status string) *entity.Task {
	return &entity.Task{ID: "k-1", HealthPlan: entity.HealthPlanKaiser, CurrentStatus: status}
}

func TestNewEngine_RejectsInvalidDefinitions(t *testing.T) {
	_, err := NewEngine([]domainwf.Definition{domainwf.KaiserDefinition(), domainwf.KaiserDefinition()})
	assert.ErrorIs(t, err, domainwf.ErrInvalidDefinition)

	broken := domainwf.HealthNetDefinition()
	broken.CompletionCriteria = []string{"Nowhere"}
	_, err = NewEngine([]domainwf.Definition{broken})
	assert.ErrorIs(t, err, domainwf.ErrInvalidDefinition)
}

func TestEngine_GetWorkflow(t *testing.T) {
	e := newTestEngine(t)

	def, ok := e.GetWorkflow(entity.HealthPlanKaiser)
	require.True(t, ok)
	assert.Len(t, def.Steps, 20)

	_, ok = e.GetWorkflow(entity.HealthPlanOther)
	assert.False(t, ok)
	assert.Len(t, e.Workflows(), 2)
}

func TestEngine_GetNextStatus(t *testing.T) {
	e := newTestEngine(t)

	next, ok := e.GetNextStatus(entity.HealthPlanKaiser, "T2038 Requested")
	require.True(t, ok)
	assert.Equal(t, "T2038 received, Need First Contact", next)

	_, ok = e.GetNextStatus(entity.HealthPlanKaiser, "Nonexistent")
	assert.False(t, ok)

	_, ok = e.GetNextStatus(entity.HealthPlanOther, "T2038 Requested")
	assert.False(t, ok)
}

func TestEngine_TerminalDetection(t *testing.T) {
	e := newTestEngine(t)

	for _, def := range e.Workflows() {
		for _, status := range def.CompletionCriteria {
			_, ok := e.GetNextStatus(def.HealthPlan, status)
			assert.False(t, ok, "%s/%s", def.HealthPlan, status)

			task := &entity.Task{HealthPlan: def.HealthPlan, CurrentStatus: status}
			result := e.AutoAdvanceTask(task, domainwf.NewConditionSet("anything"))
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, "already complete")
			assert.Nil(t, result.DueDate)
		}
	}
}

func TestEngine_GetRecommendedDueDate(t *testing.T) {
	e := newTestEngine(t)

	// T2038 Requested recommends 10 business days: Wed Jun 12 -> Wed Jun 26
	due := e.GetRecommendedDueDate(entity.HealthPlanKaiser, "T2038 Requested", time.Time{})
	assert.Equal(t, time.Date(2024, 6, 26, 14, 30, 0, 0, time.UTC), due)

	// Unknown status uses the 7 business-day default from a Friday
	friday := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)
	due = e.GetRecommendedDueDate(entity.HealthPlanOther, "Whatever", friday)
	assert.Equal(t, time.Date(2024, 6, 25, 9, 0, 0, 0, time.UTC), due)
}

func TestEngine_CanAutoAdvance(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name      string
		task      *entity.Task
		satisfied domainwf.ConditionSet
		want      bool
	}{
		{"all conditions satisfied", kaiserTask("T2038 Requested"), domainwf.NewConditionSet("t2038_received"), true},
		{"condition missing", kaiserTask("T2038 Requested"), domainwf.NewConditionSet("rb_signed"), false},
		{"nil set", kaiserTask("T2038 Requested"), nil, false},
		{"step without conditions", kaiserTask("Found RCFE"), domainwf.NewConditionSet("t2038_received"), false},
		{"terminal", kaiserTask("Complete"), domainwf.NewConditionSet("t2038_received"), false},
		{"unknown status", kaiserTask("Lost"), domainwf.NewConditionSet("t2038_received"), false},
		{"nil task", nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.CanAutoAdvance(tt.task, tt.satisfied))
		})
	}
}

func TestEngine_AutoAdvanceTask(t *testing.T) {
	e := newTestEngine(t)

	t.Run("success computes next status and due date without mutating", func(t *testing.T) {
		task := kaiserTask("RN/MSW Scheduled")
		result := e.AutoAdvanceTask(task, domainwf.NewConditionSet("rn_visit_completed"))

		require.True(t, result.Success, result.Message)
		assert.Equal(t, "RN Visit Complete", result.NewStatus)
		require.NotNil(t, result.DueDate)
		// RN Visit Complete recommends 2 business days from Wednesday
		assert.Equal(t, time.Date(2024, 6, 14, 14, 30, 0, 0, time.UTC), *result.DueDate)
		assert.Equal(t, "RN/MSW Scheduled", task.CurrentStatus)
	})

	t.Run("fails closed with explanations", func(t *testing.T) {
		cases := []struct {
			task    *entity.Task
			message string
		}{
			{kaiserTask("RN/MSW Scheduled"), "missing rn_visit_completed"},
			{kaiserTask("Found RCFE"), "requires manual action"},
			{kaiserTask("Lost"), "is not part of the Kaiser workflow"},
			{&entity.Task{HealthPlan: entity.HealthPlanOther, CurrentStatus: "X"}, "No workflow defined"},
			{nil, "No task"},
		}
		for _, c := range cases {
			result := e.AutoAdvanceTask(c.task, nil)
			assert.False(t, result.Success)
			assert.Contains(t, result.Message, c.message)
			assert.Empty(t, result.NewStatus)
		}
	})
}

func TestEngine_ProcessAutomationRules(t *testing.T) {
	e := newTestEngine(t)

	task := kaiserTask("T2038 Requested")
	task.LastUpdated = testNow.AddDate(0, 0, -12)
	task.HasDueDate = true
	task.DaysUntilDue = -8
	task.IsOverdue = true

	matched := e.ProcessAutomationRules(task, nil)
	ids := make([]string, 0, len(matched))
	for _, r := range matched {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"overdue-escalation", "t2038-follow-up"}, ids)

	custom := []domainwf.AutomationRule{{
		ID: "only", Name: "Only", Enabled: true,
		Conditions: domainwf.RuleConditions{Status: domainwf.AnyStatus},
		Actions:    domainwf.RuleActions{Notify: true},
	}}
	e2 := newTestEngine(t, WithRules(custom))
	assert.Len(t, e2.ProcessAutomationRules(task, nil), 1)
	assert.Equal(t, custom, e2.Rules())
}

func TestEngine_GetWorkflowProgress(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, 5, e.GetWorkflowProgress(entity.HealthPlanKaiser, "Pre-T2038, Compiling Docs"))
	assert.Equal(t, 10, e.GetWorkflowProgress(entity.HealthPlanKaiser, "T2038 Requested"))
	assert.Equal(t, 100, e.GetWorkflowProgress(entity.HealthPlanKaiser, "Complete"))
	assert.Equal(t, 33, e.GetWorkflowProgress(entity.HealthPlanHealthNet, "Scheduling ISP"))
	assert.Equal(t, 0, e.GetWorkflowProgress(entity.HealthPlanKaiser, "On-Hold"))
	assert.Equal(t, 0, e.GetWorkflowProgress(entity.HealthPlanOther, "Complete"))
}

func TestEngine_IsValidTransition(t *testing.T) {
	e := newTestEngine(t)

	assert.True(t, e.IsValidTransition(entity.HealthPlanKaiser, "T2038 Requested", "T2038 received, Need First Contact"))
	assert.False(t, e.IsValidTransition(entity.HealthPlanKaiser, "T2038 Requested", "RN Visit Needed"))
	assert.True(t, e.IsValidTransition(entity.HealthPlanKaiser, "Tier Level Received", "Locating RCFEs"), "skippable step")
	assert.False(t, e.IsValidTransition(entity.HealthPlanKaiser, "Complete", "Pre-T2038, Compiling Docs"))
	assert.False(t, e.IsValidTransition(entity.HealthPlanOther, "A", "B"))
}

func TestEngine_ProfileAndCompletion(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, domainwf.CriticalityCompletion, e.Profile(entity.HealthPlanKaiser, "ILS Contracted and Member Moved In").Criticality)
	assert.True(t, e.IsCompletion(entity.HealthPlanHealthNet, "Authorization Complete"))
	assert.False(t, e.IsCompletion(entity.HealthPlanKaiser, "RN Visit Complete"))
}
