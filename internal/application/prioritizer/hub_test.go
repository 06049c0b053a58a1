package prioritizer

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/calaim-taskhub/internal/application/workflow"
	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

var testNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

func newTestHub(t *testing.T) Hub {
	t.Helper()
	engine := workflow.NewDefaultEngine(workflow.WithClock(clock.Fixed(testNow)))
	hub, err := NewHub(engine, DefaultConfig(), WithClock(clock.Fixed(testNow)))
	require.NoError(t, err)
	return hub
}

// taskDue builds a task whose date fields are derived for a due date daysFromNow away
func taskDue(id string, plan entity.HealthPlan, status string, daysFromNow int) entity.Task {
	due := testNow.AddDate(0, 0, daysFromNow)
	dates := utils.CalculateTaskDatesFor(due, testNow)
	return entity.Task{
		ID:             id,
		HealthPlan:     plan,
		CurrentStatus:  status,
		DueDate:        &due,
		DaysUntilDue:   dates.DaysUntilDue,
		IsOverdue:      dates.IsOverdue,
		HasDueDate:     dates.HasDueDate,
		DueDescription: dates.RelativeDescription,
	}
}

func taskWithoutDue(id string) entity.Task {
	return entity.Task{
		ID:            id,
		HealthPlan:    entity.HealthPlanKaiser,
		CurrentStatus: "Locating RCFEs",
		DaysUntilDue:  utils.NoDueDateSentinel,
	}
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"weight above one", func(c *Config) { c.Weights.DaysOverdue = 1.2 }},
		{"negative weight", func(c *Config) { c.Weights.HistoricalDelay = -0.1 }},
		{"sum above one", func(c *Config) { c.Weights.StaffWorkload = 0.3 }},
		{"equal thresholds", func(c *Config) { c.Thresholds.High = c.Thresholds.Critical }},
		{"inverted thresholds", func(c *Config) { c.Thresholds.Medium = 70 }},
		{"threshold above 100", func(c *Config) { c.Thresholds.Critical = 120 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	_, err := NewHub(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCalculatePriorityScore_Examples(t *testing.T) {
	hub := newTestHub(t)

	t.Run("A: completion status ten days overdue", func(t *testing.T) {
		task := taskDue("A", entity.HealthPlanKaiser, "ILS Contracted and Member Moved In", -10)
		task.AssignedTo = "maria@example.org"

		// 100*.40 + 70*.20 + 10*.15 + 90*.15 + 50*.10; without context the default weights top out at high
		score := hub.CalculatePriorityScore(&task, ScoringContext{})
		assert.InDelta(t, 74.0, score, 1e-9)
		assert.Equal(t, entity.PriorityHigh, hub.GetPriorityLevel(score))

		// A busy assignee and a status with a delay history push it to critical
		ctx := ScoringContext{
			Workload:         map[string]int{"maria@example.org": 20},
			HistoricalDelays: map[string]int{"ILS Contracted and Member Moved In": 10},
		}
		score = hub.CalculatePriorityScore(&task, ctx)
		assert.InDelta(t, 90.0, score, 1e-9)
		assert.Equal(t, entity.PriorityCritical, hub.GetPriorityLevel(score))
	})

	t.Run("B: early step due in twenty days", func(t *testing.T) {
		task := taskDue("B", entity.HealthPlanKaiser, "Pre-T2038, Compiling Docs", 20)
		score := hub.CalculatePriorityScore(&task, ScoringContext{})
		assert.InDelta(t, 30.5, score, 1e-9)
		assert.Contains(t, []entity.Priority{entity.PriorityLow, entity.PriorityMedium}, hub.GetPriorityLevel(score))
	})

	t.Run("C: tier level appeal one day overdue", func(t *testing.T) {
		task := taskDue("C", entity.HealthPlanKaiser, "Tier Level Appeal", -1)
		score := hub.CalculatePriorityScore(&task, ScoringContext{})
		assert.InDelta(t, 69.5, score, 1e-9)
		assert.Contains(t, []entity.Priority{entity.PriorityHigh, entity.PriorityCritical}, hub.GetPriorityLevel(score))
	})
}

func TestScoreBreakdown_Factors(t *testing.T) {
	hub := newTestHub(t)

	t.Run("days overdue tiers", func(t *testing.T) {
		cases := map[int]float64{-8: 100, -7: 100, -4: 90, -3: 90, -2: 80, -1: 80, 0: 75, 1: 75, 2: 50, 3: 50, 5: 25, 7: 25, 8: 10, 40: 10}
		for days, want := range cases {
			task := taskDue("x", entity.HealthPlanHealthNet, "Scheduling ISP", days)
			assert.Equal(t, want, hub.ScoreBreakdown(&task, ScoringContext{}).DaysOverdue, "days=%d", days)
		}
		noDue := taskWithoutDue("n")
		assert.Equal(t, 10.0, hub.ScoreBreakdown(&noDue, ScoringContext{}).DaysOverdue)
	})

	t.Run("complexity", func(t *testing.T) {
		task := taskDue("x", entity.HealthPlanKaiser, "Tier Level Appeal", 0)
		task.Pathway = "SNF Diversion"
		assert.Equal(t, 100.0, hub.ScoreBreakdown(&task, ScoringContext{}).MemberComplexity)

		hn := taskDue("y", entity.HealthPlanHealthNet, "Scheduling ISP", 0)
		assert.Equal(t, 50.0, hub.ScoreBreakdown(&hn, ScoringContext{}).MemberComplexity)

		override := ScoringContext{ComplexityOverrides: map[string]float64{"y": 12}}
		assert.Equal(t, 12.0, hub.ScoreBreakdown(&hn, override).MemberComplexity)
	})

	t.Run("workload", func(t *testing.T) {
		cases := map[int]float64{25: 90, 20: 90, 15: 70, 10: 50, 5: 30, 4: 10, 0: 10}
		for count, want := range cases {
			task := taskDue("x", entity.HealthPlanKaiser, "Found RCFE", 5)
			task.AssignedTo = "sam"
			ctx := ScoringContext{Workload: map[string]int{"sam": count}}
			assert.Equal(t, want, hub.ScoreBreakdown(&task, ctx).StaffWorkload, "count=%d", count)
		}
	})

	t.Run("historical delay", func(t *testing.T) {
		task := taskDue("x", entity.HealthPlanKaiser, "Found RCFE", 5)
		assert.Equal(t, 50.0, hub.ScoreBreakdown(&task, ScoringContext{}).HistoricalDelay)

		cases := map[int]float64{12: 90, 10: 90, 5: 70, 2: 50, 1: 30, 0: 30}
		for count, want := range cases {
			ctx := ScoringContext{HistoricalDelays: map[string]int{"Found RCFE": count}}
			assert.Equal(t, want, hub.ScoreBreakdown(&task, ctx).HistoricalDelay, "count=%d", count)
		}
	})
}

func TestCalculatePriorityScore_MonotonicInLateness(t *testing.T) {
	hub := newTestHub(t)

	prev := -1.0
	for days := 40; days >= -40; days-- {
		task := taskDue("m", entity.HealthPlanKaiser, "Found RCFE", days)
		score := hub.CalculatePriorityScore(&task, ScoringContext{})
		assert.GreaterOrEqual(t, score, prev, "score dropped at daysUntilDue=%d", days)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
		prev = score
	}
}

func TestGetPriorityLevel(t *testing.T) {
	hub := newTestHub(t)

	assert.Equal(t, entity.PriorityCritical, hub.GetPriorityLevel(85))
	assert.Equal(t, entity.PriorityHigh, hub.GetPriorityLevel(84.9))
	assert.Equal(t, entity.PriorityHigh, hub.GetPriorityLevel(65))
	assert.Equal(t, entity.PriorityMedium, hub.GetPriorityLevel(35))
	assert.Equal(t, entity.PriorityLow, hub.GetPriorityLevel(34.9))
}

func TestPrioritizeTasks_SortAndTieBreak(t *testing.T) {
	hub := newTestHub(t)

	tasks := []entity.Task{
		taskWithoutDue("no-due"),
		taskDue("later", entity.HealthPlanKaiser, "Locating RCFEs", 20),
		taskDue("appeal", entity.HealthPlanKaiser, "Tier Level Appeal", -3),
		taskDue("sooner", entity.HealthPlanKaiser, "Locating RCFEs", 10),
	}

	out := hub.PrioritizeTasks(tasks, ScoringContext{})
	require.Len(t, out, 4)

	ids := make([]string, len(out))
	for i, task := range out {
		ids[i] = task.ID
		assert.NotEmpty(t, task.Priority)
	}
	// later, sooner and no-due share a score; dated tasks first, nearest first
	assert.Equal(t, []string{"appeal", "sooner", "later", "no-due"}, ids)

	// input untouched
	assert.Equal(t, "no-due", tasks[0].ID)
	assert.Zero(t, tasks[0].PriorityScore)
}

func TestGroupTasksIntelligently_Partition(t *testing.T) {
	hub := newTestHub(t)

	var tasks []entity.Task
	add := func(n, days int) {
		for i := 0; i < n; i++ {
			tasks = append(tasks, taskDue(fmt.Sprintf("d%d-%d", days, i), entity.HealthPlanKaiser, "Found RCFE", days))
		}
	}
	add(3, -2)
	add(2, 0)
	add(1, 2)
	add(1, 5)
	add(3, 30)

	groups := hub.GroupTasksIntelligently(tasks)
	require.Len(t, groups, 5)

	counts := map[entity.GroupKey]int{}
	seen := map[string]bool{}
	total := 0
	for _, g := range groups {
		counts[g.Key] = len(g.Tasks)
		total += len(g.Tasks)
		for _, task := range g.Tasks {
			assert.False(t, seen[task.ID], "%s appears twice", task.ID)
			seen[task.ID] = true
		}
	}

	assert.Equal(t, len(tasks), total)
	assert.Equal(t, map[entity.GroupKey]int{
		entity.GroupOverdue:     3,
		entity.GroupDueToday:    2,
		entity.GroupDueSoon:     1,
		entity.GroupDueThisWeek: 1,
		entity.GroupFuture:      3,
	}, counts)
}

func TestGroupTasksIntelligently_NoDueDateIsFuture(t *testing.T) {
	hub := newTestHub(t)

	groups := hub.GroupTasksIntelligently([]entity.Task{taskWithoutDue("n")})
	for _, g := range groups {
		if g.Key == entity.GroupFuture {
			assert.Len(t, g.Tasks, 1)
		} else {
			assert.Empty(t, g.Tasks, g.Key)
		}
	}
}

func TestGenerateAnalytics(t *testing.T) {
	hub := newTestHub(t)

	done := taskDue("done", entity.HealthPlanKaiser, "Complete", -1)
	done.CreatedDate = testNow.AddDate(0, 0, -30)
	done.LastUpdated = testNow.AddDate(0, 0, -2)
	done.AssignedTo = "ana"
	done.Priority = entity.PriorityLow

	oldDone := taskDue("old", entity.HealthPlanHealthNet, "Authorization Complete", 3)
	oldDone.CreatedDate = testNow.AddDate(0, 0, -50)
	oldDone.LastUpdated = testNow.AddDate(0, 0, -10)
	oldDone.Priority = entity.PriorityLow

	late := taskDue("late", entity.HealthPlanKaiser, "Found RCFE", -4)
	late.AssignedTo = "ana"
	late.Priority = entity.PriorityHigh

	late2 := taskDue("late2", entity.HealthPlanKaiser, "Found RCFE", -1)
	late2.AssignedTo = "ben"
	late2.Priority = entity.PriorityHigh

	noDue := taskWithoutDue("nodue")

	a := hub.GenerateAnalytics([]entity.Task{done, oldDone, late, late2, noDue})

	assert.Equal(t, 5, a.TotalTasks)
	assert.Equal(t, 3, a.OverdueTasks)
	assert.Equal(t, 1, a.CompletedThisWeek)
	// (28 + 40) / 2
	assert.Equal(t, 34.0, a.AverageCompletionDays)
	require.NotEmpty(t, a.BottleneckStatuses)
	assert.Equal(t, entity.StatusCount{Status: "Found RCFE", Count: 2}, a.BottleneckStatuses[0])
	assert.LessOrEqual(t, len(a.BottleneckStatuses), 3)
	assert.Equal(t, map[string]int{"ana": 2, "ben": 1, entity.UnassignedKey: 2}, a.WorkloadByStaff)
	assert.Equal(t, 2, a.PriorityDistribution[entity.PriorityHigh])
	assert.Equal(t, 4, a.HealthPlanDistribution[entity.HealthPlanKaiser])

	empty := hub.GenerateAnalytics(nil)
	assert.Zero(t, empty.AverageCompletionDays)
	assert.Empty(t, empty.BottleneckStatuses)
}

func TestRecommendTaskAssignment(t *testing.T) {
	hub := newTestHub(t)
	task := taskDue("x", entity.HealthPlanKaiser, "Found RCFE", 3)

	rec, ok := hub.RecommendTaskAssignment(&task, []string{"ana", "ben", "cy"}, map[string]int{"ana": 9, "ben": 2, "cy": 5})
	require.True(t, ok)
	assert.Equal(t, "ben", rec.Staff)
	assert.Equal(t, 95, rec.Confidence)
	assert.Contains(t, rec.Reason, "ben")

	rec, ok = hub.RecommendTaskAssignment(&task, []string{"ana", "ben"}, map[string]int{"ana": 3, "ben": 2})
	require.True(t, ok)
	assert.Equal(t, 65, rec.Confidence)

	rec, _ = hub.RecommendTaskAssignment(&task, []string{"solo"}, nil)
	assert.Equal(t, 60, rec.Confidence)

	_, ok = hub.RecommendTaskAssignment(&task, nil, nil)
	assert.False(t, ok)
}

func TestGetSmartSuggestions(t *testing.T) {
	hub := newTestHub(t)

	ready := taskDue("ready", entity.HealthPlanKaiser, "T2038 Requested", 2)
	ready.CanAutoAdvance = true
	veryLate := taskDue("late", entity.HealthPlanKaiser, "Found RCFE", -5)
	slightlyLate := taskDue("slight", entity.HealthPlanKaiser, "Found RCFE", -4)
	noDue := taskWithoutDue("nodue")

	suggestions := hub.GetSmartSuggestions([]entity.Task{ready, veryLate, slightlyLate, noDue})
	require.Len(t, suggestions, 2)

	assert.Equal(t, entity.SuggestionAutoAdvance, suggestions[0].Type)
	assert.Equal(t, []string{"ready"}, suggestions[0].TaskIDs)
	assert.Equal(t, entity.SuggestionCriticalOverdue, suggestions[1].Type)
	assert.Equal(t, []string{"late"}, suggestions[1].TaskIDs)

	assert.Empty(t, hub.GetSmartSuggestions([]entity.Task{noDue}))
}

func TestWorkloadFromTasks(t *testing.T) {
	open := entity.Task{AssignedTo: "ana", TaskStatus: entity.TaskStatusFuture}
	closed := entity.Task{AssignedTo: "ana", TaskStatus: entity.TaskStatusCompleted}
	unassigned := entity.Task{TaskStatus: entity.TaskStatusOverdue}

	assert.Equal(t, map[string]int{"ana": 1}, WorkloadFromTasks([]entity.Task{open, closed, unassigned}))
}
