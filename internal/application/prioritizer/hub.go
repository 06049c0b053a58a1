package prioritizer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/clock"
	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

const (
	bottleneckCount         = 3
	criticalOverdueDays     = 5
	completedWindowDays     = 7
	assignmentBaseConfident = 60
	assignmentPerTaskGap    = 5
	assignmentMaxConfident  = 95
)

// ProfileSource resolves status profiles; the workflow engine satisfies it
type ProfileSource interface {
	Profile(plan entity.HealthPlan, status string) domainwf.StatusProfile
}

// Hub scores, ranks, groups and summarizes tasks
type Hub interface {
	// CalculatePriorityScore returns the weighted 0-100 score for task
	CalculatePriorityScore(task *entity.Task, ctx ScoringContext) float64

	// ScoreBreakdown returns the individual factors behind a score
	ScoreBreakdown(task *entity.Task, ctx ScoringContext) Factors

	// GetPriorityLevel maps a score to a tier
	GetPriorityLevel(score float64) entity.Priority

	// PrioritizeTasks annotates score and tier and sorts most urgent first
	PrioritizeTasks(tasks []entity.Task, ctx ScoringContext) []entity.Task

	// GroupTasksIntelligently partitions tasks into the five urgency buckets
	GroupTasksIntelligently(tasks []entity.Task) []entity.TaskGroup

	// GenerateAnalytics summarizes tasks
	GenerateAnalytics(tasks []entity.Task) entity.Analytics

	// RecommendTaskAssignment picks the least-loaded candidate; false when there are none
	RecommendTaskAssignment(task *entity.Task, candidates []string, workload map[string]int) (entity.AssignmentRecommendation, bool)

	// GetSmartSuggestions returns actionable bulk suggestions
	GetSmartSuggestions(tasks []entity.Task) []entity.Suggestion

	// Config returns the active scoring configuration
	Config() Config
}

// hubImpl is the concrete implementation of Hub
type hubImpl struct {
	profiles ProfileSource
	cfg      Config
	clock    clock.Clock
}

// HubOption configures the hub
type HubOption func(*hubImpl)

// WithClock sets the clock used by analytics
func WithClock(c clock.Clock) HubOption {
	return func(h *hubImpl) {
		h.clock = clock.OrReal(c)
	}
}

// NewHub creates a hub after validating cfg
func NewHub(profiles ProfileSource, cfg Config, opts ...HubOption) (Hub, error) {
	if profiles == nil {
		return nil, fmt.Errorf("%w: profile source is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	h := &hubImpl{
		profiles: profiles,
		cfg:      cfg,
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *hubImpl) Config() Config {
	return h.cfg
}

func (h *hubImpl) ScoreBreakdown(task *entity.Task, ctx ScoringContext) Factors {
	profile := h.profiles.Profile(task.HealthPlan, task.CurrentStatus)
	return Factors{
		DaysOverdue:        daysOverdueFactor(task),
		MemberComplexity:   complexityFactor(task, profile, ctx),
		StaffWorkload:      workloadFactor(task, ctx),
		PathwayCriticality: criticalityFactor(profile),
		HistoricalDelay:    historicalDelayFactor(task, ctx),
	}
}

func (h *hubImpl) CalculatePriorityScore(task *entity.Task, ctx ScoringContext) float64 {
	if task == nil {
		return 0
	}
	return h.ScoreBreakdown(task, ctx).weighted(h.cfg.Weights)
}

func (h *hubImpl) GetPriorityLevel(score float64) entity.Priority {
	t := h.cfg.Thresholds
	switch {
	case score >= t.Critical:
		return entity.PriorityCritical
	case score >= t.High:
		return entity.PriorityHigh
	case score >= t.Medium:
		return entity.PriorityMedium
	default:
		return entity.PriorityLow
	}
}

func (h *hubImpl) PrioritizeTasks(tasks []entity.Task, ctx ScoringContext) []entity.Task {
	out := make([]entity.Task, len(tasks))
	copy(out, tasks)

	for i := range out {
		out[i].PriorityScore = h.CalculatePriorityScore(&out[i], ctx)
		out[i].Priority = h.GetPriorityLevel(out[i].PriorityScore)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return moreUrgent(&out[i], &out[j])
	})
	return out
}

// moreUrgent orders by score, then overdue first, then nearest due date.
// Tasks without a due date sort after dated tasks on the last key.
func moreUrgent(a, b *entity.Task) bool {
	if a.PriorityScore != b.PriorityScore {
		return a.PriorityScore > b.PriorityScore
	}
	if a.IsOverdue != b.IsOverdue {
		return a.IsOverdue
	}
	if a.HasDueDate != b.HasDueDate {
		return a.HasDueDate
	}
	if !a.HasDueDate {
		return false
	}
	return a.DaysUntilDue < b.DaysUntilDue
}

// urgencyGroups lists the buckets in display order
var urgencyGroups = []entity.TaskGroup{
	{Key: entity.GroupOverdue, Title: "Overdue", Description: "Past their due date", Priority: entity.PriorityCritical, Color: "bg-red-50 border-red-200", Icon: "alert-circle"},
	{Key: entity.GroupDueToday, Title: "Due Today", Description: "Due before end of day", Priority: entity.PriorityHigh, Color: "bg-orange-50 border-orange-200", Icon: "clock"},
	{Key: entity.GroupDueSoon, Title: "Due Soon", Description: "Due in the next 1-3 days", Priority: entity.PriorityMedium, Color: "bg-yellow-50 border-yellow-200", Icon: "calendar"},
	{Key: entity.GroupDueThisWeek, Title: "Due This Week", Description: "Due in 4-7 days", Priority: entity.PriorityMedium, Color: "bg-blue-50 border-blue-200", Icon: "calendar-days"},
	{Key: entity.GroupFuture, Title: "Future", Description: "Due later or without a due date", Priority: entity.PriorityLow, Color: "bg-gray-50 border-gray-200", Icon: "calendar-clock"},
}

// UrgencyBucket returns the single urgency bucket a task belongs to
func UrgencyBucket(task *entity.Task) entity.GroupKey {
	if !task.HasDueDate {
		return entity.GroupFuture
	}
	switch days := task.DaysUntilDue; {
	case task.IsOverdue || days < 0:
		return entity.GroupOverdue
	case days == 0:
		return entity.GroupDueToday
	case days <= 3:
		return entity.GroupDueSoon
	case days <= 7:
		return entity.GroupDueThisWeek
	default:
		return entity.GroupFuture
	}
}

func (h *hubImpl) GroupTasksIntelligently(tasks []entity.Task) []entity.TaskGroup {
	groups := make([]entity.TaskGroup, len(urgencyGroups))
	index := make(map[entity.GroupKey]int, len(urgencyGroups))
	for i, g := range urgencyGroups {
		groups[i] = g
		groups[i].Tasks = []entity.Task{}
		index[g.Key] = i
	}

	for i := range tasks {
		idx := index[UrgencyBucket(&tasks[i])]
		groups[idx].Tasks = append(groups[idx].Tasks, tasks[i])
	}
	return groups
}

// isCompleteStatus is the analytics notion of completion: the status names a completion
func isCompleteStatus(status string) bool {
	return strings.Contains(status, "Complete")
}

func (h *hubImpl) GenerateAnalytics(tasks []entity.Task) entity.Analytics {
	now := h.clock.Now()
	weekAgo := now.AddDate(0, 0, -completedWindowDays)

	a := entity.Analytics{
		TotalTasks:             len(tasks),
		BottleneckStatuses:     []entity.StatusCount{},
		WorkloadByStaff:        make(map[string]int),
		PriorityDistribution:   make(map[entity.Priority]int),
		HealthPlanDistribution: make(map[entity.HealthPlan]int),
	}

	statusCounts := make(map[string]int)
	var completionDays float64
	var completed int

	for i := range tasks {
		t := &tasks[i]
		if t.HasDueDate && t.IsOverdue {
			a.OverdueTasks++
		}

		if isCompleteStatus(t.CurrentStatus) {
			if !t.LastUpdated.IsZero() && !t.LastUpdated.Before(weekAgo) && !t.LastUpdated.After(now) {
				a.CompletedThisWeek++
			}
			if !t.LastUpdated.IsZero() && !t.CreatedDate.IsZero() {
				completionDays += t.LastUpdated.Sub(t.CreatedDate).Hours() / 24
				completed++
			}
		}

		statusCounts[t.CurrentStatus]++

		assignee := t.AssignedTo
		if assignee == "" {
			assignee = entity.UnassignedKey
		}
		a.WorkloadByStaff[assignee]++

		if t.Priority != "" {
			a.PriorityDistribution[t.Priority]++
		}
		a.HealthPlanDistribution[t.HealthPlan]++
	}

	if completed > 0 {
		a.AverageCompletionDays = math.Round(completionDays/float64(completed)*10) / 10
	}

	for status, count := range statusCounts {
		a.BottleneckStatuses = append(a.BottleneckStatuses, entity.StatusCount{Status: status, Count: count})
	}
	sort.Slice(a.BottleneckStatuses, func(i, j int) bool {
		x, y := a.BottleneckStatuses[i], a.BottleneckStatuses[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return x.Status < y.Status
	})
	if len(a.BottleneckStatuses) > bottleneckCount {
		a.BottleneckStatuses = a.BottleneckStatuses[:bottleneckCount]
	}

	return a
}

func (h *hubImpl) RecommendTaskAssignment(task *entity.Task, candidates []string, workload map[string]int) (entity.AssignmentRecommendation, bool) {
	if len(candidates) == 0 {
		return entity.AssignmentRecommendation{}, false
	}

	chosen := candidates[0]
	minLoad, maxLoad := workload[chosen], workload[chosen]
	for _, c := range candidates[1:] {
		load := workload[c]
		if load < minLoad {
			chosen, minLoad = c, load
		}
		if load > maxLoad {
			maxLoad = load
		}
	}

	confidence := assignmentBaseConfident + assignmentPerTaskGap*(maxLoad-minLoad)
	if confidence > assignmentMaxConfident {
		confidence = assignmentMaxConfident
	}

	reason := fmt.Sprintf("%s has the lightest workload (%d open %s)", chosen, minLoad, pluralTasks(minLoad))
	if task != nil && task.HealthPlan != "" {
		reason = fmt.Sprintf("%s; %s case", reason, task.HealthPlan)
	}

	return entity.AssignmentRecommendation{
		Staff:      chosen,
		Reason:     reason,
		Confidence: confidence,
	}, true
}

func (h *hubImpl) GetSmartSuggestions(tasks []entity.Task) []entity.Suggestion {
	var ready, critical []string
	for i := range tasks {
		t := &tasks[i]
		if t.CanAutoAdvance {
			ready = append(ready, t.ID)
		}
		if t.DaysOverdue() >= criticalOverdueDays {
			critical = append(critical, t.ID)
		}
	}

	suggestions := []entity.Suggestion{}
	if len(ready) > 0 {
		suggestions = append(suggestions, entity.Suggestion{
			Type:        entity.SuggestionAutoAdvance,
			Title:       "Auto-advance ready",
			Description: fmt.Sprintf("%d %s can be advanced automatically", len(ready), pluralTasks(len(ready))),
			TaskIDs:     ready,
			Action:      "bulk-auto-advance",
			Priority:    entity.PriorityMedium,
		})
	}
	if len(critical) > 0 {
		suggestions = append(suggestions, entity.Suggestion{
			Type:        entity.SuggestionCriticalOverdue,
			Title:       "Critical overdue tasks",
			Description: fmt.Sprintf("%d %s overdue by %d or more days", len(critical), pluralTasks(len(critical)), criticalOverdueDays),
			TaskIDs:     critical,
			Action:      "escalate",
			Priority:    entity.PriorityCritical,
		})
	}
	return suggestions
}

// WorkloadFromTasks counts open tasks per assignee
func WorkloadFromTasks(tasks []entity.Task) map[string]int {
	workload := make(map[string]int)
	for i := range tasks {
		t := &tasks[i]
		if t.AssignedTo == "" || t.IsCompleted() {
			continue
		}
		workload[t.AssignedTo]++
	}
	return workload
}

func pluralTasks(n int) string {
	if n == 1 {
		return "task"
	}
	return "tasks"
}

var _ Hub = (*hubImpl)(nil)
