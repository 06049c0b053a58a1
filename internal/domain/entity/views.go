package entity

// TaskFilter is a conjunctive filter over tasks. Empty dimensions pass everything.
type TaskFilter struct {
	Statuses    []string     `json:"statuses,omitempty"`
	Assignees   []string     `json:"assignees,omitempty"`
	HealthPlans []HealthPlan `json:"health_plans,omitempty"`
	Priorities  []Priority   `json:"priorities,omitempty"`
	Counties    []string     `json:"counties,omitempty"`
	Pathways    []string     `json:"pathways,omitempty"`

	// Inclusive bounds on DaysUntilDue. Tasks without a due date never satisfy a bound.
	DueDaysMin *int `json:"due_days_min,omitempty"`
	DueDaysMax *int `json:"due_days_max,omitempty"`
}

// IsEmpty reports whether the filter passes every task
func (f TaskFilter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Assignees) == 0 && len(f.HealthPlans) == 0 &&
		len(f.Priorities) == 0 && len(f.Counties) == 0 && len(f.Pathways) == 0 &&
		f.DueDaysMin == nil && f.DueDaysMax == nil
}

// GroupKey identifies one of the urgency buckets
type GroupKey string

const (
	GroupOverdue     GroupKey = "overdue"
	GroupDueToday    GroupKey = "due-today"
	GroupDueSoon     GroupKey = "due-soon"
	GroupDueThisWeek GroupKey = "due-this-week"
	GroupFuture      GroupKey = "future"
)

// TaskGroup is a named, non-persistent bucket of tasks
type TaskGroup struct {
	Key         GroupKey `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	Tasks       []Task   `json:"tasks"`
}

// StatusCount pairs a status with its frequency
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Analytics is an aggregate snapshot over a task list
type Analytics struct {
	TotalTasks             int                `json:"total_tasks"`
	OverdueTasks           int                `json:"overdue_tasks"`
	CompletedThisWeek      int                `json:"completed_this_week"`
	AverageCompletionDays  float64            `json:"average_completion_days"`
	BottleneckStatuses     []StatusCount      `json:"bottleneck_statuses"`
	WorkloadByStaff        map[string]int     `json:"workload_by_staff"`
	PriorityDistribution   map[Priority]int   `json:"priority_distribution"`
	HealthPlanDistribution map[HealthPlan]int `json:"health_plan_distribution"`
}

// SuggestionType identifies a canned suggestion
type SuggestionType string

const (
	SuggestionAutoAdvance     SuggestionType = "auto-advance"
	SuggestionCriticalOverdue SuggestionType = "critical-overdue"
)

// Suggestion is an actionable recommendation over a set of tasks
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	TaskIDs     []string       `json:"task_ids"`
	Action      string         `json:"action"`
	Priority    Priority       `json:"priority"`
}

// AssignmentRecommendation names the staff member best placed to take a task
type AssignmentRecommendation struct {
	Staff      string `json:"staff"`
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"`
}
