package prioritizer

import (
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
	domainwf "github.com/garyjia/calaim-taskhub/internal/domain/workflow"
)

// ScoringContext carries externally-supplied signals for priority scoring.
// Nil maps are treated as empty.
type ScoringContext struct {
	// Workload maps staff identifier to open task count
	Workload map[string]int `json:"workload,omitempty"`

	// ComplexityOverrides maps task id to a 0-100 complexity score
	ComplexityOverrides map[string]float64 `json:"complexity_overrides,omitempty"`

	// HistoricalDelays maps status to the number of recorded delays in that status
	HistoricalDelays map[string]int `json:"historical_delays,omitempty"`
}

// Factors is the breakdown of a priority score; each factor is 0-100
type Factors struct {
	DaysOverdue        float64 `json:"days_overdue"`
	MemberComplexity   float64 `json:"member_complexity"`
	StaffWorkload      float64 `json:"staff_workload"`
	PathwayCriticality float64 `json:"pathway_criticality"`
	HistoricalDelay    float64 `json:"historical_delay"`
}

// weighted combines the factors and clamps to [0,100]
func (f Factors) weighted(w Weights) float64 {
	score := f.DaysOverdue*w.DaysOverdue +
		f.MemberComplexity*w.MemberComplexity +
		f.StaffWorkload*w.StaffWorkload +
		f.PathwayCriticality*w.PathwayCriticality +
		f.HistoricalDelay*w.HistoricalDelay
	return clamp(score, 0, 100)
}

func daysOverdueFactor(task *entity.Task) float64 {
	if !task.HasDueDate {
		return 10
	}
	if task.IsOverdue {
		switch overdue := task.DaysOverdue(); {
		case overdue >= 7:
			return 100
		case overdue >= 3:
			return 90
		case overdue >= 1:
			return 80
		default:
			return 70
		}
	}
	switch days := task.DaysUntilDue; {
	case days <= 1:
		return 75
	case days <= 3:
		return 50
	case days <= 7:
		return 25
	default:
		return 10
	}
}

func complexityFactor(task *entity.Task, profile domainwf.StatusProfile, ctx ScoringContext) float64 {
	if override, ok := ctx.ComplexityOverrides[task.ID]; ok {
		return clamp(override, 0, 100)
	}

	score := 50.0
	if task.HealthPlan == entity.HealthPlanKaiser {
		score += 20
	}
	if strings.EqualFold(strings.TrimSpace(task.Pathway), entity.PathwaySNFDiversion) {
		score += 15
	}
	if profile.Complex {
		score += 25
	}
	return clamp(score, 0, 100)
}

func workloadFactor(task *entity.Task, ctx ScoringContext) float64 {
	switch count := ctx.Workload[task.AssignedTo]; {
	case count >= 20:
		return 90
	case count >= 15:
		return 70
	case count >= 10:
		return 50
	case count >= 5:
		return 30
	default:
		return 10
	}
}

func criticalityFactor(profile domainwf.StatusProfile) float64 {
	switch profile.Criticality {
	case domainwf.CriticalityCompletion:
		return 90
	case domainwf.CriticalityCritical:
		return 80
	case domainwf.CriticalityImportant:
		return 60
	default:
		return 40
	}
}

func historicalDelayFactor(task *entity.Task, ctx ScoringContext) float64 {
	count, ok := ctx.HistoricalDelays[task.CurrentStatus]
	if !ok {
		return 50
	}
	switch {
	case count >= 10:
		return 90
	case count >= 5:
		return 70
	case count >= 2:
		return 50
	default:
		return 30
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
