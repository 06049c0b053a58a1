package prioritizer

import (
	"errors"
	"fmt"

	"github.com/garyjia/calaim-taskhub/pkg/utils"
)

// ErrInvalidConfig is returned when weights or thresholds are unusable
var ErrInvalidConfig = errors.New("invalid priority configuration")

// weightSumTolerance absorbs float rounding in hand-written weight sets
const weightSumTolerance = 1e-9

// Weights scale the five priority factors. They must sum to at most 1.
type Weights struct {
	DaysOverdue        float64 `mapstructure:"days_overdue" json:"days_overdue" validate:"gte=0,lte=1"`
	MemberComplexity   float64 `mapstructure:"member_complexity" json:"member_complexity" validate:"gte=0,lte=1"`
	StaffWorkload      float64 `mapstructure:"staff_workload" json:"staff_workload" validate:"gte=0,lte=1"`
	PathwayCriticality float64 `mapstructure:"pathway_criticality" json:"pathway_criticality" validate:"gte=0,lte=1"`
	HistoricalDelay    float64 `mapstructure:"historical_delay" json:"historical_delay" validate:"gte=0,lte=1"`
}

// Sum returns the total weight
func (w Weights) Sum() float64 {
	return w.DaysOverdue + w.MemberComplexity + w.StaffWorkload + w.PathwayCriticality + w.HistoricalDelay
}

// Thresholds are the minimum scores for each tier; they must strictly decrease
type Thresholds struct {
	Critical float64 `mapstructure:"critical" json:"critical" validate:"gte=0,lte=100"`
	High     float64 `mapstructure:"high" json:"high" validate:"gte=0,lte=100"`
	Medium   float64 `mapstructure:"medium" json:"medium" validate:"gte=0,lte=100"`
}

// Config holds the scoring configuration
type Config struct {
	Weights    Weights    `mapstructure:"weights" json:"weights"`
	Thresholds Thresholds `mapstructure:"thresholds" json:"thresholds"`
}

// DefaultConfig returns the standard weights and tier thresholds
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			DaysOverdue:        0.40,
			MemberComplexity:   0.20,
			StaffWorkload:      0.15,
			PathwayCriticality: 0.15,
			HistoricalDelay:    0.10,
		},
		Thresholds: Thresholds{
			Critical: 85,
			High:     65,
			Medium:   35,
		},
	}
}

// Validate rejects weights outside [0,1], weight sums above 1, and non-decreasing thresholds
func (c Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if sum := c.Weights.Sum(); sum > 1+weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %.4f, must not exceed 1", ErrInvalidConfig, sum)
	}
	t := c.Thresholds
	if !(t.Critical > t.High && t.High > t.Medium) {
		return fmt.Errorf("%w: thresholds must strictly decrease (critical %.1f, high %.1f, medium %.1f)",
			ErrInvalidConfig, t.Critical, t.High, t.Medium)
	}
	return nil
}
