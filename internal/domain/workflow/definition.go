package workflow

import (
	"fmt"
	"strings"

	"github.com/garyjia/calaim-taskhub/internal/domain/entity"
)

// Criticality classifies a status for the pathway-criticality priority factor
type Criticality string

const (
	CriticalityStandard   Criticality = "standard"
	CriticalityImportant  Criticality = "important"
	CriticalityCritical   Criticality = "critical"
	CriticalityCompletion Criticality = "completion"
)

// StatusProfile is everything the system knows about a single status.
// It replaces the separate next-action, estimate, style, complexity and criticality tables.
type StatusProfile struct {
	Status        string      `yaml:"status" json:"status" validate:"required"`
	NextAction    string      `yaml:"next_action" json:"next_action"`
	EstimatedDays int         `yaml:"estimated_days" json:"estimated_days" validate:"gte=0"`
	Criticality   Criticality `yaml:"criticality" json:"criticality" validate:"omitempty,oneof=standard important critical completion"`
	Complex       bool        `yaml:"complex" json:"complex"`
	Color         string      `yaml:"color" json:"color"`
	Icon          string      `yaml:"icon" json:"icon"`
}

// Step is one position in a workflow chain
type Step struct {
	StatusProfile `yaml:",inline"`

	NextStatus            string   `yaml:"next_status" json:"next_status,omitempty"`
	RecommendedDays       int      `yaml:"recommended_days" json:"recommended_days" validate:"gte=0"`
	RequiredActions       []string `yaml:"required_actions" json:"required_actions"`
	AutoAdvanceConditions []string `yaml:"auto_advance_conditions" json:"auto_advance_conditions"`
	CanSkip               bool     `yaml:"can_skip" json:"can_skip"`
	Description           string   `yaml:"description" json:"description"`
}

// IsTerminal reports whether the step has no successor
func (s *Step) IsTerminal() bool {
	return s.NextStatus == ""
}

// Definition is the ordered workflow for one health plan
type Definition struct {
	HealthPlan         entity.HealthPlan `yaml:"health_plan" json:"health_plan" validate:"required"`
	Name               string            `yaml:"name" json:"name"`
	Steps              []Step            `yaml:"steps" json:"steps" validate:"required,min=1,dive"`
	CompletionCriteria []string          `yaml:"completion_criteria" json:"completion_criteria" validate:"required,min=1"`

	// AuxiliaryStatuses are statuses outside the chain (holds, revisions) that still need a profile
	AuxiliaryStatuses []StatusProfile `yaml:"auxiliary_statuses" json:"auxiliary_statuses,omitempty" validate:"omitempty,dive"`
}

// Step returns the step for status and its index in the chain
func (d *Definition) Step(status string) (*Step, int, bool) {
	for i := range d.Steps {
		if d.Steps[i].Status == status {
			return &d.Steps[i], i, true
		}
	}
	return nil, -1, false
}

// IsCompletion reports whether status is one of the definition's completion states
func (d *Definition) IsCompletion(status string) bool {
	for _, c := range d.CompletionCriteria {
		if c == status {
			return true
		}
	}
	return false
}

// Profile returns the profile for a chain or auxiliary status
func (d *Definition) Profile(status string) (StatusProfile, bool) {
	if step, _, ok := d.Step(status); ok {
		return step.StatusProfile, true
	}
	for _, p := range d.AuxiliaryStatuses {
		if p.Status == status {
			return p, true
		}
	}
	return StatusProfile{}, false
}

// Validate checks structural invariants: unique statuses, a strictly linear chain whose
// links resolve, and completion states that exist and are terminal.
func (d *Definition) Validate() error {
	if strings.TrimSpace(string(d.HealthPlan)) == "" {
		return fmt.Errorf("%w: missing health plan", ErrInvalidDefinition)
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("%w: %s has no steps", ErrInvalidDefinition, d.HealthPlan)
	}

	seen := make(map[string]bool, len(d.Steps))
	for _, s := range d.Steps {
		if !State(s.Status).IsValid() {
			return fmt.Errorf("%w: %s has a step without a status", ErrInvalidDefinition, d.HealthPlan)
		}
		if seen[s.Status] {
			return fmt.Errorf("%w: %s has duplicate status %q", ErrInvalidDefinition, d.HealthPlan, s.Status)
		}
		seen[s.Status] = true
	}

	incoming := make(map[string]int, len(d.Steps))
	for _, s := range d.Steps {
		if s.IsTerminal() {
			continue
		}
		if !seen[s.NextStatus] {
			return fmt.Errorf("%w: %s step %q points to unknown status %q", ErrInvalidDefinition, d.HealthPlan, s.Status, s.NextStatus)
		}
		incoming[s.NextStatus]++
		if incoming[s.NextStatus] > 1 {
			return fmt.Errorf("%w: %s status %q has more than one predecessor", ErrInvalidDefinition, d.HealthPlan, s.NextStatus)
		}
	}

	if len(d.CompletionCriteria) == 0 {
		return fmt.Errorf("%w: %s has no completion criteria", ErrInvalidDefinition, d.HealthPlan)
	}
	for _, c := range d.CompletionCriteria {
		step, _, ok := d.Step(c)
		if !ok {
			return fmt.Errorf("%w: %s completion status %q is not a step", ErrInvalidDefinition, d.HealthPlan, c)
		}
		if !step.IsTerminal() {
			return fmt.Errorf("%w: %s completion status %q has a next status", ErrInvalidDefinition, d.HealthPlan, c)
		}
	}

	for _, p := range d.AuxiliaryStatuses {
		if seen[p.Status] {
			return fmt.Errorf("%w: %s auxiliary status %q is also a step", ErrInvalidDefinition, d.HealthPlan, p.Status)
		}
	}
	return nil
}

// Compile turns the definition into a state machine builder
func (d *Definition) Compile() StateMachineBuilder {
	builder := NewBuilder()
	for _, s := range d.Steps {
		cfg := builder.Configure(State(s.Status))
		if !s.IsTerminal() {
			cfg.Permit(TriggerAdvance, State(s.NextStatus))
			cfg.PermitIf(TriggerAutoAdvance, State(s.NextStatus), RequireConditions(s.AutoAdvanceConditions))
		}
		if s.CanSkip {
			cfg.AllowSkip()
		}
	}
	return builder
}
