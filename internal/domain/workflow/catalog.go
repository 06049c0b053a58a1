package workflow

import "github.com/garyjia/calaim-taskhub/internal/domain/entity"

// Catalog resolves status profiles across all workflow definitions
type Catalog struct {
	byPlan map[entity.HealthPlan]map[string]StatusProfile
	any    map[string]StatusProfile
}

// NewCatalog indexes the profiles of defs. When two plans share a status, the
// first definition wins the plan-agnostic lookup.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{
		byPlan: make(map[entity.HealthPlan]map[string]StatusProfile, len(defs)),
		any:    make(map[string]StatusProfile),
	}

	add := func(plan entity.HealthPlan, p StatusProfile) {
		if c.byPlan[plan] == nil {
			c.byPlan[plan] = make(map[string]StatusProfile)
		}
		c.byPlan[plan][p.Status] = p
		if _, exists := c.any[p.Status]; !exists {
			c.any[p.Status] = p
		}
	}

	for i := range defs {
		for _, s := range defs[i].Steps {
			add(defs[i].HealthPlan, s.StatusProfile)
		}
		for _, p := range defs[i].AuxiliaryStatuses {
			add(defs[i].HealthPlan, p)
		}
	}
	return c
}

// Lookup returns the profile for (plan, status), then for status in any plan
func (c *Catalog) Lookup(plan entity.HealthPlan, status string) (StatusProfile, bool) {
	if p, ok := c.byPlan[plan][status]; ok {
		return p, true
	}
	p, ok := c.any[status]
	return p, ok
}

// Profile is Lookup with the generic fallback profile for unknown statuses
func (c *Catalog) Profile(plan entity.HealthPlan, status string) StatusProfile {
	if p, ok := c.Lookup(plan, status); ok {
		return withDefaults(p)
	}
	return genericProfile(status)
}

// withDefaults fills display and action gaps left by partial YAML profiles
func withDefaults(p StatusProfile) StatusProfile {
	if p.NextAction == "" {
		p.NextAction = DefaultNextAction
	}
	if p.Criticality == "" {
		p.Criticality = CriticalityStandard
	}
	if p.Color == "" {
		p.Color = defaultColor
	}
	if p.Icon == "" {
		p.Icon = defaultIcon
	}
	return p
}
