package workflow

import "context"

// ConditionSet is the set of named auto-advance conditions an external party has confirmed
type ConditionSet map[string]struct{}

// NewConditionSet builds a set from names
func NewConditionSet(names ...string) ConditionSet {
	set := make(ConditionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has reports whether name is satisfied. A nil set satisfies nothing.
func (s ConditionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAll reports whether every name is satisfied
func (s ConditionSet) HasAll(names []string) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

type conditionsKey struct{}

// WithConditions attaches satisfied conditions to ctx for guard evaluation
func WithConditions(ctx context.Context, set ConditionSet) context.Context {
	return context.WithValue(ctx, conditionsKey{}, set)
}

// ConditionsFrom returns the conditions attached to ctx, or an empty set
func ConditionsFrom(ctx context.Context) ConditionSet {
	if ctx == nil {
		return ConditionSet{}
	}
	if set, ok := ctx.Value(conditionsKey{}).(ConditionSet); ok && set != nil {
		return set
	}
	return ConditionSet{}
}

// RequireConditions returns a guard that passes only when every name is satisfied.
// A guard over an empty list never passes: a step without conditions needs a human.
func RequireConditions(names []string) GuardFunc {
	required := append([]string(nil), names...)
	return func(ctx context.Context) bool {
		if len(required) == 0 {
			return false
		}
		return ConditionsFrom(ctx).HasAll(required)
	}
}
