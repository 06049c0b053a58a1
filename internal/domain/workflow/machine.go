package workflow

import "context"

// StateMachine represents a state machine that tracks current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Evaluate returns the state the trigger leads to, without transitioning
	Evaluate(ctx context.Context, trigger Trigger) (State, error)

	// CanTransitionTo reports whether some trigger, or a skip, leads from the current state to target
	CanTransitionTo(target State) bool

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}
