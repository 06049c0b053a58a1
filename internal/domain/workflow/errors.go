package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state is not valid
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when a guard condition fails
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrInvalidDefinition is returned when a workflow definition is malformed
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// ErrInvalidRule is returned when an automation rule is malformed
	ErrInvalidRule = errors.New("invalid automation rule")
)
