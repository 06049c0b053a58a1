package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerAdvance moves a step to its NextStatus on staff action
	TriggerAdvance Trigger = "ADVANCE"

	// TriggerAutoAdvance moves a step to its NextStatus once every auto-advance condition holds
	TriggerAutoAdvance Trigger = "AUTO_ADVANCE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
