package workflow

import "strings"

// State is a workflow status. States are configuration data: any non-blank
// status string named by a Definition is a state.
type State string

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state can participate in a state machine
func (s State) IsValid() bool {
	return strings.TrimSpace(string(s)) != ""
}
