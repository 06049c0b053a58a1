package taskstate

import "errors"

var (
	// ErrTaskNotFound is returned when an action names a task id that is not loaded
	ErrTaskNotFound = errors.New("task not found")

	// ErrUnknownAction is returned for action types the reducer does not handle
	ErrUnknownAction = errors.New("unknown action")

	// ErrLoadInProgress is returned when a load is requested while another is running
	ErrLoadInProgress = errors.New("load already in progress")
)
