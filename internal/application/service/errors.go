package service

import "errors"

var (
	// ErrSourceUnavailable is returned when the case-record source cannot be read
	ErrSourceUnavailable = errors.New("case record source unavailable")

	// ErrAutomationDisabled is returned when automation is switched off
	ErrAutomationDisabled = errors.New("automation is disabled")

	// ErrInvalidTransition is returned when a manual edit moves a task off its workflow
	ErrInvalidTransition = errors.New("status change is not a permitted workflow move")
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
