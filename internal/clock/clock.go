// Package clock provides an abstraction for time operations to improve testability.
// Date-derived task fields depend on "now"; code takes a Clock instead of calling
// time.Now() directly so tests can pin the current instant.
package clock

import "time"

// Clock is an interface for time operations.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock returns the same instant on every call.
type FixedClock struct {
	At time.Time
}

// Now returns the fixed instant.
func (f FixedClock) Now() time.Time {
	return f.At
}

// Fixed returns a Clock pinned to t.
func Fixed(t time.Time) Clock {
	return FixedClock{At: t}
}

// OrReal returns c, or RealClock when c is nil.
func OrReal(c Clock) Clock {
	if c == nil {
		return RealClock{}
	}
	return c
}

var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
)
