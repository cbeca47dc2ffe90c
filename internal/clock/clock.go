// Package clock supplies the current instant to the booking engine so that
// timing rules can be exercised deterministically in tests.
package clock

import "time"

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System reads the wall clock in a fixed location.  A nil Location means
// time.Local.
type System struct {
	Location *time.Location
}

// Now returns the wall-clock time converted into the configured location.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fixed always reports the same instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }
