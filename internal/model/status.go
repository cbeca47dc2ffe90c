package model

import (
	"errors"
	"fmt"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	// StatusReserved is a confirmed booking.  At most one exists per slot.
	StatusReserved Status = "RESERVED"
	// StatusWaited is a waitlist entry queued behind a confirmed booking.
	StatusWaited Status = "WAITED"
)

// ErrInvalidTransition is returned when a status change other than
// WAITED -> RESERVED is attempted.
var ErrInvalidTransition = errors.New("invalid reservation status transition")

// ParseStatus converts a stored value into a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusReserved, StatusWaited:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown reservation status %q", s)
}

func (s Status) String() string { return string(s) }
