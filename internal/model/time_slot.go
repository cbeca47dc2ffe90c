package model

import (
	"fmt"
	"time"
)

// StartAtLayout is the wire and storage layout of a time slot's start.
const StartAtLayout = "15:04"

// TimeSlot is one bookable start time of day (for example 10:00).  Time
// slots are shared by every theme.
//
// Fields:
//  ID      – primary key identifier.
//  StartAt – start of the slot formatted as HH:MM.
type TimeSlot struct {
	ID      uint64 // reservation_times.id
	StartAt string // reservation_times.start_at
}

// ParseStartAt validates an HH:MM string and returns it normalised.
func ParseStartAt(s string) (string, error) {
	t, err := time.Parse(StartAtLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid start time %q: %w", s, err)
	}
	return t.Format(StartAtLayout), nil
}

// On combines the slot's start with a calendar date in loc.  Only the
// year, month and day of date are used.
func (t TimeSlot) On(date time.Time, loc *time.Location) (time.Time, error) {
	hm, err := time.Parse(StartAtLayout, t.StartAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("time slot %d: %w", t.ID, err)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, hm.Hour(), hm.Minute(), 0, 0, loc), nil
}
