package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Reservation records a member's booking, or waitlist entry, for one
// (date, time slot, theme) triple.  The status is only readable through
// Status() and only changes through Promote(), so a confirmed reservation
// can never be turned back into a waitlist entry.
//
// Fields:
//  ID        – primary key identifier, assigned by the store.
//  Date      – calendar date, midnight UTC.
//  Time      – the booked time slot.
//  Theme     – the booked theme.
//  Member    – the member holding the reservation.
//  CreatedAt – creation timestamp; orders the waitlist together with ID.
type Reservation struct {
	ID        uint64    // reservations.id
	Date      time.Time // reservations.date
	Time      TimeSlot  // reservations.time_id
	Theme     Theme     // reservations.theme_id
	Member    Member    // reservations.member_id
	CreatedAt time.Time // reservations.created_at
	status    Status    // reservations.status
}

// NewReservation builds a reservation in the given status.  The date is
// truncated to its calendar day.
func NewReservation(id uint64, date time.Time, slot TimeSlot, theme Theme, member Member, status Status, createdAt time.Time) (Reservation, error) {
	if _, err := ParseStatus(string(status)); err != nil {
		return Reservation{}, err
	}
	return Reservation{
		ID:        id,
		Date:      DateOf(date),
		Time:      slot,
		Theme:     theme,
		Member:    member,
		CreatedAt: createdAt,
		status:    status,
	}, nil
}

// Status returns the reservation's current lifecycle state.
func (r Reservation) Status() Status { return r.status }

// IsWaiting reports whether the reservation is a waitlist entry.
func (r Reservation) IsWaiting() bool { return r.status == StatusWaited }

// Promote moves a waitlist entry to RESERVED.
func (r *Reservation) Promote() error {
	if r.status != StatusWaited {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, StatusReserved)
	}
	r.status = StatusReserved
	return nil
}

// Slot returns the triple the reservation competes for.
func (r Reservation) Slot() Slot {
	return Slot{Date: r.Date, TimeID: r.Time.ID, ThemeID: r.Theme.ID}
}

// Slot identifies one bookable unit: a date, a time slot and a theme.
type Slot struct {
	Date    time.Time
	TimeID  uint64
	ThemeID uint64
}

// DateOf truncates t to midnight UTC of its calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
