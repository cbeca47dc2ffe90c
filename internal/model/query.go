package model

import "time"

// ReservationFilter narrows an admin search.  Nil fields do not filter;
// DateFrom and DateTo are inclusive.
type ReservationFilter struct {
	MemberID *uint64
	ThemeID  *uint64
	DateFrom *time.Time
	DateTo   *time.Time
}

// Matches reports whether r satisfies every set field of the filter.
func (f ReservationFilter) Matches(r Reservation) bool {
	if f.MemberID != nil && r.Member.ID != *f.MemberID {
		return false
	}
	if f.ThemeID != nil && r.Theme.ID != *f.ThemeID {
		return false
	}
	if f.DateFrom != nil && r.Date.Before(DateOf(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && r.Date.After(DateOf(*f.DateTo)) {
		return false
	}
	return true
}

// Period is an inclusive range of calendar dates.
type Period struct {
	From time.Time
	To   time.Time
}

// Contains reports whether date falls within the period, both ends included.
func (p Period) Contains(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(p.From)) && !d.After(DateOf(p.To))
}

// TrailingPeriod returns the `days` whole days that end the day before now.
func TrailingPeriod(now time.Time, days int) Period {
	today := DateOf(now)
	return Period{
		From: today.AddDate(0, 0, -days),
		To:   today.AddDate(0, 0, -1),
	}
}
