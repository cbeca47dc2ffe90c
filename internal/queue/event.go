// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/roomescape/internal/model"
)

// ReservationEventsQueue is the durable queue reservation events go to.
const ReservationEventsQueue = "reservation.events"

// EventType names what happened to a reservation.
type EventType string

const (
	EventCreated   EventType = "reservation.created"
	EventWaited    EventType = "reservation.waited"
	EventCancelled EventType = "reservation.cancelled"
	EventPromoted  EventType = "reservation.promoted"
)

// ReservationEvent is published after a reservation changes.  It carries
// enough of the reservation for consumers to log or notify without
// querying the primary database.
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          EventType `json:"type"`
	ReservationID uint64    `json:"reservation_id"`
	Status        string    `json:"status"`
	Date          string    `json:"date"`
	TimeID        uint64    `json:"time_id"`
	StartAt       string    `json:"start_at"`
	ThemeID       uint64    `json:"theme_id"`
	ThemeName     string    `json:"theme_name"`
	MemberID      uint64    `json:"member_id"`
	MemberName    string    `json:"member_name"`
	OccurredAt    string    `json:"occurred_at"`
}

// NewReservationEvent snapshots r under a fresh event id.
func NewReservationEvent(typ EventType, r model.Reservation, at time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		Status:        string(r.Status()),
		Date:          r.Date.Format(model.DateLayout),
		TimeID:        r.Time.ID,
		StartAt:       r.Time.StartAt,
		ThemeID:       r.Theme.ID,
		ThemeName:     r.Theme.Name,
		MemberID:      r.Member.ID,
		MemberName:    r.Member.Name,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
