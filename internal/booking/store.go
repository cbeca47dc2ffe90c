package booking

import (
	"context"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/queue"
)

// ReservationStore persists reservations.  InsertReserved, InsertWaiting
// and Promote check their preconditions atomically with the write and
// report violations with the repository sentinel errors.
type ReservationStore interface {
	InsertReserved(ctx context.Context, r model.Reservation) (model.Reservation, error)
	InsertWaiting(ctx context.Context, r model.Reservation) (model.Reservation, error)
	Promote(ctx context.Context, id uint64) (model.Reservation, error)
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (model.Reservation, error)
	Find(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error)
	FindByMember(ctx context.Context, memberID uint64) ([]model.Reservation, error)
	FindByDateAndTheme(ctx context.Context, date time.Time, themeID uint64) ([]model.Reservation, error)
	WaitingQueue(ctx context.Context, slot model.Slot) ([]model.Reservation, error)
	FindWaitingFrom(ctx context.Context, date time.Time) ([]model.Reservation, error)
	ExistsByTimeSlot(ctx context.Context, timeID uint64) (bool, error)
	ExistsByTheme(ctx context.Context, themeID uint64) (bool, error)
}

// TimeSlotStore is the time slot half of the catalog.
type TimeSlotStore interface {
	Create(ctx context.Context, startAt string) (model.TimeSlot, error)
	FindByID(ctx context.Context, id uint64) (model.TimeSlot, error)
	FindAll(ctx context.Context) ([]model.TimeSlot, error)
	Delete(ctx context.Context, id uint64) error
}

// ThemeStore is the theme half of the catalog.
type ThemeStore interface {
	Create(ctx context.Context, th model.Theme) (model.Theme, error)
	FindByID(ctx context.Context, id uint64) (model.Theme, error)
	FindAll(ctx context.Context) ([]model.Theme, error)
	Delete(ctx context.Context, id uint64) error
}

// MemberStore resolves the member a reservation is made for.
type MemberStore interface {
	FindByID(ctx context.Context, id uint64) (model.Member, error)
}

// EventPublisher receives reservation events.  Publishing is best effort:
// a failure is logged and never undoes the reservation change.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}
