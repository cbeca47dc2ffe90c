package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
)

func TestMemoryMembersEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if _, err := s.Members().Create(ctx, model.Member{Name: "a", Email: "A@Example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Members().Create(ctx, model.Member{Name: "b", Email: " a@example.com"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists, got %v", err)
	}
	m, err := s.Members().FindByEmail(ctx, "a@EXAMPLE.com")
	if err != nil || m.Name != "a" {
		t.Fatalf("find by email: %+v %v", m, err)
	}
	if _, err := s.Members().FindByID(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryReservationPreconditions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	ts, _ := s.TimeSlots().Create(ctx, "10:00")
	th, _ := s.Themes().Create(ctx, model.Theme{Name: "t"})
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	mk := func(member uint64, st model.Status) model.Reservation {
		r, err := model.NewReservation(0, date, ts, th, model.Member{ID: member}, st, time.Time{})
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		return r
	}
	rs := s.Reservations()

	if _, err := rs.InsertWaiting(ctx, mk(2, model.StatusWaited)); !errors.Is(err, ErrSlotOpen) {
		t.Fatalf("waiting on open slot: %v", err)
	}
	held, err := rs.InsertReserved(ctx, mk(1, model.StatusReserved))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if _, err := rs.InsertReserved(ctx, mk(2, model.StatusReserved)); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("second reserve: %v", err)
	}
	if _, err := rs.InsertWaiting(ctx, mk(1, model.StatusWaited)); !errors.Is(err, ErrAlreadyReserved) {
		t.Fatalf("holder waiting: %v", err)
	}
	w, err := rs.InsertWaiting(ctx, mk(2, model.StatusWaited))
	if err != nil {
		t.Fatalf("waiting: %v", err)
	}
	if _, err := rs.InsertWaiting(ctx, mk(2, model.StatusWaited)); !errors.Is(err, ErrAlreadyWaiting) {
		t.Fatalf("double waiting: %v", err)
	}
	if _, err := rs.Promote(ctx, w.ID); !errors.Is(err, ErrSlotHeld) {
		t.Fatalf("promote while held: %v", err)
	}
	if _, err := rs.Promote(ctx, held.ID); !errors.Is(err, ErrSlotHeld) {
		t.Fatalf("promote reserved: %v", err)
	}
	if err := s.TimeSlots().Delete(ctx, ts.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete used slot: %v", err)
	}
	if err := rs.Delete(ctx, held.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	p, err := rs.Promote(ctx, w.ID)
	if err != nil || p.Status() != model.StatusReserved {
		t.Fatalf("promote: %+v %v", p, err)
	}
	q, _ := rs.WaitingQueue(ctx, p.Slot())
	if len(q) != 0 {
		t.Fatalf("queue should be empty: %+v", q)
	}
}
