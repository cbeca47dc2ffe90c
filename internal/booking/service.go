// Package booking implements the reservation and waitlist rules: who may
// book a slot, who may queue behind a booking, and when a queued member
// may be promoted.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/roomescape/internal/clock"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/queue"
	"github.com/iliyamo/roomescape/internal/repository"
)

const publishTimeout = 5 * time.Second

// Service is the booking engine.  It is safe for concurrent use; the
// exclusivity rules are enforced by the ReservationStore.
type Service struct {
	reservations ReservationStore
	times        TimeSlotStore
	themes       ThemeStore
	members      MemberStore
	clock        clock.Clock
	events       EventPublisher
	log          *zap.Logger
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithEvents publishes an event after every successful reservation change.
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l.With(zap.String("component", "booking"))
		}
	}
}

// NewService wires the engine to its stores and clock.
func NewService(r ReservationStore, t TimeSlotStore, th ThemeStore, m MemberStore, clk clock.Clock, opts ...Option) *Service {
	s := &Service{
		reservations: r,
		times:        t,
		themes:       th,
		members:      m,
		clock:        clk,
		log:          zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Request names the slot and member of a booking or waitlist request.
type Request struct {
	Date     time.Time
	TimeID   uint64
	ThemeID  uint64
	MemberID uint64
}

// Create confirms a reservation for a free slot.
func (s *Service) Create(ctx context.Context, req Request) (model.Reservation, error) {
	draft, err := s.draft(ctx, req, model.StatusReserved)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := s.reservations.InsertReserved(ctx, draft)
	if err != nil {
		return model.Reservation{}, s.translate("create", err)
	}
	s.log.Info("reservation created",
		zap.Uint64("reservation_id", res.ID), zap.Uint64("member_id", res.Member.ID),
		zap.String("date", res.Date.Format(model.DateLayout)), zap.String("start_at", res.Time.StartAt))
	s.publish(queue.EventCreated, res)
	return res, nil
}

// CreateWaiting queues the member behind the confirmed reservation of a slot.
func (s *Service) CreateWaiting(ctx context.Context, req Request) (model.Reservation, error) {
	draft, err := s.draft(ctx, req, model.StatusWaited)
	if err != nil {
		return model.Reservation{}, err
	}
	res, err := s.reservations.InsertWaiting(ctx, draft)
	if err != nil {
		return model.Reservation{}, s.translate("create waiting", err)
	}
	s.log.Info("waiting created",
		zap.Uint64("reservation_id", res.ID), zap.Uint64("member_id", res.Member.ID))
	s.publish(queue.EventWaited, res)
	return res, nil
}

// draft resolves the request's references and checks that the slot has not
// started yet.
func (s *Service) draft(ctx context.Context, req Request, status model.Status) (model.Reservation, error) {
	slot, err := s.times.FindByID(ctx, req.TimeID)
	if err != nil {
		return model.Reservation{}, notFoundOr(err, errTimeNotFound, "find time slot")
	}
	theme, err := s.themes.FindByID(ctx, req.ThemeID)
	if err != nil {
		return model.Reservation{}, notFoundOr(err, errThemeNotFound, "find theme")
	}
	member, err := s.members.FindByID(ctx, req.MemberID)
	if err != nil {
		return model.Reservation{}, notFoundOr(err, errMemberNotFound, "find member")
	}
	now := s.clock.Now()
	if err := checkTiming(req.Date, slot, now); err != nil {
		return model.Reservation{}, err
	}
	return model.NewReservation(0, req.Date, slot, theme, member, status, now.UTC())
}

// checkTiming rejects a slot whose start lies before now.  A slot starting
// exactly now is still bookable.
func checkTiming(date time.Time, slot model.TimeSlot, now time.Time) error {
	start, err := slot.On(date, now.Location())
	if err != nil {
		return err
	}
	if start.Before(now) {
		return errInvalidTiming
	}
	return nil
}

// Cancel deletes a reservation.  Cancelling a missing reservation succeeds.
// Waiting members are not promoted automatically.
func (s *Service) Cancel(ctx context.Context, id uint64) error {
	res, err := s.reservations.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("booking: cancel: %w", err)
	}
	return s.remove(ctx, res)
}

// CancelOwn deletes a reservation on behalf of its member.  Another
// member's reservation yields repository.ErrForbidden.
func (s *Service) CancelOwn(ctx context.Context, id, memberID uint64) error {
	res, err := s.reservations.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("booking: cancel: %w", err)
	}
	if res.Member.ID != memberID {
		return repository.ErrForbidden
	}
	return s.remove(ctx, res)
}

func (s *Service) remove(ctx context.Context, res model.Reservation) error {
	if err := s.reservations.Delete(ctx, res.ID); err != nil {
		return fmt.Errorf("booking: cancel: %w", err)
	}
	s.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", res.ID), zap.String("status", res.Status().String()))
	s.publish(queue.EventCancelled, res)
	return nil
}

// Promote turns a waitlist entry into the slot's confirmed reservation.
// The slot's previous confirmed reservation must have been cancelled.
func (s *Service) Promote(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := s.reservations.Promote(ctx, id)
	if err != nil {
		return model.Reservation{}, s.translate("promote", err)
	}
	s.log.Info("waiting promoted", zap.Uint64("reservation_id", res.ID), zap.Uint64("member_id", res.Member.ID))
	s.publish(queue.EventPromoted, res)
	return res, nil
}

// ListForMember returns the member's reservations and waitlist entries in
// id order, each waitlist entry with its current rank.
func (s *Service) ListForMember(ctx context.Context, memberID uint64) ([]MemberReservation, error) {
	rows, err := s.reservations.FindByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("booking: list member reservations: %w", err)
	}
	queues := map[model.Slot][]model.Reservation{}
	out := make([]MemberReservation, 0, len(rows))
	for _, r := range rows {
		item := MemberReservation{Reservation: r}
		if r.IsWaiting() {
			slot := r.Slot()
			q, ok := queues[slot]
			if !ok {
				q, err = s.reservations.WaitingQueue(ctx, slot)
				if err != nil {
					return nil, fmt.Errorf("booking: waiting queue: %w", err)
				}
				queues[slot] = q
			}
			item.Rank = WaitingRank(q, r.ID)
		}
		out = append(out, item)
	}
	return out, nil
}

// SlotAvailability reports whether a time slot already has any
// reservation, confirmed or waiting, for a date and theme.
type SlotAvailability struct {
	Time          model.TimeSlot
	AlreadyBooked bool
}

// Availability lists every catalog time slot for date and theme.
func (s *Service) Availability(ctx context.Context, date time.Time, themeID uint64) ([]SlotAvailability, error) {
	slots, err := s.times.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: list time slots: %w", err)
	}
	booked, err := s.reservations.FindByDateAndTheme(ctx, date, themeID)
	if err != nil {
		return nil, fmt.Errorf("booking: list reservations: %w", err)
	}
	taken := make(map[uint64]bool, len(booked))
	for _, r := range booked {
		taken[r.Time.ID] = true
	}
	out := make([]SlotAvailability, 0, len(slots))
	for _, ts := range slots {
		out = append(out, SlotAvailability{Time: ts, AlreadyBooked: taken[ts.ID]})
	}
	return out, nil
}

// ListReservations runs an admin search.
func (s *Service) ListReservations(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	out, err := s.reservations.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("booking: find reservations: %w", err)
	}
	return out, nil
}

// ListWaiting returns every waitlist entry dated today or later.
func (s *Service) ListWaiting(ctx context.Context) ([]model.Reservation, error) {
	out, err := s.reservations.FindWaitingFrom(ctx, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("booking: find waiting: %w", err)
	}
	return out, nil
}

// translate maps store sentinels to booking errors.
func (s *Service) translate(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		return errSlotTaken
	case errors.Is(err, repository.ErrSlotOpen):
		return errSlotOpen
	case errors.Is(err, repository.ErrAlreadyReserved):
		return errAlreadyReserved
	case errors.Is(err, repository.ErrAlreadyWaiting):
		return errAlreadyWaiting
	case errors.Is(err, repository.ErrSlotHeld):
		return errSlotStillReserved
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrNotWaiting):
		return errWaitingNotFound
	}
	s.log.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("booking: %s: %w", op, err)
}

func notFoundOr(err error, notFound *Error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("booking: %s: %w", op, err)
}

// publish hands the event to the publisher without blocking the caller.
func (s *Service) publish(typ queue.EventType, r model.Reservation) {
	if s.events == nil {
		return
	}
	ev := queue.NewReservationEvent(typ, r, s.clock.Now())
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := s.events.Publish(ctx, ev); err != nil {
			s.log.Warn("publish event failed",
				zap.String("type", string(ev.Type)), zap.Uint64("reservation_id", ev.ReservationID), zap.Error(err))
		}
	}()
}
