package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
)

// MemoryStore keeps members, time slots, themes and reservations in process
// memory.  It backs STORE_DRIVER=memory and the tests.  One mutex guards all
// four tables so that a reservation write sees a consistent catalog and the
// check-then-insert sequences are atomic.
type MemoryStore struct {
	mu           sync.RWMutex
	nextID       map[string]uint64
	members      map[uint64]model.Member
	times        map[uint64]model.TimeSlot
	themes       map[uint64]model.Theme
	reservations map[uint64]model.Reservation
	now          func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:       map[string]uint64{},
		members:      map[uint64]model.Member{},
		times:        map[uint64]model.TimeSlot{},
		themes:       map[uint64]model.Theme{},
		reservations: map[uint64]model.Reservation{},
		now:          time.Now,
	}
}

func (s *MemoryStore) allocID(table string) uint64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Members returns the member table view.
func (s *MemoryStore) Members() *MemoryMembers { return &MemoryMembers{s: s} }

// TimeSlots returns the time slot table view.
func (s *MemoryStore) TimeSlots() *MemoryTimeSlots { return &MemoryTimeSlots{s: s} }

// Themes returns the theme table view.
func (s *MemoryStore) Themes() *MemoryThemes { return &MemoryThemes{s: s} }

// Reservations returns the reservation table view.
func (s *MemoryStore) Reservations() *MemoryReservations { return &MemoryReservations{s: s} }

// ----- members -----

type MemoryMembers struct{ s *MemoryStore }

func (m *MemoryMembers) Create(_ context.Context, mem model.Member) (model.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	mem.Email = strings.ToLower(strings.TrimSpace(mem.Email))
	for _, existing := range m.s.members {
		if existing.Email == mem.Email {
			return model.Member{}, ErrEmailExists
		}
	}
	mem.ID = m.s.allocID("members")
	mem.CreatedAt = m.s.now().UTC()
	m.s.members[mem.ID] = mem
	return mem, nil
}

func (m *MemoryMembers) FindByID(_ context.Context, id uint64) (model.Member, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	mem, ok := m.s.members[id]
	if !ok {
		return model.Member{}, ErrNotFound
	}
	return mem, nil
}

func (m *MemoryMembers) FindByEmail(_ context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, mem := range m.s.members {
		if mem.Email == email {
			return mem, nil
		}
	}
	return model.Member{}, ErrNotFound
}

// ----- time slots -----

type MemoryTimeSlots struct{ s *MemoryStore }

func (t *MemoryTimeSlots) Create(_ context.Context, startAt string) (model.TimeSlot, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, ts := range t.s.times {
		if ts.StartAt == startAt {
			return model.TimeSlot{}, ErrConflict
		}
	}
	ts := model.TimeSlot{ID: t.s.allocID("times"), StartAt: startAt}
	t.s.times[ts.ID] = ts
	return ts, nil
}

func (t *MemoryTimeSlots) FindByID(_ context.Context, id uint64) (model.TimeSlot, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	ts, ok := t.s.times[id]
	if !ok {
		return model.TimeSlot{}, ErrNotFound
	}
	return ts, nil
}

// FindAll lists time slots ordered by start time.
func (t *MemoryTimeSlots) FindAll(_ context.Context) ([]model.TimeSlot, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]model.TimeSlot, 0, len(t.s.times))
	for _, ts := range t.s.times {
		out = append(out, ts)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartAt != out[j].StartAt {
			return out[i].StartAt < out[j].StartAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes a time slot.  A referenced slot yields ErrInUse, a
// missing one is not an error.
func (t *MemoryTimeSlots) Delete(_ context.Context, id uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, r := range t.s.reservations {
		if r.Time.ID == id {
			return ErrInUse
		}
	}
	delete(t.s.times, id)
	return nil
}

// ----- themes -----

type MemoryThemes struct{ s *MemoryStore }

func (t *MemoryThemes) Create(_ context.Context, th model.Theme) (model.Theme, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, existing := range t.s.themes {
		if existing.Name == th.Name {
			return model.Theme{}, ErrConflict
		}
	}
	th.ID = t.s.allocID("themes")
	t.s.themes[th.ID] = th
	return th, nil
}

func (t *MemoryThemes) FindByID(_ context.Context, id uint64) (model.Theme, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	th, ok := t.s.themes[id]
	if !ok {
		return model.Theme{}, ErrNotFound
	}
	return th, nil
}

func (t *MemoryThemes) FindAll(_ context.Context) ([]model.Theme, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	out := make([]model.Theme, 0, len(t.s.themes))
	for _, th := range t.s.themes {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *MemoryThemes) Delete(_ context.Context, id uint64) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, r := range t.s.reservations {
		if r.Theme.ID == id {
			return ErrInUse
		}
	}
	delete(t.s.themes, id)
	return nil
}

// ----- reservations -----

type MemoryReservations struct{ s *MemoryStore }

// slotRows returns every reservation competing for slot.  Callers hold the lock.
func (r *MemoryReservations) slotRows(slot model.Slot) []model.Reservation {
	var out []model.Reservation
	for _, res := range r.s.reservations {
		if res.Slot() == slot {
			out = append(out, res)
		}
	}
	sortByID(out)
	return out
}

func (r *MemoryReservations) insert(res model.Reservation) model.Reservation {
	res.ID = r.s.allocID("reservations")
	if res.CreatedAt.IsZero() {
		res.CreatedAt = r.s.now().UTC()
	}
	r.s.reservations[res.ID] = res
	return res
}

// InsertReserved stores a RESERVED reservation unless the slot is already
// held.  A member already waiting on the slot gets ErrAlreadyWaiting.
func (r *MemoryReservations) InsertReserved(_ context.Context, res model.Reservation) (model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.slotRows(res.Slot()) {
		if other.Status() == model.StatusReserved {
			return model.Reservation{}, ErrSlotTaken
		}
		if other.Member.ID == res.Member.ID {
			return model.Reservation{}, ErrAlreadyWaiting
		}
	}
	return r.insert(res), nil
}

// InsertWaiting stores a WAITED reservation.  The slot must be held, and
// the member must not hold it or wait on it already; the checks run in
// that order.
func (r *MemoryReservations) InsertWaiting(_ context.Context, res model.Reservation) (model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rows := r.slotRows(res.Slot())
	if err := waitingPrecondition(rows, res.Member.ID); err != nil {
		return model.Reservation{}, err
	}
	return r.insert(res), nil
}

// Promote confirms a waitlist entry once the slot is free.  While any
// RESERVED row remains on the slot, including the target itself, it
// reports ErrSlotHeld.
func (r *MemoryReservations) Promote(_ context.Context, id uint64) (model.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	// a RESERVED target finds itself here
	for _, other := range r.slotRows(res.Slot()) {
		if other.Status() == model.StatusReserved {
			return model.Reservation{}, ErrSlotHeld
		}
	}
	if !res.IsWaiting() {
		return model.Reservation{}, ErrNotWaiting
	}
	if err := res.Promote(); err != nil {
		return model.Reservation{}, err
	}
	r.s.reservations[id] = res
	return res, nil
}

// Delete removes a reservation.  Deleting a missing id is not an error.
func (r *MemoryReservations) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.reservations, id)
	return nil
}

func (r *MemoryReservations) FindByID(_ context.Context, id uint64) (model.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	res, ok := r.s.reservations[id]
	if !ok {
		return model.Reservation{}, ErrNotFound
	}
	return res, nil
}

func (r *MemoryReservations) filter(keep func(model.Reservation) bool) []model.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Reservation{}
	for _, res := range r.s.reservations {
		if keep(res) {
			out = append(out, res)
		}
	}
	sortByID(out)
	return out
}

func (r *MemoryReservations) Find(_ context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	return r.filter(f.Matches), nil
}

func (r *MemoryReservations) FindByMember(_ context.Context, memberID uint64) ([]model.Reservation, error) {
	return r.filter(func(res model.Reservation) bool { return res.Member.ID == memberID }), nil
}

func (r *MemoryReservations) FindByDateAndTheme(_ context.Context, date time.Time, themeID uint64) ([]model.Reservation, error) {
	d := model.DateOf(date)
	return r.filter(func(res model.Reservation) bool {
		return res.Date.Equal(d) && res.Theme.ID == themeID
	}), nil
}

// WaitingQueue returns the slot's waitlist, oldest first.
func (r *MemoryReservations) WaitingQueue(_ context.Context, slot model.Slot) ([]model.Reservation, error) {
	slot.Date = model.DateOf(slot.Date)
	return r.filter(func(res model.Reservation) bool {
		return res.IsWaiting() && res.Slot() == slot
	}), nil
}

// FindWaitingFrom lists waitlist entries dated on or after date.
func (r *MemoryReservations) FindWaitingFrom(_ context.Context, date time.Time) ([]model.Reservation, error) {
	d := model.DateOf(date)
	return r.filter(func(res model.Reservation) bool {
		return res.IsWaiting() && !res.Date.Before(d)
	}), nil
}

func (r *MemoryReservations) ExistsByTimeSlot(_ context.Context, timeID uint64) (bool, error) {
	return len(r.filter(func(res model.Reservation) bool { return res.Time.ID == timeID })) > 0, nil
}

func (r *MemoryReservations) ExistsByTheme(_ context.Context, themeID uint64) (bool, error) {
	return len(r.filter(func(res model.Reservation) bool { return res.Theme.ID == themeID })) > 0, nil
}

// CountByTheme counts reservations of every status per theme within p.
func (r *MemoryReservations) CountByTheme(_ context.Context, p model.Period) ([]model.ThemeCount, error) {
	counts := map[uint64]int{}
	for _, res := range r.filter(func(res model.Reservation) bool { return p.Contains(res.Date) }) {
		counts[res.Theme.ID]++
	}
	out := make([]model.ThemeCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, model.ThemeCount{ThemeID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ThemeID < out[j].ThemeID })
	return out, nil
}

// waitingPrecondition applies the waitlist admission rules to the rows
// already competing for a slot.
func waitingPrecondition(rows []model.Reservation, memberID uint64) error {
	held := false
	var mine *model.Reservation
	for i := range rows {
		if rows[i].Status() == model.StatusReserved {
			held = true
		}
		if rows[i].Member.ID == memberID {
			mine = &rows[i]
		}
	}
	switch {
	case !held:
		return ErrSlotOpen
	case mine != nil && mine.Status() == model.StatusReserved:
		return ErrAlreadyReserved
	case mine != nil:
		return ErrAlreadyWaiting
	}
	return nil
}

func sortByID(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
