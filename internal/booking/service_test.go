package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/roomescape/internal/clock"
	"github.com/iliyamo/roomescape/internal/model"
	"github.com/iliyamo/roomescape/internal/queue"
	"github.com/iliyamo/roomescape/internal/repository"
)

var testNow = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *repository.MemoryStore
	ten     model.TimeSlot
	eleven  model.TimeSlot
	early   model.TimeSlot
	theme   model.Theme
	members []model.Member
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	f := &fixture{store: store}
	var err error
	if f.early, err = store.TimeSlots().Create(ctx, "09:59"); err != nil {
		t.Fatalf("seed time: %v", err)
	}
	if f.ten, err = store.TimeSlots().Create(ctx, "10:00"); err != nil {
		t.Fatalf("seed time: %v", err)
	}
	if f.eleven, err = store.TimeSlots().Create(ctx, "11:00"); err != nil {
		t.Fatalf("seed time: %v", err)
	}
	if f.theme, err = store.Themes().Create(ctx, model.Theme{Name: "Prison Break"}); err != nil {
		t.Fatalf("seed theme: %v", err)
	}
	for _, name := range []string{"alice", "bob", "carol", "dave"} {
		m, err := store.Members().Create(ctx, model.Member{Name: name, Email: name + "@example.com", Role: model.RoleMember})
		if err != nil {
			t.Fatalf("seed member: %v", err)
		}
		f.members = append(f.members, m)
	}
	f.svc = NewService(store.Reservations(), store.TimeSlots(), store.Themes(), store.Members(),
		clock.Fixed{At: testNow}, opts...)
	return f
}

func (f *fixture) req(date time.Time, ts model.TimeSlot, member int) Request {
	return Request{Date: date, TimeID: ts.ID, ThemeID: f.theme.ID, MemberID: f.members[member].ID}
}

var (
	today    = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	tomorrow = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
)

func TestCreateTimingBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.req(today, f.early, 0)); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("09:59 today: want invalid timing, got %v", err)
	}
	res, err := f.svc.Create(ctx, f.req(today, f.ten, 0))
	if err != nil {
		t.Fatalf("10:00 today should be bookable at 10:00: %v", err)
	}
	if res.Status() != model.StatusReserved || res.ID == 0 {
		t.Fatalf("unexpected reservation %+v", res)
	}
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.early, 0)); err != nil {
		t.Fatalf("future day must pass timing: %v", err)
	}
	yesterday := today.AddDate(0, 0, -1)
	if _, err := f.svc.Create(ctx, f.req(yesterday, f.eleven, 1)); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("yesterday: want invalid timing, got %v", err)
	}
}

func TestCreateUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.req(tomorrow, f.ten, 0)
	r.TimeID = 999
	_, err := f.svc.Create(ctx, r)
	if !errors.Is(err, ErrNotFound) || err.Error() != "존재하지 않는 시간입니다." {
		t.Fatalf("unknown time: got %v", err)
	}
	r = f.req(tomorrow, f.ten, 0)
	r.ThemeID = 999
	if _, err := f.svc.Create(ctx, r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown theme: got %v", err)
	}
	r = f.req(tomorrow, f.ten, 0)
	r.MemberID = 999
	if _, err := f.svc.CreateWaiting(ctx, r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown member: got %v", err)
	}
}

func TestCreateSlotAlreadyReserved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 1))
	if !errors.Is(err, ErrSlotAlreadyReserved) {
		t.Fatalf("want slot already reserved, got %v", err)
	}
	if err.Error() != "이미 예약이 존재합니다." {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.eleven, 1)); err != nil {
		t.Fatalf("other time slot must be free: %v", err)
	}
}

func TestConcurrentCreateHasOneWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 16; i++ {
		m, err := f.store.Members().Create(ctx, model.Member{Name: "extra", Email: "extra" + string(rune('a'+i)) + "@example.com"})
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		f.members = append(f.members, m)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		rejects int
	)
	for i := range f.members {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrSlotAlreadyReserved):
				rejects++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 || rejects != len(f.members)-1 {
		t.Fatalf("wins=%d rejects=%d", wins, rejects)
	}
}

func TestCreateWaitingRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1))
	if !errors.Is(err, ErrSlotNotYetReserved) {
		t.Fatalf("waiting on free slot: got %v", err)
	}
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 0)); !errors.Is(err, ErrDuplicateBooking) {
		t.Fatalf("holder waiting: got %v", err)
	}
	w, err := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1))
	if err != nil {
		t.Fatalf("waiting: %v", err)
	}
	if w.Status() != model.StatusWaited {
		t.Fatalf("want WAITED, got %s", w.Status())
	}
	_, err = f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1))
	if !errors.Is(err, ErrDuplicateWaiting) || err.Error() != "이미 예약 대기를 신청했습니다." {
		t.Fatalf("second waiting: got %v", err)
	}
	if _, err := f.svc.CreateWaiting(ctx, f.req(today, f.early, 2)); !errors.Is(err, ErrInvalidTiming) {
		t.Fatalf("past slot waiting: got %v", err)
	}
}

func TestCreateWhileWaitingOnFreedSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	held, _ := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	if _, err := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1)); err != nil {
		t.Fatalf("waiting: %v", err)
	}
	if err := f.svc.Cancel(ctx, held.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 1)); !errors.Is(err, ErrDuplicateWaiting) {
		t.Fatalf("waiting member booking directly: got %v", err)
	}
}

func TestWaitingRanksAreFIFO(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	var waits []model.Reservation
	for _, m := range []int{1, 2, 3} {
		w, err := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, m))
		if err != nil {
			t.Fatalf("waiting %d: %v", m, err)
		}
		waits = append(waits, w)
	}
	for i, m := range []int{1, 2, 3} {
		list, err := f.svc.ListForMember(ctx, f.members[m].ID)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].Rank != i+1 {
			t.Fatalf("member %d: want rank %d, got %+v", m, i+1, list)
		}
	}

	if err := f.svc.Cancel(ctx, waits[0].ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	list, _ := f.svc.ListForMember(ctx, f.members[2].ID)
	if list[0].Rank != 1 || list[0].Label() != "1번째 예약대기" {
		t.Fatalf("after cancel: %+v label=%q", list[0], list[0].Label())
	}
	owner, _ := f.svc.ListForMember(ctx, f.members[0].ID)
	if owner[0].Rank != 0 || owner[0].Label() != "예약" {
		t.Fatalf("holder row: %+v", owner[0])
	}
}

func TestListForMemberOrdersByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.req(tomorrow, f.eleven, 0))
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 1)); err != nil {
		t.Fatalf("create: %v", err)
	}
	b, _ := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 0))
	list, err := f.svc.ListForMember(ctx, f.members[0].ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Reservation.ID != a.ID || list[1].Reservation.ID != b.ID {
		t.Fatalf("unexpected order %+v", list)
	}
	if list[1].Rank != 1 {
		t.Fatalf("want rank 1, got %d", list[1].Rank)
	}
}

func TestPromote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	held, _ := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	w, _ := f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1))

	_, err := f.svc.Promote(ctx, w.ID)
	if !errors.Is(err, ErrSlotStillReserved) || err.Error() != "기존 확정 예약이 취소 되지 않았습니다." {
		t.Fatalf("promote while held: got %v", err)
	}
	_, err = f.svc.Promote(ctx, held.ID)
	if !errors.Is(err, ErrSlotStillReserved) || err.Error() != "기존 확정 예약이 취소 되지 않았습니다." {
		t.Fatalf("promote a confirmed reservation: got %v", err)
	}
	if err := f.svc.Cancel(ctx, held.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// cancelling does not promote by itself
	got, _ := f.store.Reservations().FindByID(ctx, w.ID)
	if got.Status() != model.StatusWaited {
		t.Fatalf("auto promoted: %s", got.Status())
	}
	promoted, err := f.svc.Promote(ctx, w.ID)
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if promoted.Status() != model.StatusReserved || promoted.ID != w.ID {
		t.Fatalf("unexpected promoted %+v", promoted)
	}
	_, err = f.svc.Promote(ctx, 12345)
	if !errors.Is(err, ErrNotFound) || err.Error() != "존재하지 않는 예약대기입니다." {
		t.Fatalf("promote unknown: got %v", err)
	}
}

func TestCancelIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	for i := 0; i < 2; i++ {
		if err := f.svc.Cancel(ctx, res.ID); err != nil {
			t.Fatalf("cancel #%d: %v", i+1, err)
		}
	}
	if err := f.svc.Cancel(ctx, 999); err != nil {
		t.Fatalf("cancel unknown: %v", err)
	}
	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 1)); err != nil {
		t.Fatalf("slot should be free again: %v", err)
	}
}

func TestCancelOwn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, _ := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	if err := f.svc.CancelOwn(ctx, res.ID, f.members[1].ID); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("foreign cancel: got %v", err)
	}
	if err := f.svc.CancelOwn(ctx, res.ID, f.members[0].ID); err != nil {
		t.Fatalf("own cancel: %v", err)
	}
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := f.svc.Availability(ctx, tomorrow, f.theme.ID)
	if err != nil {
		t.Fatalf("availability: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("want every catalog slot, got %d", len(got))
	}
	for _, a := range got {
		if want := a.Time.ID == f.ten.ID; a.AlreadyBooked != want {
			t.Fatalf("slot %s booked=%v", a.Time.StartAt, a.AlreadyBooked)
		}
	}
	other, _ := f.svc.Availability(ctx, tomorrow.AddDate(0, 0, 1), f.theme.ID)
	for _, a := range other {
		if a.AlreadyBooked {
			t.Fatalf("other date must be free: %+v", a)
		}
	}
}

func TestDeleteVeto(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := f.svc.DeleteTimeSlot(ctx, f.ten.ID)
	if !errors.Is(err, ErrInUse) || err.Error() != "삭제할 수 없는 예약 시간입니다." {
		t.Fatalf("delete referenced time: got %v", err)
	}
	if err := f.svc.DeleteTheme(ctx, f.theme.ID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete referenced theme: got %v", err)
	}
	if err := f.svc.DeleteTimeSlot(ctx, f.eleven.ID); err != nil {
		t.Fatalf("delete free time: %v", err)
	}
	slots, _ := f.svc.ListTimeSlots(ctx)
	for _, s := range slots {
		if s.ID == f.eleven.ID {
			t.Fatal("deleted time slot still listed")
		}
	}
}

func TestAdminListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	_, _ = f.svc.CreateWaiting(ctx, f.req(tomorrow, f.ten, 1))
	_, _ = f.svc.Create(ctx, f.req(tomorrow.AddDate(0, 0, 5), f.eleven, 1))

	all, err := f.svc.ListReservations(ctx, model.ReservationFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("unfiltered: %d %v", len(all), err)
	}
	bob := f.members[1].ID
	to := tomorrow
	mine, _ := f.svc.ListReservations(ctx, model.ReservationFilter{MemberID: &bob, DateTo: &to})
	if len(mine) != 1 || !mine[0].IsWaiting() {
		t.Fatalf("filtered: %+v", mine)
	}
	waiting, _ := f.svc.ListWaiting(ctx)
	if len(waiting) != 1 || waiting[0].Member.ID != bob {
		t.Fatalf("waiting: %+v", waiting)
	}
}

func TestCatalogCreateValidatesStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.CreateTimeSlot(ctx, "25:00"); err == nil {
		t.Fatal("want error for invalid start")
	}
	ts, err := f.svc.CreateTimeSlot(ctx, "13:30")
	if err != nil || ts.StartAt != "13:30" {
		t.Fatalf("create time: %+v %v", ts, err)
	}
	if _, err := f.svc.CreateTimeSlot(ctx, "13:30"); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate start: got %v", err)
	}
}

type recordingPublisher struct {
	events chan queue.ReservationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.events <- ev
	return nil
}

func TestEventsArePublished(t *testing.T) {
	pub := &recordingPublisher{events: make(chan queue.ReservationEvent, 4)}
	f := newFixture(t, WithEvents(pub))
	ctx := context.Background()

	res, err := f.svc.Create(ctx, f.req(tomorrow, f.ten, 0))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	select {
	case ev := <-pub.events:
		if ev.Type != queue.EventCreated || ev.ReservationID != res.ID || ev.EventID == "" {
			t.Fatalf("unexpected event %+v", ev)
		}
		if ev.Date != "2024-01-11" || ev.StartAt != "10:00" || ev.Status != "RESERVED" {
			t.Fatalf("unexpected snapshot %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}
