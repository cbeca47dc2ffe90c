package booking

import (
	"testing"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
)

func waiting(t *testing.T, id uint64) model.Reservation {
	t.Helper()
	r, err := model.NewReservation(id, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC),
		model.TimeSlot{ID: 1, StartAt: "10:00"}, model.Theme{ID: 1}, model.Member{ID: id}, model.StatusWaited, time.Time{})
	if err != nil {
		t.Fatalf("new reservation: %v", err)
	}
	return r
}

func TestWaitingRank(t *testing.T) {
	queue := []model.Reservation{waiting(t, 4), waiting(t, 7), waiting(t, 9)}
	cases := []struct {
		id   uint64
		want int
	}{
		{4, 1},
		{7, 2},
		{9, 3},
		{5, 0},
	}
	for _, tc := range cases {
		if got := WaitingRank(queue, tc.id); got != tc.want {
			t.Errorf("WaitingRank(%d) = %d, want %d", tc.id, got, tc.want)
		}
	}
	if got := WaitingRank(nil, 4); got != 0 {
		t.Errorf("empty queue: got %d", got)
	}
}

func TestMemberReservationLabel(t *testing.T) {
	w := MemberReservation{Reservation: waiting(t, 3), Rank: 2}
	if got := w.Label(); got != "2번째 예약대기" {
		t.Fatalf("waiting label %q", got)
	}
	r := waiting(t, 3)
	if err := r.Promote(); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if got := (MemberReservation{Reservation: r}).Label(); got != "예약" {
		t.Fatalf("reserved label %q", got)
	}
}
