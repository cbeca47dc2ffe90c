package booking

import (
	"fmt"

	"github.com/iliyamo/roomescape/internal/model"
)

// WaitingRank returns the 1-based position of reservation id in a slot's
// waitlist ordered oldest first, or 0 when id is not on it.
func WaitingRank(waitlist []model.Reservation, id uint64) int {
	for i, r := range waitlist {
		if r.ID == id {
			return i + 1
		}
	}
	return 0
}

// MemberReservation is one row of a member's reservation list.  Rank is
// zero for a confirmed reservation.
type MemberReservation struct {
	Reservation model.Reservation
	Rank        int
}

// Label renders the row's status the way members see it.
func (m MemberReservation) Label() string {
	if m.Reservation.IsWaiting() {
		return fmt.Sprintf("%d번째 예약대기", m.Rank)
	}
	return "예약"
}
