package booking

import "fmt"

// Kind classifies a booking failure.  Every kind is a user-facing outcome
// that the engine never retries.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidTiming
	KindSlotAlreadyReserved
	KindSlotNotYetReserved
	KindDuplicateBooking
	KindDuplicateWaiting
	KindSlotStillReserved
	KindInUse
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidTiming:
		return "invalid_timing"
	case KindSlotAlreadyReserved:
		return "slot_already_reserved"
	case KindSlotNotYetReserved:
		return "slot_not_yet_reserved"
	case KindDuplicateBooking:
		return "duplicate_booking"
	case KindDuplicateWaiting:
		return "duplicate_waiting"
	case KindSlotStillReserved:
		return "slot_still_reserved"
	case KindInUse:
		return "in_use"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is returned by every Service operation that fails for a business
// reason.  Message is safe to show to the member.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// holds for every not-found message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrInvalidTiming       = &Error{Kind: KindInvalidTiming}
	ErrSlotAlreadyReserved = &Error{Kind: KindSlotAlreadyReserved}
	ErrSlotNotYetReserved  = &Error{Kind: KindSlotNotYetReserved}
	ErrDuplicateBooking    = &Error{Kind: KindDuplicateBooking}
	ErrDuplicateWaiting    = &Error{Kind: KindDuplicateWaiting}
	ErrSlotStillReserved   = &Error{Kind: KindSlotStillReserved}
	ErrInUse               = &Error{Kind: KindInUse}
)

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

var (
	errTimeNotFound      = newError(KindNotFound, "존재하지 않는 시간입니다.")
	errThemeNotFound     = newError(KindNotFound, "존재하지 않는 테마입니다.")
	errMemberNotFound    = newError(KindNotFound, "존재하지 않는 유저입니다.")
	errWaitingNotFound   = newError(KindNotFound, "존재하지 않는 예약대기입니다.")
	errInvalidTiming     = newError(KindInvalidTiming, "예약할 수 없는 날짜와 시간입니다.")
	errSlotTaken         = newError(KindSlotAlreadyReserved, "이미 예약이 존재합니다.")
	errSlotOpen          = newError(KindSlotNotYetReserved, "예약 가능한 상태에서는 대기할 수 없습니다.")
	errAlreadyReserved   = newError(KindDuplicateBooking, "이미 예약을 완료하였습니다.")
	errAlreadyWaiting    = newError(KindDuplicateWaiting, "이미 예약 대기를 신청했습니다.")
	errSlotStillReserved = newError(KindSlotStillReserved, "기존 확정 예약이 취소 되지 않았습니다.")
	errTimeInUse         = newError(KindInUse, "삭제할 수 없는 예약 시간입니다.")
	errThemeInUse        = newError(KindInUse, "삭제할 수 없는 테마입니다.")
)
