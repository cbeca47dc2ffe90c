// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking engine and handlers to distinguish between different failure
// scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row with the requested id does not exist.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state that none of the more specific errors describe.
var ErrConflict = errors.New("conflict")

// ErrInUse is returned when a time slot or theme cannot be deleted because
// a reservation still references it.
var ErrInUse = errors.New("referenced by a reservation")

// ErrEmailExists is returned when signing up with an email that is taken.
var ErrEmailExists = errors.New("email already exists")

// Reservation write outcomes.  Each insert or promote checks its
// preconditions under the same lock as the write and reports the first
// one that failed.
var (
	// ErrSlotTaken: a RESERVED row already exists for the slot.
	ErrSlotTaken = errors.New("slot already reserved")
	// ErrSlotOpen: a waitlist entry was requested for a slot nobody holds.
	ErrSlotOpen = errors.New("slot not reserved")
	// ErrAlreadyReserved: the member already holds the slot.
	ErrAlreadyReserved = errors.New("member already reserved slot")
	// ErrAlreadyWaiting: the member is already on the slot's waitlist.
	ErrAlreadyWaiting = errors.New("member already waiting for slot")
	// ErrSlotHeld: a promotion found the slot still RESERVED.
	ErrSlotHeld = errors.New("slot still reserved")
	// ErrNotWaiting: a promotion target is not a waitlist entry.
	ErrNotWaiting = errors.New("reservation is not waiting")
)

// MySQL server error numbers the repositories translate.
const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
)

// mysqlErrNumber returns the server error number carried by err, or 0.
func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == mysqlDuplicateEntry }

func isReferenced(err error) bool {
	n := mysqlErrNumber(err)
	return n == mysqlRowIsReferenced || n == mysqlRowIsReferenced2
}
