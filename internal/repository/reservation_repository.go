package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/roomescape/internal/model"
)

// ReservationRepo persists reservations and waitlist entries in MySQL.
// Every write that depends on the other rows of a slot locks those rows
// with SELECT ... FOR UPDATE inside one transaction; the unique keys on
// the reservations table back the same rules up.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// reservationSelect joins a reservation with its time slot, theme and member.
const reservationSelect = `SELECT r.id, r.date, r.status, r.created_at,
       t.id, t.start_at,
       th.id, th.name, th.description, th.thumbnail,
       m.id, m.name, m.email, m.role
  FROM reservations r
  JOIN reservation_times t ON t.id = r.time_id
  JOIN themes th ON th.id = r.theme_id
  JOIN members m ON m.id = r.member_id`

func scanReservation(s rowScanner) (model.Reservation, error) {
	var (
		id        uint64
		date      time.Time
		status    string
		createdAt time.Time
		slot      model.TimeSlot
		theme     model.Theme
		member    model.Member
	)
	if err := s.Scan(&id, &date, &status, &createdAt,
		&slot.ID, &slot.StartAt,
		&theme.ID, &theme.Name, &theme.Description, &theme.Thumbnail,
		&member.ID, &member.Name, &member.Email, &member.Role); err != nil {
		return model.Reservation{}, err
	}
	return model.NewReservation(id, date, slot, theme, member, model.Status(status), createdAt)
}

func (r *ReservationRepo) query(ctx context.Context, where string, args ...any) ([]model.Reservation, error) {
	q := reservationSelect
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY r.id"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Reservation{}
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// slotRow is the locked view of one competitor for a slot.
type slotRow struct {
	ID       uint64
	MemberID uint64
	Status   model.Status
}

// lockSlotTx locks every row of the slot, and the gap where new rows would
// go, until the transaction ends.
func (r *ReservationRepo) lockSlotTx(ctx context.Context, tx *sql.Tx, slot model.Slot) ([]slotRow, error) {
	const q = `SELECT id, member_id, status FROM reservations
	            WHERE date = ? AND time_id = ? AND theme_id = ?
	            ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, slot.Date.Format(model.DateLayout), slot.TimeID, slot.ThemeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []slotRow
	for rows.Next() {
		var sr slotRow
		var status string
		if err := rows.Scan(&sr.ID, &sr.MemberID, &status); err != nil {
			return nil, err
		}
		sr.Status = model.Status(status)
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *ReservationRepo) insertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (date, time_id, theme_id, member_id, status, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	result, err := tx.ExecContext(ctx, q,
		res.Date.Format(model.DateLayout), res.Time.ID, res.Theme.ID, res.Member.ID,
		string(res.Status()), res.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// duplicateKind maps a unique-key violation on reservations to the rule it
// protects.
func duplicateKind(err error) error {
	if strings.Contains(err.Error(), "uq_reservations_reserved") {
		return ErrSlotTaken
	}
	return ErrAlreadyWaiting
}

// InsertReserved stores a RESERVED reservation unless the slot is already
// held.  A member already waiting on the slot gets ErrAlreadyWaiting.
func (r *ReservationRepo) InsertReserved(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := r.lockSlotTx(ctx, tx, res.Slot())
		if err != nil {
			return err
		}
		for _, other := range rows {
			if other.Status == model.StatusReserved {
				return ErrSlotTaken
			}
			if other.MemberID == res.Member.ID {
				return ErrAlreadyWaiting
			}
		}
		return r.insertTx(ctx, tx, &res)
	})
	if isDuplicate(err) {
		return model.Reservation{}, duplicateKind(err)
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// InsertWaiting stores a WAITED reservation.  The slot must be held, and
// the member must not hold it or wait on it already; the checks run in
// that order.
func (r *ReservationRepo) InsertWaiting(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := r.lockSlotTx(ctx, tx, res.Slot())
		if err != nil {
			return err
		}
		held := false
		var mine *slotRow
		for i := range rows {
			if rows[i].Status == model.StatusReserved {
				held = true
			}
			if rows[i].MemberID == res.Member.ID {
				mine = &rows[i]
			}
		}
		switch {
		case !held:
			return ErrSlotOpen
		case mine != nil && mine.Status == model.StatusReserved:
			return ErrAlreadyReserved
		case mine != nil:
			return ErrAlreadyWaiting
		}
		return r.insertTx(ctx, tx, &res)
	})
	if isDuplicate(err) {
		return model.Reservation{}, ErrAlreadyWaiting
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return res, nil
}

// promoteCheck decides a promotion from the locked rows of the target's
// slot.  A RESERVED target counts as the slot's holder.
func promoteCheck(rows []slotRow, id uint64) error {
	for _, other := range rows {
		if other.Status == model.StatusReserved {
			return ErrSlotHeld
		}
	}
	for _, other := range rows {
		if other.ID == id {
			return nil
		}
	}
	return ErrNotWaiting
}

// Promote confirms a waitlist entry.  The entry must exist and no RESERVED
// row may remain on its slot, the entry itself included.
func (r *ReservationRepo) Promote(ctx context.Context, id uint64) (model.Reservation, error) {
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var (
			date    time.Time
			timeID  uint64
			themeID uint64
			status  string
		)
		err := tx.QueryRowContext(ctx,
			`SELECT date, time_id, theme_id, status FROM reservations WHERE id = ? FOR UPDATE`, id).
			Scan(&date, &timeID, &themeID, &status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		rows, err := r.lockSlotTx(ctx, tx, model.Slot{Date: date, TimeID: timeID, ThemeID: themeID})
		if err != nil {
			return err
		}
		if err := promoteCheck(rows, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE reservations SET status = 'RESERVED' WHERE id = ? AND status = 'WAITED'`, id)
		return err
	})
	if isDuplicate(err) {
		return model.Reservation{}, ErrSlotHeld
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes a reservation.  Deleting a missing id is not an error.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// FindByID returns ErrNotFound when no reservation has the id.
func (r *ReservationRepo) FindByID(ctx context.Context, id uint64) (model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, reservationSelect+" WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ErrNotFound
	}
	return res, err
}

// Find applies an admin search filter; unset fields are ignored.
func (r *ReservationRepo) Find(ctx context.Context, f model.ReservationFilter) ([]model.Reservation, error) {
	var (
		conds []string
		args  []any
	)
	if f.MemberID != nil {
		conds = append(conds, "r.member_id = ?")
		args = append(args, *f.MemberID)
	}
	if f.ThemeID != nil {
		conds = append(conds, "r.theme_id = ?")
		args = append(args, *f.ThemeID)
	}
	if f.DateFrom != nil {
		conds = append(conds, "r.date >= ?")
		args = append(args, f.DateFrom.Format(model.DateLayout))
	}
	if f.DateTo != nil {
		conds = append(conds, "r.date <= ?")
		args = append(args, f.DateTo.Format(model.DateLayout))
	}
	return r.query(ctx, strings.Join(conds, " AND "), args...)
}

func (r *ReservationRepo) FindByMember(ctx context.Context, memberID uint64) ([]model.Reservation, error) {
	return r.query(ctx, "r.member_id = ?", memberID)
}

func (r *ReservationRepo) FindByDateAndTheme(ctx context.Context, date time.Time, themeID uint64) ([]model.Reservation, error) {
	return r.query(ctx, "r.date = ? AND r.theme_id = ?", date.Format(model.DateLayout), themeID)
}

// WaitingQueue returns the slot's waitlist, oldest first.
func (r *ReservationRepo) WaitingQueue(ctx context.Context, slot model.Slot) ([]model.Reservation, error) {
	return r.query(ctx, "r.date = ? AND r.time_id = ? AND r.theme_id = ? AND r.status = 'WAITED'",
		slot.Date.Format(model.DateLayout), slot.TimeID, slot.ThemeID)
}

// FindWaitingFrom lists waitlist entries dated on or after date.
func (r *ReservationRepo) FindWaitingFrom(ctx context.Context, date time.Time) ([]model.Reservation, error) {
	return r.query(ctx, "r.status = 'WAITED' AND r.date >= ?", date.Format(model.DateLayout))
}

func (r *ReservationRepo) exists(ctx context.Context, q string, arg any) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *ReservationRepo) ExistsByTimeSlot(ctx context.Context, timeID uint64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM reservations WHERE time_id = ? LIMIT 1`, timeID)
}

func (r *ReservationRepo) ExistsByTheme(ctx context.Context, themeID uint64) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM reservations WHERE theme_id = ? LIMIT 1`, themeID)
}

// CountByTheme counts reservations of every status per theme within p.
func (r *ReservationRepo) CountByTheme(ctx context.Context, p model.Period) ([]model.ThemeCount, error) {
	const q = `SELECT theme_id, COUNT(*) FROM reservations
	            WHERE date BETWEEN ? AND ?
	            GROUP BY theme_id ORDER BY theme_id`
	rows, err := r.db.QueryContext(ctx, q, p.From.Format(model.DateLayout), p.To.Format(model.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ThemeCount{}
	for rows.Next() {
		var tc model.ThemeCount
		if err := rows.Scan(&tc.ThemeID, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
