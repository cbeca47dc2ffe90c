package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roomescape/internal/model"
)

// TimeSlotRepo provides CRUD operations for the reservation_times table.
type TimeSlotRepo struct{ db *sql.DB }

// NewTimeSlotRepo returns a new TimeSlotRepo bound to the given database.
func NewTimeSlotRepo(db *sql.DB) *TimeSlotRepo { return &TimeSlotRepo{db: db} }

// Create inserts a time slot.  A duplicate start time yields ErrConflict.
func (r *TimeSlotRepo) Create(ctx context.Context, startAt string) (model.TimeSlot, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO reservation_times (start_at) VALUES (?)`, startAt)
	if isDuplicate(err) {
		return model.TimeSlot{}, ErrConflict
	}
	if err != nil {
		return model.TimeSlot{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.TimeSlot{}, err
	}
	return model.TimeSlot{ID: uint64(id), StartAt: startAt}, nil
}

func (r *TimeSlotRepo) FindByID(ctx context.Context, id uint64) (model.TimeSlot, error) {
	var ts model.TimeSlot
	err := r.db.QueryRowContext(ctx,
		`SELECT id, start_at FROM reservation_times WHERE id = ? LIMIT 1`, id).Scan(&ts.ID, &ts.StartAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimeSlot{}, ErrNotFound
	}
	return ts, err
}

// FindAll lists time slots ordered by start time.
func (r *TimeSlotRepo) FindAll(ctx context.Context) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, start_at FROM reservation_times ORDER BY start_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.TimeSlot{}
	for rows.Next() {
		var ts model.TimeSlot
		if err := rows.Scan(&ts.ID, &ts.StartAt); err != nil {
			return nil, err
		}
		out = append(out, ts)
	}
	return out, rows.Err()
}

// Delete removes a time slot.  The foreign key from reservations refuses
// the delete while the slot is referenced, reported as ErrInUse.
func (r *TimeSlotRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reservation_times WHERE id = ?`, id)
	if isReferenced(err) {
		return ErrInUse
	}
	return err
}
