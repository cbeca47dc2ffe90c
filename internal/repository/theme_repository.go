package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/roomescape/internal/model"
)

// ThemeRepo provides CRUD operations for the themes table.
type ThemeRepo struct{ db *sql.DB }

// NewThemeRepo returns a new ThemeRepo bound to the given database.
func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{db: db} }

// Create inserts a theme.  A duplicate name yields ErrConflict.
func (r *ThemeRepo) Create(ctx context.Context, th model.Theme) (model.Theme, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO themes (name, description, thumbnail) VALUES (?, ?, ?)`,
		th.Name, th.Description, th.Thumbnail)
	if isDuplicate(err) {
		return model.Theme{}, ErrConflict
	}
	if err != nil {
		return model.Theme{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Theme{}, err
	}
	th.ID = uint64(id)
	return th, nil
}

func (r *ThemeRepo) FindByID(ctx context.Context, id uint64) (model.Theme, error) {
	var th model.Theme
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, thumbnail FROM themes WHERE id = ? LIMIT 1`, id).
		Scan(&th.ID, &th.Name, &th.Description, &th.Thumbnail)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Theme{}, ErrNotFound
	}
	return th, err
}

func (r *ThemeRepo) FindAll(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, thumbnail FROM themes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Theme{}
	for rows.Next() {
		var th model.Theme
		if err := rows.Scan(&th.ID, &th.Name, &th.Description, &th.Thumbnail); err != nil {
			return nil, err
		}
		out = append(out, th)
	}
	return out, rows.Err()
}

// Delete removes a theme, reporting ErrInUse while reservations reference it.
func (r *ThemeRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM themes WHERE id = ?`, id)
	if isReferenced(err) {
		return ErrInUse
	}
	return err
}
