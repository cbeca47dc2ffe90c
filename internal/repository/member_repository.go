package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/roomescape/internal/model"
)

// MemberRepo mirrors the 'members' table.
type MemberRepo struct{ DB *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{DB: db} }

// Create inserts a member whose password is already hashed and returns it
// with its ID.
func (r *MemberRepo) Create(ctx context.Context, m model.Member) (model.Member, error) {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO members (name, email, password_hash, role) VALUES (?,?,?,?)",
		m.Name, m.Email, m.PasswordHash, m.Role)
	if err != nil {
		if isDuplicate(err) {
			return model.Member{}, ErrEmailExists
		}
		return model.Member{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Member{}, err
	}
	return r.FindByID(ctx, uint64(id))
}

// FindByEmail fetches a member by normalized email.
func (r *MemberRepo) FindByEmail(ctx context.Context, email string) (model.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,created_at FROM members WHERE email=? LIMIT 1", email))
}

// FindByID fetches a member by id.
func (r *MemberRepo) FindByID(ctx context.Context, id uint64) (model.Member, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT id,name,email,password_hash,role,created_at FROM members WHERE id=? LIMIT 1", id))
}

func (r *MemberRepo) scanOne(row *sql.Row) (model.Member, error) {
	var m model.Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	return m, err
}
