package model

import "time"

// Roles carried in the JWT "role" claim.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// Member represents an account as stored in the `members` table.  The
// password hash never leaves the repository and handler layers.
//
// Fields:
//  ID           – primary key identifier of the member.
//  Name         – display name.
//  Email        – unique, lower-cased email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – MEMBER or ADMIN.
//  CreatedAt    – timestamp of creation.
type Member struct {
	ID           uint64    // members.id
	Name         string    // members.name
	Email        string    // members.email
	PasswordHash string    // members.password_hash
	Role         string    // members.role
	CreatedAt    time.Time // members.created_at
}

// IsAdmin reports whether the member may use the admin endpoints.
func (m Member) IsAdmin() bool { return m.Role == RoleAdmin }
