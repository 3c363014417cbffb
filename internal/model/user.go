package model

import "time"

// Role names stored in role_assignments.
const (
	RolePlayer = "player"
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
)

// User represents an account in the `users` table.  Roles are not a
// column; they are loaded from role_assignments.
//
// Fields:
//  ID           – uuid primary key.
//  Email        – unique, lower-cased.
//  FullName     – display name.
//  PasswordHash – bcrypt hash.
//  OwnerStatus  – onboarding state for the owner role.
//  Roles        – role names granted to the user.
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"fullName"`
	PasswordHash string      `json:"-"`
	OwnerStatus  OwnerStatus `json:"ownerStatus"`
	Roles        []string    `json:"roles"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// HasRole reports whether role was granted.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// OwnerAccount is the owner-facing projection of a user.
type OwnerAccount struct {
	UserID      string      `json:"userId"`
	Email       string      `json:"email"`
	FullName    string      `json:"fullName"`
	OwnerStatus OwnerStatus `json:"ownerStatus"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// RoleAssignment grants a role to a user.  The permission model lives
// in data rather than in code.
type RoleAssignment struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	GrantedAt time.Time `json:"grantedAt"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the token value is stored.
type RefreshToken struct {
	ID        uint64
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
