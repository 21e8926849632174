package model

import "time"

// Role values stored in the `users.role` column.  A user always holds
// exactly one of them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r is one of the closed set of roles.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}

// User represents an account record as stored in the `users` table.
// PasswordHash is a bcrypt digest and is never serialized.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Username     – unique public name shown next to reviews.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
