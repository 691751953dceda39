package types

import "time"

// Roles a user account can hold. Every account has exactly one.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	// Lookups are case-sensitive exact matches.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across accounts.
	Email string `json:"email" db:"email"`

	// FirstName and LastName are the user's display names.
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`

	// Role indicates the user's authorization level within the
	// system, one of RoleUser or RoleAdmin.
	Role string `json:"role" db:"role"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
