package domain

import "time"

// User mirrors the persisted representation in the users table.
// Email is the natural lookup key and is unique, case-sensitive.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Sanitized returns a copy of the user with the password hash stripped,
// suitable for returning to API callers.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
