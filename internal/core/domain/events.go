package domain

import "time"

// Revocation reasons recorded on session lifecycle events.
const (
	RevokeReasonRotated  = "rotated"
	RevokeReasonLogout   = "logout"
	RevokeReasonExpired  = "expired"
	RevokeReasonBulk     = "revoke_all"
	RevokeReasonExplicit = "revoked"
)

// UserRegisteredEvent is published when a new account is created.
type UserRegisteredEvent struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	RegisteredAt time.Time `json:"registered_at"`
}

// SessionRevokedEvent is published whenever a session transitions to revoked,
// including rotations, logouts, and bulk revocations.
type SessionRevokedEvent struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}
