package domain

import "time"

// Session represents one refresh lineage: a long-lived refresh secret bound
// to a user. Rotation revokes the current row and creates a successor, so a
// single continuous login is a chain of session rows.
type Session struct {
	ID           string
	UserID       string
	RefreshToken string
	UserAgent    *string
	IP           *string
	ExpiresAt    time.Time
	Revoked      bool
	CreatedAt    time.Time
}

// IsActive reports whether the session can still be rotated or used to
// authorize requests at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	if s.Revoked {
		return false
	}
	return s.ExpiresAt.After(at)
}

// Meta returns the client metadata recorded on the session.
func (s Session) Meta() ClientMeta {
	return ClientMeta{UserAgent: s.UserAgent, IP: s.IP}
}

// ClientMeta carries advisory request metadata stored alongside sessions.
// Neither field is authoritative; both exist for audit only.
type ClientMeta struct {
	UserAgent *string
	IP        *string
}

// Merge prefers freshly supplied metadata, falling back to the receiver.
func (m ClientMeta) Merge(fresh ClientMeta) ClientMeta {
	out := m
	if fresh.UserAgent != nil && *fresh.UserAgent != "" {
		out.UserAgent = fresh.UserAgent
	}
	if fresh.IP != nil && *fresh.IP != "" {
		out.IP = fresh.IP
	}
	return out
}
