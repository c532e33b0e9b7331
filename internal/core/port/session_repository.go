package port

import (
	"context"
	"time"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
)

// SessionRepository deals with durable session storage. All operations must
// be safe under concurrent callers; Revoke in particular is the atomicity
// point for rotation and reports whether this call changed the row, so two
// concurrent rotations of the same session see exactly one winner.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, sessionID string) (*domain.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	Revoke(ctx context.Context, sessionID string) (changed bool, err error)
	RevokeAllForUser(ctx context.Context, userID string) (int, error)
	// DeleteExpired removes rows that are past expiry, or revoked and created
	// longer than the retention grace ago. Returns the number removed.
	DeleteExpired(ctx context.Context, now time.Time, retentionGrace time.Duration) (int, error)
}
