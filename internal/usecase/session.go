package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/security"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
)

// secretRetries bounds regeneration attempts when a freshly minted refresh
// secret collides with an existing row. With 64 random bytes a collision is
// effectively impossible, so a handful of retries only guards against a
// broken entropy source.
const secretRetries = 3

// SessionConfig carries the tunables of session issuance and cleanup.
type SessionConfig struct {
	// SecretLength is the refresh secret entropy in bytes before encoding.
	SecretLength int
	// TTL is how long a session stays rotatable after creation.
	TTL time.Duration
	// RetentionGrace is how long revoked rows are kept for audit before the
	// sweeper removes them.
	RetentionGrace time.Duration
}

// SessionService owns the refresh side of authentication: creating session
// rows, rotating them one-for-one, revoking them, and sweeping dead rows.
type SessionService struct {
	sessions  port.SessionRepository
	publisher port.EventPublisher
	log       *zap.Logger
	cfg       SessionConfig
	now       func() time.Time
}

func NewSessionService(
	sessions port.SessionRepository,
	publisher port.EventPublisher,
	log *zap.Logger,
	cfg SessionConfig,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		publisher: publisher,
		log:       log,
		cfg:       cfg,
		now:       time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Create mints a new session for the user with a fresh single-use refresh
// secret and the full configured lifetime.
func (s *SessionService) Create(ctx context.Context, userID string, meta domain.ClientMeta) (*domain.Session, error) {
	now := s.now().UTC()

	for attempt := 0; attempt < secretRetries; attempt++ {
		secret, err := security.GenerateSecureToken(s.cfg.SecretLength)
		if err != nil {
			return nil, fmt.Errorf("generate refresh secret: %w", err)
		}

		session := domain.Session{
			ID:           uuid.NewString(),
			UserID:       userID,
			RefreshToken: secret,
			UserAgent:    meta.UserAgent,
			IP:           meta.IP,
			ExpiresAt:    now.Add(s.cfg.TTL),
			CreatedAt:    now,
		}

		err = s.sessions.Create(ctx, session)
		if err == nil {
			return &session, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("create session: %w", err)
		}

		s.log.Warn("refresh secret collision, regenerating",
			zap.String("user_id", userID),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, fmt.Errorf("create session: exhausted %d secret generation attempts", secretRetries)
}

// Rotate consumes the presented refresh secret and returns its successor.
// The old session is revoked first; only the caller whose revoke actually
// changed the row gets a successor, so a replayed secret always fails even
// when two rotations race. Absent, revoked, and expired secrets all report
// ErrSessionNotFound.
func (s *SessionService) Rotate(ctx context.Context, refreshSecret string, fresh domain.ClientMeta) (*domain.Session, error) {
	session, err := s.sessions.GetByRefreshToken(ctx, refreshSecret)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}

	now := s.now().UTC()

	if session.Revoked {
		return nil, ErrSessionNotFound
	}
	if !session.ExpiresAt.After(now) {
		// Mark the row so the sweeper's retention clock applies, then fail
		// the same way an unknown secret does.
		if changed, err := s.sessions.Revoke(ctx, session.ID); err != nil {
			s.log.Warn("failed to revoke expired session",
				zap.String("session_id", session.ID), zap.Error(err))
		} else if changed {
			s.publishRevoked(ctx, session, domain.RevokeReasonExpired)
		}
		return nil, ErrSessionNotFound
	}

	changed, err := s.sessions.Revoke(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	if !changed {
		// A concurrent rotation won the race.
		return nil, ErrSessionNotFound
	}
	s.publishRevoked(ctx, session, domain.RevokeReasonRotated)

	successor, err := s.Create(ctx, session.UserID, session.Meta().Merge(fresh))
	if err != nil {
		return nil, err
	}

	return successor, nil
}

// RevokeBySecret revokes the session owning the refresh secret. Unknown and
// already-dead secrets are a silent success, so logout never leaks whether a
// cookie was live.
func (s *SessionService) RevokeBySecret(ctx context.Context, refreshSecret string) error {
	session, err := s.sessions.GetByRefreshToken(ctx, refreshSecret)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("look up session: %w", err)
	}

	changed, err := s.sessions.Revoke(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if changed {
		s.publishRevoked(ctx, session, domain.RevokeReasonLogout)
	}

	return nil
}

// RevokeByID revokes a single session. Already-revoked and unknown sessions
// are a no-op success.
func (s *SessionService) RevokeByID(ctx context.Context, sessionID string) error {
	changed, err := s.sessions.Revoke(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if changed {
		if session, err := s.sessions.GetByID(ctx, sessionID); err == nil {
			s.publishRevoked(ctx, session, domain.RevokeReasonExplicit)
		}
	}
	return nil
}

// RevokeAllForUser kills every active session of the user, forcing a fresh
// login on all devices.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	count, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	if count > 0 {
		s.log.Info("revoked all sessions for user",
			zap.String("user_id", userID),
			zap.Int("count", count),
			zap.String("reason", domain.RevokeReasonBulk),
		)
	}

	return count, nil
}

// Validate reports whether the session backing an access token is still
// alive. A valid token whose session has been revoked or has expired fails
// with ErrSessionRevoked.
func (s *SessionService) Validate(ctx context.Context, sessionID string) error {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionRevoked
		}
		return fmt.Errorf("look up session: %w", err)
	}

	if !session.IsActive(s.now().UTC()) {
		return ErrSessionRevoked
	}

	return nil
}

// SweepExpired removes sessions past expiry and revoked rows older than the
// retention grace. Returns the number of rows removed.
func (s *SessionService) SweepExpired(ctx context.Context) (int, error) {
	count, err := s.sessions.DeleteExpired(ctx, s.now().UTC(), s.cfg.RetentionGrace)
	if err != nil {
		return 0, fmt.Errorf("sweep expired sessions: %w", err)
	}
	return count, nil
}

// RunSweeper deletes dead session rows on a fixed interval until the context
// is cancelled. Sweep failures are logged and retried on the next tick.
func (s *SessionService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("session sweeper started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			count, err := s.SweepExpired(ctx)
			if err != nil {
				s.log.Error("session sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				s.log.Info("session sweep removed rows", zap.Int("count", count))
			}
		}
	}
}

func (s *SessionService) publishRevoked(ctx context.Context, session *domain.Session, reason string) {
	event := domain.SessionRevokedEvent{
		SessionID: session.ID,
		UserID:    session.UserID,
		Reason:    reason,
		RevokedAt: s.now().UTC(),
	}
	if err := s.publisher.PublishSessionRevoked(ctx, event); err != nil {
		s.log.Warn("failed to publish session revoked event",
			zap.String("session_id", session.ID), zap.Error(err))
	}
}
