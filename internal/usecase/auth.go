package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/logger"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/security"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
)

// AuthResult is the outcome of any operation that establishes a login: the
// account, the session carrying the refresh secret, and a signed access
// token bound to that session.
type AuthResult struct {
	User        domain.User
	Session     *domain.Session
	AccessToken string
}

// AuthService implements registration, login, refresh, and logout on top of
// the session service.
type AuthService struct {
	users    port.UserRepository
	sessions *SessionService
	hasher   port.PasswordHasher
	policy   port.PasswordPolicy
	signer   *security.TokenSigner

	publisher port.EventPublisher
	log       *zap.Logger
	now       func() time.Time
}

func NewAuthService(
	users port.UserRepository,
	sessions *SessionService,
	hasher port.PasswordHasher,
	policy port.PasswordPolicy,
	signer *security.TokenSigner,
	publisher port.EventPublisher,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		hasher:    hasher,
		policy:    policy,
		signer:    signer,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the time source; used by tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// AccessTokenTTL exposes the configured access token lifetime so the
// transport layer can align cookie expiry with it.
func (s *AuthService) AccessTokenTTL() int {
	return int(s.signer.TTL().Seconds())
}

// Register creates an account and logs it in immediately.
func (s *AuthService) Register(ctx context.Context, name, email, password string, meta domain.ClientMeta) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	email, err := validateEmail(email)
	if err != nil {
		return nil, err
	}

	if err := s.policy.Validate(password, name, email); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The pre-check above races with concurrent registrations; the
		// unique constraint is the authority.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("email", logger.MaskEmail(user.Email)),
	)

	event := domain.UserRegisteredEvent{
		UserID:       user.ID,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	}
	if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
		s.log.Warn("failed to publish user registered event",
			zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.establish(ctx, user, meta)
}

// Login verifies the credentials and establishes a new session. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string, meta domain.ClientMeta) (*AuthResult, error) {
	email, err := validateEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.establish(ctx, *user, meta)
}

// Refresh trades a live refresh secret for a new session and access token.
// Every failure mode collapses to ErrInvalidCredentials so a probing client
// learns nothing about why a secret stopped working.
func (s *AuthService) Refresh(ctx context.Context, refreshSecret string, meta domain.ClientMeta) (*AuthResult, error) {
	if refreshSecret == "" {
		return nil, ErrInvalidCredentials
	}

	session, err := s.sessions.Rotate(ctx, refreshSecret, meta)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	accessToken, err := s.signer.Issue(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResult{User: user.Sanitized(), Session: session, AccessToken: accessToken}, nil
}

// Logout revokes the session owning the refresh secret. It always succeeds
// from the caller's perspective: missing, unknown, and already-dead secrets
// clear cookies the same way a live one does.
func (s *AuthService) Logout(ctx context.Context, refreshSecret string) {
	if refreshSecret == "" {
		return
	}
	if err := s.sessions.RevokeBySecret(ctx, refreshSecret); err != nil {
		s.log.Warn("logout revocation failed",
			zap.String("refresh_secret", logger.MaskString(refreshSecret)),
			zap.Error(err))
	}
}

// CurrentUser loads the account behind an authenticated request.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	return user, nil
}

// ParseAccessToken validates the token's signature, algorithm, and expiry
// and returns its claims. It does not consult the session store; callers
// that need liveness chain ValidateSession.
func (s *AuthService) ParseAccessToken(token string) (*security.AccessTokenClaims, error) {
	claims, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrTokenExpired) {
			return nil, ErrExpiredAccessToken
		}
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// ValidateSession confirms the session behind a parsed access token is still
// alive, so revocation takes effect before the token expires.
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) error {
	return s.sessions.Validate(ctx, sessionID)
}

// RevokeAllSessions force-logs-out the user everywhere and reports how many
// sessions were killed.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	return s.sessions.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) establish(ctx context.Context, user domain.User, meta domain.ClientMeta) (*AuthResult, error) {
	session, err := s.sessions.Create(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.signer.Issue(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	return &AuthResult{User: user.Sanitized(), Session: session, AccessToken: accessToken}, nil
}

// validateEmail trims surrounding whitespace but keeps the address exactly
// as given: email is a case-sensitive natural key, and two addresses that
// differ only in case are distinct accounts. Case folding happens solely in
// the rate-limit identifier.
func validateEmail(email string) (string, error) {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(trimmed); err != nil || addr.Address != trimmed {
		return "", fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	return trimmed, nil
}
