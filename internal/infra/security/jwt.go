package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	uuid "github.com/google/uuid"
)

var (
	// ErrTokenInvalid indicates the token is malformed, carries a wrong
	// signature or algorithm, or fails claim validation.
	ErrTokenInvalid = errors.New("jwt: invalid token")
	// ErrTokenExpired indicates the token's expiry has passed.
	ErrTokenExpired = errors.New("jwt: token expired")
)

// AccessTokenClaims is the signed identity bundle carried by access tokens.
// SessionID points at the session row whose liveness gates the token.
type AccessTokenClaims struct {
	UserID    string `json:"uid"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies HMAC-signed access tokens. The signing
// method is fixed at construction; verification pins it rather than trusting
// the alg header, which blocks algorithm-confusion attacks.
type TokenSigner struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner constructs a TokenSigner for the supplied secret and
// algorithm name (HS256, HS384, or HS512).
func NewTokenSigner(secret, algorithm, issuer string, ttl time.Duration) (*TokenSigner, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", jwt.SigningMethodHS256.Alg():
		method = jwt.SigningMethodHS256
	case jwt.SigningMethodHS384.Alg():
		method = jwt.SigningMethodHS384
	case jwt.SigningMethodHS512.Alg():
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("jwt: unsupported signing algorithm %q", algorithm)
	}

	return &TokenSigner{
		secret: []byte(secret),
		method: method,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock injects a custom clock, primarily for testing.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
	if now != nil {
		s.now = now
	}
	return s
}

// TTL returns the configured access token lifetime.
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

// Issue signs an access token binding the user to a session.
func (s *TokenSigner) Issue(userID, email, sessionID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("jwt: user id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return "", fmt.Errorf("jwt: session id is required")
	}

	now := s.now().UTC()
	claims := AccessTokenClaims{
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}

	return signed, nil
}

// Parse validates the supplied token against the pinned algorithm and secret
// and returns its claims. Expiry is reported as ErrTokenExpired; every other
// failure collapses to ErrTokenInvalid.
func (s *TokenSigner) Parse(token string) (*AccessTokenClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &AccessTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if strings.TrimSpace(claims.UserID) == "" || strings.TrimSpace(claims.SessionID) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
