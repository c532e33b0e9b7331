package usecase

import "errors"

var (
	// ErrInvalidInput covers malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmailTaken is returned when registering with an address that
	// already belongs to an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is the uniform failure for login and refresh.
	// It deliberately does not distinguish unknown email, wrong password,
	// or a dead refresh secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound means the refresh secret resolves to no usable
	// session: absent, revoked, or expired all look identical.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionRevoked means an access token is still valid but its
	// backing session has been revoked or has expired.
	ErrSessionRevoked = errors.New("session invalid or revoked")
	// ErrInvalidAccessToken means the presented access token failed
	// signature, algorithm, or structural checks.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken means the access token is past its expiry.
	ErrExpiredAccessToken = errors.New("access token expired")
	// ErrUserNotFound means no account exists for the identifier.
	ErrUserNotFound = errors.New("user not found")
)
