package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var sessionColumns = []string{
	"id",
	"user_id",
	"refresh_token",
	"user_agent",
	"ip",
	"expires_at",
	"revoked",
	"created_at",
}

// SessionRepository implements port.SessionRepository backed by PostgreSQL.
// The refresh_token column carries a UNIQUE constraint; concurrent creates
// with the same secret surface as repository.ErrDuplicate.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that
// satisfies pgExecutor.
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists a new session row.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	sql, args, err := r.builder.Insert("auth.sessions").
		Columns(sessionColumns...).
		Values(
			session.ID,
			session.UserID,
			session.RefreshToken,
			session.UserAgent,
			session.IP,
			session.ExpiresAt,
			session.Revoked,
			session.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByID returns a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (*domain.Session, error) {
	return r.getOne(ctx, squirrel.Eq{"id": sessionID})
}

// GetByRefreshToken returns the session owning the supplied refresh secret.
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error) {
	return r.getOne(ctx, squirrel.Eq{"refresh_token": refreshToken})
}

func (r *SessionRepository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Session, error) {
	sql, args, err := r.builder.
		Select(sessionColumns...).
		From("auth.sessions").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, sql, args...)

	var session domain.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&session.UserAgent,
		&session.IP,
		&session.ExpiresAt,
		&session.Revoked,
		&session.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	return &session, nil
}

// Revoke flips the revoked flag and reports whether this call changed the
// row. The condition on revoked=false makes concurrent rotations of one
// session resolve to a single winner.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) (bool, error) {
	sql, args, err := r.builder.Update("auth.sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"id": sessionID, "revoked": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build revoke session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// RevokeAllForUser bulk-revokes every active session of the user and returns
// the number of rows changed.
func (r *SessionRepository) RevokeAllForUser(ctx context.Context, userID string) (int, error) {
	sql, args, err := r.builder.Update("auth.sessions").
		Set("revoked", true).
		Where(squirrel.Eq{"user_id": userID, "revoked": false}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build revoke sessions for user sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions for user: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// DeleteExpired removes rows past expiry or revoked long enough ago that no
// in-flight operation can still reference them.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time, retentionGrace time.Duration) (int, error) {
	staleBefore := now.Add(-retentionGrace)

	sql, args, err := r.builder.Delete("auth.sessions").
		Where(squirrel.Or{
			squirrel.Lt{"expires_at": now},
			squirrel.And{
				squirrel.Eq{"revoked": true},
				squirrel.Lt{"created_at": staleBefore},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete expired sessions sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
