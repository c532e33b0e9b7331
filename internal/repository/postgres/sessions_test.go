package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
)

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	createdAt := time.Now().UTC()
	userAgent := "Mozilla/5.0"
	session := domain.Session{
		ID:           "session-123",
		UserID:       "user-123",
		RefreshToken: "opaque-refresh-secret",
		UserAgent:    &userAgent,
		ExpiresAt:    createdAt.Add(30 * 24 * time.Hour),
		CreatedAt:    createdAt,
	}

	mock.ExpectExec(`INSERT INTO auth\.sessions`).
		WithArgs(
			session.ID,
			session.UserID,
			session.RefreshToken,
			&userAgent,
			(*string)(nil),
			session.ExpiresAt,
			false,
			session.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_CreateDuplicateSecret(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectExec(`INSERT INTO auth\.sessions`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "sessions_refresh_token_key"})

	err = repo.Create(context.Background(), domain.Session{ID: "session-123"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestSessionRepository_RevokeReportsWinner(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectExec(`UPDATE auth\.sessions SET revoked`).
		WithArgs(true, "session-123", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	changed, err := repo.Revoke(context.Background(), "session-123")
	if err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if !changed {
		t.Fatal("expected first revoke to report a change")
	}

	mock.ExpectExec(`UPDATE auth\.sessions SET revoked`).
		WithArgs(true, "session-123", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	changed, err = repo.Revoke(context.Background(), "session-123")
	if err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if changed {
		t.Fatal("expected second revoke to be a no-op")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_GetByRefreshTokenNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM auth\.sessions`).
		WithArgs("missing-secret").
		WillReturnError(pgx.ErrNoRows)

	_, err = repo.GetByRefreshToken(context.Background(), "missing-secret")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	now := time.Now().UTC()
	grace := 7 * 24 * time.Hour

	mock.ExpectExec(`DELETE FROM auth\.sessions`).
		WithArgs(now, true, now.Add(-grace)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	count, err := repo.DeleteExpired(context.Background(), now, grace)
	if err != nil {
		t.Fatalf("DeleteExpired returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
