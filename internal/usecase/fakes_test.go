package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User // keyed by id
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]domain.Session // keyed by id
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.RefreshToken == session.RefreshToken {
			return repository.ErrDuplicate
		}
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &session, nil
}

func (r *fakeSessionRepo) GetByRefreshToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.RefreshToken == token {
			s := session
			return &s, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSessionRepo) Revoke(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok || session.Revoked {
		return false, nil
	}
	session.Revoked = true
	r.sessions[sessionID] = session
	return true, nil
}

func (r *fakeSessionRepo) RevokeAllForUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for id, session := range r.sessions {
		if session.UserID == userID && !session.Revoked {
			session.Revoked = true
			r.sessions[id] = session
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time, retentionGrace time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	staleBefore := now.Add(-retentionGrace)
	count := 0
	for id, session := range r.sessions {
		if session.ExpiresAt.Before(now) || (session.Revoked && session.CreatedAt.Before(staleBefore)) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) active(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, session := range r.sessions {
		if session.UserID == userID && !session.Revoked {
			count++
		}
	}
	return count
}

type fakePublisher struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	revoked    []domain.SessionRevokedEvent
}

func (p *fakePublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *fakePublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return nil
}

func (p *fakePublisher) revokedReasons() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	reasons := make([]string, 0, len(p.revoked))
	for _, event := range p.revoked {
		reasons = append(reasons, event.Reason)
	}
	return reasons
}

var (
	_ port.UserRepository    = (*fakeUserRepo)(nil)
	_ port.SessionRepository = (*fakeSessionRepo)(nil)
	_ port.EventPublisher    = (*fakePublisher)(nil)
)
