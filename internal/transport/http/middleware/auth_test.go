package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/security"
	"github.com/gustavo-gsp/TaskFlow/internal/repository"
	"github.com/gustavo-gsp/TaskFlow/internal/usecase"
)

const testCookieName = "access_token"

type staticUserRepo struct{}

func (staticUserRepo) Create(context.Context, domain.User) error { return nil }
func (staticUserRepo) GetByID(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}
func (staticUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

type mapSessionRepo struct {
	sessions map[string]domain.Session
}

func (r *mapSessionRepo) Create(_ context.Context, s domain.Session) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *mapSessionRepo) GetByID(_ context.Context, id string) (*domain.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *mapSessionRepo) GetByRefreshToken(context.Context, string) (*domain.Session, error) {
	return nil, repository.ErrNotFound
}

func (r *mapSessionRepo) Revoke(_ context.Context, id string) (bool, error) {
	s, ok := r.sessions[id]
	if !ok || s.Revoked {
		return false, nil
	}
	s.Revoked = true
	r.sessions[id] = s
	return true, nil
}

func (r *mapSessionRepo) RevokeAllForUser(context.Context, string) (int, error) { return 0, nil }

func (r *mapSessionRepo) DeleteExpired(context.Context, time.Time, time.Duration) (int, error) {
	return 0, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishUserRegistered(context.Context, domain.UserRegisteredEvent) error {
	return nil
}
func (nopPublisher) PublishSessionRevoked(context.Context, domain.SessionRevokedEvent) error {
	return nil
}

var (
	_ port.UserRepository    = staticUserRepo{}
	_ port.SessionRepository = (*mapSessionRepo)(nil)
	_ port.EventPublisher    = nopPublisher{}
)

type authTestEnv struct {
	router   *gin.Engine
	signer   *security.TokenSigner
	sessions *mapSessionRepo
}

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	signer, err := security.NewTokenSigner("middleware-test-secret-0123456789", "HS256", "auth-service", 15*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}

	sessions := &mapSessionRepo{sessions: make(map[string]domain.Session)}
	log := zaptest.NewLogger(t)

	sessionSvc := usecase.NewSessionService(sessions, nopPublisher{}, log, usecase.SessionConfig{
		SecretLength:   32,
		TTL:            30 * 24 * time.Hour,
		RetentionGrace: 7 * 24 * time.Hour,
	})

	authSvc := usecase.NewAuthService(staticUserRepo{}, sessionSvc, nil, nil, signer, nopPublisher{}, log)

	router := gin.New()
	router.Use(EnrichContext())
	router.GET("/private", RequireAuth(authSvc, testCookieName), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	router.GET("/mixed", OptionalAuth(authSvc, testCookieName), func(c *gin.Context) {
		if userID, ok := GetUserID(c); ok {
			c.JSON(http.StatusOK, gin.H{"user_id": userID})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": nil})
	})

	return &authTestEnv{router: router, signer: signer, sessions: sessions}
}

func (e *authTestEnv) addSession(t *testing.T, id string, revoked bool) {
	t.Helper()
	e.sessions.sessions[id] = domain.Session{
		ID:        id,
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   revoked,
	}
}

func (e *authTestEnv) issue(t *testing.T, sessionID string) string {
	t.Helper()
	token, err := e.signer.Issue("user-1", "user@example.com", sessionID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return token
}

func (e *authTestEnv) get(path string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if decorate != nil {
		decorate(req)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestRequireAuth_AcceptsCookieCredential(t *testing.T) {
	env := newAuthTestEnv(t)
	env.addSession(t, "sess-1", false)
	token := env.issue(t, "sess-1")

	rr := env.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRequireAuth_AcceptsBearerFallback(t *testing.T) {
	env := newAuthTestEnv(t)
	env.addSession(t, "sess-1", false)
	token := env.issue(t, "sess-1")

	rr := env.get("/private", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestRequireAuth_RejectsMissingCredential(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := env.get("/private", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuth_RejectsGarbageToken(t *testing.T) {
	env := newAuthTestEnv(t)

	rr := env.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "not.a.jwt"})
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuth_RejectsRevokedSession(t *testing.T) {
	env := newAuthTestEnv(t)
	env.addSession(t, "sess-1", true)
	token := env.issue(t, "sess-1")

	rr := env.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for revoked session, got %d", rr.Code)
	}
	if body := rr.Body.String(); !strings.Contains(body, "session invalid or revoked") {
		t.Fatalf("expected session liveness message, got %s", body)
	}
}

func TestRequireAuth_RejectsUnknownSession(t *testing.T) {
	env := newAuthTestEnv(t)
	token := env.issue(t, "never-created")

	rr := env.get("/private", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown session, got %d", rr.Code)
	}
}

func TestOptionalAuth_PassesAnonymousAndBadCredentials(t *testing.T) {
	env := newAuthTestEnv(t)

	if rr := env.get("/mixed", nil); rr.Code != http.StatusOK {
		t.Fatalf("anonymous: expected 200, got %d", rr.Code)
	}

	rr := env.get("/mixed", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: "garbage"})
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("garbage credential: expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"user_id":null`) {
		t.Fatalf("garbage credential should stay anonymous, got %s", rr.Body.String())
	}
}

func TestOptionalAuth_AttachesIdentityWhenValid(t *testing.T) {
	env := newAuthTestEnv(t)
	env.addSession(t, "sess-1", false)
	token := env.issue(t, "sess-1")

	rr := env.get("/mixed", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"user_id":"user-1"`) {
		t.Fatalf("expected identity in response, got %s", rr.Body.String())
	}
}

