package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/gustavo-gsp/TaskFlow/internal/infra/security"
	"github.com/gustavo-gsp/TaskFlow/internal/transport/http/middleware"
	"github.com/gustavo-gsp/TaskFlow/internal/usecase"
)

// CookiePolicy describes how the two credential cookies are written. Both
// are HttpOnly with SameSite=Lax; Secure follows the deployment environment.
type CookiePolicy struct {
	AccessName  string
	RefreshName string
	Domain      string
	Path        string
	Secure      bool
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
}

// AuthHandler exposes the authentication endpoints.
type AuthHandler struct {
	auth    *usecase.AuthService
	cookies CookiePolicy
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, cookies CookiePolicy) *AuthHandler {
	if cookies.Path == "" {
		cookies.Path = "/"
	}
	return &AuthHandler{auth: auth, cookies: cookies}
}

var registerErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidInput, Status: http.StatusBadRequest, Message: "invalid request payload"},
	{Err: security.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet strength requirements"},
	{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
}

// Register creates an account and logs it in immediately, returning 201 with
// both credential cookies set.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	meta := middleware.GetRequestContext(c).ClientMeta()

	result, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password, meta)
	if err != nil {
		RespondWithMappedError(c, err, registerErrorCases, http.StatusInternalServerError, "registration failed")
		return
	}

	h.setAuthCookies(c, result)
	c.JSON(http.StatusCreated, AuthResponse{
		User:        newUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
}

// Login verifies the credentials and establishes a new session alongside any
// existing ones.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	meta := middleware.GetRequestContext(c).ClientMeta()

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, meta)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	h.setAuthCookies(c, result)
	c.JSON(http.StatusOK, AuthResponse{
		User:        newUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

// Refresh rotates the refresh secret from the cookie and reissues both
// credentials. Any failure clears the cookies so a broken client stops
// retrying a dead secret.
func (h *AuthHandler) Refresh(c *gin.Context) {
	secret, err := c.Cookie(h.cookies.RefreshName)
	if err != nil || secret == "" {
		h.clearAuthCookies(c)
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid credentials"))
		return
	}

	meta := middleware.GetRequestContext(c).ClientMeta()

	result, err := h.auth.Refresh(c.Request.Context(), secret, meta)
	if err != nil {
		h.clearAuthCookies(c)
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "refresh failed")
		return
	}

	h.setAuthCookies(c, result)
	c.JSON(http.StatusOK, AuthResponse{
		User:        newUserResponse(result.User),
		AccessToken: result.AccessToken,
	})
}

// Logout revokes the presented refresh secret and clears both cookies. It
// always returns 204: unknown and already-dead secrets log out the same way
// a live one does.
func (h *AuthHandler) Logout(c *gin.Context) {
	if secret, err := c.Cookie(h.cookies.RefreshName); err == nil {
		h.auth.Logout(c.Request.Context(), secret)
	}

	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

// Me returns the account behind the authenticated request.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusUnauthorized, Message: "account no longer exists"},
		}, http.StatusInternalServerError, "failed to load account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(*user)})
}

// RevokeAll force-logs-out the user everywhere, including the session behind
// this request, and clears the caller's cookies.
func (h *AuthHandler) RevokeAll(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	count, err := h.auth.RevokeAllSessions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to revoke sessions"))
		return
	}

	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, RevokeAllResponse{RevokedSessions: count})
}

func (h *AuthHandler) setAuthCookies(c *gin.Context, result *usecase.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.AccessName, result.AccessToken,
		int(h.cookies.AccessTTL.Seconds()), h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(h.cookies.RefreshName, result.Session.RefreshToken,
		int(h.cookies.RefreshTTL.Seconds()), h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookies.AccessName, "", -1, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
	c.SetCookie(h.cookies.RefreshName, "", -1, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}
