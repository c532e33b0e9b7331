package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gustavo-gsp/TaskFlow/internal/usecase"
)

// ErrorResponse matches the handlers.ErrorResponse structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

func newErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:   errorMsg,
		TraceID: GetTraceID(c),
	}
}

// extractAccessToken looks for the access token in the session cookie first
// and falls back to the Authorization header for non-browser clients.
func extractAccessToken(c *gin.Context, cookieName string) string {
	if token, err := c.Cookie(cookieName); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// RequireAuth validates the access token and confirms its backing session is
// still alive, so revocation takes effect before the token expires.
func RequireAuth(authService *usecase.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c, cookieName)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				newErrorResponse(c, "authentication required"))
			return
		}

		claims, err := authService.ParseAccessToken(token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "access token expired"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "invalid access token"))
			}
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.SessionID); err != nil {
			if errors.Is(err, usecase.ErrSessionRevoked) {
				c.AbortWithStatusJSON(http.StatusUnauthorized,
					newErrorResponse(c, "session invalid or revoked"))
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				newErrorResponse(c, "authentication failed"))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(ClaimsKey, claims)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = claims.UserID
		}

		c.Next()
	}
}

// OptionalAuth attaches the user identity when a valid, live credential is
// presented and stays silent otherwise. Handlers behind it serve both
// anonymous and authenticated callers.
func OptionalAuth(authService *usecase.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		claims, err := authService.ParseAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		if err := authService.ValidateSession(c.Request.Context(), claims.SessionID); err != nil {
			c.Next()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(SessionIDKey, claims.SessionID)
		c.Set(ClaimsKey, claims)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.UserID = claims.UserID
		}

		c.Next()
	}
}
