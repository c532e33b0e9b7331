package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gustavo-gsp/TaskFlow/internal/core/domain"
)

const (
	// TraceIDHeader is the HTTP header carrying the trace ID.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key for the trace ID.
	TraceIDKey = "trace_id"
	// UserIDKey is the gin context key for the authenticated user ID.
	UserIDKey = "user_id"
	// SessionIDKey is the gin context key for the session backing the
	// presented access token.
	SessionIDKey = "session_id"
	// ClaimsKey is the gin context key for the full access token claims.
	ClaimsKey = "claims"

	requestContextKey = "request_context"
)

// RequestContext holds request-scoped information.
type RequestContext struct {
	TraceID   string
	UserID    string
	IP        string
	UserAgent string
}

// ClientMeta converts the captured request metadata into the advisory form
// stored on sessions. Empty values become nil so they never overwrite
// existing session metadata.
func (rc *RequestContext) ClientMeta() domain.ClientMeta {
	meta := domain.ClientMeta{}
	if rc.UserAgent != "" {
		ua := rc.UserAgent
		meta.UserAgent = &ua
	}
	if rc.IP != "" {
		ip := rc.IP
		meta.IP = &ip
	}
	return meta
}

// EnrichContext adds a trace ID and request metadata to each request.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Set(requestContextKey, &RequestContext{
			TraceID:   traceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// GetTraceID retrieves the trace ID from the context.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetRequestContext retrieves the full request context.
func GetRequestContext(c *gin.Context) *RequestContext {
	if ctx, exists := c.Get(requestContextKey); exists {
		if reqCtx, ok := ctx.(*RequestContext); ok {
			return reqCtx
		}
	}
	return &RequestContext{}
}

// GetUserID retrieves the authenticated user ID, if any.
func GetUserID(c *gin.Context) (string, bool) {
	if v, exists := c.Get(UserIDKey); exists {
		if id, ok := v.(string); ok && id != "" {
			return id, true
		}
	}
	return "", false
}
