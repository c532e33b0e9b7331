package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/infra/config"
	redisinfra "github.com/gustavo-gsp/TaskFlow/internal/infra/redis"
	"github.com/gustavo-gsp/TaskFlow/internal/transport/http/handlers"
	"github.com/gustavo-gsp/TaskFlow/internal/transport/http/middleware"
	"github.com/gustavo-gsp/TaskFlow/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Auth        *usecase.AuthService
	Metrics     *middleware.HTTPMetrics
	Database    *pgxpool.Pool
	Cache       *redisinfra.Client
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	r.Use(deps.Metrics.Handler())

	healthHandler := handlers.NewHealthHandler(deps.Database, deps.Cache)
	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Ready)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	cookies := handlers.CookiePolicy{
		AccessName:  deps.Config.Cookies.AccessName,
		RefreshName: deps.Config.Cookies.RefreshName,
		Domain:      deps.Config.Cookies.Domain,
		Path:        deps.Config.Cookies.Path,
		Secure:      deps.Config.App.IsProduction(),
		AccessTTL:   deps.Config.JWT.AccessTokenTTL,
		RefreshTTL:  deps.Config.RefreshToken.TTL,
	}
	authHandler := handlers.NewAuthHandler(deps.Auth, cookies)

	requireAuth := middleware.RequireAuth(deps.Auth, cookies.AccessName)

	window := deps.Config.RateLimit.WindowDuration
	limit := deps.Config.RateLimit.MaxAttempts

	// The IP rule runs before the email rule so an attacker cycling target
	// addresses still exhausts a single per-IP budget first.
	credentialLimits := deps.RateLimiter.RateLimit(
		middleware.RateLimitRule{
			Name:       "credential-ip",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		},
		middleware.RateLimitRule{
			Name:       "credential-email",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.EmailIdentifier(),
		},
	)
	refreshLimit := deps.RateLimiter.RateLimit(
		middleware.RateLimitRule{
			Name:       "refresh-ip",
			Limit:      limit,
			Window:     window,
			Identifier: middleware.ClientIPIdentifier(),
		},
	)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")

		auth.POST("/register", credentialLimits, authHandler.Register)
		auth.POST("/login", credentialLimits, authHandler.Login)
		auth.POST("/refresh", refreshLimit, authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", requireAuth, authHandler.Me)
		auth.POST("/sessions/revoke-all", requireAuth, authHandler.RevokeAll)
	}

	return r
}
