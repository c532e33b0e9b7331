package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gustavo-gsp/TaskFlow/internal/core/port"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/config"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/database"
	kafkainfra "github.com/gustavo-gsp/TaskFlow/internal/infra/kafka"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/logger"
	redisinfra "github.com/gustavo-gsp/TaskFlow/internal/infra/redis"
	"github.com/gustavo-gsp/TaskFlow/internal/infra/security"
	memoryrepo "github.com/gustavo-gsp/TaskFlow/internal/repository/memory"
	postgresrepo "github.com/gustavo-gsp/TaskFlow/internal/repository/postgres"
	redisrepo "github.com/gustavo-gsp/TaskFlow/internal/repository/redis"
	"github.com/gustavo-gsp/TaskFlow/internal/transport/http/middleware"
	"github.com/gustavo-gsp/TaskFlow/internal/transport/http/routes"
	"github.com/gustavo-gsp/TaskFlow/internal/usecase"
)

// Application owns the wired service graph and its lifecycle.
type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	pool     *pgxpool.Pool
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
	sessions *usecase.SessionService
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	hasher, err := security.NewHasher(port.Argon2Params{
		Memory:      cfg.Argon2.Memory,
		Iterations:  cfg.Argon2.Iterations,
		Parallelism: cfg.Argon2.Parallelism,
		SaltLength:  cfg.Argon2.SaltLength,
		KeyLength:   cfg.Argon2.KeyLength,
	})
	if err != nil {
		return nil, fmt.Errorf("init password hasher: %w", err)
	}

	signer, err := security.NewTokenSigner(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.App.Name, cfg.JWT.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	policy := security.NewPasswordPolicy(cfg.Password.MinLength, cfg.Password.MinScore)

	// The rate limiter runs on the in-process store unless Redis is enabled,
	// in which case every replica shares one set of counters.
	var (
		redisClient    *redisinfra.Client
		rateLimitStore port.RateLimitStore
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		rateLimitStore = redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.RateLimitPrefix)
		log.Info("rate limiting backed by redis", zap.String("prefix", cfg.Redis.RateLimitPrefix))
	} else {
		rateLimitStore = memoryrepo.NewRateLimitStore()
		log.Info("rate limiting backed by process memory")
	}

	var (
		eventPublisher port.EventPublisher
		producer       *kafkainfra.Producer
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.Kafka, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	userRepo := postgresrepo.NewUserRepository(pool)
	sessionRepo := postgresrepo.NewSessionRepository(pool)

	sessionService := usecase.NewSessionService(sessionRepo, eventPublisher, log, usecase.SessionConfig{
		SecretLength:   cfg.RefreshToken.Length,
		TTL:            cfg.RefreshToken.TTL,
		RetentionGrace: cfg.Session.RetentionGrace,
	})

	authService := usecase.NewAuthService(userRepo, sessionService, hasher, policy, signer, eventPublisher, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Namespace: "auth"})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(rateLimitStore, log),
		Auth:        authService,
		Metrics:     metrics,
		Database:    pool,
		Cache:       redisClient,
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		pool:     pool,
		redis:    redisClient,
		producer: producer,
		sessions: sessionService,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.pool.Close()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.producer != nil {
			_ = a.producer.Close()
		}
	}()

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go a.sessions.RunSweeper(sweeperCtx, a.cfg.Session.SweepInterval)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		a.logger.Info("auth API stopped gracefully")
		return nil
	case err := <-serverErrCh:
		return err
	}
}
