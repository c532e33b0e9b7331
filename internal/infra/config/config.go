package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type AppConfig struct {
	App          AppSettings          `mapstructure:"app"`
	Postgres     PostgresSettings     `mapstructure:"postgres"`
	Redis        RedisSettings        `mapstructure:"redis"`
	Kafka        KafkaSettings        `mapstructure:"kafka"`
	JWT          JWTSettings          `mapstructure:"jwt"`
	RefreshToken RefreshTokenSettings `mapstructure:"refresh_token"`
	Password     PasswordSettings     `mapstructure:"password"`
	Argon2       Argon2Settings       `mapstructure:"argon2"`
	RateLimit    RateLimitSettings    `mapstructure:"rate_limit"`
	Cookies      CookieSettings       `mapstructure:"cookies"`
	Session      SessionSettings      `mapstructure:"session"`
	CORS         CORSSettings         `mapstructure:"cors"`
}

type AppSettings struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// IsProduction reports whether the service runs with production hardening
// (release mode, secure cookies, JSON logs).
func (a AppSettings) IsProduction() bool {
	return a.Env == "production"
}

type PostgresSettings struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	User              string        `mapstructure:"user"`
	Password          string        `mapstructure:"password"`
	Database          string        `mapstructure:"database"`
	SSLMode           string        `mapstructure:"ssl_mode"`
	MaxConns          int32         `mapstructure:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period"`
}

// RedisSettings configures the optional shared rate-limit counter backend.
type RedisSettings struct {
	Enabled         bool   `mapstructure:"enabled"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	DB              int    `mapstructure:"db"`
	Password        string `mapstructure:"password"`
	TLSEnabled      bool   `mapstructure:"tls_enabled"`
	RateLimitPrefix string `mapstructure:"rate_limit_prefix"`
}

// KafkaSettings configures the session lifecycle event publisher.
type KafkaSettings struct {
	Brokers     []string `mapstructure:"brokers"`
	TopicPrefix string   `mapstructure:"topic_prefix"`
}

type JWTSettings struct {
	Secret         string        `mapstructure:"secret"`
	Algorithm      string        `mapstructure:"algorithm"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// RefreshTokenSettings controls refresh secret entropy and session lifetime.
type RefreshTokenSettings struct {
	Length     int           `mapstructure:"length"`
	ExpiryDays int           `mapstructure:"expiry_days"`
	TTL        time.Duration `mapstructure:"-"`
}

type PasswordSettings struct {
	MinLength int `mapstructure:"min_length"`
	MinScore  int `mapstructure:"min_score"`
}

// Argon2Settings configures Argon2id password hashing parameters.
type Argon2Settings struct {
	Memory      uint32 `mapstructure:"memory"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

// RateLimitSettings configures the fixed-window brute force throttle.
type RateLimitSettings struct {
	WindowDuration time.Duration `mapstructure:"window_duration"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
}

// CookieSettings names the cookie channels that carry the two credentials.
type CookieSettings struct {
	AccessName  string `mapstructure:"access_name"`
	RefreshName string `mapstructure:"refresh_name"`
	Domain      string `mapstructure:"domain"`
	Path        string `mapstructure:"path"`
}

// SessionSettings controls the background sweep of dead session rows.
type SessionSettings struct {
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	RetentionGrace time.Duration `mapstructure:"retention_grace"`
}

type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func Load() (*AppConfig, error) {
	v := viper.New()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("AUTH")

	setDefaults(v)

	if err := bindEnvs(v, []string{
		"app.name",
		"app.env",
		"app.host",
		"app.port",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.database",
		"postgres.ssl_mode",
		"postgres.max_conns",
		"postgres.min_conns",
		"postgres.max_conn_lifetime",
		"postgres.max_conn_idle_time",
		"postgres.health_check_period",
		"redis.enabled",
		"redis.host",
		"redis.port",
		"redis.db",
		"redis.password",
		"redis.tls_enabled",
		"redis.rate_limit_prefix",
		"kafka.brokers",
		"kafka.topic_prefix",
		"jwt.secret",
		"jwt.algorithm",
		"jwt.access_token_ttl",
		"refresh_token.length",
		"refresh_token.expiry_days",
		"password.min_length",
		"password.min_score",
		"argon2.memory",
		"argon2.iterations",
		"argon2.parallelism",
		"argon2.salt_length",
		"argon2.key_length",
		"rate_limit.window_duration",
		"rate_limit.max_attempts",
		"cookies.access_name",
		"cookies.refresh_name",
		"cookies.domain",
		"cookies.path",
		"session.sweep_interval",
		"session.retention_grace",
		"cors.allowed_origins",
	}); err != nil {
		return nil, err
	}

	v.AutomaticEnv()

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.RefreshToken.ExpiryDays <= 0 {
		cfg.RefreshToken.ExpiryDays = 30
	}
	cfg.RefreshToken.TTL = time.Duration(cfg.RefreshToken.ExpiryDays) * 24 * time.Hour

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	if c.App.IsProduction() && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("jwt.secret must be overridden in production")
	}
	return nil
}

const defaultJWTSecret = "your-secret-key-change-in-production"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "taskflow-auth")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 3333)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "taskflow")
	v.SetDefault("postgres.password", "taskflow_password")
	v.SetDefault("postgres.database", "taskflow")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("postgres.max_conn_lifetime", "60m")
	v.SetDefault("postgres.max_conn_idle_time", "15m")
	v.SetDefault("postgres.health_check_period", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.tls_enabled", false)
	v.SetDefault("redis.rate_limit_prefix", "auth:rate-limit")

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "auth")

	v.SetDefault("jwt.secret", defaultJWTSecret)
	v.SetDefault("jwt.algorithm", "HS256")
	v.SetDefault("jwt.access_token_ttl", "15m")

	v.SetDefault("refresh_token.length", 64)
	v.SetDefault("refresh_token.expiry_days", 30)

	v.SetDefault("password.min_length", 8)
	v.SetDefault("password.min_score", 0)

	v.SetDefault("argon2.memory", 65536)
	v.SetDefault("argon2.iterations", 3)
	v.SetDefault("argon2.parallelism", 4)
	v.SetDefault("argon2.salt_length", 16)
	v.SetDefault("argon2.key_length", 32)

	v.SetDefault("rate_limit.window_duration", "1m")
	v.SetDefault("rate_limit.max_attempts", 5)

	v.SetDefault("cookies.access_name", "access_token")
	v.SetDefault("cookies.refresh_name", "refresh_token")
	v.SetDefault("cookies.domain", "")
	v.SetDefault("cookies.path", "/")

	v.SetDefault("session.sweep_interval", "1h")
	v.SetDefault("session.retention_grace", "168h")

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

func bindEnvs(v *viper.Viper, keys []string) error {
	for _, key := range keys {
		envKey := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, "AUTH_"+envKey, envKey); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}
