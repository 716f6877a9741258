package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "WillBank"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultAggregateTimeout  = 3 * time.Second
	defaultDashboardCacheTTL = 30 * time.Second
	defaultBreakerWindow     = 10
	defaultBreakerMinCalls   = 5
	defaultBreakerFailurePct = 50
	defaultBreakerCooldown   = 10 * time.Second
	defaultBreakerProbes     = 2
	defaultRateLimitPerMin   = 120
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName string
	AppEnv  string
	Port    string

	LogLevel string

	DatabaseURL string
	RedisURL    string
	NATSURL     string

	// Base URLs of the collaborating services. When empty the composite layer
	// falls back to locally served or static sources.
	ClientServiceURL      string
	CompteServiceURL      string
	TransactionServiceURL string

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Composite layer resilience knobs.
	AggregateTimeout  time.Duration
	DashboardCacheTTL time.Duration
	BreakerWindow     int
	BreakerMinCalls   int
	BreakerFailurePct int
	BreakerCooldown   time.Duration
	BreakerProbes     int
	RateLimitPerMin   int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:               getEnv("APP_NAME", defaultAppName),
		AppEnv:                getEnv("APP_ENV", defaultAppEnv),
		Port:                  getEnv("PORT", defaultPort),
		LogLevel:              strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		NATSURL:               os.Getenv("NATS_URL"),
		ClientServiceURL:      os.Getenv("CLIENT_SERVICE_URL"),
		CompteServiceURL:      os.Getenv("COMPTE_SERVICE_URL"),
		TransactionServiceURL: os.Getenv("TRANSACTION_SERVICE_URL"),
		ShutdownPeriod:        defaultShutdownDelay,
		IdempotencyTTL:        defaultIdempotencyTTL,
		AggregateTimeout:      defaultAggregateTimeout,
		DashboardCacheTTL:     defaultDashboardCacheTTL,
		BreakerWindow:         defaultBreakerWindow,
		BreakerMinCalls:       defaultBreakerMinCalls,
		BreakerFailurePct:     defaultBreakerFailurePct,
		BreakerCooldown:       defaultBreakerCooldown,
		BreakerProbes:         defaultBreakerProbes,
		RateLimitPerMin:       defaultRateLimitPerMin,
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AggregateTimeout, err = getDuration("AGGREGATE_TIMEOUT", cfg.AggregateTimeout); err != nil {
		return Config{}, err
	}
	if cfg.DashboardCacheTTL, err = getDuration("DASHBOARD_CACHE_TTL", cfg.DashboardCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.BreakerCooldown, err = getDuration("BREAKER_COOLDOWN", cfg.BreakerCooldown); err != nil {
		return Config{}, err
	}
	if cfg.BreakerWindow, err = getInt("BREAKER_WINDOW", cfg.BreakerWindow); err != nil {
		return Config{}, err
	}
	if cfg.BreakerMinCalls, err = getInt("BREAKER_MIN_CALLS", cfg.BreakerMinCalls); err != nil {
		return Config{}, err
	}
	if cfg.BreakerFailurePct, err = getInt("BREAKER_FAILURE_RATE", cfg.BreakerFailurePct); err != nil {
		return Config{}, err
	}
	if cfg.BreakerProbes, err = getInt("BREAKER_HALF_OPEN_CALLS", cfg.BreakerProbes); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMin, err = getInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimitPerMin); err != nil {
		return Config{}, err
	}

	if cfg.BreakerFailurePct <= 0 || cfg.BreakerFailurePct > 100 {
		return Config{}, fmt.Errorf("BREAKER_FAILURE_RATE must be within (0, 100], got %d", cfg.BreakerFailurePct)
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment,
// where in-memory fallbacks replace missing external dependencies.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration reads <key>_SECONDS as an integer second count, falling back to
// <key> parsed as a Go duration string.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
