// Package config resolves the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// OIDCConfig holds the optional staff single sign-on settings.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO has enough settings to be wired.
func (c OIDCConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != "" && c.RedirectURL != ""
}

// Config is resolved once at startup and passed to the composition root.
type Config struct {
	Addr             string
	APIBase          string
	UseMocks         bool
	MockLatency      time.Duration
	RecaptchaSiteKey string
	BackendTimeout   time.Duration

	SessionTTL   time.Duration
	SessionStore string
	CookieSecure bool
	DatabaseURL  string
	RedisAddr    string
	RedisPass    string

	LoginRateLimit  int
	LoginRateWindow time.Duration

	ResetTokenSecret string
	LogLevel         string
	OIDC             OIDCConfig
}

// Load reads the environment. It does not read .env files; callers load those
// first.
func Load() (Config, error) {
	var errs []error

	cfg := Config{
		Addr:             getEnv("ADDR", ":8080"),
		APIBase:          strings.TrimRight(getEnv("API_BASE", "http://localhost:3000"), "/"),
		RecaptchaSiteKey: os.Getenv("RECAPTCHA_SITE_KEY"),
		SessionStore:     strings.ToLower(getEnv("SESSION_STORE", StoreMemory)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPass:        os.Getenv("REDIS_PASSWORD"),
		ResetTokenSecret: os.Getenv("RESET_TOKEN_SECRET"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		OIDC: OIDCConfig{
			Issuer:       os.Getenv("OIDC_ISSUER"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}

	cfg.UseMocks = getBool("USE_MOCKS", false, &errs)
	cfg.CookieSecure = getBool("COOKIE_SECURE", false, &errs)
	cfg.MockLatency = getDuration("MOCK_LATENCY", 700*time.Millisecond, &errs)
	cfg.BackendTimeout = getDuration("BACKEND_TIMEOUT", 10*time.Second, &errs)
	cfg.SessionTTL = getDuration("SESSION_TTL", 24*time.Hour, &errs)
	cfg.LoginRateWindow = getDuration("LOGIN_RATE_WINDOW", time.Minute, &errs)
	cfg.LoginRateLimit = getInt("LOGIN_RATE_LIMIT", 5, &errs)

	switch cfg.SessionStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when SESSION_STORE=postgres"))
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE: unknown store %q", cfg.SessionStore))
	}

	if cfg.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func getInt(key string, fallback int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}
