// Package config loads application settings from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-wide settings.
type Config struct {
	Addr        string
	DatabaseURL string
	WebDir      string

	// SessionTTL is the server-controlled session lifetime. Expiry is
	// absolute: the stamp is set once at login and never refreshed.
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Optional OIDC SSO. Disabled unless all three are set.
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// Load reads configuration from the environment, with a best-effort .env
// file first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:        env("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		WebDir:      env("WEB_DIR", "web"),

		SessionTTL:    time.Duration(envInt("SESSION_TTL_MINUTES", 24*60)) * time.Minute,
		SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,

		OIDCIssuer:       os.Getenv("OIDC_ISSUER"),
		OIDCClientID:     os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.SessionTTL <= 0 {
		return nil, errors.New("SESSION_TTL_MINUTES must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return nil, errors.New("SWEEP_INTERVAL_SECONDS must be positive")
	}
	return cfg, nil
}

// SSOEnabled reports whether the optional OIDC flow is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != "" && c.OIDCClientSecret != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
