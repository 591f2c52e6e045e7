package config

import (
	"os"
	"time"
)

// DefaultTokenTTL is how long issued tokens stay valid.
const DefaultTokenTTL = 7 * 24 * time.Hour

type Config struct {
	Port         string
	SecretKey    string
	DatabaseURL  string
	DatabaseName string
	LogLevel     string
	TokenTTL     time.Duration
}

// Load reads configuration from the environment. Every value except
// DATABASE_URL has a default; the insecure SECRET_KEY fallback exists so the
// API boots in development and must be overridden in real deployments.
func Load() Config {
	ttl := DefaultTokenTTL
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}

	return Config{
		Port:         getenv("PORT", "8000"),
		SecretKey:    getenv("SECRET_KEY", "dev-secret-change-me"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: getenv("DATABASE_NAME", "app"),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		TokenTTL:     ttl,
	}
}

// helper to read env with default
func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
