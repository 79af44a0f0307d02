package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTokenTTL matches the lifetime of the session cookie kept by clients.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Config holds all configuration for the API server and the worker
type Config struct {
	// HTTP Configuration
	HTTP HTTPConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration
	Redis RedisConfig

	// Auth Configuration
	Auth AuthConfig

	// Mail Configuration
	Mail MailConfig

	// Logging Configuration
	Logging LoggingConfig
}

// HTTPConfig holds listener and CORS settings
type HTTPConfig struct {
	ListenAddr  string
	CORSOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration. An empty address disables the task queue.
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// AuthConfig holds token issuing and revocation settings
type AuthConfig struct {
	JWTSecret         string        // Empty = generate once and persist in the settings table
	TokenTTL          time.Duration // Lifetime of issued bearer tokens
	RevocationBackend string        // "database" or "redis"
	PurgeSchedule     string        // Cron spec for purging expired revocations
	AdminEmail        string        // Bootstrap admin, created on start when no admin exists
	AdminPassword     string
}

// MailConfig holds outbound mail settings
type MailConfig struct {
	SendGridAPIKey string
	From           string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	tokenTTL := DefaultTokenTTL
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", raw, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: must be positive", raw)
		}
		tokenTTL = ttl
	}

	backend := strings.ToLower(getEnv("REVOCATION_BACKEND", "database"))
	if backend != "database" && backend != "redis" {
		return nil, fmt.Errorf("invalid REVOCATION_BACKEND %q: must be database or redis", backend)
	}

	redisAddr := os.Getenv("REDIS_ADDRESS")
	if backend == "redis" && redisAddr == "" {
		return nil, fmt.Errorf("REVOCATION_BACKEND=redis requires REDIS_ADDRESS")
	}

	return &Config{
		HTTP: HTTPConfig{
			ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", "carepoint.sqlite"),
		},
		Redis: RedisConfig{
			Address: redisAddr,
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          tokenTTL,
			RevocationBackend: backend,
			PurgeSchedule:     getEnv("PURGE_SCHEDULE", "@hourly"),
			AdminEmail:        os.Getenv("ADMIN_EMAIL"),
			AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		},
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			From:           getEnv("MAIL_FROM", "no-reply@carepoint.health"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
