package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"LISTEN_ADDR", "CORS_ORIGINS", "DATABASE_URL", "REDIS_ADDRESS",
	"JWT_SECRET", "TOKEN_TTL", "REVOCATION_BACKEND", "PURGE_SCHEDULE",
	"ADMIN_EMAIL", "ADMIN_PASSWORD", "SENDGRID_API_KEY", "MAIL_FROM",
	"LOG_LEVEL", "LOG_FORMAT",
}

// cleanEnv blanks every setting and moves into an empty directory so no .env file is picked up
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, "carepoint.sqlite", cfg.Database.URL)
	assert.Empty(t, cfg.Redis.Address)
	assert.Equal(t, DefaultTokenTTL, cfg.Auth.TokenTTL)
	assert.Equal(t, "database", cfg.Auth.RevocationBackend)
	assert.Equal(t, "@hourly", cfg.Auth.PurgeSchedule)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	cleanEnv(t)
	t.Setenv("CORS_ORIGINS", "https://portal.example.com, ,https://admin.example.com")
	t.Setenv("TOKEN_TTL", "12h")
	t.Setenv("REVOCATION_BACKEND", "Redis")
	t.Setenv("REDIS_ADDRESS", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://portal.example.com", "https://admin.example.com"}, cfg.HTTP.CORSOrigins)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "redis", cfg.Auth.RevocationBackend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
}

func TestLoad_DotEnv(t *testing.T) {
	cleanEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("LISTEN_ADDR=:9090\n"), 0600))
	// godotenv does not override variables that are already set, even to ""
	require.NoError(t, os.Unsetenv("LISTEN_ADDR"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.ListenAddr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"bad ttl", map[string]string{"TOKEN_TTL": "soon"}, "invalid TOKEN_TTL"},
		{"negative ttl", map[string]string{"TOKEN_TTL": "-1h"}, "must be positive"},
		{"unknown backend", map[string]string{"REVOCATION_BACKEND": "memcached"}, "invalid REVOCATION_BACKEND"},
		{"redis without address", map[string]string{"REVOCATION_BACKEND": "redis"}, "requires REDIS_ADDRESS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
