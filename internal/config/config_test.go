package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DB_PATH", "REDIS_URL", "LEADERBOARD_CACHE_TTL",
		"CATALOG_FILE", "VOLUNTEER_PASSWORD", "JWT_SECRET", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "data/arcade.db", cfg.DBPath)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.LeaderboardTTL)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.AuthEnabled())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("LEADERBOARD_CACHE_TTL", "5s")
	t.Setenv("VOLUNTEER_PASSWORD", "arcade")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, ":memory:", cfg.DBPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 5*time.Second, cfg.LeaderboardTTL)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.True(t, cfg.AuthEnabled())
}

func TestParse_AuthNeedsBothSettings(t *testing.T) {
	tests := []struct {
		name, password, secret string
	}{
		{"password only", "arcade2025", ""},
		{"secret only", "", "test-secret-at-least-16-chars"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VOLUNTEER_PASSWORD", tt.password)
			t.Setenv("JWT_SECRET", tt.secret)

			cfg, err := Parse()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must be set together")
			assert.Nil(t, cfg)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"LEADERBOARD_CACHE_TTL", "soon"},
		{"LOG_LEVEL", "LOUD"},
		{"LOG_FORMAT", "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("DB_PATH=from-dotenv.db\nHTTP_ADDR=:7070\n"), 0o644))
	t.Chdir(dir)

	t.Setenv("DB_PATH", "")
	os.Unsetenv("DB_PATH")
	t.Setenv("HTTP_ADDR", ":6060")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv.db", cfg.DBPath)
	// The real environment wins over .env.
	assert.Equal(t, ":6060", cfg.HTTPAddr)
}

func TestLoad_NoDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load()
	assert.NoError(t, err)
}
