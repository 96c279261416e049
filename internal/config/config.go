// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/arcade.db"`

	// Empty disables the leaderboard cache.
	RedisURL       string        `env:"REDIS_URL"`
	LeaderboardTTL time.Duration `env:"LEADERBOARD_CACHE_TTL" envDefault:"30s"`

	// Empty means the catalog embedded in the binary.
	CatalogFile string `env:"CATALOG_FILE"`

	// Volunteer auth is enabled when both are set. Setting only one is a
	// configuration error.
	VolunteerPassword string `env:"VOLUNTEER_PASSWORD"`
	JWTSecret         string `env:"JWT_SECRET"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`
}

// AuthEnabled reports whether score and game writes require a volunteer session.
func (c *Config) AuthEnabled() bool {
	return c.VolunteerPassword != "" && c.JWTSecret != ""
}

// Load reads an optional .env file from the working directory, then parses
// the environment. Variables already set win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the configuration from the environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if (cfg.VolunteerPassword == "") != (cfg.JWTSecret == "") {
		return nil, errors.New("VOLUNTEER_PASSWORD and JWT_SECRET must be set together")
	}
	return &cfg, nil
}
