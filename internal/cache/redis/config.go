package redis

import "time"

// Config holds Redis connection and cache settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379/0)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// LeaderboardTTL bounds how stale the cached top list can get if an
	// invalidation is lost.
	LeaderboardTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		PoolSize:       10,
		MinIdleConns:   2,
		LeaderboardTTL: 30 * time.Second,
	}
}
