package redis

import "fmt"

// Key prefix for all arcade data
const keyPrefix = "arcade"

// leaderboardKey returns the Redis key for the cached top list
func leaderboardKey() string {
	return fmt.Sprintf("%s:leaderboard:top", keyPrefix)
}

// generationKey counts invalidations of the top list.
func generationKey() string {
	return fmt.Sprintf("%s:leaderboard:gen", keyPrefix)
}
