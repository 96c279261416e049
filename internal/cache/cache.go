// Package cache declares the leaderboard cache the player service reads
// through. The store stays the source of truth: a cache may lose entries or
// be absent altogether.
package cache

import (
	"context"

	"github.com/sakif/arcade-leaderboard/internal/model"
)

// Leaderboard caches the public top-N player list.
//
// Every Invalidate bumps a generation. Get reports the generation it saw and
// Set stores the list only if no Invalidate happened since, so a list read
// from the store before a score write can never be cached after it.
type Leaderboard interface {
	// Get returns the cached list. ok is false on a miss, and gen is the
	// generation to pass to Set when refilling.
	Get(ctx context.Context) (players []model.Player, gen int64, ok bool, err error)
	// Set stores players if the generation is still gen. A stale fill is
	// dropped without error.
	Set(ctx context.Context, gen int64, players []model.Player) error
	// Invalidate drops the cached list after a score write.
	Invalidate(ctx context.Context) error
}

// Noop is used when no cache is configured. Every Get misses.
type Noop struct{}

var _ Leaderboard = Noop{}

func (Noop) Get(context.Context) ([]model.Player, int64, bool, error) { return nil, 0, false, nil }
func (Noop) Set(context.Context, int64, []model.Player) error         { return nil }
func (Noop) Invalidate(context.Context) error                         { return nil }
