// Package repository declares the document store the services depend on.
//
// Two collections exist: games (the catalog) and players (identity plus the
// embedded score history). Implementations live in sub-packages.
package repository

import (
	"context"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/identity"
	"github.com/sakif/arcade-leaderboard/internal/model"
)

type ListOptions struct {
	Limit int // 0 means no limit
}

type PlayerRepository interface {
	// Create inserts a player unless one with the same phone exists. It
	// reports whether the insert happened; when it did not, player is
	// overwritten with the stored record.
	Create(ctx context.Context, player *model.Player) (created bool, err error)
	GetByPhone(ctx context.Context, phone string) (*model.Player, error)
	Find(ctx context.Context, filter identity.Filter) (*model.Player, error)

	// Leaderboard returns players by total score, highest first. Equal totals
	// keep registration order.
	Leaderboard(ctx context.Context, opts ListOptions) ([]model.Player, error)

	// AppendScore atomically adds a score for a game the player has not
	// played. It returns the new total, or ok=false when a score for that
	// game already exists.
	AppendScore(ctx context.Context, playerID string, score model.Score) (total int, ok bool, err error)

	// ReplaceScore atomically swaps the score for gameID, provided the
	// stored value still equals oldValue. ok=false means it changed (or
	// vanished) in between.
	ReplaceScore(ctx context.Context, playerID, gameID string, oldValue, newValue int, playedAt time.Time) (total int, ok bool, err error)
}

type GameRepository interface {
	// Upsert inserts each game or overwrites the fields of an existing one,
	// keyed by ID. Slice order becomes catalog order.
	Upsert(ctx context.Context, games []model.Game) error
	Create(ctx context.Context, game *model.Game) error
	List(ctx context.Context) ([]model.Game, error)
	Count(ctx context.Context) (int, error)
}
