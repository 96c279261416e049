package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/cache"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/clock"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/repository"
)

// maxUpdateAttempts bounds the compare-and-swap retries of an explicit score
// update that keeps losing to concurrent writers.
const maxUpdateAttempts = 3

// ScoreService records game results against players.
type ScoreService struct {
	players repository.PlayerRepository
	cache   cache.Leaderboard
	clock   clock.Clock
	logger  *slog.Logger
}

func NewScoreService(
	players repository.PlayerRepository,
	lb cache.Leaderboard,
	clk clock.Clock,
	logger *slog.Logger,
) *ScoreService {
	return &ScoreService{
		players: players,
		cache:   lb,
		clock:   clk,
		logger:  logger,
	}
}

// SubmitInput is a score submission. Score is a pointer so that a missing
// value is distinguishable from a legitimate 0.
type SubmitInput struct {
	PlayerID       string
	GameID         string
	Score          *int
	UpdateExisting bool
}

// Submit records a score, enforcing one score per player per game.
//
// HOW THE INVARIANT HOLDS UNDER CONCURRENCY:
//
//  1. APPEND: one conditional UPDATE pushes the score only if no element for
//     the game exists yet, and bumps the total in the same statement. Two
//     racing first submissions cannot both succeed.
//
//  2. ALREADY PLAYED: if the append matched nothing, read the stored score.
//     Without UpdateExisting this is a Conflict that carries the stored score
//     so the caller can offer an update.
//
//  3. UPDATE: a second conditional UPDATE replaces the element only while it
//     still holds the value we read (compare-and-swap) and applies
//     total - old + new. Losing the swap means someone else changed it in
//     between; re-read and try again, up to maxUpdateAttempts.
//
// The game id is not checked against the catalog.
func (s *ScoreService) Submit(ctx context.Context, in SubmitInput) (*model.ScoreResult, error) {
	gameID := strings.TrimSpace(in.GameID)
	if strings.TrimSpace(in.PlayerID) == "" || gameID == "" || in.Score == nil {
		return nil, apperror.ValidationFailed("score", "Player ID, game ID, and score are required")
	}
	value := *in.Score

	f, err := identity.Resolve(in.PlayerID)
	if err != nil {
		return nil, err
	}
	player, err := s.players.Find(ctx, f)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()

	// === APPEND PATH ===
	total, ok, err := s.players.AppendScore(ctx, player.ID, model.Score{
		GameID:   gameID,
		Value:    value,
		PlayedAt: now,
	})
	if err != nil {
		return nil, s.fail(player.ID, gameID, err)
	}
	if ok {
		s.recorded(ctx, "score recorded", player.ID, gameID, value, total)
		return &model.ScoreResult{
			Success:    true,
			GameID:     gameID,
			Score:      value,
			TotalScore: total,
		}, nil
	}

	// === UPDATE PATH ===
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.players.Find(ctx, identity.ByID(player.ID))
		if err != nil {
			return nil, s.fail(player.ID, gameID, err)
		}

		existing, found := current.ScoreFor(gameID)
		if !found {
			// Scores are never deleted, so this only happens if the append
			// guard and this read disagree. Append again.
			total, ok, err = s.players.AppendScore(ctx, player.ID, model.Score{
				GameID: gameID, Value: value, PlayedAt: now,
			})
			if err != nil {
				return nil, s.fail(player.ID, gameID, err)
			}
			if ok {
				s.recorded(ctx, "score recorded", player.ID, gameID, value, total)
				return &model.ScoreResult{Success: true, GameID: gameID, Score: value, TotalScore: total}, nil
			}
			continue
		}

		if !in.UpdateExisting {
			return nil, apperror.ConflictWithHint("Player has already played this game", existing)
		}

		total, ok, err = s.players.ReplaceScore(ctx, player.ID, gameID, existing.Value, value, now)
		if err != nil {
			return nil, s.fail(player.ID, gameID, err)
		}
		if ok {
			previous := existing.Value
			s.recorded(ctx, "score updated", player.ID, gameID, value, total)
			return &model.ScoreResult{
				Success:       true,
				GameID:        gameID,
				Score:         value,
				TotalScore:    total,
				WasUpdate:     true,
				PreviousValue: &previous,
			}, nil
		}

		s.logger.Debug("score update lost a race, retrying",
			slog.String("playerId", player.ID),
			slog.String("gameId", gameID),
			slog.Int("attempt", attempt+1),
		)
	}

	return nil, s.fail(player.ID, gameID,
		fmt.Errorf("score kept changing after %d attempts", maxUpdateAttempts))
}

func (s *ScoreService) recorded(ctx context.Context, msg, playerID, gameID string, value, total int) {
	s.logger.Info(msg,
		slog.String("playerId", playerID),
		slog.String("gameId", gameID),
		slog.Int("score", value),
		slog.Int("totalScore", total),
	)
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", slog.String("error", err.Error()))
	}
}

// fail logs and wraps a store failure. Domain errors from the store, such as
// a total that would overflow, pass through unchanged.
func (s *ScoreService) fail(playerID, gameID string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	s.logger.Error("failed to record score",
		slog.String("playerId", playerID),
		slog.String("gameId", gameID),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("recording score for player %s: %w", playerID, err)
}
