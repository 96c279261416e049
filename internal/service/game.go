package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/repository"
)

// GameService manages the game catalog.
type GameService struct {
	repo   repository.GameRepository
	logger *slog.Logger
}

func NewGameService(repo repository.GameRepository, logger *slog.Logger) *GameService {
	return &GameService{repo: repo, logger: logger}
}

// SyncCatalog upserts the configured catalog, keyed by game id. The server
// calls it once at startup; reads never write.
func (s *GameService) SyncCatalog(ctx context.Context, games []model.Game) error {
	if err := s.repo.Upsert(ctx, games); err != nil {
		return fmt.Errorf("syncing catalog: %w", err)
	}
	s.logger.Info("catalog synced", slog.Int("games", len(games)))
	return nil
}

// List returns the catalog in order.
func (s *GameService) List(ctx context.Context) ([]model.Game, error) {
	games, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	return games, nil
}

// Create adds a game with the next sequential id, "game<N+1>" where N is the
// current catalog size. If that id is already taken (a game was added out of
// band) the store reports a conflict rather than overwriting it.
func (s *GameService) Create(ctx context.Context, name, description, instructions string) (*model.Game, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" || description == "" {
		return nil, apperror.ValidationFailed("name", "Name and description are required")
	}

	n, err := s.repo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting games: %w", err)
	}

	game := &model.Game{
		ID:           fmt.Sprintf("game%d", n+1),
		Name:         name,
		Description:  description,
		Instructions: strings.TrimSpace(instructions),
	}
	if err := s.repo.Create(ctx, game); err != nil {
		return nil, err
	}

	s.logger.Info("game created", slog.String("id", game.ID), slog.String("name", game.Name))
	return game, nil
}
