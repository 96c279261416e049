// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the document store
//
// Services take repository interfaces, not *sqlite.DB, so tests can inject
// in-memory fakes and the CLI importer can reuse the same rules as the API.
// They return apperror values and never know about HTTP status codes.
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

// LeaderboardSize is the number of players on the public leaderboard.
const LeaderboardSize = 10

// PlayerService handles registration and the player read paths.
type PlayerService struct {
	repo   repository.PlayerRepository
	cache  cache.Leaderboard
	codes  *identity.CodeGenerator
	clock  clock.Clock
	logger *slog.Logger
}

// NewPlayerService creates a PlayerService. Pass cache.Noop{} when no cache
// is configured.
func NewPlayerService(
	repo repository.PlayerRepository,
	lb cache.Leaderboard,
	codes *identity.CodeGenerator,
	clk clock.Clock,
	logger *slog.Logger,
) *PlayerService {
	return &PlayerService{
		repo:   repo,
		cache:  lb,
		codes:  codes,
		clock:  clk,
		logger: logger,
	}
}

// Register returns the player registered with phone, creating one first if
// the phone is new.
//
// RETURNING PLAYERS:
// The phone number is the natural key. A second registration with the same
// phone never creates a duplicate and never renames the existing player; it
// returns the stored identity with IsNewPlayer=false. The lookup-then-insert
// is not a race: the insert itself is conditional on the phone being free,
// and a loser of that race receives the winner's record.
func (s *PlayerService) Register(ctx context.Context, name, phone string) (*model.Registration, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, apperror.ValidationFailed("phone", "Name and phone are required")
	}

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err == nil {
		return registration(existing, false), nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("looking up phone: %w", err)
	}

	player := &model.Player{
		ID:        identity.NewNativeID(),
		ShortCode: s.codes.Next(),
		Name:      name,
		Phone:     phone,
		Scores:    []model.Score{},
		CreatedAt: s.clock.Now(),
	}

	created, err := s.repo.Create(ctx, player)
	if err != nil {
		s.logger.Error("failed to register player",
			slog.String("phone", phone),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating player: %w", err)
	}
	if !created {
		return registration(player, false), nil
	}

	s.logger.Info("player registered",
		slog.String("id", player.ID),
		slog.String("playerId", player.ShortCode),
	)

	// A new player with zero points can still appear on a short leaderboard.
	s.invalidate(ctx)

	return registration(player, true), nil
}

func registration(p *model.Player, isNew bool) *model.Registration {
	return &model.Registration{
		ID:          p.ID,
		ShortCode:   p.ShortCode,
		Name:        p.Name,
		IsNewPlayer: isNew,
	}
}

// Get resolves any identifier form to a player.
func (s *PlayerService) Get(ctx context.Context, raw string) (*model.Player, error) {
	f, err := identity.Resolve(raw)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, f)
}

// Scores returns the player's score history, never nil.
func (s *PlayerService) Scores(ctx context.Context, raw string) ([]model.Score, error) {
	p, err := s.Get(ctx, raw)
	if err != nil {
		return nil, err
	}
	if p.Scores == nil {
		return []model.Score{}, nil
	}
	return p.Scores, nil
}

// Leaderboard returns the top players by total score.
//
// The cache is read-through and best effort: a cache failure is logged and
// the store answers instead.
func (s *PlayerService) Leaderboard(ctx context.Context) ([]model.Player, error) {
	players, gen, ok, cacheErr := s.cache.Get(ctx)
	if cacheErr != nil {
		s.logger.Warn("leaderboard cache read failed", slog.String("error", cacheErr.Error()))
	} else if ok {
		return players, nil
	}

	players, err := s.repo.Leaderboard(ctx, repository.ListOptions{Limit: LeaderboardSize})
	if err != nil {
		return nil, fmt.Errorf("listing leaderboard: %w", err)
	}

	// Without a generation from Get there is nothing safe to fill with.
	if cacheErr == nil {
		if err := s.cache.Set(ctx, gen, players); err != nil {
			s.logger.Warn("leaderboard cache write failed", slog.String("error", err.Error()))
		}
	}

	return players, nil
}

// Rank places one player in the full leaderboard, using the same order as
// Leaderboard.
func (s *PlayerService) Rank(ctx context.Context, raw string) (*model.Ranking, error) {
	p, err := s.Get(ctx, raw)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.Leaderboard(ctx, repository.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}

	for i := range all {
		if all[i].ID == p.ID {
			return &model.Ranking{
				ID:         p.ID,
				ShortCode:  p.ShortCode,
				Name:       p.Name,
				Rank:       i + 1,
				TotalScore: all[i].TotalScore,
				Players:    len(all),
			}, nil
		}
	}

	// Find saw the player but the full read did not; nothing is ever
	// deleted, so this is a store fault.
	return nil, fmt.Errorf("player %s missing from leaderboard", p.ID)
}

// invalidate drops the cached leaderboard. Failures are logged only.
func (s *PlayerService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", slog.String("error", err.Error()))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}
