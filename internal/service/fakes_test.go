package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/mocks"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/random"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	"github.com/sakif/arcade-leaderboard/internal/model"
	"github.com/sakif/arcade-leaderboard/internal/repository"
)

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They honour the
// same contracts as the SQLite store (conditional append, compare-and-swap
// replace, phone uniqueness) so the services can be tested without a
// database. Error fields simulate store failures.

var errStoreDown = errors.New("store unavailable")

type fakePlayerRepo struct {
	mu      sync.Mutex
	players []*model.Player

	createErr error
	findErr   error
	appendErr error

	// loseReplaces makes the next N ReplaceScore calls report a lost race
	// after changing the stored value, as a concurrent writer would.
	loseReplaces int
	replaceCalls int

	// afterLeaderboard runs once the list is read, before it is returned.
	afterLeaderboard func()
}

var _ repository.PlayerRepository = (*fakePlayerRepo)(nil)

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{}
}

func clonePlayer(p *model.Player) *model.Player {
	c := *p
	c.Scores = append([]model.Score{}, p.Scores...)
	return &c
}

func (f *fakePlayerRepo) Create(_ context.Context, player *model.Player) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return false, f.createErr
	}
	for _, p := range f.players {
		if p.Phone == player.Phone {
			*player = *clonePlayer(p)
			return false, nil
		}
	}
	f.players = append(f.players, clonePlayer(player))
	return true, nil
}

func (f *fakePlayerRepo) GetByPhone(_ context.Context, phone string) (*model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Phone == phone {
			return clonePlayer(p), nil
		}
	}
	return nil, apperror.NotFound("player", phone)
}

func (f *fakePlayerRepo) Find(_ context.Context, flt identity.Filter) (*model.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	best, bestRank := (*model.Player)(nil), 3
	for _, p := range f.players {
		rank := 3
		switch {
		case flt.NativeID != "" && p.ID == flt.NativeID:
			rank = 0
		case p.ShortCode == flt.ShortCode:
			rank = 1
		case p.ShortCode == flt.Raw || p.ID == flt.Raw || (p.Alias != "" && p.Alias == flt.Raw):
			rank = 2
		}
		if rank < bestRank {
			best, bestRank = p, rank
		}
	}
	if best == nil {
		return nil, apperror.NotFound("player", flt.Raw)
	}
	return clonePlayer(best), nil
}

func (f *fakePlayerRepo) Leaderboard(_ context.Context, opts repository.ListOptions) ([]model.Player, error) {
	if f.afterLeaderboard != nil {
		defer f.afterLeaderboard()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Player, 0, len(f.players))
	for _, p := range f.players {
		out = append(out, *clonePlayer(p))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakePlayerRepo) byID(id string) *model.Player {
	for _, p := range f.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakePlayerRepo) AppendScore(_ context.Context, playerID string, score model.Score) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return 0, false, f.appendErr
	}
	p := f.byID(playerID)
	if p == nil {
		return 0, false, nil
	}
	if _, ok := p.ScoreFor(score.GameID); ok {
		return 0, false, nil
	}
	if addOverflows(p.TotalScore, score.Value) {
		return 0, false, apperror.ValidationFailed("score", "Score would overflow the player's total")
	}
	p.Scores = append(p.Scores, score)
	p.TotalScore += score.Value
	return p.TotalScore, true, nil
}

func (f *fakePlayerRepo) ReplaceScore(_ context.Context, playerID, gameID string, oldValue, newValue int, playedAt time.Time) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	p := f.byID(playerID)
	if p == nil {
		return 0, false, nil
	}
	for i := range p.Scores {
		if p.Scores[i].GameID != gameID {
			continue
		}
		if f.loseReplaces > 0 {
			f.loseReplaces--
			// A concurrent writer got there first.
			p.TotalScore++
			p.Scores[i].Value++
			return 0, false, nil
		}
		if p.Scores[i].Value != oldValue {
			return 0, false, nil
		}
		if addOverflows(p.TotalScore-oldValue, newValue) {
			return 0, false, apperror.ValidationFailed("score", "Score would overflow the player's total")
		}
		p.Scores[i] = model.Score{GameID: gameID, Value: newValue, PlayedAt: playedAt}
		p.TotalScore += newValue - oldValue
		return p.TotalScore, true, nil
	}
	return 0, false, nil
}

func addOverflows(a, b int) bool {
	sum := a + b
	return (b > 0 && sum < a) || (b < 0 && sum > a)
}

type fakeGameRepo struct {
	games     []model.Game
	upsertErr error
	countErr  error
}

var _ repository.GameRepository = (*fakeGameRepo)(nil)

func (f *fakeGameRepo) Upsert(_ context.Context, games []model.Game) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	for _, g := range games {
		replaced := false
		for i := range f.games {
			if f.games[i].ID == g.ID {
				f.games[i] = g
				replaced = true
			}
		}
		if !replaced {
			f.games = append(f.games, g)
		}
	}
	return nil
}

func (f *fakeGameRepo) Create(_ context.Context, game *model.Game) error {
	for _, g := range f.games {
		if g.ID == game.ID {
			return apperror.Conflict("game", game.ID)
		}
	}
	f.games = append(f.games, *game)
	return nil
}

func (f *fakeGameRepo) List(context.Context) ([]model.Game, error) {
	return append([]model.Game{}, f.games...), nil
}

func (f *fakeGameRepo) Count(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.games), nil
}

// fakeCache records calls and can be told to fail.
type fakeCache struct {
	mu          sync.Mutex
	players     []model.Player
	filled      bool
	gen         int64
	gets        int
	sets        int
	invalidated int
	err         error
}

func (c *fakeCache) Get(context.Context) ([]model.Player, int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, 0, false, c.err
	}
	return c.players, c.gen, c.filled, nil
}

func (c *fakeCache) Set(_ context.Context, gen int64, players []model.Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.err != nil {
		return c.err
	}
	if gen != c.gen {
		return nil
	}
	c.players, c.filled = players, true
	return nil
}

func (c *fakeCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	if c.err != nil {
		return c.err
	}
	c.gen++
	c.players, c.filled = nil, false
	return nil
}

// =========================================================================
// HELPERS
// =========================================================================

var testNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	players *PlayerService
	scores  *ScoreService
	repo    *fakePlayerRepo
	cache   *fakeCache
	clock   *mocks.MockClock
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRandom(t, random.New())
}

func newTestEnvWithRandom(t *testing.T, rnd random.Random) *testEnv {
	t.Helper()
	repo := newFakePlayerRepo()
	lb := &fakeCache{}
	clk := mocks.NewMockClock(testNow)
	logger := testLogger()
	return &testEnv{
		players: NewPlayerService(repo, lb, identity.NewCodeGenerator(rnd), clk, logger),
		scores:  NewScoreService(repo, lb, clk, logger),
		repo:    repo,
		cache:   lb,
		clock:   clk,
	}
}

func intPtr(v int) *int { return &v }
