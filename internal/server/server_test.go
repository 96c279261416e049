package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/arcade-leaderboard/internal/auth"
	"github.com/sakif/arcade-leaderboard/internal/cache"
	rediscache "github.com/sakif/arcade-leaderboard/internal/cache/redis"
	"github.com/sakif/arcade-leaderboard/internal/catalog"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/mocks"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/random"
	"github.com/sakif/arcade-leaderboard/internal/handler"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	sqliteRepo "github.com/sakif/arcade-leaderboard/internal/repository/sqlite"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

const testVolunteerPassword = "arcade2025"

var shortCodePattern = regexp.MustCompile(`^P[ABCDEFGHJKLMNPQRSTUVWXYZ23456789]{6}$`)

type testApp struct {
	server *Server
	db     *sqliteRepo.DB
	clock  *mocks.MockClock
}

type appOption func(*appOptions)

type appOptions struct {
	lb         cache.Leaderboard
	volunteers bool
	checks     map[string]handler.Checker
}

func withCache(lb cache.Leaderboard) appOption {
	return func(o *appOptions) { o.lb = lb }
}

func withVolunteerAuth() appOption {
	return func(o *appOptions) { o.volunteers = true }
}

func withChecks(checks map[string]handler.Checker) appOption {
	return func(o *appOptions) { o.checks = checks }
}

// newTestApp builds the full server on an in-memory database with the
// default catalog synced, the way cmd/server does at startup.
func newTestApp(t *testing.T, opts ...appOption) *testApp {
	t.Helper()

	o := appOptions{lb: cache.Noop{}}
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := sqliteRepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := mocks.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	codes := identity.NewCodeGenerator(random.New())

	games := service.NewGameService(db.Games(), logger)
	defaults, err := catalog.Default()
	require.NoError(t, err)
	require.NoError(t, games.SyncCatalog(context.Background(), defaults))

	services := Services{
		Players: service.NewPlayerService(db, o.lb, codes, clk, logger),
		Scores:  service.NewScoreService(db, o.lb, clk, logger),
		Games:   games,
		Checks:  o.checks,
	}
	if services.Checks == nil {
		services.Checks = map[string]handler.Checker{"sqlite": handler.CheckFunc(db.Ping)}
	}
	if o.volunteers {
		tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
		require.NoError(t, err)
		services.Volunteers, err = service.NewVolunteerService(
			testVolunteerPassword, auth.NewPasswordServiceForTest(4), tokens, logger)
		require.NoError(t, err)
	}

	srv, err := New(Config{Addr: ":0"}, services, logger)
	require.NoError(t, err)

	return &testApp{server: srv, db: db, clock: clk}
}

func (a *testApp) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type registration struct {
	ID          string `json:"_id"`
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	IsNewPlayer bool   `json:"isNewPlayer"`
}

func (a *testApp) register(t *testing.T, name, phone string) registration {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/players", map[string]string{"name": name, "phone": phone})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	a.clock.Advance(time.Minute)
	return decode[registration](t, rec)
}

func (a *testApp) submit(t *testing.T, playerID, gameID string, score int) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, http.MethodPost, "/api/scores", map[string]any{
		"playerId": playerID, "gameId": gameID, "score": score,
	})
}

// =========================================================================
// WORKED EXAMPLE
// =========================================================================

func TestWorkedExample(t *testing.T) {
	app := newTestApp(t)

	// Register; the same phone again returns the same player.
	ana := app.register(t, "Ana", "555-0100")
	assert.True(t, ana.IsNewPlayer)
	assert.Regexp(t, shortCodePattern, ana.PlayerID)

	again := app.register(t, "Ana B.", "555-0100")
	assert.False(t, again.IsNewPlayer)
	assert.Equal(t, ana.ID, again.ID)
	assert.Equal(t, ana.PlayerID, again.PlayerID)
	assert.Equal(t, "Ana", again.Name)

	// First score.
	rec := app.submit(t, ana.PlayerID, "game1", 120)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[map[string]any](t, rec)
	assert.Equal(t, true, first["success"])
	assert.Equal(t, false, first["updated"])
	assert.EqualValues(t, 120, first["totalScore"])
	assert.NotContains(t, first, "previousScore")

	// Second submission for the same game is a conflict carrying the first.
	rec = app.submit(t, ana.PlayerID, "game1", 80)
	require.Equal(t, http.StatusConflict, rec.Code)
	conflict := decode[map[string]any](t, rec)
	assert.Equal(t, "Player has already played this game", conflict["error"])
	assert.Equal(t, "conflict", conflict["code"])
	assert.Equal(t, true, conflict["canUpdate"])
	existing := conflict["existingScore"].(map[string]any)
	assert.Equal(t, "game1", existing["gameId"])
	assert.EqualValues(t, 120, existing["score"])

	// Explicit update.
	rec = app.do(t, http.MethodPost, "/api/scores", map[string]any{
		"playerId": ana.PlayerID, "gameId": "game1", "score": 50, "updateExisting": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[map[string]any](t, rec)
	assert.Equal(t, true, updated["updated"])
	assert.EqualValues(t, 120, updated["previousScore"])
	assert.EqualValues(t, 50, updated["totalScore"])

	// One score on record, total follows it.
	rec = app.do(t, http.MethodGet, "/api/scores?playerId="+ana.PlayerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	scores := decode[[]map[string]any](t, rec)
	require.Len(t, scores, 1)
	assert.EqualValues(t, 50, scores[0]["score"])

	rec = app.do(t, http.MethodGet, "/api/players/"+ana.PlayerID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	player := decode[map[string]any](t, rec)
	assert.EqualValues(t, 50, player["totalScore"])
}

// =========================================================================
// PLAYERS
// =========================================================================

func TestRegister_MissingFields(t *testing.T) {
	app := newTestApp(t)

	for _, body := range []map[string]string{
		{"name": "Ana"},
		{"phone": "555-0100"},
		{"name": "  ", "phone": "555-0100"},
	} {
		rec := app.do(t, http.MethodPost, "/api/players", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decode[map[string]any](t, rec)
		assert.Equal(t, "Name and phone are required", resp["error"])
		assert.Equal(t, "validation_error", resp["code"])
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodPost, "/api/players", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[map[string]any](t, rec)["code"])
}

func TestGetPlayer_IdentifierForms(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	for name, id := range map[string]string{
		"native id":             ana.ID,
		"short code":            ana.PlayerID,
		"lower-case short code": strings.ToLower(ana.PlayerID),
	} {
		t.Run(name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, "/api/players/"+id, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			p := decode[map[string]any](t, rec)
			assert.Equal(t, ana.ID, p["_id"])
			assert.Equal(t, ana.PlayerID, p["playerId"])
			assert.Equal(t, []any{}, p["scores"])
		})
	}
}

func TestGetPlayer_NotFound(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/players/PZZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[map[string]any](t, rec)["code"])
}

func TestLeaderboard_OrderAndTies(t *testing.T) {
	app := newTestApp(t)

	// Registered in this order; Bo and Cy tie on 200.
	ana := app.register(t, "Ana", "555-0001")
	bo := app.register(t, "Bo", "555-0002")
	cy := app.register(t, "Cy", "555-0003")
	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game1", 100).Code)
	require.Equal(t, http.StatusOK, app.submit(t, cy.PlayerID, "game1", 200).Code)
	require.Equal(t, http.StatusOK, app.submit(t, bo.PlayerID, "game2", 200).Code)

	rec := app.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[[]map[string]any](t, rec)
	require.Len(t, board, 3)
	assert.Equal(t, "Bo", board[0]["name"])
	assert.Equal(t, "Cy", board[1]["name"])
	assert.Equal(t, "Ana", board[2]["name"])

	rec = app.do(t, http.MethodGet, "/api/players/"+cy.PlayerID+"/rank", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rank := decode[map[string]any](t, rec)
	assert.EqualValues(t, 2, rank["rank"])
	assert.EqualValues(t, 3, rank["players"])
	assert.EqualValues(t, 200, rank["totalScore"])
}

func TestLeaderboard_TopTen(t *testing.T) {
	app := newTestApp(t)

	for i := range 12 {
		p := app.register(t, "Player", "555-01"+string(rune('a'+i)))
		require.Equal(t, http.StatusOK, app.submit(t, p.PlayerID, "game1", i*10).Code)
	}

	rec := app.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[[]map[string]any](t, rec)
	require.Len(t, board, 10)
	assert.EqualValues(t, 110, board[0]["totalScore"])
	assert.EqualValues(t, 20, board[9]["totalScore"])
}

func TestLeaderboard_Empty(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// =========================================================================
// SCORES
// =========================================================================

func TestSubmitScore_Validation(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	tests := []struct {
		name string
		body string
	}{
		{"missing score", `{"playerId":"` + ana.PlayerID + `","gameId":"game1"}`},
		{"missing game", `{"playerId":"` + ana.PlayerID + `","score":10}`},
		{"missing player", `{"gameId":"game1","score":10}`},
		{"fractional score", `{"playerId":"` + ana.PlayerID + `","gameId":"game1","score":12.5}`},
		{"non-numeric score", `{"playerId":"` + ana.PlayerID + `","gameId":"game1","score":true}`},
		{"quoted score", `{"playerId":"` + ana.PlayerID + `","gameId":"game1","score":"12"}`},
		{"exponent score", `{"playerId":"` + ana.PlayerID + `","gameId":"game1","score":1e3}`},
		{"malformed", `{"playerId":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/api/scores", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestSubmitScore_TotalOverflow(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game1", math.MaxInt64-10).Code)
	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game2", 5).Code)

	rec := app.submit(t, ana.PlayerID, "game3", 10)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "validation_error", decode[map[string]any](t, rec)["code"])

	rec = app.do(t, http.MethodPost, "/api/scores", map[string]any{
		"playerId": ana.PlayerID, "gameId": "game2", "score": 100, "updateExisting": true,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// Nothing was written, and every read of the player still works.
	rec = app.do(t, http.MethodGet, "/api/players/"+ana.PlayerID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var player struct {
		Scores     []map[string]any `json:"scores"`
		TotalScore int64            `json:"totalScore"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &player))
	assert.Len(t, player.Scores, 2)
	assert.Equal(t, int64(math.MaxInt64-5), player.TotalScore)

	for _, path := range []string{"/api/players", "/api/players/" + ana.PlayerID + "/rank", "/"} {
		assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, path, nil).Code, path)
	}
}

func TestSubmitScore_ZeroIsAScore(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	rec := app.submit(t, ana.PlayerID, "game1", 0)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.submit(t, ana.PlayerID, "game1", 10)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmitScore_UnknownPlayer(t *testing.T) {
	app := newTestApp(t)

	rec := app.submit(t, "PZZZZZZ", "game1", 10)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubmitScore_UnknownGameIsAccepted(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	rec := app.submit(t, ana.PlayerID, "no-such-game", 10)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListScores(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")

	rec := app.do(t, http.MethodGet, "/api/scores?playerId="+ana.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/scores", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Player ID is required", decode[map[string]any](t, rec)["error"])

	rec = app.do(t, http.MethodGet, "/api/scores?playerId=PZZZZZZ", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =========================================================================
// GAMES
// =========================================================================

func TestGames(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/games", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	games := decode[[]map[string]any](t, rec)
	require.Len(t, games, 6)
	assert.Equal(t, "game1", games[0]["id"])

	rec = app.do(t, http.MethodPost, "/api/games", map[string]string{
		"name": "Pinball", "description": "Keep the ball alive.",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "game7", created["id"])

	rec = app.do(t, http.MethodPost, "/api/games", map[string]string{"name": "Pinball"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Name and description are required", decode[map[string]any](t, rec)["error"])

	rec = app.do(t, http.MethodGet, "/api/games", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 7)
}

// =========================================================================
// VOLUNTEER AUTH
// =========================================================================

func TestVolunteerAuth(t *testing.T) {
	app := newTestApp(t, withVolunteerAuth())
	ana := app.register(t, "Ana", "555-0100")

	rec := app.submit(t, ana.PlayerID, "game1", 10)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/games", map[string]string{"name": "X", "description": "Y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/volunteer/me", nil)
	assert.JSONEq(t, `{"authRequired":true,"authenticated":false}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/volunteer/login", map[string]string{"password": "guess"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodPost, "/api/volunteer/login", map[string]string{"password": testVolunteerPassword})
	require.Equal(t, http.StatusOK, rec.Code)
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.CookieName {
			session = c
		}
	}
	require.NotNil(t, session, "login must set the session cookie")
	assert.True(t, session.HttpOnly)
	assert.NotContains(t, rec.Body.String(), session.Value)

	rec = app.do(t, http.MethodGet, "/api/volunteer/me", nil, session)
	assert.Equal(t, true, decode[map[string]any](t, rec)["authenticated"])

	rec = app.do(t, http.MethodPost, "/api/scores", map[string]any{
		"playerId": ana.PlayerID, "gameId": "game1", "score": 10,
	}, session)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Reads stay public.
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/api/players", nil).Code)

	rec = app.do(t, http.MethodPost, "/api/volunteer/logout", nil, session)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestVolunteerAuth_Disabled(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/api/volunteer/me", nil)
	assert.JSONEq(t, `{"authRequired":false,"authenticated":false}`, rec.Body.String())

	rec = app.do(t, http.MethodPost, "/api/volunteer/login", map[string]string{"password": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =========================================================================
// CACHE
// =========================================================================

func TestLeaderboard_CacheInvalidatedOnScore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	lb := rediscache.NewWithClient(client, rediscache.DefaultConfig())

	app := newTestApp(t, withCache(lb))
	ana := app.register(t, "Ana", "555-0100")
	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game1", 10).Code)

	rec := app.do(t, http.MethodGet, "/api/players", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, mr.Exists("arcade:leaderboard:top"), "leaderboard read should fill the cache")

	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game2", 15).Code)
	assert.False(t, mr.Exists("arcade:leaderboard:top"), "a recorded score should drop the cache")

	rec = app.do(t, http.MethodGet, "/api/players", nil)
	board := decode[[]map[string]any](t, rec)
	require.Len(t, board, 1)
	assert.EqualValues(t, 25, board[0]["totalScore"])
}

// =========================================================================
// OPERATIONAL ROUTES
// =========================================================================

func TestHealthz(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sqlite":{"status":"ok"}}`, rec.Body.String())

	down := newTestApp(t, withChecks(map[string]handler.Checker{
		"sqlite": handler.CheckFunc(func(context.Context) error { return nil }),
		"redis":  handler.CheckFunc(func(context.Context) error { return errors.New("connection refused") }),
	}))
	rec = down.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"sqlite":{"status":"ok"},"redis":{"status":"error"}}`, rec.Body.String())
}

func TestOpenAPI(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	for _, path := range []string{
		"/healthz", "/api/games", "/api/players", "/api/players/{id}",
		"/api/players/{id}/rank", "/api/scores", "/api/volunteer/login",
	} {
		assert.Contains(t, doc.Paths, path)
	}

	rec = app.do(t, http.MethodGet, "/docs/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestLeaderboardPage(t *testing.T) {
	app := newTestApp(t)
	ana := app.register(t, "Ana", "555-0100")
	require.Equal(t, http.StatusOK, app.submit(t, ana.PlayerID, "game1", 120).Code)

	rec := app.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Ana")
}
