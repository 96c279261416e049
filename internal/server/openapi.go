package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/sakif/arcade-leaderboard/internal/handler"
	"github.com/sakif/arcade-leaderboard/internal/model"
)

type playerPathRequest struct {
	ID string `path:"id" description:"Store id, short code (P7K3M9Q) or legacy id."`
}

type scoresQueryRequest struct {
	PlayerID string `query:"playerId" description:"Any player identifier form." required:"true"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Arcade Leaderboard API"
	r.Spec.Info.Version = "1.0.0"
	r.Spec.Info.WithDescription("Player registration, score recording and rankings for the event arcade.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the status of the store and, when configured, the cache.")
	getHealthz.AddRespStructure(map[string]handler.HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]handler.HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/games
	listGames, _ := r.NewOperationContext(http.MethodGet, "/api/games")
	listGames.SetSummary("List games")
	listGames.SetDescription("Returns the game catalog in display order.")
	listGames.AddRespStructure([]model.Game{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listGames)

	// POST /api/games
	createGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	createGame.SetSummary("Create game")
	createGame.SetDescription("Adds a game with the next sequential id. Requires the volunteer cookie when volunteer auth is enabled.")
	createGame.AddReqStructure(handler.CreateGameRequest{})
	createGame.AddRespStructure(model.Game{}, openapi.WithHTTPStatus(http.StatusCreated))
	createGame.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createGame.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	createGame.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createGame)

	// GET /api/players
	listPlayers, _ := r.NewOperationContext(http.MethodGet, "/api/players")
	listPlayers.SetSummary("Leaderboard")
	listPlayers.SetDescription("Returns the top 10 players by total score. Ties go to the earlier registration.")
	listPlayers.AddRespStructure([]model.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPlayers)

	// POST /api/players
	register, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	register.SetSummary("Register player")
	register.SetDescription("Registers a player, or returns the existing player for a known phone number.")
	register.AddReqStructure(handler.RegisterRequest{})
	register.AddRespStructure(model.Registration{}, openapi.WithHTTPStatus(http.StatusOK))
	register.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(register)

	// GET /api/players/{id}
	getPlayer, _ := r.NewOperationContext(http.MethodGet, "/api/players/{id}")
	getPlayer.SetSummary("Get player")
	getPlayer.SetDescription("Resolves any identifier form to a player.")
	getPlayer.AddReqStructure(playerPathRequest{})
	getPlayer.AddRespStructure(model.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	getPlayer.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getPlayer)

	// GET /api/players/{id}/rank
	getRank, _ := r.NewOperationContext(http.MethodGet, "/api/players/{id}/rank")
	getRank.SetSummary("Get player rank")
	getRank.SetDescription("Places the player in the full ranking.")
	getRank.AddReqStructure(playerPathRequest{})
	getRank.AddRespStructure(model.Ranking{}, openapi.WithHTTPStatus(http.StatusOK))
	getRank.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getRank)

	// GET /api/scores
	listScores, _ := r.NewOperationContext(http.MethodGet, "/api/scores")
	listScores.SetSummary("List player scores")
	listScores.AddReqStructure(scoresQueryRequest{})
	listScores.AddRespStructure([]model.Score{}, openapi.WithHTTPStatus(http.StatusOK))
	listScores.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	listScores.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(listScores)

	// POST /api/scores
	submit, _ := r.NewOperationContext(http.MethodPost, "/api/scores")
	submit.SetSummary("Record score")
	submit.SetDescription("Records one score per player per game. A second submission is a 409 carrying " +
		"the existing score unless updateExisting is true. Requires the volunteer cookie when volunteer auth is enabled.")
	submit.AddReqStructure(handler.SubmitScoreRequest{})
	submit.AddRespStructure(model.ScoreResult{}, openapi.WithHTTPStatus(http.StatusOK))
	submit.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	submit.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	submit.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	submit.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(submit)

	// POST /api/volunteer/login
	login, _ := r.NewOperationContext(http.MethodPost, "/api/volunteer/login")
	login.SetSummary("Volunteer login")
	login.SetDescription("Checks the shared volunteer password. Sets the volunteer_token cookie.")
	login.AddReqStructure(handler.LoginRequest{})
	login.AddRespStructure(handler.SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	login.AddRespStructure(handler.ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(login)

	// POST /api/volunteer/logout
	logout, _ := r.NewOperationContext(http.MethodPost, "/api/volunteer/logout")
	logout.SetSummary("Volunteer logout")
	logout.SetDescription("Clears the volunteer_token cookie.")
	logout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(logout)

	// GET /api/volunteer/me
	me, _ := r.NewOperationContext(http.MethodGet, "/api/volunteer/me")
	me.SetSummary("Volunteer session")
	me.SetDescription("Reports whether volunteer login is required and whether the caller has a session.")
	me.AddRespStructure(handler.SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(me)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
