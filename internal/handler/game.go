package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/arcade-leaderboard/internal/service"
)

// GameHandler serves the game catalog.
type GameHandler struct {
	games  *service.GameService
	logger *slog.Logger
}

func NewGameHandler(games *service.GameService, logger *slog.Logger) *GameHandler {
	return &GameHandler{games: games, logger: logger}
}

// CreateGameRequest is the body of POST /api/games.
type CreateGameRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions,omitempty"`
}

// HandleList returns the catalog in display order.
//
// HTTP: GET /api/games
func (h *GameHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	games, err := h.games.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// HandleCreate adds a game to the catalog.
//
// HTTP: POST /api/games
// REQUEST BODY: {"name": "Maze", "description": "...", "instructions": "..."}
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateGameRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	game, err := h.games.Create(r.Context(), req.Name, req.Description, req.Instructions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, game)
}
