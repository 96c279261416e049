package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/arcade-leaderboard/internal/service"
)

// PlayerHandler serves registration, lookup and ranking.
type PlayerHandler struct {
	players *service.PlayerService
	logger  *slog.Logger
}

func NewPlayerHandler(players *service.PlayerService, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{players: players, logger: logger}
}

// RegisterRequest is the body of POST /api/players.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// HandleRegister registers a player, or returns the existing one for a
// phone number that is already known.
//
// HTTP: POST /api/players
// REQUEST BODY: {"name": "Ana", "phone": "555-0100"}
// RESPONSE:     {"_id": "...", "playerId": "P7K3M9Q", "name": "Ana", "isNewPlayer": true}
func (h *PlayerHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	reg, err := h.players.Register(r.Context(), req.Name, req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// HandleLeaderboard returns the top players.
//
// HTTP: GET /api/players
func (h *PlayerHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleGet looks a player up by any identifier form: store id, short code
// or legacy id.
//
// HTTP: GET /api/players/{id}
//
// URL PARAMETERS:
// chi.URLParam reads the {id} segment matched by the router.
func (h *PlayerHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	player, err := h.players.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

// HandleRank places a player in the full leaderboard.
//
// HTTP: GET /api/players/{id}/rank
func (h *PlayerHandler) HandleRank(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.players.Rank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}
