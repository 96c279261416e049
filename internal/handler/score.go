package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/sakif/arcade-leaderboard/internal/apperror"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

// ScoreHandler records and lists game results.
type ScoreHandler struct {
	scores  *service.ScoreService
	players *service.PlayerService
	logger  *slog.Logger
}

func NewScoreHandler(scores *service.ScoreService, players *service.PlayerService, logger *slog.Logger) *ScoreHandler {
	return &ScoreHandler{scores: scores, players: players, logger: logger}
}

// SubmitScoreRequest is the body of POST /api/scores.
//
// Score is kept raw so the handler can tell a missing score from 0 and
// accept only a bare JSON integer: 12.5, 1e3 and "12" are all rejected.
type SubmitScoreRequest struct {
	PlayerID       string          `json:"playerId"`
	GameID         string          `json:"gameId"`
	Score          json.RawMessage `json:"score" description:"Whole number."`
	UpdateExisting bool            `json:"updateExisting,omitempty"`
}

// HandleSubmit records a score for a player.
//
// HTTP: POST /api/scores
// REQUEST BODY: {"playerId": "P7K3M9Q", "gameId": "game1", "score": 120, "updateExisting": false}
//
// OUTCOMES:
//
//	200 {"success": true, "gameId": "game1", "score": 120, "totalScore": 120, "updated": false}
//	409 the player already has a score for the game; the body carries it
//	    as "existingScore" with "canUpdate": true
//	400 missing fields or a non-integer score
//	404 unknown player
func (h *ScoreHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	in := service.SubmitInput{
		PlayerID:       req.PlayerID,
		GameID:         req.GameID,
		UpdateExisting: req.UpdateExisting,
	}
	if raw := strings.TrimSpace(string(req.Score)); raw != "" && raw != "null" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("score", "Score must be a whole number"))
			return
		}
		in.Score = &v
	}

	result, err := h.scores.Submit(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleList returns a player's scores, an empty array when there are none.
//
// HTTP: GET /api/scores?playerId=P7K3M9Q
func (h *ScoreHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	scores, err := h.players.Scores(r.Context(), r.URL.Query().Get("playerId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
