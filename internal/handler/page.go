// Package handler contains HTTP request handlers for the arcade leaderboard.
//
// WHAT IS A HANDLER?
// In Go, an HTTP handler is anything that implements the http.Handler interface:
//
//	type Handler interface {
//	    ServeHTTP(ResponseWriter, *Request)
//	}
//
// Most handlers here are methods with the http.HandlerFunc signature, which
// chi accepts directly.
//
// HANDLER RESPONSIBILITIES:
// 1. Parse the incoming HTTP request (path params, query, JSON body)
// 2. Call the service layer
// 3. Write the HTTP response (status code, headers, body)
//
// Handlers hold no business logic; the services decide, handlers translate.
package handler

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/sakif/arcade-leaderboard/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// podiumSize is how many leaders get a card of their own.
const podiumSize = 3

// LeaderboardPageHandler renders the public leaderboard page.
// Templates are parsed once at startup and reused for every request.
type LeaderboardPageHandler struct {
	players   *service.PlayerService
	templates *template.Template
	logger    *slog.Logger
}

// NewLeaderboardPageHandler parses the embedded templates.
//
// TEMPLATE COMPOSITION:
// base.html lays out the page and calls {{template "content" .}};
// leaderboard.html fills it with {{define "content"}}...{{end}}.
func NewLeaderboardPageHandler(players *service.PlayerService, logger *slog.Logger) (*LeaderboardPageHandler, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/leaderboard.html")
	if err != nil {
		return nil, err
	}
	return &LeaderboardPageHandler{
		players:   players,
		templates: tmpl,
		logger:    logger,
	}, nil
}

// leaderboardEntry is one ranked row on the page.
type leaderboardEntry struct {
	Rank       int
	Name       string
	TotalScore int
}

type leaderboardPage struct {
	Title          string
	RefreshSeconds int
	Entries        []leaderboardEntry
	Podium         []leaderboardEntry
	Rest           []leaderboardEntry
}

// HandleLeaderboard serves the leaderboard page.
//
// HTTP: GET /
func (h *LeaderboardPageHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	players, err := h.players.Leaderboard(r.Context())
	if err != nil {
		h.logger.Error("failed to load leaderboard", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := leaderboardPage{
		Title:          "Arcade Leaderboard",
		RefreshSeconds: 30,
		Entries:        make([]leaderboardEntry, 0, len(players)),
	}
	for i, p := range players {
		data.Entries = append(data.Entries, leaderboardEntry{
			Rank:       i + 1,
			Name:       p.Name,
			TotalScore: p.TotalScore,
		})
	}
	data.Podium = data.Entries[:min(podiumSize, len(data.Entries))]
	data.Rest = data.Entries[len(data.Podium):]

	// Content type must be set before the body is written.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
