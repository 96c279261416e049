// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer: it connects handlers, middleware and
// routes, and decides
// - which URL patterns map to which handler functions
// - what middleware runs on which routes
// - how the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// cmd/server creates the store, cache and services, then hands them to
// server.New as a Services value:
//
//	sqlite.DB ──┐
//	redis.Cache ┼→ PlayerService / ScoreService / GameService → handlers → routes
//	catalog ────┘
//
// Keeping construction out of this package lets tests build a Server on an
// in-memory database and drive it through Handler() with httptest.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/swaggest/swgui/v5emb"

	"github.com/sakif/arcade-leaderboard/internal/auth"
	"github.com/sakif/arcade-leaderboard/internal/handler"
	"github.com/sakif/arcade-leaderboard/internal/middleware"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

// Config holds server configuration.
type Config struct {
	Addr string
}

// Services are the application services the routes are built on.
//
// Volunteers is optional. When nil, score entry and game creation are open
// to anyone.
type Services struct {
	Players    *service.PlayerService
	Scores     *service.ScoreService
	Games      *service.GameService
	Volunteers *service.VolunteerService

	// Checks are the dependencies reported by GET /healthz, keyed by name.
	Checks map[string]handler.Checker
}

// Server represents the HTTP server and its routes.
type Server struct {
	router   *chi.Mux
	config   Config
	services Services
	logger   *slog.Logger
	http     *http.Server
}

// New creates a Server and registers every route.
func New(cfg Config, services Services, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		services: services,
		logger:   logger,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                        → Leaderboard page (HTML)
// GET    /healthz                 → Dependency health (JSON)
// GET    /openapi.json, /docs/*   → API description and Swagger UI
// GET    /api/games               → Game catalog
// POST   /api/games               → Add a game            [volunteer]
// GET    /api/players             → Top players
// POST   /api/players             → Register a player
// GET    /api/players/{id}        → Look a player up by any id form
// GET    /api/players/{id}/rank   → Player's place in the full ranking
// GET    /api/scores?playerId=    → Player's scores
// POST   /api/scores              → Record a score        [volunteer]
// POST   /api/volunteer/login     → Start a volunteer session
// POST   /api/volunteer/logout    → End it
// GET    /api/volunteer/me        → Session status
//
// [volunteer] routes require the session cookie only when volunteer auth is
// configured.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (the logger reads it)
// 2. RealIP: extracts the client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: turns a panic into a 500 instead of crashing the process
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	svc := s.services

	// === Page Routes ===
	pageHandler, err := handler.NewLeaderboardPageHandler(svc.Players, s.logger)
	if err != nil {
		return fmt.Errorf("creating leaderboard page handler: %w", err)
	}
	s.router.Get("/", pageHandler.HandleLeaderboard)

	// === Operational Routes ===
	healthHandler := handler.NewHealthHandler(svc.Checks, s.logger)
	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Get("/openapi.json", handleOpenAPI())
	s.router.Mount("/docs", v5emb.New("Arcade Leaderboard API", "/openapi.json", "/docs"))

	// === API Routes ===
	// The handler never touches the database; the service never touches HTTP.
	gameHandler := handler.NewGameHandler(svc.Games, s.logger)
	playerHandler := handler.NewPlayerHandler(svc.Players, s.logger)
	scoreHandler := handler.NewScoreHandler(svc.Scores, svc.Players, s.logger)
	volunteerHandler := handler.NewVolunteerHandler(svc.Volunteers, s.logger)

	requireVolunteer := func(next http.Handler) http.Handler { return next }
	optionalVolunteer := requireVolunteer
	if svc.Volunteers != nil {
		requireVolunteer = auth.RequireVolunteer(svc.Volunteers.Tokens())
		optionalVolunteer = auth.OptionalVolunteer(svc.Volunteers.Tokens())
	} else {
		s.logger.Warn("volunteer auth disabled: score entry and game creation are open")
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/games", gameHandler.HandleList)
		r.With(requireVolunteer).Post("/games", gameHandler.HandleCreate)

		r.Get("/players", playerHandler.HandleLeaderboard)
		r.Post("/players", playerHandler.HandleRegister)
		r.Get("/players/{id}", playerHandler.HandleGet)
		r.Get("/players/{id}/rank", playerHandler.HandleRank)

		r.Get("/scores", scoreHandler.HandleList)
		r.With(requireVolunteer).Post("/scores", scoreHandler.HandleSubmit)

		r.Route("/volunteer", func(r chi.Router) {
			r.Post("/login", volunteerHandler.HandleLogin)
			r.Post("/logout", volunteerHandler.HandleLogout)
			r.With(optionalVolunteer).Get("/me", volunteerHandler.HandleMe)
		})
	})

	return nil
}

// Run serves HTTP until the listener fails or Shutdown is called.
// A clean shutdown is not an error.
func (s *Server) Run() error {
	s.logger.Info("server starting", slog.String("addr", s.config.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits up to 30 seconds for
// in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
