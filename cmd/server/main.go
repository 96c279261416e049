// Package main is the entry point for the arcade leaderboard server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to
// 1. read configuration
// 2. create dependencies (logger, database, cache, services)
// 3. start the application and stop it on SIGINT/SIGTERM
//
// All actual logic lives in the internal/ packages. run() returns an error
// instead of exiting so every deferred Close runs on the way out.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/arcade-leaderboard/internal/auth"
	"github.com/sakif/arcade-leaderboard/internal/cache"
	rediscache "github.com/sakif/arcade-leaderboard/internal/cache/redis"
	"github.com/sakif/arcade-leaderboard/internal/catalog"
	"github.com/sakif/arcade-leaderboard/internal/config"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/clock"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/random"
	"github.com/sakif/arcade-leaderboard/internal/handler"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	sqliteRepo "github.com/sakif/arcade-leaderboard/internal/repository/sqlite"
	"github.com/sakif/arcade-leaderboard/internal/server"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// === 2. LOGGING ===
	// JSON for log shippers, text for a terminal.
	logger := newLogger(stdout, cfg)
	slog.SetDefault(logger)

	// === 3. DATABASE ===
	// os.MkdirAll creates the data directory if needed (like `mkdir -p`).
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()
	logger.Info("connected to sqlite", slog.String("path", cfg.DBPath))

	checks := map[string]handler.Checker{"sqlite": handler.CheckFunc(db.Ping)}

	// === 4. LEADERBOARD CACHE (optional) ===
	var lb cache.Leaderboard = cache.Noop{}
	if cfg.RedisURL != "" {
		rcfg := rediscache.DefaultConfig()
		rcfg.URL = cfg.RedisURL
		rcfg.LeaderboardTTL = cfg.LeaderboardTTL

		rc, err := rediscache.New(rcfg)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rc.Close()

		lb = rc
		checks["redis"] = handler.CheckFunc(rc.Ping)
		logger.Info("leaderboard cache enabled", slog.Duration("ttl", cfg.LeaderboardTTL))
	}

	// === 5. SERVICES ===
	clk := clock.New()
	players := service.NewPlayerService(db, lb, identity.NewCodeGenerator(random.New()), clk, logger)
	scores := service.NewScoreService(db, lb, clk, logger)
	games := service.NewGameService(db.Games(), logger)

	// === 6. CATALOG ===
	// Synced once here; reads never write.
	entries, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	if err := games.SyncCatalog(ctx, entries); err != nil {
		return fmt.Errorf("syncing catalog: %w", err)
	}

	// === 7. VOLUNTEER AUTH (optional) ===
	var volunteers *service.VolunteerService
	if cfg.AuthEnabled() {
		tokens, err := auth.NewTokenService(cfg.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		volunteers, err = service.NewVolunteerService(cfg.VolunteerPassword, auth.NewPasswordService(), tokens, logger)
		if err != nil {
			return fmt.Errorf("creating volunteer service: %w", err)
		}
	}

	// === 8. HTTP SERVER ===
	srv, err := server.New(server.Config{Addr: cfg.HTTPAddr}, server.Services{
		Players:    players,
		Scores:     scores,
		Games:      games,
		Volunteers: volunteers,
		Checks:     checks,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	// === 9. RUN ===
	// Run returns when the listener stops; the second goroutine stops it
	// once the signal context is cancelled.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run()
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
