package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/arcade-leaderboard/internal/cache"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/clock"
	"github.com/sakif/arcade-leaderboard/internal/dependencies/random"
	"github.com/sakif/arcade-leaderboard/internal/identity"
	sqliteRepo "github.com/sakif/arcade-leaderboard/internal/repository/sqlite"
	"github.com/sakif/arcade-leaderboard/internal/service"
)

func newImportCmd(a *app) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import <players.json>",
		Short: "Import a player export into a database file",
		Long: `Import a JSON array of player documents exported from the previous system.

This writes to the database file directly; it does not go through the
server. Players whose phone number is already registered are skipped.
Old identifiers are kept, so existing badges and links still resolve.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading export: %w", err)
			}
			var records []service.LegacyPlayer
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parsing export: %w", err)
			}

			db, err := sqliteRepo.New(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
			players := service.NewPlayerService(db, cache.Noop{},
				identity.NewCodeGenerator(random.New()), clock.New(), logger)

			report, err := players.Import(cmd.Context(), records)
			if err != nil {
				return err
			}
			a.out.Print(*report)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "data/arcade.db", "SQLite database file")

	return cmd
}
