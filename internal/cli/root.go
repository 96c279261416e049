// Package cli implements arcadectl, a command-line client for the arcade
// leaderboard API.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE, after flags are parsed.
type app struct {
	cfg    *Config
	client *Client
	out    *Output
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "arcadectl",
		Short: "CLI tool for the arcade leaderboard API",
		Long: `arcadectl is a CLI tool for the arcade leaderboard.

It registers players, records scores, shows rankings and the game catalog,
and imports player exports from the previous system into a database file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.cfg.Output {
			case "text", "json":
			default:
				return fmt.Errorf("--output must be text or json, got %q", a.cfg.Output)
			}

			if err := a.cfg.LoadToken(); err != nil {
				return fmt.Errorf("reading session: %w", err)
			}

			a.client = NewClient(a.cfg.ServerURL, a.cfg.Token)
			a.out = NewOutput(a.cfg.Output, cmd.OutOrStdout())
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfg.ServerURL, "server", a.cfg.ServerURL, "Server URL (env: ARCADE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&a.cfg.TokenFile, "token-file", a.cfg.TokenFile, "Volunteer session file (env: ARCADE_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&a.cfg.Output, "output", "o", a.cfg.Output, "Output format: text, json")

	// Add subcommands
	rootCmd.AddCommand(newGamesCmd(a))
	rootCmd.AddCommand(newPlayersCmd(a))
	rootCmd.AddCommand(newScoresCmd(a))
	rootCmd.AddCommand(newVolunteerCmd(a))
	rootCmd.AddCommand(newHealthCmd(a))
	rootCmd.AddCommand(newImportCmd(a))

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
