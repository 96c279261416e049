package cli

import (
	"github.com/spf13/cobra"

	"github.com/sakif/arcade-leaderboard/internal/model"
)

func newGamesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "games",
		Short: "Game catalog commands",
	}

	cmd.AddCommand(newGamesListCmd(a))
	cmd.AddCommand(newGamesCreateCmd(a))

	return cmd
}

func newGamesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the game catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var games []model.Game
			if err := a.client.Get(cmd.Context(), "/api/games", &games); err != nil {
				return err
			}
			a.out.Print(games)
			return nil
		},
	}
}

func newGamesCreateCmd(a *app) *cobra.Command {
	var name, description, instructions string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a game to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":         name,
				"description":  description,
				"instructions": instructions,
			}
			var game model.Game
			if err := a.client.Post(cmd.Context(), "/api/games", req, &game); err != nil {
				return err
			}
			a.out.Print(game)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Game name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Short description (required)")
	cmd.Flags().StringVar(&instructions, "instructions", "", "How to play")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}
