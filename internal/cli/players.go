package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"github.com/sakif/arcade-leaderboard/internal/model"
)

func newPlayersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Player commands",
	}

	cmd.AddCommand(newPlayersRegisterCmd(a))
	cmd.AddCommand(newPlayersGetCmd(a))
	cmd.AddCommand(newPlayersRankCmd(a))
	cmd.AddCommand(newPlayersTopCmd(a))

	return cmd
}

func newPlayersRegisterCmd(a *app) *cobra.Command {
	var name, phone string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a player (or look up an existing phone number)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": name, "phone": phone}
			var reg model.Registration
			if err := a.client.Post(cmd.Context(), "/api/players", req, &reg); err != nil {
				return err
			}
			a.out.Print(reg)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func newPlayersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <player-id>",
		Short: "Show a player by short code, id or legacy id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var player model.Player
			if err := a.client.Get(cmd.Context(), "/api/players/"+url.PathEscape(args[0]), &player); err != nil {
				return err
			}
			a.out.Print(player)
			return nil
		},
	}
}

func newPlayersRankCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rank <player-id>",
		Short: "Show a player's place in the ranking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var ranking model.Ranking
			if err := a.client.Get(cmd.Context(), "/api/players/"+url.PathEscape(args[0])+"/rank", &ranking); err != nil {
				return err
			}
			a.out.Print(ranking)
			return nil
		},
	}
}

func newPlayersTopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var players []model.Player
			if err := a.client.Get(cmd.Context(), "/api/players", &players); err != nil {
				return err
			}
			a.out.Print(players)
			return nil
		},
	}
}
