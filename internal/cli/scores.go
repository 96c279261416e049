package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/sakif/arcade-leaderboard/internal/model"
)

func newScoresCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Score commands",
	}

	cmd.AddCommand(newScoresSubmitCmd(a))
	cmd.AddCommand(newScoresListCmd(a))

	return cmd
}

func newScoresSubmitCmd(a *app) *cobra.Command {
	var (
		playerID, gameID string
		score            int
		update           bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a score for a player",
		Long: `Record a score for a player.

A player has one score per game. Submitting again for the same game fails
and shows the score on record; pass --update to replace it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"playerId":       playerID,
				"gameId":         gameID,
				"score":          score,
				"updateExisting": update,
			}
			var result model.ScoreResult
			err := a.client.Post(cmd.Context(), "/api/scores", req, &result)
			if apiErr, ok := IsConflict(err); ok && apiErr.ExistingScore != nil {
				return fmt.Errorf("%s: %s already has %d for %s (use --update to replace it)",
					apiErr.Message, playerID, apiErr.ExistingScore.Value, apiErr.ExistingScore.GameID)
			}
			if err != nil {
				return err
			}
			a.out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&playerID, "player", "", "Player short code or id (required)")
	cmd.Flags().StringVar(&gameID, "game", "", "Game id (required)")
	cmd.Flags().IntVar(&score, "score", 0, "Score (required)")
	cmd.Flags().BoolVar(&update, "update", false, "Replace an existing score for the game")
	_ = cmd.MarkFlagRequired("player")
	_ = cmd.MarkFlagRequired("game")
	_ = cmd.MarkFlagRequired("score")

	return cmd
}

func newScoresListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <player-id>",
		Short: "List a player's scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var scores []model.Score
			q := url.Values{"playerId": {args[0]}}
			if err := a.client.Get(cmd.Context(), "/api/scores?"+q.Encode(), &scores); err != nil {
				return err
			}
			a.out.Print(scores)
			return nil
		},
	}
}
