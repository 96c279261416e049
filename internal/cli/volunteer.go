package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/arcade-leaderboard/internal/auth"
)

func newVolunteerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volunteer",
		Short: "Volunteer session commands",
	}

	cmd.AddCommand(newVolunteerLoginCmd(a))
	cmd.AddCommand(newVolunteerLogoutCmd(a))
	cmd.AddCommand(newVolunteerStatusCmd(a))

	return cmd
}

func newVolunteerLoginCmd(a *app) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with the volunteer password",
		Long: `Log in with the shared volunteer password. The session is saved to the
token file and sent with later commands.

The password is read from --password or ARCADE_VOLUNTEER_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("ARCADE_VOLUNTEER_PASSWORD")
			}
			if password == "" {
				return errors.New("--password or ARCADE_VOLUNTEER_PASSWORD is required")
			}

			var session SessionResult
			resp, err := a.client.Do(cmd.Context(), http.MethodPost, "/api/volunteer/login",
				map[string]string{"password": password}, &session)
			if err != nil {
				return err
			}

			token := ""
			for _, c := range resp.Cookies() {
				if c.Name == auth.CookieName {
					token = c.Value
				}
			}
			if token == "" {
				return errors.New("server did not return a volunteer session")
			}
			if err := a.cfg.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			a.out.Print(session)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Volunteer password")

	return cmd
}

func newVolunteerLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved volunteer session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove session: %w", err)
			}
			a.out.PrintMessage("Logged out")
			return nil
		},
	}
}

func newVolunteerStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the saved session is valid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var session SessionResult
			if err := a.client.Get(cmd.Context(), "/api/volunteer/me", &session); err != nil {
				return err
			}
			a.out.Print(session)
			return nil
		},
	}
}
