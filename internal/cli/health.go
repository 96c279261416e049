package cli

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result HealthResult

			err := a.client.Get(cmd.Context(), "/healthz", &result)
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
				// The 503 body still lists every dependency.
				if json.Unmarshal([]byte(apiErr.Message), &result) == nil {
					a.out.Print(result)
					return errors.New("server is unhealthy")
				}
			}
			if err != nil {
				return err
			}

			a.out.Print(result)
			return nil
		},
	}
}
