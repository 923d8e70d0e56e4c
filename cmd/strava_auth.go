package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"hotpot/internal/config"
	"hotpot/strava"
)

// newStravaAuthCmd prints the Strava authorization URL. The actual
// code exchange happens at GET /strava/callback on a running `serve`
// process, since Strava's OAuth redirect must land on a reachable HTTP
// endpoint.
func newStravaAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strava-auth",
		Short: "Print the Strava OAuth authorization URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			mgr := strava.NewManager(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURL, stravaAuthStore{st})
			fmt.Println("Visit this URL to authorize hotpot with Strava:")
			fmt.Println(mgr.AuthCodeURL("hotpot-cli"))
			fmt.Println("Then make sure `hotpot serve --strava-webhook` is running to receive the callback.")
			return nil
		},
	}
}
