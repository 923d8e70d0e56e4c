package cmd

import (
	"fmt"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"hotpot/httpapi"
	"hotpot/internal/config"
	"hotpot/mask"
	"hotpot/store"
	"hotpot/strava"
)

func newServeCmd() *cobra.Command {
	var host string
	var port int
	var uploadEnabled bool
	var stravaWebhookEnabled bool

	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the tile/render HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			masks, err := mask.NewRegistry(st)
			if err != nil {
				return err
			}

			trimDist, _ := configuredTrimDist(st)

			srv := &httpapi.Server{
				Store:         st,
				Masks:         masks,
				UploadEnabled: uploadEnabled,
				UploadToken:   cfg.UploadToken,
				TrimDist:      trimDist,
			}
			if stravaWebhookEnabled {
				srv.Strava = strava.NewManager(cfg.Strava.ClientID, cfg.Strava.ClientSecret, cfg.Strava.RedirectURL, stravaAuthStore{st})
				srv.WebhookSecret = cfg.Strava.WebhookSecret
			}

			e := echo.New()
			srv.Routes(e)

			addr := fmt.Sprintf("%s:%d", host, port)
			fmt.Printf("hotpot listening on %s\n", addr)
			return e.Start(addr)
		},
	}

	c.Flags().StringVar(&host, "host", "0.0.0.0", "listen host")
	c.Flags().IntVar(&port, "port", 8080, "listen port")
	c.Flags().BoolVar(&uploadEnabled, "upload", false, "enable POST /upload")
	c.Flags().BoolVar(&stravaWebhookEnabled, "strava-webhook", false, "enable Strava OAuth/webhook endpoints")
	return c
}

// configuredTrimDist reads the trim_dist config key (spec.md §3's
// reserved Config key, written by `import --trim` or `config set`),
// defaulting to 0.
func configuredTrimDist(st *store.Store) (float64, error) {
	raw, ok, err := st.GetConfig("trim_dist")
	if err != nil || !ok {
		return 0, err
	}
	var v float64
	_, err = fmt.Sscanf(raw, "%g", &v)
	return v, err
}
