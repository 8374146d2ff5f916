// cmd/netloginsight/serve.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signalnine/netloginsight/internal/config"
	"github.com/signalnine/netloginsight/internal/dashboard"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard web server",
		Long: `Start the dashboard. Credentials are read from the environment or a
.env file in the working directory:

  API_KEY / VITE_API_KEY                      model API key
  SUPABASE_URL / VITE_SUPABASE_URL            history project URL
  SUPABASE_ANON_KEY / VITE_SUPABASE_ANON_KEY  history anon key

Missing credentials disable the matching feature instead of failing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.ListenAddr = listen
			}

			srv, err := dashboard.NewServer(cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address, overrides config")

	return cmd
}
