// cmd/netloginsight/main.go
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/signalnine/netloginsight/internal/logging"
)

var (
	version    = "0.1.0"
	verbose    bool
	configPath string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "netloginsight",
		Short: "Network device log analysis dashboard",
		Long: `NetLog Insight serves a browser dashboard for pasted network device logs.

Logs are analyzed by a hosted generative model and rendered as summary
cards, charts, a port status table and a written incident report. Past
analyses can be kept in a Supabase table or a local SQLite file.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Init(verbose)
		},
	}

	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewVersionCmd())

	return root
}

func main() {
	logging.Init(false)

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
