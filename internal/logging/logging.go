// internal/logging/logging.go
package logging

import (
	"log/slog"
	"os"
)

// Init installs the process-wide slog logger. Info and above are logged by
// default; verbose adds debug output.
func Init(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
