// internal/history/store.go
package history

import (
	"context"
	"fmt"

	"github.com/signalnine/netloginsight/internal/config"
	"github.com/signalnine/netloginsight/internal/protocol"
)

// Store persists analyses and lists the most recent ones. Entries are never
// updated or deleted through a Store.
type Store interface {
	// Save inserts one entry for the analysis and returns the stored row
	Save(ctx context.Context, rawLog string, result *protocol.AnalysisResult) (*protocol.HistoryEntry, error)
	// FetchRecent returns up to the configured limit of entries, newest first
	FetchRecent(ctx context.Context) ([]protocol.HistoryEntry, error)
	Close() error
}

// New returns the store for the configured backend, or Disabled when the
// backend has no credentials.
func New(cfg config.HistoryConfig) (Store, error) {
	if !cfg.Enabled() {
		return Disabled{}, nil
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLite(cfg.DBPath, cfg.Limit)
	case config.BackendSupabase, "":
		return NewSupabase(SupabaseConfig{
			URL:     cfg.URL,
			APIKey:  cfg.APIKey,
			Table:   cfg.Table,
			Limit:   cfg.Limit,
			Timeout: cfg.Timeout,
		}), nil
	}
	return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
}

// Disabled is the store used when persistence is not configured. Every
// operation is a no-op.
type Disabled struct{}

func (Disabled) Save(context.Context, string, *protocol.AnalysisResult) (*protocol.HistoryEntry, error) {
	return nil, nil
}

func (Disabled) FetchRecent(context.Context) ([]protocol.HistoryEntry, error) {
	return nil, nil
}

func (Disabled) Close() error {
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return config.DefaultHistoryLimit
	}
	return limit
}
