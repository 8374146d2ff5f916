// internal/history/supabase.go
package history

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/signalnine/netloginsight/internal/protocol"
)

// APIError is an error answer from the PostgREST endpoint
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return "database error: " + e.Message
	}
	return fmt.Sprintf("database error (%s): %s", e.Code, e.Message)
}

// postgrest-go reports failed requests as "(code) message"
var postgrestErrRe = regexp.MustCompile(`^\(([^)]*)\) (.*)$`)

func apiError(err error) error {
	m := postgrestErrRe.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	return &APIError{Code: m[1], Message: m[2]}
}

// SupabaseConfig for the hosted history table
type SupabaseConfig struct {
	URL     string
	APIKey  string
	Table   string
	Limit   int
	Timeout time.Duration
}

// Supabase stores history rows through the project's PostgREST API
type Supabase struct {
	cfg    SupabaseConfig
	client *postgrest.Client
}

// NewSupabase creates a new Supabase-backed store
func NewSupabase(cfg SupabaseConfig) *Supabase {
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	cfg.Limit = limitOrDefault(cfg.Limit)
	if cfg.Table == "" {
		cfg.Table = "analysis_history"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	client := postgrest.NewClient(cfg.URL+"/rest/v1", "", map[string]string{
		"apikey":        cfg.APIKey,
		"Authorization": "Bearer " + cfg.APIKey,
	})

	return &Supabase{cfg: cfg, client: client}
}

// insertRow is the column set written on save; id and created_at come from
// table defaults.
type insertRow struct {
	RawLog         string                 `json:"raw_log"`
	DashboardData  protocol.DashboardData `json:"dashboard_data"`
	ReportMarkdown string                 `json:"report_markdown"`
	SummaryTitle   string                 `json:"summary_title"`
}

// Save inserts one row and returns it as stored
func (s *Supabase) Save(ctx context.Context, rawLog string, result *protocol.AnalysisResult) (*protocol.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	rows := []insertRow{{
		RawLog:         rawLog,
		DashboardData:  result.DashboardData,
		ReportMarkdown: result.ReportMarkdown,
		SummaryTitle:   protocol.SummaryTitle(result.DashboardData),
	}}

	var entry protocol.HistoryEntry
	_, err := s.client.From(s.cfg.Table).
		Insert(rows, false, "", "representation", "").
		Single().
		ExecuteToWithContext(ctx, &entry)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", apiError(err))
	}
	return &entry, nil
}

// FetchRecent returns the newest rows ordered by created_at descending
func (s *Supabase) FetchRecent(ctx context.Context) ([]protocol.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var entries []protocol.HistoryEntry
	_, err := s.client.From(s.cfg.Table).
		Select("*", "", false).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		Limit(s.cfg.Limit, "").
		ExecuteToWithContext(ctx, &entries)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", apiError(err))
	}
	return entries, nil
}

// Close is a no-op; the client holds no resources of its own
func (s *Supabase) Close() error {
	return nil
}
