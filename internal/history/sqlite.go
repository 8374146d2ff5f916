// internal/history/sqlite.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/signalnine/netloginsight/internal/protocol"
)

// createdAtFormat is fixed width so text ordering matches time ordering
const createdAtFormat = "2006-01-02T15:04:05.000000000Z"

// SQLite keeps history in a local database file
type SQLite struct {
	db    *sql.DB
	limit int
	now   func() time.Time
}

// NewSQLite opens or creates the history database
func NewSQLite(path string, limit int) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS analysis_history (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		raw_log TEXT NOT NULL,
		dashboard_data TEXT NOT NULL,
		report_markdown TEXT NOT NULL,
		summary_title TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_history_created_at ON analysis_history(created_at);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, limit: limitOrDefault(limit), now: time.Now}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save stores an analysis and returns the inserted row
func (s *SQLite) Save(ctx context.Context, rawLog string, result *protocol.AnalysisResult) (*protocol.HistoryEntry, error) {
	dataJSON, err := json.Marshal(result.DashboardData)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	createdAt := s.now().UTC().Format(createdAtFormat)
	title := protocol.SummaryTitle(result.DashboardData)

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (id, created_at, raw_log, dashboard_data, report_markdown, summary_title)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, createdAt, rawLog, string(dataJSON), result.ReportMarkdown, title); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, raw_log, dashboard_data, report_markdown, summary_title
		FROM analysis_history
		WHERE id = ?
	`, id)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}
	return entry, nil
}

// FetchRecent returns the newest entries first
func (s *SQLite) FetchRecent(ctx context.Context) ([]protocol.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, raw_log, dashboard_data, report_markdown, summary_title
		FROM analysis_history
		ORDER BY created_at DESC
		LIMIT ?
	`, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	defer rows.Close()

	var entries []protocol.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("fetch history: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*protocol.HistoryEntry, error) {
	var e protocol.HistoryEntry
	var id, createdStr, dataJSON string
	var title sql.NullString

	if err := row.Scan(&id, &createdStr, &e.RawLog, &dataJSON, &e.ReportMarkdown, &title); err != nil {
		return nil, err
	}

	e.ID = protocol.EntryID(id)
	createdAt, err := protocol.ParseTimestamp(createdStr)
	if err != nil {
		return nil, err
	}
	e.CreatedAt = protocol.Timestamp{Time: createdAt}
	if err := json.Unmarshal([]byte(dataJSON), &e.DashboardData); err != nil {
		return nil, fmt.Errorf("decode dashboard_data: %w", err)
	}
	if title.Valid {
		e.SummaryTitle = title.String
	}
	return &e, nil
}
