// internal/protocol/types.go
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Severity buckets used by the dashboard
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityError    Severity = "ERROR"
	SeverityCritical Severity = "CRITICAL"
)

// PortState is the link state reported for a port
type PortState string

const (
	PortUp       PortState = "UP"
	PortDown     PortState = "DOWN"
	PortFlapping PortState = "FLAPPING"
	PortUnknown  PortState = "UNKNOWN"
)

// ChartData is one named value in a chart series
type ChartData struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Fill  string `json:"fill,omitempty"`
}

// PortStatus describes a port mentioned in the logs
type PortStatus struct {
	Port    string    `json:"port"`
	Status  PortState `json:"status" validate:"oneof=UP DOWN FLAPPING UNKNOWN" jsonschema:"enum=UP,enum=DOWN,enum=FLAPPING,enum=UNKNOWN"`
	Details string    `json:"details,omitempty" jsonschema:"oneof_type=string;null"`
}

// SeverityCounts holds per-severity log line counts as estimated by the model
type SeverityCounts struct {
	Info     int `json:"info"`
	Warning  int `json:"warning"`
	Error    int `json:"error"`
	Critical int `json:"critical"`
}

// DashboardData is the structured part of an analysis
type DashboardData struct {
	TotalLogs         int            `json:"totalLogs"`
	SeverityCounts    SeverityCounts `json:"severityCounts"`
	TopEvents         []ChartData    `json:"topEvents"`
	DetectedAnomalies []string       `json:"detectedAnomalies"`
	PortStatuses      []PortStatus   `json:"portStatuses" validate:"dive"`
}

// AnalysisResult is the model response
type AnalysisResult struct {
	DashboardData  DashboardData `json:"dashboardData"`
	ReportMarkdown string        `json:"reportMarkdown"`
}

// HistoryEntry is one persisted analysis
type HistoryEntry struct {
	ID             EntryID       `json:"id"`
	CreatedAt      Timestamp     `json:"created_at"`
	RawLog         string        `json:"raw_log"`
	DashboardData  DashboardData `json:"dashboard_data"`
	ReportMarkdown string        `json:"report_markdown"`
	SummaryTitle   string        `json:"summary_title,omitempty"`
}

// Result restores the entry into the analysis it was saved from
func (e HistoryEntry) Result() AnalysisResult {
	return AnalysisResult{
		DashboardData:  e.DashboardData,
		ReportMarkdown: e.ReportMarkdown,
	}
}

// DisplayTitle returns the summary title, or a placeholder for rows without one
func (e HistoryEntry) DisplayTitle() string {
	if e.SummaryTitle == "" {
		return "Untitled Log"
	}
	return e.SummaryTitle
}

// SummaryTitle derives the short history title for an analysis
func SummaryTitle(d DashboardData) string {
	if len(d.DetectedAnomalies) > 0 {
		return "Anomaly: " + d.DetectedAnomalies[0]
	}
	return fmt.Sprintf("Log Analysis (%d lines)", d.TotalLogs)
}

// EntryID is a row id. Remote tables may use bigint or uuid keys, so both
// JSON numbers and strings are accepted.
type EntryID string

func (id *EntryID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("entry id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

func (id EntryID) String() string {
	return string(id)
}

// timestampLayouts are tried in order. PostgreSQL "timestamp" columns come
// back without a zone and are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp is a created_at value
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(strings.TrimSpace(string(data)))
	if err != nil {
		if string(data) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return fmt.Errorf("created_at: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ParseTimestamp parses the created_at formats produced by the history backends
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("created_at: unrecognised timestamp %q", s)
}
