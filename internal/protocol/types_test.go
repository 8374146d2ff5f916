// internal/protocol/types_test.go
package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestSummaryTitle(t *testing.T) {
	tests := []struct {
		name string
		data DashboardData
		want string
	}{
		{
			name: "first anomaly wins",
			data: DashboardData{
				TotalLogs:         7,
				DetectedAnomalies: []string{"IP spoofing from 192.168.1.200", "STP dispute on Gi0/24"},
			},
			want: "Anomaly: IP spoofing from 192.168.1.200",
		},
		{
			name: "no anomalies",
			data: DashboardData{TotalLogs: 42},
			want: "Log Analysis (42 lines)",
		},
		{
			name: "empty anomaly slice",
			data: DashboardData{TotalLogs: 0, DetectedAnomalies: []string{}},
			want: "Log Analysis (0 lines)",
		},
	}

	for _, tt := range tests {
		if got := SummaryTitle(tt.data); got != tt.want {
			t.Errorf("%s: SummaryTitle = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestHistoryEntryDecode(t *testing.T) {
	raw := `{
		"id": 17,
		"created_at": "2026-03-01T10:00:01.123456+00:00",
		"raw_log": "Mar 1 10:00:01 Switch-Core-01 %LINK-3-UPDOWN",
		"dashboard_data": {
			"totalLogs": 1,
			"severityCounts": {"info": 0, "warning": 0, "error": 1, "critical": 0},
			"topEvents": [{"name": "LINK-3-UPDOWN", "value": 1}],
			"detectedAnomalies": [],
			"portStatuses": [{"port": "Gi0/1", "status": "DOWN"}]
		},
		"report_markdown": "# Report",
		"summary_title": null
	}`

	var e HistoryEntry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e.ID != "17" {
		t.Errorf("ID = %q, want %q", e.ID, "17")
	}
	want := time.Date(2026, 3, 1, 10, 0, 1, 123456000, time.UTC)
	if !e.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", e.CreatedAt, want)
	}
	if e.DisplayTitle() != "Untitled Log" {
		t.Errorf("DisplayTitle = %q, want placeholder", e.DisplayTitle())
	}

	r := e.Result()
	if r.ReportMarkdown != "# Report" || r.DashboardData.SeverityCounts.Error != 1 {
		t.Errorf("Result() = %+v", r)
	}
}

func TestEntryIDString(t *testing.T) {
	var e struct {
		ID EntryID `json:"id"`
	}
	if err := json.Unmarshal([]byte(`{"id":"0b0f8f3e-6a43-4cde-9d3e-3c8f0f1f4a11"}`), &e); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if e.ID.String() != "0b0f8f3e-6a43-4cde-9d3e-3c8f0f1f4a11" {
		t.Errorf("ID = %q", e.ID)
	}
}

func TestParseTimestampWithoutZone(t *testing.T) {
	ts, err := ParseTimestamp("2026-03-01T10:00:01.5")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if ts.Location() != time.UTC || ts.Nanosecond() != 500000000 {
		t.Errorf("ParseTimestamp = %v", ts)
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}
