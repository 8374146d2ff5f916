// internal/dashboard/view_test.go
package dashboard

import (
	"strconv"
	"strings"
	"testing"

	"github.com/signalnine/netloginsight/internal/protocol"
)

func sampleResult() protocol.AnalysisResult {
	return protocol.AnalysisResult{
		DashboardData: protocol.DashboardData{
			TotalLogs:      7,
			SeverityCounts: protocol.SeverityCounts{Info: 2, Warning: 2, Error: 1, Critical: 2},
			TopEvents: []protocol.ChartData{
				{Name: "LINK-3-UPDOWN", Value: 2},
				{Name: "SEC-4-IP-SPOOF", Value: 1},
			},
			DetectedAnomalies: []string{"IP spoofing from 192.168.1.200"},
			PortStatuses: []protocol.PortStatus{
				{Port: "Gi0/1", Status: protocol.PortFlapping, Details: "down/up in 2s"},
				{Port: "Gi0/24", Status: protocol.PortDown},
			},
		},
		ReportMarkdown: "# Summary\n## Ports\n- Gi0/1 flapping\n  - 2 transitions\n1. Check cabling\n\nplain text",
	}
}

func TestBuildViewCards(t *testing.T) {
	v := BuildView(sampleResult())

	want := map[string]int{
		"Total Logs":         7,
		"Critical Issues":    2,
		"Warnings":           2,
		"Detected Anomalies": 1,
	}
	if len(v.Cards) != len(want) {
		t.Fatalf("len(Cards) = %d, want %d", len(v.Cards), len(want))
	}
	for _, c := range v.Cards {
		if c.Value != want[c.Title] {
			t.Errorf("%s = %d, want %d", c.Title, c.Value, want[c.Title])
		}
	}
}

func TestBuildViewCopiesValues(t *testing.T) {
	// Inconsistent model output is shown as-is
	r := sampleResult()
	r.DashboardData.TotalLogs = 3
	v := BuildView(r)

	if v.Cards[0].Value != 3 {
		t.Errorf("Total Logs = %d, want 3", v.Cards[0].Value)
	}
	if v.SeverityTotal != 7 {
		t.Errorf("SeverityTotal = %d, want 7", v.SeverityTotal)
	}
}

func TestSeveritySlicesSkipEmpty(t *testing.T) {
	slices, total := severitySlices(protocol.SeverityCounts{Info: 3, Critical: 1})

	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if len(slices) != 2 {
		t.Fatalf("len(slices) = %d, want 2", len(slices))
	}
	if slices[0].Severity != protocol.SeverityInfo || slices[1].Severity != protocol.SeverityCritical {
		t.Errorf("severities = %s, %s", slices[0].Severity, slices[1].Severity)
	}
	if slices[1].Fill != severityCritical {
		t.Errorf("critical fill = %s", slices[1].Fill)
	}

	// Segment lengths are proportional to the counts
	first := dashLength(t, slices[0].DashArray)
	second := dashLength(t, slices[1].DashArray)
	if ratio := first / second; ratio < 2.99 || ratio > 3.01 {
		t.Errorf("segment ratio = %.3f, want 3", ratio)
	}
}

func TestSeveritySlicesAllZero(t *testing.T) {
	slices, total := severitySlices(protocol.SeverityCounts{})
	if slices != nil || total != 0 {
		t.Errorf("got %v, %d; want nil, 0", slices, total)
	}
}

func TestSeveritySliceFullRing(t *testing.T) {
	slices, _ := severitySlices(protocol.SeverityCounts{Warning: 5})
	if len(slices) != 1 {
		t.Fatalf("len(slices) = %d, want 1", len(slices))
	}
	got := dashLength(t, slices[0].DashArray)
	if diff := got - donutCircumference; diff > 0.01 || diff < -0.01 {
		t.Errorf("single slice length = %.2f, want %.2f", got, donutCircumference)
	}
}

func dashLength(t *testing.T, dash string) float64 {
	t.Helper()
	parts := strings.Fields(dash)
	if len(parts) != 2 {
		t.Fatalf("bad dasharray %q", dash)
	}
	f, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		t.Fatalf("parse %q: %v", dash, err)
	}
	return f
}

func TestEventBars(t *testing.T) {
	bars, height := eventBars([]protocol.ChartData{
		{Name: "a", Value: 4},
		{Name: "b", Value: 2},
		{Name: "c", Value: 0},
	})

	if height != 3*barRowHeight {
		t.Errorf("height = %d, want %d", height, 3*barRowHeight)
	}
	wantWidths := []string{"300.0", "150.0", "0.0"}
	for i, b := range bars {
		if b.Width != wantWidths[i] {
			t.Errorf("bars[%d].Width = %s, want %s", i, b.Width, wantWidths[i])
		}
		if b.Y != i*barRowHeight {
			t.Errorf("bars[%d].Y = %d", i, b.Y)
		}
	}
}

func TestPortRows(t *testing.T) {
	r := sampleResult()
	r.DashboardData.PortStatuses = append(r.DashboardData.PortStatuses,
		protocol.PortStatus{Port: "Gi0/2", Status: protocol.PortUp},
		protocol.PortStatus{Port: "Gi0/3", Status: protocol.PortUnknown, Details: "no data"},
	)
	v := BuildView(r)

	tests := []struct {
		port, class, details string
	}{
		{"Gi0/1", "status-flapping", "down/up in 2s"},
		{"Gi0/24", "status-down", "-"},
		{"Gi0/2", "status-up", "-"},
		{"Gi0/3", "status-unknown", "no data"},
	}
	if len(v.Ports) != len(tests) {
		t.Fatalf("len(Ports) = %d, want %d", len(v.Ports), len(tests))
	}
	for i, tt := range tests {
		row := v.Ports[i]
		if row.Port != tt.port || row.Class != tt.class || row.Details != tt.details {
			t.Errorf("Ports[%d] = %+v, want %s/%s/%s", i, row, tt.port, tt.class, tt.details)
		}
	}
}

func TestIndicator(t *testing.T) {
	tests := []struct {
		name   string
		counts protocol.SeverityCounts
		want   string
	}{
		{"critical wins", protocol.SeverityCounts{Critical: 1, Error: 3}, "dot-critical"},
		{"error", protocol.SeverityCounts{Error: 1, Warning: 2}, "dot-error"},
		{"warnings only", protocol.SeverityCounts{Warning: 4}, "dot-ok"},
		{"empty", protocol.SeverityCounts{}, "dot-ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := protocol.HistoryEntry{DashboardData: protocol.DashboardData{SeverityCounts: tt.counts}}
			if got := Indicator(e); got != tt.want {
				t.Errorf("Indicator() = %s, want %s", got, tt.want)
			}
		})
	}
}
