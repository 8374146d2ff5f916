// internal/dashboard/view.go
package dashboard

import (
	"fmt"
	"math"

	"github.com/signalnine/netloginsight/internal/protocol"
)

// Donut geometry: the ring sits between radius 60 and 80, drawn as a single
// stroked circle at the mid radius.
const (
	donutRadius      = 70.0
	donutStroke      = 20.0
	donutPaddingDeg  = 5.0
	barPlotWidth     = 300.0
	barRowHeight     = 32
	barLabelWidth    = 110
	severityInfo     = "#3b82f6"
	severityWarning  = "#eab308"
	severityError    = "#f97316"
	severityCritical = "#ef4444"
)

var donutCircumference = 2 * math.Pi * donutRadius

// StatCard is one summary counter
type StatCard struct {
	Title string
	Value int
	Class string
	Icon  string
}

// Slice is one segment of the severity donut
type Slice struct {
	Severity   protocol.Severity
	Name       string
	Value      int
	Fill       string
	DashArray  string
	DashOffset string
}

// Bar is one row of the top-events chart
type Bar struct {
	Name  string
	Value int
	Y     int
	Width string
}

// PortRow is one row of the port status table
type PortRow struct {
	Port    string
	Status  protocol.PortState
	Details string
	Class   string
}

// DashboardView is everything the dashboard tab renders
type DashboardView struct {
	Cards         []StatCard
	Severity      []Slice
	SeverityTotal int
	Events        []Bar
	EventsHeight  int
	BarLabelWidth int
	Ports         []PortRow
	Anomalies     []string
	DonutRadius   float64
	DonutStroke   float64
}

var portStatusClass = map[protocol.PortState]string{
	protocol.PortUp:       "status-up",
	protocol.PortDown:     "status-down",
	protocol.PortFlapping: "status-flapping",
}

// BuildView lays out an analysis result for rendering. Values are copied
// from the result as-is; nothing is recomputed locally.
func BuildView(r protocol.AnalysisResult) DashboardView {
	d := r.DashboardData

	v := DashboardView{
		Cards: []StatCard{
			{Title: "Total Logs", Value: d.TotalLogs, Class: "text-default", Icon: "🖥"},
			{Title: "Critical Issues", Value: d.SeverityCounts.Critical, Class: "text-critical", Icon: "🛡"},
			{Title: "Warnings", Value: d.SeverityCounts.Warning, Class: "text-warning", Icon: "⚠"},
			{Title: "Detected Anomalies", Value: len(d.DetectedAnomalies), Class: "text-anomaly", Icon: "📈"},
		},
		Anomalies:     d.DetectedAnomalies,
		BarLabelWidth: barLabelWidth,
		DonutRadius:   donutRadius,
		DonutStroke:   donutStroke,
	}

	v.Severity, v.SeverityTotal = severitySlices(d.SeverityCounts)
	v.Events, v.EventsHeight = eventBars(d.TopEvents)

	for _, p := range d.PortStatuses {
		row := PortRow{
			Port:    p.Port,
			Status:  p.Status,
			Details: p.Details,
			Class:   portStatusClass[p.Status],
		}
		if row.Class == "" {
			row.Class = "status-unknown"
		}
		if row.Details == "" {
			row.Details = "-"
		}
		v.Ports = append(v.Ports, row)
	}

	return v
}

// severitySlices builds the donut segments; empty buckets are left out
func severitySlices(c protocol.SeverityCounts) ([]Slice, int) {
	buckets := []struct {
		severity protocol.Severity
		name     string
		value    int
		fill     string
	}{
		{protocol.SeverityInfo, "Info", c.Info, severityInfo},
		{protocol.SeverityWarning, "Warning", c.Warning, severityWarning},
		{protocol.SeverityError, "Error", c.Error, severityError},
		{protocol.SeverityCritical, "Critical", c.Critical, severityCritical},
	}

	var slices []Slice
	total := 0
	for _, b := range buckets {
		if b.value > 0 {
			slices = append(slices, Slice{Severity: b.severity, Name: b.name, Value: b.value, Fill: b.fill})
			total += b.value
		}
	}
	if total == 0 {
		return nil, 0
	}

	gap := 0.0
	if len(slices) > 1 {
		gap = donutCircumference * donutPaddingDeg / 360
	}
	usable := donutCircumference - gap*float64(len(slices))

	offset := 0.0
	for i := range slices {
		length := usable * float64(slices[i].Value) / float64(total)
		slices[i].DashArray = fmt.Sprintf("%.2f %.2f", length, donutCircumference-length)
		slices[i].DashOffset = fmt.Sprintf("%.2f", -offset)
		offset += length + gap
	}
	return slices, total
}

// eventBars scales the top events against the largest value
func eventBars(events []protocol.ChartData) ([]Bar, int) {
	maxValue := 0
	for _, e := range events {
		if e.Value > maxValue {
			maxValue = e.Value
		}
	}

	bars := make([]Bar, 0, len(events))
	for i, e := range events {
		width := 0.0
		if maxValue > 0 && e.Value > 0 {
			width = barPlotWidth * float64(e.Value) / float64(maxValue)
		}
		bars = append(bars, Bar{
			Name:  e.Name,
			Value: e.Value,
			Y:     i * barRowHeight,
			Width: fmt.Sprintf("%.1f", width),
		})
	}
	return bars, len(events) * barRowHeight
}

// Indicator picks the history list dot for an entry
func Indicator(e protocol.HistoryEntry) string {
	switch {
	case e.DashboardData.SeverityCounts.Critical > 0:
		return "dot-critical"
	case e.DashboardData.SeverityCounts.Error > 0:
		return "dot-error"
	default:
		return "dot-ok"
	}
}
