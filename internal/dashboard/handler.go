// internal/dashboard/handler.go
package dashboard

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signalnine/netloginsight/internal/analyzer"
	"github.com/signalnine/netloginsight/internal/config"
	"github.com/signalnine/netloginsight/internal/history"
	"github.com/signalnine/netloginsight/internal/protocol"
)

//go:embed templates/*.html
var templateFS embed.FS

// DemoLog pre-fills the input on a fresh page
const DemoLog = `Mar 1 10:00:01 Switch-Core-01 %LINK-3-UPDOWN: Interface GigabitEthernet0/1, changed state to down
Mar 1 10:00:03 Switch-Core-01 %LINK-3-UPDOWN: Interface GigabitEthernet0/1, changed state to up
Mar 1 10:05:12 Firewall-Edge %SEC-4-IP-SPOOF: Source IP 192.168.1.200 MAC aaaa.bbbb.cccc on interface eth1 is spoofing
Mar 1 10:10:00 Router-Main %CPU-3-HIGH: CPU utilization is 95% for 5 minutes
Mar 1 10:15:22 AP-Floor2 %DOT11-4-MAX_CLIENTS: Max clients reached on SSID "Guest-Wifi"
Mar 1 10:20:05 Switch-Access-05 %STP-2-DISPUTE: Dispute detected on interface Gi0/24, port inconsistent
Mar 1 10:20:05 Switch-Access-05 %SPANTREE-2-BLOCK_PVID_PEER: Blocking Gi0/24 on VLAN0010. Inconsistent peer vlan.`

// statusClientClosedRequest is the nginx convention for a client that hung up
const statusClientClosedRequest = 499

// User-facing messages
const (
	msgEmptyInput    = "Please paste some log content before starting the analysis."
	msgEntryNotFound = "That history entry is no longer in the recent list."
	msgUnavailable   = "Analysis failed: the model service is unavailable, please try again later."
	msgAnalysisError = "Analysis failed: "
)

// Analyzer turns log text into a structured analysis
type Analyzer interface {
	Analyze(ctx context.Context, logContent string) (*protocol.AnalysisResult, int64, error)
}

// Options wires a Handler
type Options struct {
	Analyzer        Analyzer
	History         history.Store
	Features        config.Features
	ModelName       string
	MaxPayloadBytes int64
	Metrics         *Metrics
}

// Handler serves the dashboard pages
type Handler struct {
	analyzer        Analyzer
	store           history.Store
	features        config.Features
	modelName       string
	maxPayloadBytes int64
	metrics         *Metrics
	tmpl            *template.Template
	mux             *http.ServeMux
}

// NewHandler creates a new dashboard handler
func NewHandler(opts Options) (*Handler, error) {
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"humanTime": func(t protocol.Timestamp) string { return humanize.Time(t.Time) },
		"localTime": func(t protocol.Timestamp) string { return t.Local().Format("02/01/2006 15:04:05") },
		"comma":     func(n int) string { return humanize.Comma(int64(n)) },
		"add":       func(a, b int) int { return a + b },
		"sub":       func(a, b int) int { return a - b },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	if opts.History == nil {
		opts.History = history.Disabled{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.MaxPayloadBytes <= 0 {
		opts.MaxPayloadBytes = config.DefaultMaxPayloadBytes
	}

	h := &Handler{
		analyzer:        opts.Analyzer,
		store:           opts.History,
		features:        opts.Features,
		modelName:       opts.ModelName,
		maxPayloadBytes: opts.MaxPayloadBytes,
		metrics:         opts.Metrics,
		tmpl:            tmpl,
		mux:             http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /{$}", h.handleIndex)
	h.mux.HandleFunc("POST /analyze", h.handleAnalyze)
	h.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	h.mux.Handle("GET /metrics", h.metrics.Handler())

	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// resultView is a rendered analysis
type resultView struct {
	Dashboard DashboardView
	Report    []ReportLine
}

// historyItem is one row of the recent-analysis list
type historyItem struct {
	Entry     protocol.HistoryEntry
	Title     string
	Indicator string
	Selected  bool
}

// page is the template data for index.html
type page struct {
	Features   config.Features
	ModelName  string
	AvgLatency string
	LogInput   string
	Error      string
	Result     *resultView
	History    []historyItem
}

func newResultView(r protocol.AnalysisResult) *resultView {
	return &resultView{
		Dashboard: BuildView(r),
		Report:    FormatReport(r.ReportMarkdown),
	}
}

func (h *Handler) newPage() *page {
	p := &page{
		Features:  h.features,
		ModelName: h.modelName,
	}
	if avg := h.metrics.AverageLatency(); avg > 0 {
		p.AvgLatency = avg.Round(100 * time.Millisecond).String()
	}
	return p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := h.newPage()
	p.LogInput = DemoLog

	entries := h.loadHistory(r.Context())
	status := http.StatusOK

	if id := r.URL.Query().Get("entry"); id != "" {
		entry := findEntry(entries, id)
		if entry == nil {
			p.Error = msgEntryNotFound
			status = http.StatusNotFound
		} else {
			p.LogInput = entry.RawLog
			p.Result = newResultView(entry.Result())
		}
	}
	p.History = historyItems(entries, r.URL.Query().Get("entry"))

	h.render(w, status, p)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	// Check content length
	if r.ContentLength > h.maxPayloadBytes {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	logInput := r.PostForm.Get("log")
	p := h.newPage()
	p.LogInput = logInput

	if strings.TrimSpace(logInput) == "" {
		p.Error = msgEmptyInput
		p.History = historyItems(h.loadHistory(r.Context()), "")
		h.render(w, http.StatusBadRequest, p)
		return
	}

	result, status := h.analyze(r.Context(), logInput, p)
	if result != nil {
		p.Result = newResultView(*result)
		// A failed save never hides the result
		h.save(r.Context(), logInput, result)
	}

	p.History = historyItems(h.loadHistory(r.Context()), "")
	h.render(w, status, p)
}

// analyze runs the model call and fills in the page error on failure
func (h *Handler) analyze(ctx context.Context, logInput string, p *page) (*protocol.AnalysisResult, int) {
	var (
		result  *protocol.AnalysisResult
		latency int64
		err     error
	)
	if !h.features.Analysis || h.analyzer == nil {
		err = analyzer.ErrMissingCredential
	} else {
		result, latency, err = h.analyzer.Analyze(ctx, logInput)
	}

	if err == nil {
		h.metrics.ObserveAnalysis("ok", latency)
		slog.Info("analysis complete",
			slog.Int("total_logs", result.DashboardData.TotalLogs),
			slog.Int("anomalies", len(result.DashboardData.DetectedAnomalies)),
			slog.Int64("latency_ms", latency),
		)
		return result, http.StatusOK
	}

	switch {
	case errors.Is(err, analyzer.ErrMissingCredential):
		h.metrics.ObserveAnalysis("unconfigured", 0)
		p.Error = err.Error()
		return nil, http.StatusServiceUnavailable
	case errors.Is(err, analyzer.ErrEmptyInput):
		p.Error = msgEmptyInput
		return nil, http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		h.metrics.ObserveAnalysis("canceled", 0)
		slog.Debug("analysis canceled by client")
		p.Error = msgAnalysisError + "request canceled"
		return nil, statusClientClosedRequest
	case analyzer.IsUnavailable(err):
		h.metrics.ObserveAnalysis("unavailable", latency)
		slog.Error("model unavailable", slog.String("error", err.Error()))
		p.Error = msgUnavailable
	default:
		h.metrics.ObserveAnalysis("error", latency)
		slog.Error("analysis failed", slog.String("error", err.Error()))
		p.Error = msgAnalysisError + err.Error()
	}
	return nil, http.StatusBadGateway
}

func (h *Handler) save(ctx context.Context, logInput string, result *protocol.AnalysisResult) {
	if !h.features.History {
		slog.Debug("history not configured, skipping save")
		return
	}

	entry, err := h.store.Save(ctx, logInput, result)
	h.metrics.ObserveHistory("save", err)
	if err != nil {
		slog.Error("save analysis failed", slog.String("error", err.Error()))
		return
	}
	if entry != nil {
		slog.Debug("analysis saved", slog.String("id", entry.ID.String()))
	}
}

func (h *Handler) loadHistory(ctx context.Context) []protocol.HistoryEntry {
	if !h.features.History {
		return nil
	}

	entries, err := h.store.FetchRecent(ctx)
	h.metrics.ObserveHistory("fetch", err)
	if err != nil {
		slog.Error("fetch history failed", slog.String("error", err.Error()))
		return nil
	}
	return entries
}

func findEntry(entries []protocol.HistoryEntry, id string) *protocol.HistoryEntry {
	for i := range entries {
		if entries[i].ID.String() == id {
			return &entries[i]
		}
	}
	return nil
}

func historyItems(entries []protocol.HistoryEntry, selected string) []historyItem {
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, historyItem{
			Entry:     e,
			Title:     e.DisplayTitle(),
			Indicator: Indicator(e),
			Selected:  selected != "" && e.ID.String() == selected,
		})
	}
	return items
}

func (h *Handler) render(w http.ResponseWriter, status int, p *page) {
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", p); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
