// internal/dashboard/metrics.go
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/VividCortex/ewma"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks analysis and history activity
type Metrics struct {
	analyses   *prometheus.CounterVec
	latency    prometheus.Histogram
	historyOps *prometheus.CounterVec
	handler    http.Handler

	mu      sync.Mutex
	avg     ewma.MovingAverage
	samples int
}

// NewMetrics registers the dashboard collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netloginsight",
			Name:      "analyses_total",
			Help:      "Log analyses by outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "netloginsight",
			Name:      "analysis_latency_seconds",
			Help:      "Model request latency for completed requests.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 120},
		}),
		historyOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netloginsight",
			Name:      "history_operations_total",
			Help:      "History store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		avg: ewma.NewMovingAverage(),
	}

	reg.MustRegister(
		m.analyses,
		m.latency,
		m.historyOps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// ObserveAnalysis records one analysis request. Latency is only recorded
// when the model was actually called.
func (m *Metrics) ObserveAnalysis(outcome string, latencyMs int64) {
	m.analyses.WithLabelValues(outcome).Inc()
	if latencyMs <= 0 && outcome != "ok" {
		return
	}

	m.latency.Observe(float64(latencyMs) / 1000)

	m.mu.Lock()
	m.avg.Add(float64(latencyMs))
	m.samples++
	m.mu.Unlock()
}

// ObserveHistory records one history store call
func (m *Metrics) ObserveHistory(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.historyOps.WithLabelValues(op, outcome).Inc()
}

// AverageLatency returns the smoothed model latency, or zero before the
// first request.
func (m *Metrics) AverageLatency() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.samples == 0 {
		return 0
	}
	return time.Duration(m.avg.Value() * float64(time.Millisecond))
}
