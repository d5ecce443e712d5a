package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OutcomeOK labels successful calls; failures are labelled with their kind.
const OutcomeOK = "ok"

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Tool metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
	BytesRead    prometheus.Counter
	BytesWritten prometheus.Counter
	Denials      *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	InFlight prometheus.Gauge
}

// NewMetrics creates a metrics collector on a fresh registry, including the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsgate_tool_calls_total",
				Help: "Total number of tool calls by outcome",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsgate_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"tool"},
		),
		BytesRead: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fsgate_bytes_read_total",
				Help: "Total bytes returned by read calls",
			},
		),
		BytesWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "fsgate_bytes_written_total",
				Help: "Total bytes stored by write calls",
			},
		),
		Denials: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsgate_denials_total",
				Help: "Total number of calls refused for paths outside the allowed directories",
			},
			[]string{"tool"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsgate_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsgate_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "route"},
		),

		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "fsgate_tool_calls_in_flight",
				Help: "Number of tool calls currently executing",
			},
		),
	}
}

// Registry is the registry all metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordToolCall records one finished call.
func (m *Metrics) RecordToolCall(tool, outcome string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordDenial counts a path refused by the allow-list.
func (m *Metrics) RecordDenial(tool string) {
	m.Denials.WithLabelValues(tool).Inc()
}

// AddBytesRead adds n to the read byte counter.
func (m *Metrics) AddBytesRead(n int) {
	if n > 0 {
		m.BytesRead.Add(float64(n))
	}
}

// AddBytesWritten adds n to the written byte counter.
func (m *Metrics) AddBytesWritten(n int) {
	if n > 0 {
		m.BytesWritten.Add(float64(n))
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, status).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
