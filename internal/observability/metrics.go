package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool invocation outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeBlocked = "blocked"
)

// Metrics holds the Prometheus collectors for the agent.
type Metrics struct {
	registry *prometheus.Registry

	MessagesTotal        *prometheus.CounterVec
	ToolInvocationsTotal *prometheus.CounterVec
	ToolDuration         *prometheus.HistogramVec
	SessionsActive       prometheus.Gauge
	ToolLogEntries       prometheus.Gauge
}

// NewMetrics creates the collectors on a private registry, so several
// instances can coexist in one process.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliveryagent_messages_total",
				Help: "Total number of processed messages by classified intent",
			},
			[]string{"intent"},
		),
		ToolInvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deliveryagent_tool_invocations_total",
				Help: "Total number of tool invocations",
			},
			[]string{"tool", "outcome"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deliveryagent_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deliveryagent_sessions_active",
				Help: "Number of sessions currently held by the store",
			},
		),
		ToolLogEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deliveryagent_tool_log_entries",
				Help: "Number of retained tool execution log entries",
			},
		),
	}
}

// ObserveTool records one tool invocation.
func (m *Metrics) ObserveTool(tool, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ToolInvocationsTotal.WithLabelValues(tool, outcome).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

// ObserveMessage records one processed message.
func (m *Metrics) ObserveMessage(intent string) {
	if m == nil {
		return
	}
	m.MessagesTotal.WithLabelValues(intent).Inc()
}

// SetSessions sets the active sessions gauge.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

// SetToolLogEntries sets the tool log size gauge.
func (m *Metrics) SetToolLogEntries(n int) {
	if m == nil {
		return
	}
	m.ToolLogEntries.Set(float64(n))
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
