package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec
	AuthFailures   *prometheus.CounterVec
	ToolCalls      *prometheus.CounterVec
	LLMRequests    *prometheus.CounterVec
	ToolRounds     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live tool-calling sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		AuthFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected requests by failure code.",
		}, []string{"code"}),
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		LLMRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Gateway completion calls by outcome.",
		}, []string{"outcome"}),
		ToolRounds: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_rounds_per_message",
			Help:      "Tool-call rounds used per user message.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
