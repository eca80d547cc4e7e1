// Package metrics provides Prometheus instrumentation for the agent pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed turns by final route and status.
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_turns_total",
			Help: "Total conversational turns processed",
		},
		[]string{"route", "status"},
	)

	// TurnDuration tracks end-to-end turn latency.
	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agent_turn_duration_seconds",
			Help:    "End-to-end turn duration in seconds",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
	)

	// RouteDecisions counts supervisor routing decisions.
	RouteDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_route_decisions_total",
			Help: "Supervisor routing decisions",
		},
		[]string{"route", "source"},
	)

	// ToolCallsTotal counts tool invocations by tool and outcome.
	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_tool_calls_total",
			Help: "Tool invocations by the retriever agent",
		},
		[]string{"tool", "status"},
	)

	// ModelCallDuration tracks chat model call latency by node.
	ModelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_model_call_duration_seconds",
			Help:    "Chat model call duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 20, 30},
		},
		[]string{"node"},
	)

	// RateLimitRejections counts admission refusals by scope.
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_rate_limit_rejections_total",
			Help: "Turns rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	// SSEConnectionsActive tracks active streaming connections.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_sse_connections_active",
			Help: "Number of active SSE streaming connections",
		},
	)

	// EnrichedItemsTotal counts enrichment output cards by kind and match outcome.
	EnrichedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_enriched_items_total",
			Help: "Enriched media cards produced",
		},
		[]string{"kind", "matched"},
	)
)

// RecordTurn records metrics for a completed turn.
func RecordTurn(route, status string, seconds float64) {
	TurnsTotal.WithLabelValues(route, status).Inc()
	TurnDuration.Observe(seconds)
}

// RecordToolCall records a tool invocation outcome.
func RecordToolCall(tool, status string) {
	ToolCallsTotal.WithLabelValues(tool, status).Inc()
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
