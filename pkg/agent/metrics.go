package agent

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry collects worker metrics, exposed on /metrics.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		callsTotal, callsActive, callDuration,
		toolInvocations, webhookFailures,
	)
}

// callsTotal counts calls accepted since startup.
var callsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "storline_calls_total",
		Help: "Inbound calls accepted since startup",
	},
)

// callsActive tracks calls currently in progress.
var callsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "storline_calls_active",
		Help: "Calls currently in progress",
	},
)

// callDuration observes call length in seconds.
var callDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "storline_call_duration_seconds",
		Help:    "Call duration in seconds",
		Buckets: []float64{15, 30, 60, 120, 300, 600, 1200},
	},
)

// toolInvocations counts tool calls by name and outcome.
var toolInvocations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storline_tool_invocations_total",
		Help: "Tool invocations by tool name and outcome",
	},
	[]string{"tool", "outcome"}, // ok | failed | rejected
)

// webhookFailures counts webhook deliveries that did not return 2xx.
var webhookFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "storline_webhook_failures_total",
		Help: "Webhook deliveries that failed or returned a non-2xx status",
	},
)

const (
	outcomeOK       = "ok"
	outcomeFailed   = "failed"
	outcomeRejected = "rejected"
)
