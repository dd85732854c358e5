// Package observability provides Prometheus metrics and the optional
// local diagnostics listener for the tool server.
package observability

import "github.com/prometheus/client_golang/prometheus"

// ExecBuckets defines histogram buckets suited for tool execution
// latencies, ranging from 10ms to 120s.
var ExecBuckets = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120}

var (
	// FramesTotal counts protocol frames by direction (in/out).
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "werkbank_frames_total",
			Help: "Protocol frames",
		},
		[]string{"direction"},
	)

	// FrameErrorsTotal counts malformed inbound frames by reason.
	FrameErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "werkbank_frame_errors_total",
			Help: "Malformed frames",
		},
		[]string{"reason"},
	)

	// ExecutionsTotal counts tool executions by name and outcome.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "werkbank_tool_executions_total",
			Help: "Tool executions",
		},
		[]string{"tool", "status"},
	)

	// ExecutionDuration records tool execution duration in seconds.
	ExecutionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "werkbank_tool_execution_duration_seconds",
			Help:    "Tool execution duration",
			Buckets: ExecBuckets,
		},
		[]string{"tool"},
	)

	// ExecutionsInFlight tracks currently running tool executions.
	ExecutionsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "werkbank_tool_executions_in_flight",
			Help: "Running tool executions",
		},
	)

	// CredentialsStored tracks the number of credentials in the vault.
	// Names and values are never exported, only the count.
	CredentialsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "werkbank_credentials_stored",
			Help: "Credentials held in the vault",
		},
	)
)

func init() {
	prometheus.MustRegister(
		FramesTotal,
		FrameErrorsTotal,
		ExecutionsTotal,
		ExecutionDuration,
		ExecutionsInFlight,
		CredentialsStored,
	)
}

// ObserveExecution records one finished tool execution.
func ObserveExecution(tool string, ok bool, seconds float64) {
	status := "error"
	if ok {
		status = "ok"
	}
	ExecutionsTotal.WithLabelValues(tool, status).Inc()
	ExecutionDuration.WithLabelValues(tool).Observe(seconds)
}
