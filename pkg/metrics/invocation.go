// Package metrics provides Prometheus metrics for agent orchestrator invocations.
//
// The CLI is short-lived, so nothing is served over HTTP. Metrics live on a
// private registry and can be written to a node-exporter textfile after a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Labels for metrics
	labelCommand = "command"
	labelResult  = "result"

	// Result values
	ResultSuccess = "success"
	ResultError   = "error"
	ResultFailed  = "failed"
)

var (
	// Registry holds every orchestrator metric.
	Registry = prometheus.NewRegistry()

	// InvocationsTotal counts dispatched commands by command and result.
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_orchestrator_invocations_total",
			Help: "Total number of dispatched commands by command and result",
		},
		[]string{labelCommand, labelResult},
	)

	// InvocationDuration tracks how long child processes ran.
	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_orchestrator_invocation_duration_seconds",
			Help:    "Duration of dispatched child processes in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		},
		[]string{labelCommand},
	)

	// ChildExitCode records the last exit code seen per command.
	ChildExitCode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agent_orchestrator_child_exit_code",
			Help: "Exit code of the most recent child process by command",
		},
		[]string{labelCommand},
	)
)

func init() {
	Registry.MustRegister(
		InvocationsTotal,
		InvocationDuration,
		ChildExitCode,
	)
}

// InvocationTimer tracks one dispatched command.
type InvocationTimer struct {
	command string
	start   time.Time
}

// NewInvocationTimer creates a new timer for a command.
func NewInvocationTimer(command string) *InvocationTimer {
	return &InvocationTimer{
		command: command,
		start:   time.Now(),
	}
}

// RecordExit records a child that ran to completion.
func (t *InvocationTimer) RecordExit(code int) {
	duration := time.Since(t.start).Seconds()
	InvocationDuration.WithLabelValues(t.command).Observe(duration)
	ChildExitCode.WithLabelValues(t.command).Set(float64(code))

	result := ResultSuccess
	if code != 0 {
		result = ResultError
	}
	InvocationsTotal.WithLabelValues(t.command, result).Inc()
}

// RecordFailed records a command that never started a child, such as a
// missing companion script.
func (t *InvocationTimer) RecordFailed() {
	InvocationsTotal.WithLabelValues(t.command, ResultFailed).Inc()
}

// WriteTextfile writes the registry in the Prometheus text format to path,
// atomically, for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
