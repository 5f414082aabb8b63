package graph

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for workflow execution.
//
// Exposed metrics (namespace "draftloop"):
//
//   - step_latency_ms (histogram): node execution duration, labeled by
//     node_id and status (success/error). Buckets span fast routing decisions
//     through multi-second model calls.
//   - steps_total (counter): cumulative node executions, labeled by node_id
//     and status.
//   - runs_total (counter): finished workflow runs, labeled by outcome
//     (completed/error/max_steps/canceled).
//
// All methods are safe for concurrent use; the underlying Prometheus
// collectors handle synchronization.
type Metrics struct {
	stepLatency *prometheus.HistogramVec
	stepsTotal  *prometheus.CounterVec
	runsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the workflow metrics with the provided
// registry. Pass prometheus.DefaultRegisterer for the global registry, or a
// private prometheus.NewRegistry() for isolation in tests.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "draftloop",
			Name:      "step_latency_ms",
			Help:      "Node execution duration in milliseconds.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		}, []string{"node_id", "status"}),
		stepsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftloop",
			Name:      "steps_total",
			Help:      "Cumulative node executions.",
		}, []string{"node_id", "status"}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "draftloop",
			Name:      "runs_total",
			Help:      "Finished workflow runs by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveStep records one node execution.
func (m *Metrics) ObserveStep(nodeID, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepLatency.WithLabelValues(nodeID, status).Observe(float64(d.Milliseconds()))
	m.stepsTotal.WithLabelValues(nodeID, status).Inc()
}

// RunFinished records the outcome of one workflow run.
func (m *Metrics) RunFinished(outcome string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
}
