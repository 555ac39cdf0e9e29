// Package metrics provides Prometheus metrics for planner operations.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// operationsTotal counts boundary operations.
	// Labels:
	//   - operation: e.g. "create_task", "list_tasks_for_week"
	//   - status: "success", "invalid", "not_found" or "error"
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_operations_total",
			Help: "Total number of planner task operations",
		},
		[]string{"operation", "status"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "planner_operation_duration_seconds",
			Help:    "Duration of planner task operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)

	// noopWrites counts updates and deletes that matched no task.
	noopWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_noop_writes_total",
			Help: "Updates and deletes whose task id matched no row",
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal)
	prometheus.MustRegister(operationDuration)
	prometheus.MustRegister(noopWrites)
}

const (
	StatusSuccess  = "success"
	StatusInvalid  = "invalid"
	StatusNotFound = "not_found"
	StatusError    = "error"
)

func RecordOperation(operation, status string) {
	operationsTotal.WithLabelValues(operation, status).Inc()
}

func RecordDuration(operation string, durationSeconds float64) {
	operationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

func RecordNoopWrite(operation string) {
	noopWrites.WithLabelValues(operation).Inc()
}
