package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for DAG runs.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry          *prometheus.Registry
	taskDuration      *prometheus.HistogramVec
	taskRuns          *prometheus.CounterVec
	dagRuns           *prometheus.CounterVec
	dagLastSuccess    *prometheus.GaugeVec
	rowsWrittenTotals *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	taskDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "empetl_task_duration_seconds",
		Help:    "Duration of DAG task runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"dag", "task", "state"})
	taskRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "empetl_task_runs_total",
		Help: "Number of DAG tasks that reached a final state",
	}, []string{"dag", "task", "state"})
	dagRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "empetl_dag_runs_total",
		Help: "Number of DAG runs that completed",
	}, []string{"dag", "state"})
	dagLastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "empetl_dag_last_success_timestamp_seconds",
		Help: "Unix time of the last successful DAG run",
	}, []string{"dag"})
	rowsWritten := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "empetl_rows_written_total",
		Help: "Number of warehouse rows written, by operation",
	}, []string{"dag", "operation"})
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		taskDuration,
		taskRuns,
		dagRuns,
		dagLastSuccess,
		rowsWritten,
	)
	return &Metrics{
		Registry:          registry,
		taskDuration:      taskDuration,
		taskRuns:          taskRuns,
		dagRuns:           dagRuns,
		dagLastSuccess:    dagLastSuccess,
		rowsWrittenTotals: rowsWritten,
	}
}

// ObserveTask records the final state of a task and, if it ran, how long it took.
func (m *Metrics) ObserveTask(dag string, task string, state string, d time.Duration) {
	if m == nil {
		return
	}
	m.taskRuns.WithLabelValues(dag, task, state).Inc()
	if d > 0 {
		m.taskDuration.WithLabelValues(dag, task, state).Observe(d.Seconds())
	}
}

// ObserveDagRun records the final state of a DAG run.
func (m *Metrics) ObserveDagRun(dag string, state string, success bool, end time.Time) {
	if m == nil {
		return
	}
	m.dagRuns.WithLabelValues(dag, state).Inc()
	if success {
		m.dagLastSuccess.WithLabelValues(dag).Set(float64(end.Unix()))
	}
}

// AddRowsWritten adds n to the rows written counter for operation, e.g. "insert" or "update".
func (m *Metrics) AddRowsWritten(dag string, operation string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsWrittenTotals.WithLabelValues(dag, operation).Add(float64(n))
}
