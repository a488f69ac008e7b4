// Package metrics implements Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TickDuration measures how long one manager.Tick pass takes.
	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aptaskd_tick_duration_seconds",
			Help:    "Duration of one scheduler tick pass",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		},
	)

	// QueueDepth tracks the total number of handles currently in the FIFO,
	// active and queued combined.
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptaskd_queue_depth",
			Help: "Total number of handles in the task FIFO",
		},
	)

	// ActiveTasks tracks the number of handles currently in the active window.
	ActiveTasks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "aptaskd_active_tasks",
			Help: "Number of handles currently in the active window",
		},
	)

	// RequestsTotal counts requests handled by the manager, by request kind
	// and outcome status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaskd_requests_total",
			Help: "Total number of requests handled, by kind and status",
		},
		[]string{"request", "status"},
	)

	// RoutineReportsTotal counts terminal reports observed per routine name
	// and outcome (done/error).
	RoutineReportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aptaskd_routine_reports_total",
			Help: "Total number of terminal routine reports, by routine and outcome",
		},
		[]string{"routine", "outcome"},
	)
)

// ObserveTick records the wall-clock duration of one scheduler tick.
func ObserveTick(d time.Duration) {
	TickDuration.Observe(d.Seconds())
}
