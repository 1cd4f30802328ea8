package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "asyncrt"

// Registry holds all metric instances for asyncrt components.
type Registry struct {
	// Scheduler Metrics
	TasksCreated   *prometheus.CounterVec
	TasksExecuted  *prometheus.CounterVec
	TasksCancelled *prometheus.CounterVec
	TasksDestroyed *prometheus.CounterVec
	TaskPanics     *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	QueueDepth     *prometheus.GaugeVec
	Workers        *prometheus.GaugeVec
	DetachedTasks  *prometheus.GaugeVec

	// Periodic Metrics
	PeriodicSubmissions *prometheus.CounterVec
	PeriodicErrors      *prometheus.CounterVec

	// Process Metrics
	ProcessWaits        *prometheus.CounterVec
	ProcessWaitDuration prometheus.Histogram
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry bound to prometheus.DefaultRegisterer.
// It is created on first use so importing the package registers nothing.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		TasksCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_created_total",
				Help:      "Total number of tasks created",
			},
			[]string{"scheduler", "policy"},
		),

		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_executed_total",
				Help:      "Total number of task payloads run, by the path that claimed them",
			},
			[]string{"scheduler", "path"},
		),

		TasksCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_cancelled_total",
				Help:      "Total number of tasks completed without running",
			},
			[]string{"scheduler"},
		),

		TasksDestroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "tasks_destroyed_total",
				Help:      "Total number of task objects destroyed",
			},
			[]string{"scheduler"},
		),

		TaskPanics: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "panics_total",
				Help:      "Total number of task payloads that panicked",
			},
			[]string{"scheduler"},
		),

		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "task_duration_seconds",
				Help:      "Time spent running task payloads",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler"},
		),

		QueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "queue_depth",
				Help:      "Number of tasks waiting in the shared queue",
			},
			[]string{"scheduler"},
		),

		Workers: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "workers",
				Help:      "Number of live pool workers",
			},
			[]string{"scheduler"},
		),

		DetachedTasks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "scheduler",
				Name:      "detached_tasks",
				Help:      "Run-after-released tasks still alive on dedicated goroutines",
			},
			[]string{"scheduler"},
		),

		PeriodicSubmissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "periodic",
				Name:      "submissions_total",
				Help:      "Total number of tasks submitted by cron schedules",
			},
			[]string{"schedule"},
		),

		PeriodicErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "periodic",
				Name:      "errors_total",
				Help:      "Total number of cron submissions rejected by the scheduler",
			},
			[]string{"schedule"},
		),

		ProcessWaits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "waits_total",
				Help:      "Total number of subprocess waits by outcome",
			},
			[]string{"outcome"},
		),

		ProcessWaitDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "process",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for subprocesses",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
