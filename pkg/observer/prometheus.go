package observer

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jzx17/threadpool/pkg/types"
)

// Metrics holds Prometheus collectors fed by worker events
type Metrics struct {
	JobsStarted    prometheus.Counter
	JobsCompleted  prometheus.Counter
	JobsPanicked   prometheus.Counter
	WorkersStarted prometheus.Counter
	WorkersExited  *prometheus.CounterVec
	BusyWorkers    prometheus.Gauge
	JobDuration    prometheus.Histogram
}

// NewMetrics creates unregistered collectors
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		JobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_started_total",
			Help:      "Total number of jobs claimed by a worker",
		}),
		JobsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs that returned normally",
		}),
		JobsPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "jobs_panicked_total",
			Help:      "Total number of jobs that panicked",
		}),
		WorkersStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers_started_total",
			Help:      "Total number of worker goroutines started",
		}),
		WorkersExited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workers_exited_total",
			Help:      "Total number of worker goroutines that exited, by reason",
		}, []string{"reason"}),
		BusyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "busy_workers",
			Help:      "Current number of workers executing a job",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "job_duration_seconds",
			Help:      "Histogram of job execution time",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register registers every collector with reg
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.JobsStarted,
		m.JobsCompleted,
		m.JobsPanicked,
		m.WorkersStarted,
		m.WorkersExited,
		m.BusyWorkers,
		m.JobDuration,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// OnEvent implements types.Observer
func (m *Metrics) OnEvent(ev types.Event) {
	switch ev.Kind {
	case types.EventWorkerStarted:
		m.WorkersStarted.Inc()
	case types.EventJobStarted:
		m.JobsStarted.Inc()
		m.BusyWorkers.Inc()
	case types.EventJobFinished:
		m.JobsCompleted.Inc()
		m.BusyWorkers.Dec()
		m.JobDuration.Observe(ev.Duration.Seconds())
	case types.EventJobPanicked:
		m.JobsPanicked.Inc()
		m.BusyWorkers.Dec()
		m.JobDuration.Observe(ev.Duration.Seconds())
	case types.EventWorkerDisconnected:
		m.WorkersExited.WithLabelValues("disconnected").Inc()
	case types.EventWorkerExited:
		m.WorkersExited.WithLabelValues("panic").Inc()
	}
}

// StatsSource is anything that can report pool statistics
type StatsSource interface {
	Stats() types.PoolStats
}

// NewStatsCollectors returns gauges that read pool statistics at scrape time
func NewStatsCollectors(namespace, subsystem string, source StatsSource) []prometheus.Collector {
	gauge := func(name, help string, value func(types.PoolStats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, func() float64 {
			return value(source.Stats())
		})
	}

	return []prometheus.Collector{
		gauge("pool_size", "Number of workers the pool was created with",
			func(s types.PoolStats) float64 { return float64(s.PoolSize) }),
		gauge("live_workers", "Number of worker goroutines still running",
			func(s types.PoolStats) float64 { return float64(s.LiveWorkers) }),
		gauge("queued_jobs", "Number of jobs waiting in the queue",
			func(s types.PoolStats) float64 { return float64(s.QueuedJobs) }),
	}
}

var _ types.Observer = (*Metrics)(nil)
