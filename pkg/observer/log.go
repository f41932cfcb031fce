// Package observer provides ready-made types.Observer implementations for
// structured logging and Prometheus metrics.
package observer

import (
	"context"
	"log/slog"

	"github.com/jzx17/threadpool/pkg/types"
)

// LogObserver writes worker lifecycle events to a slog.Logger
type LogObserver struct {
	logger *slog.Logger

	// jobLevel applies to job started records; job finished records go one step lower
	jobLevel slog.Level
}

// LogOption configures a LogObserver
type LogOption func(*LogObserver)

// WithJobLevel sets the level of job started/finished records
func WithJobLevel(level slog.Level) LogOption {
	return func(o *LogObserver) {
		o.jobLevel = level
	}
}

// NewLogObserver creates an observer logging to logger (slog.Default when nil)
func NewLogObserver(logger *slog.Logger, opts ...LogOption) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}

	o := &LogObserver{
		logger:   logger,
		jobLevel: slog.LevelInfo,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// OnEvent implements types.Observer
func (o *LogObserver) OnEvent(ev types.Event) {
	ctx := context.Background()
	id := slog.Int("worker_id", ev.WorkerID)

	switch ev.Kind {
	case types.EventWorkerStarted:
		o.logger.DebugContext(ctx, "worker started", id)
	case types.EventJobStarted:
		o.logger.Log(ctx, o.jobLevel, "worker got a job; executing", id)
	case types.EventJobFinished:
		o.logger.Log(ctx, o.jobLevel-slog.Level(4), "job finished", id, slog.Duration("duration", ev.Duration))
	case types.EventJobPanicked:
		o.logger.ErrorContext(ctx, "job panicked", id,
			slog.Duration("duration", ev.Duration),
			slog.Any("error", ev.Err))
	case types.EventWorkerDisconnected:
		o.logger.InfoContext(ctx, "worker disconnected; shutting down", id)
	case types.EventWorkerShutdown:
		o.logger.InfoContext(ctx, "shutting down worker", id)
	case types.EventWorkerExited:
		o.logger.WarnContext(ctx, "worker exited and will not be replaced", id, slog.Any("error", ev.Err))
	default:
		o.logger.WarnContext(ctx, "unknown worker event", id, slog.String("kind", ev.Kind.String()))
	}
}

var _ types.Observer = (*LogObserver)(nil)
