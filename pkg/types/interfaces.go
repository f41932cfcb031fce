// Package types defines the core contracts shared by the queue, worker and observer packages
package types

import (
	"time"
)

// Job is a unit of deferred, one-shot work. A Job takes no arguments, returns nothing and
// is executed exactly once by whichever worker dequeues it.
type Job func()

// Submitter defines the submission side of a worker pool
type Submitter interface {
	// Submit enqueues a job for execution by exactly one worker
	Submit(job Job)

	// TrySubmit enqueues a job, reporting a closed pool as an error instead of panicking
	TrySubmit(job Job) error
}

// WorkerPool defines the worker pool interface
type WorkerPool interface {
	Submitter

	// Close closes the queue and waits for every worker to terminate
	Close() error

	// Size returns the number of workers the pool was created with
	Size() int

	// Stats returns worker pool statistics
	Stats() PoolStats
}

// EventKind identifies a worker lifecycle event
type EventKind int

const (
	// EventWorkerStarted is emitted once a worker goroutine entered its receive loop
	EventWorkerStarted EventKind = iota
	// EventJobStarted is emitted right before a worker executes a job
	EventJobStarted
	// EventJobFinished is emitted after a job returned normally
	EventJobFinished
	// EventJobPanicked is emitted when a job panicked; Event.Err holds a *JobPanicError
	EventJobPanicked
	// EventWorkerDisconnected is emitted when a worker observed the closed queue
	EventWorkerDisconnected
	// EventWorkerShutdown is emitted by the pool right before it joins a worker
	EventWorkerShutdown
	// EventWorkerExited is emitted when a worker terminated because a job panicked
	EventWorkerExited
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventWorkerStarted:
		return "worker_started"
	case EventJobStarted:
		return "job_started"
	case EventJobFinished:
		return "job_finished"
	case EventJobPanicked:
		return "job_panicked"
	case EventWorkerDisconnected:
		return "worker_disconnected"
	case EventWorkerShutdown:
		return "worker_shutdown"
	case EventWorkerExited:
		return "worker_exited"
	default:
		return "unknown"
	}
}

// Event describes something that happened to a worker
type Event struct {
	// Kind is the event type
	Kind EventKind

	// WorkerID is the id of the worker the event belongs to
	WorkerID int

	// Time is when the event occurred, as reported by the pool clock
	Time time.Time

	// Duration is the job execution time for EventJobFinished and EventJobPanicked
	Duration time.Duration

	// Err is set for EventJobPanicked and EventWorkerExited
	Err error
}

// Observer receives worker lifecycle events. Implementations are called synchronously
// from worker goroutines and must be safe for concurrent use.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a plain function to the Observer interface
type ObserverFunc func(ev Event)

// OnEvent calls f(ev)
func (f ObserverFunc) OnEvent(ev Event) {
	f(ev)
}

// MultiObserver fans events out to several observers in order
type MultiObserver []Observer

// OnEvent forwards ev to every non-nil observer
func (m MultiObserver) OnEvent(ev Event) {
	for _, o := range m {
		if o != nil {
			o.OnEvent(ev)
		}
	}
}

// NopObserver discards every event
type NopObserver struct{}

// OnEvent does nothing
func (NopObserver) OnEvent(Event) {}

// PoolStats defines basic statistics for worker pools
type PoolStats struct {
	// PoolSize is the number of workers the pool was created with
	PoolSize int

	// LiveWorkers is the number of workers whose goroutine is still running
	LiveWorkers int

	// BusyWorkers is the number of workers currently executing a job
	BusyWorkers int

	// QueuedJobs is the number of jobs waiting in the queue
	QueuedJobs int

	// Submitted is the total number of accepted submissions
	Submitted int64

	// Completed is the total number of jobs that returned normally
	Completed int64

	// Panicked is the total number of jobs that panicked
	Panicked int64

	// Closed reports whether Close has been called
	Closed bool
}

// Pending returns the number of submitted jobs that have not finished yet
func (s PoolStats) Pending() int64 {
	return s.Submitted - s.Completed - s.Panicked
}

// LostWorkers returns how many workers terminated before the pool was closed
func (s PoolStats) LostWorkers() int {
	if s.Closed {
		return 0
	}
	return s.PoolSize - s.LiveWorkers
}
