package worker

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/threadpool/pkg/queue"
	"github.com/jzx17/threadpool/pkg/types"
)

// WorkerState defines the state of a Worker
type WorkerState int32

const (
	// WorkerStateIdle represents a worker waiting in Receive
	WorkerStateIdle WorkerState = iota
	// WorkerStateWorking represents a worker executing a job
	WorkerStateWorking
	// WorkerStateStopped represents a worker whose goroutine has exited
	WorkerStateStopped
)

// String returns the string representation of WorkerState
func (ws WorkerState) String() string {
	switch ws {
	case WorkerStateIdle:
		return "idle"
	case WorkerStateWorking:
		return "working"
	case WorkerStateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// workerSettings is the part of the pool configuration every worker needs
type workerSettings struct {
	observer        types.Observer
	clock           types.Clock
	continueOnPanic bool
}

// Worker is one goroutine bound to a stable id. It pulls jobs from the shared
// receiver until the queue reports closure.
type Worker struct {
	id       int
	state    int32 // atomic state
	receiver *queue.Receiver
	settings workerSettings

	// done is closed when the goroutine exits
	done chan struct{}

	// handle is the joinable view of done; Join swaps it out exactly once
	handleMu sync.Mutex
	handle   chan struct{}

	// statistics
	totalCompleted int64
	totalPanicked  int64
	lastJobTime    int64 // Unix nanosecond timestamp
}

// newWorker creates a worker and starts its goroutine. ready is closed once
// the goroutine has entered the receive loop.
func newWorker(id int, receiver *queue.Receiver, settings workerSettings, ready chan<- struct{}) *Worker {
	done := make(chan struct{})
	w := &Worker{
		id:       id,
		state:    int32(WorkerStateIdle),
		receiver: receiver,
		settings: settings,
		done:     done,
		handle:   done,
	}

	go w.run(ready)

	return w
}

// ID returns the Worker ID
func (w *Worker) ID() int {
	return w.id
}

// State returns the current Worker state
func (w *Worker) State() WorkerState {
	return WorkerState(atomic.LoadInt32(&w.state))
}

// Done returns a channel that is closed when the worker goroutine has exited
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// run is the receive loop
func (w *Worker) run(ready chan<- struct{}) {
	defer close(w.done)
	defer atomic.StoreInt32(&w.state, int32(WorkerStateStopped))

	w.emit(types.Event{Kind: types.EventWorkerStarted})
	close(ready)

	for {
		job, ok := w.receiver.Receive()
		if !ok {
			w.emit(types.Event{Kind: types.EventWorkerDisconnected})
			return
		}

		if err := w.processJob(job); err != nil && !w.settings.continueOnPanic {
			// the worker is not replaced; the pool runs one worker short from here on
			w.emit(types.Event{Kind: types.EventWorkerExited, Err: err})
			return
		}
	}
}

// processJob runs a single job and records its outcome
func (w *Worker) processJob(job types.Job) error {
	atomic.StoreInt32(&w.state, int32(WorkerStateWorking))
	defer atomic.StoreInt32(&w.state, int32(WorkerStateIdle))

	startTime := w.settings.clock.Now()
	atomic.StoreInt64(&w.lastJobTime, startTime.UnixNano())
	w.emit(types.Event{Kind: types.EventJobStarted})

	err := w.executeJob(job)
	executionTime := w.settings.clock.Since(startTime)

	if err != nil {
		atomic.AddInt64(&w.totalPanicked, 1)
		w.emit(types.Event{Kind: types.EventJobPanicked, Duration: executionTime, Err: err})
		return err
	}

	atomic.AddInt64(&w.totalCompleted, 1)
	w.emit(types.Event{Kind: types.EventJobFinished, Duration: executionTime})
	return nil
}

// executeJob calls job, converting a panic into a *types.JobPanicError
func (w *Worker) executeJob(job types.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			var buf [4096]byte
			n := runtime.Stack(buf[:], false)

			err = &types.JobPanicError{
				WorkerID: w.id,
				Value:    r,
				Stack:    append([]byte(nil), buf[:n]...),
			}
		}
	}()

	job()
	return nil
}

// emit stamps ev with the worker id and time and hands it to the observer
func (w *Worker) emit(ev types.Event) {
	ev.WorkerID = w.id
	ev.Time = w.settings.clock.Now()
	w.settings.observer.OnEvent(ev)
}

// Join waits for the worker goroutine to terminate. Only the first call
// waits; later calls return false immediately.
func (w *Worker) Join() bool {
	w.handleMu.Lock()
	handle := w.handle
	w.handle = nil
	w.handleMu.Unlock()

	if handle == nil {
		return false
	}

	<-handle
	return true
}

// Stats gets Worker statistics
func (w *Worker) Stats() WorkerStats {
	var last time.Time
	if ns := atomic.LoadInt64(&w.lastJobTime); ns != 0 {
		last = time.Unix(0, ns)
	}

	return WorkerStats{
		ID:             w.id,
		State:          w.State(),
		TotalCompleted: atomic.LoadInt64(&w.totalCompleted),
		TotalPanicked:  atomic.LoadInt64(&w.totalPanicked),
		LastJobTime:    last,
	}
}

// String implements fmt.Stringer
func (w *Worker) String() string {
	return fmt.Sprintf("worker-%d(%s)", w.id, w.State())
}

// WorkerStats defines Worker statistics
type WorkerStats struct {
	ID             int
	State          WorkerState
	TotalCompleted int64
	TotalPanicked  int64
	LastJobTime    time.Time
}

// IsActive checks if Worker is executing a job
func (ws WorkerStats) IsActive() bool {
	return ws.State == WorkerStateWorking
}

// IsIdle checks if Worker is waiting for a job
func (ws WorkerStats) IsIdle() bool {
	return ws.State == WorkerStateIdle
}

// IsStopped checks if the Worker goroutine has exited
func (ws WorkerStats) IsStopped() bool {
	return ws.State == WorkerStateStopped
}

// GetPanicRate gets the share of executed jobs that panicked
func (ws WorkerStats) GetPanicRate() float64 {
	total := ws.TotalCompleted + ws.TotalPanicked
	if total == 0 {
		return 0
	}
	return float64(ws.TotalPanicked) / float64(total)
}
