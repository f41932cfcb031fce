package worker

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jzx17/threadpool/internal/testutils"
	"github.com/jzx17/threadpool/pkg/queue"
	"github.com/jzx17/threadpool/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventRecorder is a thread-safe observer that keeps every event it sees
type eventRecorder struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *eventRecorder) OnEvent(ev types.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds(workerID int) []types.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	var kinds []types.EventKind
	for _, ev := range r.events {
		if ev.WorkerID == workerID {
			kinds = append(kinds, ev.Kind)
		}
	}
	return kinds
}

func (r *eventRecorder) count(kind types.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func (r *eventRecorder) first(kind types.EventKind) (types.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ev := range r.events {
		if ev.Kind == kind {
			return ev, true
		}
	}
	return types.Event{}, false
}

func startTestWorker(t *testing.T, id int, receiver *queue.Receiver, settings workerSettings) *Worker {
	t.Helper()

	if settings.clock == nil {
		settings.clock = types.NewRealClock()
	}
	if settings.observer == nil {
		settings.observer = types.NopObserver{}
	}

	ready := make(chan struct{})
	w := newWorker(id, receiver, settings, ready)

	select {
	case <-ready:
	case <-time.After(testutils.DefaultTimeout):
		t.Fatal("worker did not enter its receive loop")
	}
	return w
}

func TestWorkerState(t *testing.T) {
	assert.Equal(t, "idle", WorkerStateIdle.String())
	assert.Equal(t, "working", WorkerStateWorking.String())
	assert.Equal(t, "stopped", WorkerStateStopped.String())
	assert.Equal(t, "unknown", WorkerState(999).String())
}

func TestWorker_ExecutesJobsUntilClosed(t *testing.T) {
	sender, receiver := queue.New()
	recorder := &eventRecorder{}
	w := startTestWorker(t, 7, receiver, workerSettings{observer: recorder})

	assert.Equal(t, 7, w.ID())
	assert.Equal(t, WorkerStateIdle, w.State())

	var executed int64
	for i := 0; i < 3; i++ {
		require.NoError(t, sender.Send(func() { atomic.AddInt64(&executed, 1) }))
	}
	require.NoError(t, sender.Close())

	testutils.RunWithTimeout(t, testutils.DefaultTimeout, func() {
		assert.True(t, w.Join())
	})

	assert.Equal(t, int64(3), atomic.LoadInt64(&executed))
	assert.Equal(t, WorkerStateStopped, w.State())

	kinds := recorder.kinds(7)
	require.NotEmpty(t, kinds)
	assert.Equal(t, types.EventWorkerStarted, kinds[0])
	assert.Equal(t, types.EventWorkerDisconnected, kinds[len(kinds)-1])
	assert.Equal(t, 3, recorder.count(types.EventJobStarted))
	assert.Equal(t, 3, recorder.count(types.EventJobFinished))

	stats := w.Stats()
	assert.Equal(t, int64(3), stats.TotalCompleted)
	assert.Equal(t, int64(0), stats.TotalPanicked)
	assert.True(t, stats.IsStopped())
}

func TestWorker_StateWhileWorking(t *testing.T) {
	sender, receiver := queue.New()
	w := startTestWorker(t, 0, receiver, workerSettings{})

	gate := testutils.NewGate()
	started := make(chan struct{})
	require.NoError(t, sender.Send(func() {
		close(started)
		gate.Wait()
	}))

	<-started
	assert.Equal(t, WorkerStateWorking, w.State())
	assert.True(t, w.Stats().IsActive())

	gate.Open()
	assert.Eventually(t, func() bool {
		return w.State() == WorkerStateIdle
	}, testutils.DefaultTimeout, time.Millisecond)

	require.NoError(t, sender.Close())
	w.Join()
}

func TestWorker_JoinOnlyOnce(t *testing.T) {
	sender, receiver := queue.New()
	w := startTestWorker(t, 0, receiver, workerSettings{})

	require.NoError(t, sender.Close())

	assert.True(t, w.Join())
	assert.False(t, w.Join(), "second join must not wait again")

	select {
	case <-w.Done():
	default:
		t.Fatal("done channel must be closed after join")
	}
}

func TestWorker_PanicTerminatesWorker(t *testing.T) {
	sender, receiver := queue.New()
	recorder := &eventRecorder{}
	w := startTestWorker(t, 2, receiver, workerSettings{observer: recorder})

	var after int64
	require.NoError(t, sender.Send(func() { panic("boom") }))
	require.NoError(t, sender.Send(func() { atomic.AddInt64(&after, 1) }))

	select {
	case <-w.Done():
	case <-time.After(testutils.DefaultTimeout):
		t.Fatal("worker should exit after a job panic")
	}

	assert.Equal(t, WorkerStateStopped, w.State())
	assert.Equal(t, int64(0), atomic.LoadInt64(&after), "job after the panic must not run on a dead worker")
	assert.Equal(t, 1, receiver.Len())

	ev, ok := recorder.first(types.EventJobPanicked)
	require.True(t, ok)
	var panicErr *types.JobPanicError
	require.True(t, errors.As(ev.Err, &panicErr))
	assert.Equal(t, 2, panicErr.WorkerID)
	assert.Equal(t, "boom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)

	exited, ok := recorder.first(types.EventWorkerExited)
	require.True(t, ok)
	assert.True(t, types.IsJobPanic(exited.Err))

	stats := w.Stats()
	assert.Equal(t, int64(1), stats.TotalPanicked)
	assert.Equal(t, 1.0, stats.GetPanicRate())

	require.NoError(t, sender.Close())
	w.Join()
}

func TestWorker_ContinueOnPanic(t *testing.T) {
	sender, receiver := queue.New()
	w := startTestWorker(t, 0, receiver, workerSettings{continueOnPanic: true})

	var after int64
	require.NoError(t, sender.Send(func() { panic(errors.New("boom")) }))
	require.NoError(t, sender.Send(func() { atomic.AddInt64(&after, 1) }))
	require.NoError(t, sender.Close())

	testutils.RunWithTimeout(t, testutils.DefaultTimeout, func() { w.Join() })

	assert.Equal(t, int64(1), atomic.LoadInt64(&after))
	stats := w.Stats()
	assert.Equal(t, int64(1), stats.TotalCompleted)
	assert.Equal(t, int64(1), stats.TotalPanicked)
	assert.Equal(t, 0.5, stats.GetPanicRate())
}

func TestWorker_TimingUsesClock(t *testing.T) {
	clock, mock := testutils.NewTestClock(t)
	sender, receiver := queue.NewWithClock(clock)
	recorder := &eventRecorder{}
	w := startTestWorker(t, 0, receiver, workerSettings{observer: recorder, clock: clock})

	jobStart := mock.Now()
	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, sender.Send(func() {
		close(started)
		<-release
	}))

	<-started
	mock.Advance(250 * time.Millisecond)
	close(release)

	require.NoError(t, sender.Close())
	w.Join()

	ev, ok := recorder.first(types.EventJobFinished)
	require.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, ev.Duration)
	assert.True(t, w.Stats().LastJobTime.Equal(jobStart))
}

func TestWorkerStats_Rates(t *testing.T) {
	stats := WorkerStats{TotalCompleted: 3, TotalPanicked: 1}
	assert.Equal(t, 0.25, stats.GetPanicRate())

	empty := WorkerStats{}
	assert.Equal(t, 0.0, empty.GetPanicRate())
	assert.True(t, empty.IsIdle())
}
