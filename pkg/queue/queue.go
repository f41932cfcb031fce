// Package queue provides the shared FIFO job queue connecting a pool to its workers
package queue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jzx17/threadpool/pkg/types"
)

// entry is a queued job together with its enqueue time
type entry struct {
	job        types.Job
	enqueuedAt time.Time
}

// Stats contains queue statistics
type Stats struct {
	// Enqueued is the total number of accepted jobs
	Enqueued int64

	// Dequeued is the total number of jobs handed to a receiver
	Dequeued int64

	// Length is the number of jobs currently waiting
	Length int

	// AverageWait and MaxWait measure time between Send and Receive
	AverageWait time.Duration
	MaxWait     time.Duration

	// Closed reports whether the sending end has been closed
	Closed bool
}

// queueStats contains internal counters
type queueStats struct {
	totalEnqueued int64
	totalDequeued int64
	totalWaitTime int64 // nanoseconds
	maxWaitTime   int64 // nanoseconds
}

// queue is the state shared by a Sender and its Receiver
type queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	items    []entry
	closed   bool

	// recvMu is held for the whole of a Receive call so that exactly one
	// receiver is dequeuing at any instant
	recvMu sync.Mutex

	stats queueStats
	clock types.Clock
}

// Sender is the producing end of a queue. It is safe for concurrent use by
// any number of submitters.
type Sender struct {
	*queue
}

// Receiver is the consuming end of a queue. A single Receiver is shared by
// all workers of a pool.
type Receiver struct {
	*queue
}

// New creates an unbounded queue and returns its two ends
func New() (*Sender, *Receiver) {
	return NewWithClock(types.NewRealClock())
}

// NewWithClock creates an unbounded queue that measures wait times with clock
func NewWithClock(clock types.Clock) (*Sender, *Receiver) {
	if clock == nil {
		clock = types.NewRealClock()
	}

	q := &queue{
		items: make([]entry, 0, 16),
		clock: clock,
	}
	q.notEmpty = sync.NewCond(&q.mu)

	return &Sender{queue: q}, &Receiver{queue: q}
}

// Send enqueues a job. It never blocks; it fails only after Close.
func (s *Sender) Send(job types.Job) error {
	if job == nil {
		return types.ErrNilJob
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrQueueClosed
	}
	s.items = append(s.items, entry{job: job, enqueuedAt: s.clock.Now()})
	atomic.AddInt64(&s.stats.totalEnqueued, 1)
	s.mu.Unlock()

	s.notEmpty.Signal()
	return nil
}

// Close closes the queue. Jobs already queued are still delivered; once they
// are drained every Receive reports closure. Closing twice returns ErrQueueClosed.
func (s *Sender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrQueueClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.notEmpty.Broadcast()
	return nil
}

// Receive blocks until a job is available or the queue is closed and empty.
// The boolean is false only in the latter case, after which every further
// call returns immediately.
func (r *Receiver) Receive() (types.Job, bool) {
	r.recvMu.Lock()
	defer r.recvMu.Unlock()

	r.mu.Lock()
	for len(r.items) == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	if len(r.items) == 0 {
		r.mu.Unlock()
		return nil, false
	}

	e := r.items[0]
	r.items[0] = entry{}
	r.items = r.items[1:]
	atomic.AddInt64(&r.stats.totalDequeued, 1)
	r.mu.Unlock()

	r.recordWait(e)
	return e.job, true
}

// recordWait updates wait time statistics
func (q *queue) recordWait(e entry) {
	waitTime := int64(q.clock.Since(e.enqueuedAt))
	if waitTime < 0 {
		waitTime = 0
	}
	atomic.AddInt64(&q.stats.totalWaitTime, waitTime)

	for {
		currentMax := atomic.LoadInt64(&q.stats.maxWaitTime)
		if waitTime <= currentMax {
			break
		}
		if atomic.CompareAndSwapInt64(&q.stats.maxWaitTime, currentMax, waitTime) {
			break
		}
	}
}

// Len returns the number of queued jobs
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether the queue has been closed
func (q *queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Stats returns a snapshot of queue statistics
func (q *queue) Stats() Stats {
	q.mu.Lock()
	length := len(q.items)
	closed := q.closed
	q.mu.Unlock()

	stats := Stats{
		Enqueued: atomic.LoadInt64(&q.stats.totalEnqueued),
		Dequeued: atomic.LoadInt64(&q.stats.totalDequeued),
		Length:   length,
		MaxWait:  time.Duration(atomic.LoadInt64(&q.stats.maxWaitTime)),
		Closed:   closed,
	}

	if stats.Dequeued > 0 {
		stats.AverageWait = time.Duration(atomic.LoadInt64(&q.stats.totalWaitTime) / stats.Dequeued)
	}

	return stats
}
