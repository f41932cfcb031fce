package worker

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/jzx17/threadpool/pkg/queue"
	"github.com/jzx17/threadpool/pkg/types"
)

// Config defines configuration for a worker pool
type Config struct {
	// Size is the number of workers; it must be positive
	Size int

	// Observer receives worker lifecycle events (optional)
	Observer types.Observer

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	// ContinueOnPanic keeps a worker alive after one of its jobs panicked.
	// By default the worker terminates and is not replaced.
	ContinueOnPanic bool
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Size:     4,
		Observer: types.NopObserver{},
		Clock:    types.NewRealClock(),
	}
}

// Option configures a pool created with New
type Option func(*Config)

// WithObserver sets the lifecycle observer
func WithObserver(observer types.Observer) Option {
	return func(c *Config) {
		c.Observer = observer
	}
}

// WithClock sets the clock used for job timing
func WithClock(clock types.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithContinueOnPanic keeps workers running after a job panics
func WithContinueOnPanic(enabled bool) Option {
	return func(c *Config) {
		c.ContinueOnPanic = enabled
	}
}

// Pool is a fixed-size set of workers sharing one job queue
type Pool struct {
	config  Config
	workers []*Worker
	sender  *queue.Sender

	closed    int32
	closeOnce sync.Once
}

// New creates a pool of size workers. It panics with a *types.PreconditionError
// if size is not positive. When New returns, every worker is running and
// waiting for jobs.
func New(size int, opts ...Option) *Pool {
	config := DefaultConfig()
	config.Size = size
	for _, opt := range opts {
		opt(config)
	}
	return NewWithConfig(config)
}

// NewWithConfig creates a pool from config; a nil config uses DefaultConfig.
// It panics with a *types.PreconditionError if config.Size is not positive.
func NewWithConfig(config *Config) *Pool {
	if config == nil {
		config = DefaultConfig()
	}

	if config.Size <= 0 {
		panic(types.NewPreconditionError("worker.New", types.ErrInvalidPoolSize).
			WithContext("size", config.Size))
	}

	cfg := *config
	if cfg.Clock == nil {
		cfg.Clock = types.NewRealClock()
	}
	if cfg.Observer == nil {
		cfg.Observer = types.NopObserver{}
	}

	sender, receiver := queue.NewWithClock(cfg.Clock)
	settings := workerSettings{
		observer:        cfg.Observer,
		clock:           cfg.Clock,
		continueOnPanic: cfg.ContinueOnPanic,
	}

	pool := &Pool{
		config:  cfg,
		workers: make([]*Worker, cfg.Size),
		sender:  sender,
	}

	readies := make([]chan struct{}, cfg.Size)
	for i := 0; i < cfg.Size; i++ {
		readies[i] = make(chan struct{})
		pool.workers[i] = newWorker(i, receiver, settings, readies[i])
	}
	for _, ready := range readies {
		<-ready
	}

	// Workers only reference the receiver, so a pool dropped without Close
	// becomes unreachable and is torn down here.
	runtime.SetFinalizer(pool, func(p *Pool) {
		go p.Close()
	})

	return pool
}

// Submit enqueues job for execution by exactly one worker. It never blocks.
// Submitting a nil job or submitting after Close is a programming error and panics.
func (p *Pool) Submit(job types.Job) {
	if err := p.TrySubmit(job); err != nil {
		panic(err)
	}
}

// TrySubmit is like Submit but returns ErrPoolClosed or ErrNilJob instead of panicking
func (p *Pool) TrySubmit(job types.Job) error {
	if job == nil {
		return types.ErrNilJob
	}

	if err := p.sender.Send(job); err != nil {
		if errors.Is(err, types.ErrQueueClosed) {
			return types.ErrPoolClosed
		}
		return err
	}
	return nil
}

// Close closes the queue and then waits, in construction order, for every
// worker to finish the jobs already queued and exit. Calling Close again
// returns ErrPoolClosed. Close must not be called from inside a job.
func (p *Pool) Close() error {
	err := types.ErrPoolClosed

	p.closeOnce.Do(func() {
		runtime.SetFinalizer(p, nil)
		atomic.StoreInt32(&p.closed, 1)

		// closing first guarantees every Receive eventually observes closure
		_ = p.sender.Close()

		for _, w := range p.workers {
			p.config.Observer.OnEvent(types.Event{
				Kind:     types.EventWorkerShutdown,
				WorkerID: w.ID(),
				Time:     p.config.Clock.Now(),
			})
			w.Join()
		}
		err = nil
	})

	return err
}

// Size returns the worker pool size
func (p *Pool) Size() int {
	return p.config.Size
}

// IsClosed checks if Close has been called
func (p *Pool) IsClosed() bool {
	return atomic.LoadInt32(&p.closed) == 1
}

// Stats gets basic worker pool statistics
func (p *Pool) Stats() types.PoolStats {
	stats := types.PoolStats{
		PoolSize: p.config.Size,
		Closed:   p.IsClosed(),
	}

	for _, w := range p.workers {
		ws := w.Stats()
		switch ws.State {
		case WorkerStateWorking:
			stats.LiveWorkers++
			stats.BusyWorkers++
		case WorkerStateIdle:
			stats.LiveWorkers++
		}
		stats.Completed += ws.TotalCompleted
		stats.Panicked += ws.TotalPanicked
	}

	qs := p.sender.Stats()
	stats.QueuedJobs = qs.Length
	stats.Submitted = qs.Enqueued

	return stats
}

// QueueStats gets statistics of the shared queue
func (p *Pool) QueueStats() queue.Stats {
	return p.sender.Stats()
}

// GetWorkerStats gets statistics of all Workers in construction order
func (p *Pool) GetWorkerStats() []WorkerStats {
	stats := make([]WorkerStats, len(p.workers))
	for i, w := range p.workers {
		stats[i] = w.Stats()
	}
	return stats
}

var _ types.WorkerPool = (*Pool)(nil)
