/*
Package worker provides a bounded worker pool: a fixed number of long-lived worker
goroutines pulling fire-and-forget jobs from one shared queue, with deterministic,
leak-free shutdown.

# Overview

A Pool is created with a fixed size and never grows or shrinks. Each Worker holds a
stable id (0..size-1, construction order) and loops on the shared queue receiver:

  - idle: blocked in Receive, the only suspension point
  - working: executing a job synchronously
  - stopped: the queue reported closure, or a job panicked

Jobs are plain func() values. There is no result channel, no priority and no
cancellation of a job that has been claimed.

# Core Components

## Pool

  - New / NewWithConfig: start exactly Size workers; a non-positive size panics
  - Submit: enqueue without blocking; panics after Close
  - TrySubmit: same, returning ErrPoolClosed instead of panicking
  - Close: close the queue, then join each worker in construction order

## Worker

  - Receive loop over the shared queue
  - Panic capture at the job boundary, reported as an EventJobPanicked
  - Join: waits for the goroutine exactly once

# Shutdown

Close is a two-phase protocol. The queue is closed first so every blocked Receive
eventually observes closure once the already queued jobs are drained; only then are the
workers joined, one by one. Jobs queued before Close still run.

A Pool that becomes unreachable without Close is closed by a finalizer. Relying on
this is discouraged; call Close, usually with defer.

# Job Panics

By default a job panic terminates the worker that ran it and the worker is not replaced,
so the pool loses one unit of capacity for the rest of its life. The panic is reported to
the Observer as an EventJobPanicked followed by an EventWorkerExited. Setting
Config.ContinueOnPanic keeps the worker looping instead.

# Usage Examples

Basic usage:

	pool := worker.New(4, worker.WithObserver(observer.NewLogObserver(slog.Default())))
	defer pool.Close()

	var wg sync.WaitGroup
	for _, conn := range conns {
		conn := conn
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			handle(conn)
		})
	}
	wg.Wait()

Retrieve statistics:

	stats := pool.Stats()
	fmt.Printf("Busy Workers: %d/%d\n", stats.BusyWorkers, stats.PoolSize)
	fmt.Printf("Completed: %d, Panicked: %d\n", stats.Completed, stats.Panicked)
*/
package worker
