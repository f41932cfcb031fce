package types

import (
	"testing"
	"time"
)

func TestEventKind_String(t *testing.T) {
	tests := []struct {
		kind     EventKind
		expected string
	}{
		{EventWorkerStarted, "worker_started"},
		{EventJobStarted, "job_started"},
		{EventJobFinished, "job_finished"},
		{EventJobPanicked, "job_panicked"},
		{EventWorkerDisconnected, "worker_disconnected"},
		{EventWorkerShutdown, "worker_shutdown"},
		{EventWorkerExited, "worker_exited"},
		{EventKind(999), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := tt.kind.String()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestMultiObserver(t *testing.T) {
	var first, second []EventKind

	observer := MultiObserver{
		ObserverFunc(func(ev Event) { first = append(first, ev.Kind) }),
		nil,
		ObserverFunc(func(ev Event) { second = append(second, ev.Kind) }),
	}

	observer.OnEvent(Event{Kind: EventJobStarted, WorkerID: 1})
	observer.OnEvent(Event{Kind: EventJobFinished, WorkerID: 1, Duration: time.Millisecond})

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected both observers to receive 2 events, got %d and %d", len(first), len(second))
	}

	if first[0] != EventJobStarted || second[1] != EventJobFinished {
		t.Errorf("expected events in emission order, got %v and %v", first, second)
	}

	// must not panic
	NopObserver{}.OnEvent(Event{Kind: EventWorkerStarted})
}

func TestPoolStats(t *testing.T) {
	t.Run("Pending", func(t *testing.T) {
		stats := PoolStats{Submitted: 10, Completed: 6, Panicked: 1}
		if stats.Pending() != 3 {
			t.Errorf("expected 3 pending jobs, got %d", stats.Pending())
		}
	})

	t.Run("LostWorkers While Running", func(t *testing.T) {
		stats := PoolStats{PoolSize: 4, LiveWorkers: 3}
		if stats.LostWorkers() != 1 {
			t.Errorf("expected 1 lost worker, got %d", stats.LostWorkers())
		}
	})

	t.Run("LostWorkers After Close", func(t *testing.T) {
		stats := PoolStats{PoolSize: 4, LiveWorkers: 0, Closed: true}
		if stats.LostWorkers() != 0 {
			t.Errorf("expected no lost workers after close, got %d", stats.LostWorkers())
		}
	})
}
