// Package testutils provides shared helpers for pool and queue tests
package testutils

import (
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DefaultTimeout bounds every blocking wait in tests
const DefaultTimeout = 5 * time.Second

// WaitTimeout waits for wg, failing the test if it does not finish within timeout
func WaitTimeout(t testing.TB, wg *sync.WaitGroup, timeout time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		require.FailNow(t, "timed out waiting for wait group", msgAndArgs...)
	}
}

// RunWithTimeout runs fn in a goroutine and fails the test if it does not return in time
func RunWithTimeout(t testing.TB, timeout time.Duration, fn func(), msgAndArgs ...interface{}) {
	t.Helper()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		require.FailNow(t, "operation did not complete in time", msgAndArgs...)
	}
}

// GoroutineBaseline records the current goroutine count
func GoroutineBaseline() int {
	return runtime.NumGoroutine()
}

// AssertGoroutinesReturnTo waits until the goroutine count drops back to baseline.
// The count is polled on the calling goroutine so the check itself adds none.
func AssertGoroutinesReturnTo(t testing.TB, baseline int, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(DefaultTimeout)
	current := runtime.NumGoroutine()
	for current > baseline {
		if time.Now().After(deadline) {
			assert.Fail(t, fmt.Sprintf("goroutine count %d did not return to baseline %d", current, baseline), msgAndArgs...)
			return
		}
		time.Sleep(10 * time.Millisecond)
		current = runtime.NumGoroutine()
	}
}

// Gate is a one-shot barrier that tests use to hold jobs until released
type Gate struct {
	ch   chan struct{}
	once sync.Once
}

// NewGate creates a closed-by-default gate
func NewGate() *Gate {
	return &Gate{ch: make(chan struct{})}
}

// Wait blocks until Open is called
func (g *Gate) Wait() {
	<-g.ch
}

// Open releases every current and future waiter
func (g *Gate) Open() {
	g.once.Do(func() { close(g.ch) })
}
