package testutils

import (
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/threadpool/pkg/types"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// ClockWrapper wraps quartz.Mock to implement our Clock interface
type ClockWrapper struct {
	*quartz.Mock
}

// NewClockWrapper creates a new ClockWrapper
func NewClockWrapper(mock *quartz.Mock) *ClockWrapper {
	return &ClockWrapper{Mock: mock}
}

// Now returns the current mock time
func (c *ClockWrapper) Now() time.Time {
	return c.Mock.Now()
}

// Since returns the mock time elapsed since t
func (c *ClockWrapper) Since(t time.Time) time.Duration {
	return c.Mock.Since(t)
}

// NewTimer creates a new Timer that fires when the mock is advanced past d
func (c *ClockWrapper) NewTimer(d time.Duration) types.Timer {
	return &TimerWrapper{timer: c.Mock.NewTimer(d)}
}

// TimerWrapper wraps quartz timer
type TimerWrapper struct {
	timer *quartz.Timer
}

// C returns the channel the mock timer fires on
func (t *TimerWrapper) C() <-chan time.Time {
	return t.timer.C
}

// Stop prevents the mock timer from firing
func (t *TimerWrapper) Stop() bool {
	return t.timer.Stop()
}

// NewTestClock returns a mock-backed types.Clock together with the mock that drives it
func NewTestClock(t testing.TB) (types.Clock, *quartz.Mock) {
	mock := NewMockClock(t)
	return NewClockWrapper(mock), mock
}
