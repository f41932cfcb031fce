package server

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jzx17/threadpool/pkg/types"
)

const (
	acceptInitialDelay = 5 * time.Millisecond
	acceptMaxDelay     = time.Second
)

// acceptBackoff spaces out retries after temporary Accept failures such as
// running out of file descriptors.
type acceptBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
	attempt      int
}

func newAcceptBackoff() *acceptBackoff {
	return &acceptBackoff{
		initialDelay: acceptInitialDelay,
		multiplier:   2.0,
		maxDelay:     acceptMaxDelay,
	}
}

// NextDelay returns the delay before the next attempt and advances the attempt count
func (b *acceptBackoff) NextDelay() time.Duration {
	b.attempt++
	delay := time.Duration(float64(b.initialDelay) * math.Pow(b.multiplier, float64(b.attempt-1)))
	if delay > b.maxDelay || delay <= 0 {
		delay = b.maxDelay
	}
	return delay
}

// Reset is called after a successful Accept
func (b *acceptBackoff) Reset() {
	b.attempt = 0
}

// Wait sleeps for the next delay on clock; it returns false if ctx ends first
func (b *acceptBackoff) Wait(ctx context.Context, clock types.Clock) bool {
	timer := clock.NewTimer(b.NextDelay())
	defer timer.Stop()

	select {
	case <-timer.C():
		return true
	case <-ctx.Done():
		return false
	}
}

// isTemporary reports whether err is worth retrying Accept for
func isTemporary(err error) bool {
	var te interface{ Temporary() bool }
	return errors.As(err, &te) && te.Temporary()
}
