package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter serializes callers so that at least minInterval elapses between
// granted acquisitions. One instance is shared by everything that talks to
// the rate-limited classification endpoint.
type Limiter struct {
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

func New(minInterval time.Duration) *Limiter {
	return &Limiter{minInterval: minInterval}
}

// Acquire blocks until the interval since the previous grant has elapsed, or
// until ctx is cancelled. Callers holding a grant hold the limiter's lock
// only long enough to record the grant time.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()

	now := time.Now()
	wait := l.minInterval - now.Sub(l.lastCall)
	if wait <= 0 {
		l.lastCall = now
		l.mu.Unlock()
		return nil
	}

	// Reserve the slot before sleeping so concurrent callers queue up
	// behind this grant instead of racing for it.
	l.lastCall = now.Add(wait)
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
