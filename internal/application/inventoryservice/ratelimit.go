package inventoryservice

import (
	"sync"
	"time"
)

// Clock is injected so the throttle can be tested against a fake time
// source.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func NewClock() Clock { return realClock{} }

// RateLimiter enforces the minimum interval between catalog syncs. The
// in-process mark covers back-to-back calls; the persisted last-sync
// timestamp passed to Allow covers process restarts.
type RateLimiter struct {
	mu    sync.Mutex
	min   time.Duration
	last  time.Time
	clock Clock
}

func NewRateLimiter(min time.Duration, clock Clock) *RateLimiter {
	return &RateLimiter{
		min:   min,
		clock: clock,
	}
}

// Allow reports whether a sync may run now, taking the later of the
// in-process mark and the persisted timestamp as the last run. On success
// it records the current time as the new mark.
func (l *RateLimiter) Allow(persisted *time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	last := l.last
	if persisted != nil && persisted.After(last) {
		last = *persisted
	}

	now := l.clock.Now()
	if !last.IsZero() && now.Sub(last) < l.min {
		return false
	}
	l.last = now
	return true
}
