package dispatch

import (
	"sync"
	"time"
)

// RateLimiter caps how many sends may happen inside any trailing window.
// It keeps the timestamps of recent grants, so the bound holds for every
// window position, not just aligned minutes.
type RateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	grants []time.Time
}

// NewRateLimiter builds a limiter allowing limit sends per minute. A zero
// or negative limit disables the cap.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{limit: limit, window: time.Minute}
}

// Allow reports whether a send may proceed at the given instant and, when
// it may, consumes a slot.
func (l *RateLimiter) Allow(now time.Time) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.grants[:0]
	for _, ts := range l.grants {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.grants = kept

	if len(l.grants) >= l.limit {
		return false
	}

	l.grants = append(l.grants, now)
	return true
}
