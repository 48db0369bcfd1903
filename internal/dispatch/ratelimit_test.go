package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterCapsWindow(t *testing.T) {
	l := NewRateLimiter(3)
	now := time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now.Add(1*time.Second)))
	assert.True(t, l.Allow(now.Add(2*time.Second)))
	assert.False(t, l.Allow(now.Add(3*time.Second)))
	assert.False(t, l.Allow(now.Add(59*time.Second)))
}

func TestRateLimiterSlidesForward(t *testing.T) {
	l := NewRateLimiter(2)
	now := time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Allow(now))
	assert.True(t, l.Allow(now.Add(30*time.Second)))
	assert.False(t, l.Allow(now.Add(45*time.Second)))

	// first grant has left the window, second has not
	assert.True(t, l.Allow(now.Add(61*time.Second)))
	assert.False(t, l.Allow(now.Add(70*time.Second)))
}

// No 60-second span may ever contain more grants than the limit, wherever
// the window starts.
func TestRateLimiterHardBoundAtAnyOffset(t *testing.T) {
	const limit = 5
	l := NewRateLimiter(limit)
	start := time.Date(2025, 11, 10, 10, 0, 0, 0, time.UTC)

	var granted []time.Time
	for i := 0; i < 600; i++ {
		at := start.Add(time.Duration(i) * time.Second)
		if l.Allow(at) {
			granted = append(granted, at)
		}
	}

	for _, from := range granted {
		count := 0
		for _, ts := range granted {
			if !ts.Before(from) && ts.Before(from.Add(time.Minute)) {
				count++
			}
		}
		assert.LessOrEqual(t, count, limit)
	}
}

func TestRateLimiterZeroLimitDisablesCap(t *testing.T) {
	l := NewRateLimiter(0)
	now := time.Now()

	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow(now))
	}
}
