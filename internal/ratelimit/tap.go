package ratelimit

import (
	"sync"
	"time"
)

// DefaultTapInterval is the minimum spacing between repeated
// submissions of the same action by the same actor.
const DefaultTapInterval = 2 * time.Second

// Tap is an in-process duplicate-submission guard: a second identical
// action inside the interval is rejected. This is deliberately local
// state; it guards double-taps, not distributed abuse.
type Tap struct {
	mu       sync.Mutex
	interval time.Duration
	now      func() time.Time
	last     map[string]time.Time
}

func NewTap(interval time.Duration) *Tap {
	if interval <= 0 {
		interval = DefaultTapInterval
	}
	return &Tap{
		interval: interval,
		now:      time.Now,
		last:     map[string]time.Time{},
	}
}

// Allow records the attempt and reports whether it may proceed.
func (t *Tap) Allow(key string) bool {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.last[key]; ok && now.Sub(prev) < t.interval {
		return false
	}
	t.last[key] = now

	// Opportunistic cleanup keeps the map bounded without a ticker.
	if len(t.last) > 4096 {
		for k, v := range t.last {
			if now.Sub(v) >= t.interval {
				delete(t.last, k)
			}
		}
	}
	return true
}
