package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTapBlocksRepeatedSubmissions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tap := NewTap(2 * time.Second)
	tap.now = func() time.Time { return now }

	assert.True(t, tap.Allow("user:1:send"))
	assert.False(t, tap.Allow("user:1:send"), "double tap inside the interval")

	// A different action is independent.
	assert.True(t, tap.Allow("user:1:delete"))

	now = now.Add(time.Second)
	assert.False(t, tap.Allow("user:1:send"))

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, tap.Allow("user:1:send"), "interval elapsed")
}

func TestTapDefaultInterval(t *testing.T) {
	tap := NewTap(0)
	assert.Equal(t, DefaultTapInterval, tap.interval)
}
