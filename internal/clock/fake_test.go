package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFakeClock(t *testing.T) {
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clk := NewFakeClock(start)
	require.Equal(t, start, clk.Now())

	clk.Advance(48 * time.Hour)
	require.Equal(t, start.Add(48*time.Hour), clk.Now())

	jump := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clk.Set(jump)
	require.Equal(t, jump, clk.Now())
}
