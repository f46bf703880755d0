package godrays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameClock_Tick(t *testing.T) {
	start := time.Unix(100, 0)
	c := NewFrameClock(start)

	c.Tick(start.Add(16 * time.Millisecond))
	assert.Equal(t, 16*time.Millisecond, c.Dt)
	assert.Equal(t, uint64(1), c.Frame)

	c.Advance(34 * time.Millisecond)
	assert.Equal(t, 34*time.Millisecond, c.Dt)
	assert.Equal(t, 50*time.Millisecond, c.Elapsed())
	assert.InDelta(t, 0.05, c.Seconds(), 1e-6)
	assert.Equal(t, uint64(2), c.Frame)
}
