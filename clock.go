package godrays

import (
	"time"
)

// FrameClock tracks wall time across frames. It drives the noise animation.
type FrameClock struct {
	Start time.Time
	Time  time.Time
	Dt    time.Duration
	Frame uint64
}

func NewFrameClock(now time.Time) *FrameClock {
	return &FrameClock{
		Start: now,
		Time:  now,
		Dt:    0,
	}
}

// Tick advances the clock to now.
func (c *FrameClock) Tick(now time.Time) {
	c.Dt = now.Sub(c.Time)
	c.Time = now
	c.Frame++
}

// Advance moves the clock by a fixed step, for offline rendering.
func (c *FrameClock) Advance(dt time.Duration) {
	c.Tick(c.Time.Add(dt))
}

func (c *FrameClock) Elapsed() time.Duration {
	return c.Time.Sub(c.Start)
}

// Seconds returns the elapsed time in seconds.
func (c *FrameClock) Seconds() float32 {
	return float32(c.Elapsed().Seconds())
}
