package engine

import (
	"sync"
	"time"
)

// DefaultFrame is the frame length used when none is given, about 60 fps.
const DefaultFrame = 16 * time.Millisecond

// FrameClock hands out simulated frame deltas of a fixed length.
//
// Headless runs and scenarios drive Frame with it instead of a wall
// clock, so the same input always splits into the same frames.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FrameClock struct {
	mu      sync.Mutex
	step    time.Duration
	elapsed time.Duration
	frames  int64
}

// NewFrameClock creates a clock with frames of length step.
// A non-positive step falls back to DefaultFrame.
func NewFrameClock(step time.Duration) *FrameClock {
	if step <= 0 {
		step = DefaultFrame
	}
	return &FrameClock{step: step}
}

// Step returns the frame length.
func (c *FrameClock) Step() time.Duration {
	return c.step
}

// Split breaks d into frame deltas: whole frames followed by the remainder.
//
// A zero or negative d yields a single zero-length frame so that queued
// commands still get processed.
func (c *FrameClock) Split(d time.Duration) []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d <= 0 {
		c.frames++
		return []time.Duration{0}
	}
	out := make([]time.Duration, 0, int(d/c.step)+1)
	for d >= c.step {
		out = append(out, c.step)
		d -= c.step
	}
	if d > 0 {
		out = append(out, d)
	}
	for _, f := range out {
		c.elapsed += f
	}
	c.frames += int64(len(out))
	return out
}

// Elapsed returns the simulated time handed out so far.
func (c *FrameClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed
}

// Frames returns how many frames have been handed out.
func (c *FrameClock) Frames() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Reset rewinds the clock to zero.
func (c *FrameClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.elapsed = 0
	c.frames = 0
}
