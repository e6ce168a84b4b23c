package engine

import "time"

// Countdown is the one-shot failure timer of a run.
//
// It is created with an already-scaled duration; the speed multiplier is
// never applied per frame. Once expired or stopped it is inert.
type Countdown struct {
	remaining time.Duration
	running   bool
}

// NewCountdown arms a countdown for d.
func NewCountdown(d time.Duration) *Countdown {
	return &Countdown{remaining: d, running: d > 0}
}

// Remaining returns the time left before expiry.
func (c *Countdown) Remaining() time.Duration {
	return c.remaining
}

// Running reports whether the countdown is still armed.
func (c *Countdown) Running() bool {
	return c.running
}

// Advance consumes d of the remaining time.
// Returns true exactly once: on the call that brings remaining to zero.
func (c *Countdown) Advance(d time.Duration) bool {
	if !c.running || d <= 0 {
		return false
	}
	if d >= c.remaining {
		c.remaining = 0
		c.running = false
		return true
	}
	c.remaining -= d
	return false
}

// Stop disarms the countdown without expiring it.
func (c *Countdown) Stop() {
	c.running = false
}
