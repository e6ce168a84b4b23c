package engine

import "sync/atomic"

// Clock is the logical clock that stamps signals.
//
// Every signal gets a strictly increasing seq. Ordering never depends on
// wall time, so a replayed journal produces the same numbering.
//
// Clock is safe for concurrent use, although only the frame goroutine
// calls Next.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
