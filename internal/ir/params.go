package ir

import (
	"fmt"
	"math"
	"time"
)

// Params are the interpreter's execution parameters.
//
// The effective tick period is TickInterval × SpeedMultiplier. The same
// multiplier scales the countdown once, at run start.
//
// INVARIANT: both fields strictly positive.
type Params struct {
	TickInterval    time.Duration `json:"tick_interval"`
	SpeedMultiplier float64       `json:"speed_multiplier"`
}

// Validate checks the positivity invariant.
func (p Params) Validate() error {
	if p.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %s", p.TickInterval)
	}
	if !(p.SpeedMultiplier > 0) {
		return fmt.Errorf("speed multiplier must be positive, got %v", p.SpeedMultiplier)
	}
	return nil
}

// TickPeriod returns the scaled interval between ticks.
func (p Params) TickPeriod() time.Duration {
	return p.Scale(p.TickInterval)
}

// Scale applies the speed multiplier to d.
// Never returns less than one nanosecond for a positive d, and saturates
// at the largest Duration instead of wrapping.
func (p Params) Scale(d time.Duration) time.Duration {
	product := float64(d) * p.SpeedMultiplier
	if product >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	scaled := time.Duration(product)
	if d > 0 && scaled <= 0 {
		scaled = 1
	}
	return scaled
}

// HalveTick halves the tick interval, keeping it at least one nanosecond.
func (p *Params) HalveTick() {
	if p.TickInterval > 1 {
		p.TickInterval /= 2
	}
}

// DoubleMultiplier doubles the speed multiplier.
func (p *Params) DoubleMultiplier() {
	p.SpeedMultiplier *= 2
}
