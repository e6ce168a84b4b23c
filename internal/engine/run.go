package engine

import (
	"math"
	"time"

	"github.com/roach88/tickbot/internal/ir"
)

// TickScheduler emits ticks at a fixed period measured from run start.
type TickScheduler struct {
	period time.Duration
	next   time.Duration
}

// NewTickScheduler creates a scheduler whose first due tick is one period
// after run start. Tick 0 is fired by the run start itself.
func NewTickScheduler(period time.Duration) *TickScheduler {
	if period <= 0 {
		period = 1
	}
	return &TickScheduler{period: period, next: period}
}

// Period returns the scaled tick period.
func (t *TickScheduler) Period() time.Duration {
	return t.period
}

// Until returns the time from elapsed to the next due tick.
func (t *TickScheduler) Until(elapsed time.Duration) time.Duration {
	if t.next <= elapsed {
		return 0
	}
	return t.next - elapsed
}

// Fire marks the due tick as emitted and schedules the next one.
// The schedule saturates at the largest Duration.
func (t *TickScheduler) Fire() {
	if t.next > math.MaxInt64-t.period {
		t.next = math.MaxInt64
		return
	}
	t.next += t.period
}

// run holds the state scoped to one Running phase. It is discarded on
// every return to Buying.
type run struct {
	id          string
	programHash string
	elapsed     time.Duration
	countdown   *Countdown
	ticks       *TickScheduler
	interp      *Interpreter
	executed    int
}

func newRun(id string, params ir.Params, bomb time.Duration, program *ir.Program) *run {
	return &run{
		id:          id,
		programHash: ir.ProgramHash(program.Instructions(), program.Capacity()),
		countdown:   NewCountdown(params.Scale(bomb)),
		ticks:       NewTickScheduler(params.TickPeriod()),
		interp:      NewInterpreter(program.Instructions()),
	}
}
