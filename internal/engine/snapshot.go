package engine

import (
	"time"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

// Snapshot is a read-only view of engine state for presentation code.
// Everything in it is a copy.
type Snapshot struct {
	Now    time.Duration `json:"now"`
	Screen string        `json:"screen"`

	// Session fields are zero outside Playing and Paused.
	Phase      string                      `json:"phase,omitempty"`
	Controls   Controls                    `json:"controls"`
	Balance    int64                       `json:"balance"`
	Program    []ir.Instruction            `json:"program"`
	Capacity   int                         `json:"capacity"`
	Unlocks    map[string][]ir.Instruction `json:"unlocks,omitempty"`
	Params     ir.Params                   `json:"params"`
	TickPeriod time.Duration               `json:"tick_period"`
	Actor      ir.Actor                    `json:"actor"`
	Offers     []upgrade.Offer             `json:"offers"`

	// Run fields are zero while buying.
	RunID         string        `json:"run_id,omitempty"`
	PC            int           `json:"pc"`
	BombRemaining time.Duration `json:"bomb_remaining"`
	NextTickIn    time.Duration `json:"next_tick_in"`
}

// HasSession reports whether the snapshot was taken with a session open.
func (s Snapshot) HasSession() bool {
	return s.Phase != ""
}

// Snapshot captures the current state. Call from the frame goroutine.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{Now: e.now, Screen: e.screen.String()}
	s := e.session
	if s == nil {
		return snap
	}

	snap.Phase = s.phase.String()
	snap.Controls = s.controls
	snap.Balance = s.Wallet.Balance()
	snap.Program = s.Program.Instructions()
	snap.Capacity = s.Program.Capacity()
	snap.Params = s.Params
	snap.TickPeriod = s.Params.TickPeriod()
	snap.Actor = s.Actor
	snap.Offers = s.Graph.Offers(s.Wallet.Balance())

	snap.Unlocks = make(map[string][]ir.Instruction)
	for _, cat := range ir.Categories {
		if insts := s.Unlocks.InCategory(cat); len(insts) > 0 {
			snap.Unlocks[cat.String()] = insts
		}
	}

	if r := e.run; r != nil {
		snap.RunID = r.id
		snap.PC = r.interp.PC()
		snap.BombRemaining = r.countdown.Remaining()
		snap.NextTickIn = r.ticks.Until(r.elapsed)
	}
	return snap
}
