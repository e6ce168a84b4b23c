package upgrade

import (
	"fmt"
	"log/slog"

	"github.com/roach88/tickbot/internal/ir"
)

// Target is the session state an upgrade effect may change.
type Target struct {
	Params  *ir.Params
	Program *ir.Program
	Unlocks *ir.UnlockSet
}

// Effect reports what Apply changed.
type Effect struct {
	ParamsChanged  bool
	ProgramChanged bool
	UnlocksChanged bool
}

// Apply runs the effect of a bought upgrade of kind k on t.
//
// Each node can only be bought once, so applying once per purchase is
// enough to keep effects from stacking by accident.
func Apply(k Kind, t Target) Effect {
	var eff Effect
	switch k {
	case SpeedBoost:
		t.Params.HalveTick()
		eff.ParamsChanged = true
		slog.Info("applied speed upgrade", "tick_interval", t.Params.TickInterval)
	case MultiplierBoost:
		t.Params.DoubleMultiplier()
		eff.ParamsChanged = true
		slog.Info("applied multiplier upgrade", "multiplier", t.Params.SpeedMultiplier)
	case CapacityBoost:
		t.Program.Grow(2)
		eff.ProgramChanged = true
		slog.Info("applied capacity upgrade", "capacity", t.Program.Capacity())
	case UnlockConditional:
		eff.UnlocksChanged = t.Unlocks.UnlockAs(ir.Scanning, ir.IfGapTurnLeft)
		slog.Info("applied unlock upgrade", "instruction", ir.IfGapTurnLeft.String())
	default:
		panic(fmt.Sprintf("upgrade: apply unknown kind %d", int(k)))
	}
	return eff
}
