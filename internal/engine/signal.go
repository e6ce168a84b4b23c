package engine

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

// SignalType identifies an outbound signal.
type SignalType int

const (
	SignalTickExecuted SignalType = iota + 1
	SignalRunCompleted
	SignalUpgradePurchased
	SignalWalletChanged
	SignalUnlockSetChanged
	SignalRunStarted
	SignalRunCancelled
	SignalPhaseChanged
	SignalScreenChanged
	SignalProgramChanged
	SignalParamsChanged
	SignalUpgradesRevealed
	SignalCommandRejected
)

var signalNames = map[SignalType]string{
	SignalTickExecuted:     "tick_executed",
	SignalRunCompleted:     "run_completed",
	SignalUpgradePurchased: "upgrade_purchased",
	SignalWalletChanged:    "wallet_changed",
	SignalUnlockSetChanged: "unlock_set_changed",
	SignalRunStarted:       "run_started",
	SignalRunCancelled:     "run_cancelled",
	SignalPhaseChanged:     "phase_changed",
	SignalScreenChanged:    "screen_changed",
	SignalProgramChanged:   "program_changed",
	SignalParamsChanged:    "params_changed",
	SignalUpgradesRevealed: "upgrades_revealed",
	SignalCommandRejected:  "command_rejected",
}

func (t SignalType) String() string {
	if name, ok := signalNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SignalType(%d)", int(t))
}

// ParseSignalType resolves a signal name such as "tick_executed".
func ParseSignalType(name string) (SignalType, error) {
	for t, n := range signalNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}

// Outcome is how a run ended.
type Outcome int

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reason distinguishes the two ways a run reaches Buying on its own.
type Reason int

const (
	ReasonProgramComplete Reason = iota + 1
	ReasonBombExploded
)

func (r Reason) String() string {
	switch r {
	case ReasonProgramComplete:
		return "program_complete"
	case ReasonBombExploded:
		return "bomb_exploded"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Signal is an outbound notification produced while processing a frame.
//
// Seq comes from the engine's logical clock and is strictly increasing.
// At is the simulated engine time the signal belongs to, which for run
// events is the exact tick or expiry instant, not the frame boundary.
// Only the fields relevant to Type are set.
type Signal struct {
	Seq   int64
	Frame int64
	At    time.Duration
	Type  SignalType
	RunID string

	PC          int
	Instruction ir.Instruction
	Actor       ir.Actor
	Ticks       int
	Outcome     Outcome
	Reason      Reason

	Node  int
	Kind  upgrade.Kind
	Nodes []int

	Balance      int64
	Phase        Phase
	Screen       Screen
	Length       int
	Capacity     int
	TickInterval time.Duration
	Bomb         time.Duration
	ProgramHash  string
	Multiplier   float64
	Unlocked     []ir.Instruction

	Command CommandType
	Code    ir.RejectionCode
	Message string
}

// Fields returns the signal as a canonical-JSON-ready map.
//
// Frame is left out: frame boundaries do not change run outcomes, so
// journals may merge idle frames without changing the signal stream.
func (s Signal) Fields() map[string]any {
	m := map[string]any{
		"seq":  s.Seq,
		"at":   s.At.String(),
		"type": s.Type.String(),
	}
	if s.RunID != "" {
		m["run_id"] = s.RunID
	}
	switch s.Type {
	case SignalTickExecuted:
		m["pc"] = s.PC
		m["instruction"] = s.Instruction.String()
		m["actor"] = s.Actor.String()
	case SignalRunCompleted:
		m["outcome"] = s.Outcome.String()
		m["reason"] = s.Reason.String()
		m["ticks"] = s.Ticks
		m["pc"] = s.PC
		m["actor"] = s.Actor.String()
	case SignalRunCancelled:
		m["ticks"] = s.Ticks
		m["pc"] = s.PC
	case SignalRunStarted:
		m["length"] = s.Length
		m["tick_interval"] = s.TickInterval.String()
		m["bomb"] = s.Bomb.String()
		m["program_hash"] = s.ProgramHash
	case SignalUpgradePurchased:
		m["node"] = s.Node
		m["kind"] = s.Kind.String()
	case SignalUpgradesRevealed:
		nodes := make([]any, len(s.Nodes))
		for i, n := range s.Nodes {
			nodes[i] = n
		}
		m["nodes"] = nodes
	case SignalWalletChanged:
		m["balance"] = s.Balance
	case SignalUnlockSetChanged:
		names := make([]string, len(s.Unlocked))
		for i, inst := range s.Unlocked {
			names[i] = inst.String()
		}
		m["unlocked"] = names
	case SignalPhaseChanged:
		m["phase"] = s.Phase.String()
	case SignalScreenChanged:
		m["screen"] = s.Screen.String()
	case SignalProgramChanged:
		m["length"] = s.Length
		m["capacity"] = s.Capacity
	case SignalParamsChanged:
		m["tick_interval"] = s.TickInterval.String()
		m["multiplier"] = strconv.FormatFloat(s.Multiplier, 'g', -1, 64)
	case SignalCommandRejected:
		m["command"] = s.Command.String()
		m["code"] = string(s.Code)
		m["message"] = s.Message
	}
	return m
}

// Encode returns the canonical JSON form of s.
func (s Signal) Encode() (string, error) {
	data, err := ir.MarshalCanonical(s.Fields())
	if err != nil {
		return "", fmt.Errorf("encode signal %d: %w", s.Seq, err)
	}
	return string(data), nil
}

// String renders the signal on one line, fields sorted by name.
func (s Signal) String() string {
	fields := s.Fields()
	delete(fields, "seq")
	delete(fields, "type")
	delete(fields, "at")
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s", s.Seq, s.At, s.Type)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}
