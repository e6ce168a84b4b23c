package ir

import (
	"fmt"
	"strings"
)

// Category groups instructions for the editor palette.
type Category int

const (
	// Movement instructions change the actor's position.
	Movement Category = iota + 1
	// Control instructions alter program flow.
	Control
	// Scanning instructions react to the actor's surroundings.
	Scanning
)

// Categories lists every category in display order.
var Categories = []Category{Movement, Control, Scanning}

// String returns the category name.
func (c Category) String() string {
	switch c {
	case Movement:
		return "Movement"
	case Control:
		return "Control"
	case Scanning:
		return "Scanning"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Instruction is one step of a player-authored program.
//
// The set is closed. Adding a variant means updating Category, String,
// ParseInstruction and Apply together; each has an exhaustive switch that
// panics on an unknown value.
type Instruction int

const (
	// MoveForward advances the actor one cell along its facing.
	MoveForward Instruction = iota + 1

	// IfGapTurnLeft rotates the actor 90° counter-clockwise.
	//
	// NOTE: the name promises a gap check ahead of the actor, but the
	// shipped behaviour turns unconditionally. Kept literal until the
	// intended detection rule is decided.
	IfGapTurnLeft
)

// Instructions lists every instruction in declaration order.
var Instructions = []Instruction{MoveForward, IfGapTurnLeft}

// Category returns the instruction's category.
func (i Instruction) Category() Category {
	switch i {
	case MoveForward:
		return Movement
	case IfGapTurnLeft:
		return Scanning
	default:
		panic(fmt.Sprintf("ir: unknown instruction %d", int(i)))
	}
}

// String returns the instruction name as used in configs and scenarios.
func (i Instruction) String() string {
	switch i {
	case MoveForward:
		return "MoveForward"
	case IfGapTurnLeft:
		return "IfGapTurnLeft"
	default:
		return fmt.Sprintf("Instruction(%d)", int(i))
	}
}

// Valid reports whether i is a declared instruction.
func (i Instruction) Valid() bool {
	return i >= MoveForward && i <= IfGapTurnLeft
}

// Apply returns the actor after executing i.
//
// Effects are total: every valid instruction produces a new actor and
// never fails.
func (i Instruction) Apply(a Actor) Actor {
	switch i {
	case MoveForward:
		a.Pos = a.Pos.Add(a.Facing)
	case IfGapTurnLeft:
		a.Facing = a.Facing.Left()
	default:
		panic(fmt.Sprintf("ir: apply unknown instruction %d", int(i)))
	}
	return a
}

// ParseInstruction resolves an instruction by name (case-insensitive).
func ParseInstruction(name string) (Instruction, error) {
	for _, inst := range Instructions {
		if strings.EqualFold(inst.String(), strings.TrimSpace(name)) {
			return inst, nil
		}
	}
	return 0, fmt.Errorf("unknown instruction %q", name)
}

// ParseProgram parses a comma-separated list of instruction names.
// An empty string yields an empty list.
func ParseProgram(s string) ([]Instruction, error) {
	if strings.TrimSpace(s) == "" {
		return []Instruction{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]Instruction, 0, len(parts))
	for i, p := range parts {
		inst, err := ParseInstruction(p)
		if err != nil {
			return nil, fmt.Errorf("program[%d]: %w", i, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// MarshalText implements encoding.TextMarshaler.
func (i Instruction) MarshalText() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("marshal unknown instruction %d", int(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Instruction) UnmarshalText(text []byte) error {
	inst, err := ParseInstruction(string(text))
	if err != nil {
		return err
	}
	*i = inst
	return nil
}
