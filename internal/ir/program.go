package ir

import (
	"fmt"
	"math"
	"strings"
)

// DefaultCapacity is the capacity of a fresh program.
const DefaultCapacity = 1

// Program is the player-authored instruction sequence.
//
// INVARIANTS:
//   - Len() <= Capacity() at all times
//   - Capacity never decreases
//
// Program does not know about phases; the session refuses edits while a
// run is in flight.
type Program struct {
	seq      []Instruction
	capacity int
}

// NewProgram creates an empty program with the given capacity.
// Capacities below 1 are raised to DefaultCapacity.
func NewProgram(capacity int) *Program {
	if capacity < DefaultCapacity {
		capacity = DefaultCapacity
	}
	return &Program{
		seq:      make([]Instruction, 0, capacity),
		capacity: capacity,
	}
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.seq)
}

// Capacity returns the maximum number of instructions.
func (p *Program) Capacity() int {
	return p.capacity
}

// At returns the instruction at index i.
// Callers must keep 0 <= i < Len(); anything else is a defect.
func (p *Program) At(i int) Instruction {
	return p.seq[i]
}

// Instructions returns a copy of the sequence.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.seq))
	copy(out, p.seq)
	return out
}

// Append adds inst at the end of the program.
// Returns a PROGRAM_FULL rejection when at capacity.
func (p *Program) Append(inst Instruction) error {
	if len(p.seq) >= p.capacity {
		return Reject(ErrCodeProgramFull, "add_instruction",
			"program holds %d of %d instructions", len(p.seq), p.capacity)
	}
	p.seq = append(p.seq, inst)
	return nil
}

// Remove deletes the instruction at index i, shifting later ones down.
func (p *Program) Remove(i int) (Instruction, error) {
	if i < 0 || i >= len(p.seq) {
		return 0, Reject(ErrCodeIndexOutOfRange, "remove_instruction",
			"index %d outside program of length %d", i, len(p.seq))
	}
	removed := p.seq[i]
	p.seq = append(p.seq[:i], p.seq[i+1:]...)
	return removed, nil
}

// Grow multiplies the capacity by factor. Factors below 1 are ignored so
// capacity can never shrink; the result saturates at math.MaxInt.
func (p *Program) Grow(factor int) {
	if factor <= 1 {
		return
	}
	if p.capacity > math.MaxInt/factor {
		p.capacity = math.MaxInt
		return
	}
	p.capacity *= factor
}

func (p *Program) String() string {
	names := make([]string, len(p.seq))
	for i, inst := range p.seq {
		names[i] = inst.String()
	}
	return fmt.Sprintf("[%s] (%d/%d)", strings.Join(names, ", "), len(p.seq), p.capacity)
}
