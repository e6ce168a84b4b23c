package engine

import (
	"fmt"

	"github.com/roach88/tickbot/internal/ir"
)

// Interpreter executes a program one instruction per tick.
//
// INVARIANT: 0 <= pc <= len(program). pc == len(program) means the next
// tick completes the run.
//
// The program is copied at run start; edits are refused while running, so
// the copy and the session program never diverge during a run.
type Interpreter struct {
	program []ir.Instruction
	pc      int
}

// NewInterpreter creates an interpreter positioned at the first instruction.
func NewInterpreter(program []ir.Instruction) *Interpreter {
	seq := make([]ir.Instruction, len(program))
	copy(seq, program)
	return &Interpreter{program: seq}
}

// PC returns the index of the next instruction to execute.
func (in *Interpreter) PC() int {
	return in.pc
}

// Len returns the program length.
func (in *Interpreter) Len() int {
	return len(in.program)
}

// Step consumes one tick.
//
// If an instruction remains, it is applied to a, pc advances, and the
// executed instruction and new actor are returned with done false.
// Otherwise done is true and a is returned unchanged.
func (in *Interpreter) Step(a ir.Actor) (inst ir.Instruction, next ir.Actor, done bool) {
	if in.pc < 0 || in.pc > len(in.program) {
		panic(fmt.Sprintf("engine: program counter %d outside [0,%d]", in.pc, len(in.program)))
	}
	if in.pc == len(in.program) {
		return 0, a, true
	}
	inst = in.program[in.pc]
	in.pc++
	return inst, inst.Apply(a), false
}
