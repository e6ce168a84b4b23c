package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tickbot/internal/ir"
)

func TestInterpreter_StepsThenCompletes(t *testing.T) {
	in := NewInterpreter([]ir.Instruction{ir.MoveForward, ir.IfGapTurnLeft, ir.MoveForward})
	a := ir.Actor{Facing: ir.East}

	inst, a, done := in.Step(a)
	assert.False(t, done)
	assert.Equal(t, ir.MoveForward, inst)
	assert.Equal(t, ir.GridCoords{X: 1, Y: 0}, a.Pos)

	inst, a, done = in.Step(a)
	assert.False(t, done)
	assert.Equal(t, ir.IfGapTurnLeft, inst)
	assert.Equal(t, ir.North, a.Facing)

	_, a, done = in.Step(a)
	assert.False(t, done)
	assert.Equal(t, 3, in.PC())

	before := a
	_, a, done = in.Step(a)
	assert.True(t, done, "tick past the end completes the run")
	assert.Equal(t, before, a)
	assert.Equal(t, 3, in.PC())
}

func TestInterpreter_EmptyProgramCompletesImmediately(t *testing.T) {
	in := NewInterpreter(nil)
	_, _, done := in.Step(ir.Actor{Facing: ir.East})
	assert.True(t, done)
	assert.Equal(t, 0, in.Len())
}

func TestInterpreter_CopiesProgram(t *testing.T) {
	prog := []ir.Instruction{ir.MoveForward}
	in := NewInterpreter(prog)
	prog[0] = ir.IfGapTurnLeft

	inst, _, _ := in.Step(ir.Actor{Facing: ir.East})
	assert.Equal(t, ir.MoveForward, inst)
}
