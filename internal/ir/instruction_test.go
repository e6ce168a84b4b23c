package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstruction_Category(t *testing.T) {
	assert.Equal(t, Movement, MoveForward.Category())
	assert.Equal(t, Scanning, IfGapTurnLeft.Category())
}

func TestInstruction_CategoryUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Instruction(99).Category() })
}

func TestInstruction_ApplyMoveForward(t *testing.T) {
	a := Actor{Pos: GridCoords{X: 0, Y: 0}, Facing: East}

	got := MoveForward.Apply(a)

	assert.Equal(t, GridCoords{X: 1, Y: 0}, got.Pos)
	assert.Equal(t, East, got.Facing, "moving must not turn")
}

// IfGapTurnLeft turns regardless of what lies ahead.
func TestInstruction_ApplyIfGapTurnLeft(t *testing.T) {
	a := Actor{Pos: GridCoords{X: 3, Y: 4}, Facing: East}

	got := IfGapTurnLeft.Apply(a)
	assert.Equal(t, North, got.Facing)
	assert.Equal(t, a.Pos, got.Pos, "turning must not move")

	got = IfGapTurnLeft.Apply(got)
	assert.Equal(t, West, got.Facing)
	got = IfGapTurnLeft.Apply(got)
	assert.Equal(t, South, got.Facing)
	got = IfGapTurnLeft.Apply(got)
	assert.Equal(t, East, got.Facing, "four left turns return to start")
}

func TestInstruction_ApplyIsPure(t *testing.T) {
	a := Actor{Pos: GridCoords{X: 1, Y: 1}, Facing: North}
	_ = MoveForward.Apply(a)
	assert.Equal(t, GridCoords{X: 1, Y: 1}, a.Pos)
}

func TestParseInstruction(t *testing.T) {
	tests := []struct {
		in      string
		want    Instruction
		wantErr bool
	}{
		{"MoveForward", MoveForward, false},
		{"moveforward", MoveForward, false},
		{" IfGapTurnLeft ", IfGapTurnLeft, false},
		{"Jump", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInstruction(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProgram(t *testing.T) {
	got, err := ParseProgram("MoveForward,IfGapTurnLeft,MoveForward")
	require.NoError(t, err)
	assert.Equal(t, []Instruction{MoveForward, IfGapTurnLeft, MoveForward}, got)

	empty, err := ParseProgram("  ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseProgram("MoveForward,Fly")
	assert.ErrorContains(t, err, "program[1]")
}

func TestInstruction_TextRoundTrip(t *testing.T) {
	text, err := IfGapTurnLeft.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "IfGapTurnLeft", string(text))

	var inst Instruction
	require.NoError(t, inst.UnmarshalText([]byte("MoveForward")))
	assert.Equal(t, MoveForward, inst)

	_, err = Instruction(0).MarshalText()
	assert.Error(t, err)
}

func TestDirection_Left(t *testing.T) {
	assert.Equal(t, North, East.Left())
	assert.Equal(t, West, North.Left())
	assert.Equal(t, South, West.Left())
	assert.Equal(t, East, South.Left())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("North")
	require.NoError(t, err)
	assert.Equal(t, North, d)

	_, err = ParseDirection("up")
	assert.Error(t, err)
}
