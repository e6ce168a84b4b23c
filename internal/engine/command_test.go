package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickbot/internal/ir"
)

func TestParseCommandType(t *testing.T) {
	for typ, name := range commandNames {
		got, err := ParseCommandType(name)
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}

	got, err := ParseCommandType("  Start_Run ")
	require.NoError(t, err)
	assert.Equal(t, CommandStartRun, got)

	_, err = ParseCommandType("teleport")
	assert.Error(t, err)
}

func TestEncodeCommand_Canonical(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{StartRun(), `{"type":"start_run"}`},
		{Purchase(0), `{"node":0,"type":"purchase"}`},
		{AddInstruction(ir.IfGapTurnLeft), `{"instruction":"IfGapTurnLeft","type":"add_instruction"}`},
		{RemoveInstruction(2), `{"index":2,"type":"remove_instruction"}`},
		{PickupCurrency(25), `{"amount":25,"type":"pickup_currency"}`},
		{SetControl(ControlReset, false), `{"control":"reset","enabled":false,"type":"set_control"}`},
	}
	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			got, err := EncodeCommand(tt.cmd)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			back, err := DecodeCommand(got)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, back)
		})
	}
}

func TestDecodeCommand_Invalid(t *testing.T) {
	_, err := DecodeCommand(`{"type":"fly"}`)
	assert.Error(t, err)

	_, err = DecodeCommand(`{"type":"add_instruction","instruction":"Jump"}`)
	assert.Error(t, err)

	_, err = DecodeCommand(`not json`)
	assert.Error(t, err)
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "purchase(3)", Purchase(3).String())
	assert.Equal(t, "add_instruction(MoveForward)", AddInstruction(ir.MoveForward).String())
	assert.Equal(t, "set_control(start, true)", SetControl(ControlStart, true).String())
	assert.Equal(t, "pause", Pause().String())
	assert.Equal(t, "CommandType(99)", CommandType(99).String())
}

func TestParseCommand(t *testing.T) {
	for _, c := range []Command{
		StartRun(),
		ResetToBuying(),
		Purchase(4),
		AddInstruction(ir.IfGapTurnLeft),
		RemoveInstruction(0),
		PickupCurrency(15),
		SetControl(ControlReset, false),
		FinishLoading(),
		ExitToMenu(),
	} {
		got, err := ParseCommand(c.String())
		require.NoError(t, err, c.String())
		assert.Equal(t, c, got)
	}

	got, err := ParseCommand(" add_instruction( moveforward ) ")
	require.NoError(t, err)
	assert.Equal(t, AddInstruction(ir.MoveForward), got)

	for _, bad := range []string{
		"",
		"jump",
		"purchase",
		"purchase(x)",
		"purchase(1",
		"start_run(1)",
		"pickup_currency(1, 2)",
		"add_instruction(Fly)",
		"set_control(start)",
		"set_control(throttle, true)",
	} {
		_, err := ParseCommand(bad)
		assert.Error(t, err, bad)
	}
}

func TestScreenTransitions(t *testing.T) {
	tests := []struct {
		from Screen
		cmd  CommandType
		to   Screen
		ok   bool
	}{
		{ScreenLoading, CommandFinishLoading, ScreenMenu, true},
		{ScreenMenu, CommandEnterPlaying, ScreenPlaying, true},
		{ScreenPlaying, CommandPause, ScreenPaused, true},
		{ScreenPaused, CommandResume, ScreenPlaying, true},
		{ScreenPlaying, CommandExitToMenu, ScreenMenu, true},
		{ScreenPaused, CommandExitToMenu, ScreenMenu, true},
		{ScreenLoading, CommandEnterPlaying, 0, false},
		{ScreenMenu, CommandPause, 0, false},
		{ScreenPlaying, CommandResume, 0, false},
		{ScreenPaused, CommandPause, 0, false},
		{ScreenMenu, CommandExitToMenu, 0, false},
	}
	for _, tt := range tests {
		to, ok := nextScreen(tt.from, tt.cmd)
		assert.Equal(t, tt.ok, ok, "%s from %s", tt.cmd, tt.from)
		assert.Equal(t, tt.to, to, "%s from %s", tt.cmd, tt.from)
	}
}

func TestParseScreenAndControl(t *testing.T) {
	s, err := ParseScreen("Playing")
	require.NoError(t, err)
	assert.Equal(t, ScreenPlaying, s)
	_, err = ParseScreen("credits")
	assert.Error(t, err)

	c, err := ParseControl("reset")
	require.NoError(t, err)
	assert.Equal(t, ControlReset, c)
	_, err = ParseControl("jump")
	assert.Error(t, err)
}

func TestControlsFor(t *testing.T) {
	assert.Equal(t, Controls{Start: true}, controlsFor(PhaseBuying))
	assert.Equal(t, Controls{Reset: true}, controlsFor(PhaseRunning))
}
