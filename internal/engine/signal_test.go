package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

func TestSignal_Encode(t *testing.T) {
	tests := []struct {
		name string
		sig  Signal
		want string
	}{
		{
			name: "tick",
			sig: Signal{Seq: 4, Frame: 9, At: time.Second, Type: SignalTickExecuted, RunID: "run-1",
				PC: 1, Instruction: ir.MoveForward, Actor: ir.Actor{Pos: ir.GridCoords{X: 2}, Facing: ir.East}},
			want: `{"actor":"(2,0) facing east","at":"1s","instruction":"MoveForward","pc":1,"run_id":"run-1","seq":4,"type":"tick_executed"}`,
		},
		{
			name: "params",
			sig:  Signal{Seq: 2, Type: SignalParamsChanged, TickInterval: 500 * time.Millisecond, Multiplier: 2},
			want: `{"at":"0s","multiplier":"2","seq":2,"tick_interval":"500ms","type":"params_changed"}`,
		},
		{
			name: "revealed",
			sig:  Signal{Seq: 3, Type: SignalUpgradesRevealed, Nodes: []int{5, 1}},
			want: `{"at":"0s","nodes":[5,1],"seq":3,"type":"upgrades_revealed"}`,
		},
		{
			name: "rejected",
			sig:  Signal{Seq: 7, Type: SignalCommandRejected, Command: CommandPurchase, Code: ir.ErrCodeShopClosed, Message: "closed"},
			want: `{"at":"0s","code":"SHOP_CLOSED","command":"purchase","message":"closed","seq":7,"type":"command_rejected"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sig.Encode()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSignal_FrameNotEncoded(t *testing.T) {
	a := Signal{Seq: 1, Frame: 1, Type: SignalWalletChanged, Balance: 3}
	b := a
	b.Frame = 42

	ea, err := a.Encode()
	require.NoError(t, err)
	eb, err := b.Encode()
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}

func TestSignal_String(t *testing.T) {
	s := Signal{Seq: 3, At: 250 * time.Millisecond, Type: SignalUpgradePurchased, Node: 4, Kind: upgrade.SpeedBoost}
	assert.Equal(t, "#3 250ms upgrade_purchased kind=SpeedBoost node=4", s.String())
}

func TestParseSignalType(t *testing.T) {
	for typ, name := range signalNames {
		got, err := ParseSignalType(name)
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseSignalType("explosion")
	assert.Error(t, err)
}
