package harness

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickbot/internal/engine"
)

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_Pass(t *testing.T) {
	result, err := Run(mustParse(t, `
name: pass
config:
  starting_balance: 15
steps:
  - command: purchase(0)
    expect:
      signals: [upgrade_purchased, wallet_changed, program_changed, upgrades_revealed]
assertions:
  - type: final_state
    expect: { balance: 5 }
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
	assert.Equal(t, "pass", result.JournalID)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, []string{"purchase(0)"}, result.Steps[0].Commands)
	assert.Len(t, result.Signals(), 4)
}

func TestRun_StepExpectationFailures(t *testing.T) {
	result, err := Run(mustParse(t, `
name: fail
steps:
  - command: pickup_currency(5)
    expect:
      signals: [upgrade_purchased]
  - command: purchase(0)
    expect:
      rejected: ALREADY_PURCHASED
  - command: pickup_currency(1)
    expect:
      signals: []
`))
	require.NoError(t, err, "failed expectations are reported, not returned")
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "step 1: expected signals [upgrade_purchased], got [wallet_changed]")
	assert.Contains(t, result.Errors[1], "step 2: expected rejection ALREADY_PURCHASED, got [INSUFFICIENT_FUNDS]")
	assert.Contains(t, result.Errors[2], "step 3: expected signals [], got [wallet_changed]")
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	result, err := Run(mustParse(t, `
name: assert_fail
steps:
  - command: start_run
assertions:
  - type: runs
    outcomes: [failure]
  - type: final_state
    expect: { phase: running }
`))
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "run outcomes [success]")
	assert.Contains(t, result.Errors[1], `field "phase" = buying`)
}

func TestRun_CommandsBeforeAdvance(t *testing.T) {
	// start_run and one second in the same step: the run gets the full second.
	result, err := Run(mustParse(t, `
name: same_step
steps:
  - command: add_instruction(MoveForward)
  - command: start_run
    advance: 1s
    expect:
      signals: [phase_changed, run_started, tick_executed, run_completed, phase_changed]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	signals := result.Steps[1].Signals
	assert.Equal(t, time.Duration(0), signals[2].At)
	assert.Equal(t, time.Second, signals[3].At)
	assert.Equal(t, time.Second, result.Final.Now)
}

func TestRun_FrameSizeDoesNotChangeOutcome(t *testing.T) {
	doc := func(frame string) string {
		return `
name: frames
frame: ` + frame + `
config:
  tick_interval: 30ms
  bomb_duration: 100ms
  initial_capacity: 4
steps:
  - commands: [add_instruction(MoveForward), add_instruction(MoveForward), add_instruction(MoveForward), add_instruction(MoveForward)]
  - command: start_run
  - advance: 250ms
`
	}

	var traces []string
	for _, frame := range []string{"1ms", "7ms", "16ms", "100ms", "1s"} {
		result, err := Run(mustParse(t, doc(frame)))
		require.NoError(t, err)
		require.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		traces = append(traces, string(RenderTrace("frames", result)))
	}
	for _, tr := range traces[1:] {
		assert.Equal(t, traces[0], tr)
	}
	assert.Contains(t, traces[0], "90ms tick_executed")
	assert.Contains(t, traces[0], "100ms run_completed")
	assert.Contains(t, traces[0], "reason=bomb_exploded")
}

func TestRun_StartScreenAndRunPrefix(t *testing.T) {
	result, err := Run(mustParse(t, `
name: prefix
start: menu
run_prefix: smoke
steps:
  - commands: [enter_playing, start_run, start_run]
`))
	require.NoError(t, err)
	assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))

	var ids []string
	for _, sig := range result.Signals() {
		if sig.Type == engine.SignalRunStarted {
			ids = append(ids, sig.RunID)
		}
	}
	assert.Equal(t, []string{"smoke-1", "smoke-2"}, ids)
}

func TestRun_InvalidConfig(t *testing.T) {
	_, err := Run(mustParse(t, `
name: cyclic
config:
  upgrades:
    nodes:
      - { kind: SpeedBoost, level: 1, cost: 1 }
      - { kind: SpeedBoost, level: 2, cost: 1 }
    edges:
      - { from: 0, to: 1 }
      - { from: 1, to: 0 }
    roots: [0]
steps:
  - command: start_run
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load config")
}

func TestCheckExpect(t *testing.T) {
	trace := StepTrace{Signals: []engine.Signal{
		{Type: engine.SignalWalletChanged},
		{Type: engine.SignalCommandRejected, Code: "INSUFFICIENT_FUNDS"},
	}}

	assert.Empty(t, checkExpect(trace, &ExpectClause{}))
	assert.Empty(t, checkExpect(trace, &ExpectClause{
		Signals:  []string{"wallet_changed", "command_rejected"},
		Rejected: "INSUFFICIENT_FUNDS",
	}))
	assert.Len(t, checkExpect(trace, &ExpectClause{Signals: []string{"wallet_changed"}}), 1)
	assert.Len(t, checkExpect(trace, &ExpectClause{Rejected: "PAUSED"}), 1)
}
