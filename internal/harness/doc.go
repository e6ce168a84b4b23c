// Package harness provides scenario-based conformance testing for the
// tickbot engine.
//
// A scenario drives a real engine through a list of steps, then asserts on
// the emitted signals and the final state. Every scenario is also recorded
// to an in-memory journal and replayed, so each one doubles as a
// determinism check.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: purchase_with_funds
//	description: "Buying the root upgrade spends its cost"
//	config:                  # optional, same schema as a config file
//	  starting_balance: 15
//	start: playing           # loading, menu or playing
//	steps:
//	  - command: purchase(0)
//	    expect:
//	      signals: [upgrade_purchased, wallet_changed, program_changed, upgrades_revealed]
//	  - commands: [add_instruction(MoveForward), start_run]
//	    advance: 1s
//	assertions:
//	  - type: signal_contains
//	    signal: wallet_changed
//	    fields: { balance: 5 }
//	  - type: final_state
//	    expect: { phase: buying, balance: 5 }
//
// # Assertion Types
//
//   - signal_contains: a signal of the given type with matching fields was emitted
//   - signal_order: signal types first appear in the given order
//   - signal_count: a signal type was emitted exactly N times
//   - final_state: the final state (see StateOf) has the expected values
//   - runs: the journal recorded runs with the given outcomes
//
// # Deterministic Testing
//
// The harness uses:
//   - a simulated frame clock (engine.FrameClock), never wall time
//   - readable run IDs (run-1, run-2, ...)
//   - an in-memory SQLite journal, isolated per scenario
//
// This keeps traces byte-identical across runs for golden file comparison.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/purchase.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
