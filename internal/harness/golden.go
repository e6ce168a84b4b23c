package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tickbot/internal/engine"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// goldenOmit lists signal fields left out of golden traces. Program hashes
// are opaque and rejection messages are prose; engine tests cover both.
var goldenOmit = map[string]bool{
	"seq":          true,
	"type":         true,
	"at":           true,
	"program_hash": true,
	"message":      true,
}

// RenderTrace renders a result as the plain-text trace stored in golden
// files: a header, one block per step, and the final state.
//
//	scenario purchase_with_funds
//	step 1: pickup_currency(15)
//	  #1 0s wallet_changed balance=15
//	final balance=15 ...
func RenderTrace(name string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", name)

	for _, st := range result.Steps {
		parts := append([]string(nil), st.Commands...)
		if st.Advance > 0 {
			parts = append(parts, "advance "+st.Advance.String())
		}
		fmt.Fprintf(&b, "step %d: %s\n", st.Index, strings.Join(parts, ", "))
		for _, sig := range st.Signals {
			fmt.Fprintf(&b, "  %s\n", renderSignal(sig))
		}
	}

	b.WriteString("final")
	state := StateOf(result.Final)
	for _, k := range sortedKeys(state) {
		fmt.Fprintf(&b, " %s=%v", k, state[k])
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func renderSignal(sig engine.Signal) string {
	fields := sig.Fields()

	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s %s", sig.Seq, sig.At, sig.Type)
	for _, k := range sortedKeys(fields) {
		if goldenOmit[k] {
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can also check Pass; returns an error if
// the scenario could not be executed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTrace(name, result))
}
