package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/store"
)

// Assertion validates the signal stream, the final state or the journal.
type Assertion struct {
	// Type specifies the assertion type:
	// - "signal_contains": a signal of type Signal with matching Fields was emitted
	// - "signal_order": the Signals types appear in this order
	// - "signal_count": Signal was emitted exactly Count times
	// - "final_state": the final state has the Expect values
	// - "runs": the journal recorded runs with these Outcomes, in order
	Type string `yaml:"type"`

	// Signal is the signal type (signal_contains, signal_count).
	Signal string `yaml:"signal,omitempty"`

	// Fields are expected signal fields (signal_contains).
	// Subset match - only specified fields are validated.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Signals is the expected type order (signal_order).
	Signals []string `yaml:"signals,omitempty"`

	// Count is the expected number of occurrences (signal_count).
	Count int `yaml:"count,omitempty"`

	// Expect contains expected final state values (final_state).
	// Subset match over the keys produced by StateOf.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Outcomes lists the recorded run outcomes (runs).
	Outcomes []string `yaml:"outcomes,omitempty"`
}

// Assertion type constants.
const (
	AssertSignalContains = "signal_contains"
	AssertSignalOrder    = "signal_order"
	AssertSignalCount    = "signal_count"
	AssertFinalState     = "final_state"
	AssertRuns           = "runs"
)

// AssertionError is returned when an assertion fails.
// It includes the signal stream to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Trace    []engine.Signal // Full stream for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSignals:\n")
		for _, sig := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", sig)
		}
	}
	return buf.String()
}

// assertSignalContains checks that a signal of the given type with
// matching fields (subset match) was emitted.
func assertSignalContains(trace []engine.Signal, a Assertion) error {
	for _, sig := range trace {
		if sig.Type.String() == a.Signal && matchFields(sig.Fields(), a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertSignalContains,
		Expected: fmt.Sprintf("signal %s with fields %v", a.Signal, a.Fields),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertSignalOrder checks that the first occurrences of the given types
// appear in order. Intervening signals are allowed.
func assertSignalOrder(trace []engine.Signal, a Assertion) error {
	positions := make(map[string]int)
	for i, sig := range trace {
		name := sig.Type.String()
		if _, seen := positions[name]; !seen {
			positions[name] = i + 1 // 1-indexed for readability
		}
	}

	for _, name := range a.Signals {
		if positions[name] == 0 {
			return &AssertionError{
				Type:     AssertSignalOrder,
				Expected: fmt.Sprintf("all signals present: %v", a.Signals),
				Actual:   fmt.Sprintf("missing signal: %s", name),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Signals); i++ {
		prev, curr := a.Signals[i-1], a.Signals[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertSignalOrder,
				Expected: fmt.Sprintf("signals in order: %v", a.Signals),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertSignalCount checks that the signal type appears exactly Count times.
func assertSignalCount(trace []engine.Signal, a Assertion) error {
	count := 0
	for _, sig := range trace {
		if sig.Type.String() == a.Signal {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertSignalCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Signal),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the final state against expected values.
func assertFinalState(final engine.Snapshot, a Assertion) error {
	state := StateOf(final)
	for _, key := range sortedKeys(a.Expect) {
		want := a.Expect[key]
		got, exists := state[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, want),
				Actual:   fmt.Sprintf("field %q not present in state: %v", key, sortedKeys(state)),
			}
		}
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v", key, want),
				Actual:   fmt.Sprintf("field %q = %v", key, got),
			}
		}
	}
	return nil
}

// assertRuns checks the run records the journal holds for the scenario.
func assertRuns(ctx context.Context, st *store.Store, journalID string, a Assertion) error {
	runs, err := st.ListRuns(ctx, journalID)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	got := make([]string, len(runs))
	for i, r := range runs {
		got[i] = r.Outcome
	}
	if !slices.Equal(got, a.Outcomes) {
		return &AssertionError{
			Type:     AssertRuns,
			Expected: fmt.Sprintf("run outcomes %v", a.Outcomes),
			Actual:   fmt.Sprintf("run outcomes %v", got),
		}
	}
	return nil
}

// StateOf flattens a snapshot into the keys final_state assertions and
// golden files use. Values are strings, integers or string lists so they
// compare cleanly against YAML.
func StateOf(snap engine.Snapshot) map[string]any {
	state := map[string]any{
		"screen": snap.Screen,
		"now":    snap.Now.String(),
	}
	if !snap.HasSession() {
		return state
	}

	state["phase"] = snap.Phase
	state["balance"] = snap.Balance
	state["capacity"] = snap.Capacity
	state["actor"] = snap.Actor.String()
	state["tick_period"] = snap.TickPeriod.String()
	state["program"] = instructionNames(snap.Program)

	var unlocked []ir.Instruction
	for _, cat := range ir.Categories {
		unlocked = append(unlocked, snap.Unlocks[cat.String()]...)
	}
	state["unlocked"] = instructionNames(unlocked)

	offers := make([]string, len(snap.Offers))
	for i, o := range snap.Offers {
		offers[i] = fmt.Sprintf("%d", o.Node.Index)
	}
	state["offers"] = offers

	if snap.RunID != "" {
		state["run_id"] = snap.RunID
		state["pc"] = snap.PC
		state["bomb_remaining"] = snap.BombRemaining.String()
	}
	return state
}

func instructionNames(insts []ir.Instruction) []string {
	names := make([]string, len(insts))
	for i, inst := range insts {
		names[i] = inst.String()
	}
	return names
}

// matchFields checks that actual contains all expected fields (subset match).
// Extra keys in actual are ignored.
func matchFields(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, exists := actual[key]
		if !exists || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual compares a signal or state value with a YAML-decoded one.
//
// YAML decodes numbers as int and lists as []any while signals carry
// int64, []string and []any, so values are compared in their printed form.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	return fmt.Sprint(actual) == fmt.Sprint(expected)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AssertionContext provides the journal for runs assertions.
type AssertionContext struct {
	Store     *store.Store
	JournalID string
	Ctx       context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string
	trace := result.Signals()

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSignalContains:
			err = assertSignalContains(trace, assertion)
		case AssertSignalOrder:
			err = assertSignalOrder(trace, assertion)
		case AssertSignalCount:
			err = assertSignalCount(trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.Final, assertion)
		case AssertRuns:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: runs requires a journal", i)
			} else {
				err = assertRuns(actx.Ctx, actx.Store, actx.JournalID, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
