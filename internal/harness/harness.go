package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/store"
	"github.com/roach88/tickbot/internal/testutil"
)

// Harness is the scenario execution engine.
// It drives a real engine with a simulated frame clock and readable run IDs.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	journal *engine.Journal
	clock   *engine.FrameClock
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
//
// Execution flow:
//  1. Resolve the configuration and build the engine
//  2. Attach a journal named after the scenario
//  3. Execute the steps, checking each expect clause
//  4. Evaluate assertions against the signal stream and final state
//  5. Replay the journal and require the identical signal stream
//
// Returns an error only when the scenario could not be executed at all;
// failed expectations are reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg, err := scenario.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	screen, err := scenario.StartScreen()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	eng, err := engine.New(cfg,
		engine.WithStartScreen(screen),
		engine.WithRunIDs(testutil.NewRunIDs(scenario.RunPrefix)),
	)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	journal, err := engine.StartJournal(ctx, st, eng, scenario.Name)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store:   st,
		engine:  eng,
		journal: journal,
		clock:   engine.NewFrameClock(time.Duration(scenario.Frame)),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	result := NewResult()
	result.JournalID = journal.ID()
	if err := h.executeSteps(ctx, scenario.Steps, result); err != nil {
		return nil, err
	}
	if err := journal.Close(ctx); err != nil {
		return nil, fmt.Errorf("close journal: %w", err)
	}
	result.Final = eng.Snapshot()

	actx := &AssertionContext{Store: st, JournalID: journal.ID(), Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	if _, err := engine.Replay(ctx, st, journal.ID()); err != nil {
		result.AddError(fmt.Sprintf("replay: %v", err))
	}
	return result, nil
}

// executeSteps runs every step and checks its expect clause.
//
// Commands get a zero-length frame of their own, then the advance is split
// into frames by the frame clock.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) error {
	for i, step := range steps {
		trace := StepTrace{Index: i + 1, Advance: time.Duration(step.Advance)}

		cmds := step.All()
		if len(cmds) > 0 {
			for _, text := range cmds {
				cmd, err := engine.ParseCommand(text)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				h.engine.Submit(cmd)
				trace.Commands = append(trace.Commands, cmd.String())
			}
			trace.Signals = append(trace.Signals, h.engine.Frame(ctx, 0)...)
		}
		if step.Advance > 0 {
			for _, delta := range h.clock.Split(time.Duration(step.Advance)) {
				trace.Signals = append(trace.Signals, h.engine.Frame(ctx, delta)...)
			}
		}

		if step.Expect != nil {
			for _, msg := range checkExpect(trace, step.Expect) {
				result.AddError(fmt.Sprintf("step %d: %s", i+1, msg))
			}
		}
		result.Steps = append(result.Steps, trace)

		h.logger.Info("step completed",
			"step", i+1,
			"commands", trace.Commands,
			"advance", trace.Advance,
			"signals", len(trace.Signals),
		)
	}
	return nil
}

// checkExpect compares a step's signals with its expect clause.
func checkExpect(trace StepTrace, expect *ExpectClause) []string {
	var errs []string

	types := make([]string, len(trace.Signals))
	for i, sig := range trace.Signals {
		types[i] = sig.Type.String()
	}
	if expect.Signals != nil && !slices.Equal(types, expect.Signals) {
		errs = append(errs, fmt.Sprintf("expected signals %v, got %v", expect.Signals, types))
	}

	if expect.Rejected != "" {
		var codes []string
		for _, sig := range trace.Signals {
			if sig.Type == engine.SignalCommandRejected {
				codes = append(codes, string(sig.Code))
			}
		}
		if !slices.Contains(codes, expect.Rejected) {
			errs = append(errs, fmt.Sprintf("expected rejection %s, got %v", expect.Rejected, codes))
		}
	}
	return errs
}
