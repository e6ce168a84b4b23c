package harness

import (
	"time"

	"github.com/roach88/tickbot/internal/engine"
)

// StepTrace records what one scenario step submitted and what the engine
// emitted in response.
type StepTrace struct {
	Index    int             `json:"index"`
	Commands []string        `json:"commands,omitempty"`
	Advance  time.Duration   `json:"advance,omitempty"`
	Signals  []engine.Signal `json:"signals"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation and assertion held
	// and the journal replayed to the same signal stream.
	Pass bool `json:"pass"`

	// Steps holds the trace in step order.
	Steps []StepTrace `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine state after the last step.
	Final engine.Snapshot `json:"final"`

	// JournalID names the in-memory journal the scenario was recorded to.
	JournalID string `json:"journal_id"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Signals returns every emitted signal in seq order.
func (r *Result) Signals() []engine.Signal {
	var out []engine.Signal
	for _, st := range r.Steps {
		out = append(out, st.Signals...)
	}
	return out
}
