package testutil

import "github.com/roach88/tickbot/internal/engine"

// DefaultRunPrefix names runs when a scenario does not choose a prefix.
const DefaultRunPrefix = "run"

// NewRunIDs returns a generator of readable run IDs: prefix-1, prefix-2, ...
//
// The same scenario always names its runs the same way, so golden traces
// stay byte-identical across executions. If prefix is empty, DefaultRunPrefix
// is used.
func NewRunIDs(prefix string) engine.RunIDGenerator {
	if prefix == "" {
		prefix = DefaultRunPrefix
	}
	return engine.NewSequenceGenerator(prefix)
}
