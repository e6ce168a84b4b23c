package cli

import (
	"fmt"
	"os"

	"github.com/roach88/tickbot/internal/config"
	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/store"
)

// loadSessionConfig reads a config file, or returns the shipped defaults
// when path is empty.
func loadSessionConfig(path string) (engine.SessionConfig, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return engine.SessionConfig{}, err
		}
	}
	return cfg.SessionConfig()
}

// openExistingStore opens a database for reading. Unlike store.Open it
// refuses to create a new file.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: database not found: %s", ErrCodeNotFound, path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
