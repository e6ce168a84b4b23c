package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/config"
	"github.com/roach88/tickbot/internal/upgrade"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool                `json:"valid"`
	File    string              `json:"file"`
	Errors  []ValidationProblem `json:"errors,omitempty"`
	Summary *ConfigSummary      `json:"summary,omitempty"`
}

// ValidationProblem is one problem found in a config file.
type ValidationProblem struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ConfigSummary describes a valid config.
type ConfigSummary struct {
	TickInterval    string `json:"tick_interval"`
	BombDuration    string `json:"bomb_duration"`
	InitialCapacity int    `json:"initial_capacity"`
	StartingBalance int64  `json:"starting_balance"`
	Upgrades        int    `json:"upgrades"`
	TopologyHash    string `json:"topology_hash"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config.yaml>",
		Short: "Validate a session config",
		Long: `Validate a session config file without starting a session.

Checks the YAML against the config schema, rejects unknown fields, and
validates the upgrade topology (cycles, dangling edges, unreachable nodes).
Every problem is reported, not just the first.

Exit codes:
  0 - Config is valid
  1 - Config is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	formatter.VerboseLog("Validating %s", path)
	cfg, err := config.Load(path)
	if err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) && cerr.Code == config.ErrCodeRead {
			return formatter.Failure(ExitCommandError, ErrCodeNotFound, cerr.Message, nil)
		}
		return outputValidationErrors(formatter, path, problemsOf(err))
	}

	sc, err := cfg.SessionConfig()
	if err != nil {
		return outputValidationErrors(formatter, path, problemsOf(err))
	}

	summary := &ConfigSummary{
		TickInterval:    sc.Params.TickInterval.String(),
		BombDuration:    sc.BombDuration.String(),
		InitialCapacity: sc.InitialCapacity,
		StartingBalance: sc.StartingBalance,
		Upgrades:        len(sc.Topology.Nodes),
		TopologyHash:    sc.Topology.Hash(),
	}
	return outputValidateSuccess(formatter, path, summary)
}

// problemsOf flattens a config.Load error into one problem per violation.
func problemsOf(err error) []ValidationProblem {
	var (
		schemaErr *config.SchemaError
		cfgErr    *config.Error
		topoErr   *upgrade.ConfigError
	)
	switch {
	case errors.As(err, &schemaErr):
		out := make([]ValidationProblem, len(schemaErr.Problems))
		for i, p := range schemaErr.Problems {
			out[i] = problemOf(p)
		}
		return out
	case errors.As(err, &cfgErr):
		return []ValidationProblem{problemOf(cfgErr)}
	case errors.As(err, &topoErr):
		out := make([]ValidationProblem, len(topoErr.Errors))
		for i, ve := range topoErr.Errors {
			out[i] = ValidationProblem{Code: ve.Code, Path: "upgrades." + ve.Field, Message: ve.Message}
		}
		return out
	default:
		return []ValidationProblem{{Code: ErrCodeGeneric, Message: err.Error()}}
	}
}

func problemOf(e *config.Error) ValidationProblem {
	p := ValidationProblem{Code: e.Code, Path: e.Path, Message: e.Message}
	if e.Pos.IsValid() {
		p.Line = e.Pos.Line()
	}
	return p
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, path string, summary *ConfigSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, File: path, Summary: summary})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ %s is valid\n", path)
	fmt.Fprintf(w, "  tick interval:    %s\n", summary.TickInterval)
	fmt.Fprintf(w, "  bomb duration:    %s\n", summary.BombDuration)
	fmt.Fprintf(w, "  capacity:         %d\n", summary.InitialCapacity)
	fmt.Fprintf(w, "  starting balance: %d\n", summary.StartingBalance)
	fmt.Fprintf(w, "  upgrades:         %d (%s)\n", summary.Upgrades, shortHash(summary.TopologyHash))
	return nil
}

// outputValidationErrors outputs every problem and fails with exit code 1.
func outputValidationErrors(formatter *OutputFormatter, path string, problems []ValidationProblem) error {
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(problems)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, File: path, Errors: problems},
			Error: &CLIError{
				Code:    problems[0].Code,
				Message: problems[0].Message,
			},
		}
		if err := encodeJSON(formatter.Writer, response); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintf(formatter.Writer, "✗ %s is invalid\n\n", path)
	for _, p := range problems {
		loc := p.Path
		if p.Line > 0 {
			loc = fmt.Sprintf("line %d %s", p.Line, p.Path)
		}
		if loc != "" {
			fmt.Fprintf(formatter.Writer, "%s\n", loc)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", p.Code, p.Message)
	}
	return exitErr
}

// shortHash abbreviates a content hash for text output.
func shortHash(h string) string {
	if len(h) <= 12 {
		return h
	}
	return h[:12]
}

