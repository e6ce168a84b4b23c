package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tickbot/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
	Golden string // golden directory
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run conformance scenarios",
		Long: `Run YAML scenarios against the engine.

Each scenario drives a fresh engine through its steps, checks its
expectations and assertions, replays its journal, and compares the
rendered trace with {golden}/{name}.golden. The golden directory
defaults to <scenarios>/golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  tickbot test ./scenarios
  tickbot test ./scenarios --filter "purchase_*"
  tickbot test ./scenarios --golden ./golden --update
  tickbot test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.Golden, "golden", "", "golden file directory (default: <scenarios>/golden)")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	paths, err := harness.DiscoverScenarios(path)
	var notFound *harness.ScenarioNotFoundError
	if errors.As(err, &notFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios not found: %s", path))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	paths, err = filterScenarios(paths, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid filter", err)
	}

	if len(paths) == 0 {
		if opts.Format == "json" {
			return encodeJSON(cmd.OutOrStdout(), CLIResponse{Status: "ok", Data: &harness.SuiteResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}
	for _, p := range paths {
		formatter.VerboseLog("scenario %s", p)
	}

	golden := opts.Golden
	if golden == "" {
		golden = defaultGoldenDir(path)
	}
	result := harness.RunSuite(cmd.Context(), paths, harness.SuiteOptions{GoldenDir: golden, Update: opts.Update})

	if opts.Format == "json" {
		response := CLIResponse{Status: "ok", Data: result}
		if !result.OK() {
			response.Status = "error"
			response.Error = &CLIError{Code: "E_SCENARIO", Message: fmt.Sprintf("%d scenario(s) failed", result.Failed)}
		}
		if err := encodeJSON(cmd.OutOrStdout(), response); err != nil {
			return err
		}
	} else {
		outputTestText(cmd, result)
	}

	if !result.OK() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// filterScenarios keeps the paths whose base name (without extension)
// matches the glob pattern.
func filterScenarios(paths []string, pattern string) ([]string, error) {
	if pattern == "" {
		return paths, nil
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern: %w", err)
	}
	var out []string
	for _, p := range paths {
		base := filepath.Base(p)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		if ok, _ := filepath.Match(pattern, name); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// defaultGoldenDir returns <path>/golden, or the golden directory next to
// a single scenario file.
func defaultGoldenDir(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Join(filepath.Dir(path), "golden")
	}
	return filepath.Join(path, "golden")
}

func outputTestText(cmd *cobra.Command, result *harness.SuiteResult) {
	w := cmd.OutOrStdout()
	for _, f := range result.Failures {
		name := f.Scenario
		if name == "" {
			name = filepath.Base(f.Path)
		}
		fmt.Fprintf(w, "✗ %s (%s)\n", name, f.Path)
		for _, line := range strings.Split(strings.TrimRight(f.Error, "\n"), "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Results: %d passed, %d failed", result.Passed, result.Failed)
	if result.Updated > 0 {
		fmt.Fprintf(w, ", %d golden file(s) updated", result.Updated)
	}
	fmt.Fprintf(w, " (%d total)\n", result.Total)
}
