package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrGoldenMismatch is wrapped by CompareGolden when a trace differs from
// its golden file.
var ErrGoldenMismatch = errors.New("trace differs from golden file")

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// DiscoverScenarios returns the scenario files under path, sorted.
// path may be a single file or a directory searched recursively for
// *.yaml and *.yml files; golden directories are skipped.
func DiscoverScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == "golden" {
			return filepath.SkipDir
		}
		if ext := filepath.Ext(p); !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)
	return paths, nil
}

// SuiteOptions configures RunSuite.
type SuiteOptions struct {
	// GoldenDir holds {name}.golden traces. Empty disables golden checks.
	GoldenDir string

	// Update rewrites golden files instead of comparing them.
	Update bool
}

// SuiteResult summarizes a batch of scenarios.
type SuiteResult struct {
	Total    int               `json:"total"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Updated  int               `json:"updated,omitempty"`
	Failures []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure represents a failed scenario.
type ScenarioFailure struct {
	Scenario string `json:"scenario"`
	Path     string `json:"path"`
	Error    string `json:"error"`
}

// OK reports whether every scenario passed.
func (r *SuiteResult) OK() bool {
	return r.Failed == 0
}

func (r *SuiteResult) fail(name, path, msg string) {
	r.Failed++
	r.Failures = append(r.Failures, ScenarioFailure{Scenario: name, Path: path, Error: msg})
}

// RunSuite loads and runs each scenario file.
//
// For each file:
//  1. Load the scenario
//  2. Run it via RunContext
//  3. Compare (or rewrite) its golden trace when GoldenDir is set
//  4. Collect the outcome
func RunSuite(ctx context.Context, paths []string, opts SuiteOptions) *SuiteResult {
	result := &SuiteResult{}

	for _, path := range paths {
		result.Total++

		scenario, err := LoadScenario(path)
		if err != nil {
			result.fail("", path, fmt.Sprintf("failed to load scenario: %v", err))
			continue
		}

		run, err := RunContext(ctx, scenario)
		if err != nil {
			result.fail(scenario.Name, path, fmt.Sprintf("scenario execution failed: %v", err))
			continue
		}
		if !run.Pass {
			result.fail(scenario.Name, path, strings.Join(run.Errors, "\n"))
			continue
		}

		if opts.GoldenDir != "" {
			golden := filepath.Join(opts.GoldenDir, scenario.Name+".golden")
			updated, err := CompareGolden(golden, RenderTrace(scenario.Name, run), opts.Update)
			if err != nil {
				result.fail(scenario.Name, path, err.Error())
				continue
			}
			if updated {
				result.Updated++
			}
		}

		result.Passed++
	}
	return result
}

// CompareGolden checks got against the golden file at path. With update
// set, it writes got instead and reports whether the file changed.
func CompareGolden(path string, got []byte, update bool) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read golden file: %w", err)
	}

	if update {
		if err == nil && bytes.Equal(want, got) {
			return false, nil
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return false, fmt.Errorf("create golden dir: %w", err)
		}
		if err := os.WriteFile(path, got, 0o644); err != nil {
			return false, fmt.Errorf("write golden file: %w", err)
		}
		return true, nil
	}

	if err != nil {
		return false, fmt.Errorf("golden file %s missing, rerun with --update", path)
	}
	if !bytes.Equal(want, got) {
		return false, fmt.Errorf("%s: %w", path, ErrGoldenMismatch)
	}
	return false, nil
}
