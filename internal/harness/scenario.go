package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tickbot/internal/config"
	"github.com/roach88/tickbot/internal/engine"
)

// Scenario defines a conformance test scenario.
// A scenario drives one engine through a list of steps and asserts on the
// emitted signals and the final state.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file
	// and the journal the run is recorded to.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config is an inline configuration document, validated exactly like a
	// config file. Omitted fields take their defaults.
	Config yaml.Node `yaml:"config,omitempty"`

	// ConfigFile is a path to a configuration file, relative to the
	// scenario file. Mutually exclusive with Config.
	ConfigFile string `yaml:"config_file,omitempty"`

	// Start is the screen the engine starts on. Defaults to "playing".
	Start string `yaml:"start,omitempty"`

	// RunPrefix names runs prefix-1, prefix-2, ... Defaults to "run".
	RunPrefix string `yaml:"run_prefix,omitempty"`

	// Frame is the simulated frame length used to split advance steps.
	// Defaults to 16ms.
	Frame config.Duration `yaml:"frame,omitempty"`

	// Steps is the main flow.
	Steps []Step `yaml:"steps"`

	// Assertions validate the full signal stream and the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step submits commands, then advances simulated time.
//
// Commands are processed in a zero-length frame of their own before any
// time passes, so "start_run then advance 1s" means one second of run time.
type Step struct {
	// Command is a single command in the form printed by the engine,
	// e.g. "purchase(0)" or "add_instruction(MoveForward)".
	Command string `yaml:"command,omitempty"`

	// Commands are submitted together and processed in order in one frame.
	Commands []string `yaml:"commands,omitempty"`

	// Advance is the simulated time to let pass after the commands.
	Advance config.Duration `yaml:"advance,omitempty"`

	// Expect checks the signals this step emitted.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// All returns the step's commands in submission order.
func (s Step) All() []string {
	if s.Command == "" {
		return s.Commands
	}
	return append([]string{s.Command}, s.Commands...)
}

// ExpectClause specifies what a step must emit.
type ExpectClause struct {
	// Signals is the exact list of signal types emitted, in order.
	// Nil skips the check; an empty list requires silence.
	Signals []string `yaml:"signals,omitempty"`

	// Rejected is a rejection code that must appear among the step's
	// command_rejected signals.
	Rejected string `yaml:"rejected,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative config_file is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.ConfigFile != "" && !filepath.IsAbs(scenario.ConfigFile) {
		scenario.ConfigFile = filepath.Join(filepath.Dir(path), scenario.ConfigFile)
	}
	return scenario, nil
}

// ParseScenario parses a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadConfig resolves the scenario's configuration: the inline document,
// the referenced file, or the defaults.
func (s *Scenario) LoadConfig() (engine.SessionConfig, error) {
	cfg := config.Default()
	switch {
	case s.ConfigFile != "":
		loaded, err := config.Load(s.ConfigFile)
		if err != nil {
			return engine.SessionConfig{}, err
		}
		cfg = loaded
	case s.Config.Kind != 0:
		data, err := yaml.Marshal(&s.Config)
		if err != nil {
			return engine.SessionConfig{}, fmt.Errorf("re-encode inline config: %w", err)
		}
		parsed, err := config.Parse(s.Name+".config", data)
		if err != nil {
			return engine.SessionConfig{}, err
		}
		cfg = parsed
	}
	return cfg.SessionConfig()
}

// StartScreen returns the parsed start screen.
func (s *Scenario) StartScreen() (engine.Screen, error) {
	if s.Start == "" {
		return engine.ScreenPlaying, nil
	}
	return engine.ParseScreen(s.Start)
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one step")
	}
	if s.ConfigFile != "" && s.Config.Kind != 0 {
		return fmt.Errorf("config and config_file are mutually exclusive")
	}
	if s.Config.Kind != 0 && s.Config.Kind != yaml.MappingNode {
		return fmt.Errorf("config must be a mapping")
	}
	if _, err := s.StartScreen(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if s.Frame < 0 {
		return fmt.Errorf("frame must not be negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	cmds := step.All()
	if len(cmds) == 0 && step.Advance == 0 {
		return fmt.Errorf("steps[%d]: needs a command or an advance", index)
	}
	if step.Advance < 0 {
		return fmt.Errorf("steps[%d]: advance must not be negative", index)
	}
	for _, c := range cmds {
		if _, err := engine.ParseCommand(c); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	}
	if e := step.Expect; e != nil {
		for _, name := range e.Signals {
			if _, err := engine.ParseSignalType(name); err != nil {
				return fmt.Errorf("steps[%d].expect: %w", index, err)
			}
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSignalContains:
		if a.Signal == "" {
			return fmt.Errorf("assertions[%d]: signal is required for signal_contains", index)
		}
	case AssertSignalOrder:
		if len(a.Signals) == 0 {
			return fmt.Errorf("assertions[%d]: signals list is required for signal_order", index)
		}
	case AssertSignalCount:
		if a.Signal == "" {
			return fmt.Errorf("assertions[%d]: signal is required for signal_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for signal_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertRuns:
		if a.Outcomes == nil {
			return fmt.Errorf("assertions[%d]: outcomes is required for runs", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	for _, name := range append([]string{a.Signal}, a.Signals...) {
		if name == "" {
			continue
		}
		if _, err := engine.ParseSignalType(name); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	}
	return nil
}
