package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tickbot/internal/engine"
	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

//go:embed schema.cue
var schemaSource string

// Error codes (E100-E199)
const (
	ErrCodeRead   = "E101" // file cannot be read
	ErrCodeSyntax = "E102" // not valid YAML
	ErrCodeSchema = "E103" // violates schema.cue
	ErrCodeDecode = "E104" // valid against the schema but not decodable
)

// Config is a decoded configuration file. Fields left out of the file keep
// the values from Default.
type Config struct {
	TickInterval    Duration          `yaml:"tick_interval"`
	BombDuration    Duration          `yaml:"bomb_duration"`
	SpeedMultiplier float64           `yaml:"speed_multiplier"`
	InitialCapacity int               `yaml:"initial_capacity"`
	StartingBalance int64             `yaml:"starting_balance"`
	Spawn           Spawn             `yaml:"spawn"`
	Upgrades        *upgrade.Topology `yaml:"upgrades,omitempty"`
}

// Spawn is where the actor starts every run.
type Spawn struct {
	X      int    `yaml:"x"`
	Y      int    `yaml:"y"`
	Facing string `yaml:"facing"`
}

// Duration is a time.Duration written as "250ms" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the shipped configuration.
func Default() *Config {
	return &Config{
		TickInterval:    Duration(engine.DefaultTickInterval),
		BombDuration:    Duration(engine.DefaultBombDuration),
		SpeedMultiplier: engine.DefaultSpeedMultiplier,
		InitialCapacity: ir.DefaultCapacity,
		Spawn:           Spawn{Facing: "east"},
	}
}

// Error is a configuration problem, with the YAML position when known.
type Error struct {
	Code    string
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Pos.IsValid() {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	}
	b.WriteString(e.Code)
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	return b.String()
}

// SchemaError collects every schema violation of one file.
type SchemaError struct {
	File     string
	Problems []*Error
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return e.Problems[0].Error()
	}
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = "  " + p.Error()
	}
	return fmt.Sprintf("%s: %d schema violations:\n%s", e.File, len(e.Problems), strings.Join(msgs, "\n"))
}

// IsSchemaError reports whether err is a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates data against the schema and decodes it strictly.
// name is used in error positions.
//
// Validation order: CUE schema (field constraints), strict YAML decode
// (unknown fields), then SessionConfig.Validate (graph structure).
func Parse(name string, data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	if err := checkSchema(name, data); err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Code: ErrCodeDecode, Message: err.Error()}
	}

	if _, err := cfg.SessionConfig(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

// Encode renders cfg as YAML.
func Encode(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SessionConfig converts cfg for the engine and validates it.
// A topology problem is returned as *upgrade.ConfigError.
func (c *Config) SessionConfig() (engine.SessionConfig, error) {
	facing, err := ir.ParseDirection(c.Spawn.Facing)
	if err != nil {
		return engine.SessionConfig{}, fmt.Errorf("spawn: %w", err)
	}
	topo := upgrade.DefaultTopology()
	if c.Upgrades != nil {
		topo = *c.Upgrades
	}
	sc := engine.SessionConfig{
		Params: ir.Params{
			TickInterval:    time.Duration(c.TickInterval),
			SpeedMultiplier: c.SpeedMultiplier,
		},
		BombDuration:    time.Duration(c.BombDuration),
		InitialCapacity: c.InitialCapacity,
		StartingBalance: c.StartingBalance,
		Spawn:           ir.Actor{Pos: ir.GridCoords{X: c.Spawn.X, Y: c.Spawn.Y}, Facing: facing},
		Topology:        topo,
	}
	if err := sc.Validate(); err != nil {
		return engine.SessionConfig{}, err
	}
	return sc, nil
}

func checkSchema(name string, data []byte) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	file, err := cueyaml.Extract(name, data)
	if err != nil {
		return &Error{Code: ErrCodeSyntax, Message: err.Error(), Pos: firstPos(err, name)}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Code: ErrCodeSyntax, Message: err.Error(), Pos: firstPos(err, name)}
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return schemaError(name, err)
	}
	return nil
}

func schemaError(name string, err error) error {
	se := &SchemaError{File: name}
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		se.Problems = append(se.Problems, &Error{
			Code:    ErrCodeSchema,
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Pos:     firstPos(e, name),
		})
	}
	if len(se.Problems) == 0 {
		se.Problems = []*Error{{Code: ErrCodeSchema, Message: err.Error()}}
	}
	return se
}

// firstPos prefers a position inside the config file over one in the schema.
func firstPos(err error, name string) token.Pos {
	positions := cueerrors.Positions(err)
	for _, p := range positions {
		if p.Filename() == name {
			return p
		}
	}
	if len(positions) > 0 {
		return positions[0]
	}
	return token.NoPos
}
