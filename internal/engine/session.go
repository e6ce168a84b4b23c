package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/tickbot/internal/ir"
	"github.com/roach88/tickbot/internal/upgrade"
)

// Default session parameters.
const (
	DefaultTickInterval    = time.Second
	DefaultBombDuration    = 10 * time.Second
	DefaultSpeedMultiplier = 1.0
)

// SessionConfig is the static configuration a session is built from.
type SessionConfig struct {
	Params          ir.Params        `json:"params"`
	BombDuration    time.Duration    `json:"bomb_duration"`
	InitialCapacity int              `json:"initial_capacity"`
	StartingBalance int64            `json:"starting_balance"`
	Spawn           ir.Actor         `json:"spawn"`
	Topology        upgrade.Topology `json:"topology"`
}

// DefaultSessionConfig returns the shipped configuration.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Params: ir.Params{
			TickInterval:    DefaultTickInterval,
			SpeedMultiplier: DefaultSpeedMultiplier,
		},
		BombDuration:    DefaultBombDuration,
		InitialCapacity: ir.DefaultCapacity,
		Spawn:           ir.Actor{Facing: ir.East},
		Topology:        upgrade.DefaultTopology(),
	}
}

// Validate checks the configuration. A topology problem is returned as
// *upgrade.ConfigError so callers can report each finding.
func (c SessionConfig) Validate() error {
	var errs []error
	if err := c.Params.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.BombDuration <= 0 {
		errs = append(errs, fmt.Errorf("bomb duration must be positive, got %s", c.BombDuration))
	}
	if c.InitialCapacity < 1 {
		errs = append(errs, fmt.Errorf("initial capacity must be at least 1, got %d", c.InitialCapacity))
	}
	if c.StartingBalance < 0 {
		errs = append(errs, fmt.Errorf("starting balance must not be negative, got %d", c.StartingBalance))
	}
	if !c.Spawn.Facing.Valid() {
		errs = append(errs, fmt.Errorf("spawn facing %s is not a cardinal direction", c.Spawn.Facing))
	}
	if verrs := upgrade.Validate(c.Topology); len(verrs) > 0 {
		errs = append(errs, &upgrade.ConfigError{Errors: verrs})
	}
	return errors.Join(errs...)
}

// Session is the state of one playing session.
//
// It is created on entering Playing and dropped on returning to Menu.
// Only the engine's frame goroutine touches it. During Running the
// interpreter reads the program through its own copy; every mutation of
// Program, Graph and Unlocks is refused outside Buying.
type Session struct {
	Wallet  *ir.Wallet
	Unlocks *ir.UnlockSet
	Params  ir.Params
	Program *ir.Program
	Graph   *upgrade.Graph
	Actor   ir.Actor

	spawn    ir.Actor
	bomb     time.Duration
	phase    Phase
	controls Controls
}

// NewSession builds a session from cfg.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	graph, err := upgrade.New(cfg.Topology)
	if err != nil {
		return nil, err
	}
	return &Session{
		Wallet:   ir.NewWallet(cfg.StartingBalance),
		Unlocks:  ir.NewUnlockSet(),
		Params:   cfg.Params,
		Program:  ir.NewProgram(cfg.InitialCapacity),
		Graph:    graph,
		Actor:    cfg.Spawn,
		spawn:    cfg.Spawn,
		bomb:     cfg.BombDuration,
		phase:    PhaseBuying,
		controls: controlsFor(PhaseBuying),
	}, nil
}

// Phase returns the current run/edit phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// Controls returns the active flags of the run controls.
func (s *Session) Controls() Controls {
	return s.controls
}

// BombDuration returns the unscaled countdown duration.
func (s *Session) BombDuration() time.Duration {
	return s.bomb
}

func (s *Session) setControl(c Control, enabled bool) {
	switch c {
	case ControlStart:
		s.controls.Start = enabled
	case ControlReset:
		s.controls.Reset = enabled
	}
}
