package engine

import (
	"fmt"
	"strings"
)

// Phase is the run/edit state of a session.
type Phase int

const (
	// PhaseBuying: the player edits the program and buys upgrades.
	PhaseBuying Phase = iota + 1
	// PhaseRunning: the interpreter executes the program.
	PhaseRunning
)

func (p Phase) String() string {
	switch p {
	case PhaseBuying:
		return "buying"
	case PhaseRunning:
		return "running"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Screen is the top-level game state the phase machine is nested under.
type Screen int

const (
	ScreenLoading Screen = iota + 1
	ScreenMenu
	ScreenPlaying
	ScreenPaused
)

func (s Screen) String() string {
	switch s {
	case ScreenLoading:
		return "loading"
	case ScreenMenu:
		return "menu"
	case ScreenPlaying:
		return "playing"
	case ScreenPaused:
		return "paused"
	default:
		return fmt.Sprintf("Screen(%d)", int(s))
	}
}

// ParseScreen resolves a screen name.
func ParseScreen(name string) (Screen, error) {
	for _, s := range []Screen{ScreenLoading, ScreenMenu, ScreenPlaying, ScreenPaused} {
		if strings.EqualFold(s.String(), strings.TrimSpace(name)) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown screen %q", name)
}

// screenTransitions lists the commands allowed on each screen and where
// they lead.
var screenTransitions = map[Screen]map[CommandType]Screen{
	ScreenLoading: {CommandFinishLoading: ScreenMenu},
	ScreenMenu:    {CommandEnterPlaying: ScreenPlaying},
	ScreenPlaying: {CommandPause: ScreenPaused, CommandExitToMenu: ScreenMenu},
	ScreenPaused:  {CommandResume: ScreenPlaying, CommandExitToMenu: ScreenMenu},
}

// nextScreen returns the screen cmd leads to from s.
func nextScreen(s Screen, cmd CommandType) (Screen, bool) {
	to, ok := screenTransitions[s][cmd]
	return to, ok
}

// Control is a UI control that triggers a phase change.
type Control int

const (
	// ControlStart triggers start_run.
	ControlStart Control = iota + 1
	// ControlReset triggers reset_to_buying.
	ControlReset
)

func (c Control) String() string {
	switch c {
	case ControlStart:
		return "start"
	case ControlReset:
		return "reset"
	default:
		return fmt.Sprintf("Control(%d)", int(c))
	}
}

// ParseControl resolves a control name.
func ParseControl(name string) (Control, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "start":
		return ControlStart, nil
	case "reset":
		return ControlReset, nil
	}
	return 0, fmt.Errorf("unknown control %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (c Control) MarshalText() ([]byte, error) {
	if c != ControlStart && c != ControlReset {
		return nil, fmt.Errorf("marshal unknown control %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Control) UnmarshalText(text []byte) error {
	parsed, err := ParseControl(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Controls holds the active flags of the run controls.
type Controls struct {
	Start bool `json:"start"`
	Reset bool `json:"reset"`
}

// controlsFor returns the flags a phase sets on entry.
func controlsFor(p Phase) Controls {
	return Controls{Start: p == PhaseBuying, Reset: p == PhaseRunning}
}
