package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tickbot/internal/ir"
)

// CommandType identifies an inbound command.
type CommandType int

const (
	// CommandStartRun moves the session from Buying to Running.
	CommandStartRun CommandType = iota + 1
	// CommandResetToBuying cancels the run in flight.
	CommandResetToBuying
	// CommandPurchase buys an upgrade node by index.
	CommandPurchase
	// CommandAddInstruction appends an instruction to the program.
	CommandAddInstruction
	// CommandRemoveInstruction deletes the instruction at an index.
	CommandRemoveInstruction
	// CommandPickupCurrency credits the wallet.
	CommandPickupCurrency
	// CommandSetControl enables or disables a run control.
	CommandSetControl
	// CommandFinishLoading moves from Loading to Menu.
	CommandFinishLoading
	// CommandEnterPlaying starts a fresh session from Menu.
	CommandEnterPlaying
	// CommandPause freezes the session.
	CommandPause
	// CommandResume unfreezes the session.
	CommandResume
	// CommandExitToMenu drops the session.
	CommandExitToMenu
)

var commandNames = map[CommandType]string{
	CommandStartRun:          "start_run",
	CommandResetToBuying:     "reset_to_buying",
	CommandPurchase:          "purchase",
	CommandAddInstruction:    "add_instruction",
	CommandRemoveInstruction: "remove_instruction",
	CommandPickupCurrency:    "pickup_currency",
	CommandSetControl:        "set_control",
	CommandFinishLoading:     "finish_loading",
	CommandEnterPlaying:      "enter_playing",
	CommandPause:             "pause",
	CommandResume:            "resume",
	CommandExitToMenu:        "exit_to_menu",
}

func (t CommandType) String() string {
	if name, ok := commandNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CommandType(%d)", int(t))
}

// ParseCommandType resolves a command name such as "start_run".
func ParseCommandType(name string) (CommandType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range commandNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (t CommandType) MarshalText() ([]byte, error) {
	if _, ok := commandNames[t]; !ok {
		return nil, fmt.Errorf("marshal unknown command type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *CommandType) UnmarshalText(text []byte) error {
	parsed, err := ParseCommandType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Command is an inbound request from the presentation layer.
// Only the fields relevant to Type are set.
type Command struct {
	Type        CommandType    `json:"type"`
	Node        int            `json:"node,omitempty"`
	Instruction ir.Instruction `json:"instruction,omitempty"`
	Index       int            `json:"index,omitempty"`
	Amount      int64          `json:"amount,omitempty"`
	Control     Control        `json:"control,omitempty"`
	Enabled     bool           `json:"enabled,omitempty"`
}

// StartRun returns a start_run command.
func StartRun() Command { return Command{Type: CommandStartRun} }

// ResetToBuying returns a reset_to_buying command.
func ResetToBuying() Command { return Command{Type: CommandResetToBuying} }

// Purchase returns a purchase command for node.
func Purchase(node int) Command { return Command{Type: CommandPurchase, Node: node} }

// AddInstruction returns an add_instruction command.
func AddInstruction(inst ir.Instruction) Command {
	return Command{Type: CommandAddInstruction, Instruction: inst}
}

// RemoveInstruction returns a remove_instruction command.
func RemoveInstruction(index int) Command {
	return Command{Type: CommandRemoveInstruction, Index: index}
}

// PickupCurrency returns a pickup_currency command.
func PickupCurrency(amount int64) Command {
	return Command{Type: CommandPickupCurrency, Amount: amount}
}

// SetControl returns a set_control command.
func SetControl(c Control, enabled bool) Command {
	return Command{Type: CommandSetControl, Control: c, Enabled: enabled}
}

// FinishLoading returns a finish_loading command.
func FinishLoading() Command { return Command{Type: CommandFinishLoading} }

// EnterPlaying returns an enter_playing command.
func EnterPlaying() Command { return Command{Type: CommandEnterPlaying} }

// Pause returns a pause command.
func Pause() Command { return Command{Type: CommandPause} }

// Resume returns a resume command.
func Resume() Command { return Command{Type: CommandResume} }

// ExitToMenu returns an exit_to_menu command.
func ExitToMenu() Command { return Command{Type: CommandExitToMenu} }

func (c Command) String() string {
	switch c.Type {
	case CommandPurchase:
		return fmt.Sprintf("purchase(%d)", c.Node)
	case CommandAddInstruction:
		return fmt.Sprintf("add_instruction(%s)", c.Instruction)
	case CommandRemoveInstruction:
		return fmt.Sprintf("remove_instruction(%d)", c.Index)
	case CommandPickupCurrency:
		return fmt.Sprintf("pickup_currency(%d)", c.Amount)
	case CommandSetControl:
		return fmt.Sprintf("set_control(%s, %t)", c.Control, c.Enabled)
	default:
		return c.Type.String()
	}
}

// ParseCommand reads the form printed by Command.String, for example
// "purchase(4)", "add_instruction(MoveForward)" or "set_control(start, false)".
func ParseCommand(s string) (Command, error) {
	s = strings.TrimSpace(s)
	name, args := s, ""
	if open := strings.IndexByte(s, '('); open >= 0 {
		if !strings.HasSuffix(s, ")") {
			return Command{}, fmt.Errorf("command %q: missing closing parenthesis", s)
		}
		name, args = s[:open], strings.TrimSpace(s[open+1:len(s)-1])
	}

	t, err := ParseCommandType(name)
	if err != nil {
		return Command{}, err
	}
	var parts []string
	if args != "" {
		parts = strings.Split(args, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
	}
	if want := commandArity(t); len(parts) != want {
		return Command{}, fmt.Errorf("command %q: %s takes %d arguments, got %d", s, t, want, len(parts))
	}

	c := Command{Type: t}
	switch t {
	case CommandPurchase:
		c.Node, err = strconv.Atoi(parts[0])
	case CommandAddInstruction:
		c.Instruction, err = ir.ParseInstruction(parts[0])
	case CommandRemoveInstruction:
		c.Index, err = strconv.Atoi(parts[0])
	case CommandPickupCurrency:
		c.Amount, err = strconv.ParseInt(parts[0], 10, 64)
	case CommandSetControl:
		if c.Control, err = ParseControl(parts[0]); err == nil {
			c.Enabled, err = strconv.ParseBool(parts[1])
		}
	}
	if err != nil {
		return Command{}, fmt.Errorf("command %q: %w", s, err)
	}
	return c, nil
}

func commandArity(t CommandType) int {
	switch t {
	case CommandPurchase, CommandAddInstruction, CommandRemoveInstruction, CommandPickupCurrency:
		return 1
	case CommandSetControl:
		return 2
	default:
		return 0
	}
}

// Fields returns the command as a canonical-JSON-ready map.
func (c Command) Fields() map[string]any {
	m := map[string]any{"type": c.Type.String()}
	switch c.Type {
	case CommandPurchase:
		m["node"] = c.Node
	case CommandAddInstruction:
		m["instruction"] = c.Instruction.String()
	case CommandRemoveInstruction:
		m["index"] = c.Index
	case CommandPickupCurrency:
		m["amount"] = c.Amount
	case CommandSetControl:
		m["control"] = c.Control.String()
		m["enabled"] = c.Enabled
	}
	return m
}

// EncodeCommand returns the canonical JSON form of c.
func EncodeCommand(c Command) (string, error) {
	data, err := ir.MarshalCanonical(c.Fields())
	if err != nil {
		return "", fmt.Errorf("encode command %s: %w", c.Type, err)
	}
	return string(data), nil
}

// DecodeCommand parses the JSON form written by EncodeCommand.
func DecodeCommand(data string) (Command, error) {
	var c Command
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Command{}, fmt.Errorf("decode command: %w", err)
	}
	return c, nil
}
