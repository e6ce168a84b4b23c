package upgrade

import (
	"fmt"
	"strings"
)

// Kind identifies what an upgrade does when bought.
type Kind int

const (
	// SpeedBoost halves the tick interval.
	SpeedBoost Kind = iota + 1
	// MultiplierBoost doubles the speed multiplier.
	MultiplierBoost
	// CapacityBoost doubles the program capacity.
	CapacityBoost
	// UnlockConditional unlocks IfGapTurnLeft under Scanning.
	UnlockConditional
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{SpeedBoost, MultiplierBoost, CapacityBoost, UnlockConditional}

// String returns the kind's identifier as used in configs.
func (k Kind) String() string {
	switch k {
	case SpeedBoost:
		return "SpeedBoost"
	case MultiplierBoost:
		return "MultiplierBoost"
	case CapacityBoost:
		return "CapacityBoost"
	case UnlockConditional:
		return "UnlockConditional"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Label returns the shop label shown on the upgrade button.
func (k Kind) Label() string {
	switch k {
	case SpeedBoost:
		return "CPU Speed x2"
	case MultiplierBoost:
		return "CPU Multiplier x2"
	case CapacityBoost:
		return "Max Instructions x2"
	case UnlockConditional:
		return "Unlock If"
	default:
		return k.String()
	}
}

// Valid reports whether k is a declared kind.
func (k Kind) Valid() bool {
	return k >= SpeedBoost && k <= UnlockConditional
}

// ParseKind resolves a kind by identifier (case-insensitive).
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(k.String(), strings.TrimSpace(name)) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown upgrade kind %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("marshal unknown upgrade kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
