package ir

import (
	"fmt"
	"strings"
)

// GridCoords is a cell position on the level grid. Y grows upward.
type GridCoords struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns c moved by d.
func (c GridCoords) Add(d Direction) GridCoords {
	return GridCoords{X: c.X + d.X, Y: c.Y + d.Y}
}

func (c GridCoords) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is a unit step along one grid axis.
type Direction struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Cardinal directions.
var (
	East  = Direction{X: 1, Y: 0}
	North = Direction{X: 0, Y: 1}
	West  = Direction{X: -1, Y: 0}
	South = Direction{X: 0, Y: -1}
)

// Left returns d rotated 90° counter-clockwise: (x, y) → (−y, x).
func (d Direction) Left() Direction {
	return Direction{X: -d.Y, Y: d.X}
}

// Valid reports whether d is one of the four cardinal unit steps.
func (d Direction) Valid() bool {
	return d == East || d == North || d == West || d == South
}

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	default:
		return fmt.Sprintf("(%d,%d)", d.X, d.Y)
	}
}

// ParseDirection resolves a cardinal direction by name.
func ParseDirection(name string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "east", "e":
		return East, nil
	case "north", "n":
		return North, nil
	case "west", "w":
		return West, nil
	case "south", "s":
		return South, nil
	default:
		return Direction{}, fmt.Errorf("unknown direction %q", name)
	}
}

// Actor is the robot the program drives.
type Actor struct {
	Pos    GridCoords `json:"pos"`
	Facing Direction  `json:"facing"`
}

func (a Actor) String() string {
	return fmt.Sprintf("%s facing %s", a.Pos, a.Facing)
}
