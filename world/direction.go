package world

import (
	"encoding/json"
	"fmt"
)

type Vec3 struct {
	X, Y, Z int
}

func (v Vec3) Left() Vec3 {
	return Vec3{v.X - 1, v.Y, v.Z}
}
func (v Vec3) Right() Vec3 {
	return Vec3{v.X + 1, v.Y, v.Z}
}
func (v Vec3) Up() Vec3 {
	return Vec3{v.X, v.Y + 1, v.Z}
}
func (v Vec3) Down() Vec3 {
	return Vec3{v.X, v.Y - 1, v.Z}
}
func (v Vec3) Front() Vec3 {
	return Vec3{v.X, v.Y, v.Z + 1}
}
func (v Vec3) Back() Vec3 {
	return Vec3{v.X, v.Y, v.Z - 1}
}

// Direction is one of the six cube faces. The zero value means "none",
// which is what an absent cullface decodes to.
type Direction int

const (
	NoDirection Direction = iota
	Down
	Up
	North
	South
	West
	East
)

var Directions = [...]Direction{Down, Up, North, South, West, East}

var directionNames = map[Direction]string{
	Down:  "down",
	Up:    "up",
	North: "north",
	South: "south",
	West:  "west",
	East:  "east",
}

func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "down", "bottom":
		return Down, true
	case "up", "top":
		return Up, true
	case "north":
		return North, true
	case "south":
		return South, true
	case "west":
		return West, true
	case "east":
		return East, true
	}
	return NoDirection, false
}

func (d Direction) String() string {
	if s, ok := directionNames[d]; ok {
		return s
	}
	return "none"
}

// Offset is the unit step towards the face, -Z being north.
func (d Direction) Offset() Vec3 {
	var o Vec3
	switch d {
	case Down:
		return o.Down()
	case Up:
		return o.Up()
	case North:
		return o.Back()
	case South:
		return o.Front()
	case West:
		return o.Left()
	case East:
		return o.Right()
	}
	return o
}

func (d Direction) Opposite() Direction {
	switch d {
	case Down:
		return Up
	case Up:
		return Down
	case North:
		return South
	case South:
		return North
	case West:
		return East
	case East:
		return West
	}
	return NoDirection
}

func (d Direction) Axis() Axis {
	switch d {
	case West, East:
		return AxisX
	case Down, Up:
		return AxisY
	case North, South:
		return AxisZ
	}
	return NoAxis
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	if s := string(b); s == "" || s == "none" {
		*d = NoDirection
		return nil
	}
	v, ok := ParseDirection(string(b))
	if !ok {
		return fmt.Errorf("unknown direction %q", b)
	}
	*d = v
	return nil
}

type Axis int

const (
	NoAxis Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return "none"
}

func (a *Axis) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "x":
		*a = AxisX
	case "y":
		*a = AxisY
	case "z":
		*a = AxisZ
	default:
		return fmt.Errorf("unknown axis %q", s)
	}
	return nil
}

func (a Axis) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}
