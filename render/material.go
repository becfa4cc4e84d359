package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/blockmesh/world"
)

// MaterialKey identifies faces that can share one draw unit.
type MaterialKey struct {
	Texture   string          `json:"texture"`
	Direction world.Direction `json:"direction"`
	TintIndex int             `json:"tintindex"`
	Cullface  world.Direction `json:"cullface"`
	Liquid    world.Liquid    `json:"liquid"`
	Biome     string          `json:"biome,omitempty"`
	Shade     bool            `json:"shade"`
}

type Transparency int

const (
	Opaque Transparency = iota
	Cutout
	Translucent
)

var transparencyNames = []string{"opaque", "cutout", "translucent"}

func (t Transparency) String() string {
	if int(t) < len(transparencyNames) {
		return transparencyNames[t]
	}
	return fmt.Sprintf("transparency(%d)", int(t))
}

func (t Transparency) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Transparency) UnmarshalText(b []byte) error {
	for i, n := range transparencyNames {
		if n == string(b) {
			*t = Transparency(i)
			return nil
		}
	}
	return fmt.Errorf("unknown transparency %q", b)
}

// Material is the descriptor handed to the rendering layer with a group.
type Material struct {
	Key          MaterialKey  `json:"key"`
	Texture      string       `json:"texture"`
	Tint         mgl32.Vec3   `json:"tint"`
	Transparency Transparency `json:"transparency"`
	Liquid       world.Liquid `json:"liquid"`
	Animated     bool         `json:"animated"`
	Frames       int          `json:"frames,omitempty"`
	FrameTime    int          `json:"frametime,omitempty"`
	DoubleSided  bool         `json:"double_sided"`
	Placeholder  bool         `json:"placeholder,omitempty"`
}

// Magenta tints the placeholder cube.
var Magenta = mgl32.Vec3{1, 0, 1}
