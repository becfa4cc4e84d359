package pack

import (
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/humboldt-xie/blockmesh/world"
	"github.com/pkg/errors"
)

const (
	// MaxParentDepth caps parent hops when merging a model.
	MaxParentDepth = 5
	// DefaultCube is the model used when a block has no definition.
	DefaultCube = "builtin/default_cube"
)

type Face struct {
	Texture   string          `json:"texture"`
	UV        *[4]float32     `json:"uv,omitempty"`
	Rotation  int             `json:"rotation,omitempty"`
	Cullface  world.Direction `json:"cullface,omitempty"`
	TintIndex *int            `json:"tintindex,omitempty"`
}

type ElementRotation struct {
	Origin  [3]float32 `json:"origin"`
	Axis    world.Axis `json:"axis"`
	Angle   float32    `json:"angle"`
	Rescale bool       `json:"rescale,omitempty"`
}

// Element is one cuboid, coordinates in 0..16 pixel space.
type Element struct {
	From     [3]float32               `json:"from"`
	To       [3]float32               `json:"to"`
	Rotation *ElementRotation         `json:"rotation,omitempty"`
	Shade    *bool                    `json:"shade,omitempty"`
	Faces    map[world.Direction]Face `json:"faces"`
}

type Display struct {
	Rotation    [3]float32 `json:"rotation"`
	Translation [3]float32 `json:"translation"`
	Scale       [3]float32 `json:"scale"`
}

// Model is a block model document. Models returned by the resolver are
// shared through its cache and must not be modified.
type Model struct {
	Parent           string             `json:"parent,omitempty"`
	AmbientOcclusion *bool              `json:"ambientocclusion,omitempty"`
	Textures         map[string]string  `json:"textures,omitempty"`
	Elements         []Element          `json:"elements,omitempty"`
	Display          map[string]Display `json:"display,omitempty"`
	RenderType       string             `json:"render_type,omitempty"`

	// Path is the canonical location the model was resolved from.
	Path string `json:"-"`
}

func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(ErrParse, err.Error())
	}
	return &m, nil
}

// Model returns the merged model at path (e.g. "block/stone" or
// "minecraft:block/stone"), or nil when it cannot be found.
func (r *Resolver) Model(path string) *Model {
	key := canonical(path)
	if v, ok := r.models.Get(key); ok {
		r.metrics.hit("model")
		return v.(*Model)
	}
	r.metrics.miss("model")

	// callers arriving after a Load must not join a flight started before it
	gen := r.generation()
	v, _, _ := r.group.Do(fmt.Sprintf("%d/%s", gen, key), func() (interface{}, error) {
		m := r.buildModel(key)
		r.store(r.models, gen, key, m)
		return m, nil
	})
	return v.(*Model)
}

func (r *Resolver) buildModel(key string) *Model {
	_, p := world.SplitNamespace(key)
	if strings.HasPrefix(p, "builtin/") {
		return defaultCube(key)
	}
	if liquid, level, specific, ok := parseLiquidPath(p); ok {
		return r.liquidModel(key, liquid, level, specific)
	}
	m, err := r.mergeChain(key)
	if err != nil {
		log.Printf("pack: model %s: %v", key, err)
		if errors.Is(err, ErrDepthExceeded) {
			r.metrics.Fallback("model_depth")
		} else {
			r.metrics.Fallback("model_missing")
			return nil
		}
	}
	return m
}

func (r *Resolver) readModel(key string) (*Model, error) {
	data, err := r.Binary(assetPath("models", key, ".json"))
	if err != nil {
		return nil, err
	}
	return ParseModel(data)
}

// mergeChain follows parents at most MaxParentDepth hops and merges them
// bottom-up. On ErrDepthExceeded the partial merge is still returned.
func (r *Resolver) mergeChain(key string) (*Model, error) {
	m, err := r.readModel(key)
	if err != nil {
		return nil, err
	}
	chain := []*Model{m}
	var chainErr error
	for parent := m.Parent; parent != ""; {
		_, pp := world.SplitNamespace(parent)
		if strings.HasPrefix(pp, "builtin/") {
			break
		}
		if len(chain) > MaxParentDepth {
			chainErr = errors.Wrapf(ErrDepthExceeded, "parent chain of %s", key)
			break
		}
		pm, err := r.readModel(canonical(parent))
		if err != nil {
			log.Printf("pack: parent %s of %s: %v", parent, key, err)
			break
		}
		chain = append(chain, pm)
		parent = pm.Parent
	}

	out := &Model{}
	for i := len(chain) - 1; i >= 0; i-- {
		out = mergeModel(out, chain[i])
	}
	out.Parent = ""
	out.Path = key
	return out, chainErr
}

// mergeModel lays child over base: child fields win, textures and display
// merge additively, elements fall back to base only if child has none.
func mergeModel(base, child *Model) *Model {
	out := &Model{
		AmbientOcclusion: base.AmbientOcclusion,
		Elements:         base.Elements,
		RenderType:       base.RenderType,
		Parent:           child.Parent,
	}
	if child.AmbientOcclusion != nil {
		out.AmbientOcclusion = child.AmbientOcclusion
	}
	if len(child.Elements) > 0 {
		out.Elements = child.Elements
	}
	if child.RenderType != "" {
		out.RenderType = child.RenderType
	}
	if len(base.Textures)+len(child.Textures) > 0 {
		out.Textures = make(map[string]string, len(base.Textures)+len(child.Textures))
		for k, v := range base.Textures {
			out.Textures[k] = v
		}
		for k, v := range child.Textures {
			out.Textures[k] = v
		}
	}
	if len(base.Display)+len(child.Display) > 0 {
		out.Display = make(map[string]Display, len(base.Display)+len(child.Display))
		for k, v := range base.Display {
			out.Display[k] = v
		}
		for k, v := range child.Display {
			out.Display[k] = v
		}
	}
	return out
}

var liquidPath = regexp.MustCompile(`^block/(water|lava)(?:_level_(\d+))?$`)

func parseLiquidPath(p string) (liquid world.Liquid, level int, specific bool, ok bool) {
	m := liquidPath.FindStringSubmatch(p)
	if m == nil {
		return world.NoLiquid, 0, false, false
	}
	liquid = world.Water
	if m[1] == "lava" {
		liquid = world.Lava
	}
	if m[2] != "" {
		level, _ = strconv.Atoi(m[2])
		specific = true
	}
	return liquid, level, specific, true
}

// LiquidHeight is the top of a liquid element in pixels (0..16).
func LiquidHeight(liquid world.Liquid, level int) float32 {
	switch {
	case level <= 0:
		if liquid == world.Lava {
			return 16
		}
		return 14
	case level >= 8:
		// falling liquid fills the block
		return 16
	}
	return float32(16 - 2*level)
}

// LiquidModelPath is the synthetic model path for a liquid block at level.
func LiquidModelPath(liquid world.Liquid, level int) string {
	return fmt.Sprintf("block/%s_level_%d", liquid, level)
}

// LiquidTextures returns the still and flowing texture locations.
func LiquidTextures(liquid world.Liquid) (still, flow string) {
	return "block/" + liquid.String() + "_still", "block/" + liquid.String() + "_flow"
}

func (r *Resolver) liquidModel(key string, liquid world.Liquid, level int, specific bool) *Model {
	still, flow := LiquidTextures(liquid)
	h := LiquidHeight(liquid, level)
	var tint *int
	if liquid == world.Water {
		zero := 0
		tint = &zero
	}
	faces := make(map[world.Direction]Face, 6)
	for _, d := range world.Directions {
		tex := "#flow"
		if d == world.Up || d == world.Down {
			tex = "#still"
		}
		f := Face{Texture: tex, TintIndex: tint}
		if d != world.Up {
			f.Cullface = d
		}
		faces[d] = f
	}
	m := &Model{
		Textures: map[string]string{"particle": still, "still": still, "flow": flow},
		Elements: []Element{{From: [3]float32{0, 0, 0}, To: [3]float32{16, h, 16}, Faces: faces}},
		Path:     key,
	}

	// a pack may ship the same-named or base-named model; take its
	// textures, and its elements only for the plain path
	ns, _ := world.SplitNamespace(key)
	base := ns + ":block/" + liquid.String()
	candidates := []string{key}
	if key != base {
		candidates = append(candidates, base)
	}
	for _, c := range candidates {
		file, err := r.mergeChain(c)
		if file == nil {
			if err != nil && !errors.Is(err, ErrNotFound) {
				log.Printf("pack: liquid model %s: %v", c, err)
			}
			continue
		}
		for k, v := range file.Textures {
			m.Textures[k] = v
		}
		if !specific && len(file.Elements) > 0 {
			m.Elements = file.Elements
		}
		break
	}
	return m
}

func defaultCube(key string) *Model {
	faces := make(map[world.Direction]Face, 6)
	for _, d := range world.Directions {
		faces[d] = Face{Texture: "#all", Cullface: d}
	}
	return &Model{
		Textures: map[string]string{"all": MissingTexture, "particle": MissingTexture},
		Elements: []Element{{From: [3]float32{0, 0, 0}, To: [3]float32{16, 16, 16}, Faces: faces}},
		Path:     key,
	}
}
