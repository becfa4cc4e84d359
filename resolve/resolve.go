package resolve

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/world"
)

// ModelRef is one model to render for a block with its block-state rotation.
type ModelRef struct {
	Model  string
	X, Y   int
	UVLock bool
	// Fallback marks a degraded match (default cube or first variant).
	Fallback bool
}

func refOf(h pack.ModelHolder) ModelRef {
	return ModelRef{Model: h.Model, X: h.X, Y: h.Y, UVLock: h.UVLock}
}

// Resolver maps block identifiers to model references. It holds no state
// of its own.
type Resolver struct {
	Pack *pack.Resolver
}

func New(p *pack.Resolver) *Resolver {
	return &Resolver{Pack: p}
}

func defaultCube() []ModelRef {
	return []ModelRef{{Model: pack.DefaultCube, Fallback: true}}
}

// ResolveString parses s and resolves it. Unparsable input yields the
// default cube.
func (r *Resolver) ResolveString(s string) []ModelRef {
	id, err := world.Parse(s)
	if err != nil {
		log.Printf("resolve: %q: %v", s, err)
		return defaultCube()
	}
	return r.Resolve(id)
}

// Resolve never fails; every degraded path ends in the default cube.
func (r *Resolver) Resolve(id world.Identifier) []ModelRef {
	state := r.Pack.BlockState(id)
	liquid := id.Liquid()
	if state.Empty() {
		if liquid != world.NoLiquid {
			return []ModelRef{{Model: pack.LiquidModelPath(liquid, level(id))}}
		}
		log.Printf("resolve: %s has no definition", id.ID())
		r.Pack.Metrics().Fallback("default_cube")
		return defaultCube()
	}

	var refs []ModelRef
	if state.Variants != nil {
		ref, ok := r.matchVariant(id, state.Variants)
		if ok {
			refs = []ModelRef{ref}
		}
	} else {
		refs = evaluateParts(id, state.Multipart)
	}
	if len(refs) == 0 {
		log.Printf("resolve: %s matched no model", id)
		r.Pack.Metrics().Fallback("default_cube")
		return defaultCube()
	}
	if liquid != world.NoLiquid {
		for i := range refs {
			refs[i].Model = liquidModel(refs[i].Model, liquid, level(id))
		}
	}
	return refs
}

// VariantKey joins the block properties that appear in some variant key.
func VariantKey(id world.Identifier, variants map[string]pack.Holder) string {
	names := map[string]bool{}
	for k := range variants {
		for _, kv := range strings.Split(k, ",") {
			if i := strings.IndexByte(kv, '='); i > 0 {
				names[strings.TrimSpace(kv[:i])] = true
			}
		}
	}
	return world.JoinProperties(id.Properties, names)
}

func (r *Resolver) matchVariant(id world.Identifier, variants map[string]pack.Holder) (ModelRef, bool) {
	key := VariantKey(id, variants)
	if h, ok := variants[key]; ok {
		return pick(h)
	}
	if h, ok := variants[""]; ok {
		return pick(h)
	}
	props := make([]string, 0, len(id.Properties))
	for k := range id.Properties {
		props = append(props, k)
	}
	sort.Strings(props)
	for _, k := range props {
		if h, ok := variants[k+"="+id.Properties[k]]; ok {
			return pick(h)
		}
	}

	if len(variants) == 0 {
		return ModelRef{}, false
	}
	keys := make([]string, 0, len(variants))
	for k := range variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	log.Printf("resolve: %s has no variant %q, using %q", id.ID(), key, keys[0])
	r.Pack.Metrics().Fallback("variant")
	ref, ok := pick(variants[keys[0]])
	ref.Fallback = true
	return ref, ok
}

func evaluateParts(id world.Identifier, parts []pack.Part) []ModelRef {
	var refs []ModelRef
	for _, p := range parts {
		if !p.When.Match(id.Properties) {
			continue
		}
		if ref, ok := pick(p.Apply); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func pick(h pack.Holder) (ModelRef, bool) {
	mh, ok := h.Pick()
	if !ok || mh.Model == "" {
		return ModelRef{}, false
	}
	return refOf(mh), true
}

func level(id world.Identifier) int {
	v, ok := id.Property("level")
	if !ok {
		return 0
	}
	l, err := strconv.Atoi(v)
	if err != nil || l < 0 {
		return 0
	}
	return l
}

// liquidModel points a plain liquid model at its level-specific path.
func liquidModel(model string, liquid world.Liquid, lvl int) string {
	ns, p := world.SplitNamespace(model)
	if p != "block/"+liquid.String() {
		return model
	}
	out := pack.LiquidModelPath(liquid, lvl)
	if ns != world.DefaultNamespace {
		out = ns + ":" + out
	}
	return out
}
