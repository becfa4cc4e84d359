package pack

import (
	"bytes"
	"encoding/json"
	"log"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/humboldt-xie/blockmesh/world"
)

const (
	// MissingTexture is returned for dangling or too deep texture refs.
	MissingTexture = "missingno"
	// MaxTextureDepth caps '#' dereferences.
	MaxTextureDepth = 5
)

// ResolveTexture dereferences ref through m.Textures. Literal locations are
// returned with the default namespace stripped.
// Only models with a Path, i.e. those handed out by Model, are cached; a
// caller built model has no identity to key on.
func (r *Resolver) ResolveTexture(ref string, m *Model) string {
	if m == nil || m.Path == "" {
		return r.resolveTexture(ref, m)
	}
	key := m.Path + "#" + ref
	if v, ok := r.textures.Get(key); ok {
		r.metrics.hit("texture")
		return v.(string)
	}
	r.metrics.miss("texture")
	gen := r.generation()
	tex := r.resolveTexture(ref, m)
	r.store(r.textures, gen, key, tex)
	return tex
}

func (r *Resolver) resolveTexture(ref string, m *Model) string {
	tex := resolveTextureRef(ref, m)
	if tex == MissingTexture {
		log.Printf("pack: texture %s of %s unresolved", ref, pathOf(m))
		r.metrics.Fallback("texture")
	}
	return tex
}

func resolveTextureRef(ref string, m *Model) string {
	for i := 0; i <= MaxTextureDepth; i++ {
		if !strings.HasPrefix(ref, "#") {
			if ref == "" {
				return MissingTexture
			}
			return stripDefaultNamespace(ref)
		}
		if m == nil || i == MaxTextureDepth {
			return MissingTexture
		}
		next, ok := m.Textures[ref[1:]]
		if !ok {
			return MissingTexture
		}
		ref = next
	}
	return MissingTexture
}

func stripDefaultNamespace(s string) string {
	return strings.TrimPrefix(s, world.DefaultNamespace+":")
}

func pathOf(m *Model) string {
	if m == nil {
		return "<nil>"
	}
	return m.Path
}

type AlphaMode int

const (
	Opaque AlphaMode = iota
	Cutout
	Translucent
)

func (a AlphaMode) String() string {
	switch a {
	case Cutout:
		return "cutout"
	case Translucent:
		return "translucent"
	}
	return "opaque"
}

// TextureInfo describes a decoded texture. Found is false when the image
// is absent or cannot be decoded.
type TextureInfo struct {
	Path      string
	Found     bool
	Width     int
	Height    int
	Frames    int
	FrameTime int
	Alpha     AlphaMode
}

// Animated reports a vertical frame strip.
func (t TextureInfo) Animated() bool { return t.Frames > 1 }

type mcmeta struct {
	Animation *struct {
		FrameTime int `json:"frametime"`
	} `json:"animation"`
}

// TextureInfo decodes assets/<ns>/textures/<path>.png and its .mcmeta.
func (r *Resolver) TextureInfo(path string) TextureInfo {
	key := canonical(path)
	if v, ok := r.infos.Get(key); ok {
		r.metrics.hit("texture_info")
		return v.(TextureInfo)
	}
	r.metrics.miss("texture_info")
	gen := r.generation()

	info := TextureInfo{Path: stripDefaultNamespace(key), Frames: 1}
	if path != MissingTexture {
		if data, err := r.Binary(assetPath("textures", key, ".png")); err == nil {
			analyzeTexture(&info, data)
			if meta, err := r.Binary(assetPath("textures", key, ".png.mcmeta")); err == nil {
				readMcmeta(&info, meta)
			}
		}
	}
	r.store(r.infos, gen, key, info)
	return info
}

func analyzeTexture(info *TextureInfo, data []byte) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		log.Printf("pack: decode %s: %v", info.Path, err)
		return
	}
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	info.Found = true
	info.Width, info.Height = b.Dx(), b.Dy()
	if info.Width > 0 && info.Height > info.Width && info.Height%info.Width == 0 {
		info.Frames = info.Height / info.Width
	}
	for i := 3; i < len(nrgba.Pix); i += 4 {
		switch a := nrgba.Pix[i]; {
		case a == 0:
			if info.Alpha == Opaque {
				info.Alpha = Cutout
			}
		case a < 255:
			info.Alpha = Translucent
			return
		}
	}
}

func readMcmeta(info *TextureInfo, data []byte) {
	var m mcmeta
	if err := json.Unmarshal(data, &m); err != nil {
		log.Printf("pack: mcmeta %s: %v", info.Path, err)
		return
	}
	if m.Animation == nil {
		return
	}
	info.FrameTime = m.Animation.FrameTime
	if info.FrameTime <= 0 {
		info.FrameTime = 1
	}
}
