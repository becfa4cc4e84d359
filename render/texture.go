package render

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/tint"
	"github.com/humboldt-xie/blockmesh/world"
)

// Textures is the part of the archive resolver the assembler reads.
type Textures interface {
	ResolveTexture(ref string, m *pack.Model) string
	TextureInfo(path string) pack.TextureInfo
}

// Tinter computes a color multiplier for a block.
type Tinter interface {
	Tint(id string, props map[string]string, biome world.Biome) mgl32.Vec3
}

// faceContext carries what every face of one Build shares.
type faceContext struct {
	model  *pack.Model
	id     world.Identifier
	liquid world.Liquid
	biome  world.Biome
}

// faceTexture resolves a face's texture; liquids always sample the still
// texture on up/down and the flowing one on the sides.
func (a *Assembler) faceTexture(fc *faceContext, dir world.Direction, f pack.Face) string {
	if fc.liquid == world.NoLiquid {
		return a.Textures.ResolveTexture(f.Texture, fc.model)
	}
	still, flow := pack.LiquidTextures(fc.liquid)
	ref, def := "#flow", flow
	if dir == world.Up || dir == world.Down {
		ref, def = "#still", still
	}
	if tex := a.Textures.ResolveTexture(ref, fc.model); tex != pack.MissingTexture {
		return tex
	}
	return def
}

func (a *Assembler) material(fc *faceContext, dir world.Direction, f pack.Face, shade bool) Material {
	tex := a.faceTexture(fc, dir, f)
	tintIndex := -1
	if f.TintIndex != nil {
		tintIndex = *f.TintIndex
	}
	key := MaterialKey{
		Texture:   tex,
		Direction: dir,
		TintIndex: tintIndex,
		Cullface:  f.Cullface,
		Liquid:    fc.liquid,
		Shade:     shade,
	}
	if fc.liquid == world.Water {
		key.Biome = fc.biome.Name
	}

	info := a.Textures.TextureInfo(tex)
	m := Material{
		Key:          key,
		Texture:      tex,
		Tint:         tint.White,
		Transparency: transparency(fc.model, info),
		Liquid:       fc.liquid,
		Animated:     info.Animated(),
		Frames:       info.Frames,
		FrameTime:    info.FrameTime,
		Placeholder:  tex == pack.MissingTexture,
	}
	if tintIndex >= 0 {
		m.Tint = a.Tinter.Tint(fc.id.ID(), fc.id.Properties, fc.biome)
	}
	switch fc.liquid {
	case world.Water:
		if m.Tint == tint.White {
			m.Tint = tint.RGB(fc.biome.Water())
		}
		m.Transparency = Translucent
		m.Animated = true
	case world.Lava:
		m.Animated = true
	}
	m.DoubleSided = m.Transparency != Opaque || fc.liquid != world.NoLiquid
	return m
}

// transparency prefers the model's render_type over the texture alpha.
func transparency(m *pack.Model, info pack.TextureInfo) Transparency {
	if m != nil && m.RenderType != "" {
		_, rt := world.SplitNamespace(m.RenderType)
		switch {
		case strings.HasPrefix(rt, "cutout"):
			return Cutout
		case rt == "translucent":
			return Translucent
		case rt == "solid":
			return Opaque
		}
	}
	switch info.Alpha {
	case pack.Cutout:
		return Cutout
	case pack.Translucent:
		return Translucent
	}
	return Opaque
}
