package render

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/blockmesh/pack"
	"github.com/humboldt-xie/blockmesh/world"
	"github.com/pkg/errors"
)

// waterSurface is the top of a full water block in pixels.
const waterSurface = 14

// BlockRotation is the block-state rotation of one model reference.
type BlockRotation struct {
	X, Y   int
	UVLock bool
}

// Matrix rotates about the block center, x first.
func (r BlockRotation) Matrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(mgl32.DegToRad(float32(-r.Y))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(float32(-r.X))))
}

// Assembler turns merged models into material batched meshes. It keeps no
// state between calls.
type Assembler struct {
	Textures Textures
	Tinter   Tinter
}

func NewAssembler(t Textures, tinter Tinter) *Assembler {
	return &Assembler{Textures: t, Tinter: tinter}
}

// Build assembles one model. It never returns nil: a model without any
// valid face yields a placeholder cube.
func (a *Assembler) Build(m *pack.Model, rot BlockRotation, id world.Identifier, biome world.Biome) *Object {
	name := id.String()
	if m == nil {
		log.Printf("render: %s: no model", name)
		return Placeholder(name)
	}
	fc := &faceContext{model: m, id: id, liquid: id.Liquid(), biome: biome}
	b := newBatcher()
	for i := range m.Elements {
		a.buildElement(fc, &m.Elements[i], i, rot, b)
	}
	if b.faces == 0 {
		log.Printf("render: %s (%s): no faces, using placeholder", name, m.Path)
		obj := Placeholder(name)
		obj.Transform = rot.Matrix()
		return obj
	}
	obj := NewObject(name)
	obj.Transform = rot.Matrix()
	obj.Groups = b.order
	return obj
}

func (a *Assembler) buildElement(fc *faceContext, e *pack.Element, index int, rot BlockRotation, b *batcher) {
	from, to := e.From, e.To
	if fc.liquid == world.Water && to[1] >= 16 {
		to[1] = waterSurface
	}
	lo, hi := centered(from), centered(to)
	xf, err := elementMatrix(e.Rotation)
	if err != nil {
		log.Printf("render: %s element %d: %v", fc.model.Path, index, err)
		return
	}
	shade := e.Shade == nil || *e.Shade

	// stable face order keeps batching deterministic
	dirs := make([]world.Direction, 0, len(e.Faces))
	for d := range e.Faces {
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i] < dirs[j] })

	for _, dir := range dirs {
		face := e.Faces[dir]
		if err := a.buildFace(fc, dir, face, from, to, lo, hi, xf, rot, shade, b); err != nil {
			log.Printf("render: %s element %d face %s: %v", fc.model.Path, index, dir, err)
		}
	}
}

func (a *Assembler) buildFace(fc *faceContext, dir world.Direction, f pack.Face, from, to [3]float32,
	lo, hi mgl32.Vec3, xf *mgl32.Mat4, rot BlockRotation, shade bool, b *batcher) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(pack.ErrInvariant, "%v", r)
		}
	}()

	q, ok := faceQuad(dir, lo, hi)
	if !ok {
		return errors.Wrapf(pack.ErrInvariant, "unknown face direction %d", int(dir))
	}
	normal := faceNormal(dir)
	if xf != nil {
		for i := range q {
			q[i] = mgl32.TransformCoordinate(q[i], *xf)
		}
		normal = mgl32.TransformNormal(normal, *xf)
	}

	uv := defaultUV(dir, from, to)
	if f.UV != nil {
		uv = *f.UV
	}
	rotation := f.Rotation
	if rot.UVLock {
		rotation += uvLock(dir, rot)
	}
	if rotation%90 != 0 {
		return fmt.Errorf("face rotation %d is not a multiple of 90", f.Rotation)
	}

	m := a.material(fc, dir, f, shade)
	b.add(m, q, faceUV(dir, uv, rotation), quadNormal(q, normal))
	return nil
}

// uvLock counter-rotates the up and down faces so their texture stays
// aligned with the world after a y rotation. Faces carried around by an x
// rotation keep their model uv.
func uvLock(dir world.Direction, rot BlockRotation) int {
	switch dir {
	case world.Up:
		return -rot.Y
	case world.Down:
		return rot.Y
	}
	return 0
}

// elementMatrix builds T(origin) * R(axis, angle) * S * T(-origin) in block
// space, or nil when the element is not rotated.
func elementMatrix(r *pack.ElementRotation) (*mgl32.Mat4, error) {
	if r == nil || r.Angle == 0 {
		return nil, nil
	}
	o := centered(r.Origin)
	rad := mgl32.DegToRad(r.Angle)
	var rm mgl32.Mat4
	scale := mgl32.Vec3{1, 1, 1}
	s := float32(1)
	if r.Rescale {
		s = float32(1 / math.Cos(float64(rad)))
	}
	switch r.Axis {
	case world.AxisX:
		rm = mgl32.HomogRotate3DX(rad)
		scale = mgl32.Vec3{1, s, s}
	case world.AxisY:
		rm = mgl32.HomogRotate3DY(rad)
		scale = mgl32.Vec3{s, 1, s}
	case world.AxisZ:
		rm = mgl32.HomogRotate3DZ(rad)
		scale = mgl32.Vec3{s, s, 1}
	default:
		return nil, errors.Errorf("bad rotation axis %s", r.Axis)
	}
	m := mgl32.Translate3D(o.X(), o.Y(), o.Z()).
		Mul4(rm).
		Mul4(mgl32.Scale3D(scale.X(), scale.Y(), scale.Z())).
		Mul4(mgl32.Translate3D(-o.X(), -o.Y(), -o.Z()))
	return &m, nil
}

// Placeholder is the marked magenta cube shown instead of a broken block.
func Placeholder(name string) *Object {
	mat := Material{
		Key:         MaterialKey{Texture: pack.MissingTexture, TintIndex: -1, Shade: true},
		Texture:     pack.MissingTexture,
		Tint:        Magenta,
		Frames:      1,
		Placeholder: true,
	}
	g := NewMeshGroup(mat)
	lo, hi := mgl32.Vec3{-0.5, -0.5, -0.5}, mgl32.Vec3{0.5, 0.5, 0.5}
	for _, dir := range world.Directions {
		q, _ := faceQuad(dir, lo, hi)
		g.AddQuad(q, faceUV(dir, [4]float32{0, 0, 16, 16}, 0), quadNormal(q, faceNormal(dir)))
	}
	obj := NewObject(name)
	obj.Groups = []*MeshGroup{g}
	obj.Placeholder = true
	return obj
}
