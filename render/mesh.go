package render

import (
	"github.com/go-gl/mathgl/mgl32"
)

// MeshGroup is one draw unit: merged buffers sharing a material.
type MeshGroup struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals"`
	UVs       []float32 `json:"uvs"`
	Indices   []uint32  `json:"indices"`
	Material  Material  `json:"material"`
}

func NewMeshGroup(m Material) *MeshGroup {
	return &MeshGroup{Material: m}
}

func (g *MeshGroup) VertexCount() int {
	return len(g.Positions) / 3
}

// AddQuad appends one face as two triangles sharing vertices 0 and 2.
func (g *MeshGroup) AddQuad(q [4]mgl32.Vec3, uv [4]mgl32.Vec2, n mgl32.Vec3) {
	base := uint32(g.VertexCount())
	for i := 0; i < 4; i++ {
		g.Positions = append(g.Positions, q[i].X(), q[i].Y(), q[i].Z())
		g.Normals = append(g.Normals, n.X(), n.Y(), n.Z())
		g.UVs = append(g.UVs, uv[i].X(), uv[i].Y())
	}
	g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Merge appends o's buffers, offsetting its indices.
func (g *MeshGroup) Merge(o *MeshGroup) {
	base := uint32(g.VertexCount())
	g.Positions = append(g.Positions, o.Positions...)
	g.Normals = append(g.Normals, o.Normals...)
	g.UVs = append(g.UVs, o.UVs...)
	for _, i := range o.Indices {
		g.Indices = append(g.Indices, base+i)
	}
}

// Transformed returns a copy with positions and normals moved by m.
func (g *MeshGroup) Transformed(m mgl32.Mat4) *MeshGroup {
	nm := m.Mat3().Inv().Transpose()
	out := &MeshGroup{
		Positions: make([]float32, len(g.Positions)),
		Normals:   make([]float32, len(g.Normals)),
		UVs:       append([]float32(nil), g.UVs...),
		Indices:   append([]uint32(nil), g.Indices...),
		Material:  g.Material,
	}
	for i := 0; i+2 < len(g.Positions); i += 3 {
		p := mgl32.TransformCoordinate(mgl32.Vec3{g.Positions[i], g.Positions[i+1], g.Positions[i+2]}, m)
		copy(out.Positions[i:], p[:])
	}
	for i := 0; i+2 < len(g.Normals); i += 3 {
		n := nm.Mul3x1(mgl32.Vec3{g.Normals[i], g.Normals[i+1], g.Normals[i+2]})
		if n.Len() > 0 {
			n = n.Normalize()
		}
		copy(out.Normals[i:], n[:])
	}
	return out
}

// batcher groups faces by material key, keeping first-seen order.
type batcher struct {
	groups map[MaterialKey]*MeshGroup
	order  []*MeshGroup
	faces  int
}

func newBatcher() *batcher {
	return &batcher{groups: map[MaterialKey]*MeshGroup{}}
}

func (b *batcher) group(m Material) *MeshGroup {
	g, ok := b.groups[m.Key]
	if !ok {
		g = NewMeshGroup(m)
		b.groups[m.Key] = g
		b.order = append(b.order, g)
	}
	return g
}

func (b *batcher) add(m Material, q [4]mgl32.Vec3, uv [4]mgl32.Vec2, n mgl32.Vec3) {
	b.group(m).AddQuad(q, uv, n)
	b.faces++
}

// Object is a node of the assembled scene. Transform applies to Groups
// and to every child.
type Object struct {
	Name        string       `json:"name"`
	Transform   mgl32.Mat4   `json:"transform"`
	Groups      []*MeshGroup `json:"groups,omitempty"`
	Children    []*Object    `json:"children,omitempty"`
	Placeholder bool         `json:"placeholder,omitempty"`
}

func NewObject(name string) *Object {
	return &Object{Name: name, Transform: mgl32.Ident4()}
}

func (o *Object) Add(child *Object) {
	o.Children = append(o.Children, child)
}

// IsPlaceholder reports whether o or any descendant is a placeholder.
func (o *Object) IsPlaceholder() bool {
	if o.Placeholder {
		return true
	}
	for _, c := range o.Children {
		if c.IsPlaceholder() {
			return true
		}
	}
	return false
}

// Bake flattens the tree into groups in the root's space, merging groups
// that share a material key.
func (o *Object) Bake() []*MeshGroup {
	b := newBatcher()
	o.bake(mgl32.Ident4(), b)
	return b.order
}

func (o *Object) bake(parent mgl32.Mat4, b *batcher) {
	m := parent.Mul4(o.Transform)
	for _, g := range o.Groups {
		t := g.Transformed(m)
		if existing, ok := b.groups[g.Material.Key]; ok {
			existing.Merge(t)
			continue
		}
		b.groups[g.Material.Key] = t
		b.order = append(b.order, t)
	}
	for _, c := range o.Children {
		c.bake(m, b)
	}
}
