package render

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/humboldt-xie/blockmesh/world"
)

// baseRotation aligns each face's texture seam with the reference
// renderer. Values are degrees and are added to the face's own rotation.
var baseRotation = map[world.Direction]int{
	world.Up:    0,
	world.Down:  90,
	world.South: 90,
	world.West:  90,
	world.North: 180,
	world.East:  180,
}

// centered maps 0..16 pixel coordinates into the [-0.5, 0.5] block cube.
func centered(v [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{v[0]/16 - 0.5, v[1]/16 - 0.5, v[2]/16 - 0.5}
}

// faceQuad returns the four corners of a face, counter-clockwise seen from
// outside, starting at the face's minimum corner.
func faceQuad(dir world.Direction, from, to mgl32.Vec3) ([4]mgl32.Vec3, bool) {
	x0, y0, z0 := from.X(), from.Y(), from.Z()
	x1, y1, z1 := to.X(), to.Y(), to.Z()
	switch dir {
	case world.Up:
		return [4]mgl32.Vec3{{x0, y1, z0}, {x0, y1, z1}, {x1, y1, z1}, {x1, y1, z0}}, true
	case world.Down:
		return [4]mgl32.Vec3{{x0, y0, z0}, {x1, y0, z0}, {x1, y0, z1}, {x0, y0, z1}}, true
	case world.South:
		return [4]mgl32.Vec3{{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1}}, true
	case world.North:
		return [4]mgl32.Vec3{{x0, y0, z0}, {x0, y1, z0}, {x1, y1, z0}, {x1, y0, z0}}, true
	case world.East:
		return [4]mgl32.Vec3{{x1, y0, z0}, {x1, y1, z0}, {x1, y1, z1}, {x1, y0, z1}}, true
	case world.West:
		return [4]mgl32.Vec3{{x0, y0, z0}, {x0, y0, z1}, {x0, y1, z1}, {x0, y1, z0}}, true
	}
	return [4]mgl32.Vec3{}, false
}

// faceNormal is the outward unit normal of an axis aligned face.
func faceNormal(dir world.Direction) mgl32.Vec3 {
	o := dir.Offset()
	return mgl32.Vec3{float32(o.X), float32(o.Y), float32(o.Z)}
}

// quadNormal computes the normal from the quad winding, falling back to
// def for degenerate quads.
func quadNormal(q [4]mgl32.Vec3, def mgl32.Vec3) mgl32.Vec3 {
	n := q[1].Sub(q[0]).Cross(q[2].Sub(q[0]))
	if n.Len() < 1e-6 {
		return def
	}
	return n.Normalize()
}

// defaultUV is the rectangle a face samples when it has no "uv", derived
// from the element bounds in pixel space.
func defaultUV(dir world.Direction, from, to [3]float32) [4]float32 {
	x1, y1, z1 := from[0], from[1], from[2]
	x2, y2, z2 := to[0], to[1], to[2]
	switch dir {
	case world.Down:
		return [4]float32{x1, 16 - z2, x2, 16 - z1}
	case world.Up:
		return [4]float32{x1, z1, x2, z2}
	case world.North:
		return [4]float32{16 - x2, 16 - y2, 16 - x1, 16 - y1}
	case world.South:
		return [4]float32{x1, 16 - y2, x2, 16 - y1}
	case world.West:
		return [4]float32{z1, 16 - y2, z2, 16 - y1}
	case world.East:
		return [4]float32{16 - z2, 16 - y2, 16 - z1, 16 - y1}
	}
	return [4]float32{0, 0, 16, 16}
}

// uvCorners normalizes a pixel rectangle and lists its corners in the
// order top-left, bottom-left, bottom-right, top-right. V is flipped so
// that image row 0 maps to v=1.
func uvCorners(uv [4]float32) [4]mgl32.Vec2 {
	u1, v1 := uv[0]/16, 1-uv[1]/16
	u2, v2 := uv[2]/16, 1-uv[3]/16
	return [4]mgl32.Vec2{{u1, v1}, {u1, v2}, {u2, v2}, {u2, v1}}
}

// RotateUV shifts the corner assignment by deg, a multiple of 90.
// Vertex i of the quad receives corner (i + deg/90) mod 4.
func RotateUV(c [4]mgl32.Vec2, deg int) [4]mgl32.Vec2 {
	k := steps(deg)
	var out [4]mgl32.Vec2
	for i := range out {
		out[i] = c[(i+k)%4]
	}
	return out
}

func steps(deg int) int {
	k := (deg / 90) % 4
	if k < 0 {
		k += 4
	}
	return k
}

// faceUV maps a face rectangle onto the quad corners of dir.
func faceUV(dir world.Direction, uv [4]float32, rotation int) [4]mgl32.Vec2 {
	return RotateUV(uvCorners(uv), baseRotation[dir]+rotation)
}
