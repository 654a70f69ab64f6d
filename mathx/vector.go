// Package mathx carries the small vector/extents math the mesh importer and
// shader vertex-layout code need, trimmed from the engine's general-purpose
// math module down to what the content pipeline actually touches.
package mathx

import "math"

type Vec2 struct{ X, Y float32 }

type Vec3 struct{ X, Y, Z float32 }

type Vec4 struct{ X, Y, Z, W float32 }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

func (v Vec3) Min(o Vec3) Vec3 {
	return Vec3{min32(v.X, o.X), min32(v.Y, o.Y), min32(v.Z, o.Z)}
}

func (v Vec3) Max(o Vec3) Vec3 {
	return Vec3{max32(v.X, o.X), max32(v.Y, o.Y), max32(v.Z, o.Z)}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Extents3D is the axis-aligned bounding box of a mesh's geometry, computed
// by the mesh importer (§4.6) and written into the mesh artifact's tree.
type Extents3D struct {
	Min Vec3
	Max Vec3
}

// Grow expands the extents to include p, returning the updated box. The
// zero-value Extents3D is not a valid starting point (Min > Max); callers
// seed it from the first vertex.
func (e Extents3D) Grow(p Vec3) Extents3D {
	return Extents3D{Min: e.Min.Min(p), Max: e.Max.Max(p)}
}

func NewExtents3D(seed Vec3) Extents3D {
	return Extents3D{Min: seed, Max: seed}
}

func (e Extents3D) Center() Vec3 {
	return Vec3{
		X: (e.Min.X + e.Max.X) / 2,
		Y: (e.Min.Y + e.Max.Y) / 2,
		Z: (e.Min.Z + e.Max.Z) / 2,
	}
}

// Vertex3D is one vertex of an imported mesh, matching the canonical
// attribute layout the shader vertex-input block (§4.8 phase 4) expects:
// position, normal, texcoord, tangent.
type Vertex3D struct {
	Position Vec3
	Normal   Vec3
	Texcoord Vec2
	Tangent  Vec3
}

// Mat4 is a column-major 4x4 matrix. No package in this module uses it: the
// OBJ mesh importer has no node transforms, and the pipeline performs no
// matrix algebra itself.
type Mat4 struct {
	Data [16]float32
}

func Mat4Identity() Mat4 {
	var m Mat4
	m.Data[0], m.Data[5], m.Data[10], m.Data[15] = 1, 1, 1, 1
	return m
}
