package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/material"
)

// Triangle represents a single triangle defined by three vertices.
// Intersections report barycentric coordinates of V1 and V2 in PrimUV.
type Triangle struct {
	Base
	V0, V1, V2 core.Vec3 // The three vertices
	normal     core.Vec3 // Cached normal vector
}

// NewTriangle creates a new triangle from three vertices. The normal follows
// the winding (V1-V0) × (V2-V0).
func NewTriangle(v0, v1, v2 core.Vec3, mat material.Material) *Triangle {
	t := &Triangle{}
	t.material = mat
	t.set(v0, v1, v2)
	return t
}

// NewTriangleWithNormal creates a new triangle from three vertices with a custom normal
func NewTriangleWithNormal(v0, v1, v2, normal core.Vec3, mat material.Material) *Triangle {
	t := &Triangle{V0: v0, V1: v1, V2: v2, normal: normal.Normalize()}
	t.material = mat
	return t
}

func (t *Triangle) set(v0, v1, v2 core.Vec3) {
	t.V0, t.V1, t.V2 = v0, v1, v2
	t.normal = v1.Subtract(v0).Cross(v2.Subtract(v0)).Normalize()
}

// SetVertices replaces the vertices and flags the triangle for a structure refresh
func (t *Triangle) SetVertices(v0, v1, v2 core.Vec3) {
	t.set(v0, v1, v2)
	t.MarkDirty()
}

// Normal returns the triangle's unit normal
func (t *Triangle) Normal() core.Vec3 {
	return t.normal
}

// Hit tests if a ray intersects with the triangle using the Möller-Trumbore algorithm
func (t *Triangle) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	const epsilon = 1e-8

	edge1 := t.V1.Subtract(t.V0)
	edge2 := t.V2.Subtract(t.V0)

	// Near-zero determinant: the ray lies in the triangle's plane
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return core.PreliminaryIntersection{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return core.PreliminaryIntersection{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return core.PreliminaryIntersection{}, false
	}

	dist := f * edge2.Dot(q)
	if dist < tMin || dist > tMax {
		return core.PreliminaryIntersection{}, false
	}
	return core.PreliminaryIntersection{T: dist, PrimUV: core.NewVec2(u, v)}, true
}

// ComputeSurfaceInteraction fills in position and face-forward normal
func (t *Triangle) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	var si core.SurfaceInteraction
	si.P = ray.At(pi.T)
	setFaceNormal(&si, ray, t.normal)
	if flags.Has(core.RayFlagUV) {
		si.UV = pi.PrimUV
	}
	if flags.Has(core.RayFlagDPdUV) {
		si.DPdU = t.V1.Subtract(t.V0)
		si.DPdV = t.V2.Subtract(t.V0)
	}
	return si
}

// BoundingBox returns the vertex bounds, padded so axis-aligned triangles do
// not produce a flat box
func (t *Triangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(t.V0, t.V1, t.V2).Expand(1e-4)
}

// Sample picks a point uniformly on the triangle
func (t *Triangle) Sample(u core.Vec2) (core.Vec3, core.Vec3) {
	su0 := math.Sqrt(u.X)
	b0 := 1 - su0
	b1 := u.Y * su0
	p := t.V0.Multiply(b0).Add(t.V1.Multiply(b1)).Add(t.V2.Multiply(1 - b0 - b1))
	return p, t.normal
}

// Area returns half the parallelogram spanned by the edges
func (t *Triangle) Area() float64 {
	return 0.5 * t.V1.Subtract(t.V0).Cross(t.V2.Subtract(t.V0)).Length()
}

func (t *Triangle) String() string {
	return fmt.Sprintf("Triangle[\n  v0 = %v,\n  v1 = %v,\n  v2 = %v\n]", t.V0, t.V1, t.V2)
}
