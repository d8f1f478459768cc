package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/material"
)

// Quad represents a parallelogram defined by a corner and two edge vectors
type Quad struct {
	Base
	Corner core.Vec3 // One corner of the quad
	U      core.Vec3 // First edge vector
	V      core.Vec3 // Second edge vector
	Normal core.Vec3 // Unit normal, U × V normalized
	D      float64   // Plane equation constant: normal · p = d
	W      core.Vec3 // Cached n / (n · (u × v)) for planar coordinates
}

// NewQuad creates a new quad from a corner point and two edge vectors
func NewQuad(corner, u, v core.Vec3, mat material.Material) *Quad {
	q := &Quad{}
	q.material = mat
	q.set(corner, u, v)
	return q
}

func (q *Quad) set(corner, u, v core.Vec3) {
	cross := u.Cross(v)
	normal := cross.Normalize()
	q.Corner = corner
	q.U = u
	q.V = v
	q.Normal = normal
	q.D = normal.Dot(corner)
	q.W = normal.Multiply(1.0 / normal.Dot(cross))
}

// SetCorner moves the quad without changing its shape
func (q *Quad) SetCorner(corner core.Vec3) {
	q.set(corner, q.U, q.V)
	q.MarkDirty()
}

// Hit tests if a ray intersects with the quad
func (q *Quad) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	// Parallel rays miss
	denominator := ray.Direction.Dot(q.Normal)
	if math.Abs(denominator) < 1e-8 {
		return core.PreliminaryIntersection{}, false
	}

	t := (q.D - ray.Origin.Dot(q.Normal)) / denominator
	if t < tMin || t > tMax {
		return core.PreliminaryIntersection{}, false
	}

	// Planar coordinates of the hit point along U and V
	hitVector := ray.At(t).Subtract(q.Corner)
	alpha := q.W.Dot(hitVector.Cross(q.V))
	beta := q.W.Dot(q.U.Cross(hitVector))
	if alpha < 0 || alpha > 1 || beta < 0 || beta > 1 {
		return core.PreliminaryIntersection{}, false
	}

	return core.PreliminaryIntersection{T: t, PrimUV: core.NewVec2(alpha, beta)}, true
}

// ComputeSurfaceInteraction fills in position and face-forward normal. The
// planar coordinates found by Hit double as UV.
func (q *Quad) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	var si core.SurfaceInteraction
	si.P = ray.At(pi.T)
	setFaceNormal(&si, ray, q.Normal)
	if flags.Has(core.RayFlagUV) {
		si.UV = pi.PrimUV
	}
	if flags.Has(core.RayFlagDPdUV) {
		si.DPdU = q.U
		si.DPdV = q.V
	}
	return si
}

// BoundingBox returns the bounds of the four corners, padded so axis-aligned
// quads do not produce a flat box
func (q *Quad) BoundingBox() core.AABB {
	box := core.NewAABBFromPoints(
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.V),
		q.Corner.Add(q.U).Add(q.V),
	)
	return box.Expand(1e-4)
}

// Sample picks a point uniformly on the quad
func (q *Quad) Sample(u core.Vec2) (core.Vec3, core.Vec3) {
	p := q.Corner.Add(q.U.Multiply(u.X)).Add(q.V.Multiply(u.Y))
	return p, q.Normal
}

// Area returns |U × V|
func (q *Quad) Area() float64 {
	return q.U.Cross(q.V).Length()
}

func (q *Quad) String() string {
	return fmt.Sprintf("Quad[\n  corner = %v,\n  u = %v,\n  v = %v\n]", q.Corner, q.U, q.V)
}
