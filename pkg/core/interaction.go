package core

import (
	"math"
)

const (
	// RayEpsilon is the minimum hit distance accepted by shapes, avoiding self-intersection
	RayEpsilon = 1e-4

	// ShadowEpsilon shortens visibility segments so the target surface is not reported as an occluder
	ShadowEpsilon = 1e-3
)

// RayFlags select which derived fields of a SurfaceInteraction are computed
type RayFlags uint32

const (
	// RayFlagUV computes surface UV coordinates
	RayFlagUV RayFlags = 1 << iota
	// RayFlagShadingFrame computes the shading normal
	RayFlagShadingFrame
	// RayFlagDPdUV computes position partials with respect to UV
	RayFlagDPdUV
)

const (
	// RayFlagMinimal computes only position, distance and geometric normal
	RayFlagMinimal RayFlags = 0
	// RayFlagAll computes every derived field
	RayFlagAll = RayFlagUV | RayFlagShadingFrame | RayFlagDPdUV
)

// Has reports whether all bits of other are set
func (f RayFlags) Has(other RayFlags) bool {
	return f&other == other
}

// Mask marks which lanes of a batch are live. A nil mask means every lane is active.
type Mask []bool

// Active reports whether lane i is live
func (m Mask) Active(i int) bool {
	return m == nil || m[i]
}

// Any reports whether at least one of n lanes is live
func (m Mask) Any(n int) bool {
	if m == nil {
		return n > 0
	}
	for i := 0; i < n; i++ {
		if m[i] {
			return true
		}
	}
	return false
}

// Interaction is a point in the scene with a geometric normal
type Interaction struct {
	T    float64 // Ray distance; +Inf when nothing was hit
	P    Vec3    // Position
	N    Vec3    // Geometric normal, zero for points in free space
	Time float64
}

// IsValid reports whether the interaction refers to an actual hit
func (it Interaction) IsValid() bool {
	return !math.IsInf(it.T, 1)
}

// SpawnRay creates a ray leaving the interaction in direction d
func (it Interaction) SpawnRay(d Vec3) Ray {
	ray := NewRay(it.P, d)
	ray.Time = it.Time
	return ray
}

// SpawnRayTo creates a unit-direction segment from the interaction toward p that stops just short of p
func (it Interaction) SpawnRayTo(p Vec3) Ray {
	d := p.Subtract(it.P)
	dist := d.Length()
	if dist == 0 {
		return Ray{Origin: it.P, Time: it.Time}
	}
	ray := NewSegment(it.P, d.Multiply(1/dist), dist*(1-ShadowEpsilon))
	ray.Time = it.Time
	return ray
}

// PreliminaryIntersection holds just enough about a hit to build the full SurfaceInteraction later
type PreliminaryIntersection struct {
	T           float64 // Ray distance; +Inf when nothing was hit
	PrimUV      Vec2    // Primitive-local hit coordinates
	PrimIndex   int     // Primitive index within the shape
	MemberIndex int     // Member slot when the shape is a group
	ShapeIndex  int     // Index of the shape in the scene's surface list, -1 if none
	Shape       Shape
}

// NoPreliminaryIntersection is the well-defined "no hit" record
func NoPreliminaryIntersection() PreliminaryIntersection {
	return PreliminaryIntersection{T: math.Inf(1), ShapeIndex: -1}
}

// IsValid reports whether the record refers to an actual hit
func (pi PreliminaryIntersection) IsValid() bool {
	return pi.Shape != nil && !math.IsInf(pi.T, 1)
}

// ComputeSurfaceInteraction lazily builds the full interaction for the ray that produced this record
func (pi PreliminaryIntersection) ComputeSurfaceInteraction(ray Ray, flags RayFlags) SurfaceInteraction {
	if !pi.IsValid() {
		return NoSurfaceInteraction(ray)
	}
	si := pi.Shape.ComputeSurfaceInteraction(ray, pi, flags)
	si.Shape = pi.Shape
	si.ShapeIndex = pi.ShapeIndex
	si.PrimIndex = pi.PrimIndex
	si.T = pi.T
	si.Time = ray.Time
	si.Wi = ray.Direction.Normalize().Negate()
	return si
}

// SurfaceInteraction describes a ray-surface hit in full
type SurfaceInteraction struct {
	Interaction
	Shape         Shape
	ShapeIndex    int
	PrimIndex     int
	UV            Vec2
	ShadingNormal Vec3
	DPdU, DPdV    Vec3
	Wi            Vec3 // Unit direction back toward the ray origin
	FrontFace     bool
}

// NoSurfaceInteraction is the well-defined "no hit" record for a ray
func NoSurfaceInteraction(ray Ray) SurfaceInteraction {
	return SurfaceInteraction{
		Interaction: Interaction{T: math.Inf(1), Time: ray.Time},
		ShapeIndex:  -1,
		Wi:          ray.Direction.Normalize().Negate(),
	}
}

// IsValid reports whether the interaction refers to an actual hit
func (si SurfaceInteraction) IsValid() bool {
	return si.Shape != nil && si.Interaction.IsValid()
}

// Shape is the geometry contract consumed by acceleration backends
type Shape interface {
	// BoundingBox returns the world-space bounds of the shape
	BoundingBox() AABB

	// Hit finds the closest intersection with t in [tMin, tMax]. Only T, PrimUV and
	// PrimIndex need to be filled in.
	Hit(ray Ray, tMin, tMax float64) (PreliminaryIntersection, bool)

	// ComputeSurfaceInteraction expands a preliminary hit into position, normals and
	// whatever flags requests.
	ComputeSurfaceInteraction(ray Ray, pi PreliminaryIntersection, flags RayFlags) SurfaceInteraction
}

// DirectionSample records a point sampled on an emitter as seen from a reference point
type DirectionSample struct {
	P     Vec3    // Sampled position on the emitter
	N     Vec3    // Emitter normal at P, zero for points and directions at infinity
	UV    Vec2    // Surface coordinates of P, when the emitter has them
	Time  float64 // Time of the sample
	Pdf   float64 // Solid angle density; 0 marks an invalid sample
	Delta bool    // Sampled from a delta distribution (pdf is a discrete probability)
	D     Vec3    // Unit direction from the reference point toward P
	Dist  float64 // Distance from the reference point to P

	// Emitter is the light that produced the sample
	Emitter any
}

// IsValid reports whether the sample carries any density
func (ds DirectionSample) IsValid() bool {
	return ds.Pdf > 0
}
