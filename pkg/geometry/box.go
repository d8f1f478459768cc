package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/material"
)

// Box represents a rectangular box made up of 6 quads with optional rotation.
// PrimIndex of its intersections names the face that was hit.
type Box struct {
	Base
	center   core.Vec3 // Center point of the box
	size     core.Vec3 // Half-extents along each local axis
	rotation core.Vec3 // Rotation angles in radians (X, Y, Z)
	faces    [6]*Quad
	bbox     core.AABB
}

// NewBox creates a new box with the given center, size, rotation, and material
// Size represents half-extents (so a size of (1,1,1) creates a 2x2x2 box)
// Rotation is in radians around X, Y, Z axes (applied in that order)
func NewBox(center, size, rotation core.Vec3, mat material.Material) *Box {
	b := &Box{center: center, size: size, rotation: rotation}
	b.material = mat
	b.generateFaces()
	return b
}

// NewAxisAlignedBox creates a new axis-aligned box (no rotation)
func NewAxisAlignedBox(center, size core.Vec3, mat material.Material) *Box {
	return NewBox(center, size, core.Vec3{}, mat)
}

// Center returns the box center
func (b *Box) Center() core.Vec3 { return b.center }

// SetCenter moves the box and flags it for a structure refresh
func (b *Box) SetCenter(center core.Vec3) {
	b.center = center
	b.generateFaces()
	b.MarkDirty()
}

// Face returns one of the six faces in the order +Z, -Z, +X, -X, +Y, -Y
func (b *Box) Face(i int) *Quad { return b.faces[i] }

// generateFaces creates the 6 outward-facing quads from the transformed corners
func (b *Box) generateFaces() {
	corners := [8]core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}

	toWorld := core.Translate(b.center).Compose(core.RotateXYZ(b.rotation))
	for i := range corners {
		corners[i] = toWorld.Point(corners[i].MultiplyVec(b.size))
	}

	// Corner, then the edges along u and v of each face
	layout := [6][3]int{
		{4, 5, 7}, // Front (Z+)
		{1, 0, 2}, // Back (Z-)
		{5, 1, 6}, // Right (X+)
		{0, 4, 3}, // Left (X-)
		{3, 7, 2}, // Top (Y+)
		{4, 0, 5}, // Bottom (Y-)
	}
	for i, f := range layout {
		origin := corners[f[0]]
		b.faces[i] = NewQuad(origin, corners[f[1]].Subtract(origin), corners[f[2]].Subtract(origin), nil)
	}

	b.bbox = core.NewAABBFromPoints(corners[:]...).Expand(1e-4)
}

// Hit tests if a ray intersects with any face of the box
func (b *Box) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	closest := core.PreliminaryIntersection{T: math.Inf(1)}
	hit := false
	for i, face := range b.faces {
		if pi, ok := face.Hit(ray, tMin, tMax); ok {
			pi.PrimIndex = i
			closest = pi
			tMax = pi.T
			hit = true
		}
	}
	return closest, hit
}

// ComputeSurfaceInteraction delegates to the face that was hit
func (b *Box) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	return b.faces[pi.PrimIndex].ComputeSurfaceInteraction(ray, pi, flags)
}

// BoundingBox returns the axis-aligned bounding box for this box
func (b *Box) BoundingBox() core.AABB {
	return b.bbox
}

func (b *Box) String() string {
	return fmt.Sprintf("Box[\n  center = %v,\n  size = %v,\n  rotation = %v\n]", b.center, b.size, b.rotation)
}
