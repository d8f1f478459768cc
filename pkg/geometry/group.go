package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// Group collects shapes for instancing. The scene keeps groups aside: they are
// neither intersected directly nor counted in the scene bounds.
type Group struct {
	Base
	shapes []core.Shape
}

// NewGroup creates a group over shapes
func NewGroup(shapes ...core.Shape) *Group {
	return &Group{shapes: shapes}
}

// IsShapeGroup marks the group as an instancing container
func (g *Group) IsShapeGroup() bool { return true }

// Shapes returns the grouped shapes
func (g *Group) Shapes() []core.Shape { return g.shapes }

// BoundingBox returns the union of the member bounds
func (g *Group) BoundingBox() core.AABB {
	box := core.EmptyAABB()
	for _, shape := range g.shapes {
		box = box.Union(shape.BoundingBox())
	}
	return box
}

// Hit finds the closest member hit. MemberIndex records the member; the rest
// of the record is the member's own.
func (g *Group) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	closest := core.PreliminaryIntersection{T: math.Inf(1)}
	hit := false
	for i, shape := range g.shapes {
		if pi, ok := shape.Hit(ray, tMin, tMax); ok {
			pi.MemberIndex = i
			closest = pi
			tMax = pi.T
			hit = true
		}
	}
	return closest, hit
}

// ComputeSurfaceInteraction delegates to the member that was hit
func (g *Group) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	return g.shapes[pi.MemberIndex].ComputeSurfaceInteraction(ray, pi, flags)
}

func (g *Group) String() string {
	return fmt.Sprintf("ShapeGroup[\n  shapes = %d\n]", len(g.shapes))
}
