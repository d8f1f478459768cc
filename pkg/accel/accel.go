// Package accel builds and queries spatial indices over a scene's surfaces.
//
// Three interchangeable backends implement the same Backend contract:
//
//   - "bvh": pointer-based bounding volume hierarchy, the software default
//   - "linear": depth-first flattened hierarchy with stack traversal
//   - "wavefront": flattened hierarchy whose batches are split into waves and
//     executed on a process-global executor (requires StaticInit)
//
// Exactly one backend is active per process. It is chosen at build time with
// the "linear" or "wavefront" build tags and reported by Active.
package accel

import (
	"errors"
	"fmt"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// Backend names.
const (
	NameBVH       = "bvh"
	NameLinear    = "linear"
	NameWavefront = "wavefront"
)

// Common backend errors.
var (
	// ErrNotImplemented is returned when the active backend does not provide an operation.
	ErrNotImplemented = errors.New("accel: operation not implemented by backend")

	// ErrNotInitialized is returned when a backend needing process-wide state is used before StaticInit.
	ErrNotInitialized = errors.New("accel: backend not initialized")

	// ErrReleased is returned by queries and refreshes issued after Release.
	ErrReleased = errors.New("accel: structure released")

	// ErrInvalidIndex is returned when Refresh names a surface outside the build list.
	ErrInvalidIndex = errors.New("accel: surface index out of range")

	// ErrUnknownBackend is returned by New for unregistered names.
	ErrUnknownBackend = errors.New("accel: unknown backend")
)

// Backend is a spatial index over a fixed, indexed list of shapes.
//
// Queries operate on batches of lanes. out must be at least as long as rays and
// active, when non-nil, must have the same length as rays. Inactive lanes receive
// the "no hit" record and are not traversed.
//
// Queries may run concurrently with each other, never with Build, Refresh or Release.
type Backend interface {
	// Name returns the backend identifier.
	Name() string

	// Build indexes shapes. Indices into shapes identify surfaces in every other call.
	Build(shapes []core.Shape) error

	// Intersect finds the closest hit per lane and computes the fields selected by flags.
	// coherent signals that the rays of the batch travel in similar directions.
	Intersect(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask, out []core.SurfaceInteraction) error

	// IntersectPreliminary finds the closest hit per lane without computing shading data.
	IntersectPreliminary(rays []core.Ray, coherent bool, active core.Mask, out []core.PreliminaryIntersection) error

	// Test reports per lane whether anything is hit within the ray's range.
	Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error

	// IntersectNaive scans every shape linearly. Backends without a brute-force
	// path return ErrNotImplemented.
	IntersectNaive(rays []core.Ray, active core.Mask, out []core.SurfaceInteraction) error

	// Refresh incorporates changes of the listed surfaces. Other surfaces keep
	// their query results.
	Refresh(dirty []int) error

	// Release tears the structure down. Safe to call more than once.
	Release()

	// Stats returns structure and traffic counters.
	Stats() Stats
}

// Stats describes a built structure and the traffic it served
type Stats struct {
	Shapes    int
	Nodes     int
	Leaves    int
	MaxDepth  int
	Refreshes int
	Rebuilds  int

	NearestQueries     int64
	PreliminaryQueries int64
	OcclusionQueries   int64
}

// String returns a compact description for logs
func (s Stats) String() string {
	return fmt.Sprintf("shapes=%d nodes=%d leaves=%d depth=%d refreshes=%d rebuilds=%d",
		s.Shapes, s.Nodes, s.Leaves, s.MaxDepth, s.Refreshes, s.Rebuilds)
}

// New creates an unbuilt backend by name
func New(name string) (Backend, error) {
	b := Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// NewActive creates an unbuilt instance of the backend selected at build time
func NewActive() (Backend, error) {
	return New(Active())
}

// checkLanes panics on mismatched batch sizes, which are programming errors
func checkLanes(n int, active core.Mask, out int) {
	if active != nil && len(active) != n {
		panic(fmt.Sprintf("accel: mask length (%d) must match ray count (%d)", len(active), n))
	}
	if out < n {
		panic(fmt.Sprintf("accel: output length (%d) smaller than ray count (%d)", out, n))
	}
}

// firstActive returns the index of the first live lane, or -1
func firstActive(n int, active core.Mask) int {
	for i := 0; i < n; i++ {
		if active.Active(i) {
			return i
		}
	}
	return -1
}

// naiveNearest scans every shape and returns the closest hit
func naiveNearest(shapes []core.Shape, ray core.Ray) core.PreliminaryIntersection {
	best := core.NoPreliminaryIntersection()
	closestSoFar := ray.TMax
	for i, shape := range shapes {
		if hit, ok := shape.Hit(ray, core.RayEpsilon, closestSoFar); ok {
			closestSoFar = hit.T
			hit.Shape = shape
			hit.ShapeIndex = i
			best = hit
		}
	}
	return best
}
