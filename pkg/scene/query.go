package scene

import (
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// lane holds the one-element buffers of a scalar query. Slices passed through
// the Backend interface escape, so the buffers are pooled.
type lane struct {
	rays [1]core.Ray
	si   [1]core.SurfaceInteraction
	pi   [1]core.PreliminaryIntersection
	hit  [1]bool
}

var lanes = sync.Pool{New: func() any { return new(lane) }}

func getLane(ray core.Ray) *lane {
	l := lanes.Get().(*lane)
	l.rays[0] = ray
	return l
}

func putLane(l *lane) {
	*l = lane{}
	lanes.Put(l)
}

// RayIntersect returns the closest surface hit along the ray. flags selects the
// derived fields to compute; coherent hints that consecutive calls travel alike.
func (s *Scene) RayIntersect(ray core.Ray, flags core.RayFlags, coherent bool) core.SurfaceInteraction {
	l := getLane(ray)
	defer putLane(l)
	if err := s.backend.Intersect(l.rays[:], flags, coherent, nil, l.si[:]); err != nil {
		core.Logger().Error("scene: ray intersect failed", "err", err)
		return core.NoSurfaceInteraction(ray)
	}
	return l.si[0]
}

// RayIntersectBatch answers a batch of nearest-hit queries. Lanes switched off
// in active come back as misses.
func (s *Scene) RayIntersectBatch(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask) ([]core.SurfaceInteraction, error) {
	out := make([]core.SurfaceInteraction, len(rays))
	if err := s.backend.Intersect(rays, flags, coherent, active, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RayIntersectPreliminary returns the closest hit without shading data
func (s *Scene) RayIntersectPreliminary(ray core.Ray, coherent bool) core.PreliminaryIntersection {
	l := getLane(ray)
	defer putLane(l)
	if err := s.backend.IntersectPreliminary(l.rays[:], coherent, nil, l.pi[:]); err != nil {
		core.Logger().Error("scene: preliminary intersect failed", "err", err)
		return core.NoPreliminaryIntersection()
	}
	return l.pi[0]
}

// RayIntersectPreliminaryBatch answers a batch of preliminary queries
func (s *Scene) RayIntersectPreliminaryBatch(rays []core.Ray, coherent bool, active core.Mask) ([]core.PreliminaryIntersection, error) {
	out := make([]core.PreliminaryIntersection, len(rays))
	if err := s.backend.IntersectPreliminary(rays, coherent, active, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RayTest reports whether anything lies along the ray within its range
func (s *Scene) RayTest(ray core.Ray, coherent bool) bool {
	l := getLane(ray)
	defer putLane(l)
	if err := s.backend.Test(l.rays[:], coherent, nil, l.hit[:]); err != nil {
		core.Logger().Error("scene: ray test failed", "err", err)
		return false
	}
	return l.hit[0]
}

// RayTestBatch answers a batch of occlusion queries
func (s *Scene) RayTestBatch(rays []core.Ray, coherent bool, active core.Mask) ([]bool, error) {
	out := make([]bool, len(rays))
	if err := s.backend.Test(rays, coherent, active, out); err != nil {
		return nil, err
	}
	return out, nil
}

// RayIntersectNaive finds the closest hit by testing every surface. Backends
// without a brute-force path return accel.ErrNotImplemented.
func (s *Scene) RayIntersectNaive(ray core.Ray) (core.SurfaceInteraction, error) {
	l := getLane(ray)
	defer putLane(l)
	if err := s.backend.IntersectNaive(l.rays[:], nil, l.si[:]); err != nil {
		return core.NoSurfaceInteraction(ray), err
	}
	return l.si[0], nil
}
