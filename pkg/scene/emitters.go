package scene

import (
	"github.com/df07/go-scene-tracer/pkg/core"
)

// SampleEmitter picks an emitter uniformly with sample u in [0,1). It returns the
// index, the inverse selection probability, and u re-mapped to a fresh uniform
// sample. With no emitters the index is InvalidIndex and the weight 0; with one
// emitter u passes through unchanged.
func (s *Scene) SampleEmitter(u float64) (index int, weight, remapped float64) {
	n := len(s.emitters)
	switch n {
	case 0:
		return InvalidIndex, 0, u
	case 1:
		return 0, 1, u
	}

	scaled := u * float64(n)
	index = min(int(scaled), n-1)
	return index, float64(n), scaled - float64(index)
}

// PdfEmitter returns the probability of SampleEmitter choosing index
func (s *Scene) PdfEmitter(index int) float64 {
	return s.emitterPMF
}

// SampleEmitterRay picks an emitter and asks it for a ray leaving it. The
// weight includes the discrete selection weight. With no emitters it returns a
// zero ray, zero weight and nil.
func (s *Scene) SampleEmitterRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3, Emitter) {
	switch len(s.emitters) {
	case 0:
		return core.Ray{}, core.Vec3{}, nil
	case 1:
		ray, weight := s.emitters[0].SampleRay(time, u1, u2, u3)
		return ray, weight, s.emitters[0]
	}

	index, emitterWeight, remapped := s.SampleEmitter(u1)
	emitter := s.emitters[index]
	ray, weight := emitter.SampleRay(time, remapped, u2, u3)
	return ray, weight.Multiply(emitterWeight), emitter
}

// SampleEmitterDirection picks an emitter and samples a point on it as seen from
// ref. The pdf includes the discrete selection probability and the returned
// contribution the selection weight. Samples with zero pdf are returned with
// zero contribution and are never tested for visibility. When testVisibility is
// set, occluded samples get zero pdf and contribution.
func (s *Scene) SampleEmitterDirection(ref core.Interaction, u core.Vec2, testVisibility bool) (core.DirectionSample, core.Vec3) {
	var ds core.DirectionSample
	var spec core.Vec3

	switch len(s.emitters) {
	case 0:
		return core.DirectionSample{}, core.Vec3{}
	case 1:
		ds, spec = s.emitters[0].SampleDirection(ref, u)
		ds.Emitter = s.emitters[0]
	default:
		index, emitterWeight, remapped := s.SampleEmitter(u.X)
		u.X = remapped

		ds, spec = s.emitters[index].SampleDirection(ref, u)
		ds.Emitter = s.emitters[index]
		ds.Pdf *= s.PdfEmitter(index)
		spec = spec.Multiply(emitterWeight)
	}

	if ds.Pdf == 0 {
		return ds, core.Vec3{}
	}

	if testVisibility && s.RayTest(ref.SpawnRayTo(ds.P), false) {
		ds.Pdf = 0
		spec = core.Vec3{}
	}
	return ds, spec
}

// PdfEmitterDirection returns the density with which SampleEmitterDirection
// would produce ds, including the discrete selection probability
func (s *Scene) PdfEmitterDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	emitter, ok := ds.Emitter.(Emitter)
	if !ok {
		return 0
	}
	return emitter.PdfDirection(ref, ds) * s.emitterPMF
}

// EvalEmitterDirection returns the radiance arriving at ref from the point recorded in ds
func (s *Scene) EvalEmitterDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3 {
	emitter, ok := ds.Emitter.(Emitter)
	if !ok {
		return core.Vec3{}
	}
	return emitter.EvalDirection(ref, ds)
}
