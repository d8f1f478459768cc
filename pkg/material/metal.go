package material

import (
	"github.com/df07/go-scene-tracer/pkg/core"
)

// Metal represents a metallic material with specular reflection
type Metal struct {
	Albedo   core.Vec3 // Metal color
	Fuzzness float64   // 0.0 = perfect mirror, 1.0 = very fuzzy
}

// NewMetal creates a new metal material
func NewMetal(albedo core.Vec3, fuzzness float64) *Metal {
	return &Metal{Albedo: albedo, Fuzzness: max(0, min(1, fuzzness))}
}

// Scatter implements the Material interface for metal scattering
func (m *Metal) Scatter(rayIn core.Ray, si core.SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool) {
	reflected := reflect(rayIn.Direction.Normalize(), si.N)

	// Add fuzziness by perturbing the reflection direction
	if m.Fuzzness > 0 {
		offset := core.SamplePointInUnitDisk(sampler.Get2D())
		u, v := core.CoordinateSystem(reflected)
		reflected = reflected.Add(u.Multiply(offset.X * m.Fuzzness)).Add(v.Multiply(offset.Y * m.Fuzzness))
	}

	// Absorbed when the perturbed direction points below the surface
	if reflected.Dot(si.N) <= 0 {
		return ScatterResult{}, false
	}

	return ScatterResult{
		Incoming:    rayIn,
		Scattered:   si.SpawnRay(reflected.Normalize()),
		Attenuation: m.Albedo, // No π factor for specular
		PDF:         0,
	}, true
}

// EvaluateBRDF is zero: the reflection lobe is only reachable through Scatter
func (m *Metal) EvaluateBRDF(incomingDir, outgoingDir core.Vec3, si core.SurfaceInteraction) core.Vec3 {
	return core.Vec3{}
}

// PDF reports a delta distribution
func (m *Metal) PDF(incomingDir, outgoingDir, normal core.Vec3) (float64, bool) {
	return 0.0, true
}

// reflect calculates the reflection of a vector v off a surface with normal n
func reflect(v, n core.Vec3) core.Vec3 {
	// r = v - 2*dot(v,n)*n
	return v.Subtract(n.Multiply(2 * v.Dot(n)))
}
