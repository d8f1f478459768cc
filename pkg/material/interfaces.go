package material

import (
	"github.com/df07/go-scene-tracer/pkg/core"
)

// Material describes how a surface scatters light. Surface interactions handed
// to a material carry a normal facing the incoming ray.
type Material interface {
	// Scatter samples an outgoing direction for a ray arriving at si
	Scatter(rayIn core.Ray, si core.SurfaceInteraction, sampler core.Sampler) (ScatterResult, bool)

	// EvaluateBRDF evaluates the BRDF for specific incoming/outgoing directions
	EvaluateBRDF(incomingDir, outgoingDir core.Vec3, si core.SurfaceInteraction) core.Vec3

	// PDF returns the density of Scatter producing outgoingDir.
	// isDelta reports a delta distribution, for which the density is meaningless.
	PDF(incomingDir, outgoingDir, normal core.Vec3) (pdf float64, isDelta bool)
}

// ScatterResult contains the result of material scattering
type ScatterResult struct {
	Incoming    core.Ray  // The incoming ray
	Scattered   core.Ray  // The scattered ray
	Attenuation core.Vec3 // BRDF value, or the full throughput factor for specular scattering
	PDF         float64   // Probability density function (0 for specular materials)
}

// IsSpecular returns true if this is specular scattering (no PDF)
func (s ScatterResult) IsSpecular() bool {
	return s.PDF <= 0
}
