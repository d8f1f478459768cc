package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/geometry"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// AreaLight makes a surface emit constant radiance from its front side
type AreaLight struct {
	id       string
	shape    geometry.Sampleable
	radiance core.Vec3
}

// NewAreaLight creates an area light and attaches it to shape. The scene
// discovers the light through the shape.
func NewAreaLight(shape geometry.Sampleable, radiance core.Vec3) *AreaLight {
	light := &AreaLight{shape: shape, radiance: radiance}
	shape.SetEmitter(light)
	return light
}

// ID returns the light id
func (al *AreaLight) ID() string { return al.id }

// SetID sets the light id
func (al *AreaLight) SetID(id string) { al.id = id }

// Shape returns the surface the light is attached to
func (al *AreaLight) Shape() geometry.Sampleable { return al.shape }

// Radiance returns the emitted radiance
func (al *AreaLight) Radiance() core.Vec3 { return al.radiance }

// SampleRay samples a point on the surface and a cosine-weighted direction leaving it
func (al *AreaLight) SampleRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3) {
	p, n := al.shape.Sample(u2)
	direction := core.SampleCosineHemisphere(n, u3)

	ray := core.NewRay(p, direction)
	ray.Time = time
	// radiance * cos / (areaPdf * cos/pi)
	return ray, al.radiance.Multiply(math.Pi * al.shape.Area())
}

// SampleDirection samples the surface uniformly by area and converts the density to solid angle
func (al *AreaLight) SampleDirection(ref core.Interaction, u core.Vec2) (core.DirectionSample, core.Vec3) {
	p, n := al.shape.Sample(u)
	toLight := p.Subtract(ref.P)
	distance := toLight.Length()
	if distance == 0 {
		return core.DirectionSample{}, core.Vec3{}
	}
	direction := toLight.Multiply(1 / distance)

	ds := core.DirectionSample{P: p, N: n, Time: ref.Time, D: direction, Dist: distance}
	ds.Pdf = al.solidAnglePDF(ds)
	if ds.Pdf == 0 {
		return ds, core.Vec3{}
	}
	return ds, al.radiance.Multiply(1 / ds.Pdf)
}

// PdfDirection returns the solid angle density of SampleDirection for ds
func (al *AreaLight) PdfDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	return al.solidAnglePDF(ds)
}

// EvalDirection returns the radiance leaving the sampled point toward ref
func (al *AreaLight) EvalDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3 {
	if ds.N.Dot(ds.D) >= 0 {
		return core.Vec3{}
	}
	return al.radiance
}

// Eval returns the radiance seen by a ray that hit the front side of the surface
func (al *AreaLight) Eval(si core.SurfaceInteraction) core.Vec3 {
	if !si.FrontFace {
		return core.Vec3{}
	}
	return al.radiance
}

func (al *AreaLight) IsEnvironment() bool       { return false }
func (al *AreaLight) Flags() scene.EmitterFlags { return scene.EmitterFlagSurface }
func (al *AreaLight) SetScene(s *scene.Scene)   {}

// PDF_solid_angle = PDF_area * distance² / cos(θ), zero for the back side
func (al *AreaLight) solidAnglePDF(ds core.DirectionSample) float64 {
	cosTheta := -ds.N.Dot(ds.D)
	if cosTheta < 1e-8 {
		return 0
	}
	return ds.Dist * ds.Dist / (cosTheta * al.shape.Area())
}

func (al *AreaLight) String() string {
	return fmt.Sprintf("AreaLight[\n  radiance = %v,\n  surface = %v\n]", al.radiance, al.shape)
}
