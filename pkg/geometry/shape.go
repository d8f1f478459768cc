package geometry

import (
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/material"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// Surface is a shape the integrator can shade
type Surface interface {
	core.Shape

	// Material returns the surface material, nil for surfaces that only emit
	Material() material.Material
}

// Sampleable is a surface area lights can be attached to
type Sampleable interface {
	Surface

	// Sample picks a point uniformly over the surface area, returning the point
	// and its outward normal
	Sample(u core.Vec2) (core.Vec3, core.Vec3)

	// Area returns the surface area
	Area() float64

	// SetEmitter attaches an emitter to the surface
	SetEmitter(e scene.Emitter)
}

// Base carries the state every surface shares: identity, material, attached
// emitter or sensor, and the change-tracking flags the scene reads.
type Base struct {
	id          string
	material    material.Material
	emitter     scene.Emitter
	sensor      scene.Sensor
	dirty       bool
	gradEnabled bool
}

func (b *Base) ID() string                      { return b.id }
func (b *Base) SetID(id string)                 { b.id = id }
func (b *Base) Material() material.Material     { return b.material }
func (b *Base) SetMaterial(m material.Material) { b.material = m }
func (b *Base) Emitter() scene.Emitter          { return b.emitter }
func (b *Base) SetEmitter(e scene.Emitter)      { b.emitter = e }
func (b *Base) Sensor() scene.Sensor            { return b.sensor }
func (b *Base) SetSensor(s scene.Sensor)        { b.sensor = s }
func (b *Base) Dirty() bool                     { return b.dirty }
func (b *Base) MarkDirty()                      { b.dirty = true }
func (b *Base) ClearDirty()                     { b.dirty = false }
func (b *Base) ParametersGradEnabled() bool     { return b.gradEnabled }
func (b *Base) SetGradEnabled(enabled bool)     { b.gradEnabled = enabled }

// setFaceNormal orients si.N against the ray and records which side was hit
func setFaceNormal(si *core.SurfaceInteraction, ray core.Ray, outwardNormal core.Vec3) {
	si.FrontFace = ray.Direction.Dot(outwardNormal) < 0
	if si.FrontFace {
		si.N = outwardNormal
	} else {
		si.N = outwardNormal.Negate()
	}
	si.ShadingNormal = si.N
}
