package scene

import (
	"image"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// Object is anything handed to New. Its roles are discovered through the
// capability interfaces below.
type Object = any

// EmitterFlags describe the sampling character of an emitter
type EmitterFlags uint32

const (
	// EmitterFlagDeltaPosition marks emitters located at a single point
	EmitterFlagDeltaPosition EmitterFlags = 1 << iota
	// EmitterFlagDeltaDirection marks emitters emitting along a single direction
	EmitterFlagDeltaDirection
	// EmitterFlagInfinite marks emitters at infinity
	EmitterFlagInfinite
	// EmitterFlagSurface marks emitters attached to a surface
	EmitterFlagSurface
)

// Has reports whether all bits of other are set
func (f EmitterFlags) Has(other EmitterFlags) bool {
	return f&other == other
}

// Emitter is a light source
type Emitter interface {
	// SampleRay generates a ray leaving the emitter, for light tracing.
	// u1 selects a position-related quantity, u2 and u3 position and direction.
	SampleRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3)

	// SampleDirection samples a point on the emitter as seen from ref. The returned
	// weight is radiance divided by the solid angle density.
	SampleDirection(ref core.Interaction, u core.Vec2) (core.DirectionSample, core.Vec3)

	// PdfDirection returns the solid angle density SampleDirection uses for ds
	PdfDirection(ref core.Interaction, ds core.DirectionSample) float64

	// EvalDirection returns the radiance arriving at ref from the sampled point
	EvalDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3

	// Eval returns the radiance emitted toward the origin of the ray that produced si.
	// Environments are evaluated for rays that left the scene.
	Eval(si core.SurfaceInteraction) core.Vec3

	// IsEnvironment reports whether this is the scene's global background
	IsEnvironment() bool

	// Flags describes the emitter
	Flags() EmitterFlags

	// SetScene is called once the scene is assembled and after parameter changes
	SetScene(s *Scene)
}

// Film accumulates radiance samples for a sensor
type Film interface {
	// Size returns the film resolution in pixels
	Size() (width, height int)

	// Put adds one radiance sample to pixel (x, y)
	Put(x, y int, radiance core.Vec3)

	// Clear discards accumulated samples
	Clear()

	// Develop converts the accumulated samples into the final image
	Develop() image.Image

	// Image returns the current state of the film as an image
	Image() image.Image
}

// Sensor produces camera rays and owns the film they expose
type Sensor interface {
	// SampleRay generates a primary ray through the film position pos in [0,1)^2.
	// The returned weight scales the radiance carried by the ray.
	SampleRay(time float64, pos, aperture core.Vec2) (core.Ray, core.Vec3)

	// Film returns the sensor's film
	Film() Film

	// SetScene is called once the scene is assembled
	SetScene(s *Scene)
}

// Integrator runs light transport
type Integrator interface {
	// Render estimates the image seen by the sensor at sensorIndex using spp
	// samples per pixel. When develop is set the film is developed afterwards.
	Render(s *Scene, sensorIndex int, seed uint64, spp int, develop bool) error
}

// EmitterShape is a surface that can act as a light. Emitter returns nil when
// the surface does not emit.
type EmitterShape interface {
	Emitter() Emitter
}

// SensorShape is a surface that can act as a sensor. Sensor returns nil when it does not.
type SensorShape interface {
	Sensor() Sensor
}

// ShapeGroup is an instancing container. Groups own geometry but are not
// intersected directly and do not contribute to the scene bounds.
type ShapeGroup interface {
	IsShapeGroup() bool
}

// Dirtier is a surface whose parameters can change after construction
type Dirtier interface {
	Dirty() bool
	ClearDirty()
}

// GradientTracker reports whether any parameter of a surface has gradient tracking enabled
type GradientTracker interface {
	ParametersGradEnabled() bool
}

// Identifier is implemented by objects with a user-assigned id
type Identifier interface {
	ID() string
}

// Visitor receives every child object of a scene
type Visitor interface {
	PutObject(id string, obj Object)
}

// VisitorFunc adapts a function to the Visitor interface
type VisitorFunc func(id string, obj Object)

// PutObject calls f(id, obj)
func (f VisitorFunc) PutObject(id string, obj Object) {
	f(id, obj)
}
