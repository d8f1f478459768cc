package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/plugin"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

func init() {
	plugin.Register("point", func(props *plugin.Properties) (any, error) {
		position, err := props.Vec3("position", core.Vec3{})
		if err != nil {
			return nil, err
		}
		intensity, err := props.Vec3("intensity", core.NewVec3(1, 1, 1))
		if err != nil {
			return nil, err
		}
		light := NewPointLight(position, intensity)
		light.id = props.ID()
		return light, nil
	})
}

// PointLight emits uniformly in all directions from a single point
type PointLight struct {
	id        string
	position  core.Vec3
	intensity core.Vec3
}

// NewPointLight creates a point light with radiant intensity intensity
func NewPointLight(position, intensity core.Vec3) *PointLight {
	return &PointLight{position: position, intensity: intensity}
}

// ID returns the light id
func (pl *PointLight) ID() string { return pl.id }

// Position returns the light position
func (pl *PointLight) Position() core.Vec3 { return pl.position }

// SampleRay emits a uniformly distributed direction from the light position
func (pl *PointLight) SampleRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3) {
	ray := core.NewRay(pl.position, core.SampleOnUnitSphere(u2))
	ray.Time = time
	return ray, pl.intensity.Multiply(4 * math.Pi)
}

// SampleDirection returns the light position. The pdf is a discrete probability of one.
func (pl *PointLight) SampleDirection(ref core.Interaction, u core.Vec2) (core.DirectionSample, core.Vec3) {
	toLight := pl.position.Subtract(ref.P)
	distance := toLight.Length()
	if distance == 0 {
		// No emission at the same point
		return core.DirectionSample{}, core.Vec3{}
	}

	ds := core.DirectionSample{
		P:     pl.position,
		Time:  ref.Time,
		Pdf:   1,
		Delta: true,
		D:     toLight.Multiply(1 / distance),
		Dist:  distance,
	}
	return ds, pl.intensity.Multiply(1 / (distance * distance))
}

// PdfDirection is zero: a point cannot be hit by chance
func (pl *PointLight) PdfDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	return 0
}

// EvalDirection returns the inverse-square falloff of the intensity
func (pl *PointLight) EvalDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3 {
	if ds.Dist == 0 {
		return core.Vec3{}
	}
	return pl.intensity.Multiply(1 / (ds.Dist * ds.Dist))
}

func (pl *PointLight) Eval(si core.SurfaceInteraction) core.Vec3 { return core.Vec3{} }
func (pl *PointLight) IsEnvironment() bool                       { return false }
func (pl *PointLight) Flags() scene.EmitterFlags                 { return scene.EmitterFlagDeltaPosition }
func (pl *PointLight) SetScene(s *scene.Scene)                   {}

func (pl *PointLight) String() string {
	return fmt.Sprintf("PointLight[\n  position = %v,\n  intensity = %v\n]", pl.position, pl.intensity)
}
