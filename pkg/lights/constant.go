package lights

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/plugin"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

func init() {
	plugin.Register("constant", func(props *plugin.Properties) (any, error) {
		radiance, err := props.Vec3("radiance", core.NewVec3(1, 1, 1))
		if err != nil {
			return nil, err
		}
		light := NewConstantLight(radiance)
		light.id = props.ID()
		return light, nil
	})
}

// ConstantLight is an environment emitting the same radiance from every direction
type ConstantLight struct {
	id          string
	radiance    core.Vec3
	worldCenter core.Vec3 // Finite scene center, from the scene bounds
	worldRadius float64   // Finite scene radius, from the scene bounds
}

// NewConstantLight creates a new uniform environment
func NewConstantLight(radiance core.Vec3) *ConstantLight {
	return &ConstantLight{radiance: radiance, worldRadius: 1}
}

// ID returns the light id
func (cl *ConstantLight) ID() string { return cl.id }

// Radiance returns the emitted radiance
func (cl *ConstantLight) Radiance() core.Vec3 { return cl.radiance }

// SetScene records the bounding sphere of the scene. It is called again after
// parameter changes, so the sphere follows moving geometry.
func (cl *ConstantLight) SetScene(s *scene.Scene) {
	box := s.BBox()
	if !box.IsValid() {
		cl.worldCenter, cl.worldRadius = core.Vec3{}, 1
		return
	}
	cl.worldCenter, cl.worldRadius = box.BoundingSphere()
	cl.worldRadius = math.Max(cl.worldRadius, 1e-3)
}

// WorldSphere returns the bounding sphere used for sampling rays
func (cl *ConstantLight) WorldSphere() (core.Vec3, float64) {
	return cl.worldCenter, cl.worldRadius
}

// SampleRay samples a direction uniformly and a ray origin on the disk facing
// it, placed behind the scene's bounding sphere
func (cl *ConstantLight) SampleRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3) {
	direction := core.SampleOnUnitSphere(u3)
	right, up := core.CoordinateSystem(direction)

	disk := core.SamplePointInUnitDisk(u2)
	origin := cl.worldCenter.
		Add(right.Multiply(disk.X * cl.worldRadius)).
		Add(up.Multiply(disk.Y * cl.worldRadius)).
		Add(direction.Multiply(-cl.worldRadius))

	ray := core.NewRay(origin, direction)
	ray.Time = time
	// Planar density 1/(pi r²), direction density 1/(4 pi)
	return ray, cl.radiance.Multiply(4 * math.Pi * math.Pi * cl.worldRadius * cl.worldRadius)
}

// SampleDirection samples a uniform direction. The sample point is placed
// outside the bounding sphere so occlusion tests cover the whole scene.
func (cl *ConstantLight) SampleDirection(ref core.Interaction, u core.Vec2) (core.DirectionSample, core.Vec3) {
	direction := core.SampleOnUnitSphere(u)
	distance := 2 * (cl.worldRadius + ref.P.Subtract(cl.worldCenter).Length())

	ds := core.DirectionSample{
		P:    ref.P.Add(direction.Multiply(distance)),
		N:    direction.Negate(),
		Time: ref.Time,
		Pdf:  core.UniformSpherePDF(),
		D:    direction,
		Dist: distance,
	}
	return ds, cl.radiance.Multiply(1 / ds.Pdf)
}

// PdfDirection returns the uniform sphere density
func (cl *ConstantLight) PdfDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	return core.UniformSpherePDF()
}

// EvalDirection returns the constant radiance
func (cl *ConstantLight) EvalDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3 {
	return cl.radiance
}

// Eval returns the constant radiance for rays escaping the scene
func (cl *ConstantLight) Eval(si core.SurfaceInteraction) core.Vec3 { return cl.radiance }

func (cl *ConstantLight) IsEnvironment() bool       { return true }
func (cl *ConstantLight) Flags() scene.EmitterFlags { return scene.EmitterFlagInfinite }

func (cl *ConstantLight) String() string {
	return fmt.Sprintf("ConstantLight[\n  radiance = %v,\n  bsphere = [%v, %g]\n]", cl.radiance, cl.worldCenter, cl.worldRadius)
}
