package scene

import (
	"image"
	"math"

	"github.com/df07/go-scene-tracer/pkg/accel"
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/plugin"
)

func init() {
	plugin.Register(DefaultSensorPlugin, func(props *plugin.Properties) (any, error) {
		return &fakeSensor{props: props}, nil
	})
	plugin.Register(DefaultIntegratorPlugin, func(props *plugin.Properties) (any, error) {
		return &fakeIntegrator{}, nil
	})
}

// fakeShape is a sphere with every optional surface capability
type fakeShape struct {
	id          string
	center      core.Vec3
	radius      float64
	emitter     Emitter
	sensor      Sensor
	group       bool
	dirty       bool
	grad        bool
	gradQueries int
}

func newFakeShape(center core.Vec3, radius float64) *fakeShape {
	return &fakeShape{center: center, radius: radius}
}

func (s *fakeShape) BoundingBox() core.AABB {
	r := core.NewVec3(s.radius, s.radius, s.radius)
	return core.NewAABB(s.center.Subtract(r), s.center.Add(r))
}

func (s *fakeShape) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	oc := ray.Origin.Subtract(s.center)
	a := ray.Direction.LengthSquared()
	h := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - s.radius*s.radius
	disc := h*h - a*c
	if disc < 0 {
		return core.PreliminaryIntersection{}, false
	}
	sq := math.Sqrt(disc)
	for _, root := range []float64{(-h - sq) / a, (-h + sq) / a} {
		if root >= tMin && root <= tMax {
			return core.PreliminaryIntersection{T: root}, true
		}
	}
	return core.PreliminaryIntersection{}, false
}

func (s *fakeShape) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	p := ray.At(pi.T)
	n := p.Subtract(s.center).Normalize()
	return core.SurfaceInteraction{Interaction: core.Interaction{P: p, N: n}, ShadingNormal: n}
}

func (s *fakeShape) ID() string         { return s.id }
func (s *fakeShape) Emitter() Emitter   { return s.emitter }
func (s *fakeShape) Sensor() Sensor     { return s.sensor }
func (s *fakeShape) IsShapeGroup() bool { return s.group }
func (s *fakeShape) Dirty() bool        { return s.dirty }
func (s *fakeShape) ClearDirty()        { s.dirty = false }
func (s *fakeShape) String() string     { return "FakeShape[\n  radius = 1\n]" }
func (s *fakeShape) ParametersGradEnabled() bool {
	s.gradQueries++
	return s.grad
}

// fakeEmitter returns canned samples and records what it was asked
type fakeEmitter struct {
	id          string
	environment bool
	flags       EmitterFlags
	point       core.Vec3
	pdf         float64
	spec        core.Vec3
	setScenes   int
	lastU       core.Vec2
	lastU1      float64
}

func (e *fakeEmitter) SampleRay(time, u1 float64, u2, u3 core.Vec2) (core.Ray, core.Vec3) {
	e.lastU1 = u1
	return core.NewRay(e.point, core.NewVec3(0, 0, 1)), e.spec
}

func (e *fakeEmitter) SampleDirection(ref core.Interaction, u core.Vec2) (core.DirectionSample, core.Vec3) {
	e.lastU = u
	d := e.point.Subtract(ref.P)
	dist := d.Length()
	return core.DirectionSample{P: e.point, Pdf: e.pdf, D: d.Multiply(1 / dist), Dist: dist, Emitter: e}, e.spec
}

func (e *fakeEmitter) PdfDirection(ref core.Interaction, ds core.DirectionSample) float64 {
	return e.pdf
}

func (e *fakeEmitter) EvalDirection(ref core.Interaction, ds core.DirectionSample) core.Vec3 {
	return e.spec.Multiply(e.pdf)
}

func (e *fakeEmitter) Eval(si core.SurfaceInteraction) core.Vec3 { return e.spec }
func (e *fakeEmitter) IsEnvironment() bool                       { return e.environment }
func (e *fakeEmitter) Flags() EmitterFlags                       { return e.flags }
func (e *fakeEmitter) SetScene(s *Scene)                         { e.setScenes++ }
func (e *fakeEmitter) ID() string                                { return e.id }

type fakeFilm struct {
	width, height int
	developed     bool
}

func (f *fakeFilm) Size() (int, int)          { return f.width, f.height }
func (f *fakeFilm) Put(x, y int, c core.Vec3) {}
func (f *fakeFilm) Clear()                    {}
func (f *fakeFilm) Develop() image.Image      { f.developed = true; return f.Image() }
func (f *fakeFilm) Image() image.Image        { return image.NewRGBA(image.Rect(0, 0, f.width, f.height)) }

type fakeSensor struct {
	props     *plugin.Properties
	film      fakeFilm
	setScenes int
}

func (s *fakeSensor) SampleRay(time float64, pos, aperture core.Vec2) (core.Ray, core.Vec3) {
	return core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)), core.NewVec3(1, 1, 1)
}
func (s *fakeSensor) Film() Film         { return &s.film }
func (s *fakeSensor) SetScene(sc *Scene) { s.setScenes++ }

type renderCall struct {
	sensorIndex int
	seed        uint64
	spp         int
	develop     bool
}

type fakeIntegrator struct {
	calls []renderCall
}

func (i *fakeIntegrator) Render(s *Scene, sensorIndex int, seed uint64, spp int, develop bool) error {
	i.calls = append(i.calls, renderCall{sensorIndex, seed, spp, develop})
	return nil
}

// recordingBackend counts occlusion queries issued to a software BVH
type recordingBackend struct {
	*accel.BVH
	tests     int
	refreshed [][]int
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{BVH: accel.NewBVH()}
}

func (b *recordingBackend) Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error {
	b.tests++
	return b.BVH.Test(rays, coherent, active, out)
}

func (b *recordingBackend) Refresh(dirty []int) error {
	b.refreshed = append(b.refreshed, append([]int(nil), dirty...))
	return b.BVH.Refresh(dirty)
}

// hitBackend answers every query with a fixed hit and allocates nothing
type hitBackend struct {
	*accel.BVH
}

func (b *hitBackend) Intersect(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask, out []core.SurfaceInteraction) error {
	for i := range rays {
		out[i] = core.SurfaceInteraction{Interaction: core.Interaction{T: 1}}
	}
	return nil
}

func (b *hitBackend) IntersectPreliminary(rays []core.Ray, coherent bool, active core.Mask, out []core.PreliminaryIntersection) error {
	for i := range rays {
		out[i] = core.PreliminaryIntersection{T: 1}
	}
	return nil
}

func (b *hitBackend) Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error {
	for i := range rays {
		out[i] = true
	}
	return nil
}
