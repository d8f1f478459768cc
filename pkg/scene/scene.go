// Package scene assembles shapes, emitters, sensors and an integrator into a
// renderable scene and answers ray and light sampling queries against it.
package scene

import (
	"errors"
	"fmt"
	"image"
	"math"
	"reflect"
	"strings"

	"github.com/df07/go-scene-tracer/pkg/accel"
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/plugin"
)

// InvalidIndex is the emitter index reported when there is nothing to sample
const InvalidIndex = -1

// Default plugins instantiated when the scene lacks a sensor or integrator
const (
	DefaultSensorPlugin     = "perspective"
	DefaultIntegratorPlugin = "path"
	DefaultFov              = 45.0
)

var (
	// ErrConfiguration is wrapped by every construction-time configuration error
	ErrConfiguration = errors.New("scene: invalid configuration")

	// ErrMultipleEnvironments is returned when more than one environment emitter is given
	ErrMultipleEnvironments = fmt.Errorf("%w: only one environment emitter can be specified per scene", ErrConfiguration)

	// ErrMultipleIntegrators is returned when more than one integrator is given
	ErrMultipleIntegrators = fmt.Errorf("%w: only one integrator can be specified per scene", ErrConfiguration)

	// ErrInvalidSensor is returned by Render for sensor indices out of range
	ErrInvalidSensor = errors.New("scene: sensor index out of range")

	// ErrClosed is returned by operations on a closed scene
	ErrClosed = errors.New("scene: closed")
)

// Scene owns the objects of a renderable scene and the acceleration structure built over its shapes.
//
// Queries may run concurrently. ParametersChanged and Close must not overlap with queries.
type Scene struct {
	children    []Object
	shapes      []core.Shape // Intersectable surfaces, indexed like the acceleration structure
	shapeGroups []core.Shape
	emitters    []Emitter
	sensors     []Sensor
	environment Emitter
	integrator  Integrator

	bbox        core.AABB
	backend     accel.Backend
	emitterPMF  float64
	gradEnabled bool
	closed      bool
}

// Option configures scene construction
type Option func(*options)

type options struct {
	backend     accel.Backend
	backendName string
}

// WithBackend builds the scene over the given, unbuilt backend instead of the active one
func WithBackend(b accel.Backend) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBackendName builds the scene over a registered backend instead of the active one
func WithBackendName(name string) Option {
	return func(o *options) {
		o.backendName = name
	}
}

// New classifies objects by role, synthesizes a sensor and an integrator when
// none were given, and builds the acceleration structure.
func New(objects []Object, opts ...Option) (*Scene, error) {
	cfg := options{backendName: accel.Active()}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Scene{bbox: core.EmptyAABB()}
	if err := s.classify(objects); err != nil {
		return nil, err
	}

	if len(s.sensors) == 0 {
		sensor, err := s.defaultSensor()
		if err != nil {
			return nil, err
		}
		s.sensors = append(s.sensors, sensor)
	}

	for _, sensor := range s.sensors {
		sensor.SetScene(s)
	}

	if s.integrator == nil {
		core.Logger().Warn("scene: no integrator found, instantiating a path tracer")
		integrator, err := plugin.CreateAs[Integrator](plugin.NewProperties(DefaultIntegratorPlugin))
		if err != nil {
			return nil, fmt.Errorf("scene: default integrator: %w", err)
		}
		s.integrator = integrator
	}

	backend := cfg.backend
	if backend == nil {
		var err error
		if backend, err = accel.New(cfg.backendName); err != nil {
			return nil, err
		}
	}
	if err := backend.Build(s.shapes); err != nil {
		return nil, fmt.Errorf("scene: building %s acceleration structure: %w", backend.Name(), err)
	}
	s.backend = backend
	core.Logger().Info("scene: acceleration structure built", "backend", backend.Name(), "shapes", len(s.shapes))

	// Emitters may depend on the scene bounds
	for _, emitter := range s.emitters {
		emitter.SetScene(s)
	}

	if len(s.emitters) > 0 {
		s.emitterPMF = 1 / float64(len(s.emitters))
	}
	return s, nil
}

// classify routes every object into the lists matching its roles
func (s *Scene) classify(objects []Object) error {
	for _, obj := range objects {
		s.children = append(s.children, obj)

		if shape, ok := obj.(core.Shape); ok {
			if es, ok := obj.(EmitterShape); ok {
				if emitter := es.Emitter(); emitter != nil {
					s.emitters = append(s.emitters, emitter)
				}
			}
			if ss, ok := obj.(SensorShape); ok {
				if sensor := ss.Sensor(); sensor != nil {
					s.sensors = append(s.sensors, sensor)
				}
			}
			if g, ok := obj.(ShapeGroup); ok && g.IsShapeGroup() {
				s.shapeGroups = append(s.shapeGroups, shape)
			} else {
				s.bbox = s.bbox.Union(shape.BoundingBox())
				s.shapes = append(s.shapes, shape)
			}
			continue
		}

		switch v := obj.(type) {
		case Emitter:
			// Surface emitters join the list through their shape
			if !v.Flags().Has(EmitterFlagSurface) {
				s.emitters = append(s.emitters, v)
			}
			if v.IsEnvironment() {
				if s.environment != nil {
					return ErrMultipleEnvironments
				}
				s.environment = v
			}
		case Sensor:
			s.sensors = append(s.sensors, v)
		case Integrator:
			if s.integrator != nil {
				return ErrMultipleIntegrators
			}
			s.integrator = v
		}
	}
	return nil
}

// DefaultSensorProperties returns the configuration of a perspective camera
// framing bbox from outside its minimum z face. An invalid box yields the
// camera's default pose.
func DefaultSensorProperties(bbox core.AABB) *plugin.Properties {
	props := plugin.NewProperties(DefaultSensorPlugin)
	props.SetFloat("fov", DefaultFov)

	if !bbox.IsValid() {
		return props
	}

	center := bbox.Center()
	extents := bbox.Size()
	maxExtent := extents.MaxComponent()
	distance := maxExtent / (2 * math.Tan(DefaultFov*0.5*math.Pi/180))

	props.SetFloat("far_clip", maxExtent*5+distance)
	props.SetFloat("near_clip", distance/100)
	props.SetFloat("focus_distance", distance+extents.Z/2)
	props.SetTransform("to_world", core.Translate(core.NewVec3(center.X, center.Y, bbox.Min.Z-distance)))
	return props
}

func (s *Scene) defaultSensor() (Sensor, error) {
	core.Logger().Warn("scene: no sensors found, instantiating a perspective camera")
	sensor, err := plugin.CreateAs[Sensor](DefaultSensorProperties(s.bbox))
	if err != nil {
		return nil, fmt.Errorf("scene: default sensor: %w", err)
	}
	return sensor, nil
}

// Shapes returns the intersectable surfaces in acceleration structure order
func (s *Scene) Shapes() []core.Shape { return s.shapes }

// ShapeGroups returns the instancing containers
func (s *Scene) ShapeGroups() []core.Shape { return s.shapeGroups }

// Emitters returns every light source, including those attached to surfaces
func (s *Scene) Emitters() []Emitter { return s.emitters }

// Sensors returns every sensor
func (s *Scene) Sensors() []Sensor { return s.sensors }

// Environment returns the environment emitter, or nil
func (s *Scene) Environment() Emitter { return s.environment }

// Integrator returns the scene's integrator
func (s *Scene) Integrator() Integrator { return s.integrator }

// BBox returns the bounds of all non-instanced surfaces; empty when there are none
func (s *Scene) BBox() core.AABB { return s.bbox }

// ShapesGradEnabled reports whether any surface had gradient tracking enabled at the last change notification
func (s *Scene) ShapesGradEnabled() bool { return s.gradEnabled }

// Children returns every object handed to New
func (s *Scene) Children() []Object { return s.children }

// Backend returns the acceleration structure
func (s *Scene) Backend() accel.Backend { return s.backend }

// Render runs the integrator for a sensor and returns the sensor's image
func (s *Scene) Render(sensorIndex int, seed uint64, spp int) (image.Image, error) {
	if s.closed {
		return nil, ErrClosed
	}
	if sensorIndex < 0 || sensorIndex >= len(s.sensors) {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrInvalidSensor, sensorIndex, len(s.sensors))
	}
	if err := s.integrator.Render(s, sensorIndex, seed, spp, false); err != nil {
		return nil, err
	}
	return s.sensors[sensorIndex].Film().Image(), nil
}

// Traverse reports every child object. Objects without an id, or with an
// id starting with "_unnamed_", are reported under their type name.
func (s *Scene) Traverse(v Visitor) {
	for _, child := range s.children {
		id := ""
		if named, ok := child.(Identifier); ok {
			id = named.ID()
		}
		if id == "" || strings.HasPrefix(id, "_unnamed_") {
			id = typeName(child)
		}
		v.PutObject(id, child)
	}
}

// Close releases the acceleration structure. Safe to call more than once.
func (s *Scene) Close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.backend != nil {
		s.backend.Release()
	}
}

// String describes the scene and its children
func (s *Scene) String() string {
	var sb strings.Builder
	sb.WriteString("Scene[\n  children = [\n")
	for i, child := range s.children {
		sb.WriteString("    ")
		sb.WriteString(indent(describe(child), 4))
		if i+1 < len(s.children) {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("  ]\n]")
	return sb.String()
}

func typeName(obj Object) string {
	t := reflect.TypeOf(obj)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return fmt.Sprintf("%T", obj)
	}
	return t.Name()
}

func describe(obj Object) string {
	if str, ok := obj.(fmt.Stringer); ok {
		return str.String()
	}
	return typeName(obj)
}

// indent prefixes every line after the first with n spaces
func indent(str string, n int) string {
	return strings.ReplaceAll(str, "\n", "\n"+strings.Repeat(" ", n))
}
