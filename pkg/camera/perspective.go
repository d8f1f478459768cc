package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/plugin"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// ErrInvalidConfig reports a camera that cannot form an image
var ErrInvalidConfig = errors.New("camera: invalid configuration")

const (
	DefaultWidth  = 768
	DefaultHeight = 576
	DefaultFov    = 45.0
)

func init() {
	plugin.Register("perspective", func(props *plugin.Properties) (any, error) {
		cfg := DefaultConfig()
		var err error
		get := func(key string, dst *float64) {
			if err == nil {
				*dst, err = props.Float(key, *dst)
			}
		}
		get("fov", &cfg.Fov)
		get("near_clip", &cfg.NearClip)
		get("far_clip", &cfg.FarClip)
		get("focus_distance", &cfg.FocusDistance)
		if err == nil {
			cfg.ToWorld, err = props.Transform("to_world", cfg.ToWorld)
		}
		if err == nil {
			cfg.Width, err = props.Int("width", cfg.Width)
		}
		if err == nil {
			cfg.Height, err = props.Int("height", cfg.Height)
		}
		if err != nil {
			return nil, err
		}

		p, err := NewPerspective(cfg)
		if err != nil {
			return nil, err
		}
		p.id = props.ID()
		return p, nil
	})
}

// Config describes a pinhole camera
type Config struct {
	Width, Height int
	Fov           float64 // Horizontal field of view in degrees
	NearClip      float64
	FarClip       float64
	FocusDistance float64 // Recorded for thin-lens consumers; a pinhole is always in focus
	ToWorld       core.Transform
}

// DefaultConfig returns a camera at the origin looking along +Z
func DefaultConfig() Config {
	return Config{
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		Fov:           DefaultFov,
		NearClip:      1e-2,
		FarClip:       1e4,
		FocusDistance: 1,
		ToWorld:       core.Identity(),
	}
}

// Perspective is a pinhole camera. In camera space it looks along +Z with +Y
// up and +X to the left.
type Perspective struct {
	id     string
	config Config
	film   *Film
	tanX   float64
	tanY   float64
	origin core.Vec3
}

// NewPerspective creates a camera with its own film
func NewPerspective(cfg Config) (*Perspective, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: film size %dx%d", ErrInvalidConfig, cfg.Width, cfg.Height)
	}
	if cfg.Fov <= 0 || cfg.Fov >= 180 {
		return nil, fmt.Errorf("%w: field of view %v", ErrInvalidConfig, cfg.Fov)
	}
	if cfg.NearClip <= 0 || cfg.FarClip <= cfg.NearClip {
		return nil, fmt.Errorf("%w: clip range [%v, %v]", ErrInvalidConfig, cfg.NearClip, cfg.FarClip)
	}

	tanX := math.Tan(cfg.Fov * math.Pi / 360)
	return &Perspective{
		config: cfg,
		film:   NewFilm(cfg.Width, cfg.Height),
		tanX:   tanX,
		tanY:   tanX * float64(cfg.Height) / float64(cfg.Width),
		origin: cfg.ToWorld.Point(core.Vec3{}),
	}, nil
}

// ID returns the camera id
func (p *Perspective) ID() string { return p.id }

// Config returns the camera configuration
func (p *Perspective) Config() Config { return p.config }

// Origin returns the world-space camera position
func (p *Perspective) Origin() core.Vec3 { return p.origin }

// SampleRay generates a ray through film position pos, where (0,0) is the top
// left corner. The ray starts at the near clip plane and ends at the far one.
func (p *Perspective) SampleRay(time float64, pos, aperture core.Vec2) (core.Ray, core.Vec3) {
	local := core.NewVec3((1-2*pos.X)*p.tanX, (1-2*pos.Y)*p.tanY, 1)
	direction := local.Normalize()

	world := p.config.ToWorld.Vector(direction).Normalize()
	near := p.config.NearClip / direction.Z
	far := p.config.FarClip / direction.Z

	ray := core.NewSegment(p.origin.Add(world.Multiply(near)), world, far-near)
	ray.Time = time
	return ray, core.NewVec3(1, 1, 1)
}

// Film returns the camera film
func (p *Perspective) Film() scene.Film { return p.film }

// RGBFilm returns the concrete film
func (p *Perspective) RGBFilm() *Film { return p.film }

// SetScene is a no-op: the camera does not depend on the scene
func (p *Perspective) SetScene(s *scene.Scene) {}

func (p *Perspective) String() string {
	return fmt.Sprintf("PerspectiveCamera[\n  fov = %g,\n  near_clip = %g,\n  far_clip = %g,\n  film = %dx%d,\n  origin = %v\n]",
		p.config.Fov, p.config.NearClip, p.config.FarClip, p.config.Width, p.config.Height, p.origin)
}
