package integrator

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/df07/go-scene-tracer/pkg/camera"
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/geometry"
	"github.com/df07/go-scene-tracer/pkg/lights"
	"github.com/df07/go-scene-tracer/pkg/material"
	"github.com/df07/go-scene-tracer/pkg/plugin"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

func mustPath(t *testing.T, cfg Config) *Path {
	t.Helper()
	p, err := NewPath(cfg)
	if err != nil {
		t.Fatalf("NewPath failed: %v", err)
	}
	return p
}

func mustScene(t *testing.T, objects ...scene.Object) *scene.Scene {
	t.Helper()
	s, err := scene.New(objects)
	if err != nil {
		t.Fatalf("scene.New failed: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func smallCamera(t *testing.T, width, height int) *camera.Perspective {
	t.Helper()
	cfg := camera.DefaultConfig()
	cfg.Width, cfg.Height = width, height
	cfg.ToWorld = core.LookAt(core.NewVec3(0, 0, 5), core.Vec3{}, core.NewVec3(0, 1, 0))
	p, err := camera.NewPerspective(cfg)
	if err != nil {
		t.Fatalf("NewPerspective failed: %v", err)
	}
	return p
}

// averageLi averages n estimates of the radiance along ray
func averageLi(pt *Path, s *scene.Scene, ray core.Ray, n int) core.Vec3 {
	sampler := core.NewSeededSampler(42)
	var sum core.Vec3
	for i := 0; i < n; i++ {
		radiance, _ := pt.Li(s, ray, sampler)
		sum = sum.Add(radiance)
	}
	return sum.Multiply(1 / float64(n))
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"bounded depth", func(c *Config) { c.MaxDepth = 4 }, false},
		{"zero depth", func(c *Config) { c.MaxDepth = 0 }, true},
		{"negative depth", func(c *Config) { c.MaxDepth = -2 }, true},
		{"zero rr depth", func(c *Config) { c.RRDepth = 0 }, true},
		{"zero tile size", func(c *Config) { c.TileSize = 0 }, true},
		{"negative workers", func(c *Config) { c.Workers = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := NewPath(cfg)
			if tt.wantErr != (err != nil) {
				t.Errorf("NewPath(%+v) error = %v, wantErr %t", cfg, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestPathPlugin(t *testing.T) {
	props := plugin.NewProperties("path").SetInt("max_depth", 3).SetInt("rr_depth", 2)
	integrator, err := plugin.CreateAs[*Path](props)
	if err != nil {
		t.Fatalf("Creating path integrator: %v", err)
	}
	if cfg := integrator.Config(); cfg.MaxDepth != 3 || cfg.RRDepth != 2 {
		t.Errorf("Unexpected config %+v", cfg)
	}

	if _, err := plugin.Create(plugin.NewProperties("path").SetInt("max_depth", 0)); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestLi_Environment(t *testing.T) {
	pt := mustPath(t, DefaultConfig())
	env := lights.NewConstantLight(core.NewVec3(0.2, 0.4, 0.6))
	s := mustScene(t, env)

	radiance, rays := pt.Li(s, core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), core.NewSeededSampler(1))
	if radiance != env.Radiance() {
		t.Errorf("Expected environment radiance, got %v", radiance)
	}
	if rays != 1 {
		t.Errorf("Expected a single ray, got %d", rays)
	}

	dark := mustScene(t)
	if radiance, _ := pt.Li(dark, core.NewRay(core.Vec3{}, core.NewVec3(0, 1, 0)), core.NewSeededSampler(1)); !radiance.IsZero() {
		t.Errorf("Expected black without emitters, got %v", radiance)
	}
}

func TestLi_DirectlyVisibleAreaLight(t *testing.T) {
	pt := mustPath(t, DefaultConfig())
	quad := geometry.NewQuad(core.NewVec3(-1, -1, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0), nil)
	light := lights.NewAreaLight(quad, core.NewVec3(3, 3, 3))
	s := mustScene(t, quad)

	front, _ := pt.Li(s, core.NewRay(core.NewVec3(0, 0, 2), core.NewVec3(0, 0, -1)), core.NewSeededSampler(1))
	if front != light.Radiance() {
		t.Errorf("Expected light radiance from the front, got %v", front)
	}
	back, _ := pt.Li(s, core.NewRay(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 1)), core.NewSeededSampler(1))
	if !back.IsZero() {
		t.Errorf("Expected darkness behind the light, got %v", back)
	}
}

func TestLi_WhiteFurnace(t *testing.T) {
	// A convex diffuse object under a uniform sky reflects albedo * radiance
	tests := []struct {
		name   string
		albedo float64
	}{
		{"dark", 0.2},
		{"grey", 0.5},
		{"bright", 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt := mustPath(t, DefaultConfig())
			sphere := geometry.NewSphere(core.Vec3{}, 1, material.NewLambertian(core.NewVec3(tt.albedo, tt.albedo, tt.albedo)))
			s := mustScene(t, sphere, lights.NewConstantLight(core.NewVec3(1, 1, 1)))

			ray := core.NewRay(core.NewVec3(0.3, 0.2, 5), core.NewVec3(0, 0, -1))
			got := averageLi(pt, s, ray, 20000)
			if math.Abs(got.X-tt.albedo) > 0.03*tt.albedo+0.005 {
				t.Errorf("Expected radiance %v, got %v", tt.albedo, got)
			}
		})
	}
}

func TestLi_MaxDepthLimitsBounces(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxDepth = 1
	pt := mustPath(t, cfg)
	sphere := geometry.NewSphere(core.Vec3{}, 1, material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s := mustScene(t, sphere, lights.NewConstantLight(core.NewVec3(1, 1, 1)))

	radiance, rays := pt.Li(s, core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)), core.NewSeededSampler(1))
	if !radiance.IsZero() {
		t.Errorf("Expected only directly visible emission, got %v", radiance)
	}
	if rays != 1 {
		t.Errorf("Expected one ray, got %d", rays)
	}
}

func TestLi_PointLightOnPlane(t *testing.T) {
	// Irradiance from a point light straight above: I / d², reflected as albedo/pi
	cfg := DefaultConfig()
	cfg.MaxDepth = 2
	pt := mustPath(t, cfg)
	floor := geometry.NewQuad(core.NewVec3(-10, 0, 10), core.NewVec3(20, 0, 0), core.NewVec3(0, 0, -20), material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	light := lights.NewPointLight(core.NewVec3(0, 2, 0), core.NewVec3(4, 4, 4))
	s := mustScene(t, floor, light)

	ray := core.NewRay(core.NewVec3(0, 1, 0.001), core.NewVec3(0, -1, 0))
	got, _ := pt.Li(s, ray, core.NewSeededSampler(1))
	want := 0.5 / math.Pi * 4 / 4
	if math.Abs(got.X-want) > 1e-3 {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestRender_Deterministic(t *testing.T) {
	pt := mustPath(t, Config{MaxDepth: 4, RRDepth: 2, TileSize: 4, Workers: 3})
	sphere := geometry.NewSphere(core.Vec3{}, 1, material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3)))
	s := mustScene(t, sphere, lights.NewConstantLight(core.NewVec3(1, 1, 1)), smallCamera(t, 10, 6), pt)

	first, err := s.Render(0, 7, 2)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	stats := pt.LastStats()
	if stats.TotalPixels != 60 || stats.TotalSamples != 120 || stats.Tiles != 6 || stats.AverageSamples != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if stats.Rays < 120 {
		t.Errorf("Expected at least one ray per sample, got %d", stats.Rays)
	}

	s.Sensors()[0].Film().Clear()
	second, err := s.Render(0, 7, 2)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !sameImage(first, second) {
		t.Error("Expected identical images for the same seed")
	}
}

func TestRender_Errors(t *testing.T) {
	pt := mustPath(t, DefaultConfig())
	s := mustScene(t, smallCamera(t, 4, 4), pt)

	if err := pt.Render(s, 1, 0, 1, false); !errors.Is(err, scene.ErrInvalidSensor) {
		t.Errorf("Expected ErrInvalidSensor, got %v", err)
	}
	if err := pt.Render(s, 0, 0, 0, false); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for zero spp, got %v", err)
	}
}

func TestRender_Develop(t *testing.T) {
	pt := mustPath(t, DefaultConfig())
	cam := smallCamera(t, 4, 4)
	s := mustScene(t, lights.NewConstantLight(core.NewVec3(1, 1, 1)), cam, pt)

	if err := pt.Render(s, 0, 1, 1, true); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	developed := cam.RGBFilm().Developed()
	if developed == nil {
		t.Fatal("Expected developed image")
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if r, _, _, _ := developed.At(x, y).RGBA(); r>>8 != 255 {
				t.Fatalf("Expected white pixel at (%d,%d), got %d", x, y, r>>8)
			}
		}
	}
}

func sameImage(a, b image.Image) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for y := a.Bounds().Min.Y; y < a.Bounds().Max.Y; y++ {
		for x := a.Bounds().Min.X; x < a.Bounds().Max.X; x++ {
			if a.At(x, y) != b.At(x, y) {
				return false
			}
		}
	}
	return true
}
