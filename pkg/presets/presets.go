// Package presets builds the ready-made scenes rendered by the command line tool.
package presets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-scene-tracer/pkg/camera"
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/integrator"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// ErrUnknownScene is returned by Build for names without a preset
var ErrUnknownScene = errors.New("presets: unknown scene")

// Options configure the camera and integrator shipped with a preset
type Options struct {
	Width, Height int
	MaxDepth      int // -1 for unbounded paths
	RRDepth       int
	Workers       int
}

// DefaultOptions returns a small preview configuration
func DefaultOptions() Options {
	return Options{Width: 400, Height: 400, MaxDepth: 8, RRDepth: 5}
}

// SceneInfo represents a preset with its metadata
type SceneInfo struct {
	ID          string
	DisplayName string
	Description string
	build       func(Options) ([]scene.Object, error)
}

var registry = map[string]SceneInfo{
	"cornell": {
		ID:          "cornell",
		DisplayName: "Cornell Box",
		Description: "Cornell box with quad walls, a ceiling area light and two spheres",
		build:       Cornell,
	},
	"cornell-boxes": {
		ID:          "cornell-boxes",
		DisplayName: "Cornell Box (blocks)",
		Description: "Cornell box with the original rotated short and tall blocks",
		build:       CornellBoxes,
	},
	"spheres": {
		ID:          "spheres",
		DisplayName: "Sphere Grid",
		Description: "Grid of metal spheres on a ground quad under a sky and a sun",
		build:       SphereGrid,
	},
}

// List returns every preset sorted by id
func List() []SceneInfo {
	scenes := make([]SceneInfo, 0, len(registry))
	for _, info := range registry {
		scenes = append(scenes, info)
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].ID < scenes[j].ID
	})
	return scenes
}

// Build returns the objects of the named preset, ready for scene.New
func Build(name string, opts Options) ([]scene.Object, error) {
	info, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return info.build(opts)
}

// lookAtCamera creates the preset camera
func lookAtCamera(opts Options, from, to core.Vec3, fov float64) (*camera.Perspective, error) {
	cfg := camera.DefaultConfig()
	cfg.Width, cfg.Height = opts.Width, opts.Height
	cfg.Fov = fov
	cfg.ToWorld = core.LookAt(from, to, core.NewVec3(0, 1, 0))
	cfg.FocusDistance = to.Subtract(from).Length()
	return camera.NewPerspective(cfg)
}

// pathIntegrator creates the preset integrator
func pathIntegrator(opts Options) (*integrator.Path, error) {
	cfg := integrator.DefaultConfig()
	cfg.MaxDepth = opts.MaxDepth
	cfg.RRDepth = opts.RRDepth
	cfg.Workers = opts.Workers
	return integrator.NewPath(cfg)
}

// withRenderer appends the preset camera and integrator to objects
func withRenderer(objects []scene.Object, opts Options, from, to core.Vec3, fov float64) ([]scene.Object, error) {
	cam, err := lookAtCamera(opts, from, to, fov)
	if err != nil {
		return nil, err
	}
	path, err := pathIntegrator(opts)
	if err != nil {
		return nil, err
	}
	return append(objects, cam, path), nil
}
