package integrator

import (
	"fmt"
	"math"
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/geometry"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// Path implements unidirectional path tracing with next-event estimation.
// Emitter hits and emitter samples are combined with the power heuristic.
type Path struct {
	id     string
	config Config

	mu        sync.Mutex
	lastStats RenderStats
}

// NewPath creates a new path tracing integrator
func NewPath(cfg Config) (*Path, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Path{config: cfg}, nil
}

// ID returns the integrator id
func (pt *Path) ID() string { return pt.id }

// Config returns the integrator configuration
func (pt *Path) Config() Config { return pt.config }

// LastStats returns the statistics of the most recent Render
func (pt *Path) LastStats() RenderStats {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	return pt.lastStats
}

// Render traces spp paths through every pixel of the sensor's film. Tiles are
// rendered in parallel; the result depends only on seed.
func (pt *Path) Render(s *scene.Scene, sensorIndex int, seed uint64, spp int, develop bool) error {
	if sensorIndex < 0 || sensorIndex >= len(s.Sensors()) {
		return fmt.Errorf("%w: %d", scene.ErrInvalidSensor, sensorIndex)
	}
	if spp <= 0 {
		return fmt.Errorf("%w: %d samples per pixel", ErrInvalidConfig, spp)
	}

	sensor := s.Sensors()[sensorIndex]
	film := sensor.Film()
	width, height := film.Size()
	tiles := NewTileGrid(width, height, pt.config.TileSize, seed)

	render := func(tile *Tile, samples int) RenderStats {
		return pt.renderTile(s, sensor, tile, samples)
	}
	pool := NewWorkerPool(render, len(tiles), pt.config.Workers)
	pool.Start()
	for i, tile := range tiles {
		pool.SubmitTask(TileTask{Tile: tile, TargetSamples: spp, TaskID: i})
	}

	var stats RenderStats
	for range tiles {
		result, _ := pool.GetResult()
		stats.add(result.Stats)
	}
	pool.Stop()
	stats.finalize()

	pt.mu.Lock()
	pt.lastStats = stats
	pt.mu.Unlock()

	core.Logger().Debug("integrator: render finished",
		"tiles", stats.Tiles, "workers", pool.NumWorkers(), "samples", stats.TotalSamples, "rays", stats.Rays)

	if develop {
		film.Develop()
	}
	return nil
}

// renderTile renders pixels within the tile bounds
func (pt *Path) renderTile(s *scene.Scene, sensor scene.Sensor, tile *Tile, spp int) RenderStats {
	film := sensor.Film()
	width, height := film.Size()
	sampler := core.NewRandomSampler(tile.Random)

	stats := RenderStats{Tiles: 1, TotalPixels: tile.Bounds.Dx() * tile.Bounds.Dy()}
	for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
		for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
			for i := 0; i < spp; i++ {
				jitter := sampler.Get2D()
				pos := core.NewVec2((float64(x)+jitter.X)/float64(width), (float64(y)+jitter.Y)/float64(height))
				ray, weight := sensor.SampleRay(0, pos, sampler.Get2D())

				radiance, rays := pt.Li(s, ray, sampler)
				film.Put(x, y, weight.MultiplyVec(radiance))
				stats.Rays += rays
			}
			stats.TotalSamples += spp
		}
	}
	return stats
}

// Li estimates the radiance arriving along ray. It also returns the number of
// rays traced.
func (pt *Path) Li(s *scene.Scene, ray core.Ray, sampler core.Sampler) (core.Vec3, int64) {
	var result core.Vec3
	var rays int64
	throughput := core.NewVec3(1, 1, 1)

	// State of the previous vertex, for weighting emitter hits
	var prevRef core.Interaction
	prevPdf := 1.0
	prevDelta := true

	for depth := 0; pt.config.MaxDepth < 0 || depth < pt.config.MaxDepth; depth++ {
		si := s.RayIntersect(ray, core.RayFlagAll, depth == 0)
		rays++

		// Emission seen directly along the path
		if emitter := emitterAt(s, si); emitter != nil {
			weight := 1.0
			if !prevDelta {
				ds := directionSampleAt(si, ray, emitter)
				weight = core.PowerHeuristic(1, prevPdf, 1, s.PdfEmitterDirection(prevRef, ds))
			}
			result = result.Add(throughput.MultiplyVec(emitter.Eval(si)).Multiply(weight))
		}

		if !si.IsValid() || (pt.config.MaxDepth >= 0 && depth+1 >= pt.config.MaxDepth) {
			break
		}
		surface, ok := si.Shape.(geometry.Surface)
		if !ok || surface.Material() == nil {
			break
		}
		mat := surface.Material()

		// Next-event estimation; delta materials report isDelta for any direction
		if _, isDelta := mat.PDF(ray.Direction, si.N, si.N); !isDelta {
			ds, spec := s.SampleEmitterDirection(si.Interaction, sampler.Get2D(), true)
			rays++
			if ds.Pdf > 0 {
				if cosine := ds.D.Dot(si.N); cosine > 0 {
					brdf := mat.EvaluateBRDF(ray.Direction, ds.D, si)
					weight := 1.0
					if !ds.Delta {
						bsdfPdf, _ := mat.PDF(ray.Direction, ds.D, si.N)
						weight = core.PowerHeuristic(1, ds.Pdf, 1, bsdfPdf)
					}
					result = result.Add(throughput.MultiplyVec(brdf).MultiplyVec(spec).Multiply(cosine * weight))
				}
			}
		}

		// Material sampling
		scatter, didScatter := mat.Scatter(ray, si, sampler)
		if !didScatter {
			break
		}
		if scatter.IsSpecular() {
			throughput = throughput.MultiplyVec(scatter.Attenuation)
			prevDelta = true
		} else {
			cosine := scatter.Scattered.Direction.Normalize().Dot(si.N)
			if cosine <= 0 {
				break
			}
			throughput = throughput.MultiplyVec(scatter.Attenuation).Multiply(cosine / scatter.PDF)
			prevPdf = scatter.PDF
			prevDelta = false
		}
		prevRef = si.Interaction
		ray = scatter.Scattered

		// Russian roulette
		if depth+1 >= pt.config.RRDepth {
			survivalProb := math.Min(0.95, throughput.MaxComponent())
			if sampler.Get1D() >= survivalProb {
				break
			}
			throughput = throughput.Multiply(1 / survivalProb)
		}
	}

	return result, rays
}

// emitterAt returns the emitter seen at si: the surface's own emitter for a
// hit, the environment for a miss
func emitterAt(s *scene.Scene, si core.SurfaceInteraction) scene.Emitter {
	if !si.IsValid() {
		return s.Environment()
	}
	if es, ok := si.Shape.(scene.EmitterShape); ok {
		return es.Emitter()
	}
	return nil
}

// directionSampleAt describes an emitter hit the way SampleEmitterDirection
// would have produced it, so its density can be queried
func directionSampleAt(si core.SurfaceInteraction, ray core.Ray, emitter scene.Emitter) core.DirectionSample {
	length := ray.Direction.Length()
	ds := core.DirectionSample{
		P:       si.P,
		N:       si.N,
		Time:    ray.Time,
		D:       ray.Direction.Multiply(1 / length),
		Dist:    si.T * length,
		Emitter: emitter,
	}
	if !si.IsValid() {
		ds.Dist = math.Inf(1)
	}
	return ds
}

func (pt *Path) String() string {
	return fmt.Sprintf("PathIntegrator[\n  max_depth = %d,\n  rr_depth = %d\n]", pt.config.MaxDepth, pt.config.RRDepth)
}
