package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-scene-tracer/pkg/accel"
	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/integrator"
	"github.com/df07/go-scene-tracer/pkg/presets"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

var errUsage = errors.New("invalid arguments")

// options holds the parsed command line
type options struct {
	Scene    string
	Backend  string
	Width    int
	Height   int
	SPP      int
	Seed     uint64
	MaxDepth int
	Workers  int
	Out      string
	Format   string
	Scale    float64
	Verbose  bool
	List     bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// parseFlags parses args into options and validates them
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("scene-tracer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.Scene, "scene", "cornell", "Preset to render (see -list)")
	fs.StringVar(&o.Backend, "backend", "", "Acceleration backend (default: the one selected at build time)")
	fs.IntVar(&o.Width, "width", 400, "Image width in pixels")
	fs.IntVar(&o.Height, "height", 400, "Image height in pixels")
	fs.IntVar(&o.SPP, "spp", 16, "Samples per pixel")
	fs.Uint64Var(&o.Seed, "seed", 0, "Random seed")
	fs.IntVar(&o.MaxDepth, "max-depth", 8, "Maximum path length, -1 for unbounded")
	fs.IntVar(&o.Workers, "workers", 0, "Render workers (0 = number of CPUs)")
	fs.StringVar(&o.Out, "out", "", "Output file (default: output/<scene>/render_<timestamp>.<format>)")
	fs.StringVar(&o.Format, "format", "png", "Output format: png, tiff or bmp")
	fs.Float64Var(&o.Scale, "scale", 1, "Resize factor applied to the rendered image")
	fs.BoolVar(&o.Verbose, "v", false, "Verbose logging")
	fs.BoolVar(&o.List, "list", false, "List the available scenes and exit")

	if err := fs.Parse(args); err != nil {
		return o, err
	}

	o.Format = strings.ToLower(o.Format)
	switch {
	case o.Format != "png" && o.Format != "tiff" && o.Format != "bmp":
		return o, fmt.Errorf("%w: unknown format %q", errUsage, o.Format)
	case o.Width <= 0 || o.Height <= 0:
		return o, fmt.Errorf("%w: image size %dx%d", errUsage, o.Width, o.Height)
	case o.SPP <= 0:
		return o, fmt.Errorf("%w: spp must be positive, got %d", errUsage, o.SPP)
	case o.Scale <= 0:
		return o, fmt.Errorf("%w: scale must be positive, got %v", errUsage, o.Scale)
	}
	if o.Backend == "" {
		o.Backend = accel.Active()
	}
	if !accel.IsRegistered(o.Backend) {
		return o, fmt.Errorf("%w: unknown backend %q (available: %s)",
			errUsage, o.Backend, strings.Join(accel.Available(), ", "))
	}
	return o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	core.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	defer core.SetLogger(nil)

	if o.List {
		printScenes(stdout)
		return nil
	}

	if err := accel.StaticInitBackend(o.Backend); err != nil {
		return fmt.Errorf("initializing %s backend: %w", o.Backend, err)
	}
	defer accel.StaticShutdownBackend(o.Backend)

	s, err := createScene(o)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Fprintf(stdout, "Rendering %s at %dx%d, %d spp (%s backend)...\n", o.Scene, o.Width, o.Height, o.SPP, o.Backend)
	start := time.Now()
	img, err := s.Render(0, o.Seed, o.SPP)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	elapsed := time.Since(start)

	img = scaleImage(img, o.Scale)

	filename := o.Out
	if filename == "" {
		filename = defaultOutputPath(o.Scene, o.Format, time.Now())
	}
	if err := saveImage(filename, img, o.Format); err != nil {
		return err
	}

	var stats integrator.RenderStats
	if path, ok := s.Integrator().(*integrator.Path); ok {
		stats = path.LastStats()
	}
	printSummary(stdout, summary{
		Elapsed: elapsed,
		Render:  stats,
		Accel:   s.Backend().Stats(),
		Output:  filename,
	})
	return nil
}

// createScene builds the preset named by o and the scene around it
func createScene(o options) (*scene.Scene, error) {
	opts := presets.DefaultOptions()
	opts.Width, opts.Height = o.Width, o.Height
	opts.MaxDepth = o.MaxDepth
	opts.Workers = o.Workers

	objects, err := presets.Build(o.Scene, opts)
	if err != nil {
		return nil, err
	}
	return scene.New(objects, scene.WithBackendName(o.Backend))
}

// scaleImage resizes img by factor with Catmull-Rom filtering
func scaleImage(img image.Image, factor float64) image.Image {
	if factor == 1 {
		return img
	}
	b := img.Bounds()
	w := max(1, int(float64(b.Dx())*factor+0.5))
	h := max(1, int(float64(b.Dy())*factor+0.5))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// encodeImage writes img to w in the given format
func encodeImage(w io.Writer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "tiff":
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, format)
	}
}

func defaultOutputPath(sceneName, format string, now time.Time) string {
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.%s", now.Format("20060102_150405"), format))
}

func saveImage(filename string, img image.Image, format string) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := encodeImage(file, img, format); err != nil {
		file.Close()
		return fmt.Errorf("encoding %s: %w", format, err)
	}
	return file.Close()
}

func printScenes(w io.Writer) {
	fmt.Fprintln(w, "Available scenes:")
	for _, info := range presets.List() {
		fmt.Fprintf(w, "  %-10s %s - %s\n", info.ID, info.DisplayName, info.Description)
	}
}

type summary struct {
	Elapsed time.Duration
	Render  integrator.RenderStats
	Accel   accel.Stats
	Output  string
}

// printSummary reports render statistics with locale-aware digit grouping
func printSummary(w io.Writer, s summary) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Render completed in %v\n", s.Elapsed.Round(time.Millisecond))
	p.Fprintf(w, "Pixels: %d in %d tiles, %.1f samples per pixel\n",
		s.Render.TotalPixels, s.Render.Tiles, s.Render.AverageSamples)
	p.Fprintf(w, "Rays traced: %d\n", s.Render.Rays)
	if secs := s.Elapsed.Seconds(); secs > 0 {
		p.Fprintf(w, "Throughput: %.0f rays/s\n", float64(s.Render.Rays)/secs)
	}
	p.Fprintf(w, "Acceleration: %d shapes, %d nodes, depth %d\n", s.Accel.Shapes, s.Accel.Nodes, s.Accel.MaxDepth)
	p.Fprintf(w, "Queries: %d nearest, %d occlusion\n", s.Accel.NearestQueries, s.Accel.OcclusionQueries)
	p.Fprintf(w, "Render saved as %s\n", s.Output)
}
