package camera

import (
	"image"
	"image/color"
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// pixel accumulates radiance samples for one pixel
type pixel struct {
	colorAccum  core.Vec3 // RGB accumulator for final result
	sampleCount int
}

func (p *pixel) addSample(c core.Vec3) {
	p.colorAccum = p.colorAccum.Add(c)
	p.sampleCount++
}

func (p *pixel) color() core.Vec3 {
	if p.sampleCount == 0 {
		return core.Vec3{}
	}
	return p.colorAccum.Multiply(1.0 / float64(p.sampleCount))
}

// Film is an RGB box-filtered film. Concurrent Put calls are safe as long as
// they address different pixels, which tile-based rendering guarantees.
type Film struct {
	width, height int
	pixels        []pixel

	mu        sync.Mutex
	developed *image.RGBA
}

// NewFilm creates a black film
func NewFilm(width, height int) *Film {
	return &Film{width: width, height: height, pixels: make([]pixel, width*height)}
}

// Size returns the film resolution in pixels
func (f *Film) Size() (int, int) {
	return f.width, f.height
}

// Put adds one radiance sample to pixel (x, y); row 0 is the top of the image
func (f *Film) Put(x, y int, radiance core.Vec3) {
	f.pixels[y*f.width+x].addSample(radiance)
}

// Pixel returns the average radiance of pixel (x, y) and its sample count
func (f *Film) Pixel(x, y int) (core.Vec3, int) {
	p := &f.pixels[y*f.width+x]
	return p.color(), p.sampleCount
}

// Clear discards accumulated samples and the developed image
func (f *Film) Clear() {
	clear(f.pixels)
	f.mu.Lock()
	f.developed = nil
	f.mu.Unlock()
}

// Develop converts the accumulated radiance into an 8-bit image and keeps it
// as the film's developed image
func (f *Film) Develop() image.Image {
	img := f.toImage()
	f.mu.Lock()
	f.developed = img
	f.mu.Unlock()
	return img
}

// Developed returns the image produced by the last Develop, or nil
func (f *Film) Developed() image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.developed == nil {
		return nil
	}
	return f.developed
}

// Image returns the current state of the film
func (f *Film) Image() image.Image {
	return f.toImage()
}

func (f *Film) toImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			img.SetRGBA(x, y, vec3ToColor(f.pixels[y*f.width+x].color()))
		}
	}
	return img
}

// vec3ToColor converts a Vec3 color to RGBA with proper clamping and gamma correction
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	colorVec = colorVec.GammaCorrect(2.0).Clamp(0.0, 1.0)
	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}
