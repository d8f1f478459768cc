package presets

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/geometry"
	"github.com/df07/go-scene-tracer/pkg/lights"
	"github.com/df07/go-scene-tracer/pkg/material"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// oklchToRGB converts OKLCH color values to RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS, cubed
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b
	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	// LMS to linear RGB
	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	return core.NewVec3(r, g, blue).Clamp(0, 1)
}

// SphereGrid creates a grid of metal spheres on a checkered ground
func SphereGrid(opts Options) ([]scene.Object, error) {
	var objects []scene.Object

	// Blue sky and a warm sun-like sphere light
	objects = append(objects, lights.NewConstantLight(core.NewVec3(0.25, 0.35, 0.5)))
	sun := geometry.NewSphere(core.NewVec3(20, 25, 20), 8, nil)
	sun.SetID("sun")
	lights.NewAreaLight(sun, core.NewVec3(12.0, 11.5, 10.0))
	objects = append(objects, sun)

	// Sunk slightly so the checker cubes do not flicker at y=0
	ground := geometry.NewQuad(
		core.NewVec3(-20, -1e-3, 30),
		core.NewVec3(50, 0, 0),
		core.NewVec3(0, 0, -50),
		material.NewTexturedLambertian(material.NewChecker(core.NewVec3(0.55, 0.55, 0.55), core.NewVec3(0.35, 0.35, 0.35), 1)),
	)
	ground.SetID("ground")
	objects = append(objects, ground)

	const (
		gridSize   = 10
		targetArea = 9.0 // Roughly 9x9 units fit the camera view
	)
	spacing := targetArea / float64(gridSize-1)
	sphereRadius := math.Max(0.02, math.Min(0.35, spacing*0.35))

	baseLightness := 0.65
	minChroma, maxChroma := 0.05, 0.25

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			// Grid centered around x=z=4.5, spheres resting on the ground
			x := float64(i)*spacing - targetArea/2.0 + 4.5
			z := float64(j)*spacing - targetArea/2.0 + 4.5

			// Hue across X, chroma across Z
			hue := (float64(i) / float64(gridSize-1)) * 360.0
			chroma := minChroma + (float64(j)/float64(gridSize-1))*(maxChroma-minChroma)
			lightness := baseLightness + 0.1*math.Sin(float64(i+j)*0.5)

			roughness := 0.05 + 0.1*float64((i+j)%3)/2.0
			sphere := geometry.NewSphere(
				core.NewVec3(x, sphereRadius, z),
				sphereRadius,
				material.NewMetal(oklchToRGB(lightness, chroma, hue), roughness),
			)
			sphere.SetID(fmt.Sprintf("sphere_%d_%d", i, j))
			objects = append(objects, sphere)
		}
	}

	return withRenderer(objects, opts, core.NewVec3(4.5, 6, 18), core.NewVec3(4.5, 0.8, 4.5), 40)
}
