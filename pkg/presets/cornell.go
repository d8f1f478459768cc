package presets

import (
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/geometry"
	"github.com/df07/go-scene-tracer/pkg/lights"
	"github.com/df07/go-scene-tracer/pkg/material"
	"github.com/df07/go-scene-tracer/pkg/scene"
)

// Cornell box dimensions (standard 555x555x555 units)
const boxSize = 555.0

// Cornell creates a classic Cornell box scene with quad walls and area lighting
func Cornell(opts Options) ([]scene.Object, error) {
	objects := cornellRoom()

	// Left sphere (shiny metal), right sphere (diffuse)
	leftSphere := geometry.NewSphere(core.NewVec3(185, 82.5, 169), 82.5, material.NewMetal(core.NewVec3(0.8, 0.8, 0.9), 0.0))
	leftSphere.SetID("metal_sphere")
	rightSphere := geometry.NewSphere(core.NewVec3(370, 90, 351), 90, cornellWhite)
	rightSphere.SetID("diffuse_sphere")
	objects = append(objects, leftSphere, rightSphere)

	return cornellRenderer(objects, opts)
}

// CornellBoxes creates the Cornell box with its original short and tall blocks
func CornellBoxes(opts Options) ([]scene.Object, error) {
	objects := cornellRoom()

	shortBox := geometry.NewBox(
		core.NewVec3(185, 82.5, 169),
		core.NewVec3(82.5, 82.5, 82.5),
		core.NewVec3(0, -18*math.Pi/180, 0),
		cornellWhite,
	)
	shortBox.SetID("short_box")
	tallBox := geometry.NewBox(
		core.NewVec3(368, 165, 351),
		core.NewVec3(82.5, 165, 82.5),
		core.NewVec3(0, 15*math.Pi/180, 0),
		cornellWhite,
	)
	tallBox.SetID("tall_box")
	objects = append(objects, shortBox, tallBox)

	return cornellRenderer(objects, opts)
}

var cornellWhite = material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73))

// cornellRoom returns the five walls and the ceiling lamp
func cornellRoom() []scene.Object {
	red := material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05))
	green := material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15))

	walls := []struct {
		id      string
		corner  core.Vec3
		u, v    core.Vec3
		surface material.Material
	}{
		{"floor", core.NewVec3(0, 0, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), cornellWhite},
		{"ceiling", core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), cornellWhite},
		{"back", core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0), cornellWhite},
		{"left", core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), red},
		{"right", core.NewVec3(boxSize, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize), green},
	}

	var objects []scene.Object
	for _, w := range walls {
		quad := geometry.NewQuad(w.corner, w.u, w.v, w.surface)
		quad.SetID(w.id)
		objects = append(objects, quad)
	}

	// Ceiling light, slightly below the ceiling and facing down
	lightSize := 130.0
	lightOffset := (boxSize - lightSize) / 2.0
	lamp := geometry.NewQuad(
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		nil,
	)
	lamp.SetID("light")
	lights.NewAreaLight(lamp, core.NewVec3(15, 15, 15))
	return append(objects, lamp)
}

func cornellRenderer(objects []scene.Object, opts Options) ([]scene.Object, error) {
	return withRenderer(objects, opts, core.NewVec3(278, 278, -800), core.NewVec3(278, 278, 0), 40)
}
