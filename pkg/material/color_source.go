package material

import (
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// ColorSource provides spatially-varying colors for materials
type ColorSource interface {
	// Evaluate returns color at given UV coordinates and 3D point
	Evaluate(uv core.Vec2, point core.Vec3) core.Vec3
}

// SolidColor provides uniform color
type SolidColor struct {
	Color core.Vec3
}

// NewSolidColor creates a new solid color source
func NewSolidColor(color core.Vec3) *SolidColor {
	return &SolidColor{Color: color}
}

// Evaluate returns the solid color regardless of UV or position
func (s *SolidColor) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	return s.Color
}

// Checker alternates two colors on a 3D grid of cubes
type Checker struct {
	Even, Odd core.Vec3
	Size      float64 // Edge length of one cube
}

// NewChecker creates a solid checker pattern with cubes of the given size
func NewChecker(even, odd core.Vec3, size float64) *Checker {
	return &Checker{Even: even, Odd: odd, Size: size}
}

// Evaluate picks the color of the cube containing point
func (c *Checker) Evaluate(uv core.Vec2, point core.Vec3) core.Vec3 {
	sum := int(math.Floor(point.X/c.Size)) + int(math.Floor(point.Y/c.Size)) + int(math.Floor(point.Z/c.Size))
	if sum%2 == 0 {
		return c.Even
	}
	return c.Odd
}
