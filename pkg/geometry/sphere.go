package geometry

import (
	"fmt"
	"math"

	"github.com/df07/go-scene-tracer/pkg/core"
	"github.com/df07/go-scene-tracer/pkg/material"
)

// Sphere represents a sphere shape
type Sphere struct {
	Base
	center core.Vec3
	radius float64
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat material.Material) *Sphere {
	s := &Sphere{center: center, radius: radius}
	s.material = mat
	return s
}

// Center returns the sphere center
func (s *Sphere) Center() core.Vec3 { return s.center }

// Radius returns the sphere radius
func (s *Sphere) Radius() float64 { return s.radius }

// SetCenter moves the sphere. The scene picks the change up on its next ParametersChanged.
func (s *Sphere) SetCenter(center core.Vec3) {
	s.center = center
	s.MarkDirty()
}

// SetRadius resizes the sphere
func (s *Sphere) SetRadius(radius float64) {
	s.radius = radius
	s.MarkDirty()
}

// Hit tests if a ray intersects with the sphere
func (s *Sphere) Hit(ray core.Ray, tMin, tMax float64) (core.PreliminaryIntersection, bool) {
	// Quadratic equation coefficients: at² + 2ht + c = 0
	oc := ray.Origin.Subtract(s.center)
	a := ray.Direction.Dot(ray.Direction)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.radius*s.radius

	discriminant := halfB*halfB - a*c
	if discriminant < 0 {
		return core.PreliminaryIntersection{}, false
	}

	// Try the closer intersection point first
	sqrtD := math.Sqrt(discriminant)
	root := (-halfB - sqrtD) / a
	if root < tMin || root > tMax {
		root = (-halfB + sqrtD) / a
		if root < tMin || root > tMax {
			return core.PreliminaryIntersection{}, false
		}
	}

	return core.PreliminaryIntersection{T: root}, true
}

// ComputeSurfaceInteraction fills in position, face-forward normal and, on
// request, spherical UV coordinates with their position partials
func (s *Sphere) ComputeSurfaceInteraction(ray core.Ray, pi core.PreliminaryIntersection, flags core.RayFlags) core.SurfaceInteraction {
	var si core.SurfaceInteraction
	si.P = ray.At(pi.T)
	outward := si.P.Subtract(s.center).Multiply(1.0 / s.radius)
	setFaceNormal(&si, ray, outward)

	if flags.Has(core.RayFlagUV) || flags.Has(core.RayFlagDPdUV) {
		theta := math.Acos(math.Max(-1, math.Min(1, -outward.Y)))
		phi := math.Atan2(-outward.Z, outward.X) + math.Pi
		si.UV = core.NewVec2(phi/(2*math.Pi), theta/math.Pi)

		if flags.Has(core.RayFlagDPdUV) {
			local := si.P.Subtract(s.center)
			si.DPdU = core.NewVec3(local.Z, 0, -local.X).Multiply(2 * math.Pi)
			sinTheta := math.Sin(theta)
			si.DPdV = core.NewVec3(-outward.X*outward.Y, sinTheta*sinTheta, -outward.Z*outward.Y).
				Multiply(math.Pi * s.radius / math.Max(sinTheta, 1e-12))
		}
	}
	return si
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s *Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.radius, s.radius, s.radius)
	return core.NewAABB(s.center.Subtract(radius), s.center.Add(radius))
}

// Sample picks a point uniformly on the sphere surface
func (s *Sphere) Sample(u core.Vec2) (core.Vec3, core.Vec3) {
	n := core.SampleOnUnitSphere(u)
	return s.center.Add(n.Multiply(s.radius)), n
}

// Area returns the sphere surface area
func (s *Sphere) Area() float64 {
	return 4 * math.Pi * s.radius * s.radius
}

func (s *Sphere) String() string {
	return fmt.Sprintf("Sphere[\n  center = %v,\n  radius = %g\n]", s.center, s.radius)
}
