package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-scene-tracer/pkg/core"
)

func TestQuad_Hit_BasicIntersection(t *testing.T) {
	// A 1x1 quad in the XZ plane at y=0
	quad := NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), nil)

	ray := core.NewRay(core.NewVec3(0.25, 1, 0.75), core.NewVec3(0, -1, 0))
	pi, isHit := quad.Hit(ray, 0.001, 1000.0)
	if !isHit {
		t.Fatal("Expected hit, but got miss")
	}
	if math.Abs(pi.T-1) > 1e-9 {
		t.Errorf("Expected t=1, got t=%f", pi.T)
	}

	si := quad.ComputeSurfaceInteraction(ray, pi, core.RayFlagAll)
	if !vecNear(si.P, core.NewVec3(0.25, 0, 0.75), 1e-9) {
		t.Errorf("Expected hit point (0.25, 0, 0.75), got %v", si.P)
	}
	if math.Abs(si.UV.X-0.25) > 1e-9 || math.Abs(si.UV.Y-0.75) > 1e-9 {
		t.Errorf("Expected UV (0.25, 0.75), got %v", si.UV)
	}
	if si.DPdU != quad.U || si.DPdV != quad.V {
		t.Errorf("Expected partials equal to the edges, got %v %v", si.DPdU, si.DPdV)
	}
}

func TestQuad_Hit_OutsideBounds(t *testing.T) {
	quad := NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), nil)

	tests := []struct {
		name      string
		rayOrigin core.Vec3
		rayDir    core.Vec3
	}{
		{"outside X bounds (negative)", core.NewVec3(-0.5, 1, 0.5), core.NewVec3(0, -1, 0)},
		{"outside X bounds (positive)", core.NewVec3(1.5, 1, 0.5), core.NewVec3(0, -1, 0)},
		{"outside Z bounds (negative)", core.NewVec3(0.5, 1, -0.5), core.NewVec3(0, -1, 0)},
		{"outside Z bounds (positive)", core.NewVec3(0.5, 1, 1.5), core.NewVec3(0, -1, 0)},
		{"parallel to plane", core.NewVec3(0.5, 1, 0.5), core.NewVec3(1, 0, 0)},
		{"pointing away", core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.rayOrigin, tt.rayDir)
			if pi, isHit := quad.Hit(ray, 0.001, 1000.0); isHit {
				t.Errorf("Expected miss, got hit at t=%f", pi.T)
			}
		})
	}
}

func TestQuad_FaceNormal(t *testing.T) {
	// U × V points down (-Y)
	quad := NewQuad(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 0, 1), nil)
	if !vecNear(quad.Normal, core.NewVec3(0, -1, 0), 1e-12) {
		t.Fatalf("Expected normal -Y, got %v", quad.Normal)
	}

	from := core.NewRay(core.NewVec3(0.5, 1, 0.5), core.NewVec3(0, -1, 0))
	pi, _ := quad.Hit(from, 0.001, 10)
	si := quad.ComputeSurfaceInteraction(from, pi, core.RayFlagMinimal)
	if si.FrontFace {
		t.Error("Ray from above hits the back of a downward facing quad")
	}
	if !vecNear(si.N, core.NewVec3(0, 1, 0), 1e-12) {
		t.Errorf("Expected normal facing the ray, got %v", si.N)
	}
}

func TestQuad_BoundingBoxIsPadded(t *testing.T) {
	quad := NewQuad(core.NewVec3(0, 2, 0), core.NewVec3(3, 0, 0), core.NewVec3(0, 0, 4), nil)
	box := quad.BoundingBox()
	if box.Max.Y <= box.Min.Y {
		t.Errorf("Expected non-degenerate box for a flat quad, got %v", box)
	}
	if box.Min.X > 0 || box.Max.X < 3 || box.Min.Z > 0 || box.Max.Z < 4 {
		t.Errorf("Box %v does not contain the quad", box)
	}
}

func TestQuad_SampleAndArea(t *testing.T) {
	quad := NewQuad(core.NewVec3(1, 0, 1), core.NewVec3(2, 0, 0), core.NewVec3(0, 0, 3), nil)
	if area := quad.Area(); math.Abs(area-6) > 1e-12 {
		t.Errorf("Expected area 6, got %v", area)
	}

	p, n := quad.Sample(core.NewVec2(0.5, 0.5))
	if !vecNear(p, core.NewVec3(2, 0, 2.5), 1e-12) {
		t.Errorf("Expected center sample (2, 0, 2.5), got %v", p)
	}
	if n != quad.Normal {
		t.Errorf("Expected quad normal, got %v", n)
	}

	quad.SetCorner(core.NewVec3(0, 1, 0))
	if !quad.Dirty() {
		t.Error("Expected SetCorner to mark the quad dirty")
	}
	if _, ok := quad.Hit(core.NewRay(core.NewVec3(0.5, 5, 0.5), core.NewVec3(0, -1, 0)), 0.001, 10); !ok {
		t.Error("Expected moved quad to be hit at its new position")
	}
}

func TestGroup(t *testing.T) {
	near := NewSphere(core.NewVec3(0, 0, -2), 0.5, nil)
	far := NewSphere(core.NewVec3(0, 0, -5), 0.5, nil)
	group := NewGroup(far, near)

	if !group.IsShapeGroup() {
		t.Fatal("Expected group to report itself as a shape group")
	}

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))
	pi, ok := group.Hit(ray, 0.001, 100)
	if !ok || pi.MemberIndex != 1 || math.Abs(pi.T-1.5) > 1e-9 {
		t.Fatalf("Expected nearest member 1 at t=1.5, got %+v", pi)
	}
	si := group.ComputeSurfaceInteraction(ray, pi, core.RayFlagMinimal)
	if !vecNear(si.P, core.NewVec3(0, 0, -1.5), 1e-9) {
		t.Errorf("Expected hit on the near sphere, got %v", si.P)
	}

	box := group.BoundingBox()
	if box.Min.Z != -5.5 || box.Max.Z != -1.5 {
		t.Errorf("Unexpected group bounds %v", box)
	}
}

func TestGroup_KeepsMemberPrimIndex(t *testing.T) {
	spheres := make([]core.Shape, 0, 7)
	for i := 0; i < 6; i++ {
		spheres = append(spheres, NewSphere(core.NewVec3(float64(i)*10+20, 0, 0), 0.5, nil))
	}
	box := NewAxisAlignedBox(core.Vec3{}, core.NewVec3(1, 1, 1), nil)

	tests := []struct {
		name    string
		members []core.Shape
		slot    int
	}{
		{"box after six shapes", append(spheres, box), 6},
		{"box as second member", []core.Shape{spheres[0], box}, 1},
	}

	// Front face of the box, index 0
	ray := core.NewRay(core.NewVec3(0.2, 0.3, 10), core.NewVec3(0, 0, -1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group := NewGroup(tt.members...)
			pi, ok := group.Hit(ray, 0.001, math.Inf(1))
			if !ok {
				t.Fatal("Expected hit")
			}
			if pi.MemberIndex != tt.slot || pi.PrimIndex != 0 {
				t.Errorf("Expected member %d face 0, got member %d face %d", tt.slot, pi.MemberIndex, pi.PrimIndex)
			}
			si := group.ComputeSurfaceInteraction(ray, pi, core.RayFlagMinimal)
			if !vecNear(si.P, core.NewVec3(0.2, 0.3, 1), 1e-9) {
				t.Errorf("Expected hit on the front face, got %v", si.P)
			}
			if !vecNear(si.N, core.NewVec3(0, 0, 1), 1e-9) {
				t.Errorf("Expected front face normal, got %v", si.N)
			}
		})
	}
}
