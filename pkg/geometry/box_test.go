package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-scene-tracer/pkg/core"
)

func TestBox_FaceNormalsPointOutward(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 2, 3), nil)

	tests := []struct {
		name       string
		origin     core.Vec3
		wantT      float64
		wantNormal core.Vec3
	}{
		{"front", core.NewVec3(0, 0, 10), 7, core.NewVec3(0, 0, 1)},
		{"back", core.NewVec3(0, 0, -10), 7, core.NewVec3(0, 0, -1)},
		{"right", core.NewVec3(10, 0, 0), 9, core.NewVec3(1, 0, 0)},
		{"left", core.NewVec3(-10, 0, 0), 9, core.NewVec3(-1, 0, 0)},
		{"top", core.NewVec3(0, 10, 0), 8, core.NewVec3(0, 1, 0)},
		{"bottom", core.NewVec3(0, -10, 0), 8, core.NewVec3(0, -1, 0)},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ray := core.NewRay(tt.origin, tt.origin.Negate().Normalize())
			pi, ok := box.Hit(ray, 0.001, math.Inf(1))
			if !ok {
				t.Fatal("Expected hit")
			}
			if math.Abs(pi.T-tt.wantT) > 1e-9 {
				t.Errorf("Expected t=%v, got %v", tt.wantT, pi.T)
			}
			if pi.PrimIndex != i {
				t.Errorf("Expected face %d, got %d", i, pi.PrimIndex)
			}
			if !vecNear(box.Face(i).Normal, tt.wantNormal, 1e-9) {
				t.Errorf("Face %d normal %v, want %v", i, box.Face(i).Normal, tt.wantNormal)
			}

			si := box.ComputeSurfaceInteraction(ray, pi, core.RayFlagAll)
			if !si.FrontFace || !vecNear(si.N, tt.wantNormal, 1e-9) {
				t.Errorf("Expected front face with normal %v, got %v (front %t)", tt.wantNormal, si.N, si.FrontFace)
			}
		})
	}
}

func TestBox_InsideHitsBackFace(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), nil)
	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))

	pi, ok := box.Hit(ray, 0.001, math.Inf(1))
	if !ok || math.Abs(pi.T-1) > 1e-9 {
		t.Fatalf("Expected hit at t=1, got %v (hit %t)", pi.T, ok)
	}
	si := box.ComputeSurfaceInteraction(ray, pi, core.RayFlagAll)
	if si.FrontFace || !vecNear(si.N, core.NewVec3(0, -1, 0), 1e-9) {
		t.Errorf("Expected back face with normal (0,-1,0), got %v (front %t)", si.N, si.FrontFace)
	}
}

func TestBox_Rotation(t *testing.T) {
	// A unit cube turned 45 degrees about Y reaches sqrt(2) along X
	box := NewBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), core.NewVec3(0, math.Pi/4, 0), nil)

	bbox := box.BoundingBox()
	if math.Abs(bbox.Max.X-math.Sqrt2) > 1e-3 || math.Abs(bbox.Max.Y-1) > 1e-3 {
		t.Errorf("Unexpected bounds %v", bbox)
	}

	// Just beside the vertical edge the ray meets the face x + z = sqrt(2)
	ray := core.NewRay(core.NewVec3(5, 0, 0.1), core.NewVec3(-1, 0, 0))
	pi, ok := box.Hit(ray, 0.001, math.Inf(1))
	if !ok {
		t.Fatal("Expected hit on the rotated box")
	}
	want := 5 - (math.Sqrt2 - 0.1)
	if math.Abs(pi.T-want) > 1e-6 {
		t.Errorf("Expected t=%v, got %v", want, pi.T)
	}
}

func TestBox_Miss(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), nil)
	ray := core.NewRay(core.NewVec3(0, 3, 10), core.NewVec3(0, 0, -1))
	if _, ok := box.Hit(ray, 0.001, math.Inf(1)); ok {
		t.Error("Expected miss above the box")
	}
}

func TestBox_SetCenterMarksDirty(t *testing.T) {
	box := NewAxisAlignedBox(core.NewVec3(0, 0, 0), core.NewVec3(1, 1, 1), nil)
	box.SetCenter(core.NewVec3(10, 0, 0))

	if !box.Dirty() {
		t.Error("Expected box to be dirty after moving")
	}
	if bbox := box.BoundingBox(); math.Abs(bbox.Center().X-10) > 1e-9 {
		t.Errorf("Expected bounds centered at x=10, got %v", bbox)
	}
}
