package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-scene-tracer/pkg/core"
)

func sceneWithEmitters(t *testing.T, n int, opts ...Option) (*Scene, []*fakeEmitter) {
	t.Helper()
	emitters := make([]*fakeEmitter, n)
	objects := make([]Object, n)
	for i := range emitters {
		emitters[i] = &fakeEmitter{
			point: core.NewVec3(float64(i), 10, 0),
			pdf:   2,
			spec:  core.NewVec3(1, 1, 1),
		}
		objects[i] = emitters[i]
	}
	return mustNew(t, objects, opts...), emitters
}

func TestSampleEmitter(t *testing.T) {
	tests := []struct {
		name         string
		emitters     int
		u            float64
		wantIndex    int
		wantWeight   float64
		wantRemapped float64
	}{
		{"no emitters", 0, 0.5, InvalidIndex, 0, 0.5},
		{"single emitter passes sample through", 1, 0.3, 0, 1, 0.3},
		{"single emitter near one", 1, 0.999, 0, 1, 0.999},
		{"two emitters low", 2, 0.25, 0, 2, 0.5},
		{"two emitters high", 2, 0.75, 1, 2, 0.5},
		{"four emitters", 4, 0.6, 2, 4, 0.4},
		{"zero sample", 3, 0, 0, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := sceneWithEmitters(t, tt.emitters)
			index, weight, remapped := s.SampleEmitter(tt.u)
			if index != tt.wantIndex || weight != tt.wantWeight || math.Abs(remapped-tt.wantRemapped) > 1e-12 {
				t.Errorf("SampleEmitter(%v) = (%d, %v, %v), want (%d, %v, %v)",
					tt.u, index, weight, remapped, tt.wantIndex, tt.wantWeight, tt.wantRemapped)
			}
		})
	}
}

func TestSampleEmitter_IndexStaysInRange(t *testing.T) {
	below := math.Nextafter(1, 0)
	for n := 1; n <= 7; n++ {
		s, _ := sceneWithEmitters(t, n)
		index, _, remapped := s.SampleEmitter(below)
		if index != n-1 {
			t.Errorf("N=%d: expected index %d for u just below 1, got %d", n, n-1, index)
		}
		if remapped < 0 || remapped >= 1 {
			t.Errorf("N=%d: remapped sample %v outside [0,1)", n, remapped)
		}
	}
}

func TestPdfEmitter_SumsToOne(t *testing.T) {
	for n := 1; n <= 6; n++ {
		s, _ := sceneWithEmitters(t, n)
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += s.PdfEmitter(i)
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("N=%d: pdf sums to %v", n, sum)
		}
	}
}

func TestSampleEmitter_RemappedSampleIsUniform(t *testing.T) {
	const (
		emitters = 3
		samples  = 60000
		bins     = 10
	)
	s, _ := sceneWithEmitters(t, emitters)
	random := rand.New(rand.NewSource(42))

	var counts [emitters][bins]int
	var perIndex [emitters]int
	for i := 0; i < samples; i++ {
		index, _, remapped := s.SampleEmitter(random.Float64())
		counts[index][int(remapped*bins)]++
		perIndex[index]++
	}

	for index := range counts {
		expected := float64(perIndex[index]) / bins
		for bin, count := range counts[index] {
			if math.Abs(float64(count)-expected) > 0.1*expected {
				t.Errorf("Index %d bin %d: %d samples, expected about %.0f", index, bin, count, expected)
			}
		}
		share := float64(perIndex[index]) / samples
		if math.Abs(share-1.0/emitters) > 0.01 {
			t.Errorf("Index %d chosen with frequency %v", index, share)
		}
	}
}

func TestSampleEmitterRay(t *testing.T) {
	empty, _ := sceneWithEmitters(t, 0)
	ray, weight, emitter := empty.SampleEmitterRay(0, 0.5, core.Vec2{}, core.Vec2{})
	if emitter != nil || !weight.IsZero() || ray != (core.Ray{}) {
		t.Errorf("Expected zero ray, weight and emitter, got %v %v %v", ray, weight, emitter)
	}

	single, one := sceneWithEmitters(t, 1)
	_, weight, emitter = single.SampleEmitterRay(0, 0.3, core.Vec2{}, core.Vec2{})
	if emitter != one[0] || weight != core.NewVec3(1, 1, 1) || one[0].lastU1 != 0.3 {
		t.Errorf("Single emitter: got weight %v, u1 %v", weight, one[0].lastU1)
	}

	multi, many := sceneWithEmitters(t, 4)
	_, weight, emitter = multi.SampleEmitterRay(0, 0.6, core.Vec2{}, core.Vec2{})
	if emitter != many[2] {
		t.Errorf("Expected emitter 2 for u=0.6")
	}
	if weight != core.NewVec3(4, 4, 4) {
		t.Errorf("Expected weight scaled by 4, got %v", weight)
	}
	if math.Abs(many[2].lastU1-0.4) > 1e-12 {
		t.Errorf("Expected re-mapped sample 0.4, got %v", many[2].lastU1)
	}
}

func TestSampleEmitterDirection_DiscreteSelection(t *testing.T) {
	s, emitters := sceneWithEmitters(t, 2)
	ref := core.Interaction{P: core.Vec3{}}

	ds, spec := s.SampleEmitterDirection(ref, core.NewVec2(0.75, 0.2), false)
	if ds.Emitter != emitters[1] {
		t.Fatalf("Expected emitter 1 for u=0.75")
	}
	if ds.Pdf != 1 {
		t.Errorf("Expected pdf 2 * 1/2 = 1, got %v", ds.Pdf)
	}
	if spec != core.NewVec3(2, 2, 2) {
		t.Errorf("Expected contribution scaled by 2, got %v", spec)
	}
	if math.Abs(emitters[1].lastU.X-0.5) > 1e-12 || emitters[1].lastU.Y != 0.2 {
		t.Errorf("Expected re-mapped sample (0.5, 0.2), got %v", emitters[1].lastU)
	}

	if pdf := s.PdfEmitterDirection(ref, ds); pdf != ds.Pdf {
		t.Errorf("PdfEmitterDirection %v disagrees with sampled pdf %v", pdf, ds.Pdf)
	}
	if eval := s.EvalEmitterDirection(ref, ds); eval != core.NewVec3(2, 2, 2) {
		t.Errorf("Expected delegated evaluation, got %v", eval)
	}
}

func TestSampleEmitterDirection_SingleEmitter(t *testing.T) {
	s, emitters := sceneWithEmitters(t, 1)
	ds, spec := s.SampleEmitterDirection(core.Interaction{}, core.NewVec2(0.3, 0.7), true)

	if ds.Pdf != 2 || spec != core.NewVec3(1, 1, 1) {
		t.Errorf("Expected unscaled sample, got pdf %v spec %v", ds.Pdf, spec)
	}
	if emitters[0].lastU != core.NewVec2(0.3, 0.7) {
		t.Errorf("Expected sample passed through, got %v", emitters[0].lastU)
	}
	if pdf := s.PdfEmitterDirection(core.Interaction{}, ds); pdf != ds.Pdf {
		t.Errorf("PdfEmitterDirection %v disagrees with sampled pdf %v", pdf, ds.Pdf)
	}
}

func TestSampleEmitterDirection_NoEmitters(t *testing.T) {
	s, _ := sceneWithEmitters(t, 0)
	ds, spec := s.SampleEmitterDirection(core.Interaction{}, core.NewVec2(0.5, 0.5), true)
	if ds.IsValid() || !spec.IsZero() || ds.Emitter != nil {
		t.Errorf("Expected invalid sample, got %+v %v", ds, spec)
	}
	if pdf := s.PdfEmitterDirection(core.Interaction{}, ds); pdf != 0 {
		t.Errorf("Expected pdf 0 for a sample without emitter, got %v", pdf)
	}
}

func TestSampleEmitterDirection_ZeroPdfSkipsOcclusion(t *testing.T) {
	for _, n := range []int{1, 3} {
		backend := newRecordingBackend()
		s, emitters := sceneWithEmitters(t, n, WithBackend(backend))
		for _, e := range emitters {
			e.pdf = 0
		}

		ds, spec := s.SampleEmitterDirection(core.Interaction{}, core.NewVec2(0.5, 0.5), true)
		if ds.Pdf != 0 {
			t.Errorf("N=%d: expected pdf 0, got %v", n, ds.Pdf)
		}
		if !spec.IsZero() {
			t.Errorf("N=%d: expected zero contribution, got %v", n, spec)
		}
		if backend.tests != 0 {
			t.Errorf("N=%d: expected no occlusion query, got %d", n, backend.tests)
		}
	}
}

func TestSampleEmitterDirection_Visibility(t *testing.T) {
	light := &fakeEmitter{point: core.NewVec3(0, 10, 0), pdf: 1, spec: core.NewVec3(3, 3, 3)}
	blocker := newFakeShape(core.NewVec3(0, 5, 0), 1)
	backend := newRecordingBackend()
	s := mustNew(t, []Object{light, blocker}, WithBackend(backend))

	ds, spec := s.SampleEmitterDirection(core.Interaction{}, core.NewVec2(0.5, 0.5), false)
	if ds.Pdf != 1 || spec.IsZero() || backend.tests != 0 {
		t.Errorf("Expected untested sample, got pdf %v spec %v after %d tests", ds.Pdf, spec, backend.tests)
	}

	ds, spec = s.SampleEmitterDirection(core.Interaction{}, core.NewVec2(0.5, 0.5), true)
	if ds.Pdf != 0 || !spec.IsZero() {
		t.Errorf("Expected occluded sample zeroed, got pdf %v spec %v", ds.Pdf, spec)
	}
	if backend.tests != 1 {
		t.Errorf("Expected one occlusion query, got %d", backend.tests)
	}

	// A reference point beside the blocker sees the light
	ref := core.Interaction{P: core.NewVec3(5, 0, 0)}
	light.point = core.NewVec3(5, 10, 0)
	ds, spec = s.SampleEmitterDirection(ref, core.NewVec2(0.5, 0.5), true)
	if ds.Pdf != 1 || spec != core.NewVec3(3, 3, 3) {
		t.Errorf("Expected visible sample unchanged, got pdf %v spec %v", ds.Pdf, spec)
	}
}
