package accel

import (
	"sync"

	"github.com/df07/go-scene-tracer/pkg/core"
)

// WaveSize is the number of lanes traced together by one executor task
const WaveSize = 256

func init() {
	Register(NameWavefront, func() Backend { return NewWavefront() })
	RegisterStatic(NameWavefront, StaticHooks{
		Init:     InitWavefront,
		Shutdown: ShutdownWavefront,
	})
}

// executor is the process-global context shared by every wavefront structure
var executor struct {
	mu    sync.Mutex
	refs  int
	pool  *workerPool
	waves int64
}

// InitWavefront creates the process-global executor, or takes another
// reference to it if one already exists.
func InitWavefront() error {
	executor.mu.Lock()
	defer executor.mu.Unlock()

	executor.refs++
	if executor.pool == nil {
		executor.pool = newWorkerPool(0)
		core.Logger().Debug("accel: wavefront executor started", "workers", executor.pool.Workers())
	}
	return nil
}

// ShutdownWavefront drops a reference to the executor and stops it when the
// last reference goes. Extra calls are ignored.
func ShutdownWavefront() {
	executor.mu.Lock()
	defer executor.mu.Unlock()

	if executor.refs == 0 {
		return
	}
	executor.refs--
	if executor.refs == 0 && executor.pool != nil {
		executor.pool.Close()
		executor.pool = nil
		core.Logger().Debug("accel: wavefront executor stopped", "waves", executor.waves)
	}
}

// currentPool returns the running executor pool, or nil
func currentPool() *workerPool {
	executor.mu.Lock()
	defer executor.mu.Unlock()
	return executor.pool
}

// dispatch splits n lanes into waves and runs fn on each of them
func dispatch(pool *workerPool, n int, fn func(lo, hi int)) {
	if n <= WaveSize {
		fn(0, n)
		return
	}

	work := make([]func(), 0, (n+WaveSize-1)/WaveSize)
	for lo := 0; lo < n; lo += WaveSize {
		hi := min(lo+WaveSize, n)
		work = append(work, func() { fn(lo, hi) })
	}
	pool.ExecuteAll(work)

	executor.mu.Lock()
	executor.waves += int64(len(work))
	executor.mu.Unlock()
}

// Wavefront is a backend that splits batches into fixed-size waves executed on
// the process-global executor. It needs InitWavefront (or StaticInit with the
// wavefront build tag) before Build, and offers no brute-force path.
type Wavefront struct {
	flatIndex
	pool *workerPool
}

// NewWavefront creates an unbuilt wavefront backend
func NewWavefront() *Wavefront {
	w := &Wavefront{}
	w.flat = flatten(buildTree(nil))
	return w
}

// Name implements Backend
func (w *Wavefront) Name() string { return NameWavefront }

// Build implements Backend
func (w *Wavefront) Build(shapes []core.Shape) error {
	pool := currentPool()
	if pool == nil {
		return ErrNotInitialized
	}
	w.pool = pool
	w.build(shapes)
	core.Logger().Debug("accel: wavefront built", "stats", w.flat.stats().String())
	return nil
}

func (w *Wavefront) ready() error {
	if w.released {
		return ErrReleased
	}
	if w.pool == nil || !w.pool.IsRunning() {
		return ErrNotInitialized
	}
	return nil
}

// Intersect implements Backend
func (w *Wavefront) Intersect(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask, out []core.SurfaceInteraction) error {
	checkLanes(len(rays), active, len(out))
	if err := w.ready(); err != nil {
		return err
	}
	shared, _ := w.signsFor(rays, coherent, active)
	dispatch(w.pool, len(rays), func(lo, hi int) {
		w.intersectRange(lo, hi, rays, flags, shared, active, out)
	})
	w.nearestQueries.Add(int64(len(rays)))
	return nil
}

// IntersectPreliminary implements Backend
func (w *Wavefront) IntersectPreliminary(rays []core.Ray, coherent bool, active core.Mask, out []core.PreliminaryIntersection) error {
	checkLanes(len(rays), active, len(out))
	if err := w.ready(); err != nil {
		return err
	}
	shared, _ := w.signsFor(rays, coherent, active)
	dispatch(w.pool, len(rays), func(lo, hi int) {
		w.preliminaryRange(lo, hi, rays, shared, active, out)
	})
	w.preliminaryQueries.Add(int64(len(rays)))
	return nil
}

// Test implements Backend
func (w *Wavefront) Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error {
	checkLanes(len(rays), active, len(out))
	if err := w.ready(); err != nil {
		return err
	}
	dispatch(w.pool, len(rays), func(lo, hi int) {
		w.testRange(lo, hi, rays, active, out)
	})
	w.occlusionQueries.Add(int64(len(rays)))
	return nil
}

// IntersectNaive is not provided by this backend
func (w *Wavefront) IntersectNaive(rays []core.Ray, active core.Mask, out []core.SurfaceInteraction) error {
	return ErrNotImplemented
}

// Refresh implements Backend
func (w *Wavefront) Refresh(dirty []int) error {
	return w.refresh(NameWavefront, dirty)
}

// Release implements Backend. The executor stays alive for other structures.
func (w *Wavefront) Release() {
	w.release()
	w.pool = nil
}

// Stats implements Backend
func (w *Wavefront) Stats() Stats {
	return w.statsSnapshot()
}
