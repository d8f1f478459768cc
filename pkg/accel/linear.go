package accel

import (
	"sync/atomic"

	"github.com/df07/go-scene-tracer/pkg/core"
)

func init() {
	Register(NameLinear, func() Backend { return NewLinear() })
}

// flatNode is a hierarchy node laid out depth first: the left child of an
// internal node immediately follows it, the right child sits at second.
type flatNode struct {
	bounds core.AABB
	parent int32 // -1 for the root
	second int32 // Right child of internal nodes
	offset int32 // First entry in flatBVH.order for leaves
	count  int32 // Shapes in a leaf, 0 for internal nodes
	axis   uint8
}

// flatBVH is a flattened hierarchy traversed with an explicit stack
type flatBVH struct {
	nodes  []flatNode
	order  []int       // Shape indices referenced by leaf ranges
	leafOf []int32     // Leaf node index of each shape
	boxes  []core.AABB // Cached shape bounds
}

// flatten converts the pointer hierarchy into a depth-first node array
func flatten(tree *bvhTree) *flatBVH {
	f := &flatBVH{
		boxes:  tree.boxes,
		leafOf: make([]int32, len(tree.boxes)),
	}
	if tree.root != nil {
		f.convert(tree.root, -1)
	}
	return f
}

func (f *flatBVH) convert(node *bvhNode, parent int32) int32 {
	ptr := int32(len(f.nodes))
	f.nodes = append(f.nodes, flatNode{
		bounds: node.BoundingBox,
		parent: parent,
		axis:   uint8(node.axis),
	})

	if node.Shapes != nil {
		f.nodes[ptr].offset = int32(len(f.order))
		f.nodes[ptr].count = int32(len(node.Shapes))
		f.order = append(f.order, node.Shapes...)
		for _, idx := range node.Shapes {
			f.leafOf[idx] = ptr
		}
		return ptr
	}

	f.convert(node.Left, ptr)
	f.nodes[ptr].second = f.convert(node.Right, ptr)
	return ptr
}

// closest finds the nearest hit, pushing the far child below the near one
func (f *flatBVH) closest(shapes []core.Shape, ray core.Ray, signs [3]bool) core.PreliminaryIntersection {
	best := core.NoPreliminaryIntersection()
	if len(f.nodes) == 0 {
		return best
	}

	closestSoFar := ray.TMax
	var buf [64]int32
	stack := append(buf[:0], 0)

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &f.nodes[idx]

		if !node.bounds.Hit(ray, core.RayEpsilon, closestSoFar) {
			continue
		}

		if node.count > 0 {
			for _, s := range f.order[node.offset : node.offset+node.count] {
				if hit, ok := shapes[s].Hit(ray, core.RayEpsilon, closestSoFar); ok {
					closestSoFar = hit.T
					hit.Shape = shapes[s]
					hit.ShapeIndex = s
					best = hit
				}
			}
			continue
		}

		near, far := idx+1, node.second
		if signs[node.axis] {
			near, far = far, near
		}
		stack = append(stack, far, near)
	}
	return best
}

// occluded reports whether anything blocks the ray
func (f *flatBVH) occluded(shapes []core.Shape, ray core.Ray) bool {
	if len(f.nodes) == 0 {
		return false
	}

	var buf [64]int32
	stack := append(buf[:0], 0)

	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := &f.nodes[idx]

		if !node.bounds.Hit(ray, core.RayEpsilon, ray.TMax) {
			continue
		}
		if node.count > 0 {
			for _, s := range f.order[node.offset : node.offset+node.count] {
				if _, ok := shapes[s].Hit(ray, core.RayEpsilon, ray.TMax); ok {
					return true
				}
			}
			continue
		}
		stack = append(stack, node.second, idx+1)
	}
	return false
}

// refit recomputes the bounds of the leaf holding shape idx and of its ancestors
func (f *flatBVH) refit(shapes []core.Shape, idx int) {
	f.boxes[idx] = shapes[idx].BoundingBox()
	leaf := f.leafOf[idx]
	node := &f.nodes[leaf]

	box := core.EmptyAABB()
	for _, s := range f.order[node.offset : node.offset+node.count] {
		box = box.Union(f.boxes[s])
	}
	node.bounds = box

	for p := node.parent; p >= 0; p = f.nodes[p].parent {
		f.nodes[p].bounds = f.nodes[p+1].bounds.Union(f.nodes[f.nodes[p].second].bounds)
	}
}

func (f *flatBVH) stats() Stats {
	stats := Stats{Shapes: len(f.boxes), Nodes: len(f.nodes)}
	depth := make([]int, len(f.nodes))
	for i, node := range f.nodes {
		if node.parent >= 0 {
			depth[i] = depth[node.parent] + 1
		}
		if depth[i] > stats.MaxDepth {
			stats.MaxDepth = depth[i]
		}
		if node.count > 0 {
			stats.Leaves++
		}
	}
	return stats
}

// flatIndex holds the state shared by backends that traverse a flattened hierarchy
type flatIndex struct {
	flat      *flatBVH
	shapes    []core.Shape
	released  bool
	refreshes int
	rebuilds  int

	nearestQueries     atomic.Int64
	preliminaryQueries atomic.Int64
	occlusionQueries   atomic.Int64
}

func (x *flatIndex) build(shapes []core.Shape) {
	x.shapes = append([]core.Shape(nil), shapes...)
	x.flat = flatten(buildTree(x.shapes))
	x.released = false
}

func (x *flatIndex) signsFor(rays []core.Ray, coherent bool, active core.Mask) (*[3]bool, bool) {
	if !coherent {
		return nil, false
	}
	first := firstActive(len(rays), active)
	if first < 0 {
		return nil, false
	}
	signs := directionSigns(rays[first].Direction)
	return &signs, true
}

// intersectRange answers lanes [lo, hi) of a nearest-hit batch
func (x *flatIndex) intersectRange(lo, hi int, rays []core.Ray, flags core.RayFlags, shared *[3]bool, active core.Mask, out []core.SurfaceInteraction) {
	for i := lo; i < hi; i++ {
		ray := rays[i]
		if !active.Active(i) {
			out[i] = core.NoSurfaceInteraction(ray)
			continue
		}
		out[i] = x.flat.closest(x.shapes, ray, laneSigns(ray, shared)).ComputeSurfaceInteraction(ray, flags)
	}
}

// preliminaryRange answers lanes [lo, hi) of a preliminary batch
func (x *flatIndex) preliminaryRange(lo, hi int, rays []core.Ray, shared *[3]bool, active core.Mask, out []core.PreliminaryIntersection) {
	for i := lo; i < hi; i++ {
		if !active.Active(i) {
			out[i] = core.NoPreliminaryIntersection()
			continue
		}
		out[i] = x.flat.closest(x.shapes, rays[i], laneSigns(rays[i], shared))
	}
}

// testRange answers lanes [lo, hi) of an occlusion batch
func (x *flatIndex) testRange(lo, hi int, rays []core.Ray, active core.Mask, out []bool) {
	for i := lo; i < hi; i++ {
		out[i] = active.Active(i) && x.flat.occluded(x.shapes, rays[i])
	}
}

func (x *flatIndex) refresh(name string, dirty []int) error {
	if x.released {
		return ErrReleased
	}
	if err := validateDirty(dirty, len(x.shapes)); err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}

	x.refreshes++
	if 2*len(dirty) > len(x.shapes) {
		x.rebuilds++
		x.flat = flatten(buildTree(x.shapes))
		core.Logger().Debug("accel: rebuilt", "backend", name, "dirty", len(dirty))
		return nil
	}
	for _, idx := range dirty {
		x.flat.refit(x.shapes, idx)
	}
	core.Logger().Debug("accel: refit", "backend", name, "dirty", len(dirty))
	return nil
}

func (x *flatIndex) release() {
	if x.released {
		return
	}
	x.released = true
	x.flat = flatten(buildTree(nil))
	x.shapes = nil
}

func (x *flatIndex) statsSnapshot() Stats {
	stats := x.flat.stats()
	stats.Refreshes = x.refreshes
	stats.Rebuilds = x.rebuilds
	stats.NearestQueries = x.nearestQueries.Load()
	stats.PreliminaryQueries = x.preliminaryQueries.Load()
	stats.OcclusionQueries = x.occlusionQueries.Load()
	return stats
}

func laneSigns(ray core.Ray, shared *[3]bool) [3]bool {
	if shared != nil {
		return *shared
	}
	return directionSigns(ray.Direction)
}

// Linear is a backend traversing a depth-first flattened hierarchy with an
// explicit stack. It offers no brute-force path.
type Linear struct {
	flatIndex
}

// NewLinear creates an unbuilt flattened-hierarchy backend
func NewLinear() *Linear {
	l := &Linear{}
	l.flat = flatten(buildTree(nil))
	return l
}

// Name implements Backend
func (l *Linear) Name() string { return NameLinear }

// Build implements Backend
func (l *Linear) Build(shapes []core.Shape) error {
	l.build(shapes)
	core.Logger().Debug("accel: linear built", "stats", l.flat.stats().String())
	return nil
}

// Intersect implements Backend
func (l *Linear) Intersect(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask, out []core.SurfaceInteraction) error {
	checkLanes(len(rays), active, len(out))
	if l.released {
		return ErrReleased
	}
	shared, _ := l.signsFor(rays, coherent, active)
	l.intersectRange(0, len(rays), rays, flags, shared, active, out)
	l.nearestQueries.Add(int64(len(rays)))
	return nil
}

// IntersectPreliminary implements Backend
func (l *Linear) IntersectPreliminary(rays []core.Ray, coherent bool, active core.Mask, out []core.PreliminaryIntersection) error {
	checkLanes(len(rays), active, len(out))
	if l.released {
		return ErrReleased
	}
	shared, _ := l.signsFor(rays, coherent, active)
	l.preliminaryRange(0, len(rays), rays, shared, active, out)
	l.preliminaryQueries.Add(int64(len(rays)))
	return nil
}

// Test implements Backend
func (l *Linear) Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error {
	checkLanes(len(rays), active, len(out))
	if l.released {
		return ErrReleased
	}
	l.testRange(0, len(rays), rays, active, out)
	l.occlusionQueries.Add(int64(len(rays)))
	return nil
}

// IntersectNaive is not provided by this backend
func (l *Linear) IntersectNaive(rays []core.Ray, active core.Mask, out []core.SurfaceInteraction) error {
	return ErrNotImplemented
}

// Refresh implements Backend
func (l *Linear) Refresh(dirty []int) error {
	return l.refresh(NameLinear, dirty)
}

// Release implements Backend
func (l *Linear) Release() {
	l.release()
}

// Stats implements Backend
func (l *Linear) Stats() Stats {
	return l.statsSnapshot()
}
