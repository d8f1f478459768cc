package accel

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/df07/go-scene-tracer/pkg/core"
)

func init() {
	Register(NameBVH, func() Backend { return NewBVH() })
}

// Leaf threshold: if we have this many or fewer shapes, store them in a leaf node
const leafThreshold = 8

// bvhNode represents a node in the Bounding Volume Hierarchy
type bvhNode struct {
	BoundingBox core.AABB
	Left        *bvhNode
	Right       *bvhNode
	parent      *bvhNode
	axis        int   // Split axis of internal nodes
	Shapes      []int // Shape indices for leaf nodes (nil for internal nodes)
}

// bvhTree is the pointer hierarchy shared by the BVH backend and the flattening step
type bvhTree struct {
	root   *bvhNode
	boxes  []core.AABB // Cached shape bounds, indexed like the shape list
	leafOf []*bvhNode  // Leaf holding each shape
}

// buildTree constructs a hierarchy over shapes
func buildTree(shapes []core.Shape) *bvhTree {
	tree := &bvhTree{
		boxes:  make([]core.AABB, len(shapes)),
		leafOf: make([]*bvhNode, len(shapes)),
	}
	if len(shapes) == 0 {
		return tree
	}

	centers := make([]core.Vec3, len(shapes))
	indices := make([]int, len(shapes))
	for i, shape := range shapes {
		tree.boxes[i] = shape.BoundingBox()
		centers[i] = tree.boxes[i].Center()
		indices[i] = i
	}

	tree.root = tree.build(indices, centers, nil)
	return tree
}

// build recursively splits at the centroid midpoint of the longest axis, falling
// back to a median split when the midpoint leaves one side empty
func (t *bvhTree) build(indices []int, centers []core.Vec3, parent *bvhNode) *bvhNode {
	boundingBox := core.EmptyAABB()
	centroidBox := core.EmptyAABB()
	for _, idx := range indices {
		boundingBox = boundingBox.Union(t.boxes[idx])
		centroidBox = centroidBox.ExpandPoint(centers[idx])
	}

	node := &bvhNode{BoundingBox: boundingBox, parent: parent}

	// Base case: few shapes - create leaf node with all shapes
	if len(indices) <= leafThreshold {
		node.Shapes = indices
		for _, idx := range indices {
			t.leafOf[idx] = node
		}
		return node
	}

	axis := centroidBox.LongestAxis()
	splitPos := 0.5 * (centroidBox.Min.Axis(axis) + centroidBox.Max.Axis(axis))

	// Partition in place around the midpoint
	mid := 0
	for i := range indices {
		if centers[indices[i]].Axis(axis) < splitPos {
			indices[i], indices[mid] = indices[mid], indices[i]
			mid++
		}
	}

	if mid == 0 || mid == len(indices) {
		sort.Slice(indices, func(i, j int) bool {
			return centers[indices[i]].Axis(axis) < centers[indices[j]].Axis(axis)
		})
		mid = len(indices) / 2
	}

	node.axis = axis
	node.Left = t.build(indices[:mid], centers, node)
	node.Right = t.build(indices[mid:], centers, node)
	return node
}

// refit recomputes the bounds of the leaf holding shape idx and of its ancestors
func (t *bvhTree) refit(shapes []core.Shape, idx int) {
	t.boxes[idx] = shapes[idx].BoundingBox()
	leaf := t.leafOf[idx]
	if leaf == nil {
		return
	}

	box := core.EmptyAABB()
	for _, s := range leaf.Shapes {
		box = box.Union(t.boxes[s])
	}
	leaf.BoundingBox = box

	for node := leaf.parent; node != nil; node = node.parent {
		node.BoundingBox = node.Left.BoundingBox.Union(node.Right.BoundingBox)
	}
}

// stats returns statistics about the hierarchy
func (t *bvhTree) stats() Stats {
	stats := Stats{Shapes: len(t.boxes)}
	if t.root != nil {
		collectStats(t.root, 0, &stats)
	}
	return stats
}

// collectStats recursively collects statistics about the BVH
func collectStats(node *bvhNode, depth int, stats *Stats) {
	stats.Nodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.Shapes != nil {
		stats.Leaves++
		return
	}
	collectStats(node.Left, depth+1, stats)
	collectStats(node.Right, depth+1, stats)
}

// validateDirty checks refresh indices against the shape count
func validateDirty(dirty []int, n int) error {
	for _, idx := range dirty {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: %d (have %d)", ErrInvalidIndex, idx, n)
		}
	}
	return nil
}

// directionSigns reports per axis whether the direction is negative
func directionSigns(d core.Vec3) [3]bool {
	return [3]bool{d.X < 0, d.Y < 0, d.Z < 0}
}

// BVH is the software backend: a pointer-based bounding volume hierarchy with
// small linear-search leaves.
type BVH struct {
	tree      *bvhTree
	shapes    []core.Shape
	released  bool
	refreshes int
	rebuilds  int

	nearestQueries     atomic.Int64
	preliminaryQueries atomic.Int64
	occlusionQueries   atomic.Int64
}

// NewBVH creates an unbuilt BVH backend
func NewBVH() *BVH {
	return &BVH{tree: buildTree(nil)}
}

// Name implements Backend
func (b *BVH) Name() string { return NameBVH }

// Build implements Backend
func (b *BVH) Build(shapes []core.Shape) error {
	// Copy so later changes to the caller's slice do not alias the index
	b.shapes = append([]core.Shape(nil), shapes...)
	b.tree = buildTree(b.shapes)
	b.released = false

	core.Logger().Debug("accel: bvh built", "stats", b.tree.stats().String())
	return nil
}

// Intersect implements Backend
func (b *BVH) Intersect(rays []core.Ray, flags core.RayFlags, coherent bool, active core.Mask, out []core.SurfaceInteraction) error {
	checkLanes(len(rays), active, len(out))
	if b.released {
		return ErrReleased
	}

	order := b.batchOrder(rays, coherent, active)
	for i, ray := range rays {
		if !active.Active(i) {
			out[i] = core.NoSurfaceInteraction(ray)
			continue
		}
		pi := b.closest(ray, order)
		out[i] = pi.ComputeSurfaceInteraction(ray, flags)
	}
	b.nearestQueries.Add(int64(len(rays)))
	return nil
}

// IntersectPreliminary implements Backend
func (b *BVH) IntersectPreliminary(rays []core.Ray, coherent bool, active core.Mask, out []core.PreliminaryIntersection) error {
	checkLanes(len(rays), active, len(out))
	if b.released {
		return ErrReleased
	}

	order := b.batchOrder(rays, coherent, active)
	for i, ray := range rays {
		if !active.Active(i) {
			out[i] = core.NoPreliminaryIntersection()
			continue
		}
		out[i] = b.closest(ray, order)
	}
	b.preliminaryQueries.Add(int64(len(rays)))
	return nil
}

// Test implements Backend
func (b *BVH) Test(rays []core.Ray, coherent bool, active core.Mask, out []bool) error {
	checkLanes(len(rays), active, len(out))
	if b.released {
		return ErrReleased
	}

	for i, ray := range rays {
		out[i] = active.Active(i) && b.tree.root != nil && b.occluded(b.tree.root, ray)
	}
	b.occlusionQueries.Add(int64(len(rays)))
	return nil
}

// IntersectNaive implements Backend with a linear scan over every shape
func (b *BVH) IntersectNaive(rays []core.Ray, active core.Mask, out []core.SurfaceInteraction) error {
	checkLanes(len(rays), active, len(out))
	if b.released {
		return ErrReleased
	}

	for i, ray := range rays {
		if !active.Active(i) {
			out[i] = core.NoSurfaceInteraction(ray)
			continue
		}
		out[i] = naiveNearest(b.shapes, ray).ComputeSurfaceInteraction(ray, core.RayFlagMinimal)
	}
	return nil
}

// Refresh implements Backend. Bounds of the leaves holding dirty shapes and of
// their ancestors are refit; when most shapes changed the hierarchy is rebuilt.
func (b *BVH) Refresh(dirty []int) error {
	if b.released {
		return ErrReleased
	}
	if err := validateDirty(dirty, len(b.shapes)); err != nil {
		return err
	}
	if len(dirty) == 0 {
		return nil
	}

	b.refreshes++
	if 2*len(dirty) > len(b.shapes) {
		b.rebuilds++
		b.tree = buildTree(b.shapes)
		core.Logger().Debug("accel: bvh rebuilt", "dirty", len(dirty))
		return nil
	}

	for _, idx := range dirty {
		b.tree.refit(b.shapes, idx)
	}
	core.Logger().Debug("accel: bvh refit", "dirty", len(dirty))
	return nil
}

// Release implements Backend
func (b *BVH) Release() {
	if b.released {
		return
	}
	b.released = true
	b.tree = buildTree(nil)
	b.shapes = nil
}

// Stats implements Backend
func (b *BVH) Stats() Stats {
	stats := b.tree.stats()
	stats.Refreshes = b.refreshes
	stats.Rebuilds = b.rebuilds
	stats.NearestQueries = b.nearestQueries.Load()
	stats.PreliminaryQueries = b.preliminaryQueries.Load()
	stats.OcclusionQueries = b.occlusionQueries.Load()
	return stats
}

// batchOrder returns the child visit order shared by a coherent batch, or nil
// when each ray should pick its own
func (b *BVH) batchOrder(rays []core.Ray, coherent bool, active core.Mask) *[3]bool {
	if !coherent {
		return nil
	}
	first := firstActive(len(rays), active)
	if first < 0 {
		return nil
	}
	signs := directionSigns(rays[first].Direction)
	return &signs
}

// closest returns the nearest hit of a single ray
func (b *BVH) closest(ray core.Ray, order *[3]bool) core.PreliminaryIntersection {
	if b.tree.root == nil {
		return core.NoPreliminaryIntersection()
	}
	if order == nil {
		signs := directionSigns(ray.Direction)
		order = &signs
	}
	if hit, ok := b.hitNode(b.tree.root, ray, ray.TMax, order); ok {
		return hit
	}
	return core.NoPreliminaryIntersection()
}

// hitNode recursively tests ray intersection with BVH nodes, visiting the near child first
func (b *BVH) hitNode(node *bvhNode, ray core.Ray, tMax float64, order *[3]bool) (core.PreliminaryIntersection, bool) {
	if !node.BoundingBox.Hit(ray, core.RayEpsilon, tMax) {
		return core.PreliminaryIntersection{}, false
	}

	// If this is a leaf node, test against all shapes using linear search
	if node.Shapes != nil {
		var closestHit core.PreliminaryIntersection
		hitAnything := false
		closestSoFar := tMax

		for _, idx := range node.Shapes {
			shape := b.shapes[idx]
			if hit, isHit := shape.Hit(ray, core.RayEpsilon, closestSoFar); isHit {
				hitAnything = true
				closestSoFar = hit.T
				hit.Shape = shape
				hit.ShapeIndex = idx
				closestHit = hit
			}
		}
		return closestHit, hitAnything
	}

	first, second := node.Left, node.Right
	if order[node.axis] {
		first, second = second, first
	}

	closestHit, hitAnything := b.hitNode(first, ray, tMax, order)
	if hitAnything {
		tMax = closestHit.T
	}
	if hit, isHit := b.hitNode(second, ray, tMax, order); isHit {
		return hit, true
	}
	return closestHit, hitAnything
}

// occluded reports whether anything blocks the ray, stopping at the first hit
func (b *BVH) occluded(node *bvhNode, ray core.Ray) bool {
	if !node.BoundingBox.Hit(ray, core.RayEpsilon, ray.TMax) {
		return false
	}
	if node.Shapes != nil {
		for _, idx := range node.Shapes {
			if _, isHit := b.shapes[idx].Hit(ray, core.RayEpsilon, ray.TMax); isHit {
				return true
			}
		}
		return false
	}
	return b.occluded(node.Left, ray) || b.occluded(node.Right, ray)
}
