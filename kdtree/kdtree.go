// Package kdtree implements a static 2D KD-tree over axis-aligned boxes,
// used as the broad phase of collision detection.
//
// Each node stores one element. Splits alternate between the X and Y axis
// according to the centers of element boxes. Every node also keeps the
// union of the boxes of its subtree, which is what collision queries prune
// on: the result of a query never depends on how well the tree is balanced.
package kdtree

import (
	"iter"

	"github.com/golang/geo/r2"
)

// Element is an object with its bounding box
type Element[T any] struct {
	Object T
	Volume r2.Rect
}

// Pair is a pair of objects whose boxes overlap
type Pair[T any] struct {
	A T
	B T
}

type node[T any] struct {
	object       T
	objectVolume r2.Rect
	// union of all boxes in this subtree
	volume r2.Rect
	lower  *node[T]
	upper  *node[T]
	depth  int
}

// Tree is an immutable KD-tree
type Tree[T any] struct {
	root *node[T]
	size int
}

// Build creates a tree from elements. The input slice is not modified.
//
// A negative medianDepth splits on the exact median of element centers. A
// non-negative one estimates the median with a median-of-three recursion of
// that depth, which is faster on large inputs and yields a less balanced tree.
func Build[T any](elements []Element[T], medianDepth int) *Tree[T] {
	elems := make([]Element[T], len(elements))
	copy(elems, elements)
	return &Tree[T]{
		root: build(elems, 0, medianDepth),
		size: len(elems),
	}
}

func build[T any](elems []Element[T], depth, medianDepth int) *node[T] {
	if len(elems) == 0 {
		return nil
	}
	dim := depth % 2
	var lower, upper []Element[T]
	var median Element[T]
	if medianDepth < 0 {
		m := len(elems) / 2
		nthElement(elems, m, dim)
		median = elems[m]
		lower, upper = elems[:m], elems[m+1:]
	} else {
		last := len(elems) - 1
		m := medianEstimate(elems, dim, medianDepth)
		elems[m], elems[last] = elems[last], elems[m]
		median = elems[last]
		bound := center(median.Volume, dim)
		i := 0
		for j := 0; j < last; j++ {
			if center(elems[j].Volume, dim) < bound {
				elems[i], elems[j] = elems[j], elems[i]
				i++
			}
		}
		lower, upper = elems[:i], elems[i:last]
	}
	n := &node[T]{
		object:       median.Object,
		objectVolume: median.Volume,
		volume:       median.Volume,
		depth:        depth,
	}
	n.lower = build(lower, depth+1, medianDepth)
	n.upper = build(upper, depth+1, medianDepth)
	if n.lower != nil {
		n.volume = n.volume.Union(n.lower.volume)
	}
	if n.upper != nil {
		n.volume = n.volume.Union(n.upper.volume)
	}
	return n
}

func center(r r2.Rect, dim int) float64 {
	if dim == 0 {
		return (r.X.Lo + r.X.Hi) / 2
	}
	return (r.Y.Lo + r.Y.Hi) / 2
}

// Len returns the number of elements in the tree
func (t *Tree[T]) Len() int {
	return t.size
}

// Depth returns the number of levels of the tree, 0 when empty
func (t *Tree[T]) Depth() int {
	var walk func(n *node[T]) int
	walk = func(n *node[T]) int {
		if n == nil {
			return 0
		}
		return 1 + max(walk(n.lower), walk(n.upper))
	}
	return walk(t.root)
}

// ElementSeparation returns the number of elements below and above the root split.
func (t *Tree[T]) ElementSeparation() (lower, upper int) {
	if t.root == nil {
		return 0, 0
	}
	return count(t.root.lower), count(t.root.upper)
}

func count[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	return 1 + count(n.lower) + count(n.upper)
}

// Collisions yields every unordered pair of elements whose boxes intersect,
// boundaries included, exactly once.
func (t *Tree[T]) Collisions() iter.Seq2[T, T] {
	return func(yield func(T, T) bool) {
		c := collider[T]{yield: yield}
		c.within(t.root)
	}
}

// ComputeCollisions collects Collisions into a slice
func (t *Tree[T]) ComputeCollisions() []Pair[T] {
	var res []Pair[T]
	for a, b := range t.Collisions() {
		res = append(res, Pair[T]{A: a, B: b})
	}
	return res
}

type collider[T any] struct {
	yield func(T, T) bool
}

// within reports pairs inside the subtree of n. Each method returns false
// once the consumer stopped the iteration.
func (c collider[T]) within(n *node[T]) bool {
	if n == nil {
		return true
	}
	return c.objectVersus(n.object, n.objectVolume, n.lower) &&
		c.objectVersus(n.object, n.objectVolume, n.upper) &&
		c.subtrees(n.lower, n.upper) &&
		c.within(n.lower) &&
		c.within(n.upper)
}

func (c collider[T]) objectVersus(object T, volume r2.Rect, n *node[T]) bool {
	if n == nil || !volume.Intersects(n.volume) {
		return true
	}
	if volume.Intersects(n.objectVolume) && !c.yield(object, n.object) {
		return false
	}
	return c.objectVersus(object, volume, n.lower) &&
		c.objectVersus(object, volume, n.upper)
}

func (c collider[T]) subtrees(a, b *node[T]) bool {
	if a == nil || b == nil || !a.volume.Intersects(b.volume) {
		return true
	}
	return c.objectVersus(a.object, a.objectVolume, b) &&
		c.subtrees(a.lower, b) &&
		c.subtrees(a.upper, b)
}
