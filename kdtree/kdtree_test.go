package kdtree

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x, y, w, h float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{X: x, Y: y}, r2.Point{X: x + w, Y: y + h})
}

func randomElements(rng *rand.Rand, n int, size float64) []Element[int] {
	elems := make([]Element[int], n)
	for i := range elems {
		elems[i] = Element[int]{
			Object: i,
			Volume: box(rng.Float64()*100, rng.Float64()*100, rng.Float64()*size, rng.Float64()*size),
		}
	}
	return elems
}

func normalize(pairs []Pair[int]) [][2]int {
	res := make([][2]int, 0, len(pairs))
	for _, p := range pairs {
		a, b := p.A, p.B
		if a > b {
			a, b = b, a
		}
		res = append(res, [2]int{a, b})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i][0] != res[j][0] {
			return res[i][0] < res[j][0]
		}
		return res[i][1] < res[j][1]
	})
	return res
}

func bruteForce(elems []Element[int]) [][2]int {
	var res []Pair[int]
	for i := range elems {
		for j := i + 1; j < len(elems); j++ {
			if elems[i].Volume.Intersects(elems[j].Volume) {
				res = append(res, Pair[int]{A: elems[i].Object, B: elems[j].Object})
			}
		}
	}
	return normalize(res)
}

func TestCollisionsMatchBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for _, n := range []int{0, 1, 2, 3, 10, 100, 500} {
		elems := randomElements(rng, n, 10)
		expected := bruteForce(elems)
		for _, depth := range []int{-1, 0, 1, 2, 5} {
			tree := Build(elems, depth)
			require.Equal(t, n, tree.Len())
			got := normalize(tree.ComputeCollisions())
			assert.Equal(t, len(expected), len(got), "n=%d depth=%d", n, depth)
			assert.Equal(t, expected, got, "n=%d depth=%d", n, depth)
		}
	}
}

func TestBuildDoesNotModifyInput(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	elems := randomElements(rng, 50, 5)
	before := make([]Element[int], len(elems))
	copy(before, elems)
	Build(elems, -1)
	Build(elems, 2)
	assert.Equal(t, before, elems)
}

func TestExactMedianBalance(t *testing.T) {
	elems := make([]Element[int], 0, 101)
	for i := 0; i < 101; i++ {
		elems = append(elems, Element[int]{Object: i, Volume: box(float64(i), 0, 0.5, 0.5)})
	}
	tree := Build(elems, -1)
	lower, upper := tree.ElementSeparation()
	assert.Equal(t, 50, lower)
	assert.Equal(t, 50, upper)
	// perfectly balanced tree of 101 elements has 7 levels
	assert.Equal(t, 7, tree.Depth())
	assert.Empty(t, tree.ComputeCollisions())
}

func TestEstimatedMedianSeparation(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	elems := randomElements(rng, 1000, 1)
	tree := Build(elems, 3)
	lower, upper := tree.ElementSeparation()
	assert.Equal(t, 999, lower+upper)
	// an estimate is not the exact median but stays in the central part
	assert.Greater(t, lower, 200)
	assert.Greater(t, upper, 200)
}

func TestTouchingBoxesCollide(t *testing.T) {
	elems := []Element[int]{
		{Object: 1, Volume: box(0, 0, 1, 1)},
		{Object: 2, Volume: box(1, 0, 1, 1)},
		{Object: 3, Volume: box(2.5, 0, 1, 1)},
	}
	got := normalize(Build(elems, -1).ComputeCollisions())
	assert.Equal(t, [][2]int{{1, 2}}, got)
}

func TestCollisionsEarlyStop(t *testing.T) {
	elems := make([]Element[int], 20)
	for i := range elems {
		elems[i] = Element[int]{Object: i, Volume: box(0, 0, 1, 1)}
	}
	tree := Build(elems, -1)
	assert.Len(t, tree.ComputeCollisions(), 20*19/2)
	seen := 0
	for range tree.Collisions() {
		seen++
		if seen == 5 {
			break
		}
	}
	assert.Equal(t, 5, seen)
}

func TestEmptyTree(t *testing.T) {
	tree := Build[string](nil, -1)
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, 0, tree.Depth())
	lower, upper := tree.ElementSeparation()
	assert.Zero(t, lower)
	assert.Zero(t, upper)
	assert.Empty(t, tree.ComputeCollisions())
}
