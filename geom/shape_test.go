package geom

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func pt(x, y float64) r2.Point {
	return r2.Point{X: x, Y: y}
}

func TestCapsuleIntersection(t *testing.T) {
	data := []struct {
		a, b     Capsule
		expected bool
	}{
		{NewCapsule(pt(0, 0), pt(0, 1), 0.25, 0.25), NewCapsule(pt(1, 0), pt(1, 1), 0.25, 0.25), false},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.6, 0.6), NewCapsule(pt(1, 0), pt(1, 1), 0.6, 0.6), true},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.55, 0.35), NewCapsule(pt(1, 0), pt(1, 1), 0.35, 0.55), false},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.35, 0.55), NewCapsule(pt(1, 0), pt(1, 1), 0.55, 0.35), false},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.35, 0.55), NewCapsule(pt(1, 0), pt(1, 1), 0.35, 0.55), true},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.55, 0.35), NewCapsule(pt(1, 0), pt(1, 1), 0.55, 0.35), true},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.3, 0.7), NewCapsule(pt(1, 0.1), pt(1.2, 1.2), 0.3, 0.7), true},
		{NewCapsule(pt(0, 0), pt(0, 1), 0.02, 0.30), NewCapsule(pt(0.3, 0), pt(0.6, 0.9), 0.02, 0.33), true},
	}
	for i, tc := range data {
		if got := tc.a.Intersects(tc.b); got != tc.expected {
			t.Errorf("Case %d: wrong answer: %v, correct answer: %v", i, got, tc.expected)
		}
		if got := tc.b.Intersects(tc.a); got != tc.expected {
			t.Errorf("Case %d (swapped): wrong answer: %v, correct answer: %v", i, got, tc.expected)
		}
	}
}

func TestCapsuleIntersectionSymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1337))
	randomCapsule := func() Capsule {
		return NewCapsule(
			pt(rng.Float64()*4, rng.Float64()*4),
			pt(rng.Float64()*4, rng.Float64()*4),
			rng.Float64(),
			rng.Float64(),
		)
	}
	for i := 0; i < 1000; i++ {
		a, b := randomCapsule(), randomCapsule()
		require.Equal(t, a.Intersects(b), b.Intersects(a), "%v vs %v", a, b)
		require.True(t, a.Intersects(a))
	}
}

func TestCapsuleZeroRadius(t *testing.T) {
	a := NewCapsule(pt(0, 0), pt(0, 1), 0, 0)
	crossing := NewCapsule(pt(-1, 0.5), pt(0, 0.5), 0, 0)
	assert.True(t, a.Intersects(crossing))
	apart := NewCapsule(pt(-1, 0.5), pt(-0.1, 0.5), 0, 0)
	assert.False(t, a.Intersects(apart))
}

func TestCapsuleDegenerate(t *testing.T) {
	dot := NewCapsule(pt(2, 2), pt(2, 2), 0.5, 0.5)
	assert.True(t, dot.Contains(pt(2.5, 2)))
	assert.False(t, dot.Contains(pt(2.6, 2)))
	assert.True(t, dot.Intersects(NewCapsule(pt(3, 2), pt(4, 2), 0.5, 0.5)))
	assert.False(t, dot.Intersects(NewCapsule(pt(3.1, 2), pt(4, 2), 0.5, 0.5)))
}

func TestCapsuleContains(t *testing.T) {
	c := NewCapsule(pt(0, 0), pt(0, 1), 1, 0.01)
	inside := []r2.Point{pt(0, 0), pt(0, 1), pt(1, 0), pt(0.5-1e-6, 0.5-1e-6)}
	for _, p := range inside {
		assert.True(t, c.Contains(p), "%v", p)
	}
	assert.False(t, c.Contains(pt(0.1, 1)))
}

func TestCapsuleAABB(t *testing.T) {
	c := NewCapsule(pt(0, 0), pt(2, 1), 1, 0.5)
	box := c.AABB()
	assert.InDelta(t, -1.0, box.X.Lo, eps)
	assert.InDelta(t, 2.5, box.X.Hi, eps)
	assert.InDelta(t, -1.0, box.Y.Lo, eps)
	assert.InDelta(t, 1.5, box.Y.Hi, eps)
}

func TestCircle(t *testing.T) {
	c := Circle{Center: pt(1, 1), Radius: 2}
	assert.True(t, c.Contains(pt(3, 1)))
	assert.False(t, c.Contains(pt(3, 1.1)))
	box := c.AABB()
	assert.True(t, box.ApproxEqual(r2.RectFromPoints(pt(-1, -1), pt(3, 3))))
}

func TestPolygon(t *testing.T) {
	_, err := NewPolygon(pt(0, 0), pt(1, 1))
	require.Error(t, err)

	square, err := NewPolygon(pt(1, 1), pt(-1, 1), pt(-1, -1), pt(1, -1))
	require.NoError(t, err)
	assert.Equal(t, 4, square.Size())
	assert.True(t, square.Contains(pt(0, 0)))
	assert.True(t, square.Contains(pt(1, 0)))
	assert.False(t, square.Contains(pt(1.01, 0)))
	assert.False(t, square.Contains(pt(0, -2)))

	// winding order does not matter
	reversed, err := NewPolygon(pt(1, -1), pt(-1, -1), pt(-1, 1), pt(1, 1))
	require.NoError(t, err)
	assert.True(t, reversed.Contains(pt(0.5, 0.5)))

	concave, err := NewPolygon(pt(0, 0), pt(4, 0), pt(4, 4), pt(2, 1), pt(0, 4))
	require.NoError(t, err)
	assert.True(t, concave.Contains(pt(1, 0.5)))
	assert.False(t, concave.Contains(pt(2, 3)))

	box := concave.AABB()
	assert.True(t, box.ApproxEqual(r2.RectFromPoints(pt(0, 0), pt(4, 4))))
}

func TestIsometry(t *testing.T) {
	iso := NewIsometry(math.Pi/2, pt(1, 0))
	p := iso.Apply(pt(1, 0))
	assert.InDelta(t, 1.0, p.X, eps)
	assert.InDelta(t, 1.0, p.Y, eps)

	back := iso.Inverse().Apply(p)
	assert.InDelta(t, 1.0, back.X, eps)
	assert.InDelta(t, 0.0, back.Y, eps)

	other := NewIsometry(-math.Pi/4, pt(0, 3))
	q := pt(0.3, -2)
	composed := iso.Compose(other).Apply(q)
	sequential := iso.Apply(other.Apply(q))
	assert.InDelta(t, sequential.X, composed.X, eps)
	assert.InDelta(t, sequential.Y, composed.Y, eps)

	c := NewCapsule(pt(0, 0), pt(1, 0), 0.1, 0.2)
	moved := c.TransformCapsule(iso)
	assert.InDelta(t, 1.0, moved.C1.X, eps)
	assert.InDelta(t, 0.0, moved.C1.Y, eps)
	assert.InDelta(t, 1.0, moved.C2.X, eps)
	assert.InDelta(t, 1.0, moved.C2.Y, eps)
	assert.Equal(t, 0.2, moved.R2)

	assert.InDelta(t, -math.Pi/2, NormalizeAngle(3*math.Pi/2), eps)
	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), eps)
}

func TestAABBOf(t *testing.T) {
	assert.True(t, AABBOf(nil).IsEmpty())
	shapes := []Shape{
		Circle{Center: pt(0, 0), Radius: 1},
		NewCapsule(pt(5, 5), pt(6, 5), 0.5, 0.5),
	}
	box := AABBOf(shapes)
	assert.True(t, box.ApproxEqual(r2.RectFromPoints(pt(-1, -1), pt(6.5, 5.5))))
	moved := shapes[0].Transform(NewIsometry(0, pt(2, 0)))
	assert.True(t, moved.Contains(pt(2.5, 0)))
}
