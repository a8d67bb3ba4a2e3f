package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// contactEpsilon is the squared distance under which two capsule segments
// are considered touching whatever their radii.
const contactEpsilon = 1.0e-6

// Capsule is a possibly tapered rounded segment: the convex hull of the
// disk (C1, R1) and the disk (C2, R2).
type Capsule struct {
	C1 r2.Point
	C2 r2.Point
	R1 float64
	R2 float64
}

// NewCapsule creates a capsule
func NewCapsule(c1, c2 r2.Point, r1, r2 float64) Capsule {
	return Capsule{C1: c1, C2: c2, R1: r1, R2: r2}
}

func (Capsule) isShape() {}

func (c Capsule) AABB() r2.Rect {
	return diskAABB(c.C1, c.R1).Union(diskAABB(c.C2, c.R2))
}

// project returns the clamped parameter of the projection of p on [C1,C2]
// and the squared distance between p and that projection.
func (c Capsule) project(p r2.Point) (float64, float64) {
	ab := c.C2.Sub(c.C1)
	lenSq := ab.Dot(ab)
	t := 0.0
	if lenSq > 0 {
		t = math.Max(0, math.Min(1, p.Sub(c.C1).Dot(ab)/lenSq))
	}
	d := p.Sub(c.C1.Add(ab.Mul(t)))
	return t, d.Dot(d)
}

func (c Capsule) radiusAt(t float64) float64 {
	return c.R1 + t*(c.R2-c.R1)
}

// Contains compares the distance to the segment with the radius
// interpolated at the projection.
func (c Capsule) Contains(p r2.Point) bool {
	t, distSq := c.project(p)
	r := c.radiusAt(t)
	return distSq <= r*r
}

// Intersects tests each end disk of one capsule against the other capsule's
// segment, widening the segment by its interpolated radius. Capsules whose
// only contact lies strictly between both segment interiors can be missed.
func (c Capsule) Intersects(o Capsule) bool {
	return c.endVersus(o.C1, o.R1) ||
		c.endVersus(o.C2, o.R2) ||
		o.endVersus(c.C1, c.R1) ||
		o.endVersus(c.C2, c.R2)
}

func (c Capsule) endVersus(p r2.Point, pointRadius float64) bool {
	t, distSq := c.project(p)
	if distSq < contactEpsilon {
		return true
	}
	sumR := c.radiusAt(t) + pointRadius
	return distSq <= sumR*sumR
}

func (c Capsule) Transform(iso Isometry) Shape {
	return c.TransformCapsule(iso)
}

// TransformCapsule is Transform keeping the concrete type
func (c Capsule) TransformCapsule(iso Isometry) Capsule {
	return Capsule{C1: iso.Apply(c.C1), C2: iso.Apply(c.C2), R1: c.R1, R2: c.R2}
}

func (c Capsule) String() string {
	return fmt.Sprintf("Capsule{C1: %v, C2: %v, R1: %g, R2: %g}", c.C1, c.C2, c.R1, c.R2)
}
