// Package geom provides the 2D shapes used for body outlines and zones:
// circles, tapered capsules and polygons, their bounding boxes and rigid
// transforms.
//
// Points and axis-aligned boxes are r2.Point and r2.Rect values.
package geom

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Shape is one of Circle, Capsule or Polygon.
type Shape interface {
	// AABB returns the axis-aligned bounding box of the shape
	AABB() r2.Rect
	// Contains reports whether p is inside the shape, boundary included
	Contains(p r2.Point) bool
	// Transform returns the shape moved by the given isometry
	Transform(iso Isometry) Shape
	isShape()
}

// Circle is a disk of given center and radius
type Circle struct {
	Center r2.Point
	Radius float64
}

func (Circle) isShape() {}

func (c Circle) AABB() r2.Rect {
	return diskAABB(c.Center, c.Radius)
}

func (c Circle) Contains(p r2.Point) bool {
	return distance(c.Center, p) <= c.Radius
}

func (c Circle) Transform(iso Isometry) Shape {
	return Circle{Center: iso.Apply(c.Center), Radius: c.Radius}
}

func (c Circle) String() string {
	return fmt.Sprintf("Circle{C: %v, R: %g}", c.Center, c.Radius)
}

// Polygon is a closed polygon, vertices in order. The last vertex connects to the first.
type Polygon struct {
	vertices []r2.Point
}

// NewPolygon creates a polygon from at least 3 vertices
func NewPolygon(vertices ...r2.Point) (Polygon, error) {
	if len(vertices) < 3 {
		return Polygon{}, errors.Errorf("A polygon needs at least 3 vertices, got %d", len(vertices))
	}
	vs := make([]r2.Point, len(vertices))
	copy(vs, vertices)
	return Polygon{vertices: vs}, nil
}

func (Polygon) isShape() {}

// Vertices returns a copy of the polygon vertices
func (p Polygon) Vertices() []r2.Point {
	vs := make([]r2.Point, len(p.vertices))
	copy(vs, p.vertices)
	return vs
}

// Size returns the number of vertices
func (p Polygon) Size() int {
	return len(p.vertices)
}

func (p Polygon) AABB() r2.Rect {
	return r2.RectFromPoints(p.vertices...)
}

// Contains uses the winding number, so self-intersecting polygons count
// any point wound around a non-zero number of times as inside.
func (p Polygon) Contains(pt r2.Point) bool {
	winding := 0
	n := len(p.vertices)
	for i := 0; i < n; i++ {
		a := p.vertices[i]
		b := p.vertices[(i+1)%n]
		side := b.Sub(a).Cross(pt.Sub(a))
		if side == 0 && onSegment(a, b, pt) {
			return true
		}
		if a.Y <= pt.Y {
			if b.Y > pt.Y && side > 0 {
				winding++
			}
		} else if b.Y <= pt.Y && side < 0 {
			winding--
		}
	}
	return winding != 0
}

func (p Polygon) Transform(iso Isometry) Shape {
	vs := make([]r2.Point, len(p.vertices))
	for i, v := range p.vertices {
		vs[i] = iso.Apply(v)
	}
	return Polygon{vertices: vs}
}

func (p Polygon) String() string {
	return fmt.Sprintf("Polygon%v", p.vertices)
}

func onSegment(a, b, p r2.Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

func diskAABB(c r2.Point, r float64) r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: c.X - r, Y: c.Y - r},
		r2.Point{X: c.X + r, Y: c.Y + r},
	)
}

func distance(p1, p2 r2.Point) float64 {
	return math.Hypot(p1.X-p2.X, p1.Y-p2.Y)
}

// AABBOf returns the union of the bounding boxes of shapes, empty for no shapes.
func AABBOf(shapes []Shape) r2.Rect {
	res := r2.EmptyRect()
	for _, s := range shapes {
		res = res.Union(s.AABB())
	}
	return res
}
