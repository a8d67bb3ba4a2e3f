package zone

import (
	"github.com/golang/geo/r2"

	"github.com/LdDl/myrmidon-go/geom"
)

// Geometry is the immutable union of the shapes of a zone over some time range
type Geometry struct {
	shapes []geom.Shape
	aabbs  []r2.Rect
	aabb   r2.Rect
}

var emptyGeometry = NewGeometry(nil)

// NewGeometry creates a geometry from shapes. An empty list yields an empty geometry.
func NewGeometry(shapes []geom.Shape) *Geometry {
	g := &Geometry{
		shapes: make([]geom.Shape, len(shapes)),
		aabbs:  make([]r2.Rect, len(shapes)),
		aabb:   r2.EmptyRect(),
	}
	copy(g.shapes, shapes)
	for i, s := range g.shapes {
		g.aabbs[i] = s.AABB()
		g.aabb = g.aabb.Union(g.aabbs[i])
	}
	return g
}

// Shapes returns a copy of the shapes of the geometry
func (g *Geometry) Shapes() []geom.Shape {
	res := make([]geom.Shape, len(g.shapes))
	copy(res, g.shapes)
	return res
}

// AABB returns the bounding box of the whole geometry
func (g *Geometry) AABB() r2.Rect {
	return g.aabb
}

// IsEmpty reports whether the geometry has no shape
func (g *Geometry) IsEmpty() bool {
	return len(g.shapes) == 0
}

// Contains reports whether any of the shapes contains p
func (g *Geometry) Contains(p r2.Point) bool {
	if !g.aabb.ContainsPoint(p) {
		return false
	}
	for i, s := range g.shapes {
		if g.aabbs[i].ContainsPoint(p) && s.Contains(p) {
			return true
		}
	}
	return false
}
