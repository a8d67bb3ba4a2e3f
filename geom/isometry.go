package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Isometry is a rotation by Angle (radians, counter-clockwise) followed by
// a translation.
type Isometry struct {
	Angle       float64
	Translation r2.Point
}

// NewIsometry creates an isometry
func NewIsometry(angle float64, translation r2.Point) Isometry {
	return Isometry{Angle: angle, Translation: translation}
}

// Rotate rotates v by angle around the origin
func Rotate(v r2.Point, angle float64) r2.Point {
	s, c := math.Sincos(angle)
	return r2.Point{X: c*v.X - s*v.Y, Y: s*v.X + c*v.Y}
}

// Apply maps p through the isometry
func (iso Isometry) Apply(p r2.Point) r2.Point {
	return Rotate(p, iso.Angle).Add(iso.Translation)
}

// Compose returns the isometry applying other first, then iso
func (iso Isometry) Compose(other Isometry) Isometry {
	return Isometry{
		Angle:       iso.Angle + other.Angle,
		Translation: iso.Apply(other.Translation),
	}
}

// Inverse returns the isometry undoing iso
func (iso Isometry) Inverse() Isometry {
	return Isometry{
		Angle:       -iso.Angle,
		Translation: Rotate(iso.Translation, -iso.Angle).Mul(-1),
	}
}

// NormalizeAngle maps an angle into (-π, π]
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
