package collision

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/zone"
)

// Unzoned is the zone of individuals outside of every zone geometry
const Unzoned zone.ZoneID = 0

// PositionedIndividual is the pose of an individual on a frame. Zone is
// filled by Solver.LocateIndividuals.
type PositionedIndividual struct {
	ID       identity.IndividualID
	Position r2.Point
	Angle    float64
	Zone     zone.ZoneID
}

// IdentifiedFrame holds the individuals found on one frame of a space
type IdentifiedFrame struct {
	Time      chrono.Time
	Space     zone.SpaceID
	Width     int
	Height    int
	Positions []PositionedIndividual
}

// TypePair is a pair of shape types whose capsules intersect. The first
// type belongs to the individual with the lower id.
type TypePair [2]identity.ShapeTypeID

// Collision between two individuals within a zone. IDs are ordered and
// Types is sorted without duplicates.
type Collision struct {
	IDs   [2]identity.IndividualID
	Zone  zone.ZoneID
	Types []TypePair
}

func (c Collision) String() string {
	return fmt.Sprintf("%s-%s in zone %d %v",
		identity.FormatIndividualID(c.IDs[0]), identity.FormatIndividualID(c.IDs[1]), c.Zone, c.Types)
}

// CollisionFrame holds the collisions of one frame, sorted by zone then ids
type CollisionFrame struct {
	Time       chrono.Time
	Space      zone.SpaceID
	Collisions []Collision
}
