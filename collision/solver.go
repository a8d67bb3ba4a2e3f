// Package collision turns tag detections into identified frames and
// computes, for each frame, which individuals touch each other.
//
// The Solver works per frame on immutable snapshots of identities and
// zone geometries, so frames can be processed concurrently. Batch does so
// with a bounded worker pool.
package collision

import (
	"cmp"
	"slices"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/LdDl/myrmidon-go/geom"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/internal/logging"
	"github.com/LdDl/myrmidon-go/kdtree"
	"github.com/LdDl/myrmidon-go/zone"
)

// DefaultMedianDepth selects the exact median when building KD-trees
const DefaultMedianDepth = -1

// Solver computes collisions on identified frames
type Solver struct {
	identities  *identity.Compiled
	zones       *zone.Timeline
	medianDepth int
	logger      zerolog.Logger
}

// SolverOption configures a Solver
type SolverOption func(*Solver)

// WithMedianDepth sets the median estimation depth of the broad phase.
// See kdtree.Build.
func WithMedianDepth(depth int) SolverOption {
	return func(s *Solver) {
		s.medianDepth = depth
	}
}

// WithSolverLogger sets the logger of the solver
func WithSolverLogger(l zerolog.Logger) SolverOption {
	return func(s *Solver) {
		s.logger = l
	}
}

// NewSolver creates a solver over compiled identities and zone timeline
func NewSolver(identities *identity.Compiled, zones *zone.Timeline, options ...SolverOption) *Solver {
	s := &Solver{
		identities:  identities,
		zones:       zones,
		medianDepth: DefaultMedianDepth,
		logger:      logging.Logger(),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

type zoneGeometry struct {
	id       zone.ZoneID
	geometry *zone.Geometry
}

// geometriesAt returns the non-empty zone geometries of a space at the
// frame time, in zone id order.
func (s *Solver) geometriesAt(frame *IdentifiedFrame) ([]zoneGeometry, error) {
	ids, err := s.zones.ZoneIDs(frame.Space)
	if err != nil {
		return nil, errors.Wrap(err, "Can't locate individuals")
	}
	res := make([]zoneGeometry, 0, len(ids))
	for _, id := range ids {
		g, err := s.zones.At(frame.Space, id, frame.Time)
		if err != nil {
			return nil, errors.Wrap(err, "Can't locate individuals")
		}
		if g.IsEmpty() {
			continue
		}
		res = append(res, zoneGeometry{id: id, geometry: g})
	}
	return res, nil
}

// LocateIndividuals sets the zone of every individual of the frame to the
// first zone containing its position, or Unzoned.
func (s *Solver) LocateIndividuals(frame *IdentifiedFrame) error {
	geometries, err := s.geometriesAt(frame)
	if err != nil {
		return err
	}
	for i := range frame.Positions {
		p := &frame.Positions[i]
		p.Zone = Unzoned
		for _, zg := range geometries {
			if zg.geometry.Contains(p.Position) {
				p.Zone = zg.id
				break
			}
		}
	}
	return nil
}

// worldCapsule is a body part capsule placed in the space frame
type worldCapsule struct {
	individual identity.IndividualID
	typ        identity.ShapeTypeID
	capsule    geom.Capsule
}

type individualPair [2]identity.IndividualID

// ComputeCollisions locates the individuals of frame, writing their zone
// back onto it, and returns the collisions within each zone. Individuals
// without capsules never collide.
func (s *Solver) ComputeCollisions(frame *IdentifiedFrame) (*CollisionFrame, error) {
	if err := s.LocateIndividuals(frame); err != nil {
		return nil, err
	}
	byZone := make(map[zone.ZoneID][]PositionedIndividual)
	for _, p := range frame.Positions {
		byZone[p.Zone] = append(byZone[p.Zone], p)
	}
	zoneIDs := make([]zone.ZoneID, 0, len(byZone))
	for id := range byZone {
		zoneIDs = append(zoneIDs, id)
	}
	slices.Sort(zoneIDs)

	res := &CollisionFrame{
		Time:  frame.Time,
		Space: frame.Space,
	}
	for _, zoneID := range zoneIDs {
		res.Collisions = append(res.Collisions, s.collideZone(zoneID, byZone[zoneID])...)
	}
	if e := s.logger.Debug(); e.Enabled() {
		e.Uint32("space", uint32(frame.Space)).
			Str("time", frame.Time.String()).
			Int("individuals", len(frame.Positions)).
			Int("collisions", len(res.Collisions)).
			Msg("Frame collisions computed")
	}
	return res, nil
}

func (s *Solver) collideZone(zoneID zone.ZoneID, individuals []PositionedIndividual) []Collision {
	var elements []kdtree.Element[worldCapsule]
	for _, p := range individuals {
		capsules := s.identities.Capsules(p.ID)
		if len(capsules) == 0 {
			continue
		}
		iso := geom.NewIsometry(p.Angle, p.Position)
		for _, c := range capsules {
			transformed := c.Capsule.TransformCapsule(iso)
			elements = append(elements, kdtree.Element[worldCapsule]{
				Object: worldCapsule{individual: p.ID, typ: c.Type, capsule: transformed},
				Volume: transformed.AABB(),
			})
		}
	}
	if len(elements) < 2 {
		return nil
	}

	found := make(map[individualPair]map[TypePair]struct{})
	for a, b := range kdtree.Build(elements, s.medianDepth).Collisions() {
		if a.individual == b.individual {
			continue
		}
		if !a.capsule.Intersects(b.capsule) {
			continue
		}
		if a.individual > b.individual {
			a, b = b, a
		}
		key := individualPair{a.individual, b.individual}
		types, ok := found[key]
		if !ok {
			types = make(map[TypePair]struct{})
			found[key] = types
		}
		types[TypePair{a.typ, b.typ}] = struct{}{}
	}

	res := make([]Collision, 0, len(found))
	for key, types := range found {
		c := Collision{IDs: key, Zone: zoneID, Types: make([]TypePair, 0, len(types))}
		for t := range types {
			c.Types = append(c.Types, t)
		}
		slices.SortFunc(c.Types, compareTypePairs)
		res = append(res, c)
	}
	slices.SortFunc(res, func(a, b Collision) int {
		if c := cmp.Compare(a.IDs[0], b.IDs[0]); c != 0 {
			return c
		}
		return cmp.Compare(a.IDs[1], b.IDs[1])
	})
	return res
}

func compareTypePairs(a, b TypePair) int {
	if c := cmp.Compare(a[0], b[0]); c != 0 {
		return c
	}
	return cmp.Compare(a[1], b[1])
}
