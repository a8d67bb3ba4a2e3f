package collision

import (
	"cmp"
	"slices"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/internal/logging"
	"github.com/LdDl/myrmidon-go/zone"
)

// ErrNoSolver is returned by CollideFrame on a tracker built without solver
var ErrNoSolver = errors.New("tracker has no collision solver")

// TagDetection is a tag found by the detector on a frame, in pixels
type TagDetection struct {
	ID       identity.TagID
	Position r2.Point
	Angle    float64
	Corners  []r2.Point
}

// RawFrame is the detector output for one frame
type RawFrame struct {
	Time   chrono.Time
	Width  int
	Height int
	Tags   []TagDetection
}

// Tracker identifies the individuals carrying detected tags
type Tracker struct {
	identities *identity.Compiled
	solver     *Solver
	logger     zerolog.Logger
}

// TrackerOption configures a Tracker
type TrackerOption func(*Tracker)

// WithTrackerLogger sets the logger of the tracker
func WithTrackerLogger(l zerolog.Logger) TrackerOption {
	return func(t *Tracker) {
		t.logger = l
	}
}

// NewTracker creates a tracker. solver may be nil if CollideFrame is not used.
func NewTracker(identities *identity.Compiled, solver *Solver, options ...TrackerOption) *Tracker {
	t := &Tracker{
		identities: identities,
		solver:     solver,
		logger:     logging.Logger(),
	}
	for _, o := range options {
		o(t)
	}
	return t
}

// IdentifyFrame converts tag poses into individual poses. Unidentified
// tags are dropped. Positions are sorted by individual id.
func (t *Tracker) IdentifyFrame(raw RawFrame, space zone.SpaceID) *IdentifiedFrame {
	res := &IdentifiedFrame{
		Time:      raw.Time,
		Space:     space,
		Width:     raw.Width,
		Height:    raw.Height,
		Positions: make([]PositionedIndividual, 0, len(raw.Tags)),
	}
	// A misdetection may report a tag twice: keep its first occurrence
	reserved := make(map[identity.IndividualID]struct{}, len(raw.Tags))
	for _, tag := range raw.Tags {
		ident, ok := t.identities.Identify(tag.ID, raw.Time)
		if !ok {
			continue
		}
		if _, ok := reserved[ident.Individual]; ok {
			t.logger.Debug().
				Str("tag", identity.FormatTagID(tag.ID)).
				Str("time", raw.Time.String()).
				Msg("Duplicate detection ignored")
			continue
		}
		reserved[ident.Individual] = struct{}{}
		position, angle := ident.Pose(tag.Position, tag.Angle)
		res.Positions = append(res.Positions, PositionedIndividual{
			ID:       ident.Individual,
			Position: position,
			Angle:    angle,
		})
	}
	slices.SortFunc(res.Positions, func(a, b PositionedIndividual) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return res
}

// CollideFrame identifies a raw frame then computes its collisions
func (t *Tracker) CollideFrame(raw RawFrame, space zone.SpaceID) (*IdentifiedFrame, *CollisionFrame, error) {
	if t.solver == nil {
		return nil, nil, ErrNoSolver
	}
	identified := t.IdentifyFrame(raw, space)
	collisions, err := t.solver.ComputeCollisions(identified)
	if err != nil {
		return nil, nil, err
	}
	return identified, collisions, nil
}
