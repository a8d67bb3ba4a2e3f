package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/geom"
	"github.com/LdDl/myrmidon-go/identity"
)

func TestIdentifyFrame(t *testing.T) {
	f := newFixture(t)
	capsule := identity.TypedCapsule{Type: f.body, Capsule: geom.NewCapsule(r2.Point{X: -1}, r2.Point{X: 1}, 0.5, 0.5)}
	a := f.individual(t, capsule)
	b := f.individual(t, capsule)

	first, err := f.manager.AddIdentification(a, 0x001, nil, at(10))
	require.NoError(t, err)
	require.NoError(t, f.manager.SetIndividualPose(first.ID, r2.Point{X: 2, Y: 0}, math.Pi/2))
	// tag 0x001 is moved to b from t=10
	_, err = f.manager.AddIdentification(b, 0x001, at(10), nil)
	require.NoError(t, err)
	_, err = f.manager.AddIdentification(a, 0x002, at(10), nil)
	require.NoError(t, err)

	tracker := NewTracker(f.manager.Compile(), f.solver(), WithTrackerLogger(zerolog.Nop()))

	raw := RawFrame{
		Time:   chrono.MustUnix(5, 0),
		Width:  640,
		Height: 480,
		Tags: []TagDetection{
			{ID: 0x002, Position: r2.Point{X: 50, Y: 50}},
			{ID: 0x001, Position: r2.Point{X: 10, Y: 20}, Angle: math.Pi / 2},
			{ID: 0x003, Position: r2.Point{X: 100, Y: 100}},
		},
	}
	frame := tracker.IdentifyFrame(raw, f.space.ID())
	assert.Equal(t, f.space.ID(), frame.Space)
	assert.Equal(t, 640, frame.Width)
	assert.Equal(t, 480, frame.Height)
	require.Len(t, frame.Positions, 1)
	assert.Equal(t, a, frame.Positions[0].ID)
	// (2,0) rotated by a quarter turn is (0,2)
	assert.InDelta(t, 10.0, frame.Positions[0].Position.X, 1e-9)
	assert.InDelta(t, 22.0, frame.Positions[0].Position.Y, 1e-9)
	assert.InDelta(t, math.Pi, frame.Positions[0].Angle, 1e-9)

	raw.Time = chrono.MustUnix(10, 0)
	frame = tracker.IdentifyFrame(raw, f.space.ID())
	require.Len(t, frame.Positions, 2)
	assert.Equal(t, a, frame.Positions[0].ID)
	assert.Equal(t, r2.Point{X: 50, Y: 50}, frame.Positions[0].Position)
	assert.Equal(t, b, frame.Positions[1].ID)
	assert.Equal(t, r2.Point{X: 10, Y: 20}, frame.Positions[1].Position)
	assert.InDelta(t, math.Pi/2, frame.Positions[1].Angle, 1e-9)
}

func TestIdentifyFrameDuplicates(t *testing.T) {
	f := newFixture(t)
	a := f.individual(t)
	_, err := f.manager.AddIdentification(a, 7, nil, nil)
	require.NoError(t, err)
	tracker := NewTracker(f.manager.Compile(), nil, WithTrackerLogger(zerolog.Nop()))
	frame := tracker.IdentifyFrame(RawFrame{
		Time: chrono.MustUnix(0, 0),
		Tags: []TagDetection{
			{ID: 7, Position: r2.Point{X: 1, Y: 1}},
			{ID: 7, Position: r2.Point{X: 300, Y: 300}},
		},
	}, f.space.ID())
	require.Len(t, frame.Positions, 1)
	assert.Equal(t, r2.Point{X: 1, Y: 1}, frame.Positions[0].Position)
}

func TestCollideFrame(t *testing.T) {
	f := newFixture(t)
	capsule := identity.TypedCapsule{Type: f.body, Capsule: geom.NewCapsule(r2.Point{X: -1}, r2.Point{X: 1}, 0.5, 0.5)}
	a := f.individual(t, capsule)
	b := f.individual(t, capsule)
	_, err := f.manager.AddIdentification(a, 1, nil, nil)
	require.NoError(t, err)
	_, err = f.manager.AddIdentification(b, 2, nil, nil)
	require.NoError(t, err)
	tracker := NewTracker(f.manager.Compile(), f.solver(), WithTrackerLogger(zerolog.Nop()))

	raw := RawFrame{
		Time: chrono.MustUnix(0, 0),
		Tags: []TagDetection{
			{ID: 1, Position: r2.Point{X: 0, Y: 0}},
			{ID: 2, Position: r2.Point{X: 0, Y: 0.8}},
		},
	}
	identified, collisions, err := tracker.CollideFrame(raw, f.space.ID())
	require.NoError(t, err)
	require.Len(t, identified.Positions, 2)
	assert.Equal(t, Unzoned, identified.Positions[0].Zone)
	require.Len(t, collisions.Collisions, 1)
	assert.Equal(t, [2]identity.IndividualID{a, b}, collisions.Collisions[0].IDs)

	_, _, err = tracker.CollideFrame(raw, 42)
	assert.Error(t, err)

	identifyOnly := NewTracker(f.manager.Compile(), nil, WithTrackerLogger(zerolog.Nop()))
	assert.Len(t, identifyOnly.IdentifyFrame(raw, f.space.ID()).Positions, 2)
	_, _, err = identifyOnly.CollideFrame(raw, f.space.ID())
	assert.ErrorIs(t, err, ErrNoSolver)
}
