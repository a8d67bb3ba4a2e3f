package zone

import (
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/geom"
)

func at(sec int64) *chrono.Time {
	return chrono.Ptr(chrono.MustUnix(sec, 0))
}

func circle(x, y, r float64) *Geometry {
	return NewGeometry([]geom.Shape{geom.Circle{Center: r2.Point{X: x, Y: y}, Radius: r}})
}

func TestGeometry(t *testing.T) {
	g := NewGeometry([]geom.Shape{
		geom.Circle{Center: r2.Point{X: 0, Y: 0}, Radius: 1},
		geom.NewCapsule(r2.Point{X: 10, Y: 0}, r2.Point{X: 20, Y: 0}, 1, 1),
	})
	assert.False(t, g.IsEmpty())
	assert.Len(t, g.Shapes(), 2)
	assert.True(t, g.Contains(r2.Point{X: 0.5, Y: 0}))
	assert.True(t, g.Contains(r2.Point{X: 15, Y: 0.9}))
	assert.False(t, g.Contains(r2.Point{X: 5, Y: 0}))
	assert.True(t, g.AABB().ApproxEqual(r2.RectFromPoints(r2.Point{X: -1, Y: -1}, r2.Point{X: 21, Y: 1})))

	empty := NewGeometry(nil)
	assert.True(t, empty.IsEmpty())
	assert.False(t, empty.Contains(r2.Point{}))
}

func TestZoneDefinitions(t *testing.T) {
	u := NewUniverse()
	s, err := u.CreateSpace(0, "box")
	require.NoError(t, err)
	z, err := s.CreateZone(0, "food")
	require.NoError(t, err)
	assert.Equal(t, ZoneID(1), z.ID())

	start, end, err := z.NextFreeTimeRegion()
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.Nil(t, end)

	_, err = z.AddDefinition(circle(0, 0, 1), at(10), at(20))
	require.NoError(t, err)
	second, err := z.AddDefinition(circle(5, 5, 1), at(20), at(30))
	require.NoError(t, err)

	_, err = z.AddDefinition(circle(0, 0, 1), at(15), at(25))
	assert.ErrorIs(t, err, ErrOverlappingDefinition)
	assert.Len(t, z.Definitions(), 2)

	_, err = z.AddDefinition(circle(0, 0, 1), at(40), at(35))
	assert.ErrorIs(t, err, chrono.ErrEmptyRange)

	start, end, err = z.NextFreeTimeRegion()
	require.NoError(t, err)
	assert.Nil(t, start)
	assert.True(t, end.Equal(chrono.MustUnix(10, 0)))

	_, err = z.AddDefinition(nil, nil, at(10))
	require.NoError(t, err)
	start, end, err = z.NextFreeTimeRegion()
	require.NoError(t, err)
	assert.True(t, start.Equal(chrono.MustUnix(30, 0)))
	assert.Nil(t, end)

	// moving the end of the second definition over nothing works, then rollback on overlap
	require.NoError(t, second.SetEnd(nil))
	_, _, err = z.NextFreeTimeRegion()
	assert.ErrorIs(t, err, ErrNoFreeRegion)
	require.NoError(t, second.SetStart(at(25)))
	start, end, err = z.NextFreeTimeRegion()
	require.NoError(t, err)
	assert.True(t, start.Equal(chrono.MustUnix(20, 0)))
	assert.True(t, end.Equal(chrono.MustUnix(25, 0)))

	err = second.SetStart(at(19))
	assert.ErrorIs(t, err, ErrOverlappingDefinition)
	assert.True(t, second.Start().Equal(chrono.MustUnix(25, 0)))

	g := z.AtTime(chrono.MustUnix(26, 0))
	require.NotNil(t, g)
	assert.True(t, g.Contains(r2.Point{X: 5, Y: 5}))
	assert.Nil(t, z.AtTime(chrono.MustUnix(22, 0)))

	require.NoError(t, z.EraseDefinition(0))
	assert.Len(t, z.Definitions(), 2)
	assert.Error(t, z.EraseDefinition(2))
}

func TestSpaces(t *testing.T) {
	u := NewUniverse()
	_, err := u.CreateSpace(0, "")
	assert.ErrorIs(t, err, ErrInvalidName)
	nest, err := u.CreateSpace(0, "nest")
	require.NoError(t, err)
	foraging, err := u.CreateSpace(0, "foraging")
	require.NoError(t, err)
	assert.Equal(t, SpaceID(2), foraging.ID())
	_, err = u.CreateSpace(0, "nest")
	assert.ErrorIs(t, err, ErrNameInUse)
	assert.ErrorIs(t, foraging.SetName("nest"), ErrNameInUse)
	require.NoError(t, foraging.SetName("foraging-2"))

	require.NoError(t, nest.AddDataDirectory("nest.0000", at(0), at(100)))
	require.NoError(t, nest.AddDataDirectory("nest.0001", at(100), nil))
	err = nest.AddDataDirectory("nest.0002", at(50), at(60))
	assert.ErrorIs(t, err, ErrOverlappingDataDirectory)
	err = foraging.AddDataDirectory("nest.0000", at(0), at(100))
	assert.ErrorIs(t, err, ErrURIInUse)
	require.NoError(t, foraging.AddDataDirectory("foraging.0000", at(0), at(100)))

	owner, err := u.SpaceForDataDirectory("nest.0001")
	require.NoError(t, err)
	assert.Equal(t, nest.ID(), owner.ID())

	d, ok := nest.DataDirectoryAt(chrono.MustUnix(100, 0))
	require.True(t, ok)
	assert.Equal(t, "nest.0001", d.URI)
	_, ok = nest.DataDirectoryAt(chrono.MustUnix(-1, 0))
	assert.False(t, ok)

	assert.ErrorIs(t, u.DeleteSpace(nest.ID()), ErrSpaceNotEmpty)
	require.NoError(t, nest.RemoveDataDirectory("nest.0000"))
	require.NoError(t, nest.RemoveDataDirectory("nest.0001"))
	assert.ErrorIs(t, nest.RemoveDataDirectory("nest.0001"), ErrUnknownDataDirectory)
	_, err = u.SpaceForDataDirectory("nest.0001")
	assert.ErrorIs(t, err, ErrUnknownDataDirectory)

	_, err = nest.CreateZone(0, "entrance")
	require.NoError(t, err)
	assert.ErrorIs(t, u.DeleteSpace(nest.ID()), ErrSpaceNotEmpty)
	require.NoError(t, nest.DeleteZone(1))
	assert.ErrorIs(t, nest.DeleteZone(1), ErrUnknownZone)
	require.NoError(t, u.DeleteSpace(nest.ID()))
	_, err = u.Space(nest.ID())
	assert.ErrorIs(t, err, ErrUnknownSpace)
	assert.Len(t, u.Spaces(), 1)
}

func TestTimeline(t *testing.T) {
	u := NewUniverse()
	s, err := u.CreateSpace(0, "box")
	require.NoError(t, err)
	z, err := s.CreateZone(0, "food")
	require.NoError(t, err)
	_, err = z.AddDefinition(circle(0, 0, 1), at(10), at(20))
	require.NoError(t, err)
	_, err = z.AddDefinition(circle(5, 5, 1), at(30), at(40))
	require.NoError(t, err)
	always, err := s.CreateZone(0, "nest")
	require.NoError(t, err)
	_, err = always.AddDefinition(circle(-5, -5, 1), nil, nil)
	require.NoError(t, err)
	_, err = s.CreateZone(0, "undefined")
	require.NoError(t, err)

	tl := NewTimeline(u)
	ids, err := tl.ZoneIDs(s.ID())
	require.NoError(t, err)
	assert.Equal(t, []ZoneID{1, 2, 3}, ids)

	data := []struct {
		sec   int64
		zone  ZoneID
		empty bool
		in    r2.Point
	}{
		{0, 1, true, r2.Point{}},
		{10, 1, false, r2.Point{X: 0, Y: 0}},
		{19, 1, false, r2.Point{X: 0, Y: 0}},
		{20, 1, true, r2.Point{}},
		{29, 1, true, r2.Point{}},
		{30, 1, false, r2.Point{X: 5, Y: 5}},
		{40, 1, true, r2.Point{}},
		{-1000, 2, false, r2.Point{X: -5, Y: -5}},
		{1000, 2, false, r2.Point{X: -5, Y: -5}},
		{15, 3, true, r2.Point{}},
	}
	for _, tc := range data {
		g, err := tl.At(s.ID(), tc.zone, chrono.MustUnix(tc.sec, 0))
		require.NoError(t, err)
		require.Equal(t, tc.empty, g.IsEmpty(), "zone %d at %d", tc.zone, tc.sec)
		if !tc.empty {
			assert.True(t, g.Contains(tc.in), "zone %d at %d", tc.zone, tc.sec)
		}
	}

	_, err = tl.At(42, 1, chrono.MustUnix(0, 0))
	assert.ErrorIs(t, err, ErrUnknownSpace)
	_, err = tl.At(s.ID(), 42, chrono.MustUnix(0, 0))
	assert.ErrorIs(t, err, ErrUnknownZone)
	_, err = tl.ZoneIDs(42)
	assert.ErrorIs(t, err, ErrUnknownSpace)
	assert.True(t, tl.HasSpace(s.ID()))

	// the timeline is a snapshot
	_, err = z.AddDefinition(circle(9, 9, 1), at(20), at(30))
	require.NoError(t, err)
	g, err := tl.At(s.ID(), 1, chrono.MustUnix(25, 0))
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
}
