package zone

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
)

// Timeline is an immutable index of zone geometries over time, answering
// "which geometry does zone Z of space S have at time t" in O(log n).
type Timeline struct {
	spaces map[SpaceID]*spaceTimeline
}

type spaceTimeline struct {
	zoneIDs []ZoneID
	zones   map[ZoneID][]timelineEntry
}

// timelineEntry is valid from start (nil for -∞) until the next entry
type timelineEntry struct {
	start    *chrono.Time
	geometry *Geometry
}

// NewTimeline compiles the current zone definitions of the universe.
// Later changes to the universe are not reflected.
func NewTimeline(u *Universe) *Timeline {
	tl := &Timeline{spaces: make(map[SpaceID]*spaceTimeline)}
	for _, s := range u.Spaces() {
		st := &spaceTimeline{zones: make(map[ZoneID][]timelineEntry)}
		for _, z := range s.Zones() {
			st.zoneIDs = append(st.zoneIDs, z.id)
			st.zones[z.id] = compileZone(z)
		}
		tl.spaces[s.id] = st
	}
	return tl
}

// compileZone turns sorted non-overlapping definitions into consecutive
// entries, filling gaps between definitions with the empty geometry.
func compileZone(z *Zone) []timelineEntry {
	var entries []timelineEntry
	var last *chrono.Time
	for _, d := range z.definitions {
		if !chrono.EqualBounds(d.start, last) {
			entries = append(entries, timelineEntry{start: last, geometry: emptyGeometry})
		}
		entries = append(entries, timelineEntry{start: chrono.CopyPtr(d.start), geometry: d.geometry})
		last = chrono.CopyPtr(d.end)
	}
	if len(entries) > 0 && last != nil {
		entries = append(entries, timelineEntry{start: last, geometry: emptyGeometry})
	}
	return entries
}

// At returns the geometry of a zone at t. Times outside any definition
// yield an empty geometry.
func (tl *Timeline) At(space SpaceID, zone ZoneID, t chrono.Time) (*Geometry, error) {
	st, ok := tl.spaces[space]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSpace, "%d", space)
	}
	entries, ok := st.zones[zone]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownZone, "space %d zone %d", space, zone)
	}
	idx := sort.Search(len(entries), func(i int) bool {
		s := entries[i].start
		return s != nil && s.After(t)
	})
	if idx == 0 {
		return emptyGeometry, nil
	}
	return entries[idx-1].geometry, nil
}

// ZoneIDs returns the zones of a space ordered by id
func (tl *Timeline) ZoneIDs(space SpaceID) ([]ZoneID, error) {
	st, ok := tl.spaces[space]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSpace, "%d", space)
	}
	res := make([]ZoneID, len(st.zoneIDs))
	copy(res, st.zoneIDs)
	return res, nil
}

// HasSpace reports whether the timeline knows the space
func (tl *Timeline) HasSpace(space SpaceID) bool {
	_, ok := tl.spaces[space]
	return ok
}
