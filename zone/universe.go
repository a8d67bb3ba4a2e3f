// Package zone holds the spatial configuration of an experiment: spaces,
// their time-varying zones, and the data directories recorded in each
// space. A Timeline compiles zone geometries for fast per-frame lookup.
//
// Universe and its children are not safe for concurrent mutation. A
// Timeline built from them is immutable.
package zone

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/internal/arena"
)

// SpaceID identifies a space
type SpaceID uint32

// Universe is the set of spaces of an experiment
type Universe struct {
	spaces *arena.Container[SpaceID, *Space]
	// data directory URI to owning space
	uris map[string]SpaceID
}

// Space is a physical arena recorded by one tracking setup
type Space struct {
	id       SpaceID
	name     string
	universe *Universe
	zones    *arena.Container[ZoneID, *Zone]
	dataDirs []DataDirectory
}

// DataDirectory is a recording of a space over [Start, End)
type DataDirectory struct {
	URI   string
	From  *chrono.Time
	Until *chrono.Time
}

func (d DataDirectory) Start() *chrono.Time {
	return d.From
}

func (d DataDirectory) End() *chrono.Time {
	return d.Until
}

// NewUniverse creates an empty universe
func NewUniverse() *Universe {
	return &Universe{
		spaces: arena.New[SpaceID, *Space](),
		uris:   make(map[string]SpaceID),
	}
}

// CreateSpace creates a space. A zero id picks the next available one.
func (u *Universe) CreateSpace(id SpaceID, name string) (*Space, error) {
	if err := u.checkName(name, 0); err != nil {
		return nil, err
	}
	s := &Space{
		name:     name,
		universe: u,
		zones:    arena.New[ZoneID, *Zone](),
	}
	id, err := u.spaces.Create(id, s)
	if err != nil {
		return nil, errors.Wrap(err, "Can't create space")
	}
	s.id = id
	return s, nil
}

// DeleteSpace deletes a space without zones nor data directories
func (u *Universe) DeleteSpace(id SpaceID) error {
	s, ok := u.spaces.Get(id)
	if !ok {
		return errors.Wrapf(ErrUnknownSpace, "%d", id)
	}
	if s.zones.Len() > 0 || len(s.dataDirs) > 0 {
		return errors.Wrapf(ErrSpaceNotEmpty, "space %d '%s' (zones: %d, data directories: %d)",
			id, s.name, s.zones.Len(), len(s.dataDirs))
	}
	return u.spaces.Delete(id)
}

// Space returns the space with the given id
func (u *Universe) Space(id SpaceID) (*Space, error) {
	s, ok := u.spaces.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSpace, "%d", id)
	}
	return s, nil
}

// Spaces returns all spaces ordered by id
func (u *Universe) Spaces() []*Space {
	return u.spaces.Values()
}

// SpaceForDataDirectory returns the space recorded by the data directory uri
func (u *Universe) SpaceForDataDirectory(uri string) (*Space, error) {
	id, ok := u.uris[uri]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDataDirectory, "'%s'", uri)
	}
	return u.Space(id)
}

func (u *Universe) checkName(name string, self SpaceID) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidName, "space name can't be empty")
	}
	for _, s := range u.spaces.Values() {
		if s.id != self && s.name == name {
			return errors.Wrapf(ErrNameInUse, "space '%s' already exists with id %d", name, s.id)
		}
	}
	return nil
}

func (s *Space) ID() SpaceID {
	return s.id
}

func (s *Space) Name() string {
	return s.name
}

// SetName renames the space. Names are unique in a universe.
func (s *Space) SetName(name string) error {
	if err := s.universe.checkName(name, s.id); err != nil {
		return err
	}
	s.name = name
	return nil
}

// CreateZone creates a zone without definitions. A zero id picks the next available one.
func (s *Space) CreateZone(id ZoneID, name string) (*Zone, error) {
	z := &Zone{name: name}
	id, err := s.zones.Create(id, z)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create zone in space %d", s.id)
	}
	z.id = id
	return z, nil
}

// DeleteZone deletes a zone and all its definitions
func (s *Space) DeleteZone(id ZoneID) error {
	if err := s.zones.Delete(id); err != nil {
		return errors.Wrapf(ErrUnknownZone, "space %d zone %d", s.id, id)
	}
	return nil
}

// Zone returns the zone with the given id
func (s *Space) Zone(id ZoneID) (*Zone, error) {
	z, ok := s.zones.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownZone, "space %d zone %d", s.id, id)
	}
	return z, nil
}

// Zones returns all zones ordered by id
func (s *Space) Zones() []*Zone {
	return s.zones.Values()
}

// DataDirectories returns the data directories of the space sorted by start
func (s *Space) DataDirectories() []DataDirectory {
	res := make([]DataDirectory, len(s.dataDirs))
	copy(res, s.dataDirs)
	return res
}

// AddDataDirectory registers a recording of the space. URIs are unique in
// the universe and recordings of a space can't overlap in time.
func (s *Space) AddDataDirectory(uri string, start, end *chrono.Time) error {
	if uri == "" {
		return errors.Wrap(ErrInvalidName, "data directory URI can't be empty")
	}
	if owner, ok := s.universe.uris[uri]; ok {
		return errors.Wrapf(ErrURIInUse, "'%s' belongs to space %d", uri, owner)
	}
	if err := chrono.CheckRange(start, end); err != nil {
		return err
	}
	dirs := append(s.DataDirectories(), DataDirectory{
		URI:   uri,
		From:  chrono.CopyPtr(start),
		Until: chrono.CopyPtr(end),
	})
	if i, j, overlapping := chrono.SortAndCheckOverlap(dirs); overlapping {
		return errors.Wrapf(ErrOverlappingDataDirectory, "space %d: '%s' and '%s'", s.id, dirs[i].URI, dirs[j].URI)
	}
	s.dataDirs = dirs
	s.universe.uris[uri] = s.id
	return nil
}

// RemoveDataDirectory unregisters a recording of the space
func (s *Space) RemoveDataDirectory(uri string) error {
	for i, d := range s.dataDirs {
		if d.URI == uri {
			s.dataDirs = append(s.dataDirs[:i:i], s.dataDirs[i+1:]...)
			delete(s.universe.uris, uri)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownDataDirectory, "space %d has no '%s'", s.id, uri)
}

// DataDirectoryAt returns the recording of the space covering t
func (s *Space) DataDirectoryAt(t chrono.Time) (DataDirectory, bool) {
	for _, d := range s.dataDirs {
		if chrono.IsValid(d, t) {
			return d, true
		}
	}
	return DataDirectory{}, false
}
