package zone

import (
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
)

// ZoneID identifies a zone within its space
type ZoneID uint32

// Zone is a named region of a space whose geometry changes over time
// through non-overlapping definitions.
type Zone struct {
	id          ZoneID
	name        string
	definitions []*Definition
}

// Definition gives the geometry of a zone over [Start, End)
type Definition struct {
	zone     *Zone
	geometry *Geometry
	start    *chrono.Time
	end      *chrono.Time
}

func (z *Zone) ID() ZoneID {
	return z.id
}

func (z *Zone) Name() string {
	return z.name
}

func (z *Zone) SetName(name string) {
	z.name = name
}

// Definitions returns the definitions sorted by start
func (z *Zone) Definitions() []*Definition {
	res := make([]*Definition, len(z.definitions))
	copy(res, z.definitions)
	return res
}

// AddDefinition adds a definition valid over [start, end). It fails and
// leaves the zone unchanged if the range overlaps an existing definition.
func (z *Zone) AddDefinition(geometry *Geometry, start, end *chrono.Time) (*Definition, error) {
	if err := chrono.CheckRange(start, end); err != nil {
		return nil, err
	}
	if geometry == nil {
		geometry = emptyGeometry
	}
	d := &Definition{
		zone:     z,
		geometry: geometry,
		start:    chrono.CopyPtr(start),
		end:      chrono.CopyPtr(end),
	}
	old := z.definitions
	z.definitions = append(z.Definitions(), d)
	if err := z.check(); err != nil {
		z.definitions = old
		return nil, err
	}
	return d, nil
}

// EraseDefinition removes the definition at index i of Definitions()
func (z *Zone) EraseDefinition(i int) error {
	if i < 0 || i >= len(z.definitions) {
		return errors.Errorf("Can't erase definition %d of zone %d: only %d definitions", i, z.id, len(z.definitions))
	}
	z.definitions = append(z.definitions[:i:i], z.definitions[i+1:]...)
	return nil
}

func (z *Zone) check() error {
	i, j, overlapping := chrono.SortAndCheckOverlap(z.definitions)
	if !overlapping {
		return nil
	}
	a, b := z.definitions[i], z.definitions[j]
	return errors.Wrapf(ErrOverlappingDefinition, "zone %d: [%s;%s) and [%s;%s)", z.id,
		chrono.FormatStart(a.start), chrono.FormatEnd(a.end),
		chrono.FormatStart(b.start), chrono.FormatEnd(b.end))
}

// AtTime returns the geometry of the zone at t, nil when no definition covers t
func (z *Zone) AtTime(t chrono.Time) *Geometry {
	for _, d := range z.definitions {
		if chrono.IsValid(d, t) {
			return d.geometry
		}
	}
	return nil
}

// NextFreeTimeRegion returns the first time range not covered by any definition
func (z *Zone) NextFreeTimeRegion() (start, end *chrono.Time, err error) {
	if len(z.definitions) == 0 {
		return nil, nil, nil
	}
	first := z.definitions[0]
	if first.start != nil {
		return nil, chrono.CopyPtr(first.start), nil
	}
	for i := 1; i < len(z.definitions); i++ {
		prev, next := z.definitions[i-1], z.definitions[i]
		if prev.end.Before(*next.start) {
			return chrono.CopyPtr(prev.end), chrono.CopyPtr(next.start), nil
		}
	}
	last := z.definitions[len(z.definitions)-1]
	if last.end == nil {
		return nil, nil, errors.Wrapf(ErrNoFreeRegion, "zone %d", z.id)
	}
	return chrono.CopyPtr(last.end), nil, nil
}

// Start returns the start of the definition, nil for -∞
func (d *Definition) Start() *chrono.Time {
	return d.start
}

// End returns the end of the definition, nil for +∞
func (d *Definition) End() *chrono.Time {
	return d.end
}

func (d *Definition) Geometry() *Geometry {
	return d.geometry
}

func (d *Definition) SetGeometry(g *Geometry) {
	if g == nil {
		g = emptyGeometry
	}
	d.geometry = g
}

// SetStart moves the start of the definition, reverting on overlap
func (d *Definition) SetStart(start *chrono.Time) error {
	return d.setRange(start, d.end)
}

// SetEnd moves the end of the definition, reverting on overlap
func (d *Definition) SetEnd(end *chrono.Time) error {
	return d.setRange(d.start, end)
}

func (d *Definition) setRange(start, end *chrono.Time) error {
	if err := chrono.CheckRange(start, end); err != nil {
		return err
	}
	oldStart, oldEnd := d.start, d.end
	d.start, d.end = chrono.CopyPtr(start), chrono.CopyPtr(end)
	if err := d.zone.check(); err != nil {
		d.start, d.end = oldStart, oldEnd
		chrono.SortRanged(d.zone.definitions)
		return err
	}
	return nil
}
