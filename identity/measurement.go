package identity

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
)

// MeasurementTypeID identifies a kind of measurement such as "head-tail"
type MeasurementTypeID uint32

const (
	// HeadTailMeasurementTypeID is always defined. Its measurements also
	// give pose estimates.
	HeadTailMeasurementTypeID   MeasurementTypeID = 1
	HeadTailMeasurementTypeName                   = "head-tail"
)

// Measurement is a segment measured on a close-up image of Tag taken at
// Time. Start and End are in the tag frame, in pixels, and TagSizePx is the
// size of the tag on that image.
type Measurement struct {
	Tag       TagID
	Time      chrono.Time
	Type      MeasurementTypeID
	Start     r2.Point
	End       r2.Point
	TagSizePx float64
}

type measurementKey struct {
	tag  TagID
	sec  int64
	nsec int32
	typ  MeasurementTypeID
}

func (ms Measurement) key() measurementKey {
	sec, nsec := ms.Time.Unix()
	return measurementKey{tag: ms.Tag, sec: sec, nsec: nsec, typ: ms.Type}
}

// ComputedMeasurement is a measurement converted to the tag size unit
type ComputedMeasurement struct {
	Time      chrono.Time
	Length    float64
	LengthPx  float64
	TagSizePx float64
}

// CreateMeasurementType creates a measurement type. A zero id picks the next available one.
func (m *Manager) CreateMeasurementType(id MeasurementTypeID, name string) (MeasurementTypeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, err := m.measurementTypes.Create(id, name)
	if err != nil {
		return 0, errors.Wrapf(ErrAlreadyExists, "measurement type %d", id)
	}
	return created, nil
}

// DeleteMeasurementType deletes a measurement type without measurements
func (m *Manager) DeleteMeasurementType(id MeasurementTypeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == HeadTailMeasurementTypeID {
		return errors.Errorf("Can't delete the %s measurement type", HeadTailMeasurementTypeName)
	}
	if _, ok := m.measurementTypes.Get(id); !ok {
		return errors.Wrapf(ErrUnmanagedMeasurementType, "%d", id)
	}
	for k := range m.measurements {
		if k.typ == id {
			return errors.Wrapf(ErrMeasurementTypeInUse, "%d", id)
		}
	}
	return m.measurementTypes.Delete(id)
}

// MeasurementTypes returns the names of measurement types by id
func (m *Manager) MeasurementTypes() map[MeasurementTypeID]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[MeasurementTypeID]string, m.measurementTypes.Len())
	for _, id := range m.measurementTypes.SortedIDs() {
		res[id], _ = m.measurementTypes.Get(id)
	}
	return res
}

// SetMeasurement stores a measurement, replacing the one of the same tag,
// time and type. Head-tail measurements also set the pose estimate.
func (m *Manager) SetMeasurement(ms Measurement) error {
	if ms.TagSizePx <= 0 {
		return errors.Errorf("Tag size in pixels must be positive, got %g", ms.TagSizePx)
	}
	var estimate PoseEstimate
	if ms.Type == HeadTailMeasurementTypeID {
		estimate = PoseEstimate{Tag: ms.Tag, Time: ms.Time, Head: ms.Start, Tail: ms.End}
		if _, _, err := estimate.Pose(); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.measurementTypes.Get(ms.Type); !ok {
		return errors.Wrapf(ErrUnmanagedMeasurementType, "%d", ms.Type)
	}
	m.measurements[ms.key()] = ms
	if ms.Type == HeadTailMeasurementTypeID {
		m.setPoseEstimate(estimate)
	}
	return nil
}

// DeleteMeasurement removes a measurement. Deleting a head-tail
// measurement also removes its pose estimate, if still present.
func (m *Manager) DeleteMeasurement(tag TagID, t chrono.Time, typ MeasurementTypeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := Measurement{Tag: tag, Time: t, Type: typ}.key()
	if _, ok := m.measurements[key]; !ok {
		return errors.Errorf("No measurement %d for %s at %s", typ, FormatTagID(tag), t)
	}
	delete(m.measurements, key)
	if typ == HeadTailMeasurementTypeID {
		m.removePoseEstimate(tag, t)
	}
	return nil
}

// Measurements returns all measurements sorted by time
func (m *Manager) Measurements() []Measurement {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]Measurement, 0, len(m.measurements))
	for _, ms := range m.measurements {
		res = append(res, ms)
	}
	sortMeasurements(res)
	return res
}

func sortMeasurements(list []Measurement) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Time.Equal(list[j].Time) {
			return list[i].Time.Before(list[j].Time)
		}
		if list[i].Tag != list[j].Tag {
			return list[i].Tag < list[j].Tag
		}
		return list[i].Type < list[j].Type
	})
}

// ComputeMeasurements returns the measurements of type typ made on an
// individual, converted from pixels using the tag size of the
// identification and the corner width ratio of the tag family.
func (m *Manager) ComputeMeasurements(id IndividualID, typ MeasurementTypeID) ([]ComputedMeasurement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.computeMeasurements(id, typ)
}

func (m *Manager) computeMeasurements(id IndividualID, typ MeasurementTypeID) ([]ComputedMeasurement, error) {
	if _, err := m.individual(id); err != nil {
		return nil, err
	}
	if _, ok := m.measurementTypes.Get(typ); !ok {
		return nil, errors.Wrapf(ErrUnmanagedMeasurementType, "%d", typ)
	}
	ratio, err := m.families.CornerWidthRatio(m.family)
	if err != nil {
		return nil, err
	}
	var matching []Measurement
	for _, ms := range m.measurements {
		if ms.Type == typ {
			matching = append(matching, ms)
		}
	}
	sortMeasurements(matching)
	var res []ComputedMeasurement
	for _, ms := range matching {
		ident := identify(m.byTag[ms.Tag], ms.Time)
		if ident == nil || ident.Individual != id {
			continue
		}
		tagSize := m.defaultTagSize
		if ident.TagSize > 0 {
			tagSize = ident.TagSize
		}
		lengthPx := ms.End.Sub(ms.Start).Norm()
		res = append(res, ComputedMeasurement{
			Time:      ms.Time,
			Length:    lengthPx * tagSize * ratio / ms.TagSizePx,
			LengthPx:  lengthPx,
			TagSizePx: ms.TagSizePx,
		})
	}
	return res, nil
}
