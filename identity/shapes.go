package identity

import (
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/geom"
)

// CreateShapeType creates a body part type. A zero id picks the next available one.
func (m *Manager) CreateShapeType(id ShapeTypeID, name string) (ShapeTypeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created, err := m.shapeTypes.Create(id, name)
	if err != nil {
		return 0, errors.Wrapf(ErrAlreadyExists, "shape type %d", id)
	}
	return created, nil
}

// DeleteShapeType deletes a shape type no capsule uses
func (m *Manager) DeleteShapeType(id ShapeTypeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shapeTypes.Get(id); !ok {
		return errors.Wrapf(ErrUnmanagedShapeType, "%d", id)
	}
	for _, ind := range m.individuals.Values() {
		for _, c := range ind.capsules {
			if c.Type == id {
				return errors.Wrapf(ErrShapeTypeInUse, "%d is used by individual %s", id, FormatIndividualID(ind.id))
			}
		}
	}
	return m.shapeTypes.Delete(id)
}

// ShapeTypes returns the names of shape types by id
func (m *Manager) ShapeTypes() map[ShapeTypeID]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make(map[ShapeTypeID]string, m.shapeTypes.Len())
	for _, id := range m.shapeTypes.SortedIDs() {
		res[id], _ = m.shapeTypes.Get(id)
	}
	return res
}

// AddCapsule adds a body part outline, in the individual frame
func (m *Manager) AddCapsule(id IndividualID, typ ShapeTypeID, c geom.Capsule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	if _, ok := m.shapeTypes.Get(typ); !ok {
		return errors.Wrapf(ErrUnmanagedShapeType, "%d", typ)
	}
	ind.capsules = append(ind.capsules, TypedCapsule{Type: typ, Capsule: c})
	return nil
}

// DeleteCapsule removes the capsule at index i of the individual capsules
func (m *Manager) DeleteCapsule(id IndividualID, i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(ind.capsules) {
		return errors.Errorf("Can't delete capsule %d of individual %s: only %d capsules",
			i, FormatIndividualID(id), len(ind.capsules))
	}
	ind.capsules = append(ind.capsules[:i:i], ind.capsules[i+1:]...)
	return nil
}

// ClearCapsules removes all capsules of an individual
func (m *Manager) ClearCapsules(id IndividualID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	ind.capsules = nil
	return nil
}

// Capsules returns the capsules of an individual
func (m *Manager) Capsules(id IndividualID) ([]TypedCapsule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ind, err := m.individual(id)
	if err != nil {
		return nil, err
	}
	res := make([]TypedCapsule, len(ind.capsules))
	copy(res, ind.capsules)
	return res, nil
}

// meanHeadTailLength is the mean head-tail length of an individual, zero
// without measurements.
func (m *Manager) meanHeadTailLength(id IndividualID) float64 {
	list, err := m.computeMeasurements(id, HeadTailMeasurementTypeID)
	if err != nil || len(list) == 0 {
		return 0
	}
	sum := 0.0
	for _, ms := range list {
		sum += ms.Length
	}
	return sum / float64(len(list))
}

// CloneShapes copies the capsules of source to every other individual.
// Individuals which already have capsules are kept unless overwrite is
// set. With scaleToSize, capsules are scaled by the ratio between the mean
// head-tail lengths of the target and of the source. Targets without
// head-tail measurement keep the source size.
func (m *Manager) CloneShapes(source IndividualID, scaleToSize, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, err := m.individual(source)
	if err != nil {
		return err
	}
	if len(src.capsules) == 0 && !overwrite {
		return nil
	}
	baseSize := m.meanHeadTailLength(source)
	if scaleToSize && baseSize == 0 {
		return errors.Errorf("Individual %s has no head-tail measurement to scale from", FormatIndividualID(source))
	}
	cloned := 0
	for _, ind := range m.individuals.Values() {
		if ind.id == source || (!overwrite && len(ind.capsules) > 0) {
			continue
		}
		scale := 1.0
		if scaleToSize {
			if size := m.meanHeadTailLength(ind.id); size > 0 {
				scale = size / baseSize
			}
		}
		ind.capsules = make([]TypedCapsule, 0, len(src.capsules))
		for _, c := range src.capsules {
			ind.capsules = append(ind.capsules, TypedCapsule{
				Type:    c.Type,
				Capsule: geom.NewCapsule(c.Capsule.C1.Mul(scale), c.Capsule.C2.Mul(scale), scale*c.Capsule.R1, scale*c.Capsule.R2),
			})
		}
		cloned++
	}
	m.logger.Debug().
		Uint32("source", uint32(source)).
		Int("individuals", cloned).
		Bool("scaled", scaleToSize).
		Msg("Shapes cloned")
	return nil
}
