package snapshot

import (
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/geom"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/zone"
)

// Restore rebuilds a manager and a universe from s. Options are applied to
// the manager after the tag size and family of s.
func Restore(s *State, options ...identity.Option) (*identity.Manager, *zone.Universe, error) {
	options = append([]identity.Option{
		identity.WithDefaultTagSize(s.DefaultTagSize),
		identity.WithTagFamily(s.TagFamily),
	}, options...)
	m := identity.NewManager(options...)
	if err := restoreIdentities(m, s); err != nil {
		return nil, nil, errors.Wrap(err, "Can't restore identities")
	}
	u := zone.NewUniverse()
	if err := restoreSpaces(u, s); err != nil {
		return nil, nil, errors.Wrap(err, "Can't restore spaces")
	}
	return m, u, nil
}

func restoreIdentities(m *identity.Manager, s *State) error {
	for _, st := range s.ShapeTypes {
		if _, err := m.CreateShapeType(identity.ShapeTypeID(st.ID), st.Name); err != nil {
			return err
		}
	}
	for _, mt := range s.MeasurementTypes {
		if _, err := m.CreateMeasurementType(identity.MeasurementTypeID(mt.ID), mt.Name); err != nil {
			return err
		}
	}
	for _, ind := range s.Individuals {
		if ind.ID == 0 {
			return errors.New("Individual without id")
		}
		id, err := m.CreateIndividual(identity.IndividualID(ind.ID))
		if err != nil {
			return err
		}
		if err := m.SetDisplayColor(id, identity.Color{R: ind.Color[0], G: ind.Color[1], B: ind.Color[2]}); err != nil {
			return err
		}
		state, ok := displayStates[ind.DisplayState]
		if !ok {
			return errors.Errorf("Unknown display state '%s' for individual %s", ind.DisplayState, identity.FormatIndividualID(id))
		}
		if err := m.SetDisplayState(id, state); err != nil {
			return err
		}
		for _, c := range ind.Capsules {
			if err := m.AddCapsule(id, identity.ShapeTypeID(c.Type), c.Capsule.toCapsule()); err != nil {
				return err
			}
		}
		for _, ident := range ind.Identifications {
			if err := restoreIdentification(m, id, ident); err != nil {
				return err
			}
		}
	}
	// head-tail measurements set estimates too; explicit estimates win
	for _, ms := range s.Measurements {
		t, err := chrono.Parse(ms.Time)
		if err != nil {
			return err
		}
		err = m.SetMeasurement(identity.Measurement{
			Tag:       identity.TagID(ms.Tag),
			Time:      t,
			Type:      identity.MeasurementTypeID(ms.Type),
			Start:     ms.Start.toR2(),
			End:       ms.End.toR2(),
			TagSizePx: ms.TagSizePx,
		})
		if err != nil {
			return err
		}
	}
	type estimateKey struct {
		tag  uint32
		time string
	}
	captured := make(map[estimateKey]struct{}, len(s.PoseEstimates))
	for _, e := range s.PoseEstimates {
		t, err := chrono.Parse(e.Time)
		if err != nil {
			return err
		}
		err = m.SetPoseEstimate(identity.PoseEstimate{
			Tag:  identity.TagID(e.Tag),
			Time: t,
			Head: e.Head.toR2(),
			Tail: e.Tail.toR2(),
		})
		if err != nil {
			return err
		}
		captured[estimateKey{tag: e.Tag, time: t.String()}] = struct{}{}
	}
	// estimates deleted after their head-tail measurement stay deleted
	for _, ms := range m.Measurements() {
		if ms.Type != identity.HeadTailMeasurementTypeID {
			continue
		}
		if _, ok := captured[estimateKey{tag: uint32(ms.Tag), time: ms.Time.String()}]; ok {
			continue
		}
		if err := m.DeletePoseEstimate(ms.Tag, ms.Time); err != nil {
			return err
		}
	}
	return nil
}

func restoreIdentification(m *identity.Manager, id identity.IndividualID, ident Identification) error {
	start, err := parseBound(ident.Start)
	if err != nil {
		return err
	}
	end, err := parseBound(ident.End)
	if err != nil {
		return err
	}
	created, err := m.AddIdentification(id, identity.TagID(ident.Tag), start, end)
	if err != nil {
		return err
	}
	if ident.TagSize != 0 {
		if err := m.SetTagSize(created.ID, ident.TagSize); err != nil {
			return err
		}
	}
	if ident.UserDefinedPose {
		return m.SetIndividualPose(created.ID, ident.Position.toR2(), ident.Angle)
	}
	return nil
}

func restoreSpaces(u *zone.Universe, s *State) error {
	for _, sp := range s.Spaces {
		if sp.ID == 0 {
			return errors.Errorf("Space '%s' without id", sp.Name)
		}
		space, err := u.CreateSpace(zone.SpaceID(sp.ID), sp.Name)
		if err != nil {
			return err
		}
		for _, z := range sp.Zones {
			if z.ID == 0 {
				return errors.Errorf("Zone '%s' without id", z.Name)
			}
			created, err := space.CreateZone(zone.ZoneID(z.ID), z.Name)
			if err != nil {
				return err
			}
			for _, d := range z.Definitions {
				if err := restoreDefinition(created, d); err != nil {
					return errors.Wrapf(err, "zone %d of space %d", z.ID, sp.ID)
				}
			}
		}
		for _, dir := range sp.DataDirectories {
			start, err := parseBound(dir.Start)
			if err != nil {
				return err
			}
			end, err := parseBound(dir.End)
			if err != nil {
				return err
			}
			if err := space.AddDataDirectory(dir.URI, start, end); err != nil {
				return err
			}
		}
	}
	return nil
}

func restoreDefinition(z *zone.Zone, d Definition) error {
	start, err := parseBound(d.Start)
	if err != nil {
		return err
	}
	end, err := parseBound(d.End)
	if err != nil {
		return err
	}
	shapes := make([]geom.Shape, 0, len(d.Shapes))
	for _, encoded := range d.Shapes {
		shape, err := encoded.toShape()
		if err != nil {
			return err
		}
		shapes = append(shapes, shape)
	}
	_, err = z.AddDefinition(zone.NewGeometry(shapes), start, end)
	return err
}
