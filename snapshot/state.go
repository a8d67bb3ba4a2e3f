// Package snapshot saves and loads the configuration of an experiment:
// identities, body shapes, measurements and zones.
//
// Loading never trusts the file: everything is rebuilt through the same
// constructors used at runtime, so a state breaking an invariant is
// rejected.
package snapshot

import (
	"sort"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/geom"
	"github.com/LdDl/myrmidon-go/identity"
	"github.com/LdDl/myrmidon-go/zone"
)

// FormatVersion is the version written by Encode
const FormatVersion = 1

// ErrUnsupportedVersion is returned when decoding a state of another version
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// Point is a 2D point as [x, y]
type Point [2]float64

func fromPoint(p r2.Point) Point {
	return Point{p.X, p.Y}
}

func (p Point) toR2() r2.Point {
	return r2.Point{X: p[0], Y: p[1]}
}

// State is the serialized configuration of an experiment
type State struct {
	Version          int            `json:"version"`
	DefaultTagSize   float64        `json:"defaultTagSize"`
	TagFamily        string         `json:"tagFamily"`
	ShapeTypes       []NamedType    `json:"shapeTypes,omitempty"`
	MeasurementTypes []NamedType    `json:"measurementTypes,omitempty"`
	Individuals      []Individual   `json:"individuals,omitempty"`
	PoseEstimates    []PoseEstimate `json:"poseEstimates,omitempty"`
	Measurements     []Measurement  `json:"measurements,omitempty"`
	Spaces           []Space        `json:"spaces,omitempty"`
}

type NamedType struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

type Individual struct {
	ID              uint32           `json:"id"`
	Color           [3]uint8         `json:"color"`
	DisplayState    string           `json:"displayState"`
	Capsules        []TypedCapsule   `json:"capsules,omitempty"`
	Identifications []Identification `json:"identifications,omitempty"`
}

type Capsule struct {
	C1 Point   `json:"c1"`
	C2 Point   `json:"c2"`
	R1 float64 `json:"r1"`
	R2 float64 `json:"r2"`
}

type TypedCapsule struct {
	Type    uint32  `json:"type"`
	Capsule Capsule `json:"capsule"`
}

// Identification bounds are RFC 3339 times, absent when unbounded
type Identification struct {
	Tag             uint32  `json:"tag"`
	Start           *string `json:"start,omitempty"`
	End             *string `json:"end,omitempty"`
	Position        Point   `json:"position"`
	Angle           float64 `json:"angle"`
	UserDefinedPose bool    `json:"userDefinedPose,omitempty"`
	TagSize         float64 `json:"tagSize,omitempty"`
}

type PoseEstimate struct {
	Tag  uint32 `json:"tag"`
	Time string `json:"time"`
	Head Point  `json:"head"`
	Tail Point  `json:"tail"`
}

type Measurement struct {
	Tag       uint32  `json:"tag"`
	Time      string  `json:"time"`
	Type      uint32  `json:"type"`
	Start     Point   `json:"start"`
	End       Point   `json:"end"`
	TagSizePx float64 `json:"tagSizePx"`
}

type Space struct {
	ID              uint32          `json:"id"`
	Name            string          `json:"name"`
	Zones           []Zone          `json:"zones,omitempty"`
	DataDirectories []DataDirectory `json:"dataDirectories,omitempty"`
}

type DataDirectory struct {
	URI   string  `json:"uri"`
	Start *string `json:"start,omitempty"`
	End   *string `json:"end,omitempty"`
}

type Zone struct {
	ID          uint32       `json:"id"`
	Name        string       `json:"name"`
	Definitions []Definition `json:"definitions,omitempty"`
}

type Definition struct {
	Start  *string `json:"start,omitempty"`
	End    *string `json:"end,omitempty"`
	Shapes []Shape `json:"shapes,omitempty"`
}

// Shape kinds
const (
	KindCircle  = "circle"
	KindCapsule = "capsule"
	KindPolygon = "polygon"
)

// Shape is one of a circle, a capsule or a polygon, according to Kind
type Shape struct {
	Kind     string   `json:"kind"`
	Center   *Point   `json:"center,omitempty"`
	Radius   float64  `json:"radius,omitempty"`
	Capsule  *Capsule `json:"capsule,omitempty"`
	Vertices []Point  `json:"vertices,omitempty"`
}

func fromCapsule(c geom.Capsule) Capsule {
	return Capsule{C1: fromPoint(c.C1), C2: fromPoint(c.C2), R1: c.R1, R2: c.R2}
}

func (c Capsule) toCapsule() geom.Capsule {
	return geom.NewCapsule(c.C1.toR2(), c.C2.toR2(), c.R1, c.R2)
}

func fromShape(s geom.Shape) (Shape, error) {
	switch v := s.(type) {
	case geom.Circle:
		center := fromPoint(v.Center)
		return Shape{Kind: KindCircle, Center: &center, Radius: v.Radius}, nil
	case geom.Capsule:
		c := fromCapsule(v)
		return Shape{Kind: KindCapsule, Capsule: &c}, nil
	case geom.Polygon:
		res := Shape{Kind: KindPolygon, Vertices: make([]Point, 0, v.Size())}
		for _, p := range v.Vertices() {
			res.Vertices = append(res.Vertices, fromPoint(p))
		}
		return res, nil
	}
	return Shape{}, errors.Errorf("Unknown shape %T", s)
}

func (s Shape) toShape() (geom.Shape, error) {
	switch s.Kind {
	case KindCircle:
		if s.Center == nil {
			return nil, errors.New("Circle without center")
		}
		return geom.Circle{Center: s.Center.toR2(), Radius: s.Radius}, nil
	case KindCapsule:
		if s.Capsule == nil {
			return nil, errors.New("Capsule without definition")
		}
		return s.Capsule.toCapsule(), nil
	case KindPolygon:
		vertices := make([]r2.Point, len(s.Vertices))
		for i, v := range s.Vertices {
			vertices[i] = v.toR2()
		}
		return geom.NewPolygon(vertices...)
	}
	return nil, errors.Errorf("Unknown shape kind '%s'", s.Kind)
}

func formatBound(t *chrono.Time) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func parseBound(s *string) (*chrono.Time, error) {
	if s == nil {
		return nil, nil
	}
	t, err := chrono.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var displayStates = map[string]identity.DisplayState{
	identity.Visible.String(): identity.Visible,
	identity.Hidden.String():  identity.Hidden,
	identity.Solo.String():    identity.Solo,
}

func sortNamedTypes(list []NamedType) {
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
}

// Capture copies the state of a manager and a universe
func Capture(m *identity.Manager, u *zone.Universe) (*State, error) {
	s := &State{
		Version:        FormatVersion,
		DefaultTagSize: m.DefaultTagSize(),
		TagFamily:      m.TagFamily(),
	}
	for id, name := range m.ShapeTypes() {
		s.ShapeTypes = append(s.ShapeTypes, NamedType{ID: uint32(id), Name: name})
	}
	sortNamedTypes(s.ShapeTypes)
	for id, name := range m.MeasurementTypes() {
		if id == identity.HeadTailMeasurementTypeID {
			continue
		}
		s.MeasurementTypes = append(s.MeasurementTypes, NamedType{ID: uint32(id), Name: name})
	}
	sortNamedTypes(s.MeasurementTypes)

	for _, ind := range m.Individuals() {
		idents, err := m.IdentificationsFor(ind.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't capture individual %s", identity.FormatIndividualID(ind.ID))
		}
		res := Individual{
			ID:           uint32(ind.ID),
			Color:        [3]uint8{ind.DisplayColor.R, ind.DisplayColor.G, ind.DisplayColor.B},
			DisplayState: ind.DisplayState.String(),
		}
		for _, c := range ind.Capsules {
			res.Capsules = append(res.Capsules, TypedCapsule{Type: uint32(c.Type), Capsule: fromCapsule(c.Capsule)})
		}
		for _, ident := range idents {
			res.Identifications = append(res.Identifications, Identification{
				Tag:             uint32(ident.Tag),
				Start:           formatBound(ident.From),
				End:             formatBound(ident.Until),
				Position:        fromPoint(ident.IndividualPosition),
				Angle:           ident.IndividualAngle,
				UserDefinedPose: ident.UserDefinedPose,
				TagSize:         ident.TagSize,
			})
		}
		s.Individuals = append(s.Individuals, res)
	}

	for _, e := range m.AllPoseEstimates() {
		s.PoseEstimates = append(s.PoseEstimates, PoseEstimate{
			Tag:  uint32(e.Tag),
			Time: e.Time.String(),
			Head: fromPoint(e.Head),
			Tail: fromPoint(e.Tail),
		})
	}
	for _, ms := range m.Measurements() {
		s.Measurements = append(s.Measurements, Measurement{
			Tag:       uint32(ms.Tag),
			Time:      ms.Time.String(),
			Type:      uint32(ms.Type),
			Start:     fromPoint(ms.Start),
			End:       fromPoint(ms.End),
			TagSizePx: ms.TagSizePx,
		})
	}

	for _, space := range u.Spaces() {
		res := Space{ID: uint32(space.ID()), Name: space.Name()}
		for _, z := range space.Zones() {
			zres := Zone{ID: uint32(z.ID()), Name: z.Name()}
			for _, d := range z.Definitions() {
				def := Definition{Start: formatBound(d.Start()), End: formatBound(d.End())}
				for _, shape := range d.Geometry().Shapes() {
					encoded, err := fromShape(shape)
					if err != nil {
						return nil, errors.Wrapf(err, "Can't capture zone %d of space %d", z.ID(), space.ID())
					}
					def.Shapes = append(def.Shapes, encoded)
				}
				zres.Definitions = append(zres.Definitions, def)
			}
			res.Zones = append(res.Zones, zres)
		}
		for _, dir := range space.DataDirectories() {
			res.DataDirectories = append(res.DataDirectories, DataDirectory{
				URI:   dir.URI,
				Start: formatBound(dir.From),
				End:   formatBound(dir.Until),
			})
		}
		s.Spaces = append(s.Spaces, res)
	}
	return s, nil
}
