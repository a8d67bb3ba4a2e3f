package identity

import (
	"fmt"

	"github.com/golang/geo/r2"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/geom"
)

// IdentificationID identifies an Identification within a Manager
type IdentificationID uint64

// TagID is the code decoded from a physical tag
type TagID uint32

// Identification assigns a tag to an individual over [From, Until).
//
// IndividualPosition and IndividualAngle place the individual's reference
// frame in the tag frame: a point p of the body frame is found at
// Rot(IndividualAngle)·p + IndividualPosition in the tag frame.
type Identification struct {
	ID         IdentificationID
	Tag        TagID
	Individual IndividualID
	From       *chrono.Time
	Until      *chrono.Time

	IndividualPosition r2.Point
	IndividualAngle    float64
	// TagSize overrides the default tag size when non-zero
	TagSize float64
	// UserDefinedPose is set when the pose was given explicitly and must
	// not be recomputed from pose estimates
	UserDefinedPose bool
}

func (i Identification) Start() *chrono.Time {
	return i.From
}

func (i Identification) End() *chrono.Time {
	return i.Until
}

// Pose returns the individual pose for a tag seen at tagPosition with tagAngle
func (i Identification) Pose(tagPosition r2.Point, tagAngle float64) (r2.Point, float64) {
	tag := geom.NewIsometry(tagAngle, tagPosition)
	body := tag.Compose(geom.NewIsometry(i.IndividualAngle, i.IndividualPosition))
	return body.Translation, geom.NormalizeAngle(body.Angle)
}

func (i Identification) String() string {
	return fmt.Sprintf("Identification{ID: %d, Tag: %s ↦ %d, [%s;%s)}",
		i.ID, FormatTagID(i.Tag), i.Individual, chrono.FormatStart(i.From), chrono.FormatEnd(i.Until))
}

func (i Identification) clone() Identification {
	i.From = chrono.CopyPtr(i.From)
	i.Until = chrono.CopyPtr(i.Until)
	return i
}

// FormatTagID formats a tag the way it is printed on experiment sheets
func FormatTagID(tag TagID) string {
	return fmt.Sprintf("0x%03x", uint32(tag))
}
