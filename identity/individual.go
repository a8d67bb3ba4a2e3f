package identity

import (
	"fmt"

	"github.com/LdDl/myrmidon-go/geom"
)

// IndividualID identifies an individual. Valid ids start at 1.
type IndividualID uint32

// ShapeTypeID identifies a body part type such as "head" or "body"
type ShapeTypeID uint32

// DisplayState controls how an individual is shown by viewers
type DisplayState int

const (
	Visible DisplayState = iota
	Hidden
	Solo
)

func (s DisplayState) String() string {
	switch s {
	case Visible:
		return "visible"
	case Hidden:
		return "hidden"
	case Solo:
		return "solo"
	}
	return fmt.Sprintf("DisplayState(%d)", int(s))
}

// Color is an RGB display color
type Color struct {
	R, G, B uint8
}

// TypedCapsule is a body part outline in the individual reference frame
type TypedCapsule struct {
	Type    ShapeTypeID
	Capsule geom.Capsule
}

// Individual is a copy of an individual's state as held by the Manager
type Individual struct {
	ID IndividualID
	// Identifications of the individual, sorted by start
	Identifications []IdentificationID
	Capsules        []TypedCapsule
	DisplayColor    Color
	DisplayState    DisplayState
}

// FormatIndividualID formats an individual id with leading zeros
func FormatIndividualID(id IndividualID) string {
	return fmt.Sprintf("%03d", uint32(id))
}

type individual struct {
	id              IndividualID
	identifications []*Identification
	capsules        []TypedCapsule
	color           Color
	state           DisplayState
}

func (ind *individual) snapshot() Individual {
	res := Individual{
		ID:              ind.id,
		Identifications: make([]IdentificationID, len(ind.identifications)),
		Capsules:        make([]TypedCapsule, len(ind.capsules)),
		DisplayColor:    ind.color,
		DisplayState:    ind.state,
	}
	for i, ident := range ind.identifications {
		res.Identifications[i] = ident.ID
	}
	copy(res.Capsules, ind.capsules)
	return res
}

// DefaultPalette gives new individuals distinct display colors
var DefaultPalette = []Color{
	{230, 159, 0},
	{86, 180, 233},
	{0, 158, 115},
	{240, 228, 66},
	{0, 114, 178},
	{213, 94, 0},
	{204, 121, 167},
}

func paletteColor(id IndividualID) Color {
	return DefaultPalette[int(id-1)%len(DefaultPalette)]
}
