package identity

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnmanagedIndividual is returned for an individual id unknown to the manager
	ErrUnmanagedIndividual = errors.New("unmanaged individual")
	// ErrUnmanagedIdentification is returned for an identification id unknown to the manager
	ErrUnmanagedIdentification = errors.New("unmanaged identification")
	// ErrUnmanagedTag is returned for a tag without any identification
	ErrUnmanagedTag = errors.New("unmanaged tag")
	// ErrUnmanagedShapeType is returned for an unknown shape type
	ErrUnmanagedShapeType = errors.New("unmanaged shape type")
	// ErrUnmanagedMeasurementType is returned for an unknown measurement type
	ErrUnmanagedMeasurementType = errors.New("unmanaged measurement type")
	// ErrAlreadyExists is returned when creating an object under a used id
	ErrAlreadyExists = errors.New("already exists")
	// ErrIndividualHasIdentifications is returned when deleting an individual still identified
	ErrIndividualHasIdentifications = errors.New("individual still has identifications")
	// ErrTagInUse is returned when a tag already identifies an individual at the requested time
	ErrTagInUse = errors.New("tag in use")
	// ErrShapeTypeInUse is returned when deleting a shape type used by a capsule
	ErrShapeTypeInUse = errors.New("shape type in use")
	// ErrMeasurementTypeInUse is returned when deleting a measurement type with measurements
	ErrMeasurementTypeInUse = errors.New("measurement type in use")
	// ErrOverlapping is the sentinel matched by OverlappingIdentificationError
	ErrOverlapping = errors.New("overlapping identifications")
	// ErrInvalidPoseEstimate is returned for head and tail too close to define an orientation
	ErrInvalidPoseEstimate = errors.New("invalid pose estimate")
	// ErrUnknownFamily is returned for tag families missing from the FamilyTable
	ErrUnknownFamily = errors.New("unknown tag family")
)

// OverlappingIdentificationError names the two identifications that would
// overlap in time, either on the same tag or on the same individual.
type OverlappingIdentificationError struct {
	A Identification
	B Identification
}

func (e *OverlappingIdentificationError) Error() string {
	return fmt.Sprintf("%s and %s overlap in time", e.A, e.B)
}

func (e *OverlappingIdentificationError) Unwrap() error {
	return ErrOverlapping
}
