package zone

import "github.com/pkg/errors"

var (
	// ErrUnknownSpace is returned for a space id absent from the universe or the timeline
	ErrUnknownSpace = errors.New("unknown space")
	// ErrUnknownZone is returned for a zone id absent from its space
	ErrUnknownZone = errors.New("unknown zone")
	// ErrUnknownDataDirectory is returned for a data directory URI not registered in the universe
	ErrUnknownDataDirectory = errors.New("unknown data directory")
	// ErrInvalidName is returned for empty names
	ErrInvalidName = errors.New("invalid name")
	// ErrNameInUse is returned when a space name is already taken
	ErrNameInUse = errors.New("name already in use")
	// ErrURIInUse is returned when a data directory URI is already registered
	ErrURIInUse = errors.New("data directory already registered")
	// ErrSpaceNotEmpty is returned when deleting a space that still has zones or data
	ErrSpaceNotEmpty = errors.New("space is not empty")
	// ErrOverlappingDefinition is returned when two definitions of a zone overlap in time
	ErrOverlappingDefinition = errors.New("overlapping zone definitions")
	// ErrOverlappingDataDirectory is returned when two data directories of a space overlap in time
	ErrOverlappingDataDirectory = errors.New("overlapping data directories")
	// ErrNoFreeRegion is returned when a zone is defined for all times
	ErrNoFreeRegion = errors.New("no free time region")
)
