// Package identity maintains the mapping between physical tags and the
// individuals carrying them over time.
//
// The Manager enforces that a tag identifies at most one individual at any
// time, and that an individual carries at most one tag at any time. Every
// mutation that would break this is rejected and leaves the state
// unchanged. Compile produces an immutable view for concurrent frame
// processing.
package identity

import (
	"sort"
	"sync"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/LdDl/myrmidon-go/chrono"
	"github.com/LdDl/myrmidon-go/internal/arena"
	"github.com/LdDl/myrmidon-go/internal/logging"
)

// DefaultTagSize is the tag size used when an identification does not override it
const DefaultTagSize = 1.0

// Manager owns individuals, their identifications, body shapes and the
// measurements made on them. It is safe for concurrent use: mutations are
// serialized, reads run concurrently.
type Manager struct {
	mu sync.RWMutex

	individuals     *arena.Container[IndividualID, *individual]
	identifications map[IdentificationID]*Identification
	// identifications of a tag, sorted by start
	byTag                map[TagID][]*Identification
	nextIdentificationID IdentificationID

	shapeTypes *arena.Container[ShapeTypeID, string]

	measurementTypes *arena.Container[MeasurementTypeID, string]
	measurements     map[measurementKey]Measurement
	poseEstimates    map[TagID][]PoseEstimate

	defaultTagSize float64
	family         string
	families       FamilyTable

	logger zerolog.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used for mutations
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithDefaultTagSize sets the size of tags without per-identification override
func WithDefaultTagSize(size float64) Option {
	return func(m *Manager) {
		m.defaultTagSize = size
	}
}

// WithTagFamily sets the tag family used to convert measurements
func WithTagFamily(family string) Option {
	return func(m *Manager) {
		m.family = family
	}
}

// WithFamilyTable replaces the corner width ratio table
func WithFamilyTable(table FamilyTable) Option {
	return func(m *Manager) {
		m.families = table
	}
}

// NewManager creates an empty manager with the "head-tail" measurement type
func NewManager(options ...Option) *Manager {
	m := &Manager{
		individuals:          arena.New[IndividualID, *individual](),
		identifications:      make(map[IdentificationID]*Identification),
		byTag:                make(map[TagID][]*Identification),
		nextIdentificationID: 1,
		shapeTypes:           arena.New[ShapeTypeID, string](),
		measurementTypes:     arena.New[MeasurementTypeID, string](),
		measurements:         make(map[measurementKey]Measurement),
		poseEstimates:        make(map[TagID][]PoseEstimate),
		defaultTagSize:       DefaultTagSize,
		family:               DefaultFamily,
		families:             NewFamilyTable(),
		logger:               logging.Logger(),
	}
	for _, option := range options {
		option(m)
	}
	_, _ = m.measurementTypes.Create(HeadTailMeasurementTypeID, HeadTailMeasurementTypeName)
	return m
}

// DefaultTagSize returns the tag size used without per-identification override
func (m *Manager) DefaultTagSize() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultTagSize
}

// TagFamily returns the tag family used to convert measurements
func (m *Manager) TagFamily() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.family
}

// CreateIndividual creates an individual. A zero id picks the smallest unused id.
func (m *Manager) CreateIndividual(id IndividualID) (IndividualID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind := &individual{}
	created, err := m.individuals.Create(id, ind)
	if err != nil {
		return 0, errors.Wrapf(ErrAlreadyExists, "individual %s", FormatIndividualID(id))
	}
	ind.id = created
	ind.color = paletteColor(created)
	m.logger.Debug().Uint32("individual", uint32(created)).Msg("Individual created")
	return created, nil
}

// DeleteIndividual deletes an individual without identifications
func (m *Manager) DeleteIndividual(id IndividualID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	if len(ind.identifications) > 0 {
		return errors.Wrapf(ErrIndividualHasIdentifications, "individual %s has %d identification(s)",
			FormatIndividualID(id), len(ind.identifications))
	}
	if err := m.individuals.Delete(id); err != nil {
		return errors.Wrapf(ErrUnmanagedIndividual, "%s", FormatIndividualID(id))
	}
	m.logger.Debug().Uint32("individual", uint32(id)).Msg("Individual deleted")
	return nil
}

func (m *Manager) individual(id IndividualID) (*individual, error) {
	ind, ok := m.individuals.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnmanagedIndividual, "%s", FormatIndividualID(id))
	}
	return ind, nil
}

// Individual returns a copy of an individual
func (m *Manager) Individual(id IndividualID) (Individual, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ind, err := m.individual(id)
	if err != nil {
		return Individual{}, err
	}
	return ind.snapshot(), nil
}

// Individuals returns copies of all individuals ordered by id
func (m *Manager) Individuals() []Individual {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inds := m.individuals.Values()
	res := make([]Individual, len(inds))
	for i, ind := range inds {
		res[i] = ind.snapshot()
	}
	return res
}

// SetDisplayColor changes the display color of an individual
func (m *Manager) SetDisplayColor(id IndividualID, c Color) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	ind.color = c
	return nil
}

// SetDisplayState changes the display state of an individual
func (m *Manager) SetDisplayState(id IndividualID, s DisplayState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return err
	}
	ind.state = s
	return nil
}

// AddIdentification identifies individual with tag over [start, end). On
// overlap with another identification of the same tag or of the same
// individual an *OverlappingIdentificationError is returned and nothing
// changes.
func (m *Manager) AddIdentification(id IndividualID, tag TagID, start, end *chrono.Time) (Identification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ind, err := m.individual(id)
	if err != nil {
		return Identification{}, errors.Wrap(err, "Can't add identification")
	}
	if err := chrono.CheckRange(start, end); err != nil {
		return Identification{}, errors.Wrap(err, "Can't add identification")
	}
	ident := &Identification{
		ID:         m.nextIdentificationID,
		Tag:        tag,
		Individual: id,
		From:       chrono.CopyPtr(start),
		Until:      chrono.CopyPtr(end),
	}
	tagList := append(append([]*Identification(nil), m.byTag[tag]...), ident)
	if err := checkOverlap(tagList); err != nil {
		return Identification{}, err
	}
	indList := append(append([]*Identification(nil), ind.identifications...), ident)
	if err := checkOverlap(indList); err != nil {
		return Identification{}, err
	}
	m.nextIdentificationID++
	m.identifications[ident.ID] = ident
	m.byTag[tag] = tagList
	ind.identifications = indList
	m.updatePose(ident)
	m.logger.Debug().
		Uint64("identification", uint64(ident.ID)).
		Str("tag", FormatTagID(tag)).
		Uint32("individual", uint32(id)).
		Str("start", chrono.FormatStart(start)).
		Str("end", chrono.FormatEnd(end)).
		Msg("Identification added")
	return ident.clone(), nil
}

// checkOverlap sorts list by start and reports the first overlapping pair
func checkOverlap(list []*Identification) error {
	i, j, overlapping := chrono.SortAndCheckOverlap(list)
	if !overlapping {
		return nil
	}
	return &OverlappingIdentificationError{A: list[i].clone(), B: list[j].clone()}
}

// DeleteIdentification removes an identification
func (m *Manager) DeleteIdentification(id IdentificationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identifications[id]
	if !ok {
		return errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	m.byTag[ident.Tag] = removeIdentification(m.byTag[ident.Tag], ident)
	if len(m.byTag[ident.Tag]) == 0 {
		delete(m.byTag, ident.Tag)
	}
	if ind, ok := m.individuals.Get(ident.Individual); ok {
		ind.identifications = removeIdentification(ind.identifications, ident)
	}
	delete(m.identifications, id)
	m.logger.Debug().Uint64("identification", uint64(id)).Msg("Identification deleted")
	return nil
}

func removeIdentification(list []*Identification, ident *Identification) []*Identification {
	res := make([]*Identification, 0, len(list))
	for _, other := range list {
		if other != ident {
			res = append(res, other)
		}
	}
	return res
}

// Identification returns a copy of an identification
func (m *Manager) Identification(id IdentificationID) (Identification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ident, ok := m.identifications[id]
	if !ok {
		return Identification{}, errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	return ident.clone(), nil
}

// SetStart moves the start of an identification, reverting on overlap
func (m *Manager) SetStart(id IdentificationID, start *chrono.Time) error {
	return m.setRange(id, func(ident *Identification) (*chrono.Time, *chrono.Time) {
		return start, ident.Until
	})
}

// SetEnd moves the end of an identification, reverting on overlap
func (m *Manager) SetEnd(id IdentificationID, end *chrono.Time) error {
	return m.setRange(id, func(ident *Identification) (*chrono.Time, *chrono.Time) {
		return ident.From, end
	})
}

func (m *Manager) setRange(id IdentificationID, bounds func(*Identification) (*chrono.Time, *chrono.Time)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identifications[id]
	if !ok {
		return errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	start, end := bounds(ident)
	if err := chrono.CheckRange(start, end); err != nil {
		return err
	}
	ind, err := m.individual(ident.Individual)
	if err != nil {
		return err
	}
	oldStart, oldEnd := ident.From, ident.Until
	ident.From, ident.Until = chrono.CopyPtr(start), chrono.CopyPtr(end)
	err = checkOverlap(m.byTag[ident.Tag])
	if err == nil {
		err = checkOverlap(ind.identifications)
	}
	if err != nil {
		ident.From, ident.Until = oldStart, oldEnd
		chrono.SortRanged(m.byTag[ident.Tag])
		chrono.SortRanged(ind.identifications)
		return err
	}
	m.updatePose(ident)
	return nil
}

// SetTagSize overrides the tag size of an identification. Zero restores the default.
func (m *Manager) SetTagSize(id IdentificationID, size float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identifications[id]
	if !ok {
		return errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	if size < 0 {
		return errors.Errorf("Tag size must be positive, got %g", size)
	}
	ident.TagSize = size
	return nil
}

// SetIndividualPose sets the pose of the individual in the tag frame
// explicitly. Pose estimates are ignored until ClearIndividualPose.
func (m *Manager) SetIndividualPose(id IdentificationID, position r2.Point, angle float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identifications[id]
	if !ok {
		return errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	ident.IndividualPosition = position
	ident.IndividualAngle = angle
	ident.UserDefinedPose = true
	return nil
}

// ClearIndividualPose recomputes the pose from pose estimates
func (m *Manager) ClearIndividualPose(id IdentificationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ident, ok := m.identifications[id]
	if !ok {
		return errors.Wrapf(ErrUnmanagedIdentification, "%d", id)
	}
	ident.UserDefinedPose = false
	ident.IndividualPosition = r2.Point{}
	ident.IndividualAngle = 0
	m.updatePose(ident)
	return nil
}

// IdentificationsForTag returns the identifications of a tag sorted by start
func (m *Manager) IdentificationsForTag(tag TagID) ([]Identification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list, ok := m.byTag[tag]
	if !ok {
		return nil, errors.Wrapf(ErrUnmanagedTag, "%s", FormatTagID(tag))
	}
	return cloneAll(list), nil
}

// IdentificationsFor returns the identifications of an individual sorted by start
func (m *Manager) IdentificationsFor(id IndividualID) ([]Identification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ind, err := m.individual(id)
	if err != nil {
		return nil, err
	}
	return cloneAll(ind.identifications), nil
}

func cloneAll(list []*Identification) []Identification {
	res := make([]Identification, len(list))
	for i, ident := range list {
		res[i] = ident.clone()
	}
	return res
}

// Identify returns the identification of tag valid at t
func (m *Manager) Identify(tag TagID, t chrono.Time) (Identification, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ident := identify(m.byTag[tag], t)
	if ident == nil {
		return Identification{}, false
	}
	return ident.clone(), true
}

// identify searches a list sorted by start
func identify(list []*Identification, t chrono.Time) *Identification {
	idx := sort.Search(len(list), func(i int) bool {
		s := list[i].From
		return s != nil && s.After(t)
	})
	if idx == 0 {
		return nil
	}
	if ident := list[idx-1]; chrono.IsValid(ident, t) {
		return ident
	}
	return nil
}

// FreeRangeContaining returns the largest range around t where tag
// identifies nobody. It fails with ErrTagInUse if tag is used at t.
func (m *Manager) FreeRangeContaining(tag TagID, t chrono.Time) (start, end *chrono.Time, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byTag[tag]
	end, err = chrono.UpperUnvalidBound(list, t)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrTagInUse, "%s at %s", FormatTagID(tag), t)
	}
	start, err = chrono.LowerUnvalidBound(list, t)
	if err != nil {
		return nil, nil, errors.Wrapf(ErrTagInUse, "%s at %s", FormatTagID(tag), t)
	}
	return start, end, nil
}

// UpperUnidentifiedBound returns the next time tag starts identifying an
// individual after t, nil if never.
func (m *Manager) UpperUnidentifiedBound(tag TagID, t chrono.Time) (*chrono.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, err := chrono.UpperUnvalidBound(m.byTag[tag], t)
	if err != nil {
		return nil, errors.Wrapf(ErrTagInUse, "%s at %s", FormatTagID(tag), t)
	}
	return res, nil
}

// LowerUnidentifiedBound returns the last time tag stopped identifying an
// individual before t, nil if never.
func (m *Manager) LowerUnidentifiedBound(tag TagID, t chrono.Time) (*chrono.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res, err := chrono.LowerUnvalidBound(m.byTag[tag], t)
	if err != nil {
		return nil, errors.Wrapf(ErrTagInUse, "%s at %s", FormatTagID(tag), t)
	}
	return res, nil
}

// UseCount returns the number of identifications using tag
func (m *Manager) UseCount(tag TagID) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byTag[tag])
}

// Tags returns all tags with at least one identification, in increasing order
func (m *Manager) Tags() []TagID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]TagID, 0, len(m.byTag))
	for tag := range m.byTag {
		res = append(res, tag)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}
