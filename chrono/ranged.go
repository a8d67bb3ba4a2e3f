package chrono

import (
	"sort"

	"github.com/pkg/errors"
)

// Ranged is anything valid over the half-open range [Start(), End()).
// A nil Start means -∞ and a nil End means +∞.
type Ranged interface {
	Start() *Time
	End() *Time
}

// ErrValidAtTime is returned when searching for a bound around a time that
// is already covered by a range.
var ErrValidAtTime = errors.New("time is covered by a range")

// ErrEmptyRange is returned for a range whose end is not after its start
var ErrEmptyRange = errors.New("range end is not after its start")

// CheckRange fails when both bounds are set and end is not after start
func CheckRange(start, end *Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return errors.Wrapf(ErrEmptyRange, "[%s;%s)", start, end)
	}
	return nil
}

// IsValid reports whether t lies in [start, end)
func IsValid(r Ranged, t Time) bool {
	if s := r.Start(); s != nil && t.Before(*s) {
		return false
	}
	if e := r.End(); e != nil && !t.Before(*e) {
		return false
	}
	return true
}

// CompareStart orders two optional start bounds, nil first.
func CompareStart(a, b *Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.compare(*b)
}

// SortRanged stably sorts items by start, unbounded starts first.
func SortRanged[T Ranged](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return CompareStart(items[i].Start(), items[j].Start()) < 0
	})
}

// SortAndCheckOverlap sorts items by start and reports the first adjacent
// pair that overlaps. Ranges that only touch (end == next start) do not
// overlap.
func SortAndCheckOverlap[T Ranged](items []T) (prev, next int, overlapping bool) {
	SortRanged(items)
	for i := 1; i < len(items); i++ {
		if overlaps(items[i-1], items[i]) {
			return i - 1, i, true
		}
	}
	return -1, -1, false
}

// overlaps expects a to start no later than b
func overlaps(a, b Ranged) bool {
	bs := b.Start()
	ae := a.End()
	if bs == nil || ae == nil {
		return true
	}
	return ae.After(*bs)
}

// UpperUnvalidBound returns the earliest start after t, nil when no range
// starts after t.
func UpperUnvalidBound[T Ranged](items []T, t Time) (*Time, error) {
	var best *Time
	for _, item := range items {
		if IsValid(item, t) {
			return nil, errors.Wrapf(ErrValidAtTime, "%s", t)
		}
		s := item.Start()
		if s == nil || !s.After(t) {
			continue
		}
		if best == nil || s.Before(*best) {
			best = s
		}
	}
	return CopyPtr(best), nil
}

// LowerUnvalidBound returns the latest end not after t, nil when no range
// ends before t.
func LowerUnvalidBound[T Ranged](items []T, t Time) (*Time, error) {
	var best *Time
	for _, item := range items {
		if IsValid(item, t) {
			return nil, errors.Wrapf(ErrValidAtTime, "%s", t)
		}
		e := item.End()
		if e == nil || e.After(t) {
			continue
		}
		if best == nil || e.After(*best) {
			best = e
		}
	}
	return CopyPtr(best), nil
}
