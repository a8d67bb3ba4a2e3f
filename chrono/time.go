package chrono

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MonoclockID identifies the monotonic clock a Time was captured from.
// Monotonic values are only comparable between Times sharing the same id.
type MonoclockID uint32

const nanosPerSecond = int64(time.Second)

var (
	processStart  = time.Now()
	processMonoID = MonoclockID(uuid.New().ID())
)

// ProcessMonoclockID returns the id tagging monotonic values produced by Now in this process
func ProcessMonoclockID() MonoclockID {
	return processMonoID
}

// Time is a wall clock timestamp with an optional monotonic reading.
// The zero value is the Unix epoch without monotonic reading.
type Time struct {
	sec     int64
	nsec    int32
	mono    uint64
	monoID  MonoclockID
	hasMono bool
}

// Now returns the current time with a monotonic reading of this process
func Now() Time {
	wall := time.Now()
	return Time{
		sec:     wall.Unix(),
		nsec:    int32(wall.Nanosecond()),
		mono:    uint64(wall.Sub(processStart)),
		monoID:  processMonoID,
		hasMono: true,
	}
}

// FromTime converts a standard library time. Only the wall clock is kept.
func FromTime(t time.Time) Time {
	return Time{sec: t.Unix(), nsec: int32(t.Nanosecond())}
}

// FromUnix builds a wall clock Time, normalizing nsec into [0,1e9).
func FromUnix(sec, nsec int64) (Time, error) {
	carry := nsec / nanosPerSecond
	nsec %= nanosPerSecond
	if nsec < 0 {
		nsec += nanosPerSecond
		carry--
	}
	s, ok := addInt64(sec, carry)
	if !ok {
		return Time{}, errors.Wrap(ErrOverflow, "wall clock")
	}
	return Time{sec: s, nsec: int32(nsec)}, nil
}

// FromWallAndMonotonic builds a Time carrying a monotonic reading from clock id.
func FromWallAndMonotonic(sec, nsec int64, mono uint64, id MonoclockID) (Time, error) {
	t, err := FromUnix(sec, nsec)
	if err != nil {
		return Time{}, err
	}
	t.mono = mono
	t.monoID = id
	t.hasMono = true
	return t, nil
}

// MustUnix is like FromUnix but panics on overflow. Intended for constants and tests.
func MustUnix(sec, nsec int64) Time {
	t, err := FromUnix(sec, nsec)
	if err != nil {
		panic(err)
	}
	return t
}

// Parse reads an RFC 3339 timestamp.
func Parse(s string) (Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Time{}, errors.Wrapf(err, "Can't parse time '%s'", s)
	}
	return FromTime(t), nil
}

// Unix returns wall clock seconds and nanoseconds
func (t Time) Unix() (int64, int32) {
	return t.sec, t.nsec
}

// Monotonic returns the monotonic reading and its clock id, if any
func (t Time) Monotonic() (uint64, MonoclockID, bool) {
	return t.mono, t.monoID, t.hasMono
}

// HasMonotonic reports whether t carries a monotonic reading
func (t Time) HasMonotonic() bool {
	return t.hasMono
}

// WallOnly returns t stripped of its monotonic reading
func (t Time) WallOnly() Time {
	return Time{sec: t.sec, nsec: t.nsec}
}

// ToTime converts to a standard library time in UTC.
func (t Time) ToTime() time.Time {
	return time.Unix(t.sec, int64(t.nsec)).UTC()
}

func (t Time) sameClock(o Time) bool {
	return t.hasMono && o.hasMono && t.monoID == o.monoID
}

// Add returns t+d. Both the wall clock and the monotonic reading are shifted.
func (t Time) Add(d Duration) (Time, error) {
	res := t
	if t.hasMono {
		switch {
		case d >= 0:
			if t.mono > math.MaxUint64-uint64(d) {
				return Time{}, errors.Wrapf(ErrOverflow, "monotonic clock %s + %s", t, d)
			}
			res.mono = t.mono + uint64(d)
		default:
			// -d overflows for MinInt64, uint64 conversion handles it
			neg := uint64(-(d + 1)) + 1
			if neg > t.mono {
				return Time{}, errors.Wrapf(ErrOverflow, "monotonic clock %s - %s", t, -d)
			}
			res.mono = t.mono - neg
		}
	}
	sec := int64(d) / nanosPerSecond
	nsec := int64(t.nsec) + int64(d)%nanosPerSecond
	if nsec >= nanosPerSecond {
		nsec -= nanosPerSecond
		sec++
	} else if nsec < 0 {
		nsec += nanosPerSecond
		sec--
	}
	s, ok := addInt64(t.sec, sec)
	if !ok {
		return Time{}, errors.Wrapf(ErrOverflow, "wall clock %s + %s", t, d)
	}
	res.sec = s
	res.nsec = int32(nsec)
	return res, nil
}

// Sub returns t-o. Monotonic readings are used when both come from the same clock.
func (t Time) Sub(o Time) (Duration, error) {
	if t.sameClock(o) {
		if t.mono >= o.mono {
			diff := t.mono - o.mono
			if diff > math.MaxInt64 {
				return 0, errors.Wrap(ErrOverflow, "monotonic difference")
			}
			return Duration(diff), nil
		}
		diff := o.mono - t.mono
		if diff > uint64(math.MaxInt64)+1 {
			return 0, errors.Wrap(ErrOverflow, "monotonic difference")
		}
		return Duration(-int64(diff - 1) - 1), nil
	}
	sec, ok := subInt64(t.sec, o.sec)
	if !ok {
		return 0, errors.Wrap(ErrOverflow, "wall clock difference")
	}
	ns, ok := mulInt64(sec, nanosPerSecond)
	if !ok {
		return 0, errors.Wrap(ErrOverflow, "wall clock difference")
	}
	res, ok := addInt64(ns, int64(t.nsec)-int64(o.nsec))
	if !ok {
		return 0, errors.Wrap(ErrOverflow, "wall clock difference")
	}
	return Duration(res), nil
}

func (t Time) compare(o Time) int {
	if t.sameClock(o) {
		switch {
		case t.mono < o.mono:
			return -1
		case t.mono > o.mono:
			return 1
		}
		return 0
	}
	switch {
	case t.sec < o.sec:
		return -1
	case t.sec > o.sec:
		return 1
	case t.nsec < o.nsec:
		return -1
	case t.nsec > o.nsec:
		return 1
	}
	return 0
}

// Before reports whether t is strictly before o
func (t Time) Before(o Time) bool {
	return t.compare(o) < 0
}

// After reports whether t is strictly after o
func (t Time) After(o Time) bool {
	return t.compare(o) > 0
}

// Equal reports whether t and o denote the same instant
func (t Time) Equal(o Time) bool {
	return t.compare(o) == 0
}

// Round rounds the wall clock to the nearest multiple of d since the Unix
// epoch, halfway values rounding up. The monotonic reading is dropped.
// A result beyond the representable range is rounded down instead.
func (t Time) Round(d Duration) Time {
	res := t.WallOnly()
	if d <= 0 {
		return res
	}
	r := Duration(t.remainder(uint64(d)))
	down, err := res.Add(-r)
	if err != nil {
		return res
	}
	if 2*uint64(r) < uint64(d) {
		return down
	}
	up, err := down.Add(d)
	if err != nil {
		return down
	}
	return up
}

// remainder returns the wall clock nanoseconds since the epoch modulo d
func (t Time) remainder(d uint64) uint64 {
	sec := t.sec % int64(d)
	if sec < 0 {
		sec += int64(d)
	}
	hi, lo := bits.Mul64(uint64(sec), uint64(nanosPerSecond))
	lo, carry := bits.Add64(lo, uint64(t.nsec), 0)
	return bits.Rem64(hi+carry, lo, d)
}

// String formats the wall clock as RFC 3339 in UTC
func (t Time) String() string {
	return t.ToTime().Format(time.RFC3339Nano)
}

// DebugString also prints the monotonic reading
func (t Time) DebugString() string {
	if !t.hasMono {
		return t.String()
	}
	return fmt.Sprintf("%s (mono: %d@%08x)", t, t.mono, uint32(t.monoID))
}

// CopyPtr returns a copy of an optional bound
func CopyPtr(t *Time) *Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Ptr returns a pointer to a copy of t
func Ptr(t Time) *Time {
	return &t
}

// FormatStart formats an optional start bound, nil being -∞
func FormatStart(t *Time) string {
	if t == nil {
		return "-∞"
	}
	return t.String()
}

// FormatEnd formats an optional end bound, nil being +∞
func FormatEnd(t *Time) string {
	if t == nil {
		return "+∞"
	}
	return t.String()
}

// EqualBounds reports whether two optional bounds are both unbounded or equal instants
func EqualBounds(a, b *Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
