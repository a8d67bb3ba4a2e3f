package chrono

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Duration is a signed span of time in nanoseconds.
type Duration int64

const (
	Nanosecond  Duration = 1
	Microsecond          = 1000 * Nanosecond
	Millisecond          = 1000 * Microsecond
	Second               = 1000 * Millisecond
	Minute               = 60 * Second
	Hour                 = 60 * Minute
)

// ErrOverflow is returned when time arithmetic leaves the representable range.
var ErrOverflow = errors.New("time arithmetic overflow")

// ParseDuration parses a compound duration such as "3h30m", "-2m3.4s" or
// "1h2m3s4ms5us6ns". Valid units are ns, us, µs, μs, ms, s, m and h.
func ParseDuration(s string) (Duration, error) {
	if s == "" {
		return 0, errors.New("Can't parse empty duration")
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "Can't parse duration '%s'", s)
	}
	return Duration(d), nil
}

// FromStd converts a standard library duration.
func FromStd(d time.Duration) Duration {
	return Duration(d)
}

// Std returns the standard library representation of the duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Add returns d+o, failing instead of wrapping around
func (d Duration) Add(o Duration) (Duration, error) {
	s, ok := addInt64(int64(d), int64(o))
	if !ok {
		return 0, errors.Wrapf(ErrOverflow, "%s + %s", d, o)
	}
	return Duration(s), nil
}

// Mul returns d*k, failing instead of wrapping around
func (d Duration) Mul(k int64) (Duration, error) {
	m, ok := mulInt64(int64(d), k)
	if !ok {
		return 0, errors.Wrapf(ErrOverflow, "%s * %d", d, k)
	}
	return Duration(m), nil
}

// Hours returns the duration as a floating point number of hours
func (d Duration) Hours() float64 {
	return float64(d) / float64(Hour)
}

// Minutes returns the duration as a floating point number of minutes
func (d Duration) Minutes() float64 {
	return float64(d) / float64(Minute)
}

// Seconds returns the duration as a floating point number of seconds
func (d Duration) Seconds() float64 {
	return float64(d) / float64(Second)
}

// Milliseconds returns the duration as a floating point number of milliseconds
func (d Duration) Milliseconds() float64 {
	return float64(d) / float64(Millisecond)
}

// Microseconds returns the duration as a floating point number of microseconds
func (d Duration) Microseconds() float64 {
	return float64(d) / float64(Microsecond)
}

// Nanoseconds returns the duration as an integer nanosecond count
func (d Duration) Nanoseconds() int64 {
	return int64(d)
}

// String formats the duration like "1h2m3.5s"
func (d Duration) String() string {
	return time.Duration(d).String()
}

func addInt64(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

func subInt64(a, b int64) (int64, bool) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, false
	}
	return a - b, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}
