package chrono

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromUnixNormalizes(t *testing.T) {
	data := []struct {
		sec, nsec   int64
		wantSec     int64
		wantNanosec int32
	}{
		{0, 0, 0, 0},
		{1, 1500000000, 2, 500000000},
		{1, -1, 0, 999999999},
		{-1, -1000000001, -3, 999999999},
	}
	for _, tc := range data {
		tm, err := FromUnix(tc.sec, tc.nsec)
		require.NoError(t, err)
		sec, nsec := tm.Unix()
		assert.Equal(t, tc.wantSec, sec)
		assert.Equal(t, tc.wantNanosec, nsec)
	}
	_, err := FromUnix(math.MaxInt64, 2e9)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestTimeAddSub(t *testing.T) {
	base := MustUnix(1000, 999999999)
	later, err := base.Add(2 * Nanosecond)
	require.NoError(t, err)
	sec, nsec := later.Unix()
	assert.Equal(t, int64(1001), sec)
	assert.Equal(t, int32(1), nsec)

	earlier, err := base.Add(-1500 * Millisecond)
	require.NoError(t, err)
	sec, nsec = earlier.Unix()
	assert.Equal(t, int64(999), sec)
	assert.Equal(t, int32(499999999), nsec)

	d, err := later.Sub(earlier)
	require.NoError(t, err)
	assert.Equal(t, 1500*Millisecond+2*Nanosecond, d)

	d, err = earlier.Sub(later)
	require.NoError(t, err)
	assert.Equal(t, -(1500*Millisecond + 2*Nanosecond), d)
}

func TestTimeOverflow(t *testing.T) {
	_, err := MustUnix(math.MaxInt64, 0).Add(Second)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = MustUnix(math.MinInt64, 0).Add(-Second)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = MustUnix(math.MaxInt64, 0).Sub(MustUnix(0, 0))
	assert.ErrorIs(t, err, ErrOverflow)

	withMono, err := FromWallAndMonotonic(0, 0, 10, 42)
	require.NoError(t, err)
	_, err = withMono.Add(-11)
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = withMono.Add(math.MinInt64)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMonotonicComparison(t *testing.T) {
	// Wall clocks disagree with the monotonic readings, as after a clock jump
	a, err := FromWallAndMonotonic(100, 0, 5000, 1)
	require.NoError(t, err)
	b, err := FromWallAndMonotonic(50, 0, 7000, 1)
	require.NoError(t, err)

	assert.True(t, a.Before(b))
	assert.False(t, a.After(b))
	d, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, Duration(2000), d)

	// Different clocks fall back to the wall clock
	c, err := FromWallAndMonotonic(50, 0, 7000, 2)
	require.NoError(t, err)
	assert.True(t, a.After(c))
	d, err = c.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, -50*Second, d)

	// A single monotonic reading is not enough
	assert.True(t, a.After(b.WallOnly()))
	assert.True(t, b.Equal(MustUnix(50, 0)))
}

func TestNow(t *testing.T) {
	a := Now()
	b := Now()
	assert.True(t, a.HasMonotonic())
	_, id, ok := a.Monotonic()
	require.True(t, ok)
	assert.Equal(t, ProcessMonoclockID(), id)
	assert.False(t, b.Before(a))
	d, err := b.Sub(a)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(d), int64(0))
}

func TestParseAndFormat(t *testing.T) {
	tm, err := Parse("2019-11-02T22:03:21.002+01:00")
	require.NoError(t, err)
	assert.Equal(t, "2019-11-02T21:03:21.002Z", tm.String())
	assert.True(t, tm.ToTime().Equal(time.Date(2019, 11, 2, 21, 3, 21, 2000000, time.UTC)))

	_, err = Parse("yesterday")
	assert.Error(t, err)
}

func TestRound(t *testing.T) {
	tm := MustUnix(10, 123456789)
	r := tm.Round(Millisecond)
	sec, nsec := r.Unix()
	assert.Equal(t, int64(10), sec)
	assert.Equal(t, int32(123000000), nsec)

	r = MustUnix(10, 999999999).Round(Millisecond)
	sec, nsec = r.Unix()
	assert.Equal(t, int64(11), sec)
	assert.Equal(t, int32(0), nsec)

	r = MustUnix(90, 0).Round(Minute)
	sec, _ = r.Unix()
	assert.Equal(t, int64(120), sec)

	r = MustUnix(89, 999999999).Round(Minute)
	sec, _ = r.Unix()
	assert.Equal(t, int64(60), sec)

	// multiples are counted from the epoch for any duration
	step := 700 * Millisecond
	data := []struct {
		sec, nsec         int64
		wantSec, wantNsec int64
	}{
		{0, 0, 0, 0},
		{0, 349999999, 0, 0},
		{0, 350000000, 0, 700000000},
		{1, 0, 0, 700000000},
		{1, 50000000, 1, 400000000},
		{-1, 0, -1, 300000000},
	}
	for _, c := range data {
		r = MustUnix(c.sec, c.nsec).Round(step)
		sec, nsec = r.Unix()
		assert.Equal(t, c.wantSec, sec, "%d.%09d", c.sec, c.nsec)
		assert.Equal(t, int32(c.wantNsec), nsec, "%d.%09d", c.sec, c.nsec)
	}

	withMono, err := FromWallAndMonotonic(1, 0, 12, 3)
	require.NoError(t, err)
	assert.False(t, withMono.Round(Second).HasMonotonic())
}

func TestBounds(t *testing.T) {
	assert.Equal(t, "-∞", FormatStart(nil))
	assert.Equal(t, "+∞", FormatEnd(nil))
	assert.True(t, EqualBounds(nil, nil))
	assert.False(t, EqualBounds(nil, Ptr(MustUnix(0, 0))))
	assert.True(t, EqualBounds(Ptr(MustUnix(3, 0)), Ptr(MustUnix(3, 0))))
	p := Ptr(MustUnix(3, 0))
	c := CopyPtr(p)
	assert.NotSame(t, p, c)
	assert.True(t, c.Equal(*p))
}
