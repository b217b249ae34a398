package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/arfinch/quantcore/calendar"
	"github.com/arfinch/quantcore/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestNewRejectsMismatchedLengths(t *testing.T) {
	_, err := New([]time.Time{time.Now()}, []float64{1, 2}, "x")
	require.Error(t, err)
	rerr, ok := err.(*result.Error)
	require.True(t, ok)
	assert.Equal(t, result.InvalidInput, rerr.Kind)
}

func TestNewRejectsNonAscending(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := New([]time.Time{base, base}, []float64{1, 2}, "x")
	require.Error(t, err)

	_, err = New([]time.Time{base.AddDate(0, 0, 1), base}, []float64{1, 2}, "x")
	require.Error(t, err)
}

func TestAtTime(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := days(base, 3)
	s, err := New(ts, []float64{1, 2, 3}, "s")
	require.NoError(t, err)

	v, err := s.AtTime(ts[1])
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	_, err = s.AtTime(base.AddDate(0, 0, 10))
	require.Error(t, err)
	rerr := err.(*result.Error)
	assert.Equal(t, result.MissingData, rerr.Kind)
}

func TestAlignInner(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := New(days(base, 5), []float64{1, 2, 3, 4, 5}, "a")
	b, _ := New(days(base.AddDate(0, 0, 2), 5), []float64{10, 20, 30, 40, 50}, "b")

	aa, bb, err := Align(a, b, Inner)
	require.NoError(t, err)
	// overlap is days 2..4 of a == days 0..2 of b => 3 points
	assert.Equal(t, 3, aa.Len())
	assert.Equal(t, []float64{3, 4, 5}, aa.Values())
	assert.Equal(t, []float64{10, 20, 30}, bb.Values())
}

func TestAlignOuterForwardFill(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := New([]time.Time{base, base.AddDate(0, 0, 2)}, []float64{1, 2}, "a")
	b, _ := New([]time.Time{base, base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)}, []float64{10, 20, 30}, "b")

	aa, bb, err := Align(a, b, OuterForward)
	require.NoError(t, err)
	require.Equal(t, 3, aa.Len())
	// middle day forward-filled from a's value at day0 = 1
	assert.Equal(t, []float64{1, 1, 2}, aa.Values())
	assert.Equal(t, []float64{10, 20, 30}, bb.Values())
}

func TestRollingWindowBounds(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := New(days(base, 5), []float64{1, 2, 3, 4, 5}, "s")

	_, err := Rolling(s, 0, func(w []float64) (float64, error) { return 0, nil })
	require.Error(t, err)

	_, err = Rolling(s, 6, func(w []float64) (float64, error) { return 0, nil })
	require.Error(t, err)

	out, err := Rolling(s, 3, func(w []float64) (float64, error) {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		return sum, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Len())
	assert.Equal(t, []float64{6, 9, 12}, out.Values())
	// right-aligned: first window [1,2,3] ends at index 2
	assert.Equal(t, s.TimestampAt(2), out.TimestampAt(0))
}

func TestRollingPerWindowErrorEmitsNaNNotFailure(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s, _ := New(days(base, 4), []float64{1, 0, 3, 0}, "s")

	out, err := Rolling(s, 2, func(w []float64) (float64, error) {
		if w[len(w)-1] == 0 {
			return 0, result.New(result.DivisionByZero, "zero divisor")
		}
		return 1 / w[len(w)-1], nil
	})
	require.NoError(t, err)
	vals := out.Values()
	assert.True(t, math.IsNaN(vals[0]))
	assert.InDelta(t, 1.0/3.0, vals[1], 1e-9)
	assert.True(t, math.IsNaN(vals[2]))
}

func TestResampleMonthlyCompounding(t *testing.T) {
	ts := []time.Time{
		time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
	}
	s, _ := New(ts, []float64{0.01, 0.02, -0.01}, "r")

	out, err := Resample(s, calendar.Monthly, CompoundReturns)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())
	assert.InDelta(t, 1.01*1.02-1, out.At(0), 1e-12)
	assert.InDelta(t, -0.01, out.At(1), 1e-12)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), out.TimestampAt(0))
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), out.TimestampAt(1))
}

func TestArithmeticRequiresAlignment(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a, _ := New(days(base, 3), []float64{1, 2, 3}, "a")
	b, _ := New(days(base, 2), []float64{1, 2}, "b")
	_, err := Add(a, b)
	require.Error(t, err)

	c, _ := New(days(base, 3), []float64{10, 20, 30}, "c")
	sum, err := Add(a, c)
	require.NoError(t, err)
	assert.Equal(t, []float64{11, 22, 33}, sum.Values())
}
