// Package timeseries implements the ordered timestamp->value container
// that every analytics component in this module consumes: aligned binary
// operations, resampling, and rolling reductions.
package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/arfinch/quantcore/calendar"
	"github.com/arfinch/quantcore/result"
)

// TimeSeries is an ordered sequence of (timestamp, value) pairs. Once
// constructed it is immutable to external readers; every transformation
// below returns a new TimeSeries rather than mutating in place.
type TimeSeries[T any] struct {
	timestamps []time.Time
	values     []T
	name       string
}

// New constructs a TimeSeries, failing with InvalidInput if the two slices
// differ in length or timestamps are not strictly ascending (duplicate
// timestamps are rejected).
func New[T any](timestamps []time.Time, values []T, name string) (*TimeSeries[T], error) {
	if len(timestamps) != len(values) {
		return nil, result.New(result.InvalidInput, "timestamps and values must have equal length")
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, result.New(result.InvalidInput, "timestamps must be strictly increasing")
		}
	}
	ts := make([]time.Time, len(timestamps))
	copy(ts, timestamps)
	vs := make([]T, len(values))
	copy(vs, values)
	return &TimeSeries[T]{timestamps: ts, values: vs, name: name}, nil
}

// Len returns the number of observations.
func (s *TimeSeries[T]) Len() int { return len(s.values) }

// Name returns the series' label.
func (s *TimeSeries[T]) Name() string { return s.name }

// Timestamps returns a defensive copy of the timestamp index.
func (s *TimeSeries[T]) Timestamps() []time.Time {
	out := make([]time.Time, len(s.timestamps))
	copy(out, s.timestamps)
	return out
}

// Values returns a defensive copy of the values.
func (s *TimeSeries[T]) Values() []T {
	out := make([]T, len(s.values))
	copy(out, s.values)
	return out
}

// At returns the value at index i.
func (s *TimeSeries[T]) At(i int) T { return s.values[i] }

// TimestampAt returns the timestamp at index i.
func (s *TimeSeries[T]) TimestampAt(i int) time.Time { return s.timestamps[i] }

// AtTime looks up the value at exact timestamp t, failing with MissingData
// if no observation carries that instant.
func (s *TimeSeries[T]) AtTime(t time.Time) (T, error) {
	i := sort.Search(len(s.timestamps), func(i int) bool { return !s.timestamps[i].Before(t) })
	var zero T
	if i < len(s.timestamps) && s.timestamps[i].Equal(t) {
		return s.values[i], nil
	}
	return zero, result.New(result.MissingData, "no observation at requested timestamp")
}

// First returns the first observation's value, failing InsufficientData if
// the series is empty.
func (s *TimeSeries[T]) First() (T, error) {
	var zero T
	if len(s.values) == 0 {
		return zero, result.New(result.InsufficientData, "series is empty")
	}
	return s.values[0], nil
}

// Last returns the last observation's value, failing InsufficientData if
// the series is empty.
func (s *TimeSeries[T]) Last() (T, error) {
	var zero T
	if len(s.values) == 0 {
		return zero, result.New(result.InsufficientData, "series is empty")
	}
	return s.values[len(s.values)-1], nil
}

// Slice returns the sub-series [from, to) by index.
func (s *TimeSeries[T]) Slice(from, to int) *TimeSeries[T] {
	return &TimeSeries[T]{
		timestamps: append([]time.Time(nil), s.timestamps[from:to]...),
		values:     append([]T(nil), s.values[from:to]...),
		name:       s.name,
	}
}

// AlignPolicy selects how Align handles observations present in one series
// but not the other on the union timeline.
type AlignPolicy int

const (
	// Inner restricts to the intersection of timestamps.
	Inner AlignPolicy = iota
	// OuterForward fills gaps with the most recent prior value.
	OuterForward
	// OuterBackward fills gaps with the next following value.
	OuterBackward
	// OuterInterpolate linearly interpolates gaps (float64 series only;
	// non-float series fall back to OuterDrop semantics for interior gaps).
	OuterInterpolate
	// OuterDrop fills no gaps, so Align drops every timestamp missing from
	// either series and the result covers the same timestamps as Inner.
	OuterDrop
)

// Align produces two series over a common timeline: the intersection for
// Inner, or the union for any Outer* policy, with Outer* policies
// differing only in how missing values are filled on non-overlapping
// timestamps. A union timestamp that the policy leaves unfilled on either
// side (e.g. a leading gap under OuterForward) is dropped from both
// outputs.
func Align(a, b *TimeSeries[float64], policy AlignPolicy) (*TimeSeries[float64], *TimeSeries[float64], error) {
	if a.Len() == 0 || b.Len() == 0 {
		return nil, nil, result.New(result.InsufficientData, "cannot align an empty series")
	}
	if policy == Inner {
		return alignInner(a, b)
	}
	return alignOuter(a, b, policy)
}

func alignInner(a, b *TimeSeries[float64]) (*TimeSeries[float64], *TimeSeries[float64], error) {
	bi := indexByTime(b)
	var ts []time.Time
	var av, bv []float64
	for i, t := range a.timestamps {
		if j, ok := bi[timeKey(t)]; ok {
			ts = append(ts, t)
			av = append(av, a.values[i])
			bv = append(bv, b.values[j])
		}
	}
	if len(ts) == 0 {
		return nil, nil, result.New(result.InsufficientData, "no overlapping timestamps")
	}
	sa, err := New(ts, av, a.name)
	if err != nil {
		return nil, nil, err
	}
	sb, err := New(ts, bv, b.name)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

func alignOuter(a, b *TimeSeries[float64], policy AlignPolicy) (*TimeSeries[float64], *TimeSeries[float64], error) {
	union := unionTimestamps(a.timestamps, b.timestamps)
	av := fillSeries(union, a, policy)
	bv := fillSeries(union, b, policy)

	// Drop positions still missing on either side (e.g. leading gaps
	// forward-fill cannot populate).
	var ts []time.Time
	var outA, outB []float64
	for i, t := range union {
		if av[i].ok && bv[i].ok {
			ts = append(ts, t)
			outA = append(outA, av[i].v)
			outB = append(outB, bv[i].v)
		}
	}
	if len(ts) == 0 {
		return nil, nil, result.New(result.InsufficientData, "no usable observations after alignment")
	}
	sa, err := New(ts, outA, a.name)
	if err != nil {
		return nil, nil, err
	}
	sb, err := New(ts, outB, b.name)
	if err != nil {
		return nil, nil, err
	}
	return sa, sb, nil
}

type maybe struct {
	v  float64
	ok bool
}

func fillSeries(union []time.Time, s *TimeSeries[float64], policy AlignPolicy) []maybe {
	present := indexByTime(s)
	out := make([]maybe, len(union))
	for i, t := range union {
		if j, ok := present[timeKey(t)]; ok {
			out[i] = maybe{s.values[j], true}
		}
	}
	switch policy {
	case OuterForward:
		var last float64
		haveLast := false
		for i := range out {
			if out[i].ok {
				last, haveLast = out[i].v, true
			} else if haveLast {
				out[i] = maybe{last, true}
			}
		}
	case OuterBackward:
		var next float64
		haveNext := false
		for i := len(out) - 1; i >= 0; i-- {
			if out[i].ok {
				next, haveNext = out[i].v, true
			} else if haveNext {
				out[i] = maybe{next, true}
			}
		}
	case OuterInterpolate:
		interpolateGaps(out)
	case OuterDrop:
		// leave as-is
	}
	return out
}

func interpolateGaps(out []maybe) {
	n := len(out)
	i := 0
	for i < n {
		if out[i].ok {
			i++
			continue
		}
		// find previous known and next known
		start := i - 1
		j := i
		for j < n && !out[j].ok {
			j++
		}
		if start >= 0 && j < n {
			steps := j - start
			for k := start + 1; k < j; k++ {
				frac := float64(k-start) / float64(steps)
				out[k] = maybe{out[start].v + frac*(out[j].v-out[start].v), true}
			}
		}
		i = j + 1
	}
}

// timeKey normalizes a timestamp to a comparable map key; time.Time values
// representing the same instant may differ in monotonic reading or
// location, so map lookups must key on the instant, not the struct.
func timeKey(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func indexByTime[T any](s *TimeSeries[T]) map[int64]int {
	m := make(map[int64]int, s.Len())
	for i, t := range s.timestamps {
		m[timeKey(t)] = i
	}
	return m
}

func unionTimestamps(a, b []time.Time) []time.Time {
	set := make(map[int64]time.Time, len(a)+len(b))
	for _, t := range a {
		set[timeKey(t)] = t
	}
	for _, t := range b {
		set[timeKey(t)] = t
	}
	out := make([]time.Time, 0, len(set))
	for _, t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Add, Sub, Mul, Div perform element-wise arithmetic on two already-aligned
// float64 series (equal length, identical timestamps); call Align first if
// the inputs are not already on a common timeline.
func Add(a, b *TimeSeries[float64]) (*TimeSeries[float64], error) {
	return zipWith(a, b, func(x, y float64) float64 { return x + y })
}

func Sub(a, b *TimeSeries[float64]) (*TimeSeries[float64], error) {
	return zipWith(a, b, func(x, y float64) float64 { return x - y })
}

func Mul(a, b *TimeSeries[float64]) (*TimeSeries[float64], error) {
	return zipWith(a, b, func(x, y float64) float64 { return x * y })
}

func Div(a, b *TimeSeries[float64]) (*TimeSeries[float64], error) {
	return zipWith(a, b, func(x, y float64) float64 { return x / y })
}

func zipWith(a, b *TimeSeries[float64], f func(x, y float64) float64) (*TimeSeries[float64], error) {
	if a.Len() != b.Len() {
		return nil, result.New(result.InvalidInput, "series must be aligned before arithmetic")
	}
	out := make([]float64, a.Len())
	for i := range out {
		if !a.timestamps[i].Equal(b.timestamps[i]) {
			return nil, result.New(result.InvalidInput, "series must be aligned before arithmetic")
		}
		out[i] = f(a.values[i], b.values[i])
	}
	return New(a.timestamps, out, "")
}

// Rolling yields a series of length N-window+1 whose value at output index
// i is f(values[i:i+window]), timestamped at the window's last observation
// (right-aligned). window must be in [1, N].
func Rolling[T, R any](s *TimeSeries[T], window int, f func(window []T) (R, error)) (*TimeSeries[R], error) {
	n := s.Len()
	if window < 1 || window > n {
		return nil, result.New(result.InvalidInput, "window must be in [1, N]")
	}
	outLen := n - window + 1
	ts := make([]time.Time, outLen)
	vals := make([]R, outLen)
	for i := 0; i < outLen; i++ {
		win := s.values[i : i+window]
		v, err := f(win)
		if err != nil {
			// A per-window reducer failure emits NaN for that window rather
			// than failing the whole series, except InvalidInput which fails
			// the call.
			if rerr, ok := err.(*result.Error); ok && rerr.Kind == result.InvalidInput {
				return nil, err
			}
			var zero R
			if _, isFloat := any(zero).(float64); isFloat {
				zero = any(math.NaN()).(R)
			}
			vals[i] = zero
		} else {
			vals[i] = v
		}
		ts[i] = s.timestamps[i+window-1]
	}
	return New(ts, vals, s.name)
}

// Resample partitions observations by the period containing each
// timestamp and applies f to each bucket's values, emitting the canonical
// period-start timestamp. Empty buckets are omitted.
func Resample[T, R any](s *TimeSeries[T], freq calendar.Frequency, f func(bucket []T) (R, error)) (*TimeSeries[R], error) {
	if s.Len() == 0 {
		return nil, result.New(result.InsufficientData, "cannot resample an empty series")
	}
	type bucket struct {
		start  time.Time
		values []T
	}
	order := []time.Time{}
	buckets := map[time.Time]*bucket{}
	for i, t := range s.timestamps {
		start := freq.PeriodStart(t)
		b, ok := buckets[start]
		if !ok {
			b = &bucket{start: start}
			buckets[start] = b
			order = append(order, start)
		}
		b.values = append(b.values, s.values[i])
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	ts := make([]time.Time, 0, len(order))
	vals := make([]R, 0, len(order))
	for _, start := range order {
		b := buckets[start]
		if len(b.values) == 0 {
			continue
		}
		v, err := f(b.values)
		if err != nil {
			return nil, err
		}
		ts = append(ts, start)
		vals = append(vals, v)
	}
	return New(ts, vals, s.name)
}

// CompoundReturns is the standard resample reducer for return series:
// f(v) = Prod(1+vi) - 1.
func CompoundReturns(bucket []float64) (float64, error) {
	acc := 1.0
	for _, v := range bucket {
		acc *= 1 + v
	}
	return acc - 1, nil
}
