package regime

import (
	"math"

	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
)

// StructuralBreak is one detected CUSUM break point.
type StructuralBreak struct {
	Index       int
	CumulativeS float64
}

// CUSUMResult is the output of structural-break detection: the break
// indices and a per-segment regime assignment by alternating sign of
// segment mean.
type CUSUMResult struct {
	Breaks   []StructuralBreak
	Segments []RegimeType // one per observation, same length as the input series
}

// CUSUM detects structural breaks: St = sum_{j<=t}(rj - rbar);
// threshold tau = 1.358*sqrt(N)*sigma; breaks spaced >= 20 observations
// apart, skipping the first/last 10 observations. Each segment is assigned
// alternating Bull/Bear by the sign of its mean.
func CUSUM(returnsSeries []float64) (*CUSUMResult, error) {
	n := len(returnsSeries)
	if n < 20 {
		return nil, result.New(result.InsufficientData, "need at least 20 observations for CUSUM")
	}

	mean := stats.Mean(returnsSeries)
	sigma := stats.StdDev(returnsSeries)
	tau := 1.358 * math.Sqrt(float64(n)) * sigma

	s := make([]float64, n)
	acc := 0.0
	for i, r := range returnsSeries {
		acc += r - mean
		s[i] = acc
	}

	var breaks []StructuralBreak
	lastBreak := -20
	for t := 10; t < n-10; t++ {
		if math.Abs(s[t]) > tau && t-lastBreak >= 20 {
			breaks = append(breaks, StructuralBreak{Index: t, CumulativeS: s[t]})
			lastBreak = t
		}
	}

	segments := make([]RegimeType, n)
	boundaries := append([]int{0}, breakIndices(breaks)...)
	boundaries = append(boundaries, n)
	for i := 0; i < len(boundaries)-1; i++ {
		start, end := boundaries[i], boundaries[i+1]
		segMean := stats.Mean(returnsSeries[start:end])
		regime := Bear
		if segMean >= 0 {
			regime = Bull
		}
		for t := start; t < end; t++ {
			segments[t] = regime
		}
	}

	return &CUSUMResult{Breaks: breaks, Segments: segments}, nil
}

func breakIndices(breaks []StructuralBreak) []int {
	out := make([]int, len(breaks))
	for i, b := range breaks {
		out[i] = b.Index
	}
	return out
}
