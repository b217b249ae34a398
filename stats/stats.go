// Package stats wraps gonum's descriptive-statistics and normal-
// distribution primitives for reuse across returns, VaR, regime, and
// Bayesian components: mean/variance/skew/kurtosis, quantiles, correlation
// and covariance (including a full correlation matrix), and normal
// CDF/PDF/PPF.
package stats

import (
	"math"
	"sort"

	"github.com/arfinch/quantcore/result"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean is the arithmetic mean; 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// Variance is the sample variance; 0 for fewer than 2 points.
func Variance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Variance(data, nil)
}

// StdDev is the sample standard deviation; 0 for fewer than 2 points.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Skewness is the sample (Fisher-Pearson) skewness.
func Skewness(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.Skew(data, nil)
}

// Kurtosis is the sample excess kurtosis plus 3 (i.e. the "raw" kurtosis
// used by the Cornish-Fisher expansion, where a normal distribution has
// kurtosis 3, not 0).
func Kurtosis(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.ExKurtosis(data, nil) + 3
}

// Quantile returns the value at cumulative probability p in [0,1] from the
// inverse empirical CDF (gonum's stat.Empirical: an observed value, no
// interpolation between ranks), failing InsufficientData if data is empty
// and InvalidInput if p is out of range.
func Quantile(data []float64, p float64) (float64, error) {
	if len(data) == 0 {
		return 0, result.New(result.InsufficientData, "cannot take a quantile of an empty series")
	}
	if p < 0 || p > 1 {
		return 0, result.New(result.InvalidInput, "quantile probability must be in [0,1]")
	}
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}

// Correlation is the Pearson correlation coefficient; 0 if lengths differ
// or either is empty.
func Correlation(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Correlation(x, y, nil)
}

// Covariance is the sample covariance; 0 if lengths differ or either is
// empty.
func Covariance(x, y []float64) float64 {
	if len(x) == 0 || len(y) == 0 || len(x) != len(y) {
		return 0
	}
	return stat.Covariance(x, y, nil)
}

// CorrelationMatrix computes the pairwise Pearson correlation matrix for a
// set of named series (supplemented feature, grounded on
// trader/internal/modules/optimization/risk.go: getCorrelations).
func CorrelationMatrix(series map[string][]float64) (symbols []string, matrix [][]float64) {
	symbols = make([]string, 0, len(series))
	for s := range series {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	n := len(symbols)
	matrix = make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		matrix[i][i] = 1
		for j := i + 1; j < n; j++ {
			c := Correlation(series[symbols[i]], series[symbols[j]])
			matrix[i][j] = c
			matrix[j][i] = c
		}
	}
	return symbols, matrix
}

// CorrelationPair names a pair of symbols whose absolute correlation is
// at least a threshold.
type CorrelationPair struct {
	A, B        string
	Correlation float64
}

// HighCorrelationPairs extracts symbol pairs whose absolute correlation is
// greater than or equal to threshold from a correlation matrix produced by
// CorrelationMatrix.
func HighCorrelationPairs(symbols []string, matrix [][]float64, threshold float64) []CorrelationPair {
	var pairs []CorrelationPair
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			if math.Abs(matrix[i][j]) >= threshold {
				pairs = append(pairs, CorrelationPair{A: symbols[i], B: symbols[j], Correlation: matrix[i][j]})
			}
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return math.Abs(pairs[i].Correlation) > math.Abs(pairs[j].Correlation) })
	return pairs
}

// NormalCDF is the standard normal Φ(z).
func NormalCDF(z float64) float64 {
	return distuv.UnitNormal.CDF(z)
}

// NormalPDF is the standard normal density φ(z).
func NormalPDF(z float64) float64 {
	return distuv.UnitNormal.Prob(z)
}

// NormalPPF is the standard normal quantile function Φ⁻¹(p) (the "z-score"
// for a given left-tail probability), failing InvalidInput if p is outside
// (0,1).
func NormalPPF(p float64) (float64, error) {
	if p <= 0 || p >= 1 {
		return 0, result.New(result.InvalidInput, "probability must be in (0,1)")
	}
	return distuv.UnitNormal.Quantile(p), nil
}

// LinearRegression performs a simple OLS fit y = alpha + beta*x, returning
// (alpha, beta). Used by Treynor (beta vs. benchmark).
func LinearRegression(x, y []float64) (alpha, beta float64, err error) {
	if len(x) != len(y) {
		return 0, 0, result.New(result.InvalidInput, "x and y must have equal length")
	}
	if len(x) < 2 {
		return 0, 0, result.New(result.InsufficientData, "need at least 2 points for a regression")
	}
	alpha, beta = stat.LinearRegression(x, y, nil, false)
	return alpha, beta, nil
}
