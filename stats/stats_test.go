package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanVarianceStdDev(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	assert.InDelta(t, 3.0, Mean(data), 1e-9)
	assert.InDelta(t, 2.5, Variance(data), 1e-9)
	assert.InDelta(t, math.Sqrt(2.5), StdDev(data), 1e-9)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Variance([]float64{1}))
}

func TestQuantileMatchesHistoricalVaRConvention(t *testing.T) {
	data := []float64{-0.05, -0.02, -0.01, 0, 0.01, 0.02, 0.03, 0.04, 0.05, 0.06}
	q, err := Quantile(data, 0.05)
	require.NoError(t, err)
	assert.True(t, q <= -0.02)

	_, err = Quantile(nil, 0.05)
	require.Error(t, err)

	_, err = Quantile(data, 1.5)
	require.Error(t, err)
}

func TestNormalCDFPPFRoundTrip(t *testing.T) {
	z, err := NormalPPF(0.975)
	require.NoError(t, err)
	assert.InDelta(t, 1.959964, z, 1e-4)

	p := NormalCDF(z)
	assert.InDelta(t, 0.975, p, 1e-6)

	_, err = NormalPPF(0)
	require.Error(t, err)
	_, err = NormalPPF(1)
	require.Error(t, err)
}

func TestCorrelationMatrixAndHighPairs(t *testing.T) {
	series := map[string][]float64{
		"A": {1, 2, 3, 4, 5},
		"B": {2, 4, 6, 8, 10},
		"C": {5, 1, 4, 2, 3},
	}
	symbols, matrix := CorrelationMatrix(series)
	require.Len(t, symbols, 3)
	for i := range symbols {
		assert.InDelta(t, 1.0, matrix[i][i], 1e-9)
	}

	pairs := HighCorrelationPairs(symbols, matrix, 0.99)
	require.Len(t, pairs, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, []string{pairs[0].A, pairs[0].B})
}

func TestLinearRegression(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{2, 4, 6, 8, 10}
	alpha, beta, err := LinearRegression(x, y)
	require.NoError(t, err)
	assert.InDelta(t, 0, alpha, 1e-9)
	assert.InDelta(t, 2, beta, 1e-9)

	_, _, err = LinearRegression(x, []float64{1})
	require.Error(t, err)
}
