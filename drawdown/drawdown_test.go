package drawdown

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxDrawdownConstantSeries(t *testing.T) {
	// r=[0.01,0.01] -> max_drawdown = 0
	md, err := Max([]float64{0.01, 0.01})
	require.NoError(t, err)
	assert.InDelta(t, 0, md, 1e-12)
}

func TestMaxDrawdownAlternating(t *testing.T) {
	// equity = [1.1, 0.99, 1.089, 0.9801] against running peak 1.1; the
	// deepest drawdown is the final point, (1.1-0.9801)/1.1 ~= 0.108999,
	// not the intermediate trough at index 1.
	md, err := Max([]float64{0.1, -0.1, 0.1, -0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.1089999999999999, md, 1e-9)
}

func TestMaxDrawdownMonotoneDecline(t *testing.T) {
	// 100 consecutive -1% returns -> ~0.6340
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = -0.01
	}
	md, err := Max(returns)
	require.NoError(t, err)
	assert.InDelta(t, 1-math.Pow(0.99, 100), md, 1e-4)
}

func TestUnderwaterDurationMonotoneDecline(t *testing.T) {
	returns := make([]float64, 100)
	for i := range returns {
		returns[i] = -0.01
	}
	dur, err := UnderwaterDuration(returns)
	require.NoError(t, err)
	for i := 1; i < len(dur); i++ {
		assert.Greater(t, dur[i], dur[i-1])
	}
	assert.Equal(t, 1, dur[0])
	assert.Equal(t, 100, dur[99])
}

func TestDrawdownSeriesBounds(t *testing.T) {
	dd, err := Series([]float64{0.05, -0.2, 0.1, -0.05, 0.3})
	require.NoError(t, err)
	for _, v := range dd {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestEpisodesEnumeration(t *testing.T) {
	// peak at idx0 (equity 1.05), trough somewhere, recovers
	returns := []float64{0.05, -0.2, 0.1, 0.2, 0.2}
	episodes, err := Episodes(returns, 0.01)
	require.NoError(t, err)
	require.NotEmpty(t, episodes)
	ep := episodes[0]
	assert.GreaterOrEqual(t, ep.TroughIndex, ep.PeakIndex)
	if ep.RecoveryIndex >= 0 {
		assert.GreaterOrEqual(t, ep.RecoveryIndex, ep.TroughIndex)
	}
}

func TestEpisodesFilterByThreshold(t *testing.T) {
	returns := []float64{0.01, -0.001, 0.01, -0.001}
	episodes, err := Episodes(returns, 0.5)
	require.NoError(t, err)
	assert.Empty(t, episodes)
}

func TestUlcerIndexInvalidPeriod(t *testing.T) {
	_, err := UlcerIndex([]float64{0.01, 0.02}, 0)
	require.Error(t, err)
	_, err = UlcerIndex([]float64{0.01, 0.02}, 10)
	require.Error(t, err)
}

func TestFiftyTwoWeekHighLow(t *testing.T) {
	prices := []float64{100, 110, 90, 105, 95}
	high, err := FiftyTwoWeekHigh(prices)
	require.NoError(t, err)
	assert.Equal(t, 110.0, high)

	low, err := FiftyTwoWeekLow(prices)
	require.NoError(t, err)
	assert.Equal(t, 90.0, low)
}

func TestFiftyTwoWeekHighLowEmptySeries(t *testing.T) {
	_, err := FiftyTwoWeekHigh(nil)
	require.Error(t, err)
	_, err = FiftyTwoWeekLow(nil)
	require.Error(t, err)
}

func TestFiftyTwoWeekHighLowOnlyLooksBack252(t *testing.T) {
	prices := make([]float64, 300)
	for i := range prices {
		prices[i] = 50
	}
	prices[0] = 1000 // outside the trailing 252-observation window
	high, err := FiftyTwoWeekHigh(prices)
	require.NoError(t, err)
	assert.Equal(t, 50.0, high)
}

func TestDistanceFromFiftyTwoWeekHigh(t *testing.T) {
	prices := []float64{100, 80}
	dist, err := DistanceFromFiftyTwoWeekHigh(prices)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, dist, 1e-9)
}

func TestDistanceFromFiftyTwoWeekHighZeroHigh(t *testing.T) {
	_, err := DistanceFromFiftyTwoWeekHigh([]float64{0, 0})
	require.Error(t, err)
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 105, 110, 121}
	m, err := Momentum(prices, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.21, m, 1e-9)
}

func TestMomentumInsufficientData(t *testing.T) {
	_, err := Momentum([]float64{100, 105}, 5)
	require.Error(t, err)
}

func TestMomentumZeroStartPrice(t *testing.T) {
	_, err := Momentum([]float64{0, 10}, 1)
	require.Error(t, err)
}
