package riskvar

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalSample(n int, mean, stddev float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = mean + stddev*rng.NormFloat64()
	}
	return out
}

func TestHistoricalVaRMatchesQuantileConvention(t *testing.T) {
	returns := normalSample(1000, 0, 0.01, 42)
	est, err := Historical(returns, 0.95)
	require.NoError(t, err)

	// VaR(0.95) ~= -0.01 * Phi^-1(0.95) ~= -0.01645
	assert.InDelta(t, -0.01645, est.VaR, 0.003)
	// ES should be more negative than or equal to VaR.
	assert.LessOrEqual(t, est.ES, est.VaR+1e-9)
}

func TestParametricVaRMatchesScenario(t *testing.T) {
	returns := normalSample(1000, 0, 0.01, 42)
	est, err := Parametric(returns, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, -0.01645, est.VaR, 5e-4)
}

func TestInvalidConfidenceRejected(t *testing.T) {
	_, err := Historical([]float64{0.01, 0.02}, 0)
	require.Error(t, err)
	_, err = Historical([]float64{0.01, 0.02}, 1)
	require.Error(t, err)
	_, err = Historical([]float64{0.01, 0.02}, -0.2)
	require.Error(t, err)
}

func TestCornishFisherReducesToParametricForNormalData(t *testing.T) {
	returns := normalSample(5000, 0, 0.01, 7)
	p, err := Parametric(returns, 0.95)
	require.NoError(t, err)
	cf, err := CornishFisher(returns, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, p.VaR, cf.VaR, 0.01)
}

func TestMonteCarloReproducibleWithSeed(t *testing.T) {
	returns := normalSample(500, 0, 0.01, 1)
	rng1 := rand.New(rand.NewSource(99))
	rng2 := rand.New(rand.NewSource(99))
	e1, err := MonteCarlo(returns, 0.95, 10000, rng1)
	require.NoError(t, err)
	e2, err := MonteCarlo(returns, 0.95, 10000, rng2)
	require.NoError(t, err)
	assert.Equal(t, e1, e2)
}

func TestScaleHorizonScalesByScaleFactor(t *testing.T) {
	returns := normalSample(500, 0, 0.01, 3)
	base, err := ScaleHorizon(returns, 0.95, 1, 1)
	require.NoError(t, err)
	scaled, err := ScaleHorizon(returns, 0.95, 4, 1)
	require.NoError(t, err)
	assert.InDelta(t, base.VaR*2, scaled.VaR, 1e-9)
}

func TestPortfolioVaRRejectsNegativeWeights(t *testing.T) {
	weights := map[string]float64{"A": -0.5, "B": 1.5}
	returnsBySymbol := map[string][]float64{
		"A": {0.01, -0.02, 0.03},
		"B": {0.02, -0.01, 0.01},
	}
	_, err := PortfolioVaR(weights, returnsBySymbol, 0.95)
	require.Error(t, err)
}

func TestPortfolioVaRMissingSymbol(t *testing.T) {
	weights := map[string]float64{"A": 1.0}
	_, err := PortfolioVaR(weights, map[string][]float64{}, 0.95)
	require.Error(t, err)
}

func TestComponentVaRSumsToPortfolio(t *testing.T) {
	weights := map[string]float64{"A": 0.5, "B": 0.5}
	returnsBySymbol := map[string][]float64{
		"A": normalSample(200, 0, 0.01, 11),
		"B": normalSample(200, 0.001, 0.02, 12),
	}
	comps, err := Component(weights, returnsBySymbol, 0.95)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	total := 0.0
	for _, c := range comps {
		total += c.Component
	}
	baseVaR, err := PortfolioVaR(weights, returnsBySymbol, 0.95)
	require.NoError(t, err)
	assert.InDelta(t, baseVaR, total, 1e-4)
}

func TestApplyStressShocksOnlyNamedSymbols(t *testing.T) {
	weights := map[string]float64{"A": 0.5, "B": 0.5}
	returnsBySymbol := map[string][]float64{
		"A": {0.01, 0.02, -0.01},
		"B": {0.01, 0.02, -0.01},
	}
	unshocked, err := PortfolioVaR(weights, returnsBySymbol, 0.95)
	require.NoError(t, err)

	stressed, err := ApplyStress(weights, returnsBySymbol, Scenario{"A": -5}, 0.95)
	require.NoError(t, err)
	assert.NotEqual(t, unshocked, stressed)
	assert.False(t, math.IsNaN(stressed))
}

func TestKupiecTestRejectsMismatchedLengths(t *testing.T) {
	_, err := KupiecTest([]float64{0.01, -0.02}, []float64{-0.05}, 0.95)
	require.Error(t, err)
}

func TestKupiecTestMatchesExpectedRate(t *testing.T) {
	// 5 violations out of 100 at 95% confidence is exactly the expected
	// rate, so the LR statistic should sit near zero and the null should
	// not be rejected.
	n := 100
	returnsSeries := make([]float64, n)
	varForecasts := make([]float64, n)
	for i := range returnsSeries {
		varForecasts[i] = -0.02
		if i < 5 {
			returnsSeries[i] = -0.05 // violates
		} else {
			returnsSeries[i] = 0.0 // does not violate
		}
	}

	res, err := KupiecTest(returnsSeries, varForecasts, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Violations)
	assert.InDelta(t, 0.05, res.ViolationRate, 1e-9)
	assert.InDelta(t, 0.05, res.ExpectedRate, 1e-9)
	assert.InDelta(t, 0.0, res.LikelihoodRatio, 1e-6)
	assert.False(t, res.Reject)
}

func TestKupiecTestRejectsExcessiveViolations(t *testing.T) {
	// 40 violations out of 100 at 95% confidence (expected 5) should be a
	// clear rejection.
	n := 100
	returnsSeries := make([]float64, n)
	varForecasts := make([]float64, n)
	for i := range returnsSeries {
		varForecasts[i] = -0.02
		if i < 40 {
			returnsSeries[i] = -0.05
		} else {
			returnsSeries[i] = 0.0
		}
	}

	res, err := KupiecTest(returnsSeries, varForecasts, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Violations)
	assert.True(t, res.Reject)
	assert.Less(t, res.PValue, 0.05)
}

func TestKupiecTestNoViolations(t *testing.T) {
	n := 50
	returnsSeries := make([]float64, n)
	varForecasts := make([]float64, n)
	for i := range varForecasts {
		varForecasts[i] = -0.05
	}
	res, err := KupiecTest(returnsSeries, varForecasts, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Violations)
	assert.False(t, math.IsNaN(res.LikelihoodRatio))
}
