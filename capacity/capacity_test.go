package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRejectsNonPositiveInputs(t *testing.T) {
	_, err := Evaluate(0, Microstructure{AverageDailyVolume: 1000, Price: 10}, DefaultConstraints())
	require.Error(t, err)

	_, err = Evaluate(100, Microstructure{AverageDailyVolume: 0, Price: 10}, DefaultConstraints())
	require.Error(t, err)

	_, err = Evaluate(100, Microstructure{AverageDailyVolume: 1000, Price: 10}, Constraints{MaxParticipationRate: 0})
	require.Error(t, err)
}

func TestEvaluateUnconstrainedWhenDesiredBelowBudget(t *testing.T) {
	m := Microstructure{AverageDailyVolume: 1_000_000, Price: 50, Spread: 0.001, Volatility: 0.02}
	est, err := Evaluate(1000, m, DefaultConstraints())
	require.NoError(t, err)
	assert.False(t, est.Constrained)
	assert.Equal(t, 1.0, est.DaysToBuild)
}

func TestEvaluateConstrainedWhenDesiredExceedsBudget(t *testing.T) {
	m := Microstructure{AverageDailyVolume: 10_000, Price: 50, Spread: 0.001, Volatility: 0.02}
	cfg := Constraints{MaxParticipationRate: 0.1, ImpactCoefficient: 0.1}
	est, err := Evaluate(5000, m, cfg)
	require.NoError(t, err)
	assert.True(t, est.Constrained)
	assert.Equal(t, 1000.0, est.MaxTradableShares)
	assert.Equal(t, 5.0, est.DaysToBuild)
	assert.Greater(t, est.ImpactCostFraction, 0.0)
	assert.Greater(t, est.ImpactCostValue, 0.0)
}
