package backtest

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buyAndHold struct {
	weights map[string]float64
}

func (b buyAndHold) TargetWeights(State) (map[string]float64, error) { return b.weights, nil }
func (b buyAndHold) Name() string                                    { return "buy_and_hold" }

func marketDays(prices map[string][]float64, n int) []MarketDay {
	out := make([]MarketDay, n)
	for i := 0; i < n; i++ {
		day := MarketDay{Timestamp: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Prices: map[string]float64{}}
		for sym, series := range prices {
			day.Prices[sym] = series[i]
		}
		out[i] = day
	}
	return out
}

func TestRunRejectsTooFewDays(t *testing.T) {
	_, err := Run([]MarketDay{{Timestamp: time.Now(), Prices: map[string]float64{"AAPL": 100}}}, buyAndHold{}, Config{InitialCash: 10000}, zerolog.Nop())
	require.Error(t, err)
}

func TestRunProducesEquityCurveAndMetrics(t *testing.T) {
	days := marketDays(map[string][]float64{
		"AAPL": {100, 102, 101, 105, 110},
	}, 5)
	strat := buyAndHold{weights: map[string]float64{"AAPL": 1.0}}
	cfg := Config{InitialCash: 10000, CommissionPerShare: 0.01, SlippageFraction: 0.0005}

	summary, err := Run(days, strat, cfg, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, summary.Days, 5)
	require.Len(t, summary.ReturnSeries, 5)

	assert.GreaterOrEqual(t, summary.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, summary.MaxDrawdown, 1.0)

	last := summary.Days[len(summary.Days)-1]
	assert.InDelta(t, 1.0, last.Holdings.Weight("AAPL"), 0.05)
}

func TestRunWithNoRebalanceProducesNoTrades(t *testing.T) {
	days := marketDays(map[string][]float64{
		"AAPL": {100, 101, 102},
	}, 3)
	strat := buyAndHold{weights: map[string]float64{}}
	cfg := Config{InitialCash: 10000}

	summary, err := Run(days, strat, cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, summary.RoundTrips)
}
