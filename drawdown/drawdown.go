// Package drawdown implements underwater-equity accounting: running peak,
// drawdown series, max drawdown, episode enumeration, recovery, underwater
// duration, the Ulcer Index, and 52-week high/low/momentum price
// statistics.
package drawdown

import (
	"math"

	"github.com/arfinch/quantcore/result"
)

// Equity builds the cumulative equity curve equityi = Prod_{j<=i}(1+rj)
// starting from 1.0, with an implicit equity[-1]=1 peak baseline.
func Equity(returns []float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc
	}
	return out
}

// Series returns the underwater drawdown series ddi = (mi-equityi)/mi in
// [0,1], where mi = max(1, equity0..i) is the running peak including the
// starting value of 1.
func Series(returns []float64) ([]float64, error) {
	if len(returns) == 0 {
		return nil, result.New(result.InsufficientData, "empty return series")
	}
	equity := Equity(returns)
	dd := make([]float64, len(equity))
	peak := 1.0
	for i, eq := range equity {
		if eq > peak {
			peak = eq
		}
		dd[i] = (peak - eq) / peak
	}
	return dd, nil
}

// Max returns the maximum drawdown, i.e. max(ddi).
func Max(returns []float64) (float64, error) {
	dd, err := Series(returns)
	if err != nil {
		return 0, err
	}
	max := 0.0
	for _, v := range dd {
		if v > max {
			max = v
		}
	}
	return max, nil
}

// UnderwaterDuration returns the consecutive-days-since-last-peak counter,
// reset to 0 at each new peak.
func UnderwaterDuration(returns []float64) ([]int, error) {
	if len(returns) == 0 {
		return nil, result.New(result.InsufficientData, "empty return series")
	}
	equity := Equity(returns)
	out := make([]int, len(equity))
	peak := 1.0
	duration := 0
	for i, eq := range equity {
		if eq >= peak {
			peak = eq
			duration = 0
		} else {
			duration++
		}
		out[i] = duration
	}
	return out, nil
}

// Episode describes one drawdown episode: a new peak at PeakIndex,
// descending to TroughIndex, recovering (or not) at RecoveryIndex.
type Episode struct {
	PeakIndex     int
	TroughIndex   int
	RecoveryIndex int // -1 if open-ended (no recovery observed)
	MaxDrawdown   float64
	Duration      int // TroughIndex - PeakIndex
	Recovery      int // RecoveryIndex - TroughIndex; -1 if open-ended
}

// Episodes enumerates drawdown episodes, filtering out any whose max
// drawdown is below minDrawdown.
func Episodes(returns []float64, minDrawdown float64) ([]Episode, error) {
	if len(returns) == 0 {
		return nil, result.New(result.InsufficientData, "empty return series")
	}
	equity := Equity(returns)
	n := len(equity)

	var episodes []Episode
	peak := 1.0
	peakIdx := -1 // -1 denotes the implicit starting peak before index 0
	i := 0
	for i < n {
		if equity[i] >= peak {
			peak = equity[i]
			peakIdx = i
			i++
			continue
		}
		// A drawdown has begun at peakIdx+1 (or 0 if peakIdx==-1).
		start := peakIdx
		troughIdx := i
		troughVal := equity[i]
		j := i
		recoveryIdx := -1
		for j < n {
			if equity[j] < troughVal {
				troughVal = equity[j]
				troughIdx = j
			}
			if equity[j] >= peak {
				recoveryIdx = j
				break
			}
			j++
		}
		maxDD := (peak - troughVal) / peak
		ep := Episode{
			PeakIndex:     start,
			TroughIndex:   troughIdx,
			RecoveryIndex: recoveryIdx,
			MaxDrawdown:   maxDD,
			Duration:      troughIdx - start,
		}
		if recoveryIdx >= 0 {
			ep.Recovery = recoveryIdx - troughIdx
			peak = equity[recoveryIdx]
			peakIdx = recoveryIdx
			i = recoveryIdx + 1
		} else {
			ep.Recovery = -1
			i = n
		}
		if maxDD >= minDrawdown {
			episodes = append(episodes, ep)
		}
	}
	return episodes, nil
}

// UlcerIndex is the square root of the mean squared drawdown over the
// trailing `period` observations.
func UlcerIndex(returns []float64, period int) (float64, error) {
	if period <= 0 || period > len(returns) {
		return 0, result.New(result.InvalidInput, "period must be in [1, N]")
	}
	dd, err := Series(returns[len(returns)-period:])
	if err != nil {
		return 0, err
	}
	sumSq := 0.0
	for _, v := range dd {
		sumSq += v * v
	}
	return math.Sqrt(sumSq / float64(period)), nil
}

const tradingDaysPerYear = 252

// windowSlice returns the trailing up-to-252 observations of prices, the
// usual approximation of a 52-week lookback in daily trading-day data.
func windowSlice(prices []float64) []float64 {
	start := 0
	if len(prices) > tradingDaysPerYear {
		start = len(prices) - tradingDaysPerYear
	}
	return prices[start:]
}

// FiftyTwoWeekHigh returns the highest price over the trailing ~52 weeks
// (252 trading days, or the whole series if shorter). Fails InsufficientData
// on an empty series.
func FiftyTwoWeekHigh(prices []float64) (float64, error) {
	if len(prices) == 0 {
		return 0, result.New(result.InsufficientData, "empty price series")
	}
	window := windowSlice(prices)
	high := window[0]
	for _, p := range window {
		if p > high {
			high = p
		}
	}
	return high, nil
}

// FiftyTwoWeekLow returns the lowest price over the trailing ~52 weeks.
func FiftyTwoWeekLow(prices []float64) (float64, error) {
	if len(prices) == 0 {
		return 0, result.New(result.InsufficientData, "empty price series")
	}
	window := windowSlice(prices)
	low := window[0]
	for _, p := range window {
		if p < low {
			low = p
		}
	}
	return low, nil
}

// DistanceFromFiftyTwoWeekHigh returns how far below the 52-week high the
// last price is, as a positive fraction (0.20 means 20% below the high).
// Fails DivisionByZero if the 52-week high is 0.
func DistanceFromFiftyTwoWeekHigh(prices []float64) (float64, error) {
	high, err := FiftyTwoWeekHigh(prices)
	if err != nil {
		return 0, err
	}
	if high == 0 {
		return 0, result.New(result.DivisionByZero, "52-week high is zero")
	}
	current := prices[len(prices)-1]
	return (high - current) / high, nil
}

// Momentum returns the fractional price change over the trailing `days`
// observations. Fails InsufficientData if the series is shorter than
// days+1, and DivisionByZero if the starting price is 0.
func Momentum(prices []float64, days int) (float64, error) {
	if len(prices) < days+1 {
		return 0, result.New(result.InsufficientData, "series shorter than the momentum lookback")
	}
	start := prices[len(prices)-days-1]
	end := prices[len(prices)-1]
	if start == 0 {
		return 0, result.New(result.DivisionByZero, "starting price is zero")
	}
	return (end - start) / start, nil
}
