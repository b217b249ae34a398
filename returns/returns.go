// Package returns implements return construction and the risk-adjusted
// ratio suite: simple/log returns from prices, cumulative and total
// return, CAGR, Sharpe, Sortino, Calmar, Information Ratio, Omega, and
// Treynor, all parametrized by a periods-per-year frequency rather than a
// hardcoded trading-day count.
package returns

import (
	"math"

	"github.com/arfinch/quantcore/calendar"
	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
)

// SimpleFromPrices computes rᵢ = pᵢ/pᵢ₋₁ - 1 for consecutive prices,
// failing InvalidInput if any price is non-positive. Output length is N-1.
func SimpleFromPrices(prices []float64) ([]float64, error) {
	return fromPrices(prices, func(p0, p1 float64) float64 { return p1/p0 - 1 })
}

// LogFromPrices computes rᵢ = ln(pᵢ/pᵢ₋₁).
func LogFromPrices(prices []float64) ([]float64, error) {
	return fromPrices(prices, func(p0, p1 float64) float64 { return math.Log(p1 / p0) })
}

func fromPrices(prices []float64, f func(p0, p1 float64) float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, result.New(result.InsufficientData, "need at least 2 prices to compute a return")
	}
	for _, p := range prices {
		if p <= 0 {
			return nil, result.New(result.InvalidInput, "prices must be strictly positive")
		}
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = f(prices[i-1], prices[i])
	}
	return out, nil
}

// Cumulative computes cumᵢ = (Prod_{j<=i}(1+rj))*start - start for a
// starting value `start`.
func Cumulative(returns []float64, start float64) []float64 {
	out := make([]float64, len(returns))
	acc := 1.0
	for i, r := range returns {
		acc *= 1 + r
		out[i] = acc*start - start
	}
	return out
}

// TotalReturn is cum_N/start, i.e. Prod(1+ri) - 1 when start=1.
func TotalReturn(returns []float64) (float64, error) {
	if len(returns) == 0 {
		return 0, result.New(result.InsufficientData, "empty return series")
	}
	acc := 1.0
	for _, r := range returns {
		acc *= 1 + r
	}
	return acc - 1, nil
}

// Excess computes excessi = ri - rf/K for an annual risk-free rate rf and
// periods-per-year K implied by freq.
func Excess(returns []float64, annualRiskFree float64, freq calendar.Frequency) []float64 {
	periodRf := annualRiskFree / freq.PeriodsPerYear()
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - periodRf
	}
	return out
}

// AnnualizedMean is mean_period * K.
func AnnualizedMean(returns []float64, freq calendar.Frequency) float64 {
	return stats.Mean(returns) * freq.PeriodsPerYear()
}

// AnnualizedVolatility is vol_period * sqrt(K).
func AnnualizedVolatility(returns []float64, freq calendar.Frequency) float64 {
	return stats.StdDev(returns) * math.Sqrt(freq.PeriodsPerYear())
}

// CAGR is (1+total_return)^(1/years) - 1 with years = N/K, failing
// InvalidInput if years <= 0.
func CAGR(returns []float64, freq calendar.Frequency) (float64, error) {
	years := float64(len(returns)) / freq.PeriodsPerYear()
	if years <= 0 {
		return 0, result.New(result.InvalidInput, "years must be positive")
	}
	total, err := TotalReturn(returns)
	if err != nil {
		return 0, err
	}
	return math.Pow(1+total, 1/years) - 1, nil
}

// Sharpe is (mean(excess)*K) / (std(excess)*sqrt(K)), equivalently
// mean(excess)*sqrt(K)/std(excess). Fails DivisionByZero if std(excess)=0.
func Sharpe(returns []float64, annualRiskFree float64, freq calendar.Frequency) (float64, error) {
	if len(returns) < 2 {
		return 0, result.New(result.InsufficientData, "need at least 2 returns for Sharpe")
	}
	excess := Excess(returns, annualRiskFree, freq)
	std := stats.StdDev(excess)
	if std == 0 {
		return 0, result.New(result.DivisionByZero, "excess-return standard deviation is zero")
	}
	return stats.Mean(excess) * math.Sqrt(freq.PeriodsPerYear()) / std, nil
}

// Sortino uses an annual target return T (MAR), converting to the period
// target T' = T/K. denom = sqrt(mean(min(0, r-T')^2)).
// Ratio = ((mean*K) - T) / (denom*sqrt(K)).
func Sortino(returns []float64, annualTarget float64, freq calendar.Frequency) (float64, error) {
	if len(returns) < 2 {
		return 0, result.New(result.InsufficientData, "need at least 2 returns for Sortino")
	}
	k := freq.PeriodsPerYear()
	periodTarget := annualTarget / k
	sumSq := 0.0
	for _, r := range returns {
		d := math.Min(0, r-periodTarget)
		sumSq += d * d
	}
	denom := math.Sqrt(sumSq / float64(len(returns)))
	if denom == 0 {
		return 0, result.New(result.DivisionByZero, "downside deviation is zero")
	}
	meanAnnual := stats.Mean(returns) * k
	return (meanAnnual - annualTarget) / (denom * math.Sqrt(k)), nil
}

// Calmar is annualized_return / |max_drawdown|, failing DivisionByZero on
// zero drawdown. maxDrawdown is expected as a positive fraction in [0,1].
func Calmar(annualizedReturn, maxDrawdown float64) (float64, error) {
	if maxDrawdown == 0 {
		return 0, result.New(result.DivisionByZero, "max drawdown is zero")
	}
	return annualizedReturn / math.Abs(maxDrawdown), nil
}

// InformationRatio computes active = portfolio - benchmark element-wise
// (already aligned) and returns (mean(active)*K)/(std(active)*sqrt(K)).
func InformationRatio(portfolio, benchmark []float64, freq calendar.Frequency) (float64, error) {
	if len(portfolio) != len(benchmark) {
		return 0, result.New(result.InvalidInput, "portfolio and benchmark must have equal length")
	}
	if len(portfolio) < 2 {
		return 0, result.New(result.InsufficientData, "need at least 2 observations")
	}
	active := make([]float64, len(portfolio))
	for i := range portfolio {
		active[i] = portfolio[i] - benchmark[i]
	}
	std := stats.StdDev(active)
	if std == 0 {
		return 0, result.New(result.DivisionByZero, "active-return standard deviation is zero")
	}
	k := freq.PeriodsPerYear()
	return (stats.Mean(active) * k) / (std * math.Sqrt(k)), nil
}

// Omega is (sum(r-T')+) / (sum(T'-r)+) for period target T'; +Inf if the
// denominator is zero and the numerator is positive.
func Omega(returns []float64, periodTarget float64) (float64, error) {
	if len(returns) == 0 {
		return 0, result.New(result.InsufficientData, "empty return series")
	}
	var gains, losses float64
	for _, r := range returns {
		d := r - periodTarget
		if d > 0 {
			gains += d
		} else {
			losses += -d
		}
	}
	if losses == 0 {
		if gains > 0 {
			return math.Inf(1), nil
		}
		return 0, result.New(result.DivisionByZero, "no losses and no gains relative to target")
	}
	return gains / losses, nil
}

// Treynor fits beta from a regression of portfolio excess returns on
// benchmark excess returns, and returns (mean(excess_portfolio)*K)/beta.
func Treynor(portfolio, benchmark []float64, annualRiskFree float64, freq calendar.Frequency) (float64, error) {
	if len(portfolio) != len(benchmark) {
		return 0, result.New(result.InvalidInput, "portfolio and benchmark must have equal length")
	}
	if len(portfolio) < 2 {
		return 0, result.New(result.InsufficientData, "need at least 2 observations")
	}
	portExcess := Excess(portfolio, annualRiskFree, freq)
	benchExcess := Excess(benchmark, annualRiskFree, freq)
	_, beta, err := stats.LinearRegression(benchExcess, portExcess)
	if err != nil {
		return 0, err
	}
	if beta == 0 {
		return 0, result.New(result.DivisionByZero, "estimated beta is zero")
	}
	return (stats.Mean(portExcess) * freq.PeriodsPerYear()) / beta, nil
}
