// Package riskvar implements a multi-method Value-at-Risk / Expected
// Shortfall engine: historical, parametric, Cornish-Fisher, and Monte-Carlo
// VaR/ES, marginal/component VaR, and stress scenarios, with a consistent
// sign convention (losses are negative) and horizon scaling across methods.
package riskvar

import (
	"math"
	"math/rand"

	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Estimate is the result of a VaR/ES computation: VaR is reported as a
// (typically negative) return; losses are |VaR|.
type Estimate struct {
	VaR float64
	ES  float64
}

func validateConfidence(c float64) error {
	if c <= 0 || c >= 1 {
		return result.New(result.InvalidInput, "confidence must be in (0,1)")
	}
	return nil
}

// Historical computes VaR as the (1-c) quantile of returns and ES as the
// mean of returns at or below VaR.
func Historical(returns []float64, confidence float64) (Estimate, error) {
	if err := validateConfidence(confidence); err != nil {
		return Estimate{}, err
	}
	if len(returns) == 0 {
		return Estimate{}, result.New(result.InsufficientData, "empty return series")
	}
	q, err := stats.Quantile(returns, 1-confidence)
	if err != nil {
		return Estimate{}, err
	}
	var sum float64
	var n int
	for _, r := range returns {
		if r <= q {
			sum += r
			n++
		}
	}
	es := q
	if n > 0 {
		es = sum / float64(n)
	}
	return Estimate{VaR: q, ES: es}, nil
}

// Parametric fits a normal distribution to returns (mean mu, stddev sigma)
// and computes VaR = mu + z*sigma, ES = mu - sigma*phi(z)/(1-c), where
// z = Phi^-1(1-c).
func Parametric(returns []float64, confidence float64) (Estimate, error) {
	if err := validateConfidence(confidence); err != nil {
		return Estimate{}, err
	}
	if len(returns) < 2 {
		return Estimate{}, result.New(result.InsufficientData, "need at least 2 returns")
	}
	mu, sigma := stats.Mean(returns), stats.StdDev(returns)
	z, err := stats.NormalPPF(1 - confidence)
	if err != nil {
		return Estimate{}, err
	}
	varVal := mu + z*sigma
	es := mu - sigma*stats.NormalPDF(z)/(1-confidence)
	return Estimate{VaR: varVal, ES: es}, nil
}

// CornishFisher adjusts the normal z-score by sample skewness and kurtosis
// to account for fat tails / asymmetry before computing VaR/ES the same
// way Parametric does, via the Cornish-Fisher expansion.
func CornishFisher(returns []float64, confidence float64) (Estimate, error) {
	if err := validateConfidence(confidence); err != nil {
		return Estimate{}, err
	}
	if len(returns) < 3 {
		return Estimate{}, result.New(result.InsufficientData, "need at least 3 returns for Cornish-Fisher")
	}
	mu, sigma := stats.Mean(returns), stats.StdDev(returns)
	skew := stats.Skewness(returns)
	kurt := stats.Kurtosis(returns) // "raw" kurtosis, normal = 3
	excessKurt := kurt - 3

	z, err := stats.NormalPPF(1 - confidence)
	if err != nil {
		return Estimate{}, err
	}
	zCF := z +
		(1.0/6.0)*(z*z-1)*skew +
		(1.0/24.0)*(z*z*z-3*z)*excessKurt -
		(1.0/36.0)*(2*z*z*z-5*z)*skew*skew

	varVal := mu + zCF*sigma
	es := mu - sigma*stats.NormalPDF(zCF)/(1-confidence)
	return Estimate{VaR: varVal, ES: es}, nil
}

// MonteCarlo draws numSamples i.i.d. samples from N(mean(returns),
// std(returns)) and reports the empirical historical VaR/ES of the
// sample. rng, if nil, uses the package-level default random source; pass
// an explicit *rand.Rand (seeded) for reproducible runs.
func MonteCarlo(returns []float64, confidence float64, numSamples int, rng *rand.Rand) (Estimate, error) {
	if err := validateConfidence(confidence); err != nil {
		return Estimate{}, err
	}
	if numSamples < 1 {
		return Estimate{}, result.New(result.InvalidInput, "numSamples must be positive")
	}
	if len(returns) < 2 {
		return Estimate{}, result.New(result.InsufficientData, "need at least 2 returns to fit a sampling distribution")
	}
	var src rand.Source
	if rng != nil {
		src = rng
	}
	dist := distuv.Normal{Mu: stats.Mean(returns), Sigma: stats.StdDev(returns), Src: src}
	samples := make([]float64, numSamples)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	return Historical(samples, confidence)
}

// ScaleHorizon scales mu and sigma by sqrt(h/baseH), the standard square-root-
// of-time rule, returning a parametric Estimate at the new horizon.
func ScaleHorizon(returns []float64, confidence float64, h, baseH float64) (Estimate, error) {
	if err := validateConfidence(confidence); err != nil {
		return Estimate{}, err
	}
	if baseH <= 0 || h <= 0 {
		return Estimate{}, result.New(result.InvalidInput, "horizons must be positive")
	}
	mu, sigma := stats.Mean(returns), stats.StdDev(returns)
	scale := math.Sqrt(h / baseH)
	mu *= scale
	sigma *= scale
	z, err := stats.NormalPPF(1 - confidence)
	if err != nil {
		return Estimate{}, err
	}
	varVal := mu + z*sigma
	es := mu - sigma*stats.NormalPDF(z)/(1-confidence)
	return Estimate{VaR: varVal, ES: es}, nil
}

// PortfolioVaR computes historical VaR of the weighted sum of aligned
// per-asset return series, failing InvalidInput if weights don't match
// symbols or are negative, or InvalidSymbol if a series is missing.
func PortfolioVaR(weights map[string]float64, returns map[string][]float64, confidence float64) (float64, error) {
	if err := validateConfidence(confidence); err != nil {
		return 0, err
	}
	if len(weights) == 0 {
		return 0, result.New(result.InvalidInput, "no weights provided")
	}
	n := -1
	for sym, w := range weights {
		if w < 0 {
			return 0, result.New(result.InvalidInput, "weights must be non-negative")
		}
		series, ok := returns[sym]
		if !ok {
			return 0, result.New(result.InvalidSymbol, "no return series for symbol "+sym)
		}
		if n == -1 {
			n = len(series)
		} else if len(series) != n {
			return 0, result.New(result.InvalidInput, "all return series must have equal length")
		}
	}
	if n <= 0 {
		return 0, result.New(result.InsufficientData, "empty return series")
	}
	portfolio := make([]float64, n)
	for sym, w := range weights {
		series := returns[sym]
		for i, r := range series {
			portfolio[i] += w * r
		}
	}
	est, err := Historical(portfolio, confidence)
	if err != nil {
		return 0, err
	}
	return est.VaR, nil
}

// ComponentVaR holds the marginal and component VaR contribution of one
// symbol, estimated by finite-difference perturbation of its weight.
type ComponentVaR struct {
	Symbol         string
	Marginal       float64
	Component      float64
	PercentOfTotal float64
}

// Component computes marginal/component VaR for each symbol by perturbing
// its weight by delta=1e-3, renormalizing, and recomputing portfolio VaR.
func Component(weights map[string]float64, returns map[string][]float64, confidence float64) ([]ComponentVaR, error) {
	const delta = 1e-3

	baseVaR, err := PortfolioVaR(weights, returns, confidence)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(weights))
	for s := range weights {
		symbols = append(symbols, s)
	}

	out := make([]ComponentVaR, 0, len(symbols))
	totalVaR := 0.0
	for _, sym := range symbols {
		perturbed := renormalizedPerturbation(weights, sym, delta)
		perturbedVaR, err := PortfolioVaR(perturbed, returns, confidence)
		if err != nil {
			return nil, err
		}
		marginal := (perturbedVaR - baseVaR) / delta
		component := weights[sym] * marginal
		out = append(out, ComponentVaR{Symbol: sym, Marginal: marginal, Component: component})
		totalVaR += component
	}
	for i := range out {
		if totalVaR != 0 {
			out[i].PercentOfTotal = out[i].Component / totalVaR
		}
	}
	return out, nil
}

func renormalizedPerturbation(weights map[string]float64, symbol string, delta float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for s, w := range weights {
		out[s] = w
	}
	out[symbol] += delta
	total := 0.0
	for _, w := range out {
		total += w
	}
	if total == 0 {
		return out
	}
	for s := range out {
		out[s] /= total
	}
	return out
}

// Scenario maps symbol -> multiplicative shock applied to that symbol's
// return series.
type Scenario map[string]float64

// ApplyStress shocks each symbol's return series by its scenario
// multiplier (returns unaffected by the scenario pass through unshocked),
// and returns the stressed portfolio's historical VaR.
func ApplyStress(weights map[string]float64, returns map[string][]float64, scenario Scenario, confidence float64) (float64, error) {
	shocked := make(map[string][]float64, len(returns))
	for sym, series := range returns {
		mult, ok := scenario[sym]
		if !ok {
			mult = 1
		}
		out := make([]float64, len(series))
		for i, r := range series {
			out[i] = r * mult
		}
		shocked[sym] = out
	}
	return PortfolioVaR(weights, shocked, confidence)
}

// BacktestResult is the outcome of comparing realized returns against a
// series of VaR forecasts over the same horizon: the observed violation
// count and rate, the expected rate implied by confidence, the Kupiec
// likelihood-ratio statistic and its chi-squared(1) p-value, and whether
// the null hypothesis (the model's violation rate matches confidence) is
// rejected at the 5% level.
type BacktestResult struct {
	Observations       int
	Violations         int
	ViolationRate      float64
	ExpectedRate       float64
	LikelihoodRatio    float64
	PValue             float64
	Reject             bool
}

// KupiecTest runs the proportion-of-failures backtest: a violation is a day
// where the realized return fell below that day's VaR forecast. Both
// series use the package's sign convention (more negative = worse), so a
// violation is returns[i] < varForecasts[i]. Fails InvalidInput if the
// series lengths differ, and InsufficientData on fewer than 2 observations.
func KupiecTest(returnsSeries, varForecasts []float64, confidence float64) (BacktestResult, error) {
	if err := validateConfidence(confidence); err != nil {
		return BacktestResult{}, err
	}
	if len(returnsSeries) != len(varForecasts) {
		return BacktestResult{}, result.New(result.InvalidInput, "returns and VaR forecast series must have equal length")
	}
	n := len(returnsSeries)
	if n < 2 {
		return BacktestResult{}, result.New(result.InsufficientData, "need at least 2 observations to backtest")
	}

	violations := 0
	for i := range returnsSeries {
		if returnsSeries[i] < varForecasts[i] {
			violations++
		}
	}

	expectedRate := 1 - confidence
	observedRate := float64(violations) / float64(n)

	lr := kupiecLR(n, violations, expectedRate)
	chi2 := distuv.ChiSquared{K: 1}
	pValue := 1 - chi2.CDF(lr)

	return BacktestResult{
		Observations:    n,
		Violations:      violations,
		ViolationRate:   observedRate,
		ExpectedRate:    expectedRate,
		LikelihoodRatio: lr,
		PValue:          pValue,
		Reject:          pValue < 0.05,
	}, nil
}

// kupiecLR computes the Kupiec proportion-of-failures likelihood-ratio
// statistic -2*ln[(1-p)^(n-x) p^x / (1-x/n)^(n-x) (x/n)^x], with the
// degenerate x=0 and x=n cases (which would otherwise take log(0)) handled
// by dropping the corresponding term, since it contributes probability 1
// in the limit.
func kupiecLR(n, x int, p float64) float64 {
	nf, xf := float64(n), float64(x)
	piHat := xf / nf

	logNull := (nf - xf) * math.Log(1-p)
	if x > 0 {
		logNull += xf * math.Log(p)
	}

	logAlt := 0.0
	if x > 0 && x < n {
		logAlt = (nf-xf)*math.Log(1-piHat) + xf*math.Log(piHat)
	}

	return -2 * (logNull - logAlt)
}
