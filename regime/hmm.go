package regime

import (
	"math"
	"math/rand"

	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// HMMConfig parametrizes the Gaussian-emission Markov-switching fit.
type HMMConfig struct {
	NumRegimes     int     `validate:"gte=2,lte=5"`
	MaxIterations  int     `validate:"gt=0"`
	Tolerance      float64 `validate:"gt=0"`
	TrendThreshold float64
	Seed           int64
}

// DefaultHMMConfig returns sensible defaults: max_iter=200, tol=1e-6.
func DefaultHMMConfig(numRegimes int) HMMConfig {
	return HMMConfig{NumRegimes: numRegimes, MaxIterations: 200, Tolerance: 1e-6, TrendThreshold: 0.001, Seed: 1}
}

// HMMFit is the output of FitHMM: the estimated regime per index, a
// per-index posterior confidence, the estimated transition matrix, and
// per-regime summaries.
type HMMFit struct {
	Regimes        []RegimeType
	Confidence     []float64
	Transition     *mat.Dense // NumRegimes x NumRegimes
	Mu             []float64
	Sigma          []float64
	Summaries      []RegimeSummary
	LogLikelihood  float64
	Iterations     int
}

// RegimeSummary reports per-regime mean, volatility, probability mass, and
// mean dwell time 1/(1-Pkk).
type RegimeSummary struct {
	Regime       RegimeType
	Mean         float64
	Volatility   float64
	Probability  float64
	MeanDwell    float64
}

// FitHMM fits a K-regime Gaussian HMM to a return series via iterative
// forward-backward (Baum-Welch-style EM). NOTE: the transition re-estimation
// step uses the under-coupled approximation gamma_t(i)*gamma_t+1(j) in place
// of the true joint posterior xi_t(i,j) — kept intentionally, not silently
// corrected.
func FitHMM(returnsSeries []float64, cfg HMMConfig, log zerolog.Logger) (*HMMFit, error) {
	if err := result.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	n := len(returnsSeries)
	if n < 20 {
		return nil, result.New(result.InsufficientData, "need at least 20 observations to fit an HMM")
	}
	k := cfg.NumRegimes
	rng := rand.New(rand.NewSource(cfg.Seed))

	overallMean := stats.Mean(returnsSeries)
	overallStd := stats.StdDev(returnsSeries)
	if overallStd == 0 {
		overallStd = 1e-6
	}

	mu := make([]float64, k)
	sigma := make([]float64, k)
	for i := 0; i < k; i++ {
		mu[i] = overallMean + overallStd*0.5*(rng.Float64()*2-1)
		sigma[i] = overallStd * (0.7 + 0.6*rng.Float64())
	}

	trans := mat.NewDense(k, k, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			trans.Set(i, j, 1.0/float64(k))
		}
	}
	initial := make([]float64, k)
	for i := range initial {
		initial[i] = 1.0 / float64(k)
	}

	var prevLL float64
	var ll float64
	iter := 0
	var beta, gamma [][]float64

	for iter = 0; iter < cfg.MaxIterations; iter++ {
		alpha, scales, llVal := forward(returnsSeries, initial, trans, mu, sigma)
		beta = backward(returnsSeries, trans, mu, sigma, scales)
		gamma = smooth(alpha, beta)
		ll = llVal

		reestimate(returnsSeries, gamma, &mu, &sigma, trans)
		for i := range initial {
			initial[i] = gamma[0][i]
		}

		log.Debug().Int("iteration", iter).Float64("log_likelihood", ll).Msg("HMM EM iteration")

		if iter > 0 && math.Abs(ll-prevLL) < cfg.Tolerance {
			iter++
			break
		}
		prevLL = ll
	}

	regimes := make([]RegimeType, n)
	confidence := make([]float64, n)
	for t := 0; t < n; t++ {
		bestK, bestP := 0, gamma[t][0]
		for i := 1; i < k; i++ {
			if gamma[t][i] > bestP {
				bestK, bestP = i, gamma[t][i]
			}
		}
		regimes[t] = muToRegime(mu[bestK], cfg.TrendThreshold)
		confidence[t] = bestP
	}

	summaries := make([]RegimeSummary, k)
	for i := 0; i < k; i++ {
		mass := 0.0
		for t := 0; t < n; t++ {
			mass += gamma[t][i]
		}
		mass /= float64(n)
		selfTrans := trans.At(i, i)
		dwell := math.Inf(1)
		if selfTrans < 1 {
			dwell = 1 / (1 - selfTrans)
		}
		summaries[i] = RegimeSummary{
			Regime:      muToRegime(mu[i], cfg.TrendThreshold),
			Mean:        mu[i],
			Volatility:  sigma[i],
			Probability: mass,
			MeanDwell:   dwell,
		}
	}

	return &HMMFit{
		Regimes:       regimes,
		Confidence:    confidence,
		Transition:    trans,
		Mu:            mu,
		Sigma:         sigma,
		Summaries:     summaries,
		LogLikelihood: ll,
		Iterations:    iter,
	}, nil
}

func gaussianPDF(x, mu, sigma float64) float64 {
	if sigma <= 0 {
		sigma = 1e-6
	}
	z := (x - mu) / sigma
	return math.Exp(-0.5*z*z) / (sigma * math.Sqrt(2*math.Pi))
}

// forward computes scaled filtered probabilities alpha_t(k) and the
// per-step scaling factors used for a numerically stable log-likelihood.
func forward(returnsSeries []float64, initial []float64, trans *mat.Dense, mu, sigma []float64) (alpha [][]float64, scales []float64, logLikelihood float64) {
	n := len(returnsSeries)
	k := len(mu)
	alpha = make([][]float64, n)
	scales = make([]float64, n)

	alpha[0] = make([]float64, k)
	var sum0 float64
	for i := 0; i < k; i++ {
		alpha[0][i] = initial[i] * gaussianPDF(returnsSeries[0], mu[i], sigma[i])
		sum0 += alpha[0][i]
	}
	if sum0 == 0 {
		sum0 = 1e-300
	}
	for i := 0; i < k; i++ {
		alpha[0][i] /= sum0
	}
	scales[0] = sum0
	logLikelihood = math.Log(sum0)

	for t := 1; t < n; t++ {
		alpha[t] = make([]float64, k)
		var sumT float64
		for j := 0; j < k; j++ {
			var predicted float64
			for i := 0; i < k; i++ {
				predicted += alpha[t-1][i] * trans.At(i, j)
			}
			alpha[t][j] = predicted * gaussianPDF(returnsSeries[t], mu[j], sigma[j])
			sumT += alpha[t][j]
		}
		if sumT == 0 {
			sumT = 1e-300
		}
		for j := 0; j < k; j++ {
			alpha[t][j] /= sumT
		}
		scales[t] = sumT
		logLikelihood += math.Log(sumT)
	}
	return alpha, scales, logLikelihood
}

// backward computes scaled backward probabilities beta_t(k) using the same
// per-step scale factors the forward pass produced.
func backward(returnsSeries []float64, trans *mat.Dense, mu, sigma, scales []float64) [][]float64 {
	n := len(returnsSeries)
	k := len(mu)
	beta := make([][]float64, n)
	beta[n-1] = make([]float64, k)
	for i := range beta[n-1] {
		beta[n-1][i] = 1
	}
	for t := n - 2; t >= 0; t-- {
		beta[t] = make([]float64, k)
		for i := 0; i < k; i++ {
			var acc float64
			for j := 0; j < k; j++ {
				acc += trans.At(i, j) * gaussianPDF(returnsSeries[t+1], mu[j], sigma[j]) * beta[t+1][j]
			}
			beta[t][i] = acc / scales[t+1]
		}
	}
	return beta
}

// smooth computes gamma_t(k) ∝ alpha_t(k)*beta_t(k), normalized.
func smooth(alpha, beta [][]float64) [][]float64 {
	n := len(alpha)
	k := len(alpha[0])
	gamma := make([][]float64, n)
	for t := 0; t < n; t++ {
		gamma[t] = make([]float64, k)
		var sum float64
		for i := 0; i < k; i++ {
			gamma[t][i] = alpha[t][i] * beta[t][i]
			sum += gamma[t][i]
		}
		if sum == 0 {
			sum = 1e-300
		}
		for i := 0; i < k; i++ {
			gamma[t][i] /= sum
		}
	}
	return gamma
}

// reestimate applies the M-step: mu_k, sigma_k^2 (floored at
// 1e-6), and P_jk re-estimated from gamma_t(j)*gamma_t+1(k) (the documented
// under-coupled approximation, not the true joint posterior).
func reestimate(returnsSeries []float64, gamma [][]float64, mu, sigma *[]float64, trans *mat.Dense) {
	n := len(returnsSeries)
	k := len(*mu)

	newMu := make([]float64, k)
	newSigma := make([]float64, k)
	for i := 0; i < k; i++ {
		var num, denom float64
		for t := 0; t < n; t++ {
			num += gamma[t][i] * returnsSeries[t]
			denom += gamma[t][i]
		}
		if denom == 0 {
			denom = 1e-300
		}
		newMu[i] = num / denom

		var varNum float64
		for t := 0; t < n; t++ {
			d := returnsSeries[t] - newMu[i]
			varNum += gamma[t][i] * d * d
		}
		v := varNum / denom
		if v < 1e-6 {
			v = 1e-6
		}
		newSigma[i] = math.Sqrt(v)
	}
	*mu = newMu
	*sigma = newSigma

	for j := 0; j < k; j++ {
		var rowSum float64
		row := make([]float64, k)
		for l := 0; l < k; l++ {
			var acc float64
			for t := 0; t < n-1; t++ {
				acc += gamma[t][j] * gamma[t+1][l]
			}
			row[l] = acc
			rowSum += acc
		}
		if rowSum == 0 {
			rowSum = 1e-300
		}
		for l := 0; l < k; l++ {
			trans.Set(j, l, row[l]/rowSum)
		}
	}
}

func muToRegime(mu, trendThreshold float64) RegimeType {
	switch {
	case mu > trendThreshold:
		return Bull
	case mu < -trendThreshold:
		return Bear
	default:
		return Stable
	}
}
