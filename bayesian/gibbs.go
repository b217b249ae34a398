// Package bayesian implements a Gibbs sampler for the model
// portfolio_excess_t = alpha + beta*benchmark_excess_t + eps_t,
// eps_t ~ N(0, sigma^2), with conjugate Normal/Normal/Gamma priors, drawing
// alpha, beta, and the residual precision in turn over a burn-in plus kept
// sample.
package bayesian

import (
	"math"
	"math/rand"
	"sort"

	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/stats"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"
)

// Priors holds the conjugate prior parameters of the regression model.
type Priors struct {
	MeanAlpha float64 `validate:"-"`
	VarAlpha  float64 `validate:"gt=0"`
	MeanBeta  float64 `validate:"-"`
	VarBeta   float64 `validate:"gt=0"`
	A0        float64 `validate:"gt=0"`
	B0        float64 `validate:"gt=0"`
}

// DefaultPriors returns weakly informative defaults: alpha ~ N(0, 0.01),
// beta ~ N(1, 0.25), precision ~ Gamma(2, 0.01).
func DefaultPriors() Priors {
	return Priors{MeanAlpha: 0, VarAlpha: 0.01, MeanBeta: 1, VarBeta: 0.25, A0: 2, B0: 0.01}
}

// Config parametrizes a Gibbs run.
type Config struct {
	BurnIn     int `validate:"gte=0"`
	Kept       int `validate:"gt=0"`
	Seed       int64
	Priors     Priors
}

// DefaultConfig returns sensible defaults: B=1000 burn-in, S=10000 kept.
func DefaultConfig() Config {
	return Config{BurnIn: 1000, Kept: 10000, Seed: 1, Priors: DefaultPriors()}
}

// Summary reports posterior mean/std/credible interval for one parameter.
type Summary struct {
	Mean       float64
	StdDev     float64
	CI025      float64
	CI975      float64
}

// PosteriorSummary is the full output of Fit: parameter summaries, the
// P(alpha>0)/P(beta>1) posterior probabilities, and the derived Sharpe
// posterior.
type PosteriorSummary struct {
	RunID          string
	Alpha          Summary
	Beta           Summary
	Sigma          Summary
	ProbAlphaPos   float64
	ProbBetaGT1    float64
	SharpePosterior Summary
}

// Fit runs B burn-in + S kept Gibbs iterations on portfolioExcess regressed
// on benchmarkExcess, returning posterior summaries. Fails InvalidInput on
// a series-length mismatch and InsufficientData below 30 observations.
func Fit(portfolioExcess, benchmarkExcess []float64, cfg Config, log zerolog.Logger) (*PosteriorSummary, error) {
	if err := result.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(portfolioExcess) != len(benchmarkExcess) {
		return nil, result.New(result.InvalidInput, "portfolio and benchmark excess series must have equal length")
	}
	n := len(portfolioExcess)
	if n < 30 {
		return nil, result.New(result.InsufficientData, "need at least 30 observations for the Bayesian sampler")
	}

	runID := uuid.NewString()
	log = log.With().Str("component", "bayesian_sampler").Str("run_id", runID).Logger()
	log.Info().Int("n", n).Int("burn_in", cfg.BurnIn).Int("kept", cfg.Kept).Msg("starting Gibbs sampler")

	rng := rand.New(rand.NewSource(cfg.Seed))
	p := cfg.Priors

	x, y := benchmarkExcess, portfolioExcess
	sumX, sumX2 := 0.0, 0.0
	for _, xi := range x {
		sumX += xi
		sumX2 += xi * xi
	}

	alpha, beta := 0.0, 1.0
	sigma2 := stats.Variance(y)
	if sigma2 <= 0 {
		sigma2 = 1e-4
	}

	alphaDraws := make([]float64, 0, cfg.Kept)
	betaDraws := make([]float64, 0, cfg.Kept)
	sigmaDraws := make([]float64, 0, cfg.Kept)

	total := cfg.BurnIn + cfg.Kept
	for iter := 0; iter < total; iter++ {
		// Sample alpha | beta, sigma, data.
		var sumResidA float64
		for i := range y {
			sumResidA += y[i] - beta*x[i]
		}
		tauAlphaStar := 1/p.VarAlpha + float64(n)/sigma2
		muAlphaStar := (p.MeanAlpha/p.VarAlpha + sumResidA/sigma2) / tauAlphaStar
		alpha = muAlphaStar + math.Sqrt(1/tauAlphaStar)*rng.NormFloat64()

		// Sample beta | alpha, sigma, data, using x-weighted sufficient
		// statistics.
		var sumXResidB float64
		for i := range y {
			sumXResidB += x[i] * (y[i] - alpha)
		}
		tauBetaStar := 1/p.VarBeta + sumX2/sigma2
		muBetaStar := (p.MeanBeta/p.VarBeta + sumXResidB/sigma2) / tauBetaStar
		beta = muBetaStar + math.Sqrt(1/tauBetaStar)*rng.NormFloat64()

		// Sample precision tau | alpha, beta ~ Gamma(a0+N/2, b0+SSE/2).
		var sse float64
		for i := range y {
			resid := y[i] - alpha - beta*x[i]
			sse += resid * resid
		}
		gammaShape := p.A0 + float64(n)/2
		gammaRate := p.B0 + sse/2
		gammaDist := distuv.Gamma{Alpha: gammaShape, Beta: gammaRate, Src: rng}
		tau := gammaDist.Rand()
		if tau <= 0 {
			tau = 1e-12
		}
		sigma2 = 1 / tau

		if iter >= cfg.BurnIn {
			alphaDraws = append(alphaDraws, alpha)
			betaDraws = append(betaDraws, beta)
			sigmaDraws = append(sigmaDraws, math.Sqrt(sigma2))
		}
	}

	log.Info().Msg("Gibbs sampler complete")

	benchMean := stats.Mean(benchmarkExcess)
	sharpeDraws := make([]float64, len(alphaDraws))
	for i := range sharpeDraws {
		if sigmaDraws[i] == 0 {
			sharpeDraws[i] = 0
			continue
		}
		sharpeDraws[i] = (alphaDraws[i] + betaDraws[i]*benchMean) / sigmaDraws[i]
	}

	return &PosteriorSummary{
		RunID:           runID,
		Alpha:           summarize(alphaDraws),
		Beta:            summarize(betaDraws),
		Sigma:           summarize(sigmaDraws),
		ProbAlphaPos:    probAbove(alphaDraws, 0),
		ProbBetaGT1:     probAbove(betaDraws, 1),
		SharpePosterior: summarize(sharpeDraws),
	}, nil
}

func summarize(draws []float64) Summary {
	sorted := make([]float64, len(draws))
	copy(sorted, draws)
	sort.Float64s(sorted)
	lo, _ := stats.Quantile(sorted, 0.025)
	hi, _ := stats.Quantile(sorted, 0.975)
	return Summary{
		Mean:   stats.Mean(draws),
		StdDev: stats.StdDev(draws),
		CI025:  lo,
		CI975:  hi,
	}
}

func probAbove(draws []float64, threshold float64) float64 {
	if len(draws) == 0 {
		return 0
	}
	count := 0
	for _, d := range draws {
		if d > threshold {
			count++
		}
	}
	return float64(count) / float64(len(draws))
}
