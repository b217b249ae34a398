// Package regime implements market-regime detection: an ensemble of
// volatility/trend/tail threshold heuristics, a Hidden-Markov EM estimator
// via forward-backward, and CUSUM structural-break detection.
package regime

import (
	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/riskvar"
	"github.com/arfinch/quantcore/stats"
)

// RegimeType is one of the qualitative market states regime detection
// classifies a period into.
type RegimeType int

const (
	Bull RegimeType = iota
	Bear
	Volatile
	Stable
	Crisis
	Recovery
)

func (r RegimeType) String() string {
	switch r {
	case Bull:
		return "Bull"
	case Bear:
		return "Bear"
	case Volatile:
		return "Volatile"
	case Stable:
		return "Stable"
	case Crisis:
		return "Crisis"
	case Recovery:
		return "Recovery"
	default:
		return "Unknown"
	}
}

// EnsembleConfig carries the thresholds and lookback window of the default
// ensemble mode. Validated with struct tags like the rest of this module's
// config types.
type EnsembleConfig struct {
	Window         int     `validate:"required,gt=1"`
	VolThreshold   float64 `validate:"gt=0"`
	TrendThreshold float64 `validate:"gt=0"`
}

// DefaultEnsembleConfig returns the standard defaults: W=21, thetaV=0.02,
// thetaR=0.001.
func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{Window: 21, VolThreshold: 0.02, TrendThreshold: 0.001}
}

// Classification is the per-index output of ensemble detection: the
// combined regime and a confidence in [0,1].
type Classification struct {
	Regime     RegimeType
	Confidence float64
}

// Ensemble runs the default ensemble mode over a return series,
// emitting one Classification per index i >= cfg.Window-1 (earlier
// indices lack a full lookback window and are omitted).
func Ensemble(returnsSeries []float64, cfg EnsembleConfig) ([]Classification, error) {
	if err := result.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(returnsSeries) < cfg.Window {
		return nil, result.New(result.InsufficientData, "series shorter than the lookback window")
	}

	out := make([]Classification, 0, len(returnsSeries)-cfg.Window+1)
	for i := cfg.Window - 1; i < len(returnsSeries); i++ {
		window := returnsSeries[i-cfg.Window+1 : i+1]
		out = append(out, classifyOne(returnsSeries[i], window, cfg))
	}
	return out, nil
}

func classifyOne(current float64, window []float64, cfg EnsembleConfig) Classification {
	vol := stats.StdDev(window)
	mean := stats.Mean(window)

	// 1. Volatility regime.
	var volRegime RegimeType
	switch {
	case vol > 2*cfg.VolThreshold:
		volRegime = Crisis
	case vol > cfg.VolThreshold:
		volRegime = Volatile
	default:
		volRegime = Stable
	}

	// 2. Trend regime.
	var trendRegime RegimeType
	switch {
	case mean > cfg.TrendThreshold:
		trendRegime = Bull
	case mean < -cfg.TrendThreshold:
		trendRegime = Bear
	default:
		trendRegime = Recovery
	}

	// 3. Tail regime: current return vs. VaR(0.05) of the window.
	var tailRegime RegimeType
	varEstimate, err := riskvar.Historical(window, 0.95)
	if err == nil && current <= 1.5*varEstimate.VaR {
		tailRegime = Crisis
	} else {
		tailRegime = Recovery
	}

	signals := []RegimeType{volRegime, trendRegime, tailRegime}
	combined := combine(volRegime, trendRegime, tailRegime)

	matches := 0
	for _, s := range signals {
		if s == combined || impliesCombined(s, combined) {
			matches++
		}
	}
	return Classification{Regime: combined, Confidence: float64(matches) / 3.0}
}

// combine implements the combination rule: Crisis wins; else Volatile &
// Bear -> Bear; Volatile & Bull -> Volatile; Stable -> trend; default
// trend.
func combine(vol, trend, tail RegimeType) RegimeType {
	if vol == Crisis || tail == Crisis {
		return Crisis
	}
	if vol == Volatile && trend == Bear {
		return Bear
	}
	if vol == Volatile && trend == Bull {
		return Volatile
	}
	if vol == Stable {
		return trend
	}
	return trend
}

// impliesCombined reports whether signal s is consistent with the combined
// regime for confidence-counting purposes (e.g. a Volatile vol-signal that
// combined into Bear still "agrees" it isn't calm).
func impliesCombined(s, combined RegimeType) bool {
	if s == combined {
		return true
	}
	switch combined {
	case Bear:
		return s == Volatile || s == Bear
	case Volatile:
		return s == Volatile || s == Bull
	}
	return false
}
