// Package capacity bounds position sizing by liquidity and estimated
// market impact: given a desired position and a symbol's trading
// microstructure (average daily volume, spread, volatility), it reports
// the maximum tradable size under a participation-rate cap and the
// square-root-model impact cost of trading it.
package capacity

import (
	"math"

	"github.com/arfinch/quantcore/result"
)

// Microstructure carries the liquidity inputs for one symbol.
type Microstructure struct {
	AverageDailyVolume float64 // shares/day
	Price              float64
	Spread             float64 // bid-ask spread as a fraction of price
	Volatility         float64 // daily return volatility, used by the impact model
}

// Constraints bounds how aggressively a position can be built.
type Constraints struct {
	MaxParticipationRate float64 // fraction of ADV tradable per day, e.g. 0.1
	ImpactCoefficient    float64 // square-root impact model scale, eta
}

// DefaultConstraints returns a conservative 10% participation cap with a
// square-root impact coefficient of 0.1, a commonly used default for
// daily-bar impact estimates.
func DefaultConstraints() Constraints {
	return Constraints{MaxParticipationRate: 0.1, ImpactCoefficient: 0.1}
}

// Estimate is the result of sizing a desired position against liquidity
// constraints.
type Estimate struct {
	MaxTradableShares float64
	DaysToBuild       float64
	ImpactCostFraction float64 // estimated price impact as a fraction of price
	ImpactCostValue    float64 // impact cost in currency for the sized trade
	Constrained        bool    // true if desired exceeds MaxTradableShares
}

// Evaluate reports how much of a desired position (a positive share count)
// can be built against one day's liquidity budget, and the
// square-root-model impact cost of doing so. Fails InvalidInput if the
// desired shares, average daily volume or price is non-positive, or the
// participation rate is outside (0,1]; spread, volatility and the impact
// coefficient are not checked.
func Evaluate(desiredShares float64, m Microstructure, c Constraints) (*Estimate, error) {
	if desiredShares <= 0 {
		return nil, result.New(result.InvalidInput, "desired shares must be positive")
	}
	if m.AverageDailyVolume <= 0 || m.Price <= 0 {
		return nil, result.New(result.InvalidInput, "average daily volume and price must be positive")
	}
	if c.MaxParticipationRate <= 0 || c.MaxParticipationRate > 1 {
		return nil, result.New(result.InvalidInput, "participation rate must be in (0,1]")
	}

	dailyBudget := m.AverageDailyVolume * c.MaxParticipationRate
	tradable := math.Min(desiredShares, dailyBudget)

	participationFraction := tradable / m.AverageDailyVolume
	impactFraction := c.ImpactCoefficient * m.Volatility * math.Sqrt(participationFraction)
	impactFraction += m.Spread / 2

	daysToBuild := math.Ceil(desiredShares / dailyBudget)

	return &Estimate{
		MaxTradableShares:  dailyBudget,
		DaysToBuild:        daysToBuild,
		ImpactCostFraction: impactFraction,
		ImpactCostValue:    impactFraction * m.Price * tradable,
		Constrained:        desiredShares > dailyBudget,
	}, nil
}
