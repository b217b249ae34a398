// Package holdings models per-symbol positions and portfolio valuation:
// shares, cost basis, current mark, and the derived market value,
// unrealized P&L, and weight of each holding within a portfolio.
package holdings

import (
	"math"
	"sort"

	"github.com/arfinch/quantcore/result"
)

// Holding is one symbol's position: shares held, average cost basis, and
// current mark. MarketValue, CostBasis, UnrealizedPnL, and Weight are
// derived — never set directly.
type Holding struct {
	Symbol       string
	Shares       float64
	AverageCost  float64
	CurrentPrice float64
}

// MarketValue is shares*current_price.
func (h Holding) MarketValue() float64 { return h.Shares * h.CurrentPrice }

// CostBasis is shares*average_cost.
func (h Holding) CostBasis() float64 { return h.Shares * h.AverageCost }

// UnrealizedPnL is market_value - cost_basis.
func (h Holding) UnrealizedPnL() float64 { return h.MarketValue() - h.CostBasis() }

// PortfolioHoldings is a cash balance plus a map of symbol to Holding,
// representing the portfolio state at one instant. Constructed only via
// New, which enforces that total_value/weight are always computable.
type PortfolioHoldings struct {
	Cash     float64
	Holdings map[string]Holding
}

// New does not require shares != 0 (a flat/zero position is legal
// bookkeeping), but rejects negative cash, which cannot arise from a
// consistent ledger. A nil holdings map is treated as an empty one.
func New(cash float64, byHolding map[string]Holding) (*PortfolioHoldings, error) {
	if cash < 0 {
		return nil, result.New(result.InvalidInput, "cash balance cannot be negative")
	}
	if byHolding == nil {
		byHolding = map[string]Holding{}
	}
	copied := make(map[string]Holding, len(byHolding))
	for k, v := range byHolding {
		copied[k] = v
	}
	return &PortfolioHoldings{Cash: cash, Holdings: copied}, nil
}

// TotalValue is cash + sum of market values across all holdings.
func (p *PortfolioHoldings) TotalValue() float64 {
	total := p.Cash
	for _, h := range p.Holdings {
		total += h.MarketValue()
	}
	return total
}

// Weight returns symbol's market_value / TotalValue, or 0 if the symbol is
// absent or total value is 0.
func (p *PortfolioHoldings) Weight(symbol string) float64 {
	total := p.TotalValue()
	h, ok := p.Holdings[symbol]
	if !ok || total == 0 {
		return 0
	}
	return h.MarketValue() / total
}

// CashWeight is cash / TotalValue, 0 if total value is 0.
func (p *PortfolioHoldings) CashWeight() float64 {
	total := p.TotalValue()
	if total == 0 {
		return 0
	}
	return p.Cash / total
}

// Weights returns every symbol's weight keyed by symbol. The map has no
// defined iteration order; use Symbols for a sorted list of keys.
func (p *PortfolioHoldings) Weights() map[string]float64 {
	out := make(map[string]float64, len(p.Holdings))
	total := p.TotalValue()
	if total == 0 {
		return out
	}
	for sym, h := range p.Holdings {
		out[sym] = h.MarketValue() / total
	}
	return out
}

// Symbols returns the held symbols in sorted order.
func (p *PortfolioHoldings) Symbols() []string {
	out := make([]string, 0, len(p.Holdings))
	for sym := range p.Holdings {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Reprice returns a new PortfolioHoldings with updated current prices for
// the given symbols, leaving shares and average cost untouched. Symbols not
// present in marks are left at their existing price.
func (p *PortfolioHoldings) Reprice(marks map[string]float64) *PortfolioHoldings {
	next := make(map[string]Holding, len(p.Holdings))
	for sym, h := range p.Holdings {
		if px, ok := marks[sym]; ok {
			h.CurrentPrice = px
		}
		next[sym] = h
	}
	return &PortfolioHoldings{Cash: p.Cash, Holdings: next}
}

// ConcentrationMetrics summarizes how concentrated a portfolio's exposure
// is across its holdings: the Herfindahl index (sum of squared weights),
// the share of total value held in the top 5/10 positions by weight, the
// Gini coefficient of the weight distribution, and the "effective number
// of positions" 1/HHI implies.
type ConcentrationMetrics struct {
	HerfindahlIndex    float64
	Top5Concentration  float64
	Top10Concentration float64
	GiniCoefficient    float64
	EffectivePositions int
}

// Concentration computes ConcentrationMetrics over the absolute value of
// each holding's weight (a short position contributes its magnitude, not
// its sign, to concentration). Fails InsufficientData on an empty
// portfolio.
func (p *PortfolioHoldings) Concentration() (ConcentrationMetrics, error) {
	if len(p.Holdings) == 0 {
		return ConcentrationMetrics{}, result.New(result.InsufficientData, "no holdings to analyze")
	}

	weights := make([]float64, 0, len(p.Holdings))
	for _, w := range p.Weights() {
		weights = append(weights, math.Abs(w))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(weights)))

	var metrics ConcentrationMetrics
	for _, w := range weights {
		metrics.HerfindahlIndex += w * w
	}
	metrics.Top5Concentration = sumTop(weights, 5)
	metrics.Top10Concentration = sumTop(weights, 10)
	metrics.GiniCoefficient = giniCoefficient(weights)
	if metrics.HerfindahlIndex > 0 {
		metrics.EffectivePositions = int(1.0 / metrics.HerfindahlIndex)
	}
	return metrics, nil
}

func sumTop(sortedDesc []float64, n int) float64 {
	if n > len(sortedDesc) {
		n = len(sortedDesc)
	}
	var sum float64
	for _, w := range sortedDesc[:n] {
		sum += w
	}
	return sum
}

// giniCoefficient computes the Gini coefficient of weights (order
// irrelevant to the result) via the standard mean-absolute-difference
// formula, in [0, 1) for non-negative inputs.
func giniCoefficient(weights []float64) float64 {
	n := len(weights)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, weights)
	sort.Float64s(sorted)

	var numerator, sum float64
	for i, w := range sorted {
		numerator += float64(2*(i+1)-n-1) * w
		sum += w
	}
	if sum == 0 {
		return 0
	}
	return numerator / (float64(n) * sum)
}
