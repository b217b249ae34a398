// Package backtest composes the rest of the analytics core into a
// day-by-day strategy -> target weights -> orders -> fills -> P&L ->
// metrics loop, producing a return series, drawdown and Sharpe summary,
// and reconstructed round trips from the simulated trades.
package backtest

import (
	"time"

	"github.com/arfinch/quantcore/calendar"
	"github.com/arfinch/quantcore/drawdown"
	"github.com/arfinch/quantcore/holdings"
	"github.com/arfinch/quantcore/result"
	"github.com/arfinch/quantcore/returns"
	"github.com/arfinch/quantcore/roundtrip"
	"github.com/rs/zerolog"
)

// State is the information a Strategy sees when asked to rebalance: the
// current timestamp, current holdings, and the trailing return history for
// every tradable symbol up to and including the current day.
type State struct {
	Timestamp time.Time
	Holdings  *holdings.PortfolioHoldings
	History   map[string][]float64
}

// Strategy is the capability set {target_weights(state), name()} called
// each day: an explicit interface object rather than virtual dispatch
// across a strategy type hierarchy.
type Strategy interface {
	TargetWeights(state State) (map[string]float64, error)
	Name() string
}

// MarketDay is one day's closing prices for every tradable symbol.
type MarketDay struct {
	Timestamp time.Time
	Prices    map[string]float64
}

// Config parametrizes a backtest run.
type Config struct {
	InitialCash        float64 `validate:"gt=0"`
	CommissionPerShare float64 `validate:"gte=0"`
	SlippageFraction   float64 `validate:"gte=0"` // fraction of price charged as slippage per share
	Frequency          calendar.Frequency
}

// DayResult captures one simulated day's holdings snapshot and the orders
// generated to reach the strategy's target weights.
type DayResult struct {
	Timestamp time.Time
	Holdings  *holdings.PortfolioHoldings
	Orders    map[string]float64 // signed shares traded per symbol
}

// Summary is the final report of a backtest run: the daily equity return
// series, drawdown statistics, return ratios, and reconstructed round
// trips.
type Summary struct {
	Days           []DayResult
	ReturnSeries   []float64
	MaxDrawdown    float64
	Sharpe         float64
	RoundTrips     *roundtrip.BuildResult
}

// Run executes the day-by-day loop: strategy produces target weights,
// weights translate into orders against current holdings, orders fill at
// the day's price plus slippage/commission, and holdings are repriced to
// the next day's closes. Fails InsufficientData with fewer than two market
// days.
func Run(days []MarketDay, strat Strategy, cfg Config, log zerolog.Logger) (*Summary, error) {
	if err := result.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if len(days) < 2 {
		return nil, result.New(result.InsufficientData, "need at least two market days to backtest")
	}

	log = log.With().Str("component", "backtest").Str("strategy", strat.Name()).Logger()

	port, err := holdings.New(cfg.InitialCash, map[string]holdings.Holding{})
	if err != nil {
		return nil, err
	}

	history := map[string][]float64{}
	for sym := range days[0].Prices {
		history[sym] = nil
	}

	var dayResults []DayResult
	var trades []roundtrip.Trade
	equity := make([]float64, 0, len(days))
	equity = append(equity, port.TotalValue())

	for i, day := range days {
		port = port.Reprice(day.Prices)

		if i > 0 {
			prevClose := days[i-1].Prices
			for sym, px := range day.Prices {
				if prev, ok := prevClose[sym]; ok && prev > 0 {
					history[sym] = append(history[sym], px/prev-1)
				}
			}
		}

		target, err := strat.TargetWeights(State{Timestamp: day.Timestamp, Holdings: port, History: history})
		if err != nil {
			return nil, err
		}

		orders, newPort, dayTrades, err := rebalance(port, day, target, cfg)
		if err != nil {
			return nil, err
		}
		port = newPort
		trades = append(trades, dayTrades...)

		dayResults = append(dayResults, DayResult{Timestamp: day.Timestamp, Holdings: port, Orders: orders})
		equity = append(equity, port.TotalValue())

		log.Debug().Time("date", day.Timestamp).Float64("total_value", port.TotalValue()).Msg("backtest day complete")
	}

	returnSeries := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			returnSeries = append(returnSeries, 0)
			continue
		}
		returnSeries = append(returnSeries, equity[i]/equity[i-1]-1)
	}

	maxDD, err := drawdown.Max(returnSeries)
	if err != nil {
		return nil, err
	}

	sharpe, sharpeErr := returns.Sharpe(returnSeries, 0, cfg.Frequency)
	if sharpeErr != nil {
		sharpe = 0
	}

	var trips *roundtrip.BuildResult
	if len(trades) > 0 {
		trips, err = roundtrip.Build(trades)
		if err != nil {
			return nil, err
		}
	}

	return &Summary{
		Days:         dayResults,
		ReturnSeries: returnSeries,
		MaxDrawdown:  maxDD,
		Sharpe:       sharpe,
		RoundTrips:   trips,
	}, nil
}

// rebalance converts target weights into per-symbol orders against the
// current portfolio's market values, executes them at the day's price plus
// slippage/commission, and returns the updated portfolio plus any trades
// generated.
func rebalance(port *holdings.PortfolioHoldings, day MarketDay, target map[string]float64, cfg Config) (map[string]float64, *holdings.PortfolioHoldings, []roundtrip.Trade, error) {
	total := port.TotalValue()
	orders := map[string]float64{}
	var trades []roundtrip.Trade

	nextHoldings := make(map[string]holdings.Holding, len(port.Holdings))
	for sym, h := range port.Holdings {
		nextHoldings[sym] = h
	}

	cash := port.Cash
	for sym, weight := range target {
		px, ok := day.Prices[sym]
		if !ok || px <= 0 {
			continue
		}
		targetValue := weight * total
		targetShares := targetValue / px

		current := nextHoldings[sym]
		deltaShares := targetShares - current.Shares
		if deltaShares == 0 {
			continue
		}
		orders[sym] = deltaShares

		commission := cfg.CommissionPerShare * abs(deltaShares)
		slippagePerShare := cfg.SlippageFraction * px
		fillPrice := px
		if deltaShares > 0 {
			fillPrice += slippagePerShare
		} else {
			fillPrice -= slippagePerShare
		}

		cost := deltaShares*fillPrice + commission
		cash -= cost

		newShares := current.Shares + deltaShares
		newAvgCost := current.AverageCost
		if deltaShares > 0 {
			newAvgCost = (current.Shares*current.AverageCost + deltaShares*fillPrice) / newShares
		}
		nextHoldings[sym] = holdings.Holding{
			Symbol:       sym,
			Shares:       newShares,
			AverageCost:  newAvgCost,
			CurrentPrice: px,
		}

		trades = append(trades, roundtrip.Trade{
			Symbol:     sym,
			Shares:     deltaShares,
			Price:      fillPrice,
			Timestamp:  day.Timestamp,
			Commission: commission,
			Slippage:   slippagePerShare * abs(deltaShares),
		})
	}

	next, err := holdings.New(cash, nextHoldings)
	if err != nil {
		return nil, nil, nil, err
	}
	return orders, next, trades, nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
