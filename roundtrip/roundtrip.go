// Package roundtrip reconstructs closed positions from a trade stream by
// FIFO lot matching: a queue of open lots per symbol is consumed by
// subsequent opposite-side fills, producing completed round trips plus
// whatever open lots remain, and aggregate statistics over the result.
package roundtrip

import (
	"math"
	"time"

	"github.com/arfinch/quantcore/result"
	"github.com/google/uuid"
)

// Trade is one fill: shares is signed, positive for buy, negative for sell.
type Trade struct {
	Symbol     string
	Shares     float64
	Price      float64
	Timestamp  time.Time
	Commission float64
	Slippage   float64
}

// RoundTrip is one closed (fully matched) position.
type RoundTrip struct {
	ID              string
	Symbol          string
	OpenTimestamp   time.Time
	CloseTimestamp  time.Time
	Shares          float64 // matched quantity, always positive
	Long            bool
	OpenPrice       float64
	ClosePrice      float64
	OpenCommission  float64
	CloseCommission float64
	OpenSlippage    float64
	CloseSlippage   float64
}

// GrossPnL is matched*(close-open), signed by direction.
func (r RoundTrip) GrossPnL() float64 {
	direction := 1.0
	if !r.Long {
		direction = -1.0
	}
	return direction * r.Shares * (r.ClosePrice - r.OpenPrice)
}

// NetPnL subtracts allocated commissions and both legs' slippage from
// GrossPnL.
func (r RoundTrip) NetPnL() float64 {
	costs := r.OpenCommission + r.CloseCommission + r.OpenSlippage + r.CloseSlippage
	return r.GrossPnL() - costs
}

// Duration is close minus open timestamp.
func (r RoundTrip) Duration() time.Duration { return r.CloseTimestamp.Sub(r.OpenTimestamp) }

type lot struct {
	timestamp  time.Time
	shares     float64 // always positive; direction tracked by long field
	long       bool
	price      float64
	commission float64
	slippage   float64
}

// OpenLot is an unmatched remainder reported alongside completed round
// trips.
type OpenLot struct {
	Symbol     string
	Timestamp  time.Time
	Shares     float64
	Long       bool
	Price      float64
	Commission float64
	Slippage   float64
}

// BuildResult is the output of Build: completed round trips in fill order
// and any lots left open at the end of the trade stream.
type BuildResult struct {
	RoundTrips []RoundTrip
	OpenLots   []OpenLot
}

// Build reconstructs round trips from a time-ordered trade stream via FIFO
// matching per symbol. A sell against an empty or insufficient
// long queue opens a short lot for the unmatched remainder, and vice
// versa; mirror logic applies for shorts.
func Build(trades []Trade) (*BuildResult, error) {
	if len(trades) == 0 {
		return nil, result.New(result.InsufficientData, "need at least one trade to build round trips")
	}
	for _, tr := range trades {
		if tr.Price <= 0 {
			return nil, result.New(result.InvalidInput, "trade price must be positive")
		}
		if tr.Shares == 0 {
			return nil, result.New(result.InvalidInput, "trade shares must be non-zero")
		}
	}

	queues := map[string][]lot{}
	var roundTrips []RoundTrip

	for _, tr := range trades {
		q := queues[tr.Symbol]
		incomingLong := tr.Shares > 0
		remaining := math.Abs(tr.Shares)
		perShareCommission := tr.Commission / math.Abs(tr.Shares)
		perShareSlippage := tr.Slippage / math.Abs(tr.Shares)

		for remaining > 0 && len(q) > 0 && q[0].long != incomingLong {
			front := &q[0]
			matched := math.Min(remaining, front.shares)
			fraction := matched / front.shares
			allocOpenCommission := front.commission * fraction
			allocOpenSlippage := front.slippage * fraction

			rt := RoundTrip{
				ID:              uuid.NewString(),
				Symbol:          tr.Symbol,
				OpenTimestamp:   front.timestamp,
				CloseTimestamp:  tr.Timestamp,
				Shares:          matched,
				Long:            front.long,
				OpenPrice:       front.price,
				ClosePrice:      tr.Price,
				OpenCommission:  allocOpenCommission,
				OpenSlippage:    allocOpenSlippage,
				CloseCommission: perShareCommission * matched,
				CloseSlippage:   perShareSlippage * matched,
			}
			roundTrips = append(roundTrips, rt)

			front.shares -= matched
			front.commission -= allocOpenCommission
			front.slippage -= allocOpenSlippage
			remaining -= matched
			if front.shares <= 1e-12 {
				q = q[1:]
			}
		}

		if remaining > 1e-12 {
			q = append(q, lot{
				timestamp:  tr.Timestamp,
				shares:     remaining,
				long:       incomingLong,
				price:      tr.Price,
				commission: perShareCommission * remaining,
				slippage:   perShareSlippage * remaining,
			})
		}
		queues[tr.Symbol] = q
	}

	var openLots []OpenLot
	for symbol, q := range queues {
		for _, l := range q {
			openLots = append(openLots, OpenLot{
				Symbol:     symbol,
				Timestamp:  l.timestamp,
				Shares:     l.shares,
				Long:       l.long,
				Price:      l.price,
				Commission: l.commission,
				Slippage:   l.slippage,
			})
		}
	}

	return &BuildResult{RoundTrips: roundTrips, OpenLots: openLots}, nil
}

// DurationBucket classifies a round trip's duration into one of a fixed
// set of buckets.
type DurationBucket string

const (
	Intraday   DurationBucket = "intraday"
	Days1      DurationBucket = "1d"
	Days2to5   DurationBucket = "2-5d"
	Days6to10  DurationBucket = "6-10d"
	Days11to21 DurationBucket = "11-21d"
	Days22to42 DurationBucket = "22-42d"
	Days43to63 DurationBucket = "43-63d"
	Days64Plus DurationBucket = "64+d"
)

// Bucket classifies a round trip's duration.
func Bucket(d time.Duration) DurationBucket {
	days := d.Hours() / 24
	switch {
	case days < 1:
		return Intraday
	case days <= 1:
		return Days1
	case days <= 5:
		return Days2to5
	case days <= 10:
		return Days6to10
	case days <= 21:
		return Days11to21
	case days <= 42:
		return Days22to42
	case days <= 63:
		return Days43to63
	default:
		return Days64Plus
	}
}

// Aggregate summarizes a set of round trips: win rate, mean P&L, mean
// duration, and profit factor (sum of wins / sum of |losses|).
type Aggregate struct {
	Count        int
	WinRate      float64
	MeanPnL      float64
	MeanDuration time.Duration
	ProfitFactor float64
}

// Summarize computes aggregate statistics over round trips, grouped by
// bucketKey (e.g. symbol, or string(Bucket(rt.Duration()))). Pass a
// constant key to get an ungrouped summary.
func Summarize(trips []RoundTrip, bucketKey func(RoundTrip) string) map[string]Aggregate {
	groups := map[string][]RoundTrip{}
	for _, rt := range trips {
		key := bucketKey(rt)
		groups[key] = append(groups[key], rt)
	}

	out := make(map[string]Aggregate, len(groups))
	for key, group := range groups {
		wins, losses := 0, 0
		var sumPnL, sumWins, sumLosses float64
		var sumDuration time.Duration
		for _, rt := range group {
			pnl := rt.NetPnL()
			sumPnL += pnl
			sumDuration += rt.Duration()
			if pnl > 0 {
				wins++
				sumWins += pnl
			} else if pnl < 0 {
				losses++
				sumLosses += -pnl
			}
		}
		n := len(group)
		profitFactor := math.Inf(1)
		if sumLosses > 0 {
			profitFactor = sumWins / sumLosses
		} else if sumWins == 0 {
			profitFactor = 0
		}
		out[key] = Aggregate{
			Count:        n,
			WinRate:      float64(wins) / float64(n),
			MeanPnL:      sumPnL / float64(n),
			MeanDuration: sumDuration / time.Duration(n),
			ProfitFactor: profitFactor,
		}
	}
	return out
}
