// Package attribution computes Brinson-Hood-Beebower sector-level
// performance attribution: for each sector, how much of the active return
// came from over/underweighting it (allocation) versus picking better or
// worse securities within it (selection and interaction), across one or
// more periods with a consistency check.
package attribution

import (
	"math"
	"sort"

	"github.com/arfinch/quantcore/result"
)

// SectorInput is one sector's portfolio/benchmark weight and return for a
// single period.
type SectorInput struct {
	Sector             string
	PortfolioWeight    float64
	BenchmarkWeight    float64
	PortfolioReturn    float64
	BenchmarkReturn    float64
}

// SectorEffect is one sector's decomposed contribution for a period.
type SectorEffect struct {
	Sector      string
	Allocation  float64
	Selection   float64
	Interaction float64
	Total       float64
}

// PeriodResult is one period's full sector breakdown plus the portfolio and
// benchmark aggregate returns.
type PeriodResult struct {
	Sectors          []SectorEffect
	PortfolioReturn  float64
	BenchmarkReturn  float64
	ActiveReturn     float64
	SumOfEffects     float64
}

// Formula selects which allocation-effect variant Compute uses. The
// library's historical default is Source; Textbook computes the commonly
// taught (wP-wB)*(rB_s - rB) variant instead. Source always satisfies the
// total == active_return identity; Textbook satisfies it when portfolio
// and benchmark weights have equal sums (otherwise its total differs by
// rB*(sum wP - sum wB)). The two differ in how much of the difference
// lands in allocation.
type Formula int

const (
	// Source uses the simplified allocation effect (wP_s-wB_s)*rB_s, the
	// historical default of this library.
	Source Formula = iota
	// Textbook uses the benchmark-relative allocation effect
	// (wP_s-wB_s)*(rB_s-rB).
	Textbook
)

// Compute runs single-period Brinson decomposition over the given sector
// inputs using formula. Fails InvalidInput if inputs is empty or weights
// are negative.
func Compute(inputs []SectorInput, formula Formula) (*PeriodResult, error) {
	if len(inputs) == 0 {
		return nil, result.New(result.InvalidInput, "need at least one sector input")
	}
	var portfolioReturn, benchmarkReturn float64
	for _, s := range inputs {
		if s.PortfolioWeight < 0 || s.BenchmarkWeight < 0 {
			return nil, result.New(result.InvalidInput, "sector weights cannot be negative")
		}
		portfolioReturn += s.PortfolioWeight * s.PortfolioReturn
		benchmarkReturn += s.BenchmarkWeight * s.BenchmarkReturn
	}

	sectors := make([]SectorEffect, 0, len(inputs))
	var sumEffects float64
	for _, s := range inputs {
		weightDiff := s.PortfolioWeight - s.BenchmarkWeight
		returnDiff := s.PortfolioReturn - s.BenchmarkReturn

		var allocation float64
		switch formula {
		case Textbook:
			allocation = weightDiff * (s.BenchmarkReturn - benchmarkReturn)
		default:
			allocation = weightDiff * s.BenchmarkReturn
		}
		selection := s.BenchmarkWeight * returnDiff
		interaction := weightDiff * returnDiff
		total := allocation + selection + interaction

		sectors = append(sectors, SectorEffect{
			Sector:      s.Sector,
			Allocation:  allocation,
			Selection:   selection,
			Interaction: interaction,
			Total:       total,
		})
		sumEffects += total
	}
	sort.Slice(sectors, func(i, j int) bool { return sectors[i].Sector < sectors[j].Sector })

	return &PeriodResult{
		Sectors:         sectors,
		PortfolioReturn: portfolioReturn,
		BenchmarkReturn: benchmarkReturn,
		ActiveReturn:    portfolioReturn - benchmarkReturn,
		SumOfEffects:    sumEffects,
	}, nil
}

// MultiPeriod runs Compute independently over each period's inputs and
// reports a per-period result alongside an overall consistency check.
func MultiPeriod(periods [][]SectorInput, formula Formula) ([]PeriodResult, error) {
	if len(periods) == 0 {
		return nil, result.New(result.InvalidInput, "need at least one period")
	}
	out := make([]PeriodResult, 0, len(periods))
	for _, p := range periods {
		r, err := Compute(p, formula)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

// IsConsistent reports whether every period's active return equals the sum
// of its sector effects within tol (a default tolerance of 1e-6 is typical).
func IsConsistent(periods []PeriodResult, tol float64) bool {
	for _, p := range periods {
		if math.Abs(p.ActiveReturn-p.SumOfEffects) > tol {
			return false
		}
	}
	return true
}
