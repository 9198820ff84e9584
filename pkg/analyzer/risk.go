// Package analyzer turns module outputs into a bounded risk score.
package analyzer

import (
	"math"

	"github.com/chain-brief/pkg/brief"
)

// Inputs is everything the score depends on. It carries values, not
// sources; building it is the caller's job.
type Inputs struct {
	IsContract          bool
	LiquidityUSD        *float64
	FDVUSD              *float64
	AltWalletCount      int
	BundledHolders      int // holders across all bundle groups
	EntityType          string
	ProfitablePositions int
}

// InputsFrom collects the score inputs from a finished brief.
func InputsFrom(t brief.Target, m brief.MarketFacts, intel brief.IntelFacts, h *brief.HolderCluster) Inputs {
	in := Inputs{
		IsContract:   t.IsContract(),
		LiquidityUSD: m.LiquidityUSD,
		FDVUSD:       m.FDVUSD,
	}
	if intel.AltWallets != nil {
		in.AltWalletCount = len(intel.AltWallets.Addresses)
	}
	if intel.Entity != nil {
		in.EntityType = intel.Entity.Type
	}
	if intel.Portfolio != nil {
		in.ProfitablePositions = intel.Portfolio.ProfitablePositions
	}
	if h != nil {
		in.BundledHolders = h.BundledHolderCount
	}
	return in
}

const (
	baseScore     = 18
	neutralScore  = 50
	lowLiquidity  = 5_000
	midLiquidity  = 30_000
	minLiqFDV     = 0.003
	profitableMin = 8
)

// Term is one additive component of the score.
type Term func(Inputs) float64

// DefaultTerms are the scoring terms. They are independent of each other,
// so any evaluation order gives the same sum.
var DefaultTerms = []Term{
	contractTerm,
	liquidityTerm,
	fdvTerm,
	altWalletTerm,
	bundleTerm,
	entityTerm,
	profitableTerm,
}

// Score is the risk score for in, clamped to [0,100].
func Score(in Inputs) int {
	return ScoreTerms(in, DefaultTerms)
}

// ScoreTerms sums base plus terms. A non-finite sum scores as neutral.
func ScoreTerms(in Inputs, terms []Term) int {
	total := float64(baseScore)
	for _, t := range terms {
		total += t(in)
	}
	return clamp(total)
}

func clamp(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return neutralScore
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func contractTerm(in Inputs) float64 {
	if in.IsContract {
		return 18
	}
	return 0
}

func liquidityTerm(in Inputs) float64 {
	if in.LiquidityUSD == nil {
		if in.IsContract {
			return 10
		}
		return 0
	}
	liq := *in.LiquidityUSD
	switch {
	case math.IsNaN(liq) || math.IsInf(liq, 0):
		return math.NaN()
	case liq < lowLiquidity:
		return 32
	case liq < midLiquidity:
		return 18
	default:
		return 0
	}
}

func fdvTerm(in Inputs) float64 {
	if in.LiquidityUSD == nil || in.FDVUSD == nil {
		return 0
	}
	liq, fdv := *in.LiquidityUSD, *in.FDVUSD
	if math.IsNaN(fdv) || math.IsInf(fdv, 0) {
		return math.NaN()
	}
	if fdv <= 0 {
		return 0
	}
	if liq/fdv < minLiqFDV {
		return 18
	}
	return 0
}

func altWalletTerm(in Inputs) float64 {
	if in.AltWalletCount <= 0 {
		return 0
	}
	return math.Min(14, float64(4+in.AltWalletCount/3))
}

// bundleTerm grows with the number of bundled holders: one pair of
// siblings adds 14, three or more saturate at 16.
func bundleTerm(in Inputs) float64 {
	if in.BundledHolders < 2 {
		return 0
	}
	return math.Min(16, float64(6+4*in.BundledHolders))
}

func entityTerm(in Inputs) float64 {
	if brief.IsRiskEntity(in.EntityType) {
		return 15
	}
	return 0
}

func profitableTerm(in Inputs) float64 {
	if in.ProfitablePositions >= profitableMin {
		return -4
	}
	return 0
}
