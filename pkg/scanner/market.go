package scanner

import (
	"context"
	"fmt"
	"math"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/provider"
)

// Liquidity bands in USD and the liquidity/FDV floor.
const (
	LowLiquidityUSD      = 5_000
	ModerateLiquidityUSD = 30_000
	MinLiquidityFDVRatio = 0.003
)

type MarketModule struct {
	pairs PairSource
}

func NewMarketModule(pairs PairSource) *MarketModule {
	return &MarketModule{pairs: pairs}
}

func (m *MarketModule) Run(ctx context.Context, t brief.Target) (brief.MarketFacts, *brief.Section) {
	sec := brief.NewSection(brief.ModuleMarket)
	facts := brief.MarketFacts{Source: brief.SourceNone}

	res := m.pairs.Pairs(ctx, t.Address)
	note := ""
	if !res.OK() && res.Status != brief.StatusUnconfigured {
		note = "no pair data"
	}
	sec.Check(provider.SourceMarket, res.Status, true, note)

	if best, ok := provider.BestPair(res.Value); res.OK() && ok {
		facts = brief.MarketFacts{
			LiquidityUSD: best.LiquidityUSD,
			FDVUSD:       best.FDVUSD,
			PairURL:      best.URL,
			DexID:        best.DexID,
			Source:       brief.SourceAPI,
		}
	}

	liq, hasLiq := finite(facts.LiquidityUSD)
	fdv, hasFDV := finite(facts.FDVUSD)

	if t.IsContract() {
		switch {
		case !hasLiq:
			sec.Add(brief.SeverityInfo, "No liquidity data from DEX pairs")
		case liq < LowLiquidityUSD:
			sec.Add(brief.SeverityWarning, fmt.Sprintf("Low liquidity (%s): price is easy to manipulate", brief.FormatUSD(liq)))
		case liq < ModerateLiquidityUSD:
			sec.Add(brief.SeverityInfo, fmt.Sprintf("Moderate liquidity (%s): expect volatility", brief.FormatUSD(liq)))
		default:
			sec.Add(brief.SeveritySuccess, fmt.Sprintf("Healthy liquidity (%s)", brief.FormatUSD(liq)))
		}
	}
	if hasLiq && hasFDV && fdv > 0 && liq/fdv < MinLiquidityFDVRatio {
		sec.Add(brief.SeverityWarning, fmt.Sprintf("FDV disproportionate to liquidity (%s FDV vs %s liquidity)", brief.FormatUSD(fdv), brief.FormatUSD(liq)))
	}

	if facts.PairURL != "" {
		value := facts.DexID
		if hasLiq {
			value += " · " + brief.FormatUSD(liq)
		}
		sec.Link("DEX pair", facts.PairURL, value)
	}
	return facts, sec
}

func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
