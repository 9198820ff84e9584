package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

const SourceMarket = "market"

// Market reads DEX pairs from a DexScreener-compatible API.
type Market struct {
	c     *Client
	cfg   config.ProviderConfig
	chain config.Chain
}

func NewMarket(c *Client, cfg config.ProviderConfig, chain config.Chain) *Market {
	return &Market{c: c, cfg: cfg, chain: chain}
}

func (m *Market) Configured() bool { return m.cfg.Configured() }

type dexPairsResponse struct {
	Pairs []struct {
		ChainID     string `json:"chainId"`
		DexID       string `json:"dexId"`
		URL         string `json:"url"`
		PairAddress string `json:"pairAddress"`
		BaseToken   struct {
			Address string `json:"address"`
			Symbol  string `json:"symbol"`
		} `json:"baseToken"`
		Liquidity *struct {
			USD *float64 `json:"usd"`
		} `json:"liquidity"`
		FDV *float64 `json:"fdv"`
	} `json:"pairs"`
}

// Pairs returns the pairs for token on the configured chain.
func (m *Market) Pairs(ctx context.Context, token string) Result[[]brief.Pair] {
	if !m.Configured() {
		return Unconfigured[[]brief.Pair]()
	}
	url := fmt.Sprintf("%s/latest/dex/tokens/%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)
	return Fetch(ctx, m.c, Endpoint[[]brief.Pair]{
		Source:   SourceMarket,
		Timeout:  m.cfg.Timeout,
		CacheKey: "pairs:" + string(m.chain) + ":" + strings.ToLower(token),
		Build: func(ctx context.Context) (*http.Request, error) {
			return newGet(ctx, url, nil)
		},
		Decode: func(body []byte) ([]brief.Pair, error) {
			var resp dexPairsResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return nil, fmt.Errorf("decode pairs: %w", err)
			}
			var pairs []brief.Pair
			for _, p := range resp.Pairs {
				if !strings.EqualFold(p.ChainID, string(m.chain)) {
					continue
				}
				pair := brief.Pair{
					ChainID:     p.ChainID,
					DexID:       p.DexID,
					URL:         p.URL,
					PairAddress: p.PairAddress,
					BaseAddress: p.BaseToken.Address,
					BaseSymbol:  p.BaseToken.Symbol,
					FDVUSD:      p.FDV,
				}
				if p.Liquidity != nil {
					pair.LiquidityUSD = p.Liquidity.USD
				}
				pairs = append(pairs, pair)
			}
			if len(pairs) == 0 {
				return nil, ErrNoData
			}
			return pairs, nil
		},
	})
}

// BestPair picks the pair with the highest reported liquidity. Pairs
// without a liquidity figure only win when no pair reports one.
func BestPair(pairs []brief.Pair) (brief.Pair, bool) {
	if len(pairs) == 0 {
		return brief.Pair{}, false
	}
	best := pairs[0]
	for _, p := range pairs[1:] {
		if p.LiquidityUSD == nil {
			continue
		}
		if best.LiquidityUSD == nil || *p.LiquidityUSD > *best.LiquidityUSD {
			best = p
		}
	}
	return best, true
}
