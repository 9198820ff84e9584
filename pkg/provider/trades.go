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

const SourceTrades = "trades"

// Trades samples recent swaps of a token from a Birdeye-compatible API.
type Trades struct {
	c     *Client
	cfg   config.ProviderConfig
	chain string
}

func NewTrades(c *Client, cfg config.ProviderConfig, birdeyeChain string) *Trades {
	return &Trades{c: c, cfg: cfg, chain: birdeyeChain}
}

func (t *Trades) Configured() bool { return t.cfg.Configured() }

func (t *Trades) PublicURL(token string) string { return t.cfg.PublicLink(token) }

func (t *Trades) Sample(ctx context.Context, token string) Result[brief.TradeSample] {
	if !t.Configured() {
		return Unconfigured[brief.TradeSample]()
	}
	u := fmt.Sprintf("%s/defi/txs/token?address=%s&tx_type=swap&sort_type=desc&offset=0&limit=50",
		strings.TrimRight(t.cfg.BaseURL, "/"), token)
	return Fetch(ctx, t.c, Endpoint[brief.TradeSample]{
		Source:   SourceTrades,
		Timeout:  t.cfg.Timeout,
		CacheKey: "trades:" + t.chain + ":" + strings.ToLower(token),
		Build: func(ctx context.Context) (*http.Request, error) {
			return newGet(ctx, u, map[string]string{
				"X-API-KEY": t.cfg.APIKey,
				"x-chain":   t.chain,
			})
		},
		Decode: func(body []byte) (brief.TradeSample, error) {
			var resp struct {
				Success bool `json:"success"`
				Data    struct {
					Items []struct {
						Owner     string  `json:"owner"`
						VolumeUSD float64 `json:"volume_usd"`
						Side      string  `json:"side"`
					} `json:"items"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.TradeSample{}, fmt.Errorf("decode trades: %w", err)
			}
			if len(resp.Data.Items) == 0 {
				return brief.TradeSample{}, ErrNoData
			}
			s := brief.TradeSample{Source: brief.SourceAPI}
			makers := map[string]bool{}
			for _, it := range resp.Data.Items {
				s.Trades++
				s.VolumeUSD += it.VolumeUSD
				switch strings.ToLower(it.Side) {
				case "buy":
					s.Buys++
				case "sell":
					s.Sells++
				}
				if it.Owner != "" {
					makers[strings.ToLower(it.Owner)] = true
				}
			}
			s.UniqueMakers = len(makers)
			return s, nil
		},
	})
}
