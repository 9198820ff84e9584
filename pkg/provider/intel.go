package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

const (
	SourceLabels    = "labels"
	SourceLinked    = "alt-wallets"
	SourceTags      = "tags"
	SourceEntity    = "entity"
	SourcePortfolio = "portfolio"
)

// Labels is the address label/intel service: profile, linked wallets,
// tags and entity classification share one base URL and key.
type Labels struct {
	c   *Client
	cfg config.ProviderConfig
}

func NewLabels(c *Client, cfg config.ProviderConfig) *Labels {
	return &Labels{c: c, cfg: cfg}
}

func (l *Labels) Configured() bool { return l.cfg.Configured() }

// ProfileURL is the public page of addr on the label service, if any.
func (l *Labels) ProfileURL(addr string) string { return l.cfg.PublicLink(addr) }

func (l *Labels) request(path string) func(ctx context.Context) (*http.Request, error) {
	u := strings.TrimRight(l.cfg.BaseURL, "/") + path
	return func(ctx context.Context) (*http.Request, error) {
		return newGet(ctx, u, map[string]string{"X-API-KEY": l.cfg.APIKey})
	}
}

// Profile returns the label, verification flag, tags and realized PnL of addr.
func (l *Labels) Profile(ctx context.Context, addr string) Result[brief.LabelProfile] {
	if !l.Configured() {
		return Unconfigured[brief.LabelProfile]()
	}
	addr = strings.ToLower(addr)
	return Fetch(ctx, l.c, Endpoint[brief.LabelProfile]{
		Source:   SourceLabels,
		Timeout:  l.cfg.Timeout,
		CacheKey: "profile:" + addr,
		Build:    l.request(fmt.Sprintf("/v1/address/%s/profile", addr)),
		Decode: func(body []byte) (brief.LabelProfile, error) {
			var resp struct {
				Label    string   `json:"label"`
				Verified bool     `json:"verified"`
				Tags     []string `json:"tags"`
				PnL      []struct {
					Asset       string  `json:"asset"`
					RealizedUSD float64 `json:"realizedUsd"`
				} `json:"pnl"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.LabelProfile{}, fmt.Errorf("decode profile: %w", err)
			}
			p := brief.LabelProfile{
				Label:    strings.TrimSpace(resp.Label),
				Verified: resp.Verified,
				Tags:     cleanList(resp.Tags),
				Source:   brief.SourceAPI,
			}
			for _, e := range resp.PnL {
				p.PnL = append(p.PnL, brief.PnLEntry{Asset: e.Asset, RealizedUSD: e.RealizedUSD})
			}
			if p.Label == "" && !p.Verified && len(p.Tags) == 0 && len(p.PnL) == 0 {
				return brief.LabelProfile{}, ErrNoData
			}
			return p, nil
		},
	})
}

// Linked returns wallets the service links to addr.
func (l *Labels) Linked(ctx context.Context, addr string, timeout time.Duration) Result[brief.AltWallets] {
	if !l.Configured() {
		return Unconfigured[brief.AltWallets]()
	}
	addr = strings.ToLower(addr)
	return Fetch(ctx, l.c, Endpoint[brief.AltWallets]{
		Source:   SourceLinked,
		Timeout:  timeout,
		CacheKey: "linked:" + addr,
		Build:    l.request(fmt.Sprintf("/v1/address/%s/linked", addr)),
		Decode: func(body []byte) (brief.AltWallets, error) {
			var resp struct {
				Addresses []string `json:"addresses"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.AltWallets{}, fmt.Errorf("decode linked: %w", err)
			}
			var out []string
			for _, a := range cleanList(resp.Addresses) {
				if !strings.EqualFold(a, addr) {
					out = append(out, strings.ToLower(a))
				}
			}
			return brief.AltWallets{Addresses: out, Source: brief.SourceAPI}, nil
		},
	})
}

func (l *Labels) Tags(ctx context.Context, addr string, timeout time.Duration) Result[brief.TagList] {
	if !l.Configured() {
		return Unconfigured[brief.TagList]()
	}
	addr = strings.ToLower(addr)
	return Fetch(ctx, l.c, Endpoint[brief.TagList]{
		Source:   SourceTags,
		Timeout:  timeout,
		CacheKey: "tags:" + addr,
		Build:    l.request(fmt.Sprintf("/v1/address/%s/tags", addr)),
		Decode: func(body []byte) (brief.TagList, error) {
			var resp struct {
				Tags []string `json:"tags"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.TagList{}, fmt.Errorf("decode tags: %w", err)
			}
			tags := cleanList(resp.Tags)
			if len(tags) == 0 {
				return brief.TagList{}, ErrNoData
			}
			return brief.TagList{Tags: tags, Source: brief.SourceAPI}, nil
		},
	})
}

func (l *Labels) Entity(ctx context.Context, addr string, timeout time.Duration) Result[brief.Entity] {
	if !l.Configured() {
		return Unconfigured[brief.Entity]()
	}
	addr = strings.ToLower(addr)
	return Fetch(ctx, l.c, Endpoint[brief.Entity]{
		Source:   SourceEntity,
		Timeout:  timeout,
		CacheKey: "entity:" + addr,
		Build:    l.request(fmt.Sprintf("/v1/address/%s/entity", addr)),
		Decode: func(body []byte) (brief.Entity, error) {
			var resp struct {
				Name string `json:"name"`
				Type string `json:"type"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.Entity{}, fmt.Errorf("decode entity: %w", err)
			}
			if resp.Name == "" && resp.Type == "" {
				return brief.Entity{}, ErrNoData
			}
			return brief.Entity{Name: resp.Name, Type: strings.ToLower(resp.Type), Source: brief.SourceAPI}, nil
		},
	})
}

// Portfolio is the wallet-portfolio service.
type Portfolio struct {
	c   *Client
	cfg config.ProviderConfig
}

func NewPortfolio(c *Client, cfg config.ProviderConfig) *Portfolio {
	return &Portfolio{c: c, cfg: cfg}
}

func (p *Portfolio) Configured() bool { return p.cfg.Configured() }

func (p *Portfolio) PublicURL(addr string) string { return p.cfg.PublicLink(addr) }

func (p *Portfolio) Summary(ctx context.Context, addr string) Result[brief.Portfolio] {
	if !p.Configured() {
		return Unconfigured[brief.Portfolio]()
	}
	addr = strings.ToLower(addr)
	u := fmt.Sprintf("%s/v1/wallet/%s/portfolio", strings.TrimRight(p.cfg.BaseURL, "/"), addr)
	return Fetch(ctx, p.c, Endpoint[brief.Portfolio]{
		Source:   SourcePortfolio,
		Timeout:  p.cfg.Timeout,
		CacheKey: "portfolio:" + addr,
		Build: func(ctx context.Context) (*http.Request, error) {
			return newGet(ctx, u, map[string]string{"X-API-KEY": p.cfg.APIKey})
		},
		Decode: func(body []byte) (brief.Portfolio, error) {
			var resp struct {
				TotalUSD  float64 `json:"totalUsd"`
				Positions []struct {
					Asset          string  `json:"asset"`
					ValueUSD       float64 `json:"valueUsd"`
					RealizedPnLUSD float64 `json:"realizedPnlUsd"`
				} `json:"positions"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return brief.Portfolio{}, fmt.Errorf("decode portfolio: %w", err)
			}
			if len(resp.Positions) == 0 && resp.TotalUSD == 0 {
				return brief.Portfolio{}, ErrNoData
			}
			out := brief.Portfolio{TotalUSD: resp.TotalUSD, Positions: len(resp.Positions), Source: brief.SourceAPI}
			for _, pos := range resp.Positions {
				out.RealizedPnLUSD += pos.RealizedPnLUSD
				if pos.RealizedPnLUSD > 0 {
					out.ProfitablePositions++
				}
			}
			return out, nil
		},
	})
}

func cleanList(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
