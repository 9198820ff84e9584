package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

const (
	SourceExplorer = "explorer"
	SourceActivity = "activity"
)

// Explorer talks to an Etherscan-compatible API (etherscan, basescan, bscscan).
type Explorer struct {
	c     *Client
	cfg   config.ProviderConfig
	chain config.Chain
	now   func() time.Time
}

func NewExplorer(c *Client, cfg config.ProviderConfig, chain config.Chain) *Explorer {
	return &Explorer{c: c, cfg: cfg, chain: chain, now: time.Now}
}

func (e *Explorer) Configured() bool { return e.cfg.Configured() }

// AddressURL is the public explorer page for addr.
func (e *Explorer) AddressURL(addr string) string { return e.cfg.PublicLink(addr) }

// HoldersURL is the public holder-distribution view of a token.
func (e *Explorer) HoldersURL(token string) string {
	link := e.cfg.PublicLink(token)
	if link == "" {
		return ""
	}
	return strings.Replace(link, "/address/", "/token/", 1) + "#balances"
}

type etherscanEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// decodeEnvelope unwraps the status/message/result envelope. "No
// transactions found" and friends come back as status 0 with an empty
// result; those decode as an empty list.
func decodeEnvelope(body []byte, out any) error {
	var env etherscanEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.Status != "1" {
		if strings.HasPrefix(strings.ToLower(env.Message), "no ") {
			return nil
		}
		var reason string
		_ = json.Unmarshal(env.Result, &reason)
		return fmt.Errorf("etherscan status %s: %s %s", env.Status, env.Message, reason)
	}
	return json.Unmarshal(env.Result, out)
}

func (e *Explorer) endpoint(params url.Values) string {
	params.Set("apikey", e.cfg.APIKey)
	return e.cfg.BaseURL + "?" + params.Encode()
}

func (e *Explorer) get(u string) func(ctx context.Context) (*http.Request, error) {
	return func(ctx context.Context) (*http.Request, error) { return newGet(ctx, u, nil) }
}

// TopHolders lists up to limit holders of token, largest balance first.
func (e *Explorer) TopHolders(ctx context.Context, token string, limit int) Result[[]brief.Holder] {
	if !e.Configured() {
		return Unconfigured[[]brief.Holder]()
	}
	u := e.endpoint(url.Values{
		"module":          {"token"},
		"action":          {"tokenholderlist"},
		"contractaddress": {token},
		"page":            {"1"},
		"offset":          {strconv.Itoa(limit)},
	})
	return Fetch(ctx, e.c, Endpoint[[]brief.Holder]{
		Source:   SourceExplorer,
		Timeout:  e.cfg.Timeout,
		CacheKey: fmt.Sprintf("holders:%s:%s:%d", e.chain, strings.ToLower(token), limit),
		Build:    e.get(u),
		Decode: func(body []byte) ([]brief.Holder, error) {
			var rows []struct {
				Address  string `json:"TokenHolderAddress"`
				Quantity string `json:"TokenHolderQuantity"`
			}
			if err := decodeEnvelope(body, &rows); err != nil {
				return nil, err
			}
			if len(rows) == 0 {
				return nil, ErrNoData
			}
			holders := make([]brief.Holder, 0, len(rows))
			for _, r := range rows {
				holders = append(holders, brief.Holder{Address: strings.ToLower(r.Address), Balance: r.Quantity})
			}
			sortByBalance(holders)
			return holders, nil
		},
	})
}

// sortByBalance orders holders by raw quantity, largest first. Quantities
// that do not parse as non-negative integers sort last.
func sortByBalance(holders []brief.Holder) {
	type keyed struct {
		h brief.Holder
		n *big.Int
	}
	rows := make([]keyed, len(holders))
	for i, h := range holders {
		n, ok := new(big.Int).SetString(h.Balance, 10)
		if !ok || n.Sign() < 0 {
			n = big.NewInt(-1)
		}
		rows[i] = keyed{h, n}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].n.Cmp(rows[j].n) > 0 })
	for i := range rows {
		holders[i] = rows[i].h
	}
}

// Transfers returns one page of token transfers, oldest first. An empty
// page is a live result with no rows.
func (e *Explorer) Transfers(ctx context.Context, token string, page, size int) Result[[]brief.Transfer] {
	if !e.Configured() {
		return Unconfigured[[]brief.Transfer]()
	}
	u := e.endpoint(url.Values{
		"module":          {"account"},
		"action":          {"tokentx"},
		"contractaddress": {token},
		"page":            {strconv.Itoa(page)},
		"offset":          {strconv.Itoa(size)},
		"startblock":      {"0"},
		"endblock":        {"99999999"},
		"sort":            {"asc"},
	})
	return Fetch(ctx, e.c, Endpoint[[]brief.Transfer]{
		Source:   SourceExplorer,
		Timeout:  e.cfg.Timeout,
		CacheKey: fmt.Sprintf("tokentx:%s:%s:%d:%d", e.chain, strings.ToLower(token), page, size),
		Build:    e.get(u),
		Decode: func(body []byte) ([]brief.Transfer, error) {
			var rows []struct {
				From        string `json:"from"`
				To          string `json:"to"`
				Hash        string `json:"hash"`
				BlockNumber string `json:"blockNumber"`
			}
			if err := decodeEnvelope(body, &rows); err != nil {
				return nil, err
			}
			out := make([]brief.Transfer, 0, len(rows))
			for _, r := range rows {
				block, _ := strconv.ParseInt(r.BlockNumber, 10, 64)
				out = append(out, brief.Transfer{
					From:   strings.ToLower(r.From),
					To:     strings.ToLower(r.To),
					TxHash: r.Hash,
					Block:  block,
				})
			}
			return out, nil
		},
	})
}

// TokenInfo fetches token metadata; used by the resolver when the node is down.
func (e *Explorer) TokenInfo(ctx context.Context, token string) Result[brief.TokenMeta] {
	if !e.Configured() {
		return Unconfigured[brief.TokenMeta]()
	}
	u := e.endpoint(url.Values{
		"module":          {"token"},
		"action":          {"tokeninfo"},
		"contractaddress": {token},
	})
	return Fetch(ctx, e.c, Endpoint[brief.TokenMeta]{
		Source:   SourceExplorer,
		Timeout:  e.cfg.Timeout,
		CacheKey: fmt.Sprintf("tokeninfo:%s:%s", e.chain, strings.ToLower(token)),
		Build:    e.get(u),
		Decode: func(body []byte) (brief.TokenMeta, error) {
			var rows []struct {
				Name   string `json:"tokenName"`
				Symbol string `json:"symbol"`
			}
			if err := decodeEnvelope(body, &rows); err != nil {
				return brief.TokenMeta{}, err
			}
			if len(rows) == 0 || (rows[0].Name == "" && rows[0].Symbol == "") {
				return brief.TokenMeta{}, ErrNoData
			}
			return brief.TokenMeta{Name: rows[0].Name, Symbol: rows[0].Symbol}, nil
		},
	})
}

// Activity summarizes the last 24h of normal transactions of addr.
func (e *Explorer) Activity(ctx context.Context, addr string, timeout time.Duration) Result[brief.Activity] {
	if !e.Configured() {
		return Unconfigured[brief.Activity]()
	}
	u := e.endpoint(url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {addr},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"page":       {"1"},
		"offset":     {"100"},
		"sort":       {"desc"},
	})
	since := e.now().Add(-24 * time.Hour)
	return Fetch(ctx, e.c, Endpoint[brief.Activity]{
		Source:  SourceExplorer,
		Timeout: timeout,
		Build:   e.get(u),
		Decode: func(body []byte) (brief.Activity, error) {
			var rows []struct {
				From      string `json:"from"`
				To        string `json:"to"`
				TimeStamp string `json:"timeStamp"`
			}
			if err := decodeEnvelope(body, &rows); err != nil {
				return brief.Activity{}, err
			}
			a := brief.Activity{Window: "24h", Source: brief.SourceAPI}
			for _, r := range rows {
				ts, err := strconv.ParseInt(r.TimeStamp, 10, 64)
				if err != nil || time.Unix(ts, 0).Before(since) {
					continue
				}
				a.TxCount++
				if strings.EqualFold(r.To, addr) {
					a.Incoming++
				} else if strings.EqualFold(r.From, addr) {
					a.Outgoing++
				}
			}
			return a, nil
		},
	})
}
