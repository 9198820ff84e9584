package scanner

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chain-brief/pkg/brief"
)

// Wallet thresholds.
var lowBalance = decimal.New(1, -3) // 0.001 native units

const highTxCount = 5000

// Introspector reads token facts for contracts and account facts for wallets.
type Introspector struct {
	tokens   TokenReader
	explorer Linker
	native   string
}

func NewIntrospector(tokens TokenReader, explorer Linker, nativeSymbol string) *Introspector {
	return &Introspector{tokens: tokens, explorer: explorer, native: nativeSymbol}
}

func (c *Introspector) Run(ctx context.Context, t brief.Target) (*brief.TokenFacts, *brief.Section) {
	sec := brief.NewSection(brief.ModuleContract)
	var facts *brief.TokenFacts
	if t.IsContract() {
		facts = c.contract(ctx, t, sec)
	} else {
		c.wallet(t, sec)
	}
	sec.Link("Explorer", c.explorer.AddressURL(t.Address), string(t.Kind))
	return facts, sec
}

func (c *Introspector) contract(ctx context.Context, t brief.Target, sec *brief.Section) *brief.TokenFacts {
	var (
		name, symbol string
		decimals     uint8
		supply       *big.Int
		owner        common.Address
		errs         [5]error
	)
	var g errgroup.Group
	g.Go(func() error { name, errs[0] = c.tokens.Name(ctx, t.Address); return nil })
	g.Go(func() error { symbol, errs[1] = c.tokens.Symbol(ctx, t.Address); return nil })
	g.Go(func() error { decimals, errs[2] = c.tokens.Decimals(ctx, t.Address); return nil })
	g.Go(func() error { supply, errs[3] = c.tokens.TotalSupply(ctx, t.Address); return nil })
	g.Go(func() error { owner, errs[4] = c.tokens.Owner(ctx, t.Address); return nil })
	_ = g.Wait()

	facts := &brief.TokenFacts{}
	if errs[0] == nil && name != "" {
		facts.Name = &name
	}
	if errs[1] == nil && symbol != "" {
		facts.Symbol = &symbol
	}
	if errs[2] == nil {
		facts.Decimals = &decimals
	}
	if errs[3] == nil && supply != nil {
		s := supply.String()
		facts.TotalSupply = &s
	}
	if errs[4] == nil {
		o := strings.ToLower(owner.Hex())
		facts.Owner = &o
	}

	switch {
	case facts.Name != nil && facts.Symbol != nil:
		sec.Add(brief.SeverityInfo, fmt.Sprintf("Token contract %s (%s)%s", *facts.Name, *facts.Symbol, supplyNote(facts)))
	case facts.Name != nil || facts.Symbol != nil:
		label := facts.Name
		if label == nil {
			label = facts.Symbol
		}
		sec.Add(brief.SeverityInfo, fmt.Sprintf("Token contract %s%s", *label, supplyNote(facts)))
	default:
		sec.Add(brief.SeverityInfo, "Contract, not necessarily a token: standard token getters did not answer")
	}

	if facts.Owner != nil {
		if owner == (common.Address{}) {
			sec.Add(brief.SeveritySuccess, "Ownership likely renounced (owner is the zero address)")
		} else {
			sec.Add(brief.SeverityWarning, fmt.Sprintf("Contract has an active owner %s; privileged functions may still be callable", brief.Abbrev(*facts.Owner)))
			sec.Link("Owner", c.explorer.AddressURL(*facts.Owner), brief.Abbrev(*facts.Owner))
		}
	}

	if facts.Empty() {
		return nil
	}
	return facts
}

func supplyNote(f *brief.TokenFacts) string {
	if f.TotalSupply == nil {
		return ""
	}
	supply, err := decimal.NewFromString(*f.TotalSupply)
	if err != nil {
		return ""
	}
	if f.Decimals != nil {
		supply = supply.Shift(-int32(*f.Decimals))
	}
	return ", total supply " + supply.Round(2).String()
}

func (c *Introspector) wallet(t brief.Target, sec *brief.Section) {
	if t.NativeBalance != nil && t.NativeBalance.LessThanOrEqual(lowBalance) {
		sec.Add(brief.SeverityInfo, fmt.Sprintf("Low native balance: %s %s", t.NativeBalance.Round(6).String(), c.native))
	}
	switch {
	case t.Nonce == 0:
		sec.Add(brief.SeverityInfo, "No outgoing transactions from this wallet yet")
	case t.Nonce > highTxCount:
		sec.Add(brief.SeverityInfo, fmt.Sprintf("High transaction count (%d); likely a bot, exchange or service wallet", t.Nonce))
	}
}
