package scanner

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/chain"
	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/extractor"
)

const (
	ByBytecode      = "bytecode"
	ByTokenMetadata = "token_metadata"
	ByMarketPair    = "market_pair"
	ByDefault       = "default"
)

type Resolver struct {
	node  AccountReader
	meta  MetadataSource
	pairs PairSource
	chain config.Chain
	probe time.Duration
}

func NewResolver(node AccountReader, meta MetadataSource, pairs PairSource, cfg *config.Config) *Resolver {
	return &Resolver{node: node, meta: meta, pairs: pairs, chain: cfg.Chain, probe: cfg.ProbeTimeout}
}

// Resolve extracts the address from query and classifies it. The returned
// check reports whether the chain node answered.
func (r *Resolver) Resolve(ctx context.Context, query string) (brief.Target, brief.SourceCheck, error) {
	addr, err := extractor.Candidate(query)
	if err != nil {
		return brief.Target{}, brief.SourceCheck{}, err
	}

	var (
		code              []byte
		bal               *big.Int
		nonce             uint64
		codeErr, nonceErr error
	)
	var g errgroup.Group
	g.Go(func() error { code, codeErr = r.node.Code(ctx, addr); return nil })
	g.Go(func() error {
		var err error
		if bal, err = r.node.Balance(ctx, addr); err != nil {
			log.Debug().Err(err).Str("addr", brief.Abbrev(addr)).Msg("balance read failed")
		}
		return nil
	})
	g.Go(func() error { nonce, nonceErr = r.node.Nonce(ctx, addr); return nil })
	_ = g.Wait()

	t := brief.Target{Address: addr, Chain: r.chain, Kind: brief.KindWallet, ClassifiedBy: ByDefault}
	if bal != nil {
		d := decimal.NewFromBigInt(bal, -18)
		t.NativeBalance = &d
	}
	if nonceErr == nil {
		t.Nonce = nonce
	}

	check := brief.SourceCheck{Source: chain.Source, Status: brief.StatusLive, Required: true}
	if codeErr != nil {
		check.Status = brief.StatusNone
		check.Note = "bytecode read failed"
	}

	switch {
	case codeErr == nil && len(code) > 0:
		t.Kind, t.IsContractBytecode, t.ClassifiedBy = brief.KindContract, true, ByBytecode
	case codeErr != nil && r.probeMetadata(ctx, addr):
		t.Kind, t.ClassifiedBy = brief.KindContract, ByTokenMetadata
	case r.probePairs(ctx, addr):
		t.Kind, t.ClassifiedBy = brief.KindContract, ByMarketPair
	case codeErr != nil && nonceErr != nil:
		return brief.Target{}, check, fmt.Errorf("%s: node unreachable (%v): %w", brief.Abbrev(addr), codeErr, brief.ErrResolutionFailure)
	}

	log.Debug().Str("addr", brief.Abbrev(addr)).Str("kind", string(t.Kind)).
		Str("by", t.ClassifiedBy).Msg("target resolved")
	return t, check, nil
}

func (r *Resolver) probeMetadata(ctx context.Context, addr string) bool {
	if r.meta == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.probe)
	defer cancel()
	res := r.meta.TokenInfo(ctx, addr)
	return res.OK() && (res.Value.Symbol != "" || res.Value.Name != "")
}

func (r *Resolver) probePairs(ctx context.Context, addr string) bool {
	if r.pairs == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, r.probe)
	defer cancel()
	res := r.pairs.Pairs(ctx, addr)
	return res.OK() && len(res.Value) > 0
}
