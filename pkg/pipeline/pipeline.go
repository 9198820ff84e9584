// Package pipeline runs one brief end to end: resolve the target, run the
// enrichment modules concurrently, then score, narrate and report.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/chain-brief/pkg/ai"
	"github.com/chain-brief/pkg/analyzer"
	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/observability"
	"github.com/chain-brief/pkg/report"
)

type Resolver interface {
	Resolve(ctx context.Context, query string) (brief.Target, brief.SourceCheck, error)
}

type ContractModule interface {
	Run(ctx context.Context, t brief.Target) (*brief.TokenFacts, *brief.Section)
}

type MarketModule interface {
	Run(ctx context.Context, t brief.Target) (brief.MarketFacts, *brief.Section)
}

type IntelModule interface {
	Run(ctx context.Context, t brief.Target) (brief.IntelFacts, *brief.Section)
}

type HolderModule interface {
	Run(ctx context.Context, t brief.Target) (*brief.HolderCluster, *brief.Section)
}

type Narrator interface {
	Compose(ctx context.Context, in ai.Input) (brief.Narrative, brief.SourceCheck)
}

type Pipeline struct {
	resolver Resolver
	contract ContractModule
	market   MarketModule
	intel    IntelModule
	holders  HolderModule
	narrator Narrator
	metrics  *observability.Metrics
	now      func() time.Time
}

func New(r Resolver, c ContractModule, m MarketModule, i IntelModule, h HolderModule, n Narrator, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		resolver: r,
		contract: c,
		market:   m,
		intel:    i,
		holders:  h,
		narrator: n,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Run produces a brief for query. Only an unusable query or an unreachable
// chain node fail the call; every other source degrades in place.
func (p *Pipeline) Run(ctx context.Context, query, lang string) (*brief.BriefResult, error) {
	start := time.Now()
	lang = ai.NormalizeLang(lang)

	target, nodeCheck, err := p.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}

	var (
		token      *brief.TokenFacts
		market     brief.MarketFacts
		intel      brief.IntelFacts
		cluster    *brief.HolderCluster
		contractSc *brief.Section
		marketSc   *brief.Section
		intelSc    *brief.Section
		holderSc   *brief.Section
	)
	var g errgroup.Group
	g.Go(func() error { token, contractSc = p.contract.Run(ctx, target); return nil })
	g.Go(func() error { market, marketSc = p.market.Run(ctx, target); return nil })
	g.Go(func() error { intel, intelSc = p.intel.Run(ctx, target); return nil })
	g.Go(func() error { cluster, holderSc = p.holders.Run(ctx, target); return nil })
	_ = g.Wait()

	findings, evidence, checks := brief.Compose(contractSc, marketSc, intelSc, holderSc)
	score := analyzer.Score(analyzer.InputsFrom(target, market, intel, cluster))

	narrative, llmCheck := p.narrator.Compose(ctx, ai.Input{
		Target:   target,
		Token:    token,
		Market:   market,
		Holders:  cluster,
		Findings: findings,
		Score:    score,
		Lang:     lang,
	})

	all := make([]brief.SourceCheck, 0, len(checks)+2)
	all = append(all, nodeCheck)
	all = append(all, checks...)
	all = append(all, llmCheck)
	runtime := report.Build(all)

	res := &brief.BriefResult{
		Query:       query,
		Lang:        lang,
		Target:      target,
		Token:       token,
		Market:      market,
		Intel:       intel,
		Holders:     cluster,
		Findings:    findings,
		Evidence:    evidence,
		RiskScore:   score,
		Narrative:   narrative,
		Runtime:     runtime,
		GeneratedAt: p.now().UTC(),
	}

	elapsed := time.Since(start)
	p.metrics.ObserveBrief(runtime.Mode, score, elapsed)
	ev := log.Info()
	if score >= ai.HighRiskScore {
		ev = log.Warn()
	}
	ev.Str("addr", brief.Abbrev(target.Address)).
		Str("kind", string(target.Kind)).
		Int("score", score).
		Int("findings", len(findings)).
		Str("mode", runtime.Mode).
		Str("narrative", narrative.Source).
		Dur("elapsed", elapsed).
		Msg("brief ready")
	return res, nil
}
