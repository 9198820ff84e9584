package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/chain-brief/pkg/ai"
	"github.com/chain-brief/pkg/chain"
	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/holders"
	"github.com/chain-brief/pkg/observability"
	"github.com/chain-brief/pkg/provider"
	"github.com/chain-brief/pkg/scanner"
)

// Build wires the production adapters from cfg. metrics may be nil.
func Build(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (*Pipeline, error) {
	client := provider.NewClient(cfg.CacheSize, cfg.CacheTTL, metrics)

	node, err := chain.Dial(ctx, cfg.RPCURL(), cfg.RPCTimeout, metrics)
	if err != nil {
		return nil, fmt.Errorf("chain node: %w", err)
	}

	market := provider.NewMarket(client, cfg.Market, cfg.Chain)
	explorer := provider.NewExplorer(client, cfg.Explorer, cfg.Chain)
	labels := provider.NewLabels(client, cfg.Labels)
	portfolio := provider.NewPortfolio(client, cfg.Portfolio)
	trades := provider.NewTrades(client, cfg.Trades, cfg.BirdeyeChain())

	llm, err := ai.NewLLM(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("narrative LLM disabled")
		llm = nil
	}

	log.Info().
		Str("chain", string(cfg.Chain)).
		Bool("explorer", explorer.Configured()).
		Bool("labels", labels.Configured()).
		Bool("portfolio", portfolio.Configured()).
		Bool("trades", trades.Configured()).
		Bool("llm", llm != nil).
		Msg("pipeline wired")

	return New(
		scanner.NewResolver(node, explorer, market, cfg),
		scanner.NewIntrospector(node, explorer, cfg.NativeSymbol()),
		scanner.NewMarketModule(market),
		scanner.NewIntelModule(labels, portfolio, trades, explorer, cfg),
		holders.New(explorer, node, labels, cfg.Holders),
		ai.NewComposer(llm, cfg.AITimeout, cfg.AIMaxTokens),
		metrics,
	), nil
}
