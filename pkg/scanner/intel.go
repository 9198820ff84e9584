package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/provider"
)

type LabelSource interface {
	Configured() bool
	ProfileURL(addr string) string
	Profile(ctx context.Context, addr string) provider.Result[brief.LabelProfile]
	Linked(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.AltWallets]
	Tags(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.TagList]
	Entity(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.Entity]
}

type PortfolioSource interface {
	PublicURL(addr string) string
	Summary(ctx context.Context, addr string) provider.Result[brief.Portfolio]
}

type TradeSource interface {
	PublicURL(token string) string
	Sample(ctx context.Context, token string) provider.Result[brief.TradeSample]
}

type ActivitySource interface {
	AddressURL(addr string) string
	Activity(ctx context.Context, addr string, timeout time.Duration) provider.Result[brief.Activity]
}

// IntelModule fans out to every label, portfolio, trade and activity source.
// Each source degrades on its own; the module as a whole never fails.
type IntelModule struct {
	labels    LabelSource
	portfolio PortfolioSource
	trades    TradeSource
	activity  ActivitySource
	cfg       *config.Config
}

func NewIntelModule(labels LabelSource, portfolio PortfolioSource, trades TradeSource, activity ActivitySource, cfg *config.Config) *IntelModule {
	return &IntelModule{labels: labels, portfolio: portfolio, trades: trades, activity: activity, cfg: cfg}
}

// Profitable wallets get a success finding from this many winning positions.
const profitablePositions = 8

func (m *IntelModule) Run(ctx context.Context, t brief.Target) (brief.IntelFacts, *brief.Section) {
	var (
		label    provider.Result[brief.LabelProfile]
		linked   provider.Result[brief.AltWallets]
		tags     provider.Result[brief.TagList]
		entity   provider.Result[brief.Entity]
		folio    provider.Result[brief.Portfolio]
		trades   provider.Result[brief.TradeSample]
		activity provider.Result[brief.Activity]
	)
	addr := t.Address

	var g errgroup.Group
	g.Go(func() error { label = m.labels.Profile(ctx, addr); return nil })
	g.Go(func() error {
		if !m.cfg.AltWallets {
			linked = provider.Unconfigured[brief.AltWallets]()
			return nil
		}
		linked = m.labels.Linked(ctx, addr, m.cfg.AltTimeout)
		return nil
	})
	g.Go(func() error { tags = m.labels.Tags(ctx, addr, m.cfg.TagTimeout); return nil })
	g.Go(func() error { entity = m.labels.Entity(ctx, addr, m.cfg.EntityTimeout); return nil })
	if t.IsContract() {
		g.Go(func() error { trades = m.trades.Sample(ctx, addr); return nil })
	} else {
		g.Go(func() error { folio = m.portfolio.Summary(ctx, addr); return nil })
	}
	g.Go(func() error { activity = m.activity.Activity(ctx, addr, m.cfg.ActivityTimeout); return nil })
	_ = g.Wait()

	sec := brief.NewSection(brief.ModuleIntel)
	var facts brief.IntelFacts

	sec.Check(provider.SourceLabels, label.Status, false, "")
	if label.OK() {
		p := label.Value
		facts.Label = &p
		if p.Label != "" {
			if p.Verified {
				sec.Add(brief.SeveritySuccess, fmt.Sprintf("Verified label: %s", p.Label))
			} else {
				sec.Add(brief.SeverityInfo, fmt.Sprintf("Labeled as %q", p.Label))
			}
		} else if p.Verified {
			sec.Add(brief.SeveritySuccess, "Verified address on the label service")
		}
		if best, ok := p.BestPnL(); ok && best.RealizedUSD > 0 {
			sec.Add(brief.SeverityInfo, fmt.Sprintf("Best realized PnL: %s on %s", brief.FormatUSD(best.RealizedUSD), best.Asset))
		}
		sec.Link("Label profile", m.labels.ProfileURL(addr), p.Label)
	}

	note := ""
	if !m.cfg.AltWallets {
		note = "disabled"
	}
	sec.Check(provider.SourceLinked, linked.Status, false, note)
	if linked.OK() {
		a := linked.Value
		facts.AltWallets = &a
		if n := len(a.Addresses); n > 0 {
			sec.Add(brief.SeverityWarning, fmt.Sprintf("%d linked wallet(s) found: %s", n, strings.Join(brief.Samples(a.Addresses, 3), ", ")))
		}
	}

	sec.Check(provider.SourceTags, tags.Status, false, "")
	if tags.OK() {
		tl := tags.Value
		facts.Tags = &tl
		sec.Add(brief.SeverityInfo, "Tagged as "+brief.JoinReadable(tl.Tags))
	}

	sec.Check(provider.SourceEntity, entity.Status, false, "")
	if entity.OK() {
		e := entity.Value
		facts.Entity = &e
		name := e.Name
		if name == "" {
			name = "unnamed entity"
		}
		if brief.IsRiskEntity(e.Type) {
			sec.Add(brief.SeverityCritical, fmt.Sprintf("Entity flagged as %s: %s", e.Type, name))
		} else if e.Type != "" {
			sec.Add(brief.SeverityInfo, fmt.Sprintf("Entity: %s (%s)", name, e.Type))
		}
	}

	if t.IsContract() {
		sec.Check(provider.SourceTrades, trades.Status, false, "")
		if trades.OK() {
			s := trades.Value
			facts.Trades = &s
			sec.Add(brief.SeverityInfo, fmt.Sprintf("Recent trades: %d swaps from %d unique makers (%d buys / %d sells, %s volume)",
				s.Trades, s.UniqueMakers, s.Buys, s.Sells, brief.FormatUSD(s.VolumeUSD)))
			if s.Trades >= 10 && s.UniqueMakers <= 3 {
				sec.Add(brief.SeverityWarning, "Trading is concentrated in very few makers; volume may be wash traded")
			}
			sec.Link("Trade sample", m.trades.PublicURL(addr), fmt.Sprintf("%d makers", s.UniqueMakers))
		}
	} else {
		sec.Check(provider.SourcePortfolio, folio.Status, false, "")
		if folio.OK() {
			p := folio.Value
			facts.Portfolio = &p
			sec.Add(brief.SeverityInfo, fmt.Sprintf("Portfolio %s across %d positions, %d profitable",
				brief.FormatUSD(p.TotalUSD), p.Positions, p.ProfitablePositions))
			if p.ProfitablePositions >= profitablePositions {
				sec.Add(brief.SeveritySuccess, fmt.Sprintf("Consistently profitable wallet (realized PnL %s)", brief.FormatUSD(p.RealizedPnLUSD)))
			}
			sec.Link("Portfolio", m.portfolio.PublicURL(addr), brief.FormatUSD(p.TotalUSD))
		}
	}

	sec.Check(provider.SourceActivity, activity.Status, false, "")
	if activity.OK() {
		a := activity.Value
		facts.Activity = &a
		if a.TxCount == 0 {
			sec.Add(brief.SeverityInfo, "No transactions in the last 24h")
		} else {
			sec.Add(brief.SeverityInfo, fmt.Sprintf("24h activity: %d transactions (%d in / %d out)", a.TxCount, a.Incoming, a.Outgoing))
		}
		sec.Link("24h activity", m.activity.AddressURL(addr), fmt.Sprintf("%d tx", a.TxCount))
	}

	return facts, sec
}
