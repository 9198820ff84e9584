// Package holders samples the top holders of a token and groups the ones
// that share a first funding source.
package holders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/provider"
)

const (
	maxBundleGroups = 4
	maxSamples      = 4
	zeroAddress     = "0x0000000000000000000000000000000000000000"
)

var smartMoneyKeywords = []string{"kol", "smart", "alpha", "sniper", "whale", "fund", "maker", "trader"}

type Explorer interface {
	Configured() bool
	HoldersURL(token string) string
	TopHolders(ctx context.Context, token string, limit int) provider.Result[[]brief.Holder]
	Transfers(ctx context.Context, token string, page, size int) provider.Result[[]brief.Transfer]
}

type CodeReader interface {
	Code(ctx context.Context, addr string) ([]byte, error)
}

type Profiler interface {
	Configured() bool
	Profile(ctx context.Context, addr string) provider.Result[brief.LabelProfile]
}

type Module struct {
	explorer Explorer
	node     CodeReader
	labels   Profiler
	cfg      config.HolderConfig
}

func New(explorer Explorer, node CodeReader, labels Profiler, cfg config.HolderConfig) *Module {
	return &Module{explorer: explorer, node: node, labels: labels, cfg: cfg}
}

// Run scans contract targets only. Without a configured explorer it
// returns a nil cluster and a section that only carries the source check.
func (m *Module) Run(ctx context.Context, t brief.Target) (*brief.HolderCluster, *brief.Section) {
	sec := brief.NewSection(brief.ModuleHolders)
	if !t.IsContract() {
		return nil, sec
	}
	if !m.explorer.Configured() {
		sec.Check(provider.SourceExplorer, brief.StatusUnconfigured, false, "holder scan skipped")
		return nil, sec
	}

	res := m.explorer.TopHolders(ctx, t.Address, m.cfg.FetchLimit)
	sec.Check(provider.SourceExplorer, res.Status, false, "")
	if !res.OK() {
		return nil, sec
	}

	candidates := Candidates(res.Value, t.Address, m.cfg.CandidateCap)
	top := m.externallyOwned(ctx, candidates)
	smart := m.smartMoney(ctx, top)
	funders, pages := m.firstFunders(ctx, t.Address, top)
	groups := GroupBundles(funders)

	cluster := &brief.HolderCluster{
		TopHolderCount:        len(top),
		SmartMoneyHolderCount: len(smart),
		BundleGroupCount:      len(groups),
		BundledHolderCount:    bundled(groups),
		SmartMoneySamples:     brief.Samples(smart, maxSamples),
	}
	if len(groups) > maxBundleGroups {
		groups = groups[:maxBundleGroups]
	}
	cluster.BundleGroups = groups
	sources := make([]string, 0, len(groups))
	for _, g := range groups {
		sources = append(sources, g.Source)
	}
	cluster.BundleSourceSamples = brief.Samples(sources, maxSamples)

	sec.Add(brief.SeverityInfo, fmt.Sprintf("Scanned %d top holders (contracts excluded) across %d transfer page(s)", len(top), pages))
	if len(smart) > 0 {
		sec.Add(brief.SeveritySuccess, fmt.Sprintf("%d smart-money holder(s): %s",
			len(smart), strings.Join(cluster.SmartMoneySamples, ", ")))
	}
	if len(groups) > 0 {
		sec.Add(brief.SeverityWarning, fmt.Sprintf("%d bundle group(s): holders sharing a first funder (%s)",
			cluster.BundleGroupCount, strings.Join(cluster.BundleSourceSamples, ", ")))
	}
	sec.Link("Holder distribution", m.explorer.HoldersURL(t.Address), fmt.Sprintf("%d top holders", len(top)))

	log.Debug().Str("token", brief.Abbrev(t.Address)).Int("top", len(top)).
		Int("smart", len(smart)).Int("bundles", cluster.BundleGroupCount).Msg("holder scan done")
	return cluster, sec
}

func bundled(groups []brief.BundleGroup) int {
	n := 0
	for _, g := range groups {
		n += len(g.Holders)
	}
	return n
}

// Candidates drops the token itself, dedupes and caps the holder list.
func Candidates(holders []brief.Holder, token string, limit int) []string {
	seen := map[string]bool{strings.ToLower(token): true}
	out := make([]string, 0, limit)
	for _, h := range holders {
		if len(out) == limit {
			break
		}
		a := strings.ToLower(h.Address)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// externallyOwned probes bytecode with a bounded pool and keeps up to
// TopHolderCap addresses without code, in candidate order. A failed probe
// counts as no code.
func (m *Module) externallyOwned(ctx context.Context, candidates []string) []string {
	isContract := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.CodeWorkers)
	for i, addr := range candidates {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, m.cfg.CodeTimeout)
			defer cancel()
			code, err := m.node.Code(cctx, addr)
			isContract[i] = err == nil && len(code) > 0
			return nil
		})
	}
	_ = g.Wait()

	top := make([]string, 0, m.cfg.TopHolderCap)
	for i, addr := range candidates {
		if len(top) == m.cfg.TopHolderCap {
			break
		}
		if !isContract[i] {
			top = append(top, addr)
		}
	}
	return top
}

func (m *Module) smartMoney(ctx context.Context, top []string) []string {
	if m.labels == nil || !m.labels.Configured() {
		return nil
	}
	flags := make([]bool, len(top))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.ProfileWorkers)
	for i, addr := range top {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(gctx, m.cfg.ProfileTimeout)
			defer cancel()
			res := m.labels.Profile(pctx, addr)
			if res.OK() {
				flags[i] = IsSmartMoney(res.Value, m.cfg.SmartMoneyPnLUSD)
			}
			return nil
		})
	}
	_ = g.Wait()

	var out []string
	for i, addr := range top {
		if flags[i] {
			out = append(out, addr)
		}
	}
	return out
}

// IsSmartMoney flags verified profiles, keyword labels or tags, and
// wallets with a realized profit above minPnL on any asset.
func IsSmartMoney(p brief.LabelProfile, minPnL float64) bool {
	if p.Verified {
		return true
	}
	for _, s := range append([]string{p.Label}, p.Tags...) {
		l := strings.ToLower(s)
		for _, k := range smartMoneyKeywords {
			if strings.Contains(l, k) {
				return true
			}
		}
	}
	for _, e := range p.PnL {
		if e.RealizedUSD > minPnL {
			return true
		}
	}
	return false
}

// firstFunders pages the token's transfer log oldest-first until every
// holder has a funder, a page comes back short or the page cap is hit.
func (m *Module) firstFunders(ctx context.Context, token string, top []string) (map[string]string, int) {
	funders := make(map[string]string, len(top))
	if len(top) == 0 {
		return funders, 0
	}
	want := make(map[string]bool, len(top))
	for _, a := range top {
		want[a] = true
	}

	pages := 0
	for page := 1; page <= m.cfg.TransferPageCap && len(funders) < len(top); page++ {
		res := m.explorer.Transfers(ctx, token, page, m.cfg.TransferPageSize)
		if !res.OK() {
			break
		}
		pages++
		recordFunders(funders, want, res.Value)
		if len(res.Value) < m.cfg.TransferPageSize {
			break
		}
	}
	return funders, pages
}

// FirstFunders maps each holder to the sender of its first inbound transfer.
func FirstFunders(transfers []brief.Transfer, holders []string) map[string]string {
	want := make(map[string]bool, len(holders))
	for _, h := range holders {
		want[strings.ToLower(h)] = true
	}
	funders := make(map[string]string, len(holders))
	recordFunders(funders, want, transfers)
	return funders
}

// recordFunders keeps the first sender seen for each wanted holder. Mint
// transfers from the zero address are not funding.
func recordFunders(funders map[string]string, want map[string]bool, transfers []brief.Transfer) {
	for _, tr := range transfers {
		to, from := strings.ToLower(tr.To), strings.ToLower(tr.From)
		if !want[to] || from == to || from == zeroAddress || from == "" {
			continue
		}
		if _, done := funders[to]; !done {
			funders[to] = from
		}
	}
}

// GroupBundles returns every funding source shared by two or more holders,
// largest group first, ties broken by source address.
func GroupBundles(funders map[string]string) []brief.BundleGroup {
	bySource := map[string][]string{}
	for holder, src := range funders {
		bySource[src] = append(bySource[src], holder)
	}
	var groups []brief.BundleGroup
	for src, hs := range bySource {
		if len(hs) < 2 {
			continue
		}
		sort.Strings(hs)
		groups = append(groups, brief.BundleGroup{Source: src, Holders: hs})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Holders) != len(groups[j].Holders) {
			return len(groups[i].Holders) > len(groups[j].Holders)
		}
		return groups[i].Source < groups[j].Source
	})
	return groups
}
