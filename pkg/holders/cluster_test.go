package holders

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
	"github.com/chain-brief/pkg/provider"
)

const token = "0x6982508145454ce325ddbe47a25d4ec3d2311933"

func addr(prefix string, i int) string {
	return fmt.Sprintf("0x%s%0*d", prefix, 40-len(prefix), i)
}

func testHolderConfig() config.HolderConfig {
	return config.HolderConfig{
		FetchLimit:       60,
		CandidateCap:     24,
		TopHolderCap:     12,
		CodeWorkers:      5,
		ProfileWorkers:   4,
		ProfileTimeout:   time.Second,
		CodeTimeout:      time.Second,
		TransferPageSize: 100,
		TransferPageCap:  6,
		SmartMoneyPnLUSD: 5000,
	}
}

type fakeExplorer struct {
	holders   []brief.Holder
	transfers []brief.Transfer
	pageCalls atomic.Int32
}

func (f *fakeExplorer) Configured() bool { return true }
func (f *fakeExplorer) HoldersURL(token string) string {
	return "https://etherscan.io/token/" + token + "#balances"
}
func (f *fakeExplorer) TopHolders(ctx context.Context, token string, limit int) provider.Result[[]brief.Holder] {
	hs := f.holders
	if len(hs) > limit {
		hs = hs[:limit]
	}
	return provider.Result[[]brief.Holder]{Value: hs, Status: brief.StatusLive}
}
func (f *fakeExplorer) Transfers(ctx context.Context, token string, page, size int) provider.Result[[]brief.Transfer] {
	f.pageCalls.Add(1)
	start := (page - 1) * size
	if start >= len(f.transfers) {
		return provider.Result[[]brief.Transfer]{Status: brief.StatusLive}
	}
	end := min(start+size, len(f.transfers))
	return provider.Result[[]brief.Transfer]{Value: f.transfers[start:end], Status: brief.StatusLive}
}

type fakeCode struct {
	contracts map[string]bool
	mu        sync.Mutex
	inflight  int
	peak      int
}

func (f *fakeCode) Code(ctx context.Context, a string) ([]byte, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
	if f.contracts[a] {
		return []byte{0x60}, nil
	}
	return nil, nil
}

type fakeProfiles struct {
	labels   map[string]brief.LabelProfile
	mu       sync.Mutex
	inflight int
	peak     int
}

func (f *fakeProfiles) Configured() bool { return true }
func (f *fakeProfiles) Profile(ctx context.Context, a string) provider.Result[brief.LabelProfile] {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.peak {
		f.peak = f.inflight
	}
	f.mu.Unlock()
	time.Sleep(2 * time.Millisecond)
	f.mu.Lock()
	f.inflight--
	f.mu.Unlock()
	p, ok := f.labels[a]
	if !ok {
		return provider.Result[brief.LabelProfile]{Status: brief.StatusNone}
	}
	return provider.Result[brief.LabelProfile]{Value: p, Status: brief.StatusLive}
}

func holderList(addrs ...string) []brief.Holder {
	out := make([]brief.Holder, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, brief.Holder{Address: a, Balance: "1"})
	}
	return out
}

func TestBundleOfFourFromSharedFunder(t *testing.T) {
	f := addr("f", 1)
	h := []string{addr("a", 1), addr("a", 2), addr("a", 3), addr("a", 4), addr("a", 5)}
	transfers := []brief.Transfer{
		{From: f, To: h[0]},
		{From: f, To: h[1]},
		{From: addr("e", 9), To: h[4]},
		{From: f, To: h[2]},
		{From: addr("e", 1), To: h[0]}, // later transfer, ignored
		{From: f, To: h[3]},
	}
	funders := FirstFunders(transfers, h)
	groups := GroupBundles(funders)

	require.Len(t, groups, 1)
	assert.Equal(t, f, groups[0].Source)
	assert.ElementsMatch(t, h[:4], groups[0].Holders)
	assert.NotContains(t, groups[0].Holders, h[4])
}

func TestTwoHoldersSharingFunder(t *testing.T) {
	shared := addr("f", 7)
	h := []string{addr("a", 1), addr("a", 2), addr("a", 3), addr("a", 4)}
	transfers := []brief.Transfer{
		{From: shared, To: h[0]},
		{From: addr("e", 1), To: h[1]},
		{From: shared, To: h[2]},
		{From: addr("e", 2), To: h[3]},
	}
	groups := GroupBundles(FirstFunders(transfers, h))
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Holders, 2)
}

func TestMintIsNotFunding(t *testing.T) {
	h := []string{addr("a", 1), addr("a", 2)}
	transfers := []brief.Transfer{
		{From: zeroAddress, To: h[0]},
		{From: zeroAddress, To: h[1]},
	}
	assert.Empty(t, GroupBundles(FirstFunders(transfers, h)))
}

func TestGroupOrdering(t *testing.T) {
	funders := map[string]string{
		"h1": "src-b", "h2": "src-b",
		"h3": "src-a", "h4": "src-a",
		"h5": "src-c", "h6": "src-c", "h7": "src-c",
		"h8": "solo",
	}
	groups := GroupBundles(funders)
	require.Len(t, groups, 3)
	assert.Equal(t, "src-c", groups[0].Source)
	assert.Equal(t, "src-a", groups[1].Source)
	assert.Equal(t, "src-b", groups[2].Source)
}

func TestCandidatesExcludeTokenAndCap(t *testing.T) {
	var hs []brief.Holder
	hs = append(hs, brief.Holder{Address: strings.ToUpper(token[:2]) + token[2:]})
	for i := 0; i < 60; i++ {
		hs = append(hs, brief.Holder{Address: addr("b", i%40)})
	}
	hs = append(hs, brief.Holder{Address: token})

	got := Candidates(hs, token, 24)
	assert.Len(t, got, 24)
	assert.NotContains(t, got, token)
	seen := map[string]bool{}
	for _, a := range got {
		assert.False(t, seen[a], "duplicate %s", a)
		seen[a] = true
	}
}

func TestIsSmartMoney(t *testing.T) {
	assert.True(t, IsSmartMoney(brief.LabelProfile{Verified: true}, 5000))
	assert.True(t, IsSmartMoney(brief.LabelProfile{Label: "Whale 0x12"}, 5000))
	assert.True(t, IsSmartMoney(brief.LabelProfile{Tags: []string{"MEV Sniper"}}, 5000))
	assert.True(t, IsSmartMoney(brief.LabelProfile{PnL: []brief.PnLEntry{{Asset: "PEPE", RealizedUSD: 5001}}}, 5000))
	assert.False(t, IsSmartMoney(brief.LabelProfile{PnL: []brief.PnLEntry{{Asset: "PEPE", RealizedUSD: 5000}}}, 5000))
	assert.False(t, IsSmartMoney(brief.LabelProfile{Label: "Binance 14"}, 5000))
}

func TestRunEndToEnd(t *testing.T) {
	var addrs []string
	contracts := map[string]bool{}
	for i := 0; i < 30; i++ {
		a := addr("c", i)
		addrs = append(addrs, a)
		if i%3 == 0 {
			contracts[a] = true
		}
	}
	holders := holderList(append([]string{token}, addrs...)...)

	// First 12 non-contract candidates are the top holders.
	cfg := testHolderConfig()
	funder := addr("f", 1)
	var top []string
	for _, a := range addrs[:24] {
		if !contracts[a] && len(top) < cfg.TopHolderCap {
			top = append(top, a)
		}
	}
	require.Len(t, top, 12)

	var transfers []brief.Transfer
	for i := 0; i < 250; i++ {
		transfers = append(transfers, brief.Transfer{From: addr("d", i), To: addr("e", i)})
	}
	transfers = append(transfers,
		brief.Transfer{From: funder, To: top[0]},
		brief.Transfer{From: funder, To: top[1]},
	)

	ex := &fakeExplorer{holders: holders, transfers: transfers}
	code := &fakeCode{contracts: contracts}
	profiles := &fakeProfiles{labels: map[string]brief.LabelProfile{top[2]: {Label: "alpha caller"}}}

	cluster, sec := New(ex, code, profiles, cfg).Run(context.Background(), brief.Target{Address: token, Kind: brief.KindContract})
	require.NotNil(t, cluster)

	assert.Equal(t, 12, cluster.TopHolderCount)
	assert.Equal(t, 1, cluster.SmartMoneyHolderCount)
	assert.Equal(t, 1, cluster.BundleGroupCount)
	assert.Equal(t, 2, cluster.BundledHolderCount)
	assert.Equal(t, []string{brief.Abbrev(funder)}, cluster.BundleSourceSamples)
	assert.LessOrEqual(t, code.peak, cfg.CodeWorkers)
	assert.Positive(t, profiles.peak)
	assert.LessOrEqual(t, profiles.peak, cfg.ProfileWorkers)
	assert.Equal(t, int32(3), ex.pageCalls.Load())

	require.Len(t, sec.Findings, 3)
	assert.Equal(t, brief.SeverityInfo, sec.Findings[0].Severity)
	assert.Equal(t, brief.SeveritySuccess, sec.Findings[1].Severity)
	assert.Equal(t, brief.SeverityWarning, sec.Findings[2].Severity)
	require.Len(t, sec.Evidence, 1)
	assert.Contains(t, sec.Evidence[0].URL, "#balances")
}

func TestRunPageCap(t *testing.T) {
	var transfers []brief.Transfer
	for i := 0; i < 2000; i++ {
		transfers = append(transfers, brief.Transfer{From: addr("d", i), To: addr("e", i)})
	}
	ex := &fakeExplorer{holders: holderList(addr("a", 1), addr("a", 2)), transfers: transfers}
	cluster, _ := New(ex, &fakeCode{}, nil, testHolderConfig()).Run(context.Background(), brief.Target{Address: token, Kind: brief.KindContract})

	require.NotNil(t, cluster)
	assert.Equal(t, int32(6), ex.pageCalls.Load())
	assert.Zero(t, cluster.BundleGroupCount)
}

func TestRunSkipsWallets(t *testing.T) {
	cluster, sec := New(&fakeExplorer{}, &fakeCode{}, nil, testHolderConfig()).Run(context.Background(), brief.Target{Address: token, Kind: brief.KindWallet})
	assert.Nil(t, cluster)
	assert.Empty(t, sec.Findings)
	assert.Empty(t, sec.Checks)
}
