package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

const token = "0x1111111111111111111111111111111111111111"

func f64(v float64) *float64 { return &v }

func TestMarketPairsFiltersChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/"+token, r.URL.Path)
		_, _ = w.Write([]byte(`{"pairs":[
			{"chainId":"bsc","dexId":"pancake","url":"https://x/bsc","liquidity":{"usd":999999}},
			{"chainId":"ethereum","dexId":"uniswap","url":"https://x/a","liquidity":{"usd":4000},"fdv":2000000},
			{"chainId":"ethereum","dexId":"sushiswap","url":"https://x/b","liquidity":{"usd":1200}}
		]}`))
	}))
	defer srv.Close()

	m := NewMarket(NewClient(0, 0, nil), config.ProviderConfig{BaseURL: srv.URL, Keyless: true, Timeout: time.Second}, config.ChainEthereum)
	r := m.Pairs(context.Background(), token)
	require.Equal(t, brief.StatusLive, r.Status)
	require.Len(t, r.Value, 2)

	best, ok := BestPair(r.Value)
	require.True(t, ok)
	assert.Equal(t, "uniswap", best.DexID)
	assert.Equal(t, 4000.0, *best.LiquidityUSD)
	assert.Equal(t, 2000000.0, *best.FDVUSD)
}

func TestMarketNoPairsIsNone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"pairs":null}`))
	}))
	defer srv.Close()

	m := NewMarket(NewClient(0, 0, nil), config.ProviderConfig{BaseURL: srv.URL, Keyless: true, Timeout: time.Second}, config.ChainEthereum)
	assert.Equal(t, brief.StatusNone, m.Pairs(context.Background(), token).Status)
}

func TestMarketUnconfigured(t *testing.T) {
	m := NewMarket(NewClient(0, 0, nil), config.ProviderConfig{}, config.ChainEthereum)
	assert.Equal(t, brief.StatusUnconfigured, m.Pairs(context.Background(), token).Status)
}

func TestBestPairPrefersKnownLiquidity(t *testing.T) {
	pairs := []brief.Pair{
		{DexID: "a"},
		{DexID: "b", LiquidityUSD: f64(10)},
		{DexID: "c", LiquidityUSD: f64(50)},
	}
	best, ok := BestPair(pairs)
	require.True(t, ok)
	assert.Equal(t, "c", best.DexID)

	_, ok = BestPair(nil)
	assert.False(t, ok)
}
