package brief

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/chain-brief/pkg/config"
)

// ---- Target ----

type Kind string

const (
	KindContract Kind = "contract"
	KindWallet   Kind = "wallet"
)

type Target struct {
	Address            string           `json:"address"`
	Chain              config.Chain     `json:"chain"`
	Kind               Kind             `json:"kind"`
	IsContractBytecode bool             `json:"is_contract_bytecode"`
	NativeBalance      *decimal.Decimal `json:"native_balance"` // nil when the read failed
	Nonce              uint64           `json:"nonce"`
	ClassifiedBy       string           `json:"classified_by"` // "bytecode","token_metadata","market_pair","default"
}

func (t Target) IsContract() bool { return t.Kind == KindContract }

// ---- Facts ----

// Source tells whether a facts record came from a provider or is empty.
type Source string

const (
	SourceAPI  Source = "api"
	SourceNone Source = "none"
)

type TokenFacts struct {
	Name        *string `json:"name,omitempty"`
	Symbol      *string `json:"symbol,omitempty"`
	Decimals    *uint8  `json:"decimals,omitempty"`
	TotalSupply *string `json:"total_supply,omitempty"` // raw integer units
	Owner       *string `json:"owner,omitempty"`
}

func (t *TokenFacts) Empty() bool {
	return t == nil || (t.Name == nil && t.Symbol == nil && t.Decimals == nil && t.TotalSupply == nil && t.Owner == nil)
}

type MarketFacts struct {
	LiquidityUSD *float64 `json:"liquidity_usd,omitempty"`
	FDVUSD       *float64 `json:"fdv_usd,omitempty"`
	PairURL      string   `json:"pair_url,omitempty"`
	DexID        string   `json:"dex_id,omitempty"`
	Source       Source   `json:"source"`
}

// Pair is one DEX pair as normalized by the market adapter.
type Pair struct {
	ChainID      string   `json:"chain_id"`
	DexID        string   `json:"dex_id"`
	URL          string   `json:"url"`
	PairAddress  string   `json:"pair_address"`
	BaseAddress  string   `json:"base_address"`
	BaseSymbol   string   `json:"base_symbol"`
	LiquidityUSD *float64 `json:"liquidity_usd,omitempty"`
	FDVUSD       *float64 `json:"fdv_usd,omitempty"`
}

// TokenMeta is the explorer's token metadata record used by the resolver probe.
type TokenMeta struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type PnLEntry struct {
	Asset       string  `json:"asset"`
	RealizedUSD float64 `json:"realized_usd"`
}

type LabelProfile struct {
	Label    string     `json:"label,omitempty"`
	Verified bool       `json:"verified"`
	Tags     []string   `json:"tags,omitempty"`
	PnL      []PnLEntry `json:"pnl,omitempty"`
	Source   Source     `json:"source"`
}

// BestPnL returns the asset with the highest realized profit.
func (p *LabelProfile) BestPnL() (PnLEntry, bool) {
	if p == nil || len(p.PnL) == 0 {
		return PnLEntry{}, false
	}
	best := p.PnL[0]
	for _, e := range p.PnL[1:] {
		if e.RealizedUSD > best.RealizedUSD {
			best = e
		}
	}
	return best, true
}

type AltWallets struct {
	Addresses []string `json:"addresses"`
	Source    Source   `json:"source"`
}

type TagList struct {
	Tags   []string `json:"tags"`
	Source Source   `json:"source"`
}

type Entity struct {
	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Source Source `json:"source"`
}

type Portfolio struct {
	TotalUSD            float64 `json:"total_usd"`
	Positions           int     `json:"positions"`
	ProfitablePositions int     `json:"profitable_positions"`
	RealizedPnLUSD      float64 `json:"realized_pnl_usd"`
	Source              Source  `json:"source"`
}

type TradeSample struct {
	Trades       int     `json:"trades"`
	UniqueMakers int     `json:"unique_makers"`
	Buys         int     `json:"buys"`
	Sells        int     `json:"sells"`
	VolumeUSD    float64 `json:"volume_usd"`
	Source       Source  `json:"source"`
}

type Activity struct {
	Window   string `json:"window"`
	TxCount  int    `json:"tx_count"`
	Incoming int    `json:"incoming"`
	Outgoing int    `json:"outgoing"`
	Source   Source `json:"source"`
}

// IntelFacts holds one record per intel source; nil means the source gave nothing.
type IntelFacts struct {
	Label      *LabelProfile `json:"label,omitempty"`
	AltWallets *AltWallets   `json:"alt_wallets,omitempty"`
	Tags       *TagList      `json:"tags,omitempty"`
	Entity     *Entity       `json:"entity,omitempty"`
	Portfolio  *Portfolio    `json:"portfolio,omitempty"`
	Trades     *TradeSample  `json:"trades,omitempty"`
	Activity   *Activity     `json:"activity,omitempty"`
}

// ---- Holder cluster ----

type Holder struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	TxHash string `json:"tx_hash"`
	Block  int64  `json:"block"`
}

type BundleGroup struct {
	Source  string   `json:"source"`
	Holders []string `json:"holders"`
}

type HolderCluster struct {
	TopHolderCount        int           `json:"top_holder_count"`
	SmartMoneyHolderCount int           `json:"smart_money_holder_count"`
	BundleGroupCount      int           `json:"bundle_group_count"`
	BundledHolderCount    int           `json:"bundled_holder_count"`
	SmartMoneySamples     []string      `json:"smart_money_samples"`
	BundleSourceSamples   []string      `json:"bundle_source_samples"`
	BundleGroups          []BundleGroup `json:"bundle_groups"`
}

// ---- Narrative & runtime ----

type Narrative struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
	Source      string `json:"source"` // "fallback" or "llm:<provider>"
}

type RuntimeReport struct {
	Mode    string        `json:"mode"` // "enhanced" or "fallback"
	Sources []SourceCheck `json:"sources"`
}

// ---- Envelope ----

type BriefResult struct {
	Query       string         `json:"query"`
	Lang        string         `json:"lang"`
	Target      Target         `json:"target"`
	Token       *TokenFacts    `json:"token,omitempty"`
	Market      MarketFacts    `json:"market"`
	Intel       IntelFacts     `json:"intel"`
	Holders     *HolderCluster `json:"holders,omitempty"`
	Findings    []Finding      `json:"findings"`
	Evidence    []Evidence     `json:"evidence"`
	RiskScore   int            `json:"risk_score"`
	Narrative   Narrative      `json:"narrative"`
	Runtime     RuntimeReport  `json:"runtime"`
	GeneratedAt time.Time      `json:"generated_at"`
}
