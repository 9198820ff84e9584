package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Chain string

const (
	ChainEthereum Chain = "ethereum"
	ChainBase     Chain = "base"
	ChainBSC      Chain = "bsc"
)

func AllEVMChains() []Chain {
	return []Chain{ChainEthereum, ChainBase, ChainBSC}
}

// ProviderConfig describes one external data source. Adapters receive it in their
// constructor and never read the environment themselves.
type ProviderConfig struct {
	BaseURL   string
	APIKey    string
	PublicURL string // fmt template with one %s for the address, used for evidence links
	Keyless   bool   // the source answers without an API key
	Timeout   time.Duration
}

// Configured reports whether the source can be called at all.
func (p ProviderConfig) Configured() bool {
	return p.BaseURL != "" && (p.APIKey != "" || p.Keyless)
}

// PublicLink renders the public page for address, or "" when the source has none.
func (p ProviderConfig) PublicLink(address string) string {
	if p.PublicURL == "" {
		return ""
	}
	return fmt.Sprintf(p.PublicURL, address)
}

// HolderConfig bounds the cost of the holder-cluster scan.
type HolderConfig struct {
	FetchLimit       int
	CandidateCap     int
	TopHolderCap     int
	CodeWorkers      int
	ProfileWorkers   int
	ProfileTimeout   time.Duration
	CodeTimeout      time.Duration
	TransferPageSize int
	TransferPageCap  int
	SmartMoneyPnLUSD float64
}

type Config struct {
	Chain  Chain
	EVMRPC map[Chain]string

	// Chain node reads
	RPCTimeout time.Duration

	// Resolver fallback probes
	ProbeTimeout time.Duration

	// Providers
	Market     ProviderConfig
	Explorer   ProviderConfig
	Labels     ProviderConfig
	Portfolio  ProviderConfig
	Trades     ProviderConfig
	AltWallets bool // opt-in: the linked-wallet lookup is served by the label service

	// Per-source timeouts inside the intel fan-out
	LabelTimeout    time.Duration
	AltTimeout      time.Duration
	TagTimeout      time.Duration
	EntityTimeout   time.Duration
	ActivityTimeout time.Duration

	Holders HolderConfig

	// Response cache
	CacheSize int
	CacheTTL  time.Duration

	// HTTP service
	ListenAddr       string
	RateLimitPerMin  int
	DBPath           string
	HistoryRetention time.Duration
	LogLevel         string
	LogJSON          bool

	// AI / LLM
	// AI_PROVIDER: "anthropic" | "openai" | "ollama" | "gemini" (explicit selection)
	// If not set, auto-detects from available API keys
	AIProvider      string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OllamaURL       string
	GeminiAPIKey    string
	AIModel         string
	AIMaxTokens     int
	AITimeout       time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Chain:      Chain(strings.ToLower(envOr("CHAIN", string(ChainEthereum)))),
		RPCTimeout: envMillis("RPC_TIMEOUT_MS", 3000),

		ProbeTimeout: envMillis("PROBE_TIMEOUT_MS", 2500),

		AltWallets: envBool("ALT_WALLETS_ENABLED", false),

		LabelTimeout:    envMillis("LABEL_TIMEOUT_MS", 4000),
		AltTimeout:      envMillis("ALT_WALLETS_TIMEOUT_MS", 4000),
		TagTimeout:      envMillis("TAGS_TIMEOUT_MS", 2500),
		EntityTimeout:   envMillis("ENTITY_TIMEOUT_MS", 4000),
		ActivityTimeout: envMillis("ACTIVITY_TIMEOUT_MS", 5000),

		Holders: HolderConfig{
			FetchLimit:       envInt("HOLDER_FETCH_LIMIT", 60),
			CandidateCap:     envInt("HOLDER_CANDIDATE_CAP", 24),
			TopHolderCap:     envInt("HOLDER_TOP_CAP", 12),
			CodeWorkers:      envInt("HOLDER_CODE_WORKERS", 5),
			ProfileWorkers:   envInt("HOLDER_PROFILE_WORKERS", 4),
			ProfileTimeout:   envMillis("HOLDER_PROFILE_TIMEOUT_MS", 1200),
			CodeTimeout:      envMillis("HOLDER_CODE_TIMEOUT_MS", 2000),
			TransferPageSize: envInt("HOLDER_TRANSFER_PAGE_SIZE", 100),
			TransferPageCap:  envInt("HOLDER_TRANSFER_PAGE_CAP", 6),
			SmartMoneyPnLUSD: envFloat("HOLDER_SMART_MONEY_PNL_USD", 5000),
		},

		CacheSize: envInt("CACHE_SIZE", 2048),
		CacheTTL:  time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		RateLimitPerMin:  envInt("RATE_LIMIT_PER_MIN", 30),
		DBPath:           envOr("DB_PATH", "chain_brief.db"),
		HistoryRetention: time.Duration(envInt("HISTORY_RETENTION_HOURS", 168)) * time.Hour,
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogJSON:          envBool("LOG_JSON", false),

		AIProvider:      os.Getenv("AI_PROVIDER"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OllamaURL:       os.Getenv("OLLAMA_URL"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AIModel:         os.Getenv("AI_MODEL"),
		AIMaxTokens:     envInt("AI_MAX_TOKENS", 400),
		AITimeout:       envMillis("AI_TIMEOUT_MS", 4500),
	}

	// EVM RPCs
	cfg.EVMRPC = map[Chain]string{
		ChainEthereum: envOr("ETH_RPC_URL", "https://eth.llamarpc.com"),
		ChainBase:     envOr("BASE_RPC_URL", "https://mainnet.base.org"),
		ChainBSC:      envOr("BSC_RPC_URL", "https://bsc-dataseed.binance.org"),
	}

	cfg.Market = ProviderConfig{
		BaseURL: envOr("DEXSCREENER_API", "https://api.dexscreener.com"),
		Keyless: true,
		Timeout: envMillis("MARKET_TIMEOUT_MS", 3500),
	}

	explorerKeys := map[Chain]string{
		ChainEthereum: os.Getenv("ETHERSCAN_API_KEY"),
		ChainBase:     os.Getenv("BASESCAN_API_KEY"),
		ChainBSC:      os.Getenv("BSCSCAN_API_KEY"),
	}
	cfg.Explorer = ProviderConfig{
		BaseURL:   envOr("EXPLORER_API_URL", cfg.ExplorerAPIURL()),
		APIKey:    explorerKeys[cfg.Chain],
		PublicURL: cfg.ExplorerSite() + "/address/%s",
		Timeout:   envMillis("EXPLORER_TIMEOUT_MS", 4000),
	}

	cfg.Labels = ProviderConfig{
		BaseURL:   os.Getenv("LABELS_API_URL"),
		APIKey:    os.Getenv("LABELS_API_KEY"),
		PublicURL: os.Getenv("LABELS_PUBLIC_URL"),
		Timeout:   cfg.LabelTimeout,
	}
	cfg.Portfolio = ProviderConfig{
		BaseURL:   os.Getenv("PORTFOLIO_API_URL"),
		APIKey:    os.Getenv("PORTFOLIO_API_KEY"),
		PublicURL: os.Getenv("PORTFOLIO_PUBLIC_URL"),
		Timeout:   envMillis("PORTFOLIO_TIMEOUT_MS", 6500),
	}
	cfg.Trades = ProviderConfig{
		BaseURL:   envOr("BIRDEYE_API_URL", "https://public-api.birdeye.so"),
		APIKey:    os.Getenv("BIRDEYE_API_KEY"),
		PublicURL: "https://birdeye.so/token/%s?chain=" + cfg.BirdeyeChain(),
		Timeout:   envMillis("TRADES_TIMEOUT_MS", 5000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	known := false
	for _, ch := range AllEVMChains() {
		if c.Chain == ch {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unsupported CHAIN %q (want ethereum, base or bsc)", c.Chain)
	}
	if c.EVMRPC[c.Chain] == "" {
		return fmt.Errorf("no RPC URL configured for %s", c.Chain)
	}
	if c.Holders.CodeWorkers < 1 || c.Holders.ProfileWorkers < 1 {
		return fmt.Errorf("holder worker pools need at least one worker")
	}
	return nil
}

// RPCURL returns the node endpoint for the configured chain.
func (c *Config) RPCURL() string {
	return c.EVMRPC[c.Chain]
}

func (c *Config) ExplorerAPIURL() string {
	switch c.Chain {
	case ChainEthereum:
		return "https://api.etherscan.io/api"
	case ChainBase:
		return "https://api.basescan.org/api"
	case ChainBSC:
		return "https://api.bscscan.com/api"
	default:
		return ""
	}
}

// ExplorerSite is the human-facing explorer used for evidence links.
func (c *Config) ExplorerSite() string {
	switch c.Chain {
	case ChainBase:
		return "https://basescan.org"
	case ChainBSC:
		return "https://bscscan.com"
	default:
		return "https://etherscan.io"
	}
}

func (c *Config) BirdeyeChain() string {
	if c.Chain == ChainBSC {
		return "bsc"
	}
	return string(c.Chain)
}

func (c *Config) NativeSymbol() string {
	if c.Chain == ChainBSC {
		return "BNB"
	}
	return "ETH"
}

// helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
