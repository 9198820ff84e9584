package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/provider"
)

const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"

	HighRiskScore   = 80
	MediumRiskScore = 55

	// promptFindings caps how many findings are quoted to the model.
	promptFindings = 6
)

// Input is everything the narrative may talk about.
type Input struct {
	Target   brief.Target
	Token    *brief.TokenFacts
	Market   brief.MarketFacts
	Holders  *brief.HolderCluster
	Findings []brief.Finding
	Score    int
	Lang     string
}

type Composer struct {
	llm       LLM
	timeout   time.Duration
	maxTokens int
}

// NewComposer accepts a nil llm; every narrative is then templated.
func NewComposer(llm LLM, timeout time.Duration, maxTokens int) *Composer {
	return &Composer{llm: llm, timeout: timeout, maxTokens: maxTokens}
}

// Compose returns the templated narrative unless the LLM produces a valid
// replacement in time. Failures are logged and never returned.
func (c *Composer) Compose(ctx context.Context, in Input) (brief.Narrative, brief.SourceCheck) {
	fallback := Fallback(in)
	if c.llm == nil {
		return fallback, brief.SourceCheck{Source: SourceLLM, Status: brief.StatusUnconfigured}
	}

	start := time.Now()
	n, err := c.generate(ctx, in)
	if err != nil {
		log.Debug().Err(fmt.Errorf("%w: %w", brief.ErrNarrativeDegraded, err)).
			Str("provider", c.llm.Name()).
			Dur("elapsed", time.Since(start)).
			Msg("narrative fallback")
		return fallback, brief.SourceCheck{Source: SourceLLM, Status: brief.StatusNone, Note: truncate(err.Error(), 120)}
	}
	return n, brief.SourceCheck{Source: SourceLLM, Status: brief.StatusLive}
}

func (c *Composer) generate(ctx context.Context, in Input) (brief.Narrative, error) {
	lang := NormalizeLang(in.Lang)
	raw, err := provider.Call(ctx, c.timeout, func(ctx context.Context) (string, error) {
		return c.llm.Complete(ctx, Prompt(in), c.maxTokens)
	})
	if err != nil {
		return brief.Narrative{}, err
	}
	summary, explanation, err := ParseReply(raw)
	if err != nil {
		return brief.Narrative{}, err
	}
	if IsCJK(lang) && MostlyLatin(summary+" "+explanation) {
		return brief.Narrative{}, fmt.Errorf("reply is not in %s", lang)
	}
	return brief.Narrative{
		Summary:     summary,
		Explanation: explanation,
		Source:      SourceLLM + ":" + c.llm.Name(),
	}, nil
}

type reply struct {
	Summary     string `json:"summary"`
	Explanation string `json:"explanation"`
}

var errReplyShape = errors.New("reply must be {summary, explanation}")

// ParseReply accepts exactly one JSON object with non-empty summary and
// explanation strings and nothing else.
func ParseReply(raw string) (string, string, error) {
	dec := json.NewDecoder(bytes.NewReader(extractJSON(raw)))
	dec.DisallowUnknownFields()
	var r reply
	if err := dec.Decode(&r); err != nil {
		return "", "", fmt.Errorf("%w: %w", errReplyShape, err)
	}
	if dec.More() {
		return "", "", fmt.Errorf("%w: trailing data", errReplyShape)
	}
	r.Summary = strings.TrimSpace(r.Summary)
	r.Explanation = strings.TrimSpace(r.Explanation)
	if r.Summary == "" || r.Explanation == "" {
		return "", "", fmt.Errorf("%w: empty field", errReplyShape)
	}
	return r.Summary, r.Explanation, nil
}

var langNames = map[string]string{
	LangEN: "English",
	LangZH: "Simplified Chinese",
	LangJA: "Japanese",
	LangKO: "Korean",
}

// Prompt renders the single LLM request for a brief.
func Prompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an on-chain risk analyst. Write a short due-diligence brief in %s.\n\n",
		langNames[NormalizeLang(in.Lang)])
	fmt.Fprintf(&b, "Target: %s (%s)\n", in.Target.Address, in.Target.Chain)
	fmt.Fprintf(&b, "Type: %s\n", in.Target.Kind)
	fmt.Fprintf(&b, "Risk score: %d/100\n", in.Score)
	if in.Market.LiquidityUSD != nil {
		fmt.Fprintf(&b, "Liquidity: %s\n", brief.FormatUSD(*in.Market.LiquidityUSD))
	} else {
		b.WriteString("Liquidity: unknown\n")
	}
	b.WriteString("Findings:\n")
	for i, f := range in.Findings {
		if i == promptFindings {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", f.Severity, f.Text)
	}
	b.WriteString(`
Use only the facts above. Do not give investment advice.
Return ONLY a JSON object with exactly these two string fields:
{"summary": "one sentence verdict", "explanation": "two to four sentences"}`)
	return b.String()
}

// Fallback is the deterministic narrative built from facts alone.
func Fallback(in Input) brief.Narrative {
	loc := locales[NormalizeLang(in.Lang)]

	kind := loc.kindWallet
	if in.Target.IsContract() {
		kind = loc.kindContract
	}
	var summary string
	switch {
	case in.Score >= HighRiskScore:
		summary = fmt.Sprintf(loc.high, in.Score, kind)
	case in.Score >= MediumRiskScore:
		summary = fmt.Sprintf(loc.medium, in.Score, kind)
	default:
		summary = fmt.Sprintf(loc.low, in.Score, kind)
	}

	var sentences []string
	if in.Target.IsContract() {
		suffix := ""
		if label := tokenLabel(in.Token); label != "" {
			suffix = fmt.Sprintf(loc.tokenSuffix, label)
		}
		sentences = append(sentences, fmt.Sprintf(loc.contract, suffix))
	} else {
		sentences = append(sentences, loc.wallet)
	}
	if in.Market.LiquidityUSD != nil {
		sentences = append(sentences, fmt.Sprintf(loc.liquidity, brief.FormatUSD(*in.Market.LiquidityUSD)))
	} else if in.Target.IsContract() {
		sentences = append(sentences, loc.noLiquidity)
	}
	if in.Holders != nil && in.Holders.BundleGroupCount > 0 {
		sentences = append(sentences, fmt.Sprintf(loc.bundles, in.Holders.BundleGroupCount))
	}
	sentences = append(sentences, loc.closer)

	sep := " "
	if IsCJK(in.Lang) && NormalizeLang(in.Lang) != LangKO {
		sep = ""
	}
	return brief.Narrative{
		Summary:     summary,
		Explanation: strings.Join(sentences, sep),
		Source:      SourceFallback,
	}
}

func tokenLabel(t *brief.TokenFacts) string {
	if t == nil {
		return ""
	}
	if t.Symbol != nil && *t.Symbol != "" {
		return *t.Symbol
	}
	if t.Name != nil {
		return *t.Name
	}
	return ""
}
