package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

type fakeLLM struct {
	reply  string
	err    error
	delay  time.Duration
	prompt string
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Complete(ctx context.Context, prompt string, _ int) (string, error) {
	f.prompt = prompt
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func f64(v float64) *float64 { return &v }

func contractInput(lang string) Input {
	sym := "PEPE"
	return Input{
		Target: brief.Target{
			Address: "0x6982508145454ce325ddbe47a25d4ec3d2311933",
			Chain:   config.ChainEthereum,
			Kind:    brief.KindContract,
		},
		Token:   &brief.TokenFacts{Symbol: &sym},
		Market:  brief.MarketFacts{LiquidityUSD: f64(4000)},
		Holders: &brief.HolderCluster{BundleGroupCount: 1},
		Findings: []brief.Finding{
			{Severity: brief.SeverityWarning, Text: "Liquidity is very low", Module: brief.ModuleMarket},
		},
		Score: 82,
		Lang:  lang,
	}
}

func TestFallbackBands(t *testing.T) {
	in := contractInput("en")
	assert.True(t, strings.HasPrefix(Fallback(in).Summary, "High risk (82/100)"))

	in.Score = 55
	assert.True(t, strings.HasPrefix(Fallback(in).Summary, "Medium risk"))

	in.Score = 54
	assert.True(t, strings.HasPrefix(Fallback(in).Summary, "Lower risk"))
}

func TestFallbackSentences(t *testing.T) {
	n := Fallback(contractInput("en"))
	assert.Equal(t, SourceFallback, n.Source)
	assert.Equal(t,
		"The address is a contract for token PEPE. Best DEX pair liquidity is $4.0k. "+
			"1 bundle group(s) of top holders share a first funder. Verify each point via the evidence links.",
		n.Explanation)

	wallet := Input{Target: brief.Target{Kind: brief.KindWallet}, Score: 10, Lang: "en"}
	n = Fallback(wallet)
	assert.Equal(t, "The address is a wallet (externally owned account). Verify each point via the evidence links.", n.Explanation)
}

func TestFallbackLocales(t *testing.T) {
	for _, lang := range []string{"zh-CN", "ja", "KO"} {
		n := Fallback(contractInput(lang))
		assert.False(t, MostlyLatin(n.Summary+n.Explanation), lang)
		assert.Contains(t, n.Summary, "82/100", lang)
	}
	// unknown locales render English
	assert.True(t, strings.HasPrefix(Fallback(contractInput("fr")).Summary, "High risk"))
}

func TestComposeWithoutLLM(t *testing.T) {
	c := NewComposer(nil, time.Second, 400)
	n, check := c.Compose(context.Background(), contractInput("en"))
	assert.Equal(t, SourceFallback, n.Source)
	assert.Equal(t, brief.StatusUnconfigured, check.Status)
}

func TestComposeUsesValidReply(t *testing.T) {
	llm := &fakeLLM{reply: "```json\n{\"summary\":\"Risky token.\",\"explanation\":\"Thin liquidity and a bundle.\"}\n```"}
	c := NewComposer(llm, time.Second, 400)

	n, check := c.Compose(context.Background(), contractInput("en"))
	assert.Equal(t, "Risky token.", n.Summary)
	assert.Equal(t, "Thin liquidity and a bundle.", n.Explanation)
	assert.Equal(t, "llm:fake", n.Source)
	assert.Equal(t, brief.StatusLive, check.Status)
	assert.Contains(t, llm.prompt, "Risk score: 82/100")
	assert.Contains(t, llm.prompt, "Liquidity: $4.0k")
}

func TestComposeFallsBack(t *testing.T) {
	cases := map[string]*fakeLLM{
		"call error":    {err: errors.New("boom")},
		"not json":      {reply: "I think it is risky"},
		"extra field":   {reply: `{"summary":"a","explanation":"b","score":3}`},
		"missing field": {reply: `{"summary":"a"}`},
		"empty field":   {reply: `{"summary":"a","explanation":"  "}`},
		"timeout":       {reply: `{"summary":"a","explanation":"b"}`, delay: time.Second},
	}
	for name, llm := range cases {
		t.Run(name, func(t *testing.T) {
			c := NewComposer(llm, 50*time.Millisecond, 400)
			n, check := c.Compose(context.Background(), contractInput("en"))
			assert.Equal(t, SourceFallback, n.Source)
			assert.Equal(t, Fallback(contractInput("en")), n)
			assert.Equal(t, brief.StatusNone, check.Status)
		})
	}
}

func TestComposeRejectsLatinForCJK(t *testing.T) {
	llm := &fakeLLM{reply: `{"summary":"This token looks risky overall.","explanation":"Liquidity is thin and holders are bundled."}`}
	c := NewComposer(llm, time.Second, 400)

	n, _ := c.Compose(context.Background(), contractInput("zh"))
	assert.Equal(t, SourceFallback, n.Source)
	assert.Contains(t, llm.prompt, "Simplified Chinese")

	// the same reply is fine for English
	n, _ = c.Compose(context.Background(), contractInput("en"))
	assert.Equal(t, "llm:fake", n.Source)
}

func TestComposeAcceptsCJKReply(t *testing.T) {
	llm := &fakeLLM{reply: `{"summary":"高风险代币 PEPE。","explanation":"流动性很低，头部持有人由同一地址 0x6982...1933 注资。"}`}
	c := NewComposer(llm, time.Second, 400)

	n, _ := c.Compose(context.Background(), contractInput("zh"))
	assert.Equal(t, "llm:fake", n.Source)
}

func TestPromptCapsFindings(t *testing.T) {
	in := contractInput("en")
	in.Findings = nil
	for i := 0; i < 9; i++ {
		in.Findings = append(in.Findings, brief.Finding{Severity: brief.SeverityInfo, Text: fmt.Sprintf("finding %d", i)})
	}
	p := Prompt(in)
	assert.Contains(t, p, "finding 5")
	assert.NotContains(t, p, "finding 6")
}

func TestParseReply(t *testing.T) {
	s, e, err := ParseReply(`Sure! {"summary":" ok ","explanation":"fine"} hope this helps`)
	require.NoError(t, err)
	assert.Equal(t, "ok", s)
	assert.Equal(t, "fine", e)

	_, _, err = ParseReply(`{"summary":1,"explanation":"x"}`)
	assert.ErrorIs(t, err, errReplyShape)
}

func TestMostlyLatin(t *testing.T) {
	assert.True(t, MostlyLatin("This is clearly an English sentence."))
	assert.False(t, MostlyLatin("short"))
	assert.False(t, MostlyLatin("这是一个关于代币 PEPE 的风险简报，流动性很低。"))
	assert.False(t, MostlyLatin("토큰 유동성이 매우 낮습니다 contract owner"))
}

func TestNormalizeLang(t *testing.T) {
	assert.Equal(t, LangZH, NormalizeLang("zh-CN"))
	assert.Equal(t, LangJA, NormalizeLang("ja_JP"))
	assert.Equal(t, LangKO, NormalizeLang(" KO "))
	assert.Equal(t, LangEN, NormalizeLang(""))
	assert.Equal(t, LangEN, NormalizeLang("de"))
	assert.True(t, IsCJK("ja"))
	assert.False(t, IsCJK("en"))
}
