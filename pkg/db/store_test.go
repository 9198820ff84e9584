package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chain-brief/pkg/brief"
	"github.com/chain-brief/pkg/config"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "briefs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleBrief(addr string, kind brief.Kind, score int, at time.Time) *brief.BriefResult {
	return &brief.BriefResult{
		Query:  addr,
		Lang:   "en",
		Target: brief.Target{Address: addr, Chain: config.ChainBase, Kind: kind},
		Findings: []brief.Finding{
			{Severity: brief.SeverityWarning, Text: "Liquidity is very low", Module: brief.ModuleMarket},
			{Severity: brief.SeverityInfo, Text: "Token contract", Module: brief.ModuleContract},
		},
		RiskScore:   score,
		Narrative:   brief.Narrative{Summary: "s", Explanation: "e", Source: "fallback"},
		Runtime:     brief.RuntimeReport{Mode: "fallback"},
		GeneratedAt: at,
	}
}

func TestInsertAndGetBrief(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := s.InsertBrief(sampleBrief("0xaaa", brief.KindContract, 82, at))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.GetBrief(id)
	require.NoError(t, err)
	assert.Equal(t, "0xaaa", got.Target.Address)
	assert.Equal(t, 82, got.RiskScore)
	assert.Len(t, got.Findings, 2)
	assert.True(t, at.Equal(got.GeneratedAt))

	_, err = s.GetBrief(id + 100)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecentBriefs(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, addr := range []string{"0xaaa", "0xbbb", "0xaaa"} {
		_, err := s.InsertBrief(sampleBrief(addr, brief.KindWallet, 10*i, base.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, err)
	}

	all, err := s.RecentBriefs("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 20, all[0].RiskScore)
	assert.Equal(t, config.ChainBase, all[0].Chain)
	assert.Equal(t, "fallback", all[0].Narrative)

	mine, err := s.RecentBriefs("0xaaa", 10)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	limited, err := s.RecentBriefs("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPruneBefore(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	oldID, err := s.InsertBrief(sampleBrief("0xold", brief.KindWallet, 5, now.Add(-10*24*time.Hour)))
	require.NoError(t, err)
	_, err = s.InsertBrief(sampleBrief("0xnew", brief.KindWallet, 5, now.Add(-time.Hour)))
	require.NoError(t, err)

	n, err := s.PruneBefore(now.Add(-7 * 24 * time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.GetBrief(oldID)
	assert.ErrorIs(t, err, ErrNotFound)

	var findings int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM brief_findings WHERE brief_id = ?`, oldID).Scan(&findings))
	assert.Zero(t, findings)
}

func TestGetStats(t *testing.T) {
	s := newTestStore(t)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	empty, err := s.GetStats()
	require.NoError(t, err)
	assert.Zero(t, empty.Briefs)

	_, err = s.InsertBrief(sampleBrief("0xaaa", brief.KindContract, 90, at))
	require.NoError(t, err)
	_, err = s.InsertBrief(sampleBrief("0xbbb", brief.KindWallet, 30, at))
	require.NoError(t, err)

	st, err := s.GetStats()
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Briefs)
	assert.EqualValues(t, 1, st.Contracts)
	assert.EqualValues(t, 1, st.Wallets)
	assert.EqualValues(t, 1, st.HighRisk)
	assert.InDelta(t, 60, st.AvgScore, 0.001)
}
