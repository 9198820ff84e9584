package db

import (
	"time"

	"github.com/chain-brief/pkg/config"
)

// BriefRecord is one stored brief without its payload, for history listings.
type BriefRecord struct {
	ID        int64        `json:"id"`
	Query     string       `json:"query"`
	Address   string       `json:"address"`
	Chain     config.Chain `json:"chain"`
	Kind      string       `json:"kind"`
	Lang      string       `json:"lang"`
	RiskScore int          `json:"risk_score"`
	Mode      string       `json:"mode"`      // "enhanced","fallback"
	Narrative string       `json:"narrative"` // narrative source
	CreatedAt time.Time    `json:"created_at"`
}

type Stats struct {
	Briefs    int64   `json:"briefs"`
	Contracts int64   `json:"contracts"`
	Wallets   int64   `json:"wallets"`
	Enhanced  int64   `json:"enhanced"`
	HighRisk  int64   `json:"high_risk"`
	AvgScore  float64 `json:"avg_score"`
}
