package report

import (
	"github.com/chain-brief/pkg/brief"
)

const (
	ModeEnhanced = "enhanced"
	ModeFallback = "fallback"
)

var statusRank = map[brief.ProviderStatus]int{
	brief.StatusLive:         3,
	brief.StatusCached:       2,
	brief.StatusNone:         1,
	brief.StatusUnconfigured: 0,
}

// Build merges the per-module checks into one entry per source, keeping the
// best status seen, and derives the runtime mode. Order follows first sight.
func Build(checks []brief.SourceCheck) brief.RuntimeReport {
	merged := make([]brief.SourceCheck, 0, len(checks))
	index := make(map[string]int, len(checks))

	for _, c := range checks {
		i, seen := index[c.Source]
		if !seen {
			index[c.Source] = len(merged)
			merged = append(merged, c)
			continue
		}
		cur := &merged[i]
		cur.Required = cur.Required || c.Required
		if statusRank[c.Status] > statusRank[cur.Status] {
			cur.Status = c.Status
			cur.Note = c.Note
		}
	}

	mode := ModeFallback
	for _, c := range merged {
		if !c.Required && c.Status == brief.StatusLive {
			mode = ModeEnhanced
			break
		}
	}
	return brief.RuntimeReport{Mode: mode, Sources: merged}
}
