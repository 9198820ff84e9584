package extractor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chain-brief/pkg/brief"
)

var evmAddrRe = regexp.MustCompile(`\b(0x[a-fA-F0-9]{40})\b`)

// Candidate picks the address to resolve from a free-text query: the first
// well-formed address token, else the whole trimmed input.
func Candidate(query string) (string, error) {
	if m := evmAddrRe.FindString(query); m != "" {
		return strings.ToLower(m), nil
	}
	q := strings.TrimSpace(query)
	if !IsAddress(q) {
		return "", fmt.Errorf("%q: %w", truncate(q, 64), brief.ErrInvalidAddress)
	}
	return strings.ToLower(q), nil
}

// IsAddress requires the 0x prefix, which common.IsHexAddress leaves optional.
func IsAddress(s string) bool {
	return strings.HasPrefix(strings.ToLower(s), "0x") && common.IsHexAddress(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
