package brief

import (
	"fmt"
	"math"
	"strings"
)

// FormatUSD renders a dollar amount compactly: $950, $4.0k, $2.00M, $1.20B.
func FormatUSD(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s$%.1fk", sign, v/1e3)
	default:
		return fmt.Sprintf("%s$%.0f", sign, v)
	}
}

// JoinReadable joins items as "a", "a and b" or "a, b and c".
func JoinReadable(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}

// Samples abbreviates up to n addresses.
func Samples(addrs []string, n int) []string {
	out := make([]string, 0, n)
	for _, a := range addrs {
		if len(out) == n {
			break
		}
		out = append(out, Abbrev(a))
	}
	return out
}
