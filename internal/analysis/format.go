package analysis

import (
	"fmt"
	"strings"
)

// formatCurrency renders dollar amounts with thousands grouping and two
// decimals, e.g. "$1,234,567.89". Negative inputs are clamped upstream.
func formatCurrency(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]
	neg := false
	if strings.HasPrefix(whole, "-") {
		neg = true
		whole = whole[1:]
	}
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	out := "$" + b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// formatPercent renders a percentage with one decimal place, e.g. "75.0%".
func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}
