package analysis

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yourorg/motionsense/pkg/types"
)

// MixedActivities labels a session with no windows.
const MixedActivities = "Mixed Activities"

// Classify names the dominant activity of dist. Ties go to the label that
// comes first in order; labels missing from order are scanned after it in
// lexical order.
func Classify(dist types.MovementDistribution, order []string) string {
	best, bestPct := "", 0.0
	for _, label := range scanOrder(dist, order) {
		if pct := dist[label]; pct > bestPct {
			best, bestPct = label, pct
		}
	}
	if best == "" {
		return MixedActivities
	}
	return FormatActivityName(best)
}

func scanOrder(dist types.MovementDistribution, order []string) []string {
	seen := make(map[string]struct{}, len(dist))
	out := make([]string, 0, len(dist))
	for _, label := range order {
		if _, ok := dist[label]; !ok {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	var rest []string
	for label := range dist {
		if _, ok := seen[label]; !ok {
			rest = append(rest, label)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// FormatActivityName turns "walking_upstairs" into "Walking Upstairs".
func FormatActivityName(label string) string {
	parts := strings.Split(strings.ToLower(label), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}
