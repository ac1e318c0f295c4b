package analysis

import (
	"slices"
	"strings"

	"github.com/yourorg/motionsense/pkg/types"
)

// DefaultRecommendations close every insight list unless the caller supplies
// its own.
var DefaultRecommendations = []string{
	"Maintain consistent activity patterns",
	"Focus on posture during transitions",
	"Regular movement breaks recommended",
}

// Rule is one situational observation about a movement distribution.
type Rule struct {
	Name    string
	Applies func(types.MovementDistribution) bool
	Message string
}

// Rules are evaluated in order; each fires independently of the others.
var Rules = []Rule{
	{
		Name: "sedentary",
		Applies: func(d types.MovementDistribution) bool {
			return d["sitting"]+d["laying"] > 70
		},
		Message: "High sedentary time detected. Consider more movement breaks.",
	},
	{
		Name: "low_variety",
		Applies: func(d types.MovementDistribution) bool {
			return activeShare(d) < 20
		},
		Message: "Low activity variety. Try incorporating different movement patterns.",
	},
	{
		Name: "standing",
		Applies: func(d types.MovementDistribution) bool {
			return d["standing"] > 50
		},
		Message: "Significant standing time. Ensure proper posture and take sitting breaks.",
	},
}

var activeMarkers = []string{"walking", "upstairs", "downstairs"}

func activeShare(d types.MovementDistribution) float64 {
	var sum float64
	for label, pct := range d {
		for _, m := range activeMarkers {
			if strings.Contains(label, m) {
				sum += pct
				break
			}
		}
	}
	return sum
}

// GenerateInsights returns the messages of every matching rule followed by
// recommendations, or DefaultRecommendations when none are given.
func GenerateInsights(dist types.MovementDistribution, recommendations []string) []string {
	return EvaluateRules(Rules, dist, recommendations)
}

// EvaluateRules is GenerateInsights over an explicit rule set.
func EvaluateRules(rules []Rule, dist types.MovementDistribution, recommendations []string) []string {
	var out []string
	for _, r := range rules {
		if r.Applies(dist) {
			out = append(out, r.Message)
		}
	}
	if len(recommendations) == 0 {
		recommendations = DefaultRecommendations
	}
	return append(out, slices.Clone(recommendations)...)
}
