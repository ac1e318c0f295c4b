package analysis

import (
	"strings"

	"github.com/yourorg/motionsense/pkg/types"
)

// DefaultConfidence stands in for the average confidence when no scores
// were reported.
const DefaultConfidence = 92.0

// Aggregate is the movement distribution and mean confidence of one session.
type Aggregate struct {
	Distribution      types.MovementDistribution
	AverageConfidence float64
	TotalWindows      int
	// Order lists distribution keys by first occurrence in the prediction
	// sequence.
	Order []string
}

// AggregateResults counts labels case-insensitively and converts the counts
// to unrounded percentages of all windows.
func AggregateResults(predictions []string, confidenceScores []float64) Aggregate {
	agg := Aggregate{
		Distribution:      types.MovementDistribution{},
		AverageConfidence: MeanConfidence(confidenceScores),
		TotalWindows:      len(predictions),
	}
	if len(predictions) == 0 {
		return agg
	}

	counts := make(map[string]int)
	for _, p := range predictions {
		key := strings.ToLower(p)
		if _, ok := counts[key]; !ok {
			agg.Order = append(agg.Order, key)
		}
		counts[key]++
	}
	total := float64(len(predictions))
	for label, n := range counts {
		agg.Distribution[label] = 100 * float64(n) / total
	}
	return agg
}

// MeanConfidence averages scores, falling back to DefaultConfidence.
func MeanConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return DefaultConfidence
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}
