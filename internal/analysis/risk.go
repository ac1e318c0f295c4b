package analysis

import "github.com/yourorg/motionsense/pkg/types"

// LowConfidenceThreshold is the score below which a window counts against
// the session.
const LowConfidenceThreshold = 70.0

const (
	highRiskFraction   = 0.30
	mediumRiskFraction = 0.10
)

// AssessRisk grades a session by the share of windows scored below 70.
func AssessRisk(confidenceScores []float64) types.RiskLevel {
	if len(confidenceScores) == 0 {
		return types.RiskLow
	}
	low := 0
	for _, s := range confidenceScores {
		if s < LowConfidenceThreshold {
			low++
		}
	}
	fraction := float64(low) / float64(len(confidenceScores))
	switch {
	case fraction > highRiskFraction:
		return types.RiskHigh
	case fraction > mediumRiskFraction:
		return types.RiskMedium
	default:
		return types.RiskLow
	}
}
