package types

import (
	"maps"
	"math"
	"slices"
)

// Prediction is one analysis window scored by the inference service.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// PredictResponse is the success payload of POST /predict.
type PredictResponse struct {
	Success          bool      `json:"success"`
	Filename         string    `json:"filename"`
	Predictions      []string  `json:"predictions"`
	ConfidenceScores []float64 `json:"confidence_scores"`
	TotalWindows     int       `json:"total_windows"`
	Message          string    `json:"message"`
}

// MovementDistribution maps a lower-cased activity label to its share of all
// windows, in percent.
type MovementDistribution map[string]float64

// RiskLevel is the confidence-based quality tier of a session.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SessionAnalysis is the derived record of one successful upload.
type SessionAnalysis struct {
	ID                   string               `json:"id"`
	Filename             string               `json:"filename"`
	Date                 string               `json:"date"`
	AverageConfidence    float64              `json:"average_confidence"`
	MovementDistribution MovementDistribution `json:"movement_distribution"`
	Predictions          []string             `json:"predictions"`
	ConfidenceScores     []float64            `json:"confidence_scores"`
	TotalWindows         int                  `json:"total_windows"`
	RiskLevel            RiskLevel            `json:"risk_level"`
	Classification       string               `json:"classification"`
	Insights             []string             `json:"insights"`
	Recommendations      []string             `json:"recommendations"`
	ImprovementRate      int                  `json:"improvement_rate"`
}

// Accuracy is the average confidence rounded for display.
func (s *SessionAnalysis) Accuracy() int {
	return int(math.Round(s.AverageConfidence))
}

// RoundedDistribution returns a copy of the distribution with every share
// rounded to the nearest whole percent.
func (s *SessionAnalysis) RoundedDistribution() map[string]int {
	out := make(map[string]int, len(s.MovementDistribution))
	for label, pct := range s.MovementDistribution {
		out[label] = int(math.Round(pct))
	}
	return out
}

// Windows pairs every prediction with its confidence score, in window order.
func (s *SessionAnalysis) Windows() []Prediction {
	out := make([]Prediction, len(s.Predictions))
	for i, label := range s.Predictions {
		out[i] = Prediction{Label: label}
		if i < len(s.ConfidenceScores) {
			out[i].Confidence = s.ConfidenceScores[i]
		}
	}
	return out
}

// Clone returns a deep copy so callers can never mutate a published analysis.
func (s *SessionAnalysis) Clone() *SessionAnalysis {
	if s == nil {
		return nil
	}
	c := *s
	c.MovementDistribution = maps.Clone(s.MovementDistribution)
	c.Predictions = slices.Clone(s.Predictions)
	c.ConfidenceScores = slices.Clone(s.ConfidenceScores)
	c.Insights = slices.Clone(s.Insights)
	c.Recommendations = slices.Clone(s.Recommendations)
	return &c
}
