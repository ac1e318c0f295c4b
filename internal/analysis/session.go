package analysis

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/motionsense/pkg/types"
)

// ImprovementRate is the fixed improvement figure reported with every session.
const ImprovementRate = 15

// BuildOptions tune session construction.
type BuildOptions struct {
	// Recommendations replace DefaultRecommendations when non-empty.
	Recommendations []string
	// Now defaults to time.Now.
	Now func() time.Time
}

// CheckResponse rejects inference payloads that cannot be aggregated.
func CheckResponse(resp *types.PredictResponse) error {
	if resp == nil || resp.Predictions == nil {
		return types.Errorf(types.KindMalformedResponse, "Malformed response: missing predictions")
	}
	if len(resp.ConfidenceScores) != len(resp.Predictions) {
		return types.Errorf(types.KindMalformedResponse,
			"Malformed response: %d confidence scores for %d predictions",
			len(resp.ConfidenceScores), len(resp.Predictions))
	}
	if resp.TotalWindows != len(resp.Predictions) {
		return types.Errorf(types.KindMalformedResponse,
			"Malformed response: total_windows is %d but %d predictions were returned",
			resp.TotalWindows, len(resp.Predictions))
	}
	for i, s := range resp.ConfidenceScores {
		if math.IsNaN(s) || s < 0 || s > 100 {
			return types.Errorf(types.KindMalformedResponse,
				"Malformed response: confidence score %d is out of range (%v)", i, s)
		}
	}
	return nil
}

// Build turns a validated inference payload into a SessionAnalysis.
func Build(filename string, resp *types.PredictResponse, opts BuildOptions) (*types.SessionAnalysis, error) {
	if err := CheckResponse(resp); err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	agg := AggregateResults(resp.Predictions, resp.ConfidenceScores)
	recs := opts.Recommendations
	if len(recs) == 0 {
		recs = DefaultRecommendations
	}

	return &types.SessionAnalysis{
		ID:                   uuid.NewString(),
		Filename:             filename,
		Date:                 now().UTC().Format(time.DateOnly),
		AverageConfidence:    agg.AverageConfidence,
		MovementDistribution: agg.Distribution,
		Predictions:          slices.Clone(resp.Predictions),
		ConfidenceScores:     slices.Clone(resp.ConfidenceScores),
		TotalWindows:         resp.TotalWindows,
		RiskLevel:            AssessRisk(resp.ConfidenceScores),
		Classification:       Classify(agg.Distribution, agg.Order),
		Insights:             GenerateInsights(agg.Distribution, recs),
		Recommendations:      slices.Clone(recs),
		ImprovementRate:      ImprovementRate,
	}, nil
}
