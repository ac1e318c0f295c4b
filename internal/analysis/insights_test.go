package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/yourorg/motionsense/pkg/types"
)

const (
	sedentaryMsg  = "High sedentary time detected. Consider more movement breaks."
	lowVarietyMsg = "Low activity variety. Try incorporating different movement patterns."
	standingMsg   = "Significant standing time. Ensure proper posture and take sitting breaks."
)

func TestGenerateInsightsSedentaryAndLowVariety(t *testing.T) {
	dist := types.MovementDistribution{"sitting": 40, "laying": 35, "standing": 10, "walking": 15}
	got := GenerateInsights(dist, nil)
	want := append([]string{sedentaryMsg, lowVarietyMsg}, DefaultRecommendations...)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("insights mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateInsightsAllRules(t *testing.T) {
	// Percentages need not sum to 100 for rules to be evaluated.
	dist := types.MovementDistribution{"sitting": 71, "standing": 51}
	got := GenerateInsights(dist, []string{"custom"})
	assert.Equal(t, []string{sedentaryMsg, lowVarietyMsg, standingMsg, "custom"}, got)
}

func TestGenerateInsightsNoneFire(t *testing.T) {
	dist := types.MovementDistribution{"walking_upstairs": 30, "walking_downstairs": 30, "sitting": 40}
	assert.Equal(t, DefaultRecommendations, GenerateInsights(dist, nil))
}

func TestGenerateInsightsEmptyDistribution(t *testing.T) {
	// With no windows the active share is 0, below the variety threshold.
	assert.Equal(t,
		append([]string{lowVarietyMsg}, DefaultRecommendations...),
		GenerateInsights(types.MovementDistribution{}, nil))
}

func TestGenerateInsightsDoesNotAliasRecommendations(t *testing.T) {
	got := GenerateInsights(types.MovementDistribution{"walking": 100}, nil)
	got[0] = "changed"
	assert.Equal(t, "Maintain consistent activity patterns", DefaultRecommendations[0])
}

func TestEvaluateRulesCustomSet(t *testing.T) {
	rules := []Rule{{
		Name:    "laying",
		Applies: func(d types.MovementDistribution) bool { return d["laying"] > 0 },
		Message: "Laying detected.",
	}}
	got := EvaluateRules(rules, types.MovementDistribution{"laying": 5}, []string{"r"})
	assert.Equal(t, []string{"Laying detected.", "r"}, got)
}
