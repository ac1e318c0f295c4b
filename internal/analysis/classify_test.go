package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/motionsense/pkg/types"
)

func TestClassify(t *testing.T) {
	assert.Equal(t, "Walking Upstairs",
		Classify(types.MovementDistribution{"walking_upstairs": 60, "sitting": 40}, nil))
	assert.Equal(t, MixedActivities, Classify(types.MovementDistribution{}, nil))
	assert.Equal(t, MixedActivities, Classify(nil, nil))
}

func TestClassifyTieUsesFirstEncountered(t *testing.T) {
	dist := types.MovementDistribution{"standing": 50, "sitting": 50}
	assert.Equal(t, "Standing", Classify(dist, []string{"standing", "sitting"}))
	assert.Equal(t, "Sitting", Classify(dist, []string{"sitting", "standing"}))
	// Without an order the scan is lexical.
	assert.Equal(t, "Sitting", Classify(dist, nil))
}

func TestClassifyFromAggregate(t *testing.T) {
	agg := AggregateResults([]string{"LAYING", "walking", "walking", "LAYING"}, nil)
	assert.Equal(t, "Laying", Classify(agg.Distribution, agg.Order))
}

func TestFormatActivityName(t *testing.T) {
	assert.Equal(t, "Walking Downstairs", FormatActivityName("WALKING_DOWNSTAIRS"))
	assert.Equal(t, "Sitting", FormatActivityName("sitting"))
	assert.Equal(t, "Unknown 7", FormatActivityName("Unknown_7"))
}
