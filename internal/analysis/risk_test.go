package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/motionsense/pkg/types"
)

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   types.RiskLevel
	}{
		{"empty", nil, types.RiskLow},
		{"all low", []float64{50, 50, 50, 50}, types.RiskHigh},
		{"quarter low", []float64{90, 90, 60, 90}, types.RiskMedium},
		{"none low", []float64{90, 95, 70, 99}, types.RiskLow},
		{"exactly ten percent", []float64{10, 90, 90, 90, 90, 90, 90, 90, 90, 90}, types.RiskLow},
		{"exactly thirty percent", []float64{10, 10, 10, 90, 90, 90, 90, 90, 90, 90}, types.RiskMedium},
		{"just over thirty percent", []float64{10, 10, 10, 10, 90, 90, 90, 90, 90, 90}, types.RiskHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessRisk(tt.scores))
		})
	}
}
