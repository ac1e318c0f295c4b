package analysis

import (
	"sort"

	"github.com/yourorg/motionsense/pkg/types"
)

// ActivityShare is one row of a rendered distribution.
type ActivityShare struct {
	Label   string `json:"label"`
	Name    string `json:"name"`
	Percent int    `json:"percent"`
}

// Summary is the display form of a SessionAnalysis. All rounding happens
// here; the analysis itself keeps full precision.
type Summary struct {
	ID              string          `json:"id" yaml:"id"`
	Filename        string          `json:"filename" yaml:"filename"`
	Date            string          `json:"date" yaml:"date"`
	Accuracy        int             `json:"accuracy" yaml:"accuracy"`
	Classification  string          `json:"classification" yaml:"classification"`
	RiskLevel       types.RiskLevel `json:"risk_level" yaml:"risk_level"`
	TotalWindows    int             `json:"total_windows" yaml:"total_windows"`
	Activities      []ActivityShare `json:"activities" yaml:"activities"`
	Insights        []string        `json:"insights" yaml:"insights"`
	ImprovementRate int             `json:"improvement_rate" yaml:"improvement_rate"`
}

// Summarize renders s for display, listing activities by descending share.
func Summarize(s *types.SessionAnalysis) Summary {
	rounded := s.RoundedDistribution()
	activities := make([]ActivityShare, 0, len(s.MovementDistribution))
	for label := range s.MovementDistribution {
		activities = append(activities, ActivityShare{
			Label:   label,
			Name:    FormatActivityName(label),
			Percent: rounded[label],
		})
	}
	sort.Slice(activities, func(i, j int) bool {
		a, b := s.MovementDistribution[activities[i].Label], s.MovementDistribution[activities[j].Label]
		if a != b {
			return a > b
		}
		return activities[i].Label < activities[j].Label
	})

	return Summary{
		ID:              s.ID,
		Filename:        s.Filename,
		Date:            s.Date,
		Accuracy:        s.Accuracy(),
		Classification:  s.Classification,
		RiskLevel:       s.RiskLevel,
		TotalWindows:    s.TotalWindows,
		Activities:      activities,
		Insights:        append([]string(nil), s.Insights...),
		ImprovementRate: s.ImprovementRate,
	}
}
