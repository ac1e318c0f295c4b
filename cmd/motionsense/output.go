package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/yourorg/motionsense/internal/analysis"
	"github.com/yourorg/motionsense/internal/upload"
	"github.com/yourorg/motionsense/pkg/types"
)

const barWidth = 20

// progressPrinter renders orchestrator progress on a single terminal line.
func progressPrinter(w io.Writer) upload.Observer {
	return func(s upload.State) {
		switch s.Phase {
		case upload.PhaseUploading:
			fmt.Fprintf(w, "\rAnalyzing sensor data... %3d%%", s.Progress)
		case upload.PhaseSuccess, upload.PhaseError:
			fmt.Fprintf(w, "\rAnalyzing sensor data... %3d%%\n", s.Progress)
		}
	}
}

func printSummary(w io.Writer, s *types.SessionAnalysis, format string) error {
	sum := analysis.Summarize(s)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(sum)
	}

	cyan := color.New(color.FgCyan, color.Bold)
	bold := color.New(color.Bold)

	cyan.Fprintf(w, "Activity Analysis: %s\n", sum.Filename)
	fmt.Fprintf(w, "  Date:               %s\n", sum.Date)
	fmt.Fprintf(w, "  Windows analyzed:   %d\n", sum.TotalWindows)
	fmt.Fprintf(w, "  Average confidence: %d%%\n", sum.Accuracy)
	fmt.Fprintf(w, "  Primary activity:   %s\n", sum.Classification)
	fmt.Fprintf(w, "  Risk level:         %s\n", riskColor(sum.RiskLevel).Sprint(strings.ToUpper(string(sum.RiskLevel))))
	fmt.Fprintf(w, "  Activity score:     %d%%\n", sum.ImprovementRate)

	bold.Fprintln(w, "\nActivity Distribution")
	for _, a := range sum.Activities {
		filled := a.Percent * barWidth / 100
		fmt.Fprintf(w, "  %-20s %s%s %3d%%\n", a.Name,
			strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), a.Percent)
	}

	bold.Fprintln(w, "\nInsights")
	for _, insight := range sum.Insights {
		fmt.Fprintf(w, "  • %s\n", insight)
	}
	return nil
}

// printWindows lists every scored window, flagging the ones under the
// low-confidence threshold.
func printWindows(w io.Writer, s *types.SessionAnalysis) {
	bold := color.New(color.Bold)
	low := color.New(color.FgRed)
	bold.Fprintln(w, "\nWindows")
	for i, win := range s.Windows() {
		line := fmt.Sprintf("  %4d  %-20s %6.2f%%", i+1, analysis.FormatActivityName(win.Label), win.Confidence)
		if win.Confidence < analysis.LowConfidenceThreshold {
			low.Fprintln(w, line)
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func riskColor(level types.RiskLevel) *color.Color {
	switch level {
	case types.RiskHigh:
		return color.New(color.FgRed, color.Bold)
	case types.RiskMedium:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func printActivities(w io.Writer, activities []string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Fprintf(w, "%d activities\n", len(activities))
	for _, a := range activities {
		fmt.Fprintf(w, "  %-22s %s\n", a, analysis.FormatActivityName(a))
	}
}
