package server

import (
	"github.com/yourorg/motionsense/internal/analysis"
	"github.com/yourorg/motionsense/internal/upload"
)

type stateView struct {
	Phase        string            `json:"phase"`
	Progress     int               `json:"progress"`
	IsProcessing bool              `json:"is_processing"`
	AttemptID    string            `json:"attempt_id,omitempty"`
	File         *upload.FileInfo  `json:"file,omitempty"`
	Error        string            `json:"error,omitempty"`
	Result       *analysis.Summary `json:"result,omitempty"`
}

func newStateView(s upload.State) stateView {
	v := stateView{
		Phase:        s.Phase.String(),
		Progress:     s.Progress,
		IsProcessing: s.IsProcessing(),
		AttemptID:    s.AttemptID,
		File:         s.File,
		Error:        s.Error,
	}
	if s.Result != nil {
		sum := analysis.Summarize(s.Result)
		v.Result = &sum
	}
	return v
}
