package upload

import (
	"encoding/json"

	"github.com/yourorg/motionsense/pkg/types"
)

// Phase is the lifecycle stage of the current upload.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// Terminal reports whether p ends an upload.
func (p Phase) Terminal() bool {
	return p == PhaseSuccess || p == PhaseError
}

// EventKind names a state transition.
type EventKind int

const (
	EventFileAccepted EventKind = iota + 1
	EventTick
	EventRequestSucceeded
	EventRequestFailed
)

func (k EventKind) String() string {
	switch k {
	case EventFileAccepted:
		return "fileAccepted"
	case EventTick:
		return "tick"
	case EventRequestSucceeded:
		return "requestSucceeded"
	case EventRequestFailed:
		return "requestFailed"
	default:
		return "unknown"
	}
}

// Event drives State.Apply. Only the fields relevant to Kind are read.
type Event struct {
	Kind      EventKind
	File      FileInfo
	AttemptID string
	Step      int
	Cap       int
	Result    *types.SessionAnalysis
	Message   string
}

// FileAccepted starts a new upload of file.
func FileAccepted(file FileInfo, attemptID string) Event {
	return Event{Kind: EventFileAccepted, File: file, AttemptID: attemptID}
}

// Tick advances the displayed progress by step, never past limit.
func Tick(step, limit int) Event {
	return Event{Kind: EventTick, Step: step, Cap: limit}
}

// RequestSucceeded completes the upload with result.
func RequestSucceeded(result *types.SessionAnalysis) Event {
	return Event{Kind: EventRequestSucceeded, Result: result}
}

// RequestFailed ends the upload with a user-facing message.
func RequestFailed(message string) Event {
	return Event{Kind: EventRequestFailed, Message: message}
}

// State is an immutable snapshot of the upload lifecycle.
type State struct {
	Phase     Phase                  `json:"phase"`
	Progress  int                    `json:"progress"`
	File      *FileInfo              `json:"file,omitempty"`
	AttemptID string                 `json:"attempt_id,omitempty"`
	Result    *types.SessionAnalysis `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// IsProcessing is true while a request is in flight.
func (s State) IsProcessing() bool {
	return s.Phase == PhaseUploading
}

// Apply returns the state after ev. Events that are not legal in the current
// phase leave the state unchanged.
func (s State) Apply(ev Event) State {
	switch ev.Kind {
	case EventFileAccepted:
		file := ev.File
		return State{Phase: PhaseUploading, File: &file, AttemptID: ev.AttemptID}
	case EventTick:
		if s.Phase != PhaseUploading || s.Progress >= ev.Cap {
			return s
		}
		s.Progress = min(s.Progress+ev.Step, ev.Cap)
		return s
	case EventRequestSucceeded:
		if s.Phase != PhaseUploading || ev.Result == nil {
			return s
		}
		s.Phase = PhaseSuccess
		s.Progress = 100
		s.Result = ev.Result
		s.Error = ""
		return s
	case EventRequestFailed:
		if s.Phase != PhaseUploading {
			return s
		}
		s.Phase = PhaseError
		s.Result = nil
		s.Error = ev.Message
		return s
	default:
		return s
	}
}
