package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ListMeetings Phase = iota
	FetchMeeting
	ExportTranscript
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case ListMeetings:
		return "list_meetings"
	case FetchMeeting:
		return "fetch_meeting"
	case ExportTranscript:
		return "export_transcript"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

// sendProgress delivers update without blocking. Updates are dropped when nobody is reading.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func listMeetingsUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: ListMeetings, Step: 0, Total: 1, Message: "Listing meetings..."}
}

func fetchMeetingUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchMeeting,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching meeting %s...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, res MeetingExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTranscript,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Title),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res MeetingExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportTranscript,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: fmt.Sprintf("Manifest written to %s", path)}
}
