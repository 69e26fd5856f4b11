package tasks

import (
	"fmt"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
	Err     error  // Set for failed phases
}

// Operation phase enumeration
type Phase int

const (
	CacheHit Phase = iota
	FetchStatus
	PollFailed
	SweepStatus
)

func (p Phase) String() string {
	switch p {
	case CacheHit:
		return "cache_hit"
	case FetchStatus:
		return "fetch_status"
	case PollFailed:
		return "poll_failed"
	case SweepStatus:
		return "sweep_status"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func statusUpdate(id string, status *models.PathwayStatus, fetched bool) ProgressUpdate {
	phase := CacheHit
	if fetched {
		phase = FetchStatus
	}
	return ProgressUpdate{
		Phase: phase,
		Step:  status.CompletedTopicsCount,
		Total: status.TotalTopics,
		Message: fmt.Sprintf("%s: %d/%d topics (%s)",
			id, status.CompletedTopicsCount, status.TotalTopics, shared.FormatPercentage(status.CompletionPercentage)),
		Data: status,
	}
}

func pollFailedUpdate(id string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollFailed,
		Message: fmt.Sprintf("%s: %v", id, err),
		Err:     err,
	}
}

func sweepUpdate(step, total int, res SweepResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s", step, total, res.Name)
	switch {
	case res.Err != nil:
		msg += fmt.Sprintf(" ✗ %v", res.Err)
	case res.Status != nil:
		msg += " " + shared.FormatPercentage(res.Status.CompletionPercentage)
	}
	return ProgressUpdate{
		Phase:   SweepStatus,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
		Err:     res.Err,
	}
}
