package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Err     error  // Set on per-task failures
}

// Operation phase enumeration
type Phase int

const (
	LoadTasks Phase = iota
	SyncTask
	SyncFailed
	BackfillDone
)

func (p Phase) String() string {
	switch p {
	case LoadTasks:
		return "load_tasks"
	case SyncTask:
		return "sync_task"
	case SyncFailed:
		return "sync_failed"
	case BackfillDone:
		return "backfill_done"
	default:
		return "unknown"
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls a sync.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func loadTasksUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadTasks,
		Step:    1,
		Total:   1,
		Message: "Loading tasks...",
	}
}

func syncTaskUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncTask,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Synced %q (%d/%d)", title, step, total),
	}
}

func syncFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SyncFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Failed %q (%d/%d)", title, step, total),
		Err:     err,
	}
}

func backfillDoneUpdate(succeeded, failed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BackfillDone,
		Step:    succeeded + failed,
		Total:   succeeded + failed,
		Message: fmt.Sprintf("Backfill complete: %d synced, %d failed", succeeded, failed),
	}
}
