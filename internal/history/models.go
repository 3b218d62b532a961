package history

import (
	"strings"
	"time"
)

// Status is the persisted lifecycle of an export job.
type Status string

const (
	StatusRunning     Status = "running"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusInterrupted Status = "interrupted"
)

// InterruptedReason is recorded for jobs that were running when the process exited.
const InterruptedReason = "Process exited before the export finished"

// Record is one export job. Media bytes are never stored.
type Record struct {
	ID             string
	Kind           string
	Subject        string
	Period         string
	Status         Status
	Stage          string
	PanelIDs       []string
	Outcome        string
	Filename       string
	OutputPath     string
	SizeBytes      int
	FellBack       bool
	SettleTimeouts int
	ErrorMessage   string
	StartedAt      time.Time
	FinishedAt     *time.Time
}

// PanelCount reports how many cards the job covered.
func (r Record) PanelCount() int {
	return len(r.PanelIDs)
}

// Duration returns the wall time of a finished job, or zero.
func (r Record) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// IsTerminal reports whether the job has stopped running.
func (s Status) IsTerminal() bool {
	return s != StatusRunning
}

// Summary aggregates ledger counts for the history command.
type Summary struct {
	Total       int
	Succeeded   int
	Failed      int
	Interrupted int
	Running     int
	TotalBytes  int64
}

func joinPanelIDs(ids []string) string {
	return strings.Join(ids, ",")
}

func splitPanelIDs(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.Split(value, ",")
}
