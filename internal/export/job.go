package export

import (
	"time"

	"wrapped/internal/dispatch"
)

// Kind distinguishes the two export flavours.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// State is the lifecycle of an export job.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateEncoding
	StateDispatching
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateEncoding:
		return "encoding"
	case StateDispatching:
		return "dispatching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the job has finished.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job is a snapshot of one export. Captured frames are owned by the running
// export and never exposed.
type Job struct {
	ID             string
	Kind           Kind
	State          State
	PanelIDs       []string
	Captured       int
	SettleTimeouts int
	Filename       string
	Result         dispatch.Result
	Err            error
	FailedStage    State
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Elapsed reports how long the job ran, or has been running.
func (j Job) Elapsed() time.Duration {
	if j.StartedAt.IsZero() {
		return 0
	}
	if j.FinishedAt.IsZero() {
		return time.Since(j.StartedAt)
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

func (j Job) clone() Job {
	j.PanelIDs = append([]string(nil), j.PanelIDs...)
	return j
}
