package domain

import (
	"context"
	"sync/atomic"
	"time"
)

type JobStatus string

const (
	StatusPending     JobStatus = "pending"
	StatusDownloading JobStatus = "downloading"
	StatusInstalling  JobStatus = "installing"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// Phase mirrors JobStatus for progress events but includes the detection
// stage that runs before a job exists.
type Phase string

const (
	PhaseDetecting   Phase = "detecting"
	PhaseDownloading Phase = "downloading"
	PhaseInstalling  Phase = "installing"
	PhaseDone        Phase = "done"
	PhaseError       Phase = "error"
)

// Job is one acquire-and-install unit: download the plugin archive to the
// staging dir, then hand it to the installer for the target drive.
// Owned by the queue manager. Status and Error are guarded by the
// manager's lock; the byte counters are atomics so the download workers
// and the progress loop touch them without it. Observers get Snapshot
// values, never the live Job.
type Job struct {
	ID        string
	Plugin    Plugin
	DriveRoot string
	Threads   int
	DestPath  string
	Status    JobStatus
	Error     string
	StartedAt time.Time

	TotalBytes   atomic.Int64
	BytesWritten atomic.Int64

	CancelFunc context.CancelFunc
}

// JobSnapshot is the read-only view of a queue job handed to the CLI and
// the HTTP API, with the progress counters flattened to plain numbers.
type JobSnapshot struct {
	ID        string    `json:"id"`
	Plugin    Plugin    `json:"plugin"`
	DriveRoot string    `json:"driveRoot"`
	Threads   int       `json:"threads"`
	Status    JobStatus `json:"status"`
	Error     string    `json:"error,omitempty"`
	Done      int64     `json:"done"`
	Total     int64     `json:"total"`
}

// ProgressEvent is delivered to the presentation layer over a bounded
// channel. Intermediate events may be dropped under backpressure; terminal
// events (PhaseDone, PhaseError) never are.
type ProgressEvent struct {
	JobID string
	Phase Phase
	Done  int64
	Total int64
	Err   *StatusError
}

func (e ProgressEvent) Terminal() bool {
	return e.Phase == PhaseDone || e.Phase == PhaseError
}

// Percent returns aggregate progress in [0,100]; 0 when the total is not
// yet known.
func (e ProgressEvent) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Done) / float64(e.Total) * 100
}
