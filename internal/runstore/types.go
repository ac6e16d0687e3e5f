package runstore

import "time"

// #region status
// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// #endregion status

// #region run-record
// RunRecord is one row in the eval_runs table.
type RunRecord struct {
	RunID      string
	InputPath  string
	OutputPath string
	ModelKind  string
	Mode       string
	Records    int
	Rows       int
	Evaluated  int
	Skipped    int
	Unknown    int
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration is the wall time of a finished run, or zero while running.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// #endregion run-record

// #region result
// Result is what a run reports when it ends.
type Result struct {
	Mode      string
	Records   int
	Rows      int
	Evaluated int
	Skipped   int
	Unknown   int
	Err       error
}

// #endregion result

// #region event
// Event is a single row in the run_events table.
type Event struct {
	RunID     string
	Kind      string // "analyzed" | "progress" | "done" | "failed"
	Row       int
	Detail    string
	CreatedAt time.Time
}

// #endregion event
