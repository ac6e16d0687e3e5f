package runstore

import (
	"fmt"

	"github.com/danielpatrickdp/analyst-eval/internal/evaluate"
)

// #region recorder
// Recorder logs evaluator progress of one run to the run_events table.
// Observer callbacks cannot fail the run, so the first write error is kept
// for the caller to inspect afterwards.
type Recorder struct {
	store *Store
	runID string
	err   error
}

// NewRecorder returns an evaluate.Observer bound to runID.
func (s *Store) NewRecorder(runID string) *Recorder {
	return &Recorder{store: s, runID: runID}
}

// Progress records a progress event.
func (r *Recorder) Progress(p evaluate.Progress) {
	r.log(Event{RunID: r.runID, Kind: "progress", Row: p.Row, Detail: fmt.Sprintf("%d/%d", p.Row, p.Total)})
}

// Done is a no-op; FinishRun writes the terminal event with the final counts.
func (r *Recorder) Done(evaluate.Stats) {}

// Err returns the first event write failure, if any.
func (r *Recorder) Err() error { return r.err }

func (r *Recorder) log(ev Event) {
	if r.err != nil {
		return
	}
	if err := LogEvent(r.store.db, ev); err != nil {
		r.err = err
	}
}

// #endregion recorder

// #region result
// ResultOf converts evaluator stats, the analyzed record count and the run
// error into a ledger Result.
func ResultOf(st evaluate.Stats, records int, err error) Result {
	return Result{
		Mode:      st.Mode.String(),
		Records:   records,
		Rows:      st.Rows,
		Evaluated: st.Evaluated,
		Skipped:   st.Skipped,
		Unknown:   st.Unknown,
		Err:       err,
	}
}

// #endregion result
