package evaluate

import (
	"errors"
	"fmt"
	"time"

	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/headers"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// UnknownClass is written when a class score matches no declared class.
const UnknownClass = "?Unknown?"

// #region errors
var (
	ErrNotAnalyzed = errors.New("process called before analyze")
	ErrOutputShort = errors.New("model output is shorter than the declared output fields")
)

// SetupError is a failure while analyzing the input file. No output has been produced.
type SetupError struct {
	Path string
	Err  error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("analyze %s: %v", e.Path, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// OutputError is a failure creating, writing the header of, or closing the output file.
type OutputError struct {
	Path string
	Op   string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("output %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }

// #endregion errors

// #region collaborators
// Extractor turns a raw row into a normalized feature vector, or declines.
type Extractor interface {
	ExtractFields(idx *headers.Index, raw []string, width int) (field.Vector, bool)
}

// Windower buffers vectors across rows for time-series fields.
type Windower interface {
	Init(headings []string)
	TotalDepth() int
	Process(v field.Vector) (field.Vector, bool)
}

// ClassLookup maps a model output slice to a declared class.
type ClassLookup interface {
	DetermineClass(d *field.Descriptor, out []float64) (field.ClassItem, bool)
}

// Observer receives progress as a side channel. It must not affect the run.
type Observer interface {
	Progress(p Progress)
	Done(s Stats)
}

type descriptorLookup struct{}

func (descriptorLookup) DetermineClass(d *field.Descriptor, out []float64) (field.ClassItem, bool) {
	return d.DetermineClass(out)
}

type nopObserver struct{}

func (nopObserver) Progress(Progress) {}
func (nopObserver) Done(Stats)        {}

// #endregion collaborators

// #region run-context
// RunContext holds the counts fixed by Analyze plus the row cursor.
type RunContext struct {
	InputColumns  int
	OutputColumns int
	UniqueColumns int
	RecordCount   int
	Cursor        int
}

// Progress is a periodic status snapshot.
type Progress struct {
	Row     int
	Total   int
	Elapsed time.Duration
}

// Stats summarizes a completed run.
type Stats struct {
	Rows      int
	Evaluated int
	Skipped   int
	Unknown   int
	Mode      model.Mode
	Elapsed   time.Duration
}

// #endregion run-context
