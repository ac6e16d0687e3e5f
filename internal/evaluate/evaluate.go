package evaluate

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/headers"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
	"github.com/danielpatrickdp/analyst-eval/internal/normalize"
	"github.com/danielpatrickdp/analyst-eval/internal/timeseries"
)

var tracer = otel.Tracer("analyst-eval/evaluate")

// #region evaluator
// Evaluator runs a trained model over one input file and writes the
// input columns plus the evaluated outputs. An Evaluator owns its run
// state and is not safe for concurrent use; create one per run.
type Evaluator struct {
	cfg       Config
	set       *field.Set
	extractor Extractor
	window    Windower
	classes   ClassLookup
	observer  Observer

	inputPath   string
	hasHeaders  bool
	inputFormat csvio.Format
	index       *headers.Index
	headings    []string
	run         *RunContext
}

// New creates an Evaluator for the given descriptor set.
func New(set *field.Set, cfg Config, opts ...Option) *Evaluator {
	e := &Evaluator{
		cfg:      cfg,
		set:      set,
		classes:  descriptorLookup{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.window == nil {
		e.window = timeseries.NewWindow(set)
	}
	return e
}

// Run returns the run context fixed by Analyze, or nil before it.
func (e *Evaluator) Run() *RunContext { return e.run }

// #endregion evaluator

// #region analyze
// Analyze makes one streaming pass over the input to fix the column counts,
// the header index and the record count, and primes the time-series window.
func (e *Evaluator) Analyze(ctx context.Context, inputPath string, hasHeaders bool, format csvio.Format) error {
	_, span := tracer.Start(ctx, "evaluate.Analyze", trace.WithAttributes(
		attribute.String("input.path", inputPath),
		attribute.Bool("input.headers", hasHeaders),
	))
	defer span.End()

	st, err := csvio.Count(inputPath, hasHeaders, format)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "analyze failed")
		return &SetupError{Path: inputPath, Err: err}
	}

	e.inputPath = inputPath
	e.hasHeaders = hasHeaders
	e.inputFormat = format
	e.headings = st.Headings
	e.index = headers.New(st.Headings).WithOutputs(e.outputTags())
	e.run = &RunContext{
		InputColumns:  len(st.Headings),
		OutputColumns: e.set.OutputColumns(),
		UniqueColumns: e.set.UniqueColumns(),
		RecordCount:   st.Records,
	}
	if e.extractor == nil {
		e.extractor = normalize.NewExtractor(e.set, format)
	}
	e.window.Init(st.Headings)

	span.SetAttributes(
		attribute.Int("input.columns", e.run.InputColumns),
		attribute.Int("output.columns", e.run.OutputColumns),
		attribute.Int("input.records", e.run.RecordCount),
	)
	return nil
}

func (e *Evaluator) outputTags() []string {
	var tags []string
	for _, d := range e.set.Outputs() {
		tags = append(tags, headers.TagColumn(d.Name, d.TimeSlice))
	}
	return tags
}

// #endregion analyze

// #region output-file
// prepareOutputFile recreates path and writes the header line when enabled:
// quoted input headings, then "Output:<name>:<slice>" per output field.
// Output fields spanning several columns pad the header with empty names at
// the end so that the header is as wide as every data row.
func (e *Evaluator) prepareOutputFile(path string) (*csvio.Writer, error) {
	w, err := csvio.Create(path, e.cfg.OutputFormat)
	if err != nil {
		return nil, &OutputError{Path: path, Op: "create", Err: err}
	}
	if !e.cfg.ProduceOutputHeaders {
		return w, nil
	}

	line := make([]string, 0, e.run.InputColumns+e.run.OutputColumns)
	line = append(line, e.headings...)
	for _, tag := range e.outputTags() {
		line = append(line, "Output:"+tag)
	}
	for len(line) < e.run.InputColumns+e.run.OutputColumns {
		line = append(line, "")
	}

	if err := w.WriteHeader(line); err != nil {
		w.Close()
		return nil, &OutputError{Path: path, Op: "write header", Err: err}
	}
	return w, nil
}

// #endregion output-file

// #region rows
// newRow sizes a row for input plus output cells and copies the raw cells in.
// Short source rows leave blanks, long ones are cut at the input width.
func (e *Evaluator) newRow(raw []string) []string {
	row := make([]string, e.run.InputColumns+e.run.OutputColumns)
	copy(row[:e.run.InputColumns], raw)
	return row
}

// vectorFor extracts and, when the window spans more than one row, windows
// the feature vector of raw. False means the row is not evaluated.
func (e *Evaluator) vectorFor(raw []string) (field.Vector, bool) {
	vec, ok := e.extractor.ExtractFields(e.index, raw, e.run.UniqueColumns)
	if !ok {
		return nil, false
	}
	if e.window.TotalDepth() > 1 {
		return e.window.Process(vec)
	}
	return vec, true
}

// #endregion rows

// #region process
// Process evaluates every input row with caps and writes outputPath.
// Each pass starts with an empty time-series history.
// Cancellation is honoured between rows; rows already written are flushed.
func (e *Evaluator) Process(ctx context.Context, outputPath string, caps model.Capabilities) (stats Stats, err error) {
	if e.run == nil {
		return Stats{}, ErrNotAnalyzed
	}
	stats.Mode = caps.Mode()
	if stats.Mode == model.ModeNone {
		return stats, model.ErrNoCapability
	}

	ctx, span := tracer.Start(ctx, "evaluate.Process", trace.WithAttributes(
		attribute.String("output.path", outputPath),
		attribute.String("model.mode", stats.Mode.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "process failed")
		}
		span.SetAttributes(
			attribute.Int("rows", stats.Rows),
			attribute.Int("rows.skipped", stats.Skipped),
		)
		span.End()
	}()

	in, err := csvio.Open(e.inputPath, e.hasHeaders, e.inputFormat)
	if err != nil {
		return stats, fmt.Errorf("reopen input: %w", err)
	}
	defer in.Close()

	out, err := e.prepareOutputFile(outputPath)
	if err != nil {
		return stats, err
	}
	closed := false
	defer func() {
		if !closed {
			out.Close()
		}
	}()

	proj := NewProjector(e.set, e.index, e.classes, e.inputFormat, e.cfg.Precision, e.run.InputColumns)
	prog := newProgress(e.observer, e.run.RecordCount, e.cfg)
	e.run.Cursor = 0
	e.window.Init(e.headings)

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw, err := in.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("read input: %w", err)
		}

		row := e.newRow(raw)
		if vec, ok := e.vectorFor(raw); ok {
			result, err := caps.Invoke(ctx, vec)
			if err != nil {
				return stats, fmt.Errorf("row %d: %w", e.run.Cursor+1, err)
			}
			unknown, err := proj.Project(result, row)
			if err != nil {
				return stats, fmt.Errorf("row %d: %w", e.run.Cursor+1, err)
			}
			stats.Evaluated++
			stats.Unknown += unknown
		} else {
			stats.Skipped++
		}

		if err := out.WriteRow(row); err != nil {
			return stats, fmt.Errorf("row %d: %w", e.run.Cursor+1, err)
		}
		e.run.Cursor++
		stats.Rows++
		prog.update(e.run.Cursor)
	}

	closed = true
	if err := out.Close(); err != nil {
		return stats, &OutputError{Path: outputPath, Op: "close", Err: err}
	}
	stats.Elapsed = prog.elapsed()
	e.observer.Done(stats)
	return stats, nil
}

// #endregion process
