package evaluate

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/headers"
	"github.com/danielpatrickdp/analyst-eval/internal/model"
)

// #region helpers
func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return string(data)
}

func mustSet(t *testing.T, ds ...field.Descriptor) *field.Set {
	t.Helper()
	s, err := field.NewSet(ds)
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	return s
}

func passInput(name string) field.Descriptor {
	return field.Descriptor{Name: name, Role: field.RoleInput, Action: field.ActionPassThrough}
}

func passOutput(name string) field.Descriptor {
	return field.Descriptor{Name: name, Role: field.RoleOutput, Action: field.ActionPassThrough}
}

// exampleSet is A,B inputs and one regression output Y.
func exampleSet(t *testing.T) *field.Set {
	return mustSet(t, passInput("A"), passInput("B"), passOutput("Y"))
}

func exampleConfig() Config {
	cfg := DefaultConfig()
	cfg.Precision = 2
	return cfg
}

func run(t *testing.T, e *Evaluator, input string, hasHeaders bool, caps model.Capabilities) (string, Stats) {
	t.Helper()
	ctx := context.Background()
	if err := e.Analyze(ctx, input, hasHeaders, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")
	stats, err := e.Process(ctx, out, caps)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	return out, stats
}

// sequenceModel regresses to a fixed sequence of outputs, one per call.
type sequenceModel struct {
	outputs []field.Vector
	calls   int
}

func (m *sequenceModel) Compute(context.Context, field.Vector) (field.Vector, error) {
	out := m.outputs[m.calls%len(m.outputs)]
	m.calls++
	return out, nil
}

// dualModel implements both capabilities and counts which one ran.
type dualModel struct {
	classified, computed int
}

func (m *dualModel) Classify(context.Context, field.Vector) (int, error) {
	m.classified++
	return 0, nil
}

func (m *dualModel) Compute(context.Context, field.Vector) (field.Vector, error) {
	m.computed++
	return field.Vector{1}, nil
}

// classModel classifies every row as idx.
type classModel struct{ idx int }

func (m classModel) Classify(context.Context, field.Vector) (int, error) { return m.idx, nil }

// decliningExtractor declines the listed 1-based rows and returns an empty vector otherwise.
type decliningExtractor struct {
	decline map[int]bool
	row     int
}

func (x *decliningExtractor) ExtractFields(*headers.Index, []string, int) (field.Vector, bool) {
	x.row++
	if x.decline[x.row] {
		return nil, false
	}
	return field.Vector{}, true
}

type recordingObserver struct {
	progress []Progress
	done     []Stats
}

func (o *recordingObserver) Progress(p Progress) { o.progress = append(o.progress, p) }
func (o *recordingObserver) Done(s Stats)        { o.done = append(o.done, s) }

// #endregion helpers

// #region worked-examples
func TestProcessWorkedExample(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n3,4\n")
	m := &sequenceModel{outputs: []field.Vector{{5.0}, {7.25}}}

	out, stats := run(t, New(exampleSet(t), exampleConfig()), input, true, model.Of(m))

	want := "\"A\",\"B\",\"Output:Y:0\"\n1,2,5.00\n3,4,7.25\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
	if stats.Rows != 2 || stats.Evaluated != 2 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Mode != model.ModeRegress {
		t.Errorf("expected regression mode, got %s", stats.Mode)
	}
}

func TestProcessSkippedRowKeepsInputCells(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n3,4\n")
	m := &sequenceModel{outputs: []field.Vector{{5.0}}}
	x := &decliningExtractor{decline: map[int]bool{2: true}}

	out, stats := run(t, New(exampleSet(t), exampleConfig(), WithExtractor(x)), input, true, model.Of(m))

	want := "\"A\",\"B\",\"Output:Y:0\"\n1,2,5.00\n3,4,\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
	if stats.Rows != 2 || stats.Skipped != 1 {
		t.Errorf("expected 2 rows with 1 skipped, got %+v", stats)
	}
	if m.calls != 1 {
		t.Errorf("model must not run for a declined row, ran %d times", m.calls)
	}
}

func TestProcessInputWithByteOrderMark(t *testing.T) {
	input := writeInput(t, "\ufeffA,B\n1,2\n3,4\n")
	m := &sequenceModel{outputs: []field.Vector{{5.0}, {7.25}}}

	out, stats := run(t, New(exampleSet(t), exampleConfig()), input, true, model.Of(m))

	want := "\"A\",\"B\",\"Output:Y:0\"\n1,2,5.00\n3,4,7.25\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
	if stats.Evaluated != 2 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

// #endregion worked-examples

// #region dispatch-tests
func TestProcessRegressionWinsWhenBothCapabilities(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n3,4\n5,6\n")
	m := &dualModel{}

	run(t, New(exampleSet(t), exampleConfig()), input, true, model.Of(m))

	if m.computed != 3 {
		t.Errorf("expected compute on every row, got %d", m.computed)
	}
	if m.classified != 0 {
		t.Errorf("classify must not be invoked when regression is available, got %d", m.classified)
	}
}

func TestProcessClassificationFallbackLabel(t *testing.T) {
	set := mustSet(t, passInput("A"), field.Descriptor{
		Name: "kind", Role: field.RoleOutput, Action: field.ActionSingleField,
		Classes: []field.ClassItem{{Code: "0", Name: "low"}, {Code: "1", Name: "high"}},
	})
	input := writeInput(t, "A\n1\n")

	out, stats := run(t, New(set, DefaultConfig()), input, true, model.Of(classModel{idx: 9}))

	want := "\"A\",\"Output:kind:0\"\n1,?Unknown?\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
	if stats.Unknown != 1 || stats.Mode != model.ModeClassify {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestProcessClassificationLabel(t *testing.T) {
	set := mustSet(t, passInput("A"), field.Descriptor{
		Name: "kind", Role: field.RoleOutput, Action: field.ActionSingleField,
		Classes: []field.ClassItem{{Code: "0", Name: "low"}, {Code: "1", Name: "high"}},
	})
	input := writeInput(t, "A\n1\n")

	out, _ := run(t, New(set, DefaultConfig()), input, true, model.Of(classModel{idx: 1}))

	if got := readOutput(t, out); !strings.HasSuffix(got, "1,high\n") {
		t.Fatalf("expected class name in output, got %q", got)
	}
}

func TestProcessNoCapability(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n")
	e := New(exampleSet(t), exampleConfig())
	if err := e.Analyze(context.Background(), input, true, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")

	_, err := e.Process(context.Background(), out, model.Capabilities{})
	if !errors.Is(err, model.ErrNoCapability) {
		t.Fatalf("expected ErrNoCapability, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("no output file should be created for a model without capabilities")
	}
}

// #endregion dispatch-tests

// #region shape-tests
func TestProcessRowWidthInvariant(t *testing.T) {
	set := mustSet(t, passInput("A"), passOutput("Y"), passOutput("Z"))
	input := writeInput(t, "A,B,C\n1\n1,2,3,4,5\n1,2,3\n")
	m := &sequenceModel{outputs: []field.Vector{{1, 2}}}

	out, _ := run(t, New(set, DefaultConfig()), input, true, model.Of(m))

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	recs, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(recs))
	}
	for i, rec := range recs {
		if len(rec) != 5 {
			t.Errorf("line %d: expected 5 cells, got %d: %v", i, len(rec), rec)
		}
	}
	if recs[1][1] != "" || recs[1][3] != "1.0000" {
		t.Errorf("short row must be padded blank before outputs: %v", recs[1])
	}
	if recs[2][2] != "3" || recs[2][3] != "1.0000" {
		t.Errorf("long row must be cut at the input width: %v", recs[2])
	}
}

func TestProcessHeaderPaddedForMultiColumnOutput(t *testing.T) {
	set := mustSet(t, passInput("A"), field.Descriptor{
		Name: "kind", Role: field.RoleOutput, Action: field.ActionOneOf,
		NormalizedHigh: 1, NormalizedLow: 0,
		Classes: []field.ClassItem{{Code: "a", Name: "a"}, {Code: "b", Name: "b"}, {Code: "c", Name: "c"}},
	}, passOutput("Y"))
	input := writeInput(t, "A\n1\n")
	m := &sequenceModel{outputs: []field.Vector{{0.1, 0.8, 0.1, 42}}}

	out, _ := run(t, New(set, DefaultConfig()), input, true, model.Of(m))

	want := "\"A\",\"Output:kind:0\",\"Output:Y:0\",\"\",\"\"\n1,b,42.0000,,\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
}

func TestProcessWithoutHeaders(t *testing.T) {
	input := writeInput(t, "1,2\n3,4\n")
	set := mustSet(t, passInput("field:1"), passInput("field:2"), passOutput("Y"))
	cfg := exampleConfig()
	cfg.ProduceOutputHeaders = false
	m := &sequenceModel{outputs: []field.Vector{{1}}}

	out, _ := run(t, New(set, cfg), input, false, model.Of(m))

	if got := readOutput(t, out); got != "1,2,1.00\n3,4,1.00\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestProcessDecimalCommaOutput(t *testing.T) {
	input := writeInput(t, "A;B\n1;2\n")
	cfg := exampleConfig()
	cfg.OutputFormat = csvio.DecimalComma
	e := New(exampleSet(t), cfg)
	if err := e.Analyze(context.Background(), input, true, csvio.DecimalComma); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out := filepath.Join(t.TempDir(), "out.csv")
	if _, err := e.Process(context.Background(), out, model.Of(&sequenceModel{outputs: []field.Vector{{2.5}}})); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := readOutput(t, out); got != "\"A\";\"B\";\"Output:Y:0\"\n1;2;2,50\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

// #endregion shape-tests

// #region time-series-tests
func TestProcessTwiceRestartsHistory(t *testing.T) {
	set := mustSet(t,
		field.Descriptor{Name: "A", Role: field.RoleInput, Action: field.ActionPassThrough, TimeSlice: -1},
		passInput("A"),
		passOutput("Y"),
	)
	input := writeInput(t, "A\n1\n2\n3\n")
	m := &sequenceModel{outputs: []field.Vector{{9}}}
	e := New(set, exampleConfig())
	ctx := context.Background()
	if err := e.Analyze(ctx, input, true, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	want := "\"A\",\"Output:Y:0\"\n1,\n2,9.00\n3,9.00\n"
	for pass := 0; pass < 2; pass++ {
		out := filepath.Join(t.TempDir(), "out.csv")
		stats, err := e.Process(ctx, out, model.Of(m))
		if err != nil {
			t.Fatalf("pass %d: process: %v", pass, err)
		}
		if got := readOutput(t, out); got != want {
			t.Fatalf("pass %d: unexpected output:\n%q\nwant\n%q", pass, got, want)
		}
		if stats.Skipped != 1 {
			t.Errorf("pass %d: expected first row skipped for history, got %+v", pass, stats)
		}
	}
}

func TestProcessTimeSeriesNeedsHistory(t *testing.T) {
	set := mustSet(t,
		field.Descriptor{Name: "A", Role: field.RoleInput, Action: field.ActionPassThrough, TimeSlice: -1},
		passInput("A"),
		passOutput("Y"),
	)
	input := writeInput(t, "A\n1\n2\n3\n")
	m := &sequenceModel{outputs: []field.Vector{{9}}}

	out, stats := run(t, New(set, exampleConfig()), input, true, model.Of(m))

	want := "\"A\",\"Output:Y:0\"\n1,\n2,9.00\n3,9.00\n"
	if got := readOutput(t, out); got != want {
		t.Fatalf("unexpected output:\n%q\nwant\n%q", got, want)
	}
	if stats.Skipped != 1 || stats.Rows != 3 {
		t.Errorf("expected first row skipped for history, got %+v", stats)
	}
}

// #endregion time-series-tests

// #region error-tests
func TestAnalyzeMissingInput(t *testing.T) {
	e := New(exampleSet(t), exampleConfig())
	err := e.Analyze(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), true, csvio.DecimalPoint)

	var se *SetupError
	if !errors.As(err, &se) {
		t.Fatalf("expected SetupError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
	if e.Run() != nil {
		t.Error("run context must not be set after a failed analyze")
	}
}

func TestProcessBeforeAnalyze(t *testing.T) {
	e := New(exampleSet(t), exampleConfig())
	_, err := e.Process(context.Background(), filepath.Join(t.TempDir(), "out.csv"), model.Of(&dualModel{}))
	if !errors.Is(err, ErrNotAnalyzed) {
		t.Fatalf("expected ErrNotAnalyzed, got %v", err)
	}
}

func TestProcessOutputCreateError(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n")
	e := New(exampleSet(t), exampleConfig())
	if err := e.Analyze(context.Background(), input, true, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	out := filepath.Join(t.TempDir(), "no-such-dir", "out.csv")
	_, err := e.Process(context.Background(), out, model.Of(&dualModel{}))

	var oe *OutputError
	if !errors.As(err, &oe) {
		t.Fatalf("expected OutputError, got %v", err)
	}
	if oe.Op != "create" || oe.Path != out {
		t.Errorf("unexpected output error %+v", oe)
	}
}

func TestProcessModelErrorIsFatal(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n")
	boom := errors.New("model unavailable")
	e := New(exampleSet(t), exampleConfig())
	if err := e.Analyze(context.Background(), input, true, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	_, err := e.Process(context.Background(), filepath.Join(t.TempDir(), "out.csv"), model.Of(failingModel{err: boom}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected model error, got %v", err)
	}
}

type failingModel struct{ err error }

func (m failingModel) Compute(context.Context, field.Vector) (field.Vector, error) { return nil, m.err }

// #endregion error-tests

// #region cancellation-tests
// cancellingModel cancels the run after its first call.
type cancellingModel struct {
	cancel context.CancelFunc
}

func (m cancellingModel) Compute(context.Context, field.Vector) (field.Vector, error) {
	m.cancel()
	return field.Vector{1}, nil
}

func TestProcessCancelBetweenRowsFlushesOutput(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n3,4\n5,6\n")
	e := New(exampleSet(t), exampleConfig())
	if err := e.Analyze(context.Background(), input, true, csvio.DecimalPoint); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := filepath.Join(t.TempDir(), "out.csv")

	stats, err := e.Process(ctx, out, model.Of(cancellingModel{cancel: cancel}))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.Rows != 1 {
		t.Errorf("expected the in-flight row to complete, got %d rows", stats.Rows)
	}
	if got := readOutput(t, out); got != "\"A\",\"B\",\"Output:Y:0\"\n1,2,1.00\n" {
		t.Fatalf("written rows must be flushed on cancel, got %q", got)
	}
}

// #endregion cancellation-tests

// #region observer-tests
func TestProcessReportsProgressAndDone(t *testing.T) {
	input := writeInput(t, "A,B\n1,2\n3,4\n5,6\n7,8\n")
	obs := &recordingObserver{}
	cfg := exampleConfig()
	cfg.ProgressEvery = 2

	e := New(exampleSet(t), cfg, WithObserver(obs))
	run(t, e, input, true, model.Of(&dualModel{}))

	if len(obs.progress) != 2 {
		t.Fatalf("expected 2 progress reports for 4 rows every 2, got %d", len(obs.progress))
	}
	if obs.progress[0].Row != 1 || obs.progress[0].Total != 4 {
		t.Errorf("unexpected first progress %+v", obs.progress[0])
	}
	if len(obs.done) != 1 || obs.done[0].Rows != 4 {
		t.Errorf("expected one done report with 4 rows, got %+v", obs.done)
	}
	if e.Run().Cursor != 4 || e.Run().RecordCount != 4 {
		t.Errorf("unexpected run context %+v", e.Run())
	}
}

// #endregion observer-tests
