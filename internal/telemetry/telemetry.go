package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/danielpatrickdp/analyst-eval/internal/evaluate"
)

// #region metrics
// Metrics holds the run counters on their own registry so that a batch run
// can export them as a node_exporter textfile when it ends.
type Metrics struct {
	reg *prometheus.Registry

	rowsTotal     *prometheus.CounterVec
	unknownTotal  prometheus.Counter
	runsTotal     *prometheus.CounterVec
	progressRatio prometheus.Gauge
	runDuration   prometheus.Histogram
}

// NewMetrics registers the evaluation metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		rowsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "analyst_eval_rows_total",
			Help: "Rows written by result (evaluated or skipped)",
		}, []string{"result"}),
		unknownTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "analyst_eval_unknown_class_total",
			Help: "Class outputs that matched no declared class",
		}),
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "analyst_eval_runs_total",
			Help: "Completed runs by dispatch mode",
		}, []string{"mode"}),
		progressRatio: f.NewGauge(prometheus.GaugeOpts{
			Name: "analyst_eval_progress_ratio",
			Help: "Fraction of input records processed in the current run",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "analyst_eval_run_duration_seconds",
			Help:    "Wall time of completed runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10), // 10ms to ~45min
		}),
	}
}

// Registry exposes the registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteTextfile writes the current metrics in text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// #endregion metrics

// #region observer
// Observer reports evaluator progress through slog and Metrics.
type Observer struct {
	logger  *slog.Logger
	metrics *Metrics
}

// NewObserver creates an evaluate.Observer. Either argument may be nil.
func NewObserver(logger *slog.Logger, metrics *Metrics) *Observer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Observer{logger: logger, metrics: metrics}
}

// Progress logs a row count and updates the progress gauge.
func (o *Observer) Progress(p evaluate.Progress) {
	o.logger.Info("evaluating",
		slog.Int("row", p.Row),
		slog.Int("total", p.Total),
		slog.Duration("elapsed", p.Elapsed),
	)
	if o.metrics != nil && p.Total > 0 {
		o.metrics.progressRatio.Set(float64(p.Row) / float64(p.Total))
	}
}

// Done logs the run summary and adds it to the counters.
func (o *Observer) Done(s evaluate.Stats) {
	o.logger.Info("evaluation complete",
		slog.String("mode", s.Mode.String()),
		slog.Int("rows", s.Rows),
		slog.Int("evaluated", s.Evaluated),
		slog.Int("skipped", s.Skipped),
		slog.Int("unknown", s.Unknown),
		slog.Duration("elapsed", s.Elapsed),
	)
	if o.metrics == nil {
		return
	}
	o.metrics.rowsTotal.WithLabelValues("evaluated").Add(float64(s.Evaluated))
	o.metrics.rowsTotal.WithLabelValues("skipped").Add(float64(s.Skipped))
	o.metrics.unknownTotal.Add(float64(s.Unknown))
	o.metrics.runsTotal.WithLabelValues(s.Mode.String()).Inc()
	o.metrics.progressRatio.Set(1)
	o.metrics.runDuration.Observe(s.Elapsed.Seconds())
}

// #endregion observer

// #region fanout
// Fanout forwards every event to each observer in order.
type Fanout []evaluate.Observer

func (f Fanout) Progress(p evaluate.Progress) {
	for _, o := range f {
		o.Progress(p)
	}
}

func (f Fanout) Done(s evaluate.Stats) {
	for _, o := range f {
		o.Done(s)
	}
}

// #endregion fanout
