package evaluate

import (
	"time"

	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
)

// #region config
// Config controls output shape and progress reporting.
type Config struct {
	ProduceOutputHeaders bool
	Precision            int
	OutputFormat         csvio.Format
	ProgressEvery        int
	ProgressInterval     time.Duration
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		ProduceOutputHeaders: true,
		Precision:            4,
		OutputFormat:         csvio.DecimalPoint,
		ProgressEvery:        10000,
	}
}

// Option customizes an Evaluator.
type Option func(*Evaluator)

// WithExtractor replaces the default feature extractor.
func WithExtractor(x Extractor) Option {
	return func(e *Evaluator) { e.extractor = x }
}

// WithWindow replaces the default time-series window.
func WithWindow(w Windower) Option {
	return func(e *Evaluator) { e.window = w }
}

// WithClassLookup replaces the descriptor-based class lookup.
func WithClassLookup(c ClassLookup) Option {
	return func(e *Evaluator) { e.classes = c }
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) { e.observer = o }
}

// #endregion config
