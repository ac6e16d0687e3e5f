package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
	"github.com/danielpatrickdp/analyst-eval/internal/evaluate"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
)

var validate = validator.New()

// #region types
// Run is the YAML description of one evaluation run.
type Run struct {
	Input            string        `yaml:"input" validate:"required"`
	Output           string        `yaml:"output" validate:"required,nefield=Input"`
	Headers          bool          `yaml:"headers"`
	InputFormat      string        `yaml:"input_format" validate:"omitempty,oneof=decimal-point decimal-comma english european"`
	OutputFormat     string        `yaml:"output_format" validate:"omitempty,oneof=decimal-point decimal-comma english european"`
	OutputHeaders    *bool         `yaml:"output_headers"`
	Precision        *int          `yaml:"precision" validate:"omitempty,gte=0,lte=15"`
	ProgressEvery    int           `yaml:"progress_every" validate:"gte=0"`
	ProgressInterval time.Duration `yaml:"progress_interval" validate:"gte=0"`
	Ledger           string        `yaml:"ledger"`
	MetricsFile      string        `yaml:"metrics_file"`
	Model            Model         `yaml:"model"`
	Fields           []Field       `yaml:"fields" validate:"required,min=1,dive"`
}

// Model says where the trained model comes from and what it can do.
type Model struct {
	Kind         string   `yaml:"kind" validate:"required,oneof=linear remote"`
	Path         string   `yaml:"path" validate:"required_if=Kind linear"`
	Address      string   `yaml:"address" validate:"required_if=Kind remote"`
	Capabilities []string `yaml:"capabilities" validate:"dive,oneof=classify regress"`
}

// Field is one entry of the normalization script.
type Field struct {
	Name           string  `yaml:"name" validate:"required"`
	Role           string  `yaml:"role" validate:"omitempty,oneof=input output ignored ignore"`
	Action         string  `yaml:"action"`
	TimeSlice      int     `yaml:"time_slice"`
	ActualHigh     float64 `yaml:"actual_high"`
	ActualLow      float64 `yaml:"actual_low"`
	NormalizedHigh float64 `yaml:"normalized_high"`
	NormalizedLow  float64 `yaml:"normalized_low"`
	Classes        []Class `yaml:"classes" validate:"dive"`
}

// Class is one declared class of a categorical field. Code defaults to Name.
type Class struct {
	Code string `yaml:"code"`
	Name string `yaml:"name" validate:"required"`
}

// #endregion types

// #region load
// Load reads and decodes path and applies environment overrides. Call
// Validate after any command-line overrides.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML run description and applies environment overrides.
func Parse(data []byte) (*Run, error) {
	cfg := &Run{Headers: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Ledger = envOr("ANALYST_DB", cfg.Ledger)
	cfg.Model.Address = envOr("MODEL_ADDR", cfg.Model.Address)
	return cfg, nil
}

// Validate checks the struct tags and that every field maps to a descriptor.
func (c *Run) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Descriptors(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// #endregion load

// #region conversions
// Descriptors converts the field list into validated descriptors.
func (c *Run) Descriptors() (*field.Set, error) {
	ds := make([]field.Descriptor, len(c.Fields))
	for i, f := range c.Fields {
		role, err := field.ParseRole(f.Role)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		action, err := field.ParseAction(f.Action)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		ds[i] = field.Descriptor{
			Name:           f.Name,
			Role:           role,
			TimeSlice:      f.TimeSlice,
			Action:         action,
			ActualHigh:     f.ActualHigh,
			ActualLow:      f.ActualLow,
			NormalizedHigh: f.NormalizedHigh,
			NormalizedLow:  f.NormalizedLow,
		}
		for _, cl := range f.Classes {
			code := cl.Code
			if code == "" {
				code = cl.Name
			}
			ds[i].Classes = append(ds[i].Classes, field.ClassItem{Code: code, Name: cl.Name})
		}
	}
	return field.NewSet(ds)
}

// Formats resolves the input and output file formats.
func (c *Run) Formats() (in, out csvio.Format, err error) {
	if in, err = csvio.ParseFormat(c.InputFormat); err != nil {
		return in, out, err
	}
	if c.OutputFormat == "" {
		return in, in, nil
	}
	out, err = csvio.ParseFormat(c.OutputFormat)
	return in, out, err
}

// Evaluator builds the evaluator settings. Unset values keep their defaults.
func (c *Run) Evaluator() (evaluate.Config, error) {
	cfg := evaluate.DefaultConfig()
	_, out, err := c.Formats()
	if err != nil {
		return cfg, err
	}
	cfg.OutputFormat = out
	if c.OutputHeaders != nil {
		cfg.ProduceOutputHeaders = *c.OutputHeaders
	}
	if c.Precision != nil {
		cfg.Precision = *c.Precision
	}
	if c.ProgressEvery > 0 {
		cfg.ProgressEvery = c.ProgressEvery
	}
	cfg.ProgressInterval = c.ProgressInterval
	return cfg, nil
}

// Classify reports whether the model is declared to classify.
func (m Model) Classify() bool {
	return slices.Contains(m.Capabilities, "classify")
}

// Regress reports whether the model is declared to regress. A model with
// no declared capabilities regresses.
func (m Model) Regress() bool {
	return len(m.Capabilities) == 0 || slices.Contains(m.Capabilities, "regress")
}

// #endregion conversions

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
