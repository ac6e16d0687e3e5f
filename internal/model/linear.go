package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/danielpatrickdp/analyst-eval/internal/field"
)

// #region linear
// Linear is a dense affine model: out = W·x + b. It regresses, and when
// built as a classifier it also classifies by taking the largest output.
type Linear struct {
	weights *mat.Dense
	bias    *mat.VecDense
}

// LinearClassifier exposes only the classification capability of a Linear model.
type LinearClassifier struct {
	l *Linear
}

// LinearFile is the on-disk JSON shape of a linear model.
type LinearFile struct {
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

// NewLinear builds a model with one weight row per output.
func NewLinear(weights [][]float64, bias []float64) (*Linear, error) {
	if len(weights) == 0 || len(weights[0]) == 0 {
		return nil, fmt.Errorf("linear model: empty weights")
	}
	rows, cols := len(weights), len(weights[0])
	data := make([]float64, 0, rows*cols)
	for i, w := range weights {
		if len(w) != cols {
			return nil, fmt.Errorf("linear model: row %d has %d weights, want %d", i, len(w), cols)
		}
		data = append(data, w...)
	}
	b := make([]float64, rows)
	if bias != nil {
		if len(bias) != rows {
			return nil, fmt.Errorf("linear model: %d biases for %d outputs", len(bias), rows)
		}
		copy(b, bias)
	}
	return &Linear{
		weights: mat.NewDense(rows, cols, data),
		bias:    mat.NewVecDense(rows, b),
	}, nil
}

// LoadLinear reads a LinearFile from path.
func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var lf LinearFile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return NewLinear(lf.Weights, lf.Bias)
}

// InputCount is the expected input width.
func (l *Linear) InputCount() int {
	_, c := l.weights.Dims()
	return c
}

// OutputCount is the width of Compute's result.
func (l *Linear) OutputCount() int {
	r, _ := l.weights.Dims()
	return r
}

// Compute evaluates W·x + b.
func (l *Linear) Compute(_ context.Context, input field.Vector) (field.Vector, error) {
	if len(input) < l.InputCount() {
		return nil, fmt.Errorf("got %d values, want %d: %w", len(input), l.InputCount(), ErrInputWidth)
	}
	x := mat.NewVecDense(l.InputCount(), append([]float64(nil), input[:l.InputCount()]...))
	var y mat.VecDense
	y.MulVec(l.weights, x)
	y.AddVec(&y, l.bias)
	return field.Vector(mat.Col(nil, 0, &y)), nil
}

// AsClassifier returns a classification-only view of l.
func (l *Linear) AsClassifier() *LinearClassifier {
	return &LinearClassifier{l: l}
}

// Classify returns the index of the largest output.
func (c *LinearClassifier) Classify(ctx context.Context, input field.Vector) (int, error) {
	out, err := c.l.Compute(ctx, input)
	if err != nil {
		return -1, err
	}
	if len(out) == 0 {
		return -1, nil
	}
	return floats.MaxIdx(out), nil
}

// #endregion linear
