package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielpatrickdp/analyst-eval/internal/field"
)

// #region errors
var (
	ErrNoCapability = errors.New("model exposes neither classification nor regression")
	ErrInputWidth   = errors.New("input vector width does not match model")
)

// #endregion errors

// #region capabilities
// Classifier maps an input vector to a class index.
type Classifier interface {
	Classify(ctx context.Context, input field.Vector) (int, error)
}

// Regressor maps an input vector to a model-defined output vector.
type Regressor interface {
	Compute(ctx context.Context, input field.Vector) (field.Vector, error)
}

// Capabilities is the tagged capability set of a trained model. Either
// member may be nil.
type Capabilities struct {
	Classifier Classifier
	Regressor  Regressor
}

// Of inspects m for both capabilities.
func Of(m any) Capabilities {
	var c Capabilities
	if cl, ok := m.(Classifier); ok {
		c.Classifier = cl
	}
	if r, ok := m.(Regressor); ok {
		c.Regressor = r
	}
	return c
}

// #endregion capabilities

// #region dispatch
// Mode is how a model is invoked.
type Mode int

const (
	ModeNone Mode = iota
	ModeClassify
	ModeRegress
)

func (m Mode) String() string {
	switch m {
	case ModeClassify:
		return "classification"
	case ModeRegress:
		return "regression"
	default:
		return "none"
	}
}

// Mode picks the dispatch mode. Classification is used only when the model
// can classify and cannot regress; a model with both capabilities regresses.
func (c Capabilities) Mode() Mode {
	if c.Classifier != nil && c.Regressor == nil {
		return ModeClassify
	}
	if c.Regressor != nil {
		return ModeRegress
	}
	return ModeNone
}

// Invoke runs the model in its dispatch mode. A classification result is
// returned as a one-element vector holding the class index.
func (c Capabilities) Invoke(ctx context.Context, input field.Vector) (field.Vector, error) {
	switch c.Mode() {
	case ModeClassify:
		idx, err := c.Classifier.Classify(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("classify: %w", err)
		}
		return field.Vector{float64(idx)}, nil
	case ModeRegress:
		out, err := c.Regressor.Compute(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("compute: %w", err)
		}
		return out, nil
	}
	return nil, ErrNoCapability
}

// #endregion dispatch
