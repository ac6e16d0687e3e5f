package field

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// #region errors
var (
	ErrNoClasses    = errors.New("classify field declares no classes")
	ErrBadRange     = errors.New("normalized range is empty")
	ErrNotClassify  = errors.New("field is not categorical")
	ErrUnknownClass = errors.New("value is not a declared class")
)

// #endregion errors

// #region descriptor
// Descriptor describes one logical column of the normalization script.
type Descriptor struct {
	Name      string
	Role      Role
	TimeSlice int
	Action    Action

	ActualHigh     float64
	ActualLow      float64
	NormalizedHigh float64
	NormalizedLow  float64

	Classes []ClassItem

	eq *Equilateral
}

// Classify reports whether the field is categorical.
func (d *Descriptor) Classify() bool {
	return d.Action.IsClassify()
}

// Ignored reports whether the field takes no part in evaluation.
func (d *Descriptor) Ignored() bool {
	return d.Role == RoleIgnored || d.Action == ActionIgnore
}

// Input reports whether the field feeds the model.
func (d *Descriptor) Input() bool {
	return d.Role == RoleInput && !d.Ignored()
}

// Output reports whether the field is produced by the model.
func (d *Descriptor) Output() bool {
	return d.Role == RoleOutput && !d.Ignored()
}

// ColumnsNeeded returns how many vector positions the field occupies.
func (d *Descriptor) ColumnsNeeded() int {
	switch d.Action {
	case ActionIgnore:
		return 0
	case ActionOneOf:
		return len(d.Classes)
	case ActionEquilateral:
		return len(d.Classes) - 1
	default:
		return 1
	}
}

// Validate checks the descriptor and prepares its class encoder.
func (d *Descriptor) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("field name is empty")
	}
	switch d.Action {
	case ActionNormalize:
		if d.NormalizedHigh == d.NormalizedLow {
			return fmt.Errorf("field %s: %w", d.Name, ErrBadRange)
		}
	case ActionOneOf, ActionSingleField:
		if len(d.Classes) == 0 {
			return fmt.Errorf("field %s: %w", d.Name, ErrNoClasses)
		}
	case ActionEquilateral:
		if len(d.Classes) < 2 {
			return fmt.Errorf("field %s: equilateral needs at least 2 classes: %w", d.Name, ErrNoClasses)
		}
		eq, err := NewEquilateral(len(d.Classes), d.NormalizedHigh, d.NormalizedLow)
		if err != nil {
			return fmt.Errorf("field %s: %w", d.Name, err)
		}
		d.eq = eq
	}
	return nil
}

// #endregion descriptor

// #region normalize
// Normalize maps an actual value into the normalized range.
func (d *Descriptor) Normalize(v float64) float64 {
	if d.Action != ActionNormalize {
		return v
	}
	span := d.ActualHigh - d.ActualLow
	if span == 0 {
		return d.NormalizedLow
	}
	return (v-d.ActualLow)/span*(d.NormalizedHigh-d.NormalizedLow) + d.NormalizedLow
}

// DeNormalize maps a normalized value back into domain units.
func (d *Descriptor) DeNormalize(v float64) float64 {
	if d.Action != ActionNormalize {
		return v
	}
	return (v-d.NormalizedLow)*(d.ActualHigh-d.ActualLow)/(d.NormalizedHigh-d.NormalizedLow) + d.ActualLow
}

// #endregion normalize

// #region classes
// Lookup returns the index of the class whose code or name matches s.
func (d *Descriptor) Lookup(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for i, c := range d.Classes {
		if c.Code == s || strings.EqualFold(c.Name, s) {
			return i, true
		}
	}
	return -1, false
}

// Encode writes the class encoding of s into dst, which must hold ColumnsNeeded values.
func (d *Descriptor) Encode(s string, dst []float64) error {
	idx, ok := d.Lookup(s)
	if !ok {
		return fmt.Errorf("field %s: %q: %w", d.Name, s, ErrUnknownClass)
	}
	switch d.Action {
	case ActionOneOf:
		for i := range dst[:len(d.Classes)] {
			dst[i] = d.NormalizedLow
		}
		dst[idx] = d.NormalizedHigh
	case ActionEquilateral:
		copy(dst, d.eq.Encode(idx))
	case ActionSingleField:
		dst[0] = float64(idx)
	default:
		return fmt.Errorf("field %s: %w", d.Name, ErrNotClassify)
	}
	return nil
}

// DetermineClass decodes a model output slice into a class.
// A single value is read as a class index, which is what classification-only models produce.
func (d *Descriptor) DetermineClass(out []float64) (ClassItem, bool) {
	if len(out) == 0 || len(d.Classes) == 0 {
		return ClassItem{}, false
	}
	idx := -1
	switch {
	case d.Action == ActionSingleField, len(out) == 1 && d.ColumnsNeeded() > 1:
		idx = classIndex(out[0])
	case d.Action == ActionOneOf:
		idx = indexOfLargest(out[:min(len(out), d.ColumnsNeeded())])
	case d.Action == ActionEquilateral:
		if len(out) < d.ColumnsNeeded() {
			return ClassItem{}, false
		}
		idx = d.eq.Decode(out[:d.ColumnsNeeded()])
	}
	if idx < 0 || idx >= len(d.Classes) {
		return ClassItem{}, false
	}
	return d.Classes[idx], true
}

func classIndex(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -0.5 || v > math.MaxInt32 {
		return -1
	}
	return int(v + 0.5)
}

func indexOfLargest(v []float64) int {
	best := -1
	for i, x := range v {
		if best == -1 || x > v[best] {
			best = i
		}
	}
	return best
}

// #endregion classes
