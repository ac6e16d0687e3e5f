package evaluate

import (
	"fmt"

	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/headers"
)

// #region projector
// Projector writes model output into the trailing cells of a row.
//
// It walks the descriptors with two cursors that advance at different
// rates: cell indexes the row and starts after the input columns, out
// indexes the model output vector. A classify field consumes ColumnsNeeded
// output values but fills one cell; a regression field consumes one of each.
type Projector struct {
	set          *field.Set
	index        *headers.Index
	classes      ClassLookup
	format       csvio.Format
	precision    int
	inputColumns int
}

// NewProjector creates a projector for rows with inputColumns leading cells.
func NewProjector(set *field.Set, index *headers.Index, classes ClassLookup, format csvio.Format, precision, inputColumns int) *Projector {
	if classes == nil {
		classes = descriptorLookup{}
	}
	return &Projector{
		set:          set,
		index:        index,
		classes:      classes,
		format:       format,
		precision:    precision,
		inputColumns: inputColumns,
	}
}

// Project fills row from out and returns how many class lookups failed.
func (p *Projector) Project(out field.Vector, row []string) (int, error) {
	cell := p.inputColumns
	outIdx := 0
	unknown := 0

	for i := 0; i < p.set.Len(); i++ {
		d := p.set.At(i)
		if !p.resolves(d) {
			continue
		}
		if !d.Output() {
			continue
		}
		if cell >= len(row) {
			return unknown, fmt.Errorf("field %s: row has %d cells: %w", d.Name, len(row), ErrOutputShort)
		}

		if d.Classify() {
			cls, ok := p.classes.DetermineClass(d, outputSlice(out, outIdx, d.ColumnsNeeded()))
			outIdx += d.ColumnsNeeded()
			if !ok {
				row[cell] = UnknownClass
				unknown++
			} else {
				row[cell] = cls.Name
			}
			cell++
			continue
		}

		if outIdx >= len(out) {
			return unknown, fmt.Errorf("field %s: output index %d of %d: %w", d.Name, outIdx, len(out), ErrOutputShort)
		}
		v := d.DeNormalize(out[outIdx])
		outIdx++
		row[cell] = p.format.FormatFloat(v, p.precision)
		cell++
	}
	return unknown, nil
}

func (p *Projector) resolves(d *field.Descriptor) bool {
	if _, ok := p.index.Find(d.Name); ok {
		return true
	}
	_, ok := p.index.Find(headers.TagColumn(d.Name, d.TimeSlice))
	return ok
}

// outputSlice returns out[from:from+n] clipped to the vector's length.
func outputSlice(out field.Vector, from, n int) []float64 {
	if from >= len(out) {
		return nil
	}
	return out[from:min(from+n, len(out))]
}

// #endregion projector
