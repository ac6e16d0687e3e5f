package normalize

import (
	"github.com/danielpatrickdp/analyst-eval/internal/csvio"
	"github.com/danielpatrickdp/analyst-eval/internal/field"
	"github.com/danielpatrickdp/analyst-eval/internal/headers"
)

// #region extractor
// Extractor turns a raw row into the normalized input vector described by a
// descriptor set. Output and ignored fields are not part of the vector.
type Extractor struct {
	set    *field.Set
	format csvio.Format
}

// NewExtractor creates an extractor that parses numbers in the given format.
func NewExtractor(set *field.Set, format csvio.Format) *Extractor {
	return &Extractor{set: set, format: format}
}

// ExtractFields builds the vector for one row. It returns false when a
// required column is missing, a number does not parse, or a class is unknown.
func (e *Extractor) ExtractFields(idx *headers.Index, raw []string, width int) (field.Vector, bool) {
	vec := make(field.Vector, 0, width)
	for i := 0; i < e.set.Len(); i++ {
		d := e.set.At(i)
		if !d.Input() {
			continue
		}
		col, ok := idx.Find(d.Name)
		if !ok || col >= len(raw) {
			return nil, false
		}
		cell := raw[col]

		if d.Classify() {
			start := len(vec)
			vec = append(vec, make([]float64, d.ColumnsNeeded())...)
			if err := d.Encode(cell, vec[start:]); err != nil {
				return nil, false
			}
			continue
		}

		v, err := e.format.ParseFloat(cell)
		if err != nil {
			return nil, false
		}
		vec = append(vec, d.Normalize(v))
	}
	return vec, true
}

// #endregion extractor
