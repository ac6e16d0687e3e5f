package field

import (
	"errors"
	"fmt"
)

// #region set
// Set is the ordered descriptor list of a normalization script.
// Order is significant: it fixes both the feature vector layout and the
// order of output columns.
type Set struct {
	fields []Descriptor
}

// NewSet validates every descriptor and returns an immutable set.
func NewSet(fields []Descriptor) (*Set, error) {
	if len(fields) == 0 {
		return nil, errors.New("descriptor set is empty")
	}
	out := make([]Descriptor, len(fields))
	copy(out, fields)
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
	}
	return &Set{fields: out}, nil
}

// Len returns the number of descriptors.
func (s *Set) Len() int { return len(s.fields) }

// At returns the i-th descriptor.
func (s *Set) At(i int) *Descriptor { return &s.fields[i] }

// Fields returns the descriptors in script order. Callers must not mutate them.
func (s *Set) Fields() []Descriptor { return s.fields }

// #endregion set

// #region counts
// OutputColumns sums ColumnsNeeded over output fields.
func (s *Set) OutputColumns() int {
	n := 0
	for i := range s.fields {
		if s.fields[i].Output() {
			n += s.fields[i].ColumnsNeeded()
		}
	}
	return n
}

// InputColumns sums ColumnsNeeded over input fields.
func (s *Set) InputColumns() int {
	n := 0
	for i := range s.fields {
		if s.fields[i].Input() {
			n += s.fields[i].ColumnsNeeded()
		}
	}
	return n
}

// UniqueColumns sums ColumnsNeeded over every non-ignored field.
func (s *Set) UniqueColumns() int {
	n := 0
	for i := range s.fields {
		if !s.fields[i].Ignored() {
			n += s.fields[i].ColumnsNeeded()
		}
	}
	return n
}

// Outputs returns the output descriptors in script order.
func (s *Set) Outputs() []*Descriptor {
	var out []*Descriptor
	for i := range s.fields {
		if s.fields[i].Output() {
			out = append(out, &s.fields[i])
		}
	}
	return out
}

// #endregion counts

// #region time-slices
// Depth returns the lag and lead depth implied by the input fields' time slices.
func (s *Set) Depth() (lag, lead int) {
	for i := range s.fields {
		if !s.fields[i].Input() {
			continue
		}
		ts := s.fields[i].TimeSlice
		if ts < 0 && -ts > lag {
			lag = -ts
		}
		if ts > 0 && ts > lead {
			lead = ts
		}
	}
	return lag, lead
}

// #endregion time-slices
