package timeseries

import (
	"github.com/danielpatrickdp/analyst-eval/internal/field"
)

// #region types
type segment struct {
	offset    int
	width     int
	timeSlice int
}

// Window buffers input vectors so that fields with a time slice can read
// values from earlier (negative slice) or later (positive slice) rows.
// The emitted vector belongs to the most recent row.
type Window struct {
	lag, lead int
	segments  []segment
	headings  []string
	buf       []field.Vector
}

// #endregion types

// #region constructor
// NewWindow lays out the input segments of set and derives the window depth.
func NewWindow(set *field.Set) *Window {
	w := &Window{}
	w.lag, w.lead = set.Depth()
	offset := 0
	for i := 0; i < set.Len(); i++ {
		d := set.At(i)
		if !d.Input() {
			continue
		}
		w.segments = append(w.segments, segment{offset: offset, width: d.ColumnsNeeded(), timeSlice: d.TimeSlice})
		offset += d.ColumnsNeeded()
	}
	return w
}

// #endregion constructor

// #region process
// Init resets the buffer for a new file with the given headings.
func (w *Window) Init(headings []string) {
	w.headings = append(w.headings[:0], headings...)
	w.buf = w.buf[:0]
}

// TotalDepth is the number of rows the window spans.
func (w *Window) TotalDepth() int {
	return w.lag + w.lead + 1
}

// Process adds v to the history and returns the windowed vector, or false
// while not enough rows have been seen.
func (w *Window) Process(v field.Vector) (field.Vector, bool) {
	depth := w.TotalDepth()
	row := make(field.Vector, len(v))
	copy(row, v)
	w.buf = append(w.buf, row)
	if len(w.buf) > depth {
		w.buf = w.buf[len(w.buf)-depth:]
	}
	if len(w.buf) < depth {
		return nil, false
	}

	out := make(field.Vector, len(v))
	for _, s := range w.segments {
		src := w.buf[w.lag+s.timeSlice]
		if s.offset+s.width > len(src) || s.offset+s.width > len(out) {
			return nil, false
		}
		copy(out[s.offset:s.offset+s.width], src[s.offset:s.offset+s.width])
	}
	return out, true
}

// #endregion process
