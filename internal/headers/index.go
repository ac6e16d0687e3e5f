package headers

import (
	"strconv"
	"strings"
)

// #region index
// Index maps field names to input column positions for one file.
// Lookups are case-insensitive; the first column carrying a name wins.
type Index struct {
	headings []string
	columns  map[string]int
}

// New builds an Index over the given headings, in file order.
func New(headings []string) *Index {
	idx := &Index{
		headings: make([]string, len(headings)),
		columns:  make(map[string]int, len(headings)),
	}
	copy(idx.headings, headings)
	for i, h := range headings {
		key := normalizeKey(h)
		if _, dup := idx.columns[key]; dup {
			continue
		}
		idx.columns[key] = i
	}
	return idx
}

// Ordinal builds an Index for a file without a header row, naming columns field:1..field:n.
func Ordinal(n int) *Index {
	names := make([]string, n)
	for i := range names {
		names[i] = OrdinalName(i)
	}
	return New(names)
}

// OrdinalName returns the synthesized name of the i-th (0-based) column.
func OrdinalName(i int) string {
	return "field:" + strconv.Itoa(i+1)
}

// Find returns the column of name, or false when this file has no such column.
func (x *Index) Find(name string) (int, bool) {
	i, ok := x.columns[normalizeKey(name)]
	return i, ok
}

// WithOutputs returns a copy of x that also resolves the given output tags,
// placed after the input columns in the order given. Input names keep
// precedence over a clashing tag.
func (x *Index) WithOutputs(tags []string) *Index {
	out := &Index{
		headings: x.headings,
		columns:  make(map[string]int, len(x.columns)+len(tags)),
	}
	for k, v := range x.columns {
		out.columns[k] = v
	}
	for i, t := range tags {
		key := normalizeKey(t)
		if _, dup := out.columns[key]; dup {
			continue
		}
		out.columns[key] = len(x.headings) + i
	}
	return out
}

// Headings returns the headings in file order.
func (x *Index) Headings() []string {
	out := make([]string, len(x.headings))
	copy(out, x.headings)
	return out
}

// Len returns the number of input columns.
func (x *Index) Len() int { return len(x.headings) }

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// #endregion index

// #region tag
// TagColumn encodes a field name with its time-slice offset, e.g. "close:-1".
func TagColumn(name string, timeSlice int) string {
	return name + ":" + strconv.Itoa(timeSlice)
}

// #endregion tag
