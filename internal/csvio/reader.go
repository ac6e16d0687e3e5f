package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/analyst-eval/internal/headers"
)

// ErrNoColumns is returned for an input with neither a header nor a data row.
var ErrNoColumns = errors.New("input has no columns")

// #region reader
// Reader streams records from a delimited file.
type Reader struct {
	f        *os.File
	csv      *csv.Reader
	headings []string
	pending  []string
	line     int
}

// Open opens path read-only. With hasHeaders the first record becomes the
// headings; otherwise headings are synthesized from the first record's width.
func Open(path string, hasHeaders bool, format Format) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	br := bufio.NewReader(f)
	if err := skipBOM(br); err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cr := csv.NewReader(br)
	cr.Comma = format.Separator
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	r := &Reader{f: f, csv: cr}
	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, ErrNoColumns)
	}
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if hasHeaders {
		r.headings = first
		r.line = 1
	} else {
		r.headings = headers.Ordinal(len(first)).Headings()
		r.pending = first
	}
	return r, nil
}

// skipBOM drops a leading UTF-8 byte order mark.
func skipBOM(br *bufio.Reader) error {
	r, _, err := br.ReadRune()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	if r != '\ufeff' {
		return br.UnreadRune()
	}
	return nil
}

// Headings returns the input headings, real or synthesized.
func (r *Reader) Headings() []string { return r.headings }

// Next returns the next data record, or io.EOF when the file is exhausted.
func (r *Reader) Next() ([]string, error) {
	if r.pending != nil {
		rec := r.pending
		r.pending = nil
		r.line++
		return rec, nil
	}
	rec, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read record %d: %w", r.line+1, err)
	}
	r.line++
	return rec, nil
}

// Close releases the file handle.
func (r *Reader) Close() error {
	return r.f.Close()
}

// #endregion reader

// #region count
// Stats summarizes one pass over an input file.
type Stats struct {
	Headings []string
	Records  int
}

// Count makes one streaming pass over path and counts data records.
func Count(path string, hasHeaders bool, format Format) (Stats, error) {
	r, err := Open(path, hasHeaders, format)
	if err != nil {
		return Stats{}, err
	}
	defer r.Close()

	st := Stats{Headings: r.Headings()}
	for {
		_, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Stats{}, err
		}
		st.Records++
	}
	if len(st.Headings) == 0 {
		return Stats{}, fmt.Errorf("count %s: %w", path, ErrNoColumns)
	}
	return st, nil
}

// #endregion count
