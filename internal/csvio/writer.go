package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
)

// #region writer
// Writer writes delimited rows to a freshly created file.
type Writer struct {
	f      *os.File
	buf    *bufio.Writer
	csv    *csv.Writer
	format Format
}

// Create removes any existing file at path and creates a new one.
func Create(path string, format Format) (*Writer, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove %s: %w", path, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	buf := bufio.NewWriter(f)
	cw := csv.NewWriter(buf)
	cw.Comma = format.Separator
	return &Writer{f: f, buf: buf, csv: cw, format: format}, nil
}

// WriteHeader writes one line with every cell quoted.
func (w *Writer) WriteHeader(cells []string) error {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteRune(w.format.Separator)
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	if _, err := w.buf.WriteString(b.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// WriteRow writes one data row, quoting only cells that need it.
func (w *Writer) WriteRow(cells []string) error {
	if err := w.csv.Write(cells); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (w *Writer) Close() error {
	w.csv.Flush()
	err := w.csv.Error()
	if ferr := w.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := w.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	return nil
}

// #endregion writer
