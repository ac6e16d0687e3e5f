package csvio

import (
	"fmt"
	"strconv"
	"strings"
)

// #region format
// Format is a delimiter plus decimal-mark convention.
type Format struct {
	Separator    rune
	DecimalPoint rune
}

var (
	// DecimalPoint separates with ',' and writes 1.5.
	DecimalPoint = Format{Separator: ',', DecimalPoint: '.'}
	// DecimalComma separates with ';' and writes 1,5.
	DecimalComma = Format{Separator: ';', DecimalPoint: ','}
)

// ParseFormat resolves a config token into a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "decimal-point", "english":
		return DecimalPoint, nil
	case "decimal-comma", "european":
		return DecimalComma, nil
	}
	return Format{}, fmt.Errorf("unknown csv format %q", name)
}

// String names the format.
func (f Format) String() string {
	switch f {
	case DecimalPoint:
		return "decimal-point"
	case DecimalComma:
		return "decimal-comma"
	}
	return fmt.Sprintf("sep=%q dec=%q", f.Separator, f.DecimalPoint)
}

// FormatFloat renders v with a fixed number of decimals.
func (f Format) FormatFloat(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if f.DecimalPoint != '.' && f.DecimalPoint != 0 {
		s = strings.Replace(s, ".", string(f.DecimalPoint), 1)
	}
	return s
}

// ParseFloat reads a number written in this format.
func (f Format) ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if f.DecimalPoint != '.' && f.DecimalPoint != 0 {
		s = strings.Replace(s, string(f.DecimalPoint), ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return v, nil
}

// #endregion format
