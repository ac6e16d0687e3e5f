package field

import (
	"errors"
	"math"
	"testing"
)

// #region helpers
func rangeField(name string, role Role) Descriptor {
	return Descriptor{
		Name:           name,
		Role:           role,
		Action:         ActionNormalize,
		ActualHigh:     100,
		ActualLow:      0,
		NormalizedHigh: 1,
		NormalizedLow:  -1,
	}
}

func classes(names ...string) []ClassItem {
	out := make([]ClassItem, len(names))
	for i, n := range names {
		out[i] = ClassItem{Code: n, Name: n}
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// #endregion helpers

// #region normalize-tests
func TestNormalizeRoundTrip(t *testing.T) {
	d := rangeField("price", RoleOutput)
	for _, v := range []float64{0, 25, 50, 99.5, 100} {
		n := d.Normalize(v)
		if n < -1 || n > 1 {
			t.Fatalf("normalize(%v) = %v, outside [-1,1]", v, n)
		}
		if got := d.DeNormalize(n); !approx(got, v) {
			t.Errorf("denormalize(normalize(%v)) = %v", v, got)
		}
	}
}

func TestPassThroughIsIdentity(t *testing.T) {
	d := Descriptor{Name: "x", Action: ActionPassThrough}
	if d.DeNormalize(5.25) != 5.25 || d.Normalize(5.25) != 5.25 {
		t.Fatal("pass-through must not transform values")
	}
}

func TestValidateRejectsEmptyRange(t *testing.T) {
	d := Descriptor{Name: "x", Action: ActionNormalize, NormalizedHigh: 1, NormalizedLow: 1}
	if err := d.Validate(); !errors.Is(err, ErrBadRange) {
		t.Fatalf("expected ErrBadRange, got %v", err)
	}
}

// #endregion normalize-tests

// #region class-tests
func TestColumnsNeeded(t *testing.T) {
	cases := []struct {
		action Action
		want   int
	}{
		{ActionNormalize, 1},
		{ActionPassThrough, 1},
		{ActionSingleField, 1},
		{ActionOneOf, 3},
		{ActionEquilateral, 2},
		{ActionIgnore, 0},
	}
	for _, c := range cases {
		d := Descriptor{Name: "c", Action: c.action, Classes: classes("a", "b", "c")}
		if got := d.ColumnsNeeded(); got != c.want {
			t.Errorf("action %d: expected %d columns, got %d", c.action, c.want, got)
		}
	}
}

func TestOneOfEncodeDecode(t *testing.T) {
	d := Descriptor{Name: "species", Role: RoleOutput, Action: ActionOneOf,
		NormalizedHigh: 1, NormalizedLow: 0, Classes: classes("setosa", "versicolor", "virginica")}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	buf := make([]float64, 3)
	if err := d.Encode("versicolor", buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if buf[1] != 1 || buf[0] != 0 || buf[2] != 0 {
		t.Fatalf("unexpected one-of encoding %v", buf)
	}
	cls, ok := d.DetermineClass([]float64{0.1, 0.2, 0.9})
	if !ok || cls.Name != "virginica" {
		t.Fatalf("expected virginica, got %+v ok=%v", cls, ok)
	}
}

func TestEquilateralDecodesOwnEncoding(t *testing.T) {
	d := Descriptor{Name: "c", Role: RoleOutput, Action: ActionEquilateral,
		NormalizedHigh: 1, NormalizedLow: -1, Classes: classes("a", "b", "c", "d")}
	if err := d.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	for i, want := range d.Classes {
		buf := make([]float64, d.ColumnsNeeded())
		if err := d.Encode(want.Code, buf); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
		got, ok := d.DetermineClass(buf)
		if !ok || got != want {
			t.Errorf("class %d: decoded %+v ok=%v", i, got, ok)
		}
	}
}

func TestDetermineClassSingleIndex(t *testing.T) {
	d := Descriptor{Name: "c", Role: RoleOutput, Action: ActionOneOf, Classes: classes("a", "b", "c")}
	got, ok := d.DetermineClass([]float64{2})
	if !ok || got.Name != "c" {
		t.Fatalf("expected class c from index output, got %+v ok=%v", got, ok)
	}
}

func TestDetermineClassOutOfRange(t *testing.T) {
	d := Descriptor{Name: "c", Role: RoleOutput, Action: ActionSingleField, Classes: classes("a", "b")}
	for _, v := range []float64{-3, 7, math.NaN(), math.Inf(1)} {
		if _, ok := d.DetermineClass([]float64{v}); ok {
			t.Errorf("expected no class for %v", v)
		}
	}
	if _, ok := d.DetermineClass(nil); ok {
		t.Error("expected no class for empty output")
	}
}

func TestEncodeUnknownClass(t *testing.T) {
	d := Descriptor{Name: "c", Action: ActionSingleField, Classes: classes("a")}
	err := d.Encode("zzz", make([]float64, 1))
	if !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("expected ErrUnknownClass, got %v", err)
	}
}

// #endregion class-tests

// #region set-tests
func TestSetCounts(t *testing.T) {
	s, err := NewSet([]Descriptor{
		rangeField("a", RoleInput),
		{Name: "skip", Role: RoleIgnored, Action: ActionIgnore},
		{Name: "kind", Role: RoleOutput, Action: ActionOneOf, Classes: classes("x", "y", "z")},
		rangeField("y", RoleOutput),
		{Name: "lagged", Role: RoleInput, Action: ActionPassThrough, TimeSlice: -2},
		{Name: "ahead", Role: RoleInput, Action: ActionPassThrough, TimeSlice: 1},
	})
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	if got := s.OutputColumns(); got != 4 {
		t.Errorf("expected 4 output columns, got %d", got)
	}
	if got := s.InputColumns(); got != 3 {
		t.Errorf("expected 3 input columns, got %d", got)
	}
	if got := s.UniqueColumns(); got != 7 {
		t.Errorf("expected 7 unique columns, got %d", got)
	}
	if outs := s.Outputs(); len(outs) != 2 || outs[0].Name != "kind" || outs[1].Name != "y" {
		t.Errorf("unexpected outputs %v", outs)
	}
	lag, lead := s.Depth()
	if lag != 2 || lead != 1 {
		t.Errorf("expected lag=2 lead=1, got lag=%d lead=%d", lag, lead)
	}
}

func TestNewSetRejectsEmpty(t *testing.T) {
	if _, err := NewSet(nil); err == nil {
		t.Fatal("expected error for empty set")
	}
}

// #endregion set-tests
