package dataset

import (
	"errors"
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "integer", input: "1", want: 1},
		{name: "decimal", input: "2.1", want: 2.1},
		{name: "surrounding whitespace", input: "  3.5 ", want: 3.5},
		{name: "negative", input: "-3.0", want: -3},
		{name: "exponent", input: "1e3", want: 1000},
		{name: "infinity word", input: "Infinity", want: math.Inf(1)},
		{name: "negative inf", input: "-inf", want: math.Inf(-1)},
		{name: "letters", input: "a", wantErr: true},
		{name: "suffix", input: "3.0L", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: " ", wantErr: true},
		{name: "hex", input: "0x10", wantErr: true},
		{name: "underscore", input: "1_000", wantErr: true},
		{name: "double sign", input: "+-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseNumber(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseNumber(%q) expected error, got %v", tt.input, got)
				}
				if !errors.Is(err, ErrNotNumber) {
					t.Errorf("expected ErrNotNumber, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNumber(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if v, err := ParseNumber("NaN"); err != nil || !math.IsNaN(v) {
		t.Errorf("ParseNumber(NaN) = %v, %v; want NaN", v, err)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{-2, "-2.0"},
		{0, "0.0"},
		{0.5, "0.5"},
		{0.002, "0.002"},
		{25, "25.0"},
		{1.0 / 3, "0.3333333333333333"},
		{1e16, "1e+16"},
		{1e-5, "1e-05"},
		{math.NaN(), "nan"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCellFloat(t *testing.T) {
	if v, err := Null().Float(); err != nil || !math.IsNaN(v) {
		t.Errorf("Null().Float() = %v, %v; want NaN", v, err)
	}
	if v, err := Number(4).Float(); err != nil || v != 4 {
		t.Errorf("Number(4).Float() = %v, %v", v, err)
	}
	if _, err := Text("Text").Float(); err == nil {
		t.Error("Text(\"Text\").Float() expected error")
	}
}

func TestCellEqual(t *testing.T) {
	if !Number(math.NaN()).Equal(Number(math.NaN())) {
		t.Error("NaN numbers should compare equal")
	}
	if Text("1").Equal(Number(1)) {
		t.Error("text and number must not compare equal")
	}
	if !Null().Equal(Cell{}) {
		t.Error("zero cell should be null")
	}
}

func newTestTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := FromStrings(
		[]string{"Variable Name", "Value", "Unit"},
		[][]string{
			{"A", "-3.0", "g"},
			{"A", "0.5", "mg"},
			{"B", "3.0L", ""},
			{"Z", "Text", ""},
		},
	)
	if err != nil {
		t.Fatalf("FromStrings() error = %v", err)
	}
	return tbl
}

func TestNew_Validation(t *testing.T) {
	if _, err := New([]string{"a", "a"}, nil); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
	if _, err := New([]string{"a", "b"}, [][]Cell{{Text("x")}}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape, got %v", err)
	}
}

func TestTable_Drop(t *testing.T) {
	tbl := newTestTable(t)

	out, err := tbl.Drop(Mask{true, false, true, false})
	if err != nil {
		t.Fatalf("Drop() error = %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("Drop() rows = %d, want 2", out.Len())
	}
	values, _ := out.Values("Value")
	if values[0].String() != "0.5" || values[1].String() != "Text" {
		t.Errorf("Drop() kept %v, want [0.5 Text]", values)
	}
	if tbl.Len() != 4 {
		t.Errorf("Drop() mutated receiver: rows = %d", tbl.Len())
	}

	if _, err := tbl.Drop(Mask{true}); !errors.Is(err, ErrShape) {
		t.Errorf("expected ErrShape for short mask, got %v", err)
	}
}

func TestTable_WithColumn(t *testing.T) {
	tbl := newTestTable(t)
	replaced, err := tbl.WithColumn("Value", []Cell{Number(1), Number(2), Number(3), Null()})
	if err != nil {
		t.Fatalf("WithColumn() error = %v", err)
	}
	got, _ := replaced.Cell(0, "Value")
	if !got.Equal(Number(1)) {
		t.Errorf("replaced cell = %v, want 1.0", got)
	}
	orig, _ := tbl.Cell(0, "Value")
	if !orig.Equal(Text("-3.0")) {
		t.Errorf("receiver changed: %v", orig)
	}

	added, err := tbl.WithColumn("Flag", make([]Cell, 4))
	if err != nil {
		t.Fatalf("WithColumn() add error = %v", err)
	}
	if cols := added.Columns(); len(cols) != 4 || cols[3] != "Flag" {
		t.Errorf("added columns = %v", cols)
	}
	if tbl.HasColumn("Flag") {
		t.Error("receiver gained a column")
	}
}

func TestTable_SelectRename(t *testing.T) {
	tbl := newTestTable(t)

	sel, err := tbl.Select([]string{"Value", "Variable Name"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if cols := sel.Columns(); cols[0] != "Value" || cols[1] != "Variable Name" {
		t.Errorf("Select() columns = %v", cols)
	}
	if _, err := tbl.Select([]string{"Missing"}); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("expected ErrUnknownColumn, got %v", err)
	}

	ren, err := tbl.Rename(map[string]string{"Unit": "unit"})
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if cols := ren.Columns(); cols[2] != "unit" || cols[0] != "Variable Name" {
		t.Errorf("Rename() columns = %v", cols)
	}
	if _, err := tbl.Rename(map[string]string{"Unit": "Value"}); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
}

func TestMask(t *testing.T) {
	a := Mask{true, false, false}
	b := Mask{false, false, true}
	if got := a.Or(b); got.Count() != 2 || got[1] {
		t.Errorf("Or() = %v", got)
	}
	if got := a.And(b); got.Any() {
		t.Errorf("And() = %v", got)
	}
	if got := a.Not(); got.Count() != 2 || got[0] {
		t.Errorf("Not() = %v", got)
	}
	if NewMask(3).Any() {
		t.Error("NewMask should be all false")
	}
}

func TestTable_EmptyValues(t *testing.T) {
	tbl, err := FromStrings([]string{"End Time"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	values, err := tbl.Values("End Time")
	if err != nil {
		t.Fatalf("Values() error = %v", err)
	}
	if values == nil || len(values) != 0 {
		t.Errorf("Values() = %#v, want an empty non-nil slice", values)
	}

	empty, err := Empty(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cols := empty.Columns(); cols == nil || len(cols) != 0 {
		t.Errorf("Columns() = %#v, want an empty non-nil slice", cols)
	}
}
