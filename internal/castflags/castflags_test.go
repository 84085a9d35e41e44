package castflags

import (
	"errors"
	"testing"

	"github.com/vpclean/preprocess/pkg/dataset"
)

func cells(values ...interface{}) []dataset.Cell {
	out := make([]dataset.Cell, len(values))
	for i, v := range values {
		if s, ok := v.(string); ok {
			out[i] = dataset.Text(s)
		} else {
			out[i] = dataset.Null()
		}
	}
	return out
}

func assertMask(t *testing.T, got, want dataset.Mask) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("mask length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mask[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestFlagNumeric(t *testing.T) {
	got, err := FlagNumeric(cells("1", "2.1", "a", "3.0L", nil))
	if err != nil {
		t.Fatalf("FlagNumeric() error = %v", err)
	}
	assertMask(t, got, dataset.Mask{true, true, false, false, true})
}

func TestFlagDatetime(t *testing.T) {
	got, err := FlagDatetime(cells("2015-03-08 01:00:00", "2015-07-23", "", " ", "NIL", nil))
	if err != nil {
		t.Fatalf("FlagDatetime() error = %v", err)
	}
	assertMask(t, got, dataset.Mask{true, false, false, false, false, false})
}

func TestFlagDate(t *testing.T) {
	got, err := FlagDate(cells("2015-03-08 01:00:00", "2015-07-23", "", "NIL", nil))
	if err != nil {
		t.Fatalf("FlagDate() error = %v", err)
	}
	assertMask(t, got, dataset.Mask{false, true, false, false, false})
}

func TestFlag_NotSequence(t *testing.T) {
	tests := []struct {
		name string
		fn   func([]dataset.Cell) (dataset.Mask, error)
	}{
		{"numeric", FlagNumeric},
		{"datetime", FlagDatetime},
		{"date", FlagDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(nil); !errors.Is(err, ErrNotSequence) {
				t.Errorf("expected ErrNotSequence, got %v", err)
			}
		})
	}
}

func TestIsNumeric_NumberCell(t *testing.T) {
	if !IsNumeric(dataset.Number(2)) {
		t.Error("number cells are numeric")
	}
}

func TestParseDatetime_Variants(t *testing.T) {
	for _, s := range []string{"2015-03-08T01:00:00", "2015-03-08 01:00:00.5", "2015-03-08 01:00"} {
		if _, ok := ParseDatetime(s); !ok {
			t.Errorf("ParseDatetime(%q) should succeed", s)
		}
	}
	if _, ok := ParseDatetime("NaT"); ok {
		t.Error("NaT must not parse")
	}
}
