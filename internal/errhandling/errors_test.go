// Package errhandling provides error types and classification for cleaning runs.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/vpclean/preprocess/pkg/dataset"
)

// TestErrorCategory tests error category constants and their string values.
func TestErrorCategory(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		expected string
	}{
		{CategoryCast, "cast"},
		{CategoryUnmappedValue, "unmapped_value"},
		{CategoryMalformedRule, "malformed_rule"},
		{CategoryMissingColumn, "missing_column"},
		{CategoryIO, "io"},
		{CategoryUnknown, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if string(tt.category) != tt.expected {
				t.Errorf("ErrorCategory = %v, want %v", tt.category, tt.expected)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "cast",
			err:      &CastError{Stage: "clip", Variable: "A", Column: "Value", Row: 3, Value: "3.0L"},
			contains: []string{`"3.0L"`, `"Value"`, "row 3", `variable "A"`, "clip"},
		},
		{
			name:     "unmapped",
			err:      &UnmappedValueError{Variable: "B", Dictionary: "encoding", Keys: []string{"large", "small"}, Values: []string{"unknown"}},
			contains: []string{`"unknown"`, "encoding", `"large", "small"`},
		},
		{
			name:     "malformed",
			err:      &MalformedRuleError{Variable: "HR", Field: "alphaMask", Reason: "bad regex"},
			contains: []string{`"HR"`, "alphaMask", "bad regex"},
		},
		{
			name:     "missing column",
			err:      &MissingColumnError{Stage: "convert_units", Column: "Unit"},
			contains: []string{"convert_units", `"Unit"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, want to contain %q", msg, want)
				}
			}
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{"nil", nil, CategoryUnknown},
		{"plain", errors.New("boom"), CategoryUnknown},
		{"wrapped cast", fmt.Errorf("stage clip: %w", &CastError{Value: "x"}), CategoryCast},
		{"wrapped unmapped", fmt.Errorf("stage: %w", &UnmappedValueError{}), CategoryUnmappedValue},
		{"malformed", &MalformedRuleError{}, CategoryMalformedRule},
		{"missing column", &MissingColumnError{Column: "Value"}, CategoryMissingColumn},
		{"path error", &fs.PathError{Op: "open", Path: "x.csv", Err: fs.ErrNotExist}, CategoryIO},
		{"classified", NewIOError("write failed", nil), CategoryIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetErrorCategory(tt.err); got != tt.want {
				t.Errorf("GetErrorCategory() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDataError(t *testing.T) {
	if !IsDataError(fmt.Errorf("wrap: %w", &CastError{})) {
		t.Error("cast errors are data errors")
	}
	if IsDataError(errors.New("other")) {
		t.Error("unclassified errors are not data errors")
	}
	if IsDataError(NewIOError("x", nil)) {
		t.Error("io errors are not data errors")
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	original := &CastError{Value: "a"}
	classified := ClassifyError(original)
	var target *CastError
	if !errors.As(classified, &target) || target != original {
		t.Error("ClassifyError should keep the original error reachable")
	}
	if ClassifyError(nil) != nil {
		t.Error("ClassifyError(nil) should be nil")
	}
}

func TestMissingColumn(t *testing.T) {
	tbl, err := dataset.FromStrings([]string{"Variable Name"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, lookupErr := tbl.Values("Value")

	var missing *MissingColumnError
	if got := MissingColumn("Value", lookupErr); !errors.As(got, &missing) || missing.Column != "Value" {
		t.Errorf("MissingColumn() = %v, want MissingColumnError for Value", got)
	}
	if GetErrorCategory(MissingColumn("Value", lookupErr)) != CategoryMissingColumn {
		t.Error("expected missing_column category")
	}

	other := errors.New("boom")
	if got := MissingColumn("Value", other); got != other {
		t.Errorf("MissingColumn() = %v, want the original error", got)
	}
}
