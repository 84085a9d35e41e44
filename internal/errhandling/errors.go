// Package errhandling provides error types and classification for cleaning runs.
// This file defines the data-rule error types, their categories, and helpers
// used by the CLI to map failures to exit codes.
package errhandling

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/vpclean/preprocess/pkg/dataset"
)

// ErrorCategory represents the type/category of an error.
type ErrorCategory string

// Error categories for classification.
const (
	// CategoryCast represents a value that could not be cast to a number or time.
	CategoryCast ErrorCategory = "cast"

	// CategoryUnmappedValue represents a value missing from a declared dictionary.
	CategoryUnmappedValue ErrorCategory = "unmapped_value"

	// CategoryMalformedRule represents a rule that cannot be applied as declared.
	CategoryMalformedRule ErrorCategory = "malformed_rule"

	// CategoryMissingColumn represents a required column absent from the table.
	CategoryMissingColumn ErrorCategory = "missing_column"

	// CategoryIO represents a file that could not be read or written.
	CategoryIO ErrorCategory = "io"

	// CategoryUnknown represents unclassified errors.
	CategoryUnknown ErrorCategory = "unknown"
)

// CastError reports a value that failed a numeric or time cast.
type CastError struct {
	Stage    string
	Variable string
	Column   string
	Row      int
	Value    string
	Err      error
}

// Error implements the error interface.
func (e *CastError) Error() string {
	var b strings.Builder
	b.WriteString("cannot cast value ")
	fmt.Fprintf(&b, "%q in column %q (row %d)", e.Value, e.Column, e.Row)
	if e.Variable != "" {
		fmt.Fprintf(&b, " for variable %q", e.Variable)
	}
	if e.Stage != "" {
		fmt.Fprintf(&b, " during %s", e.Stage)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cast error.
func (e *CastError) Unwrap() error { return e.Err }

// UnmappedValueError reports values absent from a declared dictionary.
type UnmappedValueError struct {
	Stage      string
	Variable   string
	Dictionary string
	// Keys are the dictionary keys, sorted.
	Keys []string
	// Values are the offending values, distinct, in first-seen order.
	Values []string
}

// Error implements the error interface.
func (e *UnmappedValueError) Error() string {
	msg := fmt.Sprintf("variable %q: values %s are not keys of %s (keys: %s)",
		e.Variable, quoteAll(e.Values), e.Dictionary, quoteAll(e.Keys))
	if e.Stage != "" {
		return e.Stage + ": " + msg
	}
	return msg
}

// MalformedRuleError reports a rule that cannot be applied.
type MalformedRuleError struct {
	Stage    string
	Variable string
	Field    string
	Reason   string
}

// Error implements the error interface.
func (e *MalformedRuleError) Error() string {
	msg := fmt.Sprintf("malformed rule %s: %s", e.Field, e.Reason)
	if e.Variable != "" {
		msg = fmt.Sprintf("variable %q: %s", e.Variable, msg)
	}
	if e.Stage != "" {
		return e.Stage + ": " + msg
	}
	return msg
}

// MissingColumnError reports a required column absent from a table.
type MissingColumnError struct {
	Stage  string
	Column string
}

// Error implements the error interface.
func (e *MissingColumnError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("missing column %q", e.Column)
	}
	return fmt.Sprintf("%s: missing column %q", e.Stage, e.Column)
}

// MissingColumn converts an unknown-column lookup failure on column into a
// MissingColumnError. Other errors are returned unchanged.
func MissingColumn(column string, err error) error {
	if errors.Is(err, dataset.ErrUnknownColumn) {
		return &MissingColumnError{Column: column}
	}
	return err
}

func quoteAll(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ClassifiedError wraps an error with its category.
type ClassifiedError struct {
	// Category is the error classification category.
	Category ErrorCategory

	// Message is a human-readable error message.
	Message string

	// OriginalErr is the underlying error that was classified.
	OriginalErr error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Category, e.Message)
}

// Unwrap returns the original error for use with errors.Is and errors.As.
func (e *ClassifiedError) Unwrap() error {
	return e.OriginalErr
}

// ClassifyError classifies any error into a ClassifiedError.
// Already classified errors are returned unchanged. Nil returns nil.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}
	return &ClassifiedError{
		Category:    categorize(err),
		Message:     err.Error(),
		OriginalErr: err,
	}
}

func categorize(err error) ErrorCategory {
	var (
		castErr     *CastError
		unmappedErr *UnmappedValueError
		ruleErr     *MalformedRuleError
		columnErr   *MissingColumnError
		pathErr     *fs.PathError
	)
	switch {
	case errors.As(err, &castErr):
		return CategoryCast
	case errors.As(err, &unmappedErr):
		return CategoryUnmappedValue
	case errors.As(err, &ruleErr):
		return CategoryMalformedRule
	case errors.As(err, &columnErr):
		return CategoryMissingColumn
	case errors.As(err, &pathErr):
		return CategoryIO
	default:
		return CategoryUnknown
	}
}

// GetErrorCategory returns the error category for a given error.
// Returns CategoryUnknown for nil or unclassified errors.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	return ClassifyError(err).Category
}

// IsDataError reports whether err was caused by data violating a rule or by a
// rule that cannot be applied.
func IsDataError(err error) bool {
	switch GetErrorCategory(err) {
	case CategoryCast, CategoryUnmappedValue, CategoryMalformedRule, CategoryMissingColumn:
		return true
	default:
		return false
	}
}

// NewIOError creates a ClassifiedError for file errors.
func NewIOError(message string, originalErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:    CategoryIO,
		Message:     message,
		OriginalErr: originalErr,
	}
}
