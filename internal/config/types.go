package config

import (
	"fmt"
	"strings"
)

// Kinds of settings parse failure, stored in ParseError.Type.
const (
	// ErrorTypeIO: the settings file could not be read.
	ErrorTypeIO = "io"
	// ErrorTypeSyntax: the document is not well-formed YAML or JSON.
	ErrorTypeSyntax = "syntax"
	// ErrorTypeFormat: the format is unknown or unsupported, or the top
	// level of the document is not a mapping of settings keys.
	ErrorTypeFormat = "format"
)

// ParseResult holds a settings document decoded into its raw map form, before
// schema validation. Keys are the settings keys (variables, age_groups,
// birth_reference, columns, episodes) with every nested YAML key normalized to
// a string.
type ParseResult struct {
	Data   map[string]interface{}
	Errors []ParseError
	// FilePath is empty for settings parsed from a string.
	FilePath string
	Format   Format
}

// IsValid reports whether the document decoded without errors.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ParseError locates a settings decoding failure. Line and Column are
// 1-based and zero when the decoder gives no position. Offset is the byte
// offset reported by the JSON decoder.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Offset  int64
	Message string
	Type    string
	Err     error
}

// Error renders "path: line L, column C: message", leaving out unknown parts.
func (e ParseError) Error() string {
	var sb strings.Builder
	if e.Path != "" {
		sb.WriteString(e.Path)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		fmt.Fprintf(&sb, "line %d", e.Line)
		if e.Column > 0 {
			fmt.Fprintf(&sb, ", column %d", e.Column)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// ValidationResult is the outcome of checking decoded settings against the
// embedded settings schema.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is one schema violation. Path is the JSON pointer of the
// offending settings value, such as "/variables/Heart rate (bpm)/dropBelow".
// Type is the failing schema keyword.
type ValidationError struct {
	Path    string
	Type    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// Result combines decoding and schema validation of one settings document.
// Validation only runs when decoding succeeded, so at most one of
// ParseErrors and ValidationErrors is non-empty.
type Result struct {
	Data             map[string]interface{}
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
	FilePath         string
	Format           Format
}

// IsValid reports whether the settings decoded and passed the schema.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// AllErrors returns parse errors followed by validation errors.
func (r *Result) AllErrors() []error {
	errs := make([]error, 0, len(r.ParseErrors)+len(r.ValidationErrors))
	for _, e := range r.ParseErrors {
		errs = append(errs, e)
	}
	for _, e := range r.ValidationErrors {
		errs = append(errs, e)
	}
	return errs
}
