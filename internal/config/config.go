// Package config provides functionality for parsing and validating
// cleaning settings files (JSON/YAML).
package config

import (
	"fmt"
	"strings"

	"github.com/vpclean/preprocess/pkg/rules"
)

// ParseConfig parses and validates a settings file.
// It auto-detects the format (JSON/YAML) based on file extension or content.
// Validation is skipped when parsing fails.
func ParseConfig(filepath string) *Result {
	return validated(ParseFile(filepath, ""))
}

// ParseConfigString parses and validates settings content from a string.
// If format is empty, it auto-detects from content.
func ParseConfigString(content string, format Format) *Result {
	return validated(ParseString(content, format))
}

func validated(parsed *ParseResult) *Result {
	result := &Result{
		Data:        parsed.Data,
		ParseErrors: parsed.Errors,
		FilePath:    parsed.FilePath,
		Format:      parsed.Format,
	}
	if !parsed.IsValid() {
		return result
	}
	result.ValidationErrors = ValidateConfig(parsed.Data).Errors
	return result
}

// LoadError reports a settings file that failed to parse, validate or
// convert.
type LoadError struct {
	// Result holds the parse and validation errors. It is nil when the
	// failure happened during conversion.
	Result *Result
	// Err is the conversion error, if any
	Err error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid settings: %v", e.Err)
	}
	msgs := make([]string, 0, len(e.Result.ParseErrors)+len(e.Result.ValidationErrors))
	for _, err := range e.Result.AllErrors() {
		msgs = append(msgs, err.Error())
	}
	return "invalid settings: " + strings.Join(msgs, "; ")
}

// Unwrap returns the conversion error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether the settings could not be read or decoded.
func (e *LoadError) IsParseError() bool {
	return e.Result != nil && len(e.Result.ParseErrors) > 0
}

// LoadSettings parses, validates and converts a settings file.
func LoadSettings(filepath string) (*rules.Settings, error) {
	result := ParseConfig(filepath)
	if !result.IsValid() {
		return nil, &LoadError{Result: result}
	}
	settings, err := ConvertToSettings(result.Data)
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	return settings, nil
}
