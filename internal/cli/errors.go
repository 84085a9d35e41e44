// Package cli provides CLI output formatting, display functions and exit codes.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/vpclean/preprocess/internal/config"
	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/tableio"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitDataError       = 3
	ExitIOError         = 4
)

// ExitCode maps an error returned by a command to the process exit code.
//
// Settings that fail the schema or cannot be converted exit with
// ExitValidationError. Settings or data files that cannot be decoded exit
// with ExitParseError. Cleaning rule failures exit with ExitDataError and
// unreadable or unwritable files with ExitIOError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		if !loadErr.IsParseError() {
			return ExitValidationError
		}
		for _, pe := range loadErr.Result.ParseErrors {
			if pe.Type == config.ErrorTypeIO {
				return ExitIOError
			}
		}
		return ExitParseError
	}

	var rowErr *tableio.RowError
	if errors.As(err, &rowErr) || errors.Is(err, tableio.ErrNoHeader) || errors.Is(err, tableio.ErrBadHeader) {
		return ExitParseError
	}

	switch errhandling.GetErrorCategory(err) {
	case errhandling.CategoryIO:
		return ExitIOError
	default:
		return ExitDataError
	}
}

// PrintParseErrors prints parse errors.
func PrintParseErrors(w io.Writer, errs []config.ParseError, verbose bool) {
	fmt.Fprintln(w, "✗ Parse errors:")
	for _, err := range errs {
		printSingleParseError(w, err, verbose)
	}
}

// printSingleParseError prints a single parse error with location information.
func printSingleParseError(w io.Writer, err config.ParseError, verbose bool) {
	location := formatErrorLocation(err.Path, err.Line, err.Column)

	if location != "" {
		fmt.Fprintf(w, "  %s: %s\n", location, err.Message)
	} else {
		fmt.Fprintf(w, "  %s\n", err.Message)
	}

	if verbose && err.Type != "" {
		fmt.Fprintf(w, "    Type: %s\n", err.Type)
	}
}

// formatErrorLocation formats the error location string (path:line:column).
func formatErrorLocation(path string, line, column int) string {
	if path == "" {
		return ""
	}

	location := path
	if line > 0 {
		location += fmt.Sprintf(":%d", line)
		if column > 0 {
			location += fmt.Sprintf(":%d", column)
		}
	}
	return location
}

// PrintValidationErrors prints schema validation errors.
func PrintValidationErrors(w io.Writer, errs []config.ValidationError, verbose, quiet bool) {
	fmt.Fprintln(w, "✗ Validation errors:")
	for _, err := range errs {
		path := err.Path
		if path == "" {
			path = "/"
		}
		if verbose {
			fmt.Fprintf(w, "  %s:\n", path)
			fmt.Fprintf(w, "    Message: %s\n", err.Message)
			if err.Type != "" {
				fmt.Fprintf(w, "    Type: %s\n", err.Type)
			}
		} else {
			fmt.Fprintf(w, "  %s: %s\n", path, truncate(err.Message, 80))
		}
	}
	if !quiet && !verbose {
		fmt.Fprintln(w, "")
		fmt.Fprintln(w, "Hint: Use --verbose for detailed error information")
	}
}

// PrintLoadError prints the errors carried by a settings load failure, or the
// error message itself for any other error.
func PrintLoadError(w io.Writer, err error, verbose, quiet bool) {
	var loadErr *config.LoadError
	if !errors.As(err, &loadErr) || loadErr.Result == nil {
		fmt.Fprintf(w, "✗ %v\n", err)
		return
	}
	if loadErr.IsParseError() {
		PrintParseErrors(w, loadErr.Result.ParseErrors, verbose)
		return
	}
	PrintValidationErrors(w, loadErr.Result.ValidationErrors, verbose, quiet)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
