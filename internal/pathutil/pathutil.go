// Package pathutil provides shared path validation helpers.
package pathutil

import (
	"fmt"
	"os"
	"strings"
)

// Stdio is the path that selects standard input or output.
const Stdio = "-"

// ValidateFilePath rejects empty paths and paths containing null bytes.
func ValidateFilePath(filePath string) error {
	if filePath == "" {
		return fmt.Errorf("file path cannot be empty")
	}
	if strings.Contains(filePath, "\x00") {
		return fmt.Errorf("file path contains invalid characters")
	}
	return nil
}

// IsStdio reports whether filePath selects standard input or output.
func IsStdio(filePath string) bool {
	return filePath == "" || filePath == Stdio
}

// SameFile reports whether a and b name the same existing file.
func SameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// ValidateOutputPath checks an output path before anything is written.
// Standard output is always accepted. A file output must be a valid path
// that does not name any of the inputs.
func ValidateOutputPath(output string, inputs ...string) error {
	if IsStdio(output) {
		return nil
	}
	if err := ValidateFilePath(output); err != nil {
		return err
	}
	for _, in := range inputs {
		if !IsStdio(in) && SameFile(in, output) {
			return fmt.Errorf("output %q would overwrite input %q", output, in)
		}
	}
	return nil
}
