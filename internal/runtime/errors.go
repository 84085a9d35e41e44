// Package runtime provides error types and classification for cleaning runs.
// This file re-exports error handling utilities from the errhandling package.
package runtime

import (
	"github.com/vpclean/preprocess/internal/errhandling"
)

// ErrorCategory represents the category of an error (re-exported from errhandling).
type ErrorCategory = errhandling.ErrorCategory

// ClassifiedError represents a classified error with its category (re-exported from errhandling).
type ClassifiedError = errhandling.ClassifiedError

// Re-export error category constants
const (
	CategoryCast          = errhandling.CategoryCast
	CategoryUnmappedValue = errhandling.CategoryUnmappedValue
	CategoryMalformedRule = errhandling.CategoryMalformedRule
	CategoryMissingColumn = errhandling.CategoryMissingColumn
	CategoryIO            = errhandling.CategoryIO
	CategoryUnknown       = errhandling.CategoryUnknown
)

// Re-export functions
var (
	ClassifyError    = errhandling.ClassifyError
	GetErrorCategory = errhandling.GetErrorCategory
	IsDataError      = errhandling.IsDataError
)
