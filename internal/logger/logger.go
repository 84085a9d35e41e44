// Package logger provides structured logging functionality.
// It wraps the standard log/slog package for consistent logging across the engine.
//
// This package provides run context helpers for consistent cleaning-run logging,
// including helpers for run start/end and stage start/end/skip.
// All helpers use structured logging with consistent field names (snake_case).
//
// Logs are written to stderr so the cleaned table can be streamed to stdout.
//
// The package supports two output formats:
//   - JSON (default): Machine-readable structured logging
//   - Human: Human-readable console output with colors and prefixes
package logger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger is the default logger instance.
var Logger *slog.Logger

// output is where console logs are written.
var output io.Writer = os.Stderr

func init() {
	Logger = newConsoleLogger(slog.LevelInfo, FormatJSON)
}

func newConsoleLogger(level slog.Level, format OutputFormat) *slog.Logger {
	return slog.New(newConsoleHandler(output, level, format))
}

func newConsoleHandler(w io.Writer, level slog.Level, format OutputFormat) slog.Handler {
	if format == FormatHuman {
		return NewHumanHandler(w, &HumanHandlerOptions{
			Level:     level,
			UseColors: isTerminal(w),
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

// SetLevel configures the logging level, keeping JSON output.
func SetLevel(level slog.Level) {
	Logger = newConsoleLogger(level, FormatJSON)
}

// SetFormat sets the log output format at info level.
func SetFormat(format OutputFormat) {
	Logger = newConsoleLogger(slog.LevelInfo, format)
}

// SetLevelAndFormat sets both the log level and format.
func SetLevelAndFormat(level slog.Level, format OutputFormat) {
	Logger = newConsoleLogger(level, format)
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog.Level.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseFormat converts a format name (json, human) to an OutputFormat.
func ParseFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return FormatJSON, nil
	case "human", "text":
		return FormatHuman, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q (want json or human)", name)
	}
}

// Info logs an informational message.
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Debug logs a debug message.
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Warn logs a warning message.
func Warn(msg string, args ...any) {
	Logger.Warn(msg, args...)
}

// Error logs an error message.
func Error(msg string, args ...any) {
	Logger.Error(msg, args...)
}

// WithStage returns a logger with stage context.
func WithStage(stage string) *slog.Logger {
	return Logger.With("stage", stage)
}

// =============================================================================
// Run Context Types
// =============================================================================

// RunContext contains context information for cleaning-run logging.
// Use this struct with WithRun() and the other run logging helpers.
type RunContext struct {
	// Logger receives the records. Nil uses the package Logger.
	Logger *slog.Logger
	// RunID is the unique identifier of the run (required)
	RunID string
	// SettingsPath is the settings file the run was configured from
	SettingsPath string
	// DataPath is the input data file
	DataPath string
	// Stage is the current stage name
	Stage string
}

func (c RunContext) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger
}

// StageError contains structured error information for stage logging.
type StageError struct {
	// Category is the error category (cast, unmapped_value, ...)
	Category string
	// Message is the human-readable error message
	Message string
}

// ErrorContext contains structured context for error logging.
// Use this with LogError() for consistent, actionable error logs.
type ErrorContext struct {
	// Logger receives the record. Nil uses the package Logger.
	Logger *slog.Logger

	RunID    string
	Stage    string
	Variable string
	Column   string

	// Error details
	Category     string
	ErrorMessage string
	Err          error

	// Row is the offending row index, or -1
	Row      int
	RowCount int
	Duration time.Duration

	// Additional context as key-value pairs
	Extra map[string]interface{}
}

// =============================================================================
// Run Context Helpers
// =============================================================================

// WithRun returns a logger with run context attached.
// Only non-empty fields are included in the log output.
func WithRun(ctx RunContext) *slog.Logger {
	return ctx.logger().With(buildContextAttrs(ctx)...)
}

// LogRunStart logs the start of a cleaning run.
func LogRunStart(ctx RunContext, rows int) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs, slog.Int("rows", rows))
	ctx.logger().Info("run started", attrs...)
}

// LogRunEnd logs the end of a cleaning run with its final status.
func LogRunEnd(ctx RunContext, status string, rowsIn, rowsOut int, duration time.Duration) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.String("status", status),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", duration),
	)
	if status == "success" {
		ctx.logger().Info("run completed", attrs...)
		return
	}
	ctx.logger().Error("run failed", attrs...)
}

// LogStageStart logs the start of a stage.
func LogStageStart(ctx RunContext, rows int) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs, slog.Int("rows", rows))
	ctx.logger().Debug("stage started", attrs...)
}

// LogStageSkipped logs a stage that had nothing to do or was disabled.
func LogStageSkipped(ctx RunContext, reason string) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs, slog.String("reason", reason))
	ctx.logger().Debug("stage skipped", attrs...)
}

// LogStageEnd logs the completion of a stage.
// If err is non-nil, logs as an error with error details.
func LogStageEnd(ctx RunContext, rowsIn, rowsOut int, duration time.Duration, err *StageError) {
	attrs := buildContextAttrs(ctx)
	attrs = append(attrs,
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", duration),
	)

	if err != nil {
		attrs = append(attrs,
			slog.String("error_category", err.Category),
			slog.String("error", err.Message),
		)
		ctx.logger().Error("stage failed", attrs...)
		return
	}
	ctx.logger().Info("stage completed", attrs...)
}

// LogError logs an error with full run context.
func LogError(message string, errCtx ErrorContext) {
	attrs := make([]any, 0, 16)

	if errCtx.RunID != "" {
		attrs = append(attrs, slog.String("run_id", errCtx.RunID))
	}
	if errCtx.Stage != "" {
		attrs = append(attrs, slog.String("stage", errCtx.Stage))
	}
	if errCtx.Variable != "" {
		attrs = append(attrs, slog.String("variable", errCtx.Variable))
	}
	if errCtx.Column != "" {
		attrs = append(attrs, slog.String("column", errCtx.Column))
	}
	if errCtx.Category != "" {
		attrs = append(attrs, slog.String("error_category", errCtx.Category))
	}
	if errCtx.ErrorMessage != "" {
		attrs = append(attrs, slog.String("error", errCtx.ErrorMessage))
	}
	if errCtx.Err != nil {
		attrs = append(attrs, slog.String("error_type", fmt.Sprintf("%T", errCtx.Err)))

		errorChain := []string{errCtx.Err.Error()}
		currentErr := errCtx.Err
		for {
			unwrapped := errors.Unwrap(currentErr)
			if unwrapped == nil {
				break
			}
			errorChain = append(errorChain, unwrapped.Error())
			currentErr = unwrapped
		}
		if len(errorChain) > 1 {
			attrs = append(attrs, slog.String("error_chain", strings.Join(errorChain, " -> ")))
		}
	}
	if errCtx.Row >= 0 {
		attrs = append(attrs, slog.Int("row", errCtx.Row))
	}
	if errCtx.RowCount > 0 {
		attrs = append(attrs, slog.Int("row_count", errCtx.RowCount))
	}
	if errCtx.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", errCtx.Duration))
	}
	for k, v := range errCtx.Extra {
		attrs = append(attrs, slog.Any(k, v))
	}

	l := errCtx.Logger
	if l == nil {
		l = Logger
	}
	l.Error(message, attrs...)
}

// buildContextAttrs builds a slice of slog attributes from a RunContext.
// Only non-empty fields are included.
func buildContextAttrs(ctx RunContext) []any {
	attrs := make([]any, 0, 8)
	attrs = append(attrs, slog.String("run_id", ctx.RunID))
	if ctx.SettingsPath != "" {
		attrs = append(attrs, slog.String("settings", ctx.SettingsPath))
	}
	if ctx.DataPath != "" {
		attrs = append(attrs, slog.String("data", ctx.DataPath))
	}
	if ctx.Stage != "" {
		attrs = append(attrs, slog.String("stage", ctx.Stage))
	}
	return attrs
}
