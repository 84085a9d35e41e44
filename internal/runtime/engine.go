// Package runtime provides the cleaning engine.
// It runs the registered stages over a long-format table in their fixed order.
package runtime

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/internal/modules/mask"
	"github.com/vpclean/preprocess/internal/modules/transform"
	"github.com/vpclean/preprocess/internal/registry"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Run status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Reasons recorded when a stage does not run.
const (
	skipNoRules  = "no rules"
	skipDisabled = "disabled"
	skipOption   = "skipped by option"
)

// Common errors
var (
	// ErrNilTable is returned when the input table is nil
	ErrNilTable = errors.New("input table is nil")

	// ErrNilSettings is returned when settings are nil
	ErrNilSettings = errors.New("settings are nil")

	// ErrRowCountChanged is returned when a transform stage adds or drops rows
	ErrRowCountChanged = errors.New("transform stage changed the row count")

	errStageNoTable = errors.New("stage returned no table")
)

// StageReport describes one stage of a run.
type StageReport struct {
	Name     string
	RowsIn   int
	RowsOut  int
	Duration time.Duration
	// Skipped is true when the stage did not run
	Skipped bool
	// Reason explains why a stage was skipped
	Reason string
}

// Removed returns the number of rows the stage dropped.
func (r StageReport) Removed() int {
	return r.RowsIn - r.RowsOut
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	Table    *dataset.Table
	Stages   []StageReport
	Duration time.Duration
}

// RowsIn returns the row count of the input table.
func (r *Result) RowsIn() int {
	if len(r.Stages) == 0 {
		return r.Table.Len()
	}
	return r.Stages[0].RowsIn
}

// Engine runs cleaning stages. The zero value is not usable; use NewEngine.
type Engine struct {
	logger       *slog.Logger
	layout       rules.Layout
	skip         map[string]bool
	enabled      map[string]bool
	settingsPath string
	dataPath     string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithLayout overrides the column names the engine reads.
func WithLayout(layout rules.Layout) Option {
	return func(e *Engine) { e.layout = layout }
}

// WithSkipStages disables stages by name.
func WithSkipStages(names ...string) Option {
	return func(e *Engine) {
		for _, n := range names {
			e.skip[n] = true
		}
	}
}

// WithTrimVariableNames strips surrounding whitespace from variable names
// before any other stage.
func WithTrimVariableNames() Option {
	return enableStage(registry.StageTrimVariableNames)
}

// WithRestrictToIncluded drops rows whose variable is not declared.
func WithRestrictToIncluded() Option {
	return enableStage(registry.StageRemoveUnlisted)
}

// WithDropUnmappedText drops encoded rows whose value is not an encoding key
// instead of failing the run.
func WithDropUnmappedText() Option {
	return enableStage(registry.StageRemoveUnmappedText)
}

// WithSource records the input paths in the run's log context.
func WithSource(settingsPath, dataPath string) Option {
	return func(e *Engine) {
		e.settingsPath = settingsPath
		e.dataPath = dataPath
	}
}

func enableStage(name string) Option {
	return func(e *Engine) { e.enabled[name] = true }
}

// NewEngine creates an engine with the default layout and the package logger.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:  logger.Logger,
		layout:  rules.DefaultLayout(),
		skip:    make(map[string]bool),
		enabled: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run cleans tbl according to settings. encounters is only read by
// age_normalize and may be nil when no variable is normalized.
//
// The first stage error aborts the run and no partial table is returned.
func (e *Engine) Run(tbl *dataset.Table, settings *rules.Settings, encounters *dataset.Table) (*Result, error) {
	if tbl == nil {
		return nil, ErrNilTable
	}
	if settings == nil {
		return nil, ErrNilSettings
	}

	runID := uuid.NewString()
	runCtx := logger.RunContext{
		Logger:       e.logger,
		RunID:        runID,
		SettingsPath: e.settingsPath,
		DataPath:     e.dataPath,
	}
	runLog := e.logger.With(slog.String("run_id", runID))

	env := &registry.Env{
		Settings:   settings,
		Encounters: encounters,
		Layout:     e.layout,
		Masks:      mask.NewBuilder(e.layout, runLog),
		Transforms: transform.NewTransformer(e.layout, runLog),
	}

	e.warnUnknownSkips(runLog)

	start := time.Now()
	rowsIn := tbl.Len()
	logger.LogRunStart(runCtx, rowsIn)

	stages := registry.ListStages()
	reports := make([]StageReport, 0, len(stages))
	current := tbl

	for _, stage := range stages {
		stageCtx := runCtx
		stageCtx.Stage = stage.Name

		if reason, skip := e.skipReason(stage, env); skip {
			logger.LogStageSkipped(stageCtx, reason)
			reports = append(reports, StageReport{
				Name:    stage.Name,
				RowsIn:  current.Len(),
				RowsOut: current.Len(),
				Skipped: true,
				Reason:  reason,
			})
			continue
		}

		next, report, err := e.runStage(stageCtx, stage, env, current)
		if err != nil {
			duration := time.Since(start)
			logger.LogRunEnd(runCtx, StatusError, rowsIn, current.Len(), duration)
			return nil, err
		}
		reports = append(reports, report)
		current = next
	}

	duration := time.Since(start)
	logger.LogRunEnd(runCtx, StatusSuccess, rowsIn, current.Len(), duration)

	return &Result{
		RunID:    runID,
		Table:    current,
		Stages:   reports,
		Duration: duration,
	}, nil
}

func (e *Engine) runStage(ctx logger.RunContext, stage registry.Stage, env *registry.Env, in *dataset.Table) (*dataset.Table, StageReport, error) {
	logger.LogStageStart(ctx, in.Len())

	stageStart := time.Now()
	out, err := stage.Run(env, in)
	if err == nil && out == nil {
		err = errStageNoTable
	}
	if err == nil && stage.Kind == registry.KindTransform && out.Len() != in.Len() {
		err = fmt.Errorf("%w: %d rows in, %d rows out", ErrRowCountChanged, in.Len(), out.Len())
	}
	duration := time.Since(stageStart)

	if err != nil {
		err = annotateStage(stage.Name, err)
		category := errhandling.GetErrorCategory(err)
		logger.LogStageEnd(ctx, in.Len(), in.Len(), duration, &logger.StageError{
			Category: string(category),
			Message:  err.Error(),
		})
		logger.LogError("cleaning run aborted", errorContext(ctx, category, err, duration))
		return nil, StageReport{}, err
	}

	logger.LogStageEnd(ctx, in.Len(), out.Len(), duration, nil)
	return out, StageReport{
		Name:     stage.Name,
		RowsIn:   in.Len(),
		RowsOut:  out.Len(),
		Duration: duration,
	}, nil
}

// skipReason reports whether a stage should not run and why.
func (e *Engine) skipReason(stage registry.Stage, env *registry.Env) (string, bool) {
	switch {
	case e.skip[stage.Name]:
		return skipOption, true
	case stage.Optional && !e.enabled[stage.Name]:
		return skipDisabled, true
	case stage.Applies != nil && !stage.Applies(env):
		return skipNoRules, true
	default:
		return "", false
	}
}

func (e *Engine) warnUnknownSkips(log *slog.Logger) {
	for name := range e.skip {
		if _, ok := registry.GetStage(name); !ok {
			log.Warn("unknown stage in skip list", slog.String("stage", name))
		}
	}
}

// annotateStage records the stage on typed errors that carry one and wraps
// any other error with the stage name.
func annotateStage(stage string, err error) error {
	var (
		castErr     *errhandling.CastError
		unmappedErr *errhandling.UnmappedValueError
		ruleErr     *errhandling.MalformedRuleError
		columnErr   *errhandling.MissingColumnError
	)
	switch {
	case errors.As(err, &castErr):
		if castErr.Stage == "" {
			castErr.Stage = stage
		}
	case errors.As(err, &unmappedErr):
		if unmappedErr.Stage == "" {
			unmappedErr.Stage = stage
		}
	case errors.As(err, &ruleErr):
		if ruleErr.Stage == "" {
			ruleErr.Stage = stage
		}
	case errors.As(err, &columnErr):
		if columnErr.Stage == "" {
			columnErr.Stage = stage
		}
	default:
		return fmt.Errorf("stage %s: %w", stage, err)
	}
	return err
}

func errorContext(ctx logger.RunContext, category errhandling.ErrorCategory, err error, duration time.Duration) logger.ErrorContext {
	errCtx := logger.ErrorContext{
		Logger:       ctx.Logger,
		RunID:        ctx.RunID,
		Stage:        ctx.Stage,
		Category:     string(category),
		ErrorMessage: err.Error(),
		Err:          err,
		Row:          -1,
		Duration:     duration,
	}

	var (
		castErr     *errhandling.CastError
		unmappedErr *errhandling.UnmappedValueError
		ruleErr     *errhandling.MalformedRuleError
		columnErr   *errhandling.MissingColumnError
	)
	switch {
	case errors.As(err, &castErr):
		errCtx.Variable = castErr.Variable
		errCtx.Column = castErr.Column
		errCtx.Row = castErr.Row
	case errors.As(err, &unmappedErr):
		errCtx.Variable = unmappedErr.Variable
		errCtx.Extra = map[string]interface{}{
			"dictionary": unmappedErr.Dictionary,
			"values":     unmappedErr.Values,
		}
	case errors.As(err, &ruleErr):
		errCtx.Variable = ruleErr.Variable
		errCtx.Extra = map[string]interface{}{"field": ruleErr.Field}
	case errors.As(err, &columnErr):
		errCtx.Column = columnErr.Column
	}
	return errCtx
}
