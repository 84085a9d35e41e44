package transform

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vpclean/preprocess/internal/castflags"
	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/pkg/dataset"
)

var errNotTimestamp = errors.New("not a date or datetime")

// TrimVariableNames strips surrounding whitespace from the variable column.
func (tr *Transformer) TrimVariableNames(t *dataset.Table) (*dataset.Table, error) {
	names, err := t.Values(tr.layout.Variable)
	if err != nil {
		return nil, errhandling.MissingColumn(tr.layout.Variable, err)
	}
	for r, cell := range names {
		if cell.IsText() {
			names[r] = dataset.Text(strings.TrimSpace(cell.String()))
		}
	}
	return t.WithColumn(tr.layout.Variable, names)
}

// ConvertToEpochTime replaces the timestamps of column with seconds since
// 1970-01-01 UTC. Empty text and missing values become missing values. Any
// other text that is not a date or datetime is a CastError.
func (tr *Transformer) ConvertToEpochTime(t *dataset.Table, column string) (*dataset.Table, error) {
	cells, err := t.Values(column)
	if err != nil {
		return nil, errhandling.MissingColumn(column, err)
	}
	for r, cell := range cells {
		if cell.IsNull() || cell.IsNumber() {
			continue
		}
		s := cell.String()
		if s == "" {
			cells[r] = dataset.Null()
			continue
		}
		at, ok := castflags.ParseDatetime(s)
		if !ok {
			at, ok = castflags.ParseDate(s)
		}
		if !ok {
			return nil, &errhandling.CastError{
				Column: column,
				Row:    r,
				Value:  s,
				Err:    errNotTimestamp,
			}
		}
		cells[r] = dataset.Number(epochSeconds(at))
	}
	return t.WithColumn(column, cells)
}

func epochSeconds(at time.Time) float64 {
	return float64(at.Unix()) + float64(at.Nanosecond())/1e9
}

// ConvertFlaggedToNull replaces the cells of column at flagged rows with
// missing values.
func (tr *Transformer) ConvertFlaggedToNull(t *dataset.Table, flags dataset.Mask, column string) (*dataset.Table, error) {
	return tr.replaceFlagged(t, flags, column, dataset.Null())
}

// ConvertBadTimesToEmpty replaces the cells of column that are not a date with
// a time by empty text.
func (tr *Transformer) ConvertBadTimesToEmpty(t *dataset.Table, column string) (*dataset.Table, error) {
	cells, err := t.Values(column)
	if err != nil {
		return nil, errhandling.MissingColumn(column, err)
	}
	good, err := castflags.FlagDatetime(cells)
	if err != nil {
		return nil, err
	}
	return tr.replaceFlagged(t, good.Not(), column, dataset.Text(""))
}

func (tr *Transformer) replaceFlagged(t *dataset.Table, flags dataset.Mask, column string, with dataset.Cell) (*dataset.Table, error) {
	cells, err := t.Values(column)
	if err != nil {
		return nil, errhandling.MissingColumn(column, err)
	}
	if len(flags) != len(cells) {
		return nil, fmt.Errorf("%w: %d flags for %d rows", dataset.ErrShape, len(flags), len(cells))
	}
	for r, flagged := range flags {
		if flagged {
			cells[r] = with
		}
	}
	return t.WithColumn(column, cells)
}
