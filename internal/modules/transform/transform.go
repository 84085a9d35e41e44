// Package transform rewrites value cells according to the variable rule
// registry.
//
// Transforms never change the number of rows. Each method returns a new
// table. Variables missing from the registry pass through unchanged.
package transform

import (
	"log/slog"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Transformer applies value transforms.
type Transformer struct {
	layout rules.Layout
	logger *slog.Logger
}

// NewTransformer creates a transformer reading the columns named by layout. A
// nil log uses the package logger.
func NewTransformer(layout rules.Layout, log *slog.Logger) *Transformer {
	if log == nil {
		log = logger.Logger
	}
	return &Transformer{layout: layout, logger: log}
}

func (tr *Transformer) scope(t *dataset.Table) (map[string][]int, []dataset.Cell, error) {
	groups, err := t.Groups(tr.layout.Variable)
	if err != nil {
		return nil, nil, errhandling.MissingColumn(tr.layout.Variable, err)
	}
	values, err := t.Values(tr.layout.Value)
	if err != nil {
		return nil, nil, errhandling.MissingColumn(tr.layout.Value, err)
	}
	return groups, values, nil
}

// castRows casts the value cells at rows to numbers.
func (tr *Transformer) castRows(variable string, values []dataset.Cell, rows []int) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, r := range rows {
		v, err := values[r].Float()
		if err != nil {
			return nil, &errhandling.CastError{
				Variable: variable,
				Column:   tr.layout.Value,
				Row:      r,
				Value:    values[r].String(),
				Err:      err,
			}
		}
		out[i] = v
	}
	return out, nil
}
