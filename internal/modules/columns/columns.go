// Package columns projects and renames table columns.
package columns

import (
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Select keeps the columns listed in spec.Include, in the table's own column
// order. Listed names the table lacks are ignored. A nil spec or an empty
// include list returns the table unchanged.
func Select(t *dataset.Table, spec *rules.ColumnSpec) (*dataset.Table, error) {
	if spec == nil || len(spec.Include) == 0 {
		return t, nil
	}
	wanted := make(map[string]struct{}, len(spec.Include))
	for _, name := range spec.Include {
		wanted[name] = struct{}{}
	}
	var keep []string
	for _, name := range t.Columns() {
		if _, ok := wanted[name]; ok {
			keep = append(keep, name)
		}
	}
	return t.Select(keep)
}

// Rename applies spec.Renaming. Columns without a mapping keep their name and
// column order is unchanged.
func Rename(t *dataset.Table, spec *rules.ColumnSpec) (*dataset.Table, error) {
	if spec == nil || len(spec.Renaming) == 0 {
		return t, nil
	}
	return t.Rename(spec.Renaming)
}

// Project runs Select then Rename.
func Project(t *dataset.Table, spec *rules.ColumnSpec) (*dataset.Table, error) {
	selected, err := Select(t, spec)
	if err != nil {
		return nil, err
	}
	return Rename(selected, spec)
}
