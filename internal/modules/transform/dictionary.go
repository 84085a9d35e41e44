package transform

import (
	"fmt"
	"log/slog"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// DictionaryField selects which dictionary of a rule bundle to apply.
type DictionaryField string

const (
	// FieldImputeDict replaces raw values before encoding.
	FieldImputeDict DictionaryField = "imputeDict"
	// FieldEncoding maps categorical text to codes.
	FieldEncoding DictionaryField = "encoding"
)

func (f DictionaryField) of(rule *rules.VariableRule) rules.Param[rules.Dictionary] {
	switch f {
	case FieldImputeDict:
		return rule.ImputeDict
	case FieldEncoding:
		return rule.Encoding
	default:
		return rules.Param[rules.Dictionary]{}
	}
}

// ApplyDictionary replaces every value of a variable declaring the selected
// dictionary with its mapping. A value without a mapping fails the whole call
// with an UnmappedValueError. A dictionary declared null is skipped with a
// warning.
func (tr *Transformer) ApplyDictionary(t *dataset.Table, reg rules.Registry, field DictionaryField) (*dataset.Table, error) {
	if field != FieldImputeDict && field != FieldEncoding {
		return nil, fmt.Errorf("unknown dictionary field %q", field)
	}
	groups, values, err := tr.scope(t)
	if err != nil {
		return nil, err
	}
	changed := false
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil {
			continue
		}
		param := field.of(rule)
		if !param.Declared() {
			continue
		}
		dict, ok := param.Get()
		if !ok {
			tr.logger.Warn("dictionary is null, skipping",
				slog.String("variable", name),
				slog.String("dictionary", string(field)),
			)
			continue
		}
		rows := groups[name]
		if unmapped := unmappedValues(dict, values, rows); len(unmapped) > 0 {
			return nil, &errhandling.UnmappedValueError{
				Variable:   name,
				Dictionary: string(field),
				Keys:       dict.Keys(),
				Values:     unmapped,
			}
		}
		for _, r := range rows {
			values[r] = dict[values[r].String()]
			changed = true
		}
		tr.logger.Debug("dictionary applied",
			slog.String("variable", name),
			slog.String("dictionary", string(field)),
			slog.Int("rows", len(rows)),
		)
	}
	if !changed {
		return t, nil
	}
	return t.WithColumn(tr.layout.Value, values)
}

// unmappedValues returns the distinct values at rows that have no mapping,
// in first-seen order. Missing values are never mapped.
func unmappedValues(dict rules.Dictionary, values []dataset.Cell, rows []int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range rows {
		cell := values[r]
		key := cell.String()
		if cell.IsNull() {
			key = "null"
		} else if _, ok := dict[key]; ok {
			continue
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
