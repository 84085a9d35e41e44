package transform

import (
	"log/slog"
	"strings"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// ConvertUnits divides the values of every variable declaring a
// unitConversionDict by the divisor of the row's unit. Units missing from the
// dictionary, and missing units, use a divisor of 1. The unit column is left
// unchanged.
func (tr *Transformer) ConvertUnits(t *dataset.Table, reg rules.Registry) (*dataset.Table, error) {
	groups, values, err := tr.scope(t)
	if err != nil {
		return nil, err
	}
	var units []dataset.Cell
	changed := false
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil || !rule.UnitConversionDict.Declared() {
			continue
		}
		rows := groups[name]
		if len(rows) == 0 {
			continue
		}
		if units == nil {
			if units, err = t.Values(tr.layout.Unit); err != nil {
				return nil, errhandling.MissingColumn(tr.layout.Unit, err)
			}
		}
		dict, _ := rule.UnitConversionDict.Get()
		nums, err := tr.castRows(name, values, rows)
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			divisor := 1.0
			if !units[r].IsNull() {
				divisor = rules.LookupWithDefault(dict, units[r].String(), 1)
			}
			values[r] = dataset.Number(nums[i] / divisor)
		}
		changed = true
		tr.logger.Debug("units converted",
			slog.String("variable", name),
			slog.Int("rows", len(rows)),
		)
	}
	if !changed {
		return t, nil
	}
	return t.WithColumn(tr.layout.Value, values)
}

var strayCharacters = strings.NewReplacer(">", "", "<", "", "+", "")

// StripStrayCharacters removes '>', '<' and '+' from the text values of
// numeric variables.
func (tr *Transformer) StripStrayCharacters(t *dataset.Table, reg rules.Registry) (*dataset.Table, error) {
	groups, values, err := tr.scope(t)
	if err != nil {
		return nil, err
	}
	changed := false
	for _, name := range reg.Names() {
		if !reg[name].IsNumeric() {
			continue
		}
		for _, r := range groups[name] {
			if !values[r].IsText() {
				continue
			}
			s := values[r].String()
			if stripped := strayCharacters.Replace(s); stripped != s {
				values[r] = dataset.Text(stripped)
				changed = true
			}
		}
	}
	if !changed {
		return t, nil
	}
	return t.WithColumn(tr.layout.Value, values)
}

// Clip casts the values of every variable declaring min or max and clamps
// them to the non-null bounds. With both bounds null the values are cast but
// otherwise unchanged. NaN values stay NaN.
func (tr *Transformer) Clip(t *dataset.Table, reg rules.Registry) (*dataset.Table, error) {
	groups, values, err := tr.scope(t)
	if err != nil {
		return nil, err
	}
	changed := false
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil || !(rule.Min.Declared() || rule.Max.Declared()) {
			continue
		}
		rows := groups[name]
		nums, err := tr.castRows(name, values, rows)
		if err != nil {
			return nil, err
		}
		lo, hasLo := rule.Min.Get()
		hi, hasHi := rule.Max.Get()
		for i, r := range rows {
			v := nums[i]
			if hasLo && v < lo {
				v = lo
			}
			if hasHi && v > hi {
				v = hi
			}
			values[r] = dataset.Number(v)
			changed = true
		}
	}
	if !changed {
		return t, nil
	}
	return t.WithColumn(tr.layout.Value, values)
}
