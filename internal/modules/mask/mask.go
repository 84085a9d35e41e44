// Package mask builds row-removal masks from the variable rule registry.
//
// Every Builder method is pure. It reads the table and settings and returns a
// dataset.Mask with one entry per row, true where the row should be removed.
// Variable-scoped masks are false outside the rows of the variable that
// produced them, so masks from different variables can be OR-ed freely.
package mask

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/vpclean/preprocess/internal/castflags"
	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Builder computes removal masks.
type Builder struct {
	layout rules.Layout
	logger *slog.Logger
}

// NewBuilder creates a mask builder reading the columns named by layout. A nil
// log uses the package logger.
func NewBuilder(layout rules.Layout, log *slog.Logger) *Builder {
	if log == nil {
		log = logger.Logger
	}
	return &Builder{layout: layout, logger: log}
}

// scope returns the rows of each variable and the value column.
func (b *Builder) scope(t *dataset.Table) (map[string][]int, []dataset.Cell, error) {
	groups, err := t.Groups(b.layout.Variable)
	if err != nil {
		return nil, nil, errhandling.MissingColumn(b.layout.Variable, err)
	}
	values, err := t.Values(b.layout.Value)
	if err != nil {
		return nil, nil, errhandling.MissingColumn(b.layout.Value, err)
	}
	return groups, values, nil
}

// Alpha marks rows whose value contains a match of the variable's alphaMask
// pattern. Missing values never match.
func (b *Builder) Alpha(t *dataset.Table, reg rules.Registry) (dataset.Mask, error) {
	groups, values, err := b.scope(t)
	if err != nil {
		return nil, err
	}
	mask := dataset.NewMask(t.Len())
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil {
			continue
		}
		pattern, ok := rule.AlphaMask.Get()
		if !ok {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &errhandling.MalformedRuleError{
				Variable: name,
				Field:    "alphaMask",
				Reason:   err.Error(),
			}
		}
		marked := 0
		for _, r := range groups[name] {
			cell := values[r]
			if cell.IsNull() {
				continue
			}
			if re.MatchString(cell.String()) {
				mask[r] = true
				marked++
			}
		}
		b.logger.Debug("alpha mask built",
			slog.String("variable", name),
			slog.String("pattern", pattern),
			slog.Int("rows_marked", marked),
		)
	}
	return mask, nil
}

// NonNumeric marks rows of numeric variables whose value cannot be cast to a
// number. Missing values are never marked.
func (b *Builder) NonNumeric(t *dataset.Table, reg rules.Registry) (dataset.Mask, error) {
	groups, values, err := b.scope(t)
	if err != nil {
		return nil, err
	}
	mask := dataset.NewMask(t.Len())
	for _, name := range reg.Names() {
		if !reg[name].IsNumeric() {
			continue
		}
		for _, r := range groups[name] {
			if !castflags.IsNumeric(values[r]) {
				mask[r] = true
			}
		}
	}
	return mask, nil
}

// Extreme marks rows whose value lies strictly below dropBelow or strictly
// above dropAbove. Scoped values are cast first and a failed cast is an
// error. NaN values compare false against both bounds and are kept.
func (b *Builder) Extreme(t *dataset.Table, reg rules.Registry) (dataset.Mask, error) {
	groups, values, err := b.scope(t)
	if err != nil {
		return nil, err
	}
	mask := dataset.NewMask(t.Len())
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil {
			continue
		}
		lo, hasLo := rule.DropBelow.Get()
		hi, hasHi := rule.DropAbove.Get()
		if !hasLo && !hasHi {
			continue
		}
		for _, r := range groups[name] {
			v, err := values[r].Float()
			if err != nil {
				return nil, &errhandling.CastError{
					Variable: name,
					Column:   b.layout.Value,
					Row:      r,
					Value:    values[r].String(),
					Err:      err,
				}
			}
			if (hasLo && v < lo) || (hasHi && v > hi) {
				mask[r] = true
			}
		}
	}
	return mask, nil
}

// UnmappedText marks rows of variables with an encoding whose value is not an
// encoding key.
func (b *Builder) UnmappedText(t *dataset.Table, reg rules.Registry) (dataset.Mask, error) {
	groups, values, err := b.scope(t)
	if err != nil {
		return nil, err
	}
	mask := dataset.NewMask(t.Len())
	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil {
			continue
		}
		encoding, ok := rule.Encoding.Get()
		if !ok {
			continue
		}
		for _, r := range groups[name] {
			if values[r].IsNull() {
				mask[r] = true
				continue
			}
			if _, mapped := encoding[values[r].String()]; !mapped {
				mask[r] = true
			}
		}
	}
	return mask, nil
}

// Membership marks rows whose variable is not declared with an include key.
// Variables missing from the registry or declared with an empty bundle are
// marked. A nil registry marks nothing.
func (b *Builder) Membership(t *dataset.Table, reg rules.Registry) (dataset.Mask, error) {
	names, err := t.Values(b.layout.Variable)
	if err != nil {
		return nil, errhandling.MissingColumn(b.layout.Variable, err)
	}
	mask := dataset.NewMask(t.Len())
	if reg == nil {
		b.logger.Warn("no variables declared, skipping membership filter")
		return mask, nil
	}
	for r, cell := range names {
		if cell.IsNull() {
			mask[r] = true
			continue
		}
		rule, ok := reg[cell.String()]
		if !ok || rule == nil || !rule.Include {
			mask[r] = true
		}
	}
	return mask, nil
}

// Null marks rows whose cell in column is missing.
func (b *Builder) Null(t *dataset.Table, column string) (dataset.Mask, error) {
	return b.column(t, column, func(c dataset.Cell) bool { return c.IsNull() })
}

// NonNumericColumn marks rows whose cell in column cannot be cast to a number.
func (b *Builder) NonNumericColumn(t *dataset.Table, column string) (dataset.Mask, error) {
	return b.column(t, column, func(c dataset.Cell) bool { return !castflags.IsNumeric(c) })
}

// NonDatetime marks rows whose cell in column is not a date with a time.
func (b *Builder) NonDatetime(t *dataset.Table, column string) (dataset.Mask, error) {
	return b.column(t, column, func(c dataset.Cell) bool { return !castflags.IsDatetimeWithTime(c) })
}

// NonDate marks rows whose cell in column is not a date without a time.
func (b *Builder) NonDate(t *dataset.Table, column string) (dataset.Mask, error) {
	return b.column(t, column, func(c dataset.Cell) bool { return !castflags.IsDateOnly(c) })
}

// Episodes marks rows whose encounter is not in the settings' episode
// allow-list. An absent or null list marks nothing.
func (b *Builder) Episodes(t *dataset.Table, settings *rules.Settings) (dataset.Mask, error) {
	mask := dataset.NewMask(t.Len())
	if settings == nil {
		return mask, nil
	}
	episodes, ok := settings.Episodes.Get()
	if !ok {
		if settings.Episodes.IsNull() {
			b.logger.Warn("episode list is null, keeping all episodes")
		}
		return mask, nil
	}
	allowed := make(map[string]struct{}, len(episodes))
	for _, e := range episodes {
		allowed[e] = struct{}{}
	}
	return b.column(t, b.layout.Encounter, func(c dataset.Cell) bool {
		if c.IsNull() {
			return true
		}
		_, keep := allowed[c.String()]
		return !keep
	})
}

func (b *Builder) column(t *dataset.Table, column string, pred func(dataset.Cell) bool) (dataset.Mask, error) {
	values, err := t.Values(column)
	if err != nil {
		return nil, errhandling.MissingColumn(column, err)
	}
	mask := make(dataset.Mask, len(values))
	for r, c := range values {
		mask[r] = pred(c)
	}
	return mask, nil
}

// Combine ORs masks of the same length.
func Combine(n int, masks ...dataset.Mask) (dataset.Mask, error) {
	out := dataset.NewMask(n)
	for i, m := range masks {
		if len(m) != n {
			return nil, fmt.Errorf("mask %d has %d entries, want %d", i, len(m), n)
		}
		out = out.Or(m)
	}
	return out, nil
}
