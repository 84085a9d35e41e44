// Package rules provides the public types of the cleaning rule registry.
// This package is intended to be importable by external projects that build
// settings programmatically instead of loading them from a file.
package rules

import (
	"sort"
	"time"

	"github.com/vpclean/preprocess/pkg/dataset"
)

// Settings is a complete cleaning configuration.
type Settings struct {
	// Variables maps each variable name to its rule bundle. A nil Registry
	// means the variables section was absent or null.
	Variables Registry

	// AgeGroups maps an age-group label to the lower cutoff of the group, in
	// years.
	AgeGroups map[string]float64

	// BirthReference is the instant ages are measured from.
	BirthReference time.Time

	// Columns configures the final column projection
	Columns *ColumnSpec

	// Episodes is an optional allow-list of encounter identifiers
	Episodes Param[[]string]
}

// DefaultBirthReference is used when a settings file does not name one.
var DefaultBirthReference = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// NewSettings returns empty settings with the default birth reference.
func NewSettings() *Settings {
	return &Settings{BirthReference: DefaultBirthReference}
}

// ColumnSpec configures column projection.
type ColumnSpec struct {
	// Include lists the columns to keep. Empty keeps every column.
	Include []string

	// Renaming maps old column names to new ones
	Renaming map[string]string
}

// Registry maps variable names to rule bundles. A nil bundle means the
// variable was declared with no rules.
type Registry map[string]*VariableRule

// Names returns the declared variable names in sorted order.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule returns the bundle for name and whether the variable is declared.
func (r Registry) Rule(name string) (*VariableRule, bool) {
	rule, ok := r[name]
	return rule, ok
}

// Dictionary maps raw text values to replacement cells.
type Dictionary map[string]dataset.Cell

// Keys returns the dictionary keys in sorted order.
func (d Dictionary) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VariableRule is the rule bundle of one variable.
type VariableRule struct {
	// AlphaMask is a regular expression. Rows whose value contains a match
	// are removed.
	AlphaMask Param[string]

	// Min is the lower clip bound
	Min Param[float64]

	// Max is the upper clip bound
	Max Param[float64]

	// DropBelow removes rows whose value is strictly below it
	DropBelow Param[float64]

	// DropAbove removes rows whose value is strictly above it
	DropAbove Param[float64]

	// UnitConversionDict maps a unit to the divisor that converts it to the
	// canonical unit. Unlisted units use a divisor of 1.
	UnitConversionDict Param[map[string]float64]

	// ImputeDict replaces raw values before encoding
	ImputeDict Param[Dictionary]

	// Encoding maps categorical text to codes
	Encoding Param[Dictionary]

	// Include marks the variable as kept by membership filtering
	Include bool

	// Normalization configures robust z-scoring. Nil disables it.
	Normalization *Normalization
}

// IsNumeric reports whether the variable declares any numeric rule. A key
// declared with a null value still counts.
func (v *VariableRule) IsNumeric() bool {
	if v == nil {
		return false
	}
	return v.Min.Declared() || v.Max.Declared() ||
		v.DropBelow.Declared() || v.DropAbove.Declared() ||
		v.UnitConversionDict.Declared()
}

// Normalization holds the parameters of robust z-scoring.
type Normalization struct {
	AgeDependent bool
	Fixed        *NormParams
	ByAgeGroup   map[string]NormParams
}

// NormParams are the location and spread statistics of one population.
type NormParams struct {
	Median    float64 `json:"median" yaml:"median"`
	Quartile1 float64 `json:"quartile_1" yaml:"quartile_1"`
	Quartile3 float64 `json:"quartile_3" yaml:"quartile_3"`
}

// HalfIQR returns half the interquartile range, substituting 1 for a zero
// spread.
func (p NormParams) HalfIQR() float64 {
	h := 0.5 * (p.Quartile3 - p.Quartile1)
	if h == 0 {
		return 1
	}
	return h
}

// Score returns the robust z-score of v.
func (p NormParams) Score(v float64) float64 {
	return (v - p.Median) / p.HalfIQR()
}

// LookupWithDefault returns m[key] when present and def otherwise.
func LookupWithDefault[K comparable, V any](m map[K]V, key K, def V) V {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}
