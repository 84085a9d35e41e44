// Package profile computes the per-variable statistics used to fill in
// normalization parameters.
package profile

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Summary describes the numeric values of one variable.
type Summary struct {
	Variable string
	// Count is the number of finite numeric values
	Count int
	// Skipped is the number of values that were missing or not numeric
	Skipped int
	Params  rules.NormParams
	Mean    float64
	StdDev  float64
}

// Profiler computes summaries over a long-format table.
type Profiler struct {
	layout rules.Layout
	logger *slog.Logger
}

// New creates a profiler. A nil log uses the package logger.
func New(layout rules.Layout, log *slog.Logger) *Profiler {
	if log == nil {
		log = logger.Logger
	}
	return &Profiler{layout: layout, logger: log}
}

// Profile summarizes the named variables, or every variable in the table when
// names is empty. Variables without a single numeric value are left out.
// Quartiles interpolate linearly between closest ranks.
func (p *Profiler) Profile(t *dataset.Table, names []string) ([]Summary, error) {
	groups, err := t.Groups(p.layout.Variable)
	if err != nil {
		return nil, &errhandling.MissingColumnError{Column: p.layout.Variable}
	}
	values, err := t.Values(p.layout.Value)
	if err != nil {
		return nil, &errhandling.MissingColumnError{Column: p.layout.Value}
	}

	if len(names) == 0 {
		names = make([]string, 0, len(groups))
		for name := range groups {
			names = append(names, name)
		}
	} else {
		names = append([]string(nil), names...)
	}
	sort.Strings(names)

	summaries := make([]Summary, 0, len(names))
	for _, name := range names {
		rows, ok := groups[name]
		if !ok {
			p.logger.Warn("variable not found in table", slog.String("variable", name))
			continue
		}

		xs := make([]float64, 0, len(rows))
		for _, r := range rows {
			v, err := values[r].Float()
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			xs = append(xs, v)
		}
		if len(xs) == 0 {
			p.logger.Warn("variable has no numeric values",
				slog.String("variable", name),
				slog.Int("rows", len(rows)),
			)
			continue
		}
		summaries = append(summaries, summarize(name, xs, len(rows)-len(xs)))
	}
	return summaries, nil
}

func summarize(name string, xs []float64, skipped int) Summary {
	sort.Float64s(xs)
	mean, std := stat.MeanStdDev(xs, nil)
	if len(xs) < 2 {
		std = 0
	}
	return Summary{
		Variable: name,
		Count:    len(xs),
		Skipped:  skipped,
		Params: rules.NormParams{
			Median:    quantile(xs, 0.5),
			Quartile1: quantile(xs, 0.25),
			Quartile3: quantile(xs, 0.75),
		},
		Mean:   mean,
		StdDev: std,
	}
}

// quantile returns the p-quantile of sorted xs, interpolating between the
// ranks floor(h) and ceil(h) with h = (n-1)p.
func quantile(xs []float64, p float64) float64 {
	h := float64(len(xs)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(xs) {
		return xs[i]
	}
	return xs[i] + (h-lo)*(xs[i+1]-xs[i])
}

// WriteYAML writes the summaries as a settings fragment whose variable blocks
// can be pasted into a settings file.
func WriteYAML(w io.Writer, summaries []Summary) error {
	vars := make(map[string]rules.NormParams, len(summaries))
	for _, s := range summaries {
		vars[s.Variable] = s.Params
	}
	doc := map[string]interface{}{"variables": vars}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return enc.Close()
}
