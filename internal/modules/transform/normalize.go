package transform

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/vpclean/preprocess/internal/castflags"
	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

const secondsPerDay = 86400.0

// ageBucket is an age group with its lower cutoff in days.
type ageBucket struct {
	label  string
	cutoff float64
}

// buckets returns the age groups sorted by cutoff. Labels break ties so the
// order is deterministic.
func buckets(groups map[string]float64) []ageBucket {
	out := make([]ageBucket, 0, len(groups))
	for label, years := range groups {
		out = append(out, ageBucket{label: label, cutoff: years * 365})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].cutoff != out[j].cutoff {
			return out[i].cutoff < out[j].cutoff
		}
		return out[i].label < out[j].label
	})
	return out
}

// bucketFor returns the group whose half-open range [cutoff_i, cutoff_i+1)
// contains ageDays. The last group is open-ended.
func bucketFor(bs []ageBucket, ageDays float64) (string, bool) {
	label, found := "", false
	for _, b := range bs {
		if ageDays < b.cutoff {
			break
		}
		label, found = b.label, true
	}
	return label, found
}

// AgeNormalize casts the values of every registered variable to numbers and
// replaces those of variables declaring normalization with the robust z-score
// (v - median) / halfIQR. Age-dependent variables pick their parameters from
// the age group of the row's episode, computed from the episode start
// timestamp in encounters. Once done, the whole value column is serialized
// back to text, with missing cells written as "nan".
func (tr *Transformer) AgeNormalize(t *dataset.Table, settings *rules.Settings, encounters *dataset.Table) (*dataset.Table, error) {
	if settings == nil {
		return t, nil
	}
	groups, values, err := tr.scope(t)
	if err != nil {
		return nil, err
	}
	reg := settings.Variables

	var (
		starts  map[string]time.Time
		encCol  []dataset.Cell
		ages    []ageBucket
		loaded  bool
		birthAt = settings.BirthReference
	)
	if birthAt.IsZero() {
		birthAt = rules.DefaultBirthReference
	}

	cast := make(map[string][]float64, len(reg))
	for _, name := range reg.Names() {
		rows := groups[name]
		nums, err := tr.castRows(name, values, rows)
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			values[r] = dataset.Number(nums[i])
		}
		cast[name] = nums
	}

	for _, name := range reg.Names() {
		rule := reg[name]
		if rule == nil || rule.Normalization == nil {
			continue
		}
		norm := rule.Normalization
		rows := groups[name]
		nums := cast[name]

		if !norm.AgeDependent {
			if norm.Fixed == nil {
				return nil, &errhandling.MalformedRuleError{
					Variable: name,
					Field:    "median",
					Reason:   "normalization parameters median, quartile_1 and quartile_3 are required",
				}
			}
			for i, r := range rows {
				values[r] = dataset.Number(norm.Fixed.Score(nums[i]))
			}
			continue
		}

		if !loaded {
			if len(settings.AgeGroups) == 0 {
				return nil, &errhandling.MalformedRuleError{
					Variable: name,
					Field:    "age_groups",
					Reason:   "age-dependent normalization needs age groups",
				}
			}
			if encounters == nil {
				return nil, &errhandling.MalformedRuleError{
					Variable: name,
					Field:    "age_dependent",
					Reason:   "age-dependent normalization needs an encounter table",
				}
			}
			if starts, err = tr.episodeStarts(encounters); err != nil {
				return nil, err
			}
			if encCol, err = t.Values(tr.layout.Encounter); err != nil {
				return nil, errhandling.MissingColumn(tr.layout.Encounter, err)
			}
			ages = buckets(settings.AgeGroups)
			loaded = true
		}

		unplaced := 0
		for i, r := range rows {
			start, ok := starts[encCol[r].String()]
			if !ok || encCol[r].IsNull() {
				unplaced++
				continue
			}
			ageDays := start.Sub(birthAt).Seconds() / secondsPerDay
			label, ok := bucketFor(ages, ageDays)
			if !ok {
				unplaced++
				continue
			}
			params, ok := norm.ByAgeGroup[label]
			if !ok {
				return nil, &errhandling.MalformedRuleError{
					Variable: name,
					Field:    label,
					Reason:   "no normalization parameters for age group",
				}
			}
			values[r] = dataset.Number(params.Score(nums[i]))
		}
		if unplaced > 0 {
			tr.logger.Warn("rows without an age group kept unnormalized",
				slog.String("variable", name),
				slog.Int("rows", unplaced),
			)
		}
	}

	for r, cell := range values {
		switch {
		case cell.IsNumber():
			values[r] = dataset.Text(cell.String())
		case cell.IsNull():
			values[r] = dataset.Text(dataset.FormatNumber(math.NaN()))
		}
	}
	return t.WithColumn(tr.layout.Value, values)
}

// episodeStarts maps each encounter to its parsed episode start. The first
// row of an encounter wins. Unparseable starts are left out.
func (tr *Transformer) episodeStarts(encounters *dataset.Table) (map[string]time.Time, error) {
	ids, err := encounters.Values(tr.layout.Encounter)
	if err != nil {
		return nil, errhandling.MissingColumn(tr.layout.Encounter, err)
	}
	stamps, err := encounters.Values(tr.layout.EpisodeStart)
	if err != nil {
		return nil, errhandling.MissingColumn(tr.layout.EpisodeStart, err)
	}
	starts := make(map[string]time.Time, len(ids))
	for r, id := range ids {
		if id.IsNull() {
			continue
		}
		if _, seen := starts[id.String()]; seen {
			continue
		}
		at, ok := castflags.ParseDatetime(stamps[r].String())
		if !ok {
			at, ok = castflags.ParseDate(stamps[r].String())
		}
		if ok {
			starts[id.String()] = at
		}
	}
	return starts, nil
}
