// Package registry provides the stage registry for the cleaning engine.
// This file registers all built-in stages during initialization.
package registry

import (
	"github.com/vpclean/preprocess/internal/modules/columns"
	"github.com/vpclean/preprocess/internal/modules/transform"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Built-in stage names.
const (
	StageTrimVariableNames    = "trim_variable_names"
	StageRemoveEpisodes       = "remove_episodes"
	StageRemoveUnlisted       = "remove_unlisted_variables"
	StageRemoveNull           = "remove_null"
	StageRemoveAlpha          = "remove_alpha"
	StageRemoveNonNumeric     = "remove_nonnumeric"
	StageRemoveExtreme        = "remove_extreme"
	StageConvertUnits         = "convert_units"
	StageRemoveUnmappedText   = "remove_unmapped_text"
	StageApplyDictionaries    = "apply_dictionaries"
	StageStripStrayCharacters = "strip_stray_characters"
	StageClip                 = "clip"
	StageAgeNormalize         = "age_normalize"
	StageProjectColumns       = "project_columns"
)

func init() {
	RegisterBuiltins()
}

// RegisterBuiltins registers every built-in stage. It is called from init and
// may be called again after ClearRegistries.
func RegisterBuiltins() {
	registerBuiltinRemovalStages()
	registerBuiltinTransformStages()
	registerBuiltinProjectionStages()
}

func registerBuiltinRemovalStages() {
	RegisterStage(Stage{
		Name:     StageTrimVariableNames,
		Kind:     KindTransform,
		Order:    10,
		Optional: true,
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return env.Transforms.TrimVariableNames(t)
		},
	})

	RegisterStage(Stage{
		Name:  StageRemoveEpisodes,
		Kind:  KindRemove,
		Order: 20,
		Applies: func(env *Env) bool {
			return env.Settings.Episodes.Declared()
		},
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.Episodes(t, env.Settings)
		}),
	})

	RegisterStage(Stage{
		Name:     StageRemoveUnlisted,
		Kind:     KindRemove,
		Order:    30,
		Optional: true,
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.Membership(t, env.Settings.Variables)
		}),
	})

	RegisterStage(Stage{
		Name:  StageRemoveNull,
		Kind:  KindRemove,
		Order: 100,
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.Null(t, env.Layout.Value)
		}),
	})

	RegisterStage(Stage{
		Name:  StageRemoveAlpha,
		Kind:  KindRemove,
		Order: 200,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			_, ok := r.AlphaMask.Get()
			return ok
		}),
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.Alpha(t, env.Settings.Variables)
		}),
	})

	RegisterStage(Stage{
		Name:    StageRemoveNonNumeric,
		Kind:    KindRemove,
		Order:   300,
		Applies: anyRule((*rules.VariableRule).IsNumeric),
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.NonNumeric(t, env.Settings.Variables)
		}),
	})

	RegisterStage(Stage{
		Name:  StageRemoveExtreme,
		Kind:  KindRemove,
		Order: 400,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			return r.DropBelow.Declared() || r.DropAbove.Declared()
		}),
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.Extreme(t, env.Settings.Variables)
		}),
	})

	RegisterStage(Stage{
		Name:     StageRemoveUnmappedText,
		Kind:     KindRemove,
		Order:    550,
		Optional: true,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			_, ok := r.Encoding.Get()
			return ok
		}),
		Run: remove(func(env *Env, t *dataset.Table) (dataset.Mask, error) {
			return env.Masks.UnmappedText(t, env.Settings.Variables)
		}),
	})
}

func registerBuiltinTransformStages() {
	RegisterStage(Stage{
		Name:  StageConvertUnits,
		Kind:  KindTransform,
		Order: 500,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			return r.UnitConversionDict.Declared()
		}),
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return env.Transforms.ConvertUnits(t, env.Settings.Variables)
		},
	})

	RegisterStage(Stage{
		Name:  StageApplyDictionaries,
		Kind:  KindTransform,
		Order: 600,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			return r.ImputeDict.Declared() || r.Encoding.Declared()
		}),
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			imputed, err := env.Transforms.ApplyDictionary(t, env.Settings.Variables, transform.FieldImputeDict)
			if err != nil {
				return nil, err
			}
			return env.Transforms.ApplyDictionary(imputed, env.Settings.Variables, transform.FieldEncoding)
		},
	})

	RegisterStage(Stage{
		Name:    StageStripStrayCharacters,
		Kind:    KindTransform,
		Order:   700,
		Applies: anyRule((*rules.VariableRule).IsNumeric),
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return env.Transforms.StripStrayCharacters(t, env.Settings.Variables)
		},
	})

	RegisterStage(Stage{
		Name:  StageClip,
		Kind:  KindTransform,
		Order: 800,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			return r.Min.Declared() || r.Max.Declared()
		}),
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return env.Transforms.Clip(t, env.Settings.Variables)
		},
	})

	RegisterStage(Stage{
		Name:  StageAgeNormalize,
		Kind:  KindTransform,
		Order: 900,
		Applies: anyRule(func(r *rules.VariableRule) bool {
			return r.Normalization != nil
		}),
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return env.Transforms.AgeNormalize(t, env.Settings, env.Encounters)
		},
	})
}

func registerBuiltinProjectionStages() {
	RegisterStage(Stage{
		Name:  StageProjectColumns,
		Kind:  KindProject,
		Order: 1000,
		Applies: func(env *Env) bool {
			return env.Settings.Columns != nil
		},
		Run: func(env *Env, t *dataset.Table) (*dataset.Table, error) {
			return columns.Project(t, env.Settings.Columns)
		},
	})
}

// remove adapts a mask function into a stage that drops the marked rows.
func remove(build func(env *Env, t *dataset.Table) (dataset.Mask, error)) StageFunc {
	return func(env *Env, t *dataset.Table) (*dataset.Table, error) {
		m, err := build(env, t)
		if err != nil {
			return nil, err
		}
		return t.Drop(m)
	}
}

// anyRule reports whether some declared variable has a non-nil bundle
// satisfying pred.
func anyRule(pred func(*rules.VariableRule) bool) AppliesFunc {
	return func(env *Env) bool {
		for _, rule := range env.Settings.Variables {
			if rule != nil && pred(rule) {
				return true
			}
		}
		return false
	}
}
