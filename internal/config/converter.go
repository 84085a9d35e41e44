package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/vpclean/preprocess/internal/castflags"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Settings document keys.
const (
	keyVariables      = "variables"
	keyAgeGroups      = "age_groups"
	keyBirthReference = "birth_reference"
	keyColumns        = "columns"
	keyEpisodes       = "episodes"
)

// Variable rule keys.
const (
	keyAlphaMask          = "alphaMask"
	keyMin                = "min"
	keyMax                = "max"
	keyDropBelow          = "dropBelow"
	keyDropAbove          = "dropAbove"
	keyUnitConversionDict = "unitConversionDict"
	keyImputeDict         = "imputeDict"
	keyEncoding           = "encoding"
	keyInclude            = "include"
	keyAgeDependent       = "age_dependent"
	keyMedian             = "median"
	keyQuartile1          = "quartile_1"
	keyQuartile3          = "quartile_3"
)

var ruleKeys = map[string]bool{
	keyAlphaMask: true, keyMin: true, keyMax: true,
	keyDropBelow: true, keyDropAbove: true,
	keyUnitConversionDict: true, keyImputeDict: true, keyEncoding: true,
	keyInclude: true, keyAgeDependent: true,
	keyMedian: true, keyQuartile1: true, keyQuartile3: true,
}

// ConvertToSettings converts parsed settings data to rules.Settings.
// The data should have been validated against the schema before calling this
// function.
//
// Every rule key is recorded as declared even when its value is null, so
// stages can tell an absent rule from a null one.
func ConvertToSettings(data map[string]interface{}) (*rules.Settings, error) {
	if data == nil {
		return nil, fmt.Errorf("settings data is nil")
	}

	settings := rules.NewSettings()

	if raw, ok := data[keyVariables]; ok && raw != nil {
		varsData, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid '%s' section: expected a mapping, got %T", keyVariables, raw)
		}
		reg, err := convertRegistry(varsData)
		if err != nil {
			return nil, err
		}
		settings.Variables = reg
	}

	if raw, ok := data[keyAgeGroups].(map[string]interface{}); ok {
		groups := make(map[string]float64, len(raw))
		for label, v := range raw {
			years, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("invalid age group %q: expected a number, got %T", label, v)
			}
			groups[label] = years
		}
		settings.AgeGroups = groups
	}

	if raw, ok := data[keyBirthReference]; ok {
		ref, err := convertBirthReference(raw)
		if err != nil {
			return nil, err
		}
		settings.BirthReference = ref
	}

	if raw, ok := data[keyColumns].(map[string]interface{}); ok {
		spec, err := convertColumns(raw)
		if err != nil {
			return nil, err
		}
		settings.Columns = spec
	}

	if raw, ok := data[keyEpisodes]; ok {
		episodes, err := convertEpisodes(raw)
		if err != nil {
			return nil, err
		}
		settings.Episodes = episodes
	}

	return settings, nil
}

func convertRegistry(data map[string]interface{}) (rules.Registry, error) {
	reg := make(rules.Registry, len(data))
	for name, raw := range data {
		if raw == nil {
			reg[name] = nil
			continue
		}
		ruleData, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("variable %q: expected a mapping, got %T", name, raw)
		}
		rule, err := convertVariableRule(ruleData)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		reg[name] = rule
	}
	return reg, nil
}

func convertVariableRule(data map[string]interface{}) (*rules.VariableRule, error) {
	rule := &rules.VariableRule{}
	var err error

	if rule.AlphaMask, err = stringParam(data, keyAlphaMask); err != nil {
		return nil, err
	}
	for key, dst := range map[string]*rules.Param[float64]{
		keyMin:       &rule.Min,
		keyMax:       &rule.Max,
		keyDropBelow: &rule.DropBelow,
		keyDropAbove: &rule.DropAbove,
	} {
		if *dst, err = numberParam(data, key); err != nil {
			return nil, err
		}
	}
	if rule.UnitConversionDict, err = divisorParam(data, keyUnitConversionDict); err != nil {
		return nil, err
	}
	if rule.ImputeDict, err = dictionaryParam(data, keyImputeDict); err != nil {
		return nil, err
	}
	if rule.Encoding, err = dictionaryParam(data, keyEncoding); err != nil {
		return nil, err
	}

	// include marks membership by presence alone.
	_, rule.Include = data[keyInclude]

	if rule.Normalization, err = convertNormalization(data); err != nil {
		return nil, err
	}
	return rule, nil
}

// convertNormalization reads age_dependent and the normalization parameters.
// A variable is normalized when it declares age_dependent or any of the
// fixed parameters.
func convertNormalization(data map[string]interface{}) (*rules.Normalization, error) {
	_, hasFlag := data[keyAgeDependent]
	_, hasMedian := data[keyMedian]
	_, hasQ1 := data[keyQuartile1]
	_, hasQ3 := data[keyQuartile3]
	if !hasFlag && !hasMedian && !hasQ1 && !hasQ3 {
		return nil, nil
	}

	norm := &rules.Normalization{}
	if hasFlag {
		flag, ok := data[keyAgeDependent].(bool)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a boolean, got %T", keyAgeDependent, data[keyAgeDependent])
		}
		norm.AgeDependent = flag
	}

	if norm.AgeDependent {
		norm.ByAgeGroup = make(map[string]rules.NormParams)
		for key, raw := range data {
			if ruleKeys[key] {
				continue
			}
			groupData, ok := raw.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("age group %q: expected a mapping, got %T", key, raw)
			}
			params, err := convertNormParams(groupData)
			if err != nil {
				return nil, fmt.Errorf("age group %q: %w", key, err)
			}
			norm.ByAgeGroup[key] = params
		}
		return norm, nil
	}

	if hasMedian || hasQ1 || hasQ3 {
		params, err := convertNormParams(data)
		if err != nil {
			return nil, err
		}
		norm.Fixed = &params
	}
	return norm, nil
}

func convertNormParams(data map[string]interface{}) (rules.NormParams, error) {
	var params rules.NormParams
	for key, dst := range map[string]*float64{
		keyMedian:    &params.Median,
		keyQuartile1: &params.Quartile1,
		keyQuartile3: &params.Quartile3,
	} {
		v, ok := data[key].(float64)
		if !ok {
			return params, fmt.Errorf("missing or non-numeric '%s'", key)
		}
		*dst = v
	}
	return params, nil
}

func convertBirthReference(raw interface{}) (time.Time, error) {
	s, ok := raw.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid '%s': expected a string, got %T", keyBirthReference, raw)
	}
	if t, ok := castflags.ParseDatetime(s); ok {
		return t, nil
	}
	if t, ok := castflags.ParseDate(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid '%s': %q is not a date or timestamp", keyBirthReference, s)
}

func convertColumns(data map[string]interface{}) (*rules.ColumnSpec, error) {
	spec := &rules.ColumnSpec{}
	if raw, ok := data["include"].([]interface{}); ok {
		for i, v := range raw {
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("columns.include[%d]: expected a string, got %T", i, v)
			}
			spec.Include = append(spec.Include, name)
		}
	}
	if raw, ok := data["renaming"].(map[string]interface{}); ok {
		spec.Renaming = make(map[string]string, len(raw))
		for from, v := range raw {
			to, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("columns.renaming[%q]: expected a string, got %T", from, v)
			}
			spec.Renaming[from] = to
		}
	}
	return spec, nil
}

func convertEpisodes(raw interface{}) (rules.Param[[]string], error) {
	if raw == nil {
		return rules.Null[[]string](), nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return rules.Param[[]string]{}, fmt.Errorf("invalid '%s': expected a list, got %T", keyEpisodes, raw)
	}
	episodes := make([]string, 0, len(list))
	for i, v := range list {
		switch x := v.(type) {
		case string:
			episodes = append(episodes, x)
		case float64:
			episodes = append(episodes, strconv.FormatFloat(x, 'f', -1, 64))
		default:
			return rules.Param[[]string]{}, fmt.Errorf("%s[%d]: expected a string, got %T", keyEpisodes, i, v)
		}
	}
	return rules.Set(episodes), nil
}

func stringParam(data map[string]interface{}, key string) (rules.Param[string], error) {
	raw, ok := data[key]
	switch {
	case !ok:
		return rules.Param[string]{}, nil
	case raw == nil:
		return rules.Null[string](), nil
	}
	s, ok := raw.(string)
	if !ok {
		return rules.Param[string]{}, fmt.Errorf("'%s' must be a string, got %T", key, raw)
	}
	return rules.Set(s), nil
}

func numberParam(data map[string]interface{}, key string) (rules.Param[float64], error) {
	raw, ok := data[key]
	switch {
	case !ok:
		return rules.Param[float64]{}, nil
	case raw == nil:
		return rules.Null[float64](), nil
	}
	f, ok := raw.(float64)
	if !ok {
		return rules.Param[float64]{}, fmt.Errorf("'%s' must be a number, got %T", key, raw)
	}
	return rules.Set(f), nil
}

func divisorParam(data map[string]interface{}, key string) (rules.Param[map[string]float64], error) {
	raw, ok := data[key]
	switch {
	case !ok:
		return rules.Param[map[string]float64]{}, nil
	case raw == nil:
		return rules.Null[map[string]float64](), nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return rules.Param[map[string]float64]{}, fmt.Errorf("'%s' must be a mapping, got %T", key, raw)
	}
	out := make(map[string]float64, len(m))
	for unit, v := range m {
		f, ok := v.(float64)
		if !ok {
			return rules.Param[map[string]float64]{}, fmt.Errorf("%s[%q] must be a number, got %T", key, unit, v)
		}
		out[unit] = f
	}
	return rules.Set(out), nil
}

func dictionaryParam(data map[string]interface{}, key string) (rules.Param[rules.Dictionary], error) {
	raw, ok := data[key]
	switch {
	case !ok:
		return rules.Param[rules.Dictionary]{}, nil
	case raw == nil:
		return rules.Null[rules.Dictionary](), nil
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return rules.Param[rules.Dictionary]{}, fmt.Errorf("'%s' must be a mapping, got %T", key, raw)
	}
	dict := make(rules.Dictionary, len(m))
	for k, v := range m {
		switch x := v.(type) {
		case nil:
			dict[k] = dataset.Null()
		case float64:
			dict[k] = dataset.Number(x)
		case string:
			dict[k] = dataset.Text(x)
		case bool:
			dict[k] = dataset.Text(strconv.FormatBool(x))
		default:
			return rules.Param[rules.Dictionary]{}, fmt.Errorf("%s[%q] has unsupported type %T", key, k, v)
		}
	}
	return rules.Set(dict), nil
}

// SortedVariableNames returns the variable names of a parsed settings
// document in sorted order.
func SortedVariableNames(data map[string]interface{}) []string {
	vars, _ := data[keyVariables].(map[string]interface{})
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
