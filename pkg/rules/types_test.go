package rules

import (
	"testing"
)

func TestVariableRule_IsNumeric(t *testing.T) {
	tests := []struct {
		name string
		rule *VariableRule
		want bool
	}{
		{name: "min and unit dict", rule: &VariableRule{Min: Set(0.0), UnitConversionDict: Set(map[string]float64{"g": 1})}, want: true},
		{name: "null dropAbove", rule: &VariableRule{DropAbove: Null[float64]()}, want: true},
		{name: "impute only", rule: &VariableRule{ImputeDict: Set(Dictionary{})}, want: false},
		{name: "nil bundle", rule: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.IsNumeric(); got != tt.want {
				t.Errorf("IsNumeric() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParam(t *testing.T) {
	var absent Param[float64]
	if absent.Declared() || absent.IsNull() {
		t.Error("zero Param should be absent")
	}
	null := Null[float64]()
	if !null.Declared() || !null.IsNull() {
		t.Error("Null() should be declared and null")
	}
	if _, ok := null.Get(); ok {
		t.Error("Null().Get() should report no value")
	}
	v, ok := Set(1.5).Get()
	if !ok || v != 1.5 {
		t.Errorf("Set(1.5).Get() = %v, %v", v, ok)
	}
}

func TestNormParams_Score(t *testing.T) {
	p := NormParams{Median: 136, Quartile1: 119, Quartile3: 152}
	if got := p.Score(103); got != -2.0 {
		t.Errorf("Score(103) = %v, want -2.0", got)
	}
	flat := NormParams{Median: 5, Quartile1: 5, Quartile3: 5}
	if got := flat.Score(7); got != 2 {
		t.Errorf("zero spread Score(7) = %v, want 2", got)
	}
}

func TestLookupWithDefault(t *testing.T) {
	m := map[string]float64{"mg": 1000}
	if got := LookupWithDefault(m, "mg", 1); got != 1000 {
		t.Errorf("mapped = %v", got)
	}
	if got := LookupWithDefault(m, "kg", 1); got != 1 {
		t.Errorf("unmapped = %v", got)
	}
	if got := LookupWithDefault[string, float64](nil, "kg", 1); got != 1 {
		t.Errorf("nil map = %v", got)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := Registry{"b": nil, "a": {Include: true}}
	names := r.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
}
