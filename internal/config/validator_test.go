package config

import (
	"strings"
	"testing"
)

func TestValidateConfig_Valid(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
	}{
		{"empty document", map[string]interface{}{}},
		{"null variables", map[string]interface{}{"variables": nil}},
		{"null bundle", map[string]interface{}{"variables": map[string]interface{}{"HR": nil}}},
		{"null rule values", map[string]interface{}{"variables": map[string]interface{}{
			"HR": map[string]interface{}{"min": nil, "max": nil, "encoding": nil, "alphaMask": nil},
		}}},
		{"age group parameters", map[string]interface{}{"variables": map[string]interface{}{
			"HR": map[string]interface{}{
				"age_dependent": true,
				"0-1 year":      map[string]interface{}{"median": 1.0, "quartile_1": 0.0, "quartile_3": 2.0},
			},
		}}},
		{"numeric episodes", map[string]interface{}{"episodes": []interface{}{21.0, "3_1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(tt.data)
			if !result.Valid {
				t.Errorf("expected valid settings, got errors: %v", result.Errors)
			}
		})
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		data     map[string]interface{}
		wantPath string
		wantType string
	}{
		{
			name:     "non-numeric bound",
			data:     map[string]interface{}{"variables": map[string]interface{}{"HR": map[string]interface{}{"max": "high"}}},
			wantPath: "/variables/HR/max",
			wantType: "type",
		},
		{
			name:     "unknown top-level section",
			data:     map[string]interface{}{"filters": []interface{}{}},
			wantPath: "/",
			wantType: "additionalProperties",
		},
		{
			name: "incomplete age group",
			data: map[string]interface{}{"variables": map[string]interface{}{
				"HR": map[string]interface{}{"0-1 year": map[string]interface{}{"median": 1.0}},
			}},
			wantPath: "/variables/HR/0-1 year",
			wantType: "required",
		},
		{
			name:     "non-numeric divisor",
			data:     map[string]interface{}{"variables": map[string]interface{}{"W": map[string]interface{}{"unitConversionDict": map[string]interface{}{"g": "1000"}}}},
			wantPath: "/variables/W/unitConversionDict/g",
			wantType: "type",
		},
		{
			name:     "negative age cutoff",
			data:     map[string]interface{}{"age_groups": map[string]interface{}{"baby": -1.0}},
			wantPath: "/age_groups/baby",
			wantType: "minimum",
		},
		{
			name:     "column list of numbers",
			data:     map[string]interface{}{"columns": map[string]interface{}{"include": []interface{}{1.0}}},
			wantPath: "/columns/include/0",
			wantType: "type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateConfig(tt.data)
			if result.Valid {
				t.Fatal("expected validation to fail")
			}
			found := false
			for _, e := range result.Errors {
				if e.Path == tt.wantPath && e.Type == tt.wantType {
					found = true
				}
				if e.Message == "" {
					t.Errorf("error at %s has an empty message", e.Path)
				}
			}
			if !found {
				t.Errorf("expected %s error at %s, got %v", tt.wantType, tt.wantPath, result.Errors)
			}
		})
	}
}

func TestValidateConfig_NilData(t *testing.T) {
	result := ValidateConfig(nil)
	if result.Valid {
		t.Fatal("expected nil data to be invalid")
	}
	if result.Errors[0].Type != "required" {
		t.Errorf("expected required error, got %q", result.Errors[0].Type)
	}
}

func TestGetEmbeddedSchema(t *testing.T) {
	schema := GetEmbeddedSchema()
	if len(schema) == 0 {
		t.Fatal("expected embedded schema")
	}
	if !strings.Contains(string(schema), schemaURL) {
		t.Error("embedded schema does not declare its $id")
	}
	if _, err := getCompiledSchema(); err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}
}
