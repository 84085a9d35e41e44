package registry

import (
	"reflect"
	"testing"

	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

func TestRegisterStage(t *testing.T) {
	ClearRegistries()
	defer func() {
		ClearRegistries()
		RegisterBuiltins()
	}()

	called := false
	RegisterStage(Stage{
		Name: "testStage",
		Kind: KindTransform,
		Run: func(env *Env, tbl *dataset.Table) (*dataset.Table, error) {
			called = true
			return tbl, nil
		},
	})

	got, ok := GetStage("testStage")
	if !ok {
		t.Fatal("expected stage, got none")
	}
	_, _ = got.Run(nil, nil)
	if !called {
		t.Error("stage was not called")
	}

	if _, ok := GetStage("unknown"); ok {
		t.Error("expected no stage for unknown name")
	}
}

func TestListStages_Order(t *testing.T) {
	ClearRegistries()
	defer func() {
		ClearRegistries()
		RegisterBuiltins()
	}()

	RegisterStage(Stage{Name: "c", Order: 2})
	RegisterStage(Stage{Name: "b", Order: 1})
	RegisterStage(Stage{Name: "a", Order: 2})

	want := []string{"b", "a", "c"}
	if got := ListStageNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("ListStageNames() = %v, want %v", got, want)
	}
}

func TestBuiltins_Order(t *testing.T) {
	want := []string{
		StageTrimVariableNames,
		StageRemoveEpisodes,
		StageRemoveUnlisted,
		StageRemoveNull,
		StageRemoveAlpha,
		StageRemoveNonNumeric,
		StageRemoveExtreme,
		StageConvertUnits,
		StageRemoveUnmappedText,
		StageApplyDictionaries,
		StageStripStrayCharacters,
		StageClip,
		StageAgeNormalize,
		StageProjectColumns,
	}
	if got := ListStageNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("built-in order = %v, want %v", got, want)
	}
}

func TestBuiltins_Applies(t *testing.T) {
	env := &Env{Settings: &rules.Settings{
		Variables: rules.Registry{
			"A": {Min: rules.Null[float64]()},
			"B": nil,
		},
	}}

	tests := []struct {
		stage string
		want  bool
	}{
		{StageClip, true},
		{StageRemoveNonNumeric, true},
		{StageStripStrayCharacters, true},
		{StageRemoveAlpha, false},
		{StageRemoveExtreme, false},
		{StageApplyDictionaries, false},
		{StageAgeNormalize, false},
		{StageRemoveEpisodes, false},
		{StageProjectColumns, false},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			s, ok := GetStage(tt.stage)
			if !ok {
				t.Fatalf("stage %q not registered", tt.stage)
			}
			if got := s.Applies(env); got != tt.want {
				t.Errorf("Applies() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuiltins_Optional(t *testing.T) {
	optional := map[string]bool{
		StageTrimVariableNames:  true,
		StageRemoveUnlisted:     true,
		StageRemoveUnmappedText: true,
	}
	for _, s := range ListStages() {
		if s.Optional != optional[s.Name] {
			t.Errorf("stage %q Optional = %v, want %v", s.Name, s.Optional, optional[s.Name])
		}
	}
}
