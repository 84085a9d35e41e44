// Package registry provides the stage registry for the cleaning engine.
//
// # Overview
//
// Every cleaning step is a named Stage. Stages register themselves by name
// with an order key, and the engine runs the registered stages in ascending
// order. The order keys of the built-in stages encode the fixed cleaning
// order: removals first, then value transforms, then column projection.
//
// # Adding a New Stage
//
// To add a stage (e.g., a "remove_duplicates" removal):
//
//  1. Write a StageFunc that returns a new table
//  2. Pick an Order between the stages it must follow and precede
//  3. Register it in an init() function
//
// Example:
//
//	func init() {
//	    registry.RegisterStage(registry.Stage{
//	        Name:    "remove_duplicates",
//	        Kind:    registry.KindRemove,
//	        Order:   150,
//	        Applies: func(env *registry.Env) bool { return true },
//	        Run:     removeDuplicates,
//	    })
//	}
//
// # Built-in Stages
//
// Built-in stages are registered automatically via init(). Optional stages
// only run when the engine enables them by name.
package registry

import (
	"sort"
	"sync"

	"github.com/vpclean/preprocess/internal/modules/mask"
	"github.com/vpclean/preprocess/internal/modules/transform"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Kind classifies what a stage does to the table.
type Kind string

const (
	// KindRemove stages only drop rows.
	KindRemove Kind = "remove"
	// KindTransform stages rewrite cells and keep the row count.
	KindTransform Kind = "transform"
	// KindProject stages change the column set.
	KindProject Kind = "project"
)

// Env is what a stage can see besides the table it transforms.
type Env struct {
	Settings   *rules.Settings
	Encounters *dataset.Table
	Layout     rules.Layout
	Masks      *mask.Builder
	Transforms *transform.Transformer
}

// StageFunc runs a stage and returns the new table.
type StageFunc func(env *Env, t *dataset.Table) (*dataset.Table, error)

// AppliesFunc reports whether the settings carry any rule the stage acts on.
type AppliesFunc func(env *Env) bool

// Stage is a named, ordered cleaning step.
type Stage struct {
	// Name identifies the stage in logs, reports and skip lists
	Name string
	// Kind classifies the stage
	Kind Kind
	// Order positions the stage. Lower runs first.
	Order int
	// Optional stages run only when enabled by name
	Optional bool
	// Applies reports whether the stage has work to do. Nil means always.
	Applies AppliesFunc
	// Run executes the stage
	Run StageFunc
}

var (
	stageMu       sync.RWMutex
	stageRegistry = make(map[string]Stage)
)

// RegisterStage registers a stage by name. Registering an existing name
// overwrites the previous stage.
//
// This function is safe for concurrent use and is typically called from
// init() functions.
func RegisterStage(s Stage) {
	stageMu.Lock()
	defer stageMu.Unlock()
	stageRegistry[s.Name] = s
}

// GetStage returns the stage registered under name.
func GetStage(name string) (Stage, bool) {
	stageMu.RLock()
	defer stageMu.RUnlock()
	s, ok := stageRegistry[name]
	return s, ok
}

// ListStages returns all registered stages in run order. Stages with equal
// order run by name.
func ListStages() []Stage {
	stageMu.RLock()
	defer stageMu.RUnlock()
	stages := make([]Stage, 0, len(stageRegistry))
	for _, s := range stageRegistry {
		stages = append(stages, s)
	}
	sort.Slice(stages, func(i, j int) bool {
		if stages[i].Order != stages[j].Order {
			return stages[i].Order < stages[j].Order
		}
		return stages[i].Name < stages[j].Name
	})
	return stages
}

// ListStageNames returns the names of all registered stages in run order.
// Useful for documentation and flag validation.
func ListStageNames() []string {
	stages := ListStages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

// ClearRegistries removes all registered stages.
// This is intended for testing purposes only.
func ClearRegistries() {
	stageMu.Lock()
	stageRegistry = make(map[string]Stage)
	stageMu.Unlock()
}
