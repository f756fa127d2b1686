// Package module implements the ModuleContract: the capability set every
// pipeline step (Tool, Splitter, or Merger) exposes to the graph engine.
// The core interacts with modules strictly through this interface —
// nothing about a module's internals is otherwise observable.
package module

import (
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Module is the capability contract every pipeline step implements. The
// graph engine never type-switches on a concrete module; it only calls
// these methods, which is what lets Tool, Splitter, and Merger variants
// share one Node implementation.
type Module interface {
	// ID returns the module's tool_id, as declared in config.
	ID() string

	// RequiredInputKeys returns the DataKeys this module's command needs
	// present among its resolved inputs.
	RequiredInputKeys() types.DataKeySet

	// DeclaredOutputKeys returns the DataKeys this module promises to
	// produce.
	DeclaredOutputKeys() types.DataKeySet

	// RequiredTools and RequiredResources name entries this module needs
	// present in the global catalog, for the requirements validation pass.
	RequiredTools() []string
	RequiredResources() []string

	// BuildCommand renders the shell command to run on the bound
	// Processor, given the resolved input bundle.
	BuildCommand(input *InputBundle) (string, error)

	// CollectOutput parses command output (and whatever the module wrote
	// to its working directory) into an OutputBundle once the command has
	// finished successfully.
	CollectOutput(stdout, stderr string) (*OutputBundle, error)
}

// InputBundle is the resolved input handed to a module's BuildCommand: one
// entry per upstream dependency, keyed by the predecessor's tool_id (or
// types.MainInputSentinel), each holding the FileRefs or Split that
// predecessor produced.
type InputBundle struct {
	// Order is the declared input_from order, so modules that care about
	// positional arguments can iterate deterministically.
	Order []string
	// ByPredecessor maps a predecessor id to the value it contributed:
	// []types.FileRef for a Tool/Merger upstream, types.Split for a
	// Splitter upstream.
	ByPredecessor map[string]any
}

// Files returns the FileRefs contributed by predecessor id, for the common
// case of a Tool/Merger module reading a single upstream's plain output.
func (b *InputBundle) Files(id string) []types.FileRef {
	v, ok := b.ByPredecessor[id]
	if !ok {
		return nil
	}
	refs, _ := v.([]types.FileRef)
	return refs
}

// Split returns the Split contributed by predecessor id, for a module
// declaring a Splitter upstream in its input_from.
func (b *InputBundle) Split(id string) types.Split {
	v, ok := b.ByPredecessor[id]
	if !ok {
		return nil
	}
	split, _ := v.(types.Split)
	return split
}

// OutputBundle is a module's produced output: one entry per declared
// output key, either a types.FileRef, a []types.FileRef, or — for
// Splitter-variant modules — a types.Split.
type OutputBundle struct {
	Values map[string]any
}

// NewOutputBundle returns an empty OutputBundle ready for Set.
func NewOutputBundle() *OutputBundle {
	return &OutputBundle{Values: make(map[string]any)}
}

// Set records value under key.
func (b *OutputBundle) Set(key string, value any) {
	b.Values[key] = value
}

// Get returns the value stored under key, and whether it was present.
func (b *OutputBundle) Get(key string) (any, bool) {
	v, ok := b.Values[key]
	return v, ok
}

// Constructor builds a Module instance from its declared id and the
// module-specific parameters decoded from config (config.ToolSpec.Params),
// left opaque to the core per spec.
type Constructor func(moduleID string, params map[string]any) (Module, error)
