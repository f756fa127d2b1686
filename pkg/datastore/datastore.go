// Package datastore implements the file-datastore and pipeline-data
// collaborators: the FileRef constructor referenced by Splitter-variant
// output wrapping, and the interface the graph engine uses to resolve
// main_input edges.
package datastore

import (
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// NewFileRef constructs an immutable FileRef. aux carries module-specific
// attributes opaque to the core (e.g. sample name, read group).
func NewFileRef(fileID string, fileType types.DataKey, path string, aux map[string]any) types.FileRef {
	return types.FileRef{
		FileID:   fileID,
		FileType: fileType,
		Path:     path,
		Aux:      aux,
	}
}

// PipelineData is the collaborator the graph engine consults to resolve
// main_input edges. It is invoked only by the engine, never by modules
// directly.
type PipelineData interface {
	// MainInputKeys returns the set of DataKeys the pipeline's initial
	// inputs satisfy, used by the I/O compatibility check.
	MainInputKeys() types.DataKeySet

	// MainInputFiles returns the FileRefs bound to main_input, in the
	// order a node declaring main_input in its input_from should see them.
	MainInputFiles() []types.FileRef
}

// StaticPipelineData is a PipelineData backed by a fixed manifest resolved
// once at startup, the common case for a batch pipeline invocation whose
// initial inputs are a fixed set of files named on the command line or in
// the config document.
type StaticPipelineData struct {
	keys  types.DataKeySet
	files []types.FileRef
}

// NewStaticPipelineData builds a StaticPipelineData from a manifest mapping
// DataKeys to the FileRefs that satisfy them. Keys appear in files in
// manifest iteration order is not guaranteed; callers that care about order
// should use NewStaticPipelineDataOrdered.
func NewStaticPipelineData(manifest map[types.DataKey][]types.FileRef) *StaticPipelineData {
	keys := make(types.DataKeySet, len(manifest))
	var files []types.FileRef
	for key, refs := range manifest {
		keys[key] = struct{}{}
		files = append(files, refs...)
	}
	return &StaticPipelineData{keys: keys, files: files}
}

// NewStaticPipelineDataOrdered builds a StaticPipelineData from an ordered
// list of (key, FileRef) pairs, preserving the given order in
// MainInputFiles.
func NewStaticPipelineDataOrdered(pairs []KeyedFile) *StaticPipelineData {
	keys := make(types.DataKeySet, len(pairs))
	files := make([]types.FileRef, 0, len(pairs))
	for _, p := range pairs {
		keys[p.Key] = struct{}{}
		files = append(files, p.File)
	}
	return &StaticPipelineData{keys: keys, files: files}
}

// KeyedFile pairs a FileRef with the DataKey it satisfies, for callers that
// need to preserve declaration order when building a StaticPipelineData.
type KeyedFile struct {
	Key  types.DataKey
	File types.FileRef
}

func (d *StaticPipelineData) MainInputKeys() types.DataKeySet {
	return d.keys
}

func (d *StaticPipelineData) MainInputFiles() []types.FileRef {
	return d.files
}

// String returns a human-readable summary, useful in "graph" CLI output.
func (d *StaticPipelineData) String() string {
	return fmt.Sprintf("StaticPipelineData(%d keys, %d files)", len(d.keys), len(d.files))
}
