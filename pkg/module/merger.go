package module

import "github.com/cloudconductor/orchestrator/pkg/types"

// MergerBase carries the bookkeeping shared by every Merger module: a
// Merger differs from a Tool only in that its input_from typically names
// more than one predecessor and at least one of them may be a Splitter
// (see pkg/graph's I/O compatibility pass), but the declared-keys
// bookkeeping is identical. It is kept as its own type, rather than a type
// alias for ToolBase, so the three variants stay distinguishable in the
// Registry and in error messages.
type MergerBase struct {
	ModuleID   string
	InputKeys  types.DataKeySet
	OutputKeys types.DataKeySet
	Tools      []string
	Resources  []string
}

// NewMergerBase builds a MergerBase with the given declarations.
func NewMergerBase(moduleID string, inputKeys, outputKeys types.DataKeySet, tools, resources []string) *MergerBase {
	return &MergerBase{
		ModuleID:   moduleID,
		InputKeys:  inputKeys,
		OutputKeys: outputKeys,
		Tools:      tools,
		Resources:  resources,
	}
}

func (b *MergerBase) ID() string                          { return b.ModuleID }
func (b *MergerBase) RequiredInputKeys() types.DataKeySet  { return b.InputKeys }
func (b *MergerBase) DeclaredOutputKeys() types.DataKeySet { return b.OutputKeys }
func (b *MergerBase) RequiredTools() []string              { return b.Tools }
func (b *MergerBase) RequiredResources() []string          { return b.Resources }
