package module

import "github.com/cloudconductor/orchestrator/pkg/types"

// ToolBase carries the bookkeeping shared by every ordinary Tool module:
// its id and declared input/output keys and catalog requirements. A
// concrete Tool embeds *ToolBase and supplies BuildCommand and
// CollectOutput itself — Go has no abstract methods, so the "must
// implement" obligation the source enforces at instantiation (define_input/
// define_output/define_command) is enforced here at compile time: a type
// embedding ToolBase without its own BuildCommand/CollectOutput simply
// fails to satisfy Module.
type ToolBase struct {
	ModuleID   string
	InputKeys  types.DataKeySet
	OutputKeys types.DataKeySet
	Tools      []string
	Resources  []string
}

// NewToolBase builds a ToolBase with the given declarations.
func NewToolBase(moduleID string, inputKeys, outputKeys types.DataKeySet, tools, resources []string) *ToolBase {
	return &ToolBase{
		ModuleID:   moduleID,
		InputKeys:  inputKeys,
		OutputKeys: outputKeys,
		Tools:      tools,
		Resources:  resources,
	}
}

func (b *ToolBase) ID() string                            { return b.ModuleID }
func (b *ToolBase) RequiredInputKeys() types.DataKeySet    { return b.InputKeys }
func (b *ToolBase) DeclaredOutputKeys() types.DataKeySet   { return b.OutputKeys }
func (b *ToolBase) RequiredTools() []string                { return b.Tools }
func (b *ToolBase) RequiredResources() []string             { return b.Resources }
