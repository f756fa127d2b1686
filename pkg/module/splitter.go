package module

import (
	"fmt"
	"sync"

	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// SplitterBase carries the bookkeeping shared by every Splitter module, plus
// the split-management operations (MakeSplit, AddOutput, GetOutput,
// SetOutput) the original Splitter base class provides to subclasses:
// make_split/add_output/get_output/set_output. OutputKeys here names the
// keys valid *within* each split, checked by SetOutput exactly as the
// source's self.output_keys is.
type SplitterBase struct {
	ModuleID   string
	InputKeys  types.DataKeySet
	OutputKeys types.DataKeySet
	Tools      []string
	Resources  []string

	mu     sync.Mutex
	splits types.Split
}

// NewSplitterBase builds a SplitterBase with the given declarations.
func NewSplitterBase(moduleID string, inputKeys, outputKeys types.DataKeySet, tools, resources []string) *SplitterBase {
	return &SplitterBase{
		ModuleID:   moduleID,
		InputKeys:  inputKeys,
		OutputKeys: outputKeys,
		Tools:      tools,
		Resources:  resources,
		splits:     make(types.Split),
	}
}

func (b *SplitterBase) ID() string                          { return b.ModuleID }
func (b *SplitterBase) RequiredInputKeys() types.DataKeySet  { return b.InputKeys }
func (b *SplitterBase) DeclaredOutputKeys() types.DataKeySet { return b.OutputKeys }
func (b *SplitterBase) RequiredTools() []string              { return b.Tools }
func (b *SplitterBase) RequiredResources() []string          { return b.Resources }

// MakeSplit declares a new split with the given id and sample visibility
// (nil means every sample is visible). It fails with ErrDuplicateSplit if
// splitID has already been declared.
func (b *SplitterBase) MakeSplit(splitID string, visibleSamples []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.splits[splitID]; exists {
		return fmt.Errorf("module %q: %w: %q", b.ModuleID, ErrDuplicateSplit, splitID)
	}
	b.splits[splitID] = &types.SplitOutput{
		VisibleSamples: visibleSamples,
		Values:         make(map[string]any),
	}
	return nil
}

// AddOutput records value under key within splitID. If isPath, value (a
// string or a []string) is wrapped into a types.FileRef (or []types.FileRef)
// using file_id = "{module_id}.{split_id}.{key}" for every element, exactly
// matching the source's convert_to_gapfile recursion — a list of paths
// becomes a list of FileRefs sharing that same file_id. Fails with
// ErrUnknownSplit if splitID was never declared, or ErrDuplicateOutputKey if
// key has already been set within that split.
func (b *SplitterBase) AddOutput(splitID, key string, value any, isPath bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	split, ok := b.splits[splitID]
	if !ok {
		return fmt.Errorf("module %q: %w: %q", b.ModuleID, ErrUnknownSplit, splitID)
	}
	if _, exists := split.Values[key]; exists {
		return fmt.Errorf("module %q: %w: split %q key %q", b.ModuleID, ErrDuplicateOutputKey, splitID, key)
	}

	if !isPath || value == nil {
		split.Values[key] = value
		return nil
	}

	wrapped, err := b.convertToFileRef(splitID, key, value)
	if err != nil {
		return fmt.Errorf("module %q: add_output split %q key %q: %w", b.ModuleID, splitID, key, err)
	}
	split.Values[key] = wrapped
	return nil
}

// convertToFileRef recursively wraps value into a types.FileRef, or a
// []types.FileRef if value is a []string, mirroring
// Splitter.convert_to_gapfile's recursion into lists.
func (b *SplitterBase) convertToFileRef(splitID, key string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		fileID := fmt.Sprintf("%s.%s.%s", b.ModuleID, splitID, key)
		return datastore.NewFileRef(fileID, types.DataKey(key), v, nil), nil
	case []string:
		refs := make([]types.FileRef, len(v))
		for i, path := range v {
			wrapped, err := b.convertToFileRef(splitID, key, path)
			if err != nil {
				return nil, err
			}
			refs[i] = wrapped.(types.FileRef)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported path value type %T", value)
	}
}

// GetOutput returns a split's full output map, or a single value within it
// when key is non-empty. Returns ErrUnknownSplit if splitID was never
// declared.
func (b *SplitterBase) GetOutput(splitID, key string) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	split, ok := b.splits[splitID]
	if !ok {
		return nil, fmt.Errorf("module %q: %w: %q", b.ModuleID, ErrUnknownSplit, splitID)
	}
	if key == "" {
		return split.Values, nil
	}
	return split.Values[key], nil
}

// SetOutput overwrites the value stored under key within splitID, without
// the FileRef-wrapping AddOutput performs. Fails with ErrUndeclaredOutputKey
// if key isn't among the module's declared output keys, or ErrUnknownSplit
// if splitID was never declared.
func (b *SplitterBase) SetOutput(splitID, key string, value any) error {
	if !b.OutputKeys.Contains(types.DataKey(key)) {
		return fmt.Errorf("module %q: %w: %q", b.ModuleID, ErrUndeclaredOutputKey, key)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	split, ok := b.splits[splitID]
	if !ok {
		return fmt.Errorf("module %q: %w: %q", b.ModuleID, ErrUnknownSplit, splitID)
	}
	split.Values[key] = value
	return nil
}

// Splits returns the module's full split output, for the graph engine to
// hand downstream modules as their predecessor's contribution.
func (b *SplitterBase) Splits() types.Split {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.splits
}
