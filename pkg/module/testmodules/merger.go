package testmodules

import (
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/module"
)

// Merger is a config-driven Merger module: its BuildCommand ignores the
// input bundle its predecessors contributed (Files or Split alike) and runs
// "true", and CollectOutput synthesizes one FileRef per declared output
// key. It is started exactly once regardless of
// how many predecessors it merges — matching Testable Property / S6's "M's
// start is called once and produces one output bundle".
type Merger struct {
	*module.MergerBase
}

// NewMerger is the module.Constructor registered under "test_merger".
// Expected params: input_keys, output_keys ([]string).
func NewMerger(moduleID string, params map[string]any) (module.Module, error) {
	return &Merger{
		MergerBase: module.NewMergerBase(
			moduleID,
			toDataKeySet(stringSliceParam(params, "input_keys")),
			toDataKeySet(stringSliceParam(params, "output_keys")),
			stringSliceParam(params, "tools"),
			stringSliceParam(params, "resources"),
		),
	}, nil
}

func (m *Merger) BuildCommand(input *module.InputBundle) (string, error) {
	return "true", nil
}

func (m *Merger) CollectOutput(stdout, stderr string) (*module.OutputBundle, error) {
	out := module.NewOutputBundle()
	for key := range m.OutputKeys {
		fileID := fmt.Sprintf("%s.%s", m.ModuleID, key)
		out.Set(string(key), datastore.NewFileRef(fileID, key, "/work/"+fileID, nil))
	}
	return out, nil
}
