package testmodules

import (
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/module"
)

// Tool is a config-driven ordinary module: declares input/output keys,
// tools, and resources from params, runs Command (or "true" if unset), and
// synthesizes one FileRef per declared output key.
type Tool struct {
	*module.ToolBase
	Command string
}

// NewTool is the module.Constructor registered under "test_tool". Expected
// params: input_keys, output_keys, tools, resources ([]string), command
// (string).
func NewTool(moduleID string, params map[string]any) (module.Module, error) {
	return &Tool{
		ToolBase: module.NewToolBase(
			moduleID,
			toDataKeySet(stringSliceParam(params, "input_keys")),
			toDataKeySet(stringSliceParam(params, "output_keys")),
			stringSliceParam(params, "tools"),
			stringSliceParam(params, "resources"),
		),
		Command: stringParam(params, "command", "true"),
	}, nil
}

func (t *Tool) BuildCommand(input *module.InputBundle) (string, error) {
	return t.Command, nil
}

func (t *Tool) CollectOutput(stdout, stderr string) (*module.OutputBundle, error) {
	out := module.NewOutputBundle()
	for key := range t.OutputKeys {
		fileID := fmt.Sprintf("%s.%s", t.ModuleID, key)
		out.Set(string(key), datastore.NewFileRef(fileID, key, "/work/"+fileID, nil))
	}
	return out, nil
}
