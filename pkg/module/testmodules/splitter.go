package testmodules

import (
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/module"
)

// Splitter is a config-driven Splitter module: declares one split per
// split_ids param entry at construction time (mirroring the source's
// define_output calling make_split up front), and on CollectOutput wraps
// one synthesized path per declared output key into each split via
// AddOutput.
type Splitter struct {
	*module.SplitterBase
}

// NewSplitter is the module.Constructor registered under "test_splitter".
// Expected params: input_keys, output_keys, split_ids ([]string).
func NewSplitter(moduleID string, params map[string]any) (module.Module, error) {
	s := &Splitter{
		SplitterBase: module.NewSplitterBase(
			moduleID,
			toDataKeySet(stringSliceParam(params, "input_keys")),
			toDataKeySet(stringSliceParam(params, "output_keys")),
			stringSliceParam(params, "tools"),
			stringSliceParam(params, "resources"),
		),
	}
	for _, id := range stringSliceParam(params, "split_ids") {
		if err := s.MakeSplit(id, nil); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Splitter) BuildCommand(input *module.InputBundle) (string, error) {
	return "true", nil
}

func (s *Splitter) CollectOutput(stdout, stderr string) (*module.OutputBundle, error) {
	for splitID := range s.Splits() {
		for key := range s.OutputKeys {
			path := fmt.Sprintf("/work/%s.%s.%s", s.ModuleID, splitID, key)
			if err := s.AddOutput(splitID, string(key), path, true); err != nil {
				return nil, err
			}
		}
	}

	out := module.NewOutputBundle()
	out.Set("splits", s.Splits())
	return out, nil
}
