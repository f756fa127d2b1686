// Package testmodules provides small, config-driven Tool, Splitter, and
// Merger implementations used by pkg/graph's scenario tests (and available
// to any caller that wants a module without writing a bespoke Go type).
// None of them run a real remote command — BuildCommand renders a trivial
// shell command and CollectOutput synthesizes FileRefs for the module's
// declared output keys, which is enough to exercise the graph engine's
// scheduling, I/O wiring, and validation without a live Processor.
package testmodules

import (
	"github.com/cloudconductor/orchestrator/pkg/module"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

func init() {
	module.Register("test_tool", NewTool)
	module.Register("test_splitter", NewSplitter)
	module.Register("test_merger", NewMerger)
}

func stringSliceParam(params map[string]any, key string) []string {
	raw, ok := params[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func stringParam(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func toDataKeySet(keys []string) types.DataKeySet {
	set := make(types.DataKeySet, len(keys))
	for _, k := range keys {
		set[types.DataKey(k)] = struct{}{}
	}
	return set
}
