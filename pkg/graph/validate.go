package graph

import (
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Validate runs the two unchanged passes from check_nodes: I/O
// compatibility (every node's required input keys must be satisfied by its
// declared upstreams, and every final_output key must be among the node's
// own declared output keys), then tool/resource catalog requirements.
// Every error found is collected rather than returning on the first one,
// and returned together as a *types.ValidationError.
func (e *Engine) Validate() error {
	var errs []error

	for toolID, n := range e.nodes {
		available := e.upstreamKeys(toolID)

		if err := n.CheckInput(available); err != nil {
			e.logger.Error().Str("tool_id", toolID).Str("module", e.moduleNames[toolID]).Err(err).Msg("I/O error")
			errs = append(errs, err)
		}
		if err := n.CheckOutput(e.finalOutput[toolID]); err != nil {
			e.logger.Error().Str("tool_id", toolID).Str("module", e.moduleNames[toolID]).Err(err).Msg("I/O error")
			errs = append(errs, err)
		}
	}

	for toolID, n := range e.nodes {
		missingTools, missingResources := n.CheckRequirements(e.catalogTools, e.catalogRes)
		if len(missingTools) > 0 {
			err := fmt.Errorf("tool %q (module %q): required tool(s) not in catalog: %v", toolID, e.moduleNames[toolID], missingTools)
			e.logger.Error().Err(err).Msg("requirements error")
			errs = append(errs, err)
		}
		if len(missingResources) > 0 {
			err := fmt.Errorf("tool %q (module %q): required resource(s) not in catalog: %v", toolID, e.moduleNames[toolID], missingResources)
			e.logger.Error().Err(err).Msg("requirements error")
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &types.ValidationError{Errors: errs}
	}
	return nil
}

// upstreamKeys returns the union of every DataKey available to toolID: the
// pipeline's main input keys for a "main_input" dependency, or the declared
// output keys of each named predecessor node.
func (e *Engine) upstreamKeys(toolID string) types.DataKeySet {
	available := types.NewDataKeySet()
	for _, dep := range e.requires[toolID] {
		if dep == types.MainInputSentinel {
			available = available.Union(e.pipelineData.MainInputKeys())
			continue
		}
		if upstream, ok := e.nodes[dep]; ok {
			available = available.Union(upstream.DefineOutput())
		}
	}
	return available
}
