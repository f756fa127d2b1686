package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/module"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// defaultPollInterval matches NodeManager.run's "sleep 5 seconds before
// checking again".
const defaultPollInterval = 5 * time.Second

// Run drives every built node to completion, in an unchanged translation of
// NodeManager.run: each iteration, a not-yet-completed node is finalized if
// finished, started if its dependencies are all complete and it isn't
// already running, or left alone otherwise; the loop exits once every node
// has been finalized. Returns the first finalized failure encountered, if
// any, after every node has been drained — peers not depending on the
// failing node still run to completion, per S5.
func (e *Engine) Run(ctx context.Context) error {
	completed := make(map[string]bool, len(e.nodes))
	var firstFailure error

	for len(completed) < len(e.nodes) {
		for toolID, n := range e.nodes {
			if completed[toolID] {
				continue
			}

			if n.Finished() {
				if err := n.Finalize(); err != nil {
					e.logger.Error().Str("tool_id", toolID).Err(err).Msg("node finished with failure")
					if firstFailure == nil {
						firstFailure = err
					}
				} else {
					e.logger.Info().Str("tool_id", toolID).Msg("node finished")
				}
				completed[toolID] = true
				continue
			}

			if n.IsAlive() {
				continue
			}

			if !e.dependenciesComplete(toolID, completed) {
				continue
			}

			input := e.resolveInput(toolID)
			n.SetInput(input)
			n.Start()
			e.logger.Info().Str("tool_id", toolID).Msg("node started")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}

	return firstFailure
}

func (e *Engine) dependenciesComplete(toolID string, completed map[string]bool) bool {
	for _, dep := range e.requires[toolID] {
		if dep != types.MainInputSentinel && !completed[dep] {
			return false
		}
	}
	return true
}

// resolveInput builds the InputBundle for toolID from its already-completed
// upstreams, substituting the pipeline's main input for a "main_input"
// dependency.
func (e *Engine) resolveInput(toolID string) *module.InputBundle {
	bundle := &module.InputBundle{
		Order:         append([]string(nil), e.requires[toolID]...),
		ByPredecessor: make(map[string]any, len(e.requires[toolID])),
	}
	for _, dep := range e.requires[toolID] {
		if dep == types.MainInputSentinel {
			bundle.ByPredecessor[dep] = e.pipelineData.MainInputFiles()
			continue
		}
		if upstream, ok := e.nodes[dep]; ok {
			bundle.ByPredecessor[dep] = upstream.GetOutput()
		}
	}
	return bundle
}

// RunResultSummary renders a short, human-readable line per finished node's
// outcome — used by the CLI's "run" subcommand after Run returns.
func RunResultSummary(toolID string, err error) string {
	if err != nil {
		return fmt.Sprintf("%s: failed: %v", toolID, err)
	}
	return fmt.Sprintf("%s: ok", toolID)
}
