package graph

import (
	"fmt"
	"sort"

	"github.com/cloudconductor/orchestrator/pkg/config"
	"github.com/cloudconductor/orchestrator/pkg/node"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Build walks doc's tools, checks the requires adjacency for cycles before
// constructing anything, then instantiates one Node per tool_id via the
// module Registry — generalizing NodeManager.generate_graph. A cyclic graph
// fails with types.ErrCyclicGraph naming the participating tool_ids before
// any node is built or any processor provisioned, per spec.md §9's explicit
// DAG cycle detection guidance.
func (e *Engine) Build(doc *config.Document) error {
	requires := make(map[string][]string, len(doc.Tools))
	for toolID, spec := range doc.Tools {
		var deps []string
		for _, dep := range spec.InputFrom {
			if dep != types.MainInputSentinel {
				deps = append(deps, dep)
			}
		}
		requires[toolID] = deps
	}

	if cycle := findCycle(requires); len(cycle) > 0 {
		return fmt.Errorf("%w: %v", types.ErrCyclicGraph, cycle)
	}

	for toolID, spec := range doc.Tools {
		mod, err := e.registry.Build(spec.Module, toolID, spec.Params)
		if err != nil {
			return fmt.Errorf("graph: build tool %q: %w", toolID, err)
		}

		proc := e.newProcessor(toolID)
		e.nodes[toolID] = node.New(toolID, mod, proc, spec.FinalOutput)
		e.requires[toolID] = spec.InputFrom
		e.finalOutput[toolID] = spec.FinalOutput
		e.moduleNames[toolID] = spec.Module
	}

	e.logger.Info().Int("tools", len(e.nodes)).Msg("graph built")
	return nil
}

// findCycle runs Kahn's algorithm over requires (tool_id -> its
// dependencies) and returns the tool_ids left with unsatisfied
// dependencies when no more can be peeled off: every node on a cycle, plus
// every node that depends, directly or transitively, on one of them or on a
// tool_id absent from requires. Returns nil if every node can be ordered.
func findCycle(requires map[string][]string) []string {
	inDegree := make(map[string]int, len(requires))
	dependents := make(map[string][]string, len(requires))

	for toolID := range requires {
		if _, ok := inDegree[toolID]; !ok {
			inDegree[toolID] = 0
		}
	}
	for toolID, deps := range requires {
		for _, dep := range deps {
			inDegree[toolID]++
			dependents[dep] = append(dependents[dep], toolID)
		}
	}

	var queue []string
	for toolID, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, toolID)
		}
	}
	sort.Strings(queue)

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		next := append([]string(nil), dependents[id]...)
		sort.Strings(next)
		for _, dependent := range next {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if visited == len(inDegree) {
		return nil
	}

	var remaining []string
	for toolID, degree := range inDegree {
		if degree > 0 {
			remaining = append(remaining, toolID)
		}
	}
	sort.Strings(remaining)
	return remaining
}
