// Package graph implements the GraphEngine: building the dependency graph
// from config, validating I/O compatibility and catalog requirements, and
// running nodes to completion in dependency order.
package graph

import (
	"time"

	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/log"
	"github.com/cloudconductor/orchestrator/pkg/module"
	"github.com/cloudconductor/orchestrator/pkg/node"
	"github.com/cloudconductor/orchestrator/pkg/processor"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Engine owns the built graph of Nodes and their declared dependencies
// (requires), generalizing the source's NodeManager.
type Engine struct {
	nodes       map[string]*node.Node
	requires    map[string][]string
	finalOutput map[string][]string
	moduleNames map[string]string

	pipelineData datastore.PipelineData
	registry     *module.Registry
	provider     provider.Provider
	limiter      *rate.Limiter
	shape        types.InstanceShape
	catalogTools map[string]struct{}
	catalogRes   map[string]struct{}

	pollInterval time.Duration
	newProcessor func(toolID string) *processor.Processor
	logger       zerolog.Logger
}

// New builds an empty Engine. pipelineData resolves main_input edges,
// registry supplies module constructors, provider/limiter/shape are the
// defaults every node's Processor is created with, and catalogTools/
// catalogRes name what the run environment makes available for the
// requirements validation pass.
func New(pipelineData datastore.PipelineData, registry *module.Registry, p provider.Provider, limiter *rate.Limiter, shape types.InstanceShape, catalogTools, catalogRes []string) *Engine {
	e := &Engine{
		nodes:        make(map[string]*node.Node),
		requires:     make(map[string][]string),
		finalOutput:  make(map[string][]string),
		moduleNames:  make(map[string]string),
		pipelineData: pipelineData,
		registry:     registry,
		provider:     p,
		limiter:      limiter,
		shape:        shape,
		catalogTools: toSet(catalogTools),
		catalogRes:   toSet(catalogRes),
		pollInterval: defaultPollInterval,
		logger:       log.WithComponent("graph"),
	}
	e.newProcessor = func(toolID string) *processor.Processor {
		return processor.New(toolID, e.shape, e.provider, e.limiter)
	}
	return e
}

// WithPollInterval overrides Run's poll interval, for tests that need the
// scheduling logic without defaultPollInterval's real-world wall-clock cost.
func (e *Engine) WithPollInterval(d time.Duration) *Engine {
	e.pollInterval = d
	return e
}

// WithProcessorFactory overrides how Build constructs each node's
// Processor, for tests that need processor timing/SSH-check shrunk via
// processor.WithTiming/WithSSHCheck.
func (e *Engine) WithProcessorFactory(factory func(toolID string) *processor.Processor) *Engine {
	e.newProcessor = factory
	return e
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Node returns the built node for tool_id, for callers (the CLI's "run"
// subcommand, tests) that want to inspect a specific node after Build.
func (e *Engine) Node(toolID string) (*node.Node, bool) {
	n, ok := e.nodes[toolID]
	return n, ok
}

// ToolIDs returns every tool_id in the built graph.
func (e *Engine) ToolIDs() []string {
	ids := make([]string, 0, len(e.nodes))
	for id := range e.nodes {
		ids = append(ids, id)
	}
	return ids
}
