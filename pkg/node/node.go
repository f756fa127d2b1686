// Package node implements Node: the scheduling unit the graph engine
// manages, pairing one Module with the Processor that runs its command.
package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudconductor/orchestrator/pkg/log"
	"github.com/cloudconductor/orchestrator/pkg/module"
	"github.com/cloudconductor/orchestrator/pkg/processor"
	"github.com/cloudconductor/orchestrator/pkg/task"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Node pairs one Module with one Processor and embeds *task.Worker for its
// background execution, exactly matching the source's Node: a thin wrapper
// that gives NodeManager a uniform start/is_alive/finished/finalize surface
// over whatever the module's command actually does.
type Node struct {
	*task.Worker

	ID              string
	Module          module.Module
	Processor       *processor.Processor
	FinalOutputKeys []string

	mu      sync.Mutex
	input   *module.InputBundle
	output  *module.OutputBundle
	started bool
}

// New builds a Node. finalOutputKeys is the config entry's final_output
// list for this tool_id; it may be empty for an intermediate node.
func New(id string, mod module.Module, proc *processor.Processor, finalOutputKeys []string) *Node {
	return &Node{
		Worker:          task.NewWorker(fmt.Sprintf("node %q (module %q) failed", id, mod.ID())),
		ID:              id,
		Module:          mod,
		Processor:       proc,
		FinalOutputKeys: finalOutputKeys,
	}
}

// DefineOutput returns the module's declared output keys.
func (n *Node) DefineOutput() types.DataKeySet {
	return n.Module.DeclaredOutputKeys()
}

// CheckInput reports an error naming every required input key missing from
// available, the upstream-declared keys this node would actually receive.
func (n *Node) CheckInput(available types.DataKeySet) error {
	missing := available.Missing(n.Module.RequiredInputKeys())
	if len(missing) > 0 {
		return fmt.Errorf("tool %q (module %q): missing required input key(s): %v", n.ID, n.Module.ID(), missing)
	}
	return nil
}

// CheckOutput reports an error naming every entry in this node's
// final_output that the module does not declare producing.
func (n *Node) CheckOutput(finalOutputKeys []string) error {
	declared := n.Module.DeclaredOutputKeys()
	var missing []string
	for _, key := range finalOutputKeys {
		if !declared.Contains(types.DataKey(key)) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tool %q (module %q): final_output names undeclared key(s): %v", n.ID, n.Module.ID(), missing)
	}
	return nil
}

// CheckRequirements reports every tool/resource this node's module requires
// that is absent from the corresponding catalog.
func (n *Node) CheckRequirements(availableTools, availableResources map[string]struct{}) (missingTools, missingResources []string) {
	for _, t := range n.Module.RequiredTools() {
		if _, ok := availableTools[t]; !ok {
			missingTools = append(missingTools, t)
		}
	}
	for _, r := range n.Module.RequiredResources() {
		if _, ok := availableResources[r]; !ok {
			missingResources = append(missingResources, r)
		}
	}
	return missingTools, missingResources
}

// SetInput binds the resolved input this node's command will run against.
// Must be called before Start.
func (n *Node) SetInput(input *module.InputBundle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.input = input
}

// Start launches the node's work on a background goroutine. It must be
// called at most once, after SetInput.
func (n *Node) Start() {
	n.mu.Lock()
	n.started = true
	n.mu.Unlock()
	n.Worker.Start(n.work)
}

// IsAlive reports whether the node has started but not yet finished.
func (n *Node) IsAlive() bool {
	n.mu.Lock()
	started := n.started
	n.mu.Unlock()
	return started && !n.Worker.IsDone()
}

// Finished reports whether the node's worker has returned.
func (n *Node) Finished() bool {
	return n.Worker.IsDone()
}

// Finalize blocks until the node has finished and returns its failure, if
// any, wrapped as a *types.WorkerFailure naming this node's tool_id and
// module.
func (n *Node) Finalize() error {
	if err := n.Worker.Finalize(); err != nil {
		return &types.WorkerFailure{ToolID: n.ID, Module: n.Module.ID(), Cause: err}
	}
	return nil
}

// GetOutput returns this node's produced output in the shape a downstream
// node's InputBundle expects: a types.Split if the module populated one
// under the well-known "splits" key (a Splitter-variant module), otherwise
// every FileRef/[]FileRef value flattened into a single []types.FileRef.
func (n *Node) GetOutput() any {
	n.mu.Lock()
	output := n.output
	n.mu.Unlock()
	if output == nil {
		return nil
	}

	if v, ok := output.Get("splits"); ok {
		if split, ok := v.(types.Split); ok {
			return split
		}
	}

	var files []types.FileRef
	for _, v := range output.Values {
		switch val := v.(type) {
		case types.FileRef:
			files = append(files, val)
		case []types.FileRef:
			files = append(files, val...)
		}
	}
	return files
}

// work is the node's execution body: create the processor, build and run
// the module's command, collect its output, and tear the processor down —
// matching §4.3's create -> build_command -> run/wait -> collect -> destroy.
func (n *Node) work() error {
	ctx := context.Background()
	logger := log.WithToolID(n.ID).With().Str("module", n.Module.ID()).Logger()

	if err := n.Processor.Create(ctx); err != nil {
		return fmt.Errorf("create processor: %w", err)
	}

	output, runErr := n.runCommand(ctx)

	if err := n.Processor.Destroy(ctx, true); err != nil {
		logger.Error().Err(err).Msg("failed to destroy processor after run")
	}

	if runErr != nil {
		return runErr
	}

	n.mu.Lock()
	n.output = output
	n.mu.Unlock()
	logger.Info().Msg("node finished")
	return nil
}

func (n *Node) runCommand(ctx context.Context) (*module.OutputBundle, error) {
	n.mu.Lock()
	input := n.input
	n.mu.Unlock()

	cmd, err := n.Module.BuildCommand(input)
	if err != nil {
		return nil, fmt.Errorf("build command: %w", err)
	}

	if _, err := n.Processor.Run(ctx, n.ID, cmd, processor.DefaultNumCmdRetries, false); err != nil {
		return nil, fmt.Errorf("submit command: %w", err)
	}
	stdout, err := n.Processor.WaitProcess(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("run command: %w", err)
	}

	output, err := n.Module.CollectOutput(stdout, "")
	if err != nil {
		return nil, fmt.Errorf("collect output: %w", err)
	}
	return output, nil
}
