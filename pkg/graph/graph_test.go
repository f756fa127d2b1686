package graph

import (
	"context"
	"testing"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/config"
	"github.com/cloudconductor/orchestrator/pkg/datastore"
	"github.com/cloudconductor/orchestrator/pkg/module"
	_ "github.com/cloudconductor/orchestrator/pkg/module/testmodules"
	"github.com/cloudconductor/orchestrator/pkg/processor"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestEngine(t *testing.T, pd datastore.PipelineData, catalogTools, catalogRes []string) (*Engine, *provider.FakeProvider) {
	t.Helper()
	fp := provider.NewFakeProvider()
	e := New(pd, module.Global(), fp, rate.NewLimiter(rate.Inf, 1), types.InstanceShape{}, catalogTools, catalogRes)
	e.WithPollInterval(5 * time.Millisecond)
	e.WithProcessorFactory(func(toolID string) *processor.Processor {
		p := processor.New(toolID, types.InstanceShape{}, fp, rate.NewLimiter(rate.Inf, 1))
		p.WithTiming(2, time.Millisecond, time.Millisecond, time.Millisecond)
		p.WithSSHCheck(func(ctx context.Context, ip string) bool { return true })
		return p
	})
	return e, fp
}

func runWithDeadline(t *testing.T, e *Engine) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return e.Run(ctx)
}

// S1 — linear chain: A (main_input -> x), B (A -> y, final_output={y}).
func TestScenario_S1_LinearChain(t *testing.T) {
	const doc = `
tools:
  A:
    module: test_tool
    input_from: [main_input]
    final_output: []
    params:
      input_keys: [raw]
      output_keys: [x]
  B:
    module: test_tool
    input_from: [A]
    final_output: [y]
    params:
      input_keys: [x]
      output_keys: [y]
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, _ := newTestEngine(t, pd, nil, nil)

	require.NoError(t, e.Build(cfg))
	require.NoError(t, e.Validate())
	require.NoError(t, runWithDeadline(t, e))

	b, _ := e.Node("B")
	out, ok := b.GetOutput().([]types.FileRef)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "B.y", out[0].FileID)
}

// S2 — diamond: A -> B, A -> C, B -> D, C -> D.
func TestScenario_S2_Diamond(t *testing.T) {
	const doc = `
tools:
  A:
    module: test_tool
    input_from: [main_input]
    params: {input_keys: [raw], output_keys: [x]}
  B:
    module: test_tool
    input_from: [A]
    params: {input_keys: [x], output_keys: [y]}
  C:
    module: test_tool
    input_from: [A]
    params: {input_keys: [x], output_keys: [z]}
  D:
    module: test_tool
    input_from: [B, C]
    final_output: [w]
    params: {input_keys: [y, z], output_keys: [w]}
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, _ := newTestEngine(t, pd, nil, nil)

	require.NoError(t, e.Build(cfg))
	require.NoError(t, e.Validate())
	require.NoError(t, runWithDeadline(t, e))

	d, _ := e.Node("D")
	assert.True(t, d.Finished())
}

// S3 — missing input key: B requires z but A only produces x.
func TestScenario_S3_MissingInputKeyFailsValidation(t *testing.T) {
	const doc = `
tools:
  A:
    module: test_tool
    input_from: [main_input]
    params: {input_keys: [raw], output_keys: [x]}
  B:
    module: test_tool
    input_from: [A]
    params: {input_keys: [z], output_keys: [y]}
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, _ := newTestEngine(t, pd, nil, nil)
	require.NoError(t, e.Build(cfg))

	err = e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "B")
	assert.Contains(t, err.Error(), "z")
	assert.ErrorIs(t, err, types.ErrValidationFailed)
	assert.NotErrorIs(t, err, types.ErrConfigInvalid)
}

// S4 — rate-limit survival is exercised at the processor level
// (pkg/processor's backoff_test.go); the graph engine has no retry logic of
// its own to duplicate that coverage for.

// S5 — unrecoverable module failure: X's remote command exits non-zero with
// no retries left; X.finished becomes true, Run surfaces the failure naming
// X, and a peer not depending on X still finishes.
func TestScenario_S5_UnrecoverableFailureDoesNotBlockPeers(t *testing.T) {
	const doc = `
tools:
  X:
    module: test_tool
    input_from: [main_input]
    params: {input_keys: [raw], output_keys: [x], command: fail_x}
  Peer:
    module: test_tool
    input_from: [main_input]
    params: {input_keys: [raw], output_keys: [p]}
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, fp := newTestEngine(t, pd, nil, nil)
	// Only X's own command fails; Peer's command and both processors' SSH
	// setup commands succeed.
	fp.RunFunc = func(ctx context.Context, ip, cmd string) (string, string, error) {
		if cmd == "fail_x" {
			return "", "boom", assertErr("remote command failed")
		}
		return "", "", nil
	}

	require.NoError(t, e.Build(cfg))
	require.NoError(t, e.Validate())

	err = runWithDeadline(t, e)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X")

	x, _ := e.Node("X")
	peer, _ := e.Node("Peer")
	assert.True(t, x.Finished())
	assert.True(t, peer.Finished())
}

type assertErr string

func (e assertErr) Error() string { return string(e) }

// S6 — splitter fan-out: Splitter S produces splits {s1, s2}; Merger M reads
// both and is started/finalized exactly once.
func TestScenario_S6_SplitterFanOut(t *testing.T) {
	const doc = `
tools:
  S:
    module: test_splitter
    input_from: [main_input]
    params:
      input_keys: [raw]
      output_keys: [bam]
      split_ids: [s1, s2]
  M:
    module: test_merger
    input_from: [S]
    final_output: [merged]
    params:
      output_keys: [merged]
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, _ := newTestEngine(t, pd, nil, nil)

	require.NoError(t, e.Build(cfg))
	require.NoError(t, runWithDeadline(t, e))

	s, _ := e.Node("S")
	split, ok := s.GetOutput().(types.Split)
	require.True(t, ok)
	assert.Contains(t, split, "s1")
	assert.Contains(t, split, "s2")

	m, _ := e.Node("M")
	assert.True(t, m.Finished())
	require.NoError(t, m.Finalize())
}

func TestBuild_CyclicGraphFails(t *testing.T) {
	const doc = `
tools:
  A:
    module: test_tool
    input_from: [B]
    params: {output_keys: [x]}
  B:
    module: test_tool
    input_from: [A]
    params: {output_keys: [y]}
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	e, _ := newTestEngine(t, datastore.NewStaticPipelineData(nil), nil, nil)
	err = e.Build(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCyclicGraph)
}

func TestValidate_MissingCatalogRequirement(t *testing.T) {
	const doc = `
tools:
  A:
    module: test_tool
    input_from: [main_input]
    params:
      input_keys: [raw]
      output_keys: [x]
      tools: [bwa]
`
	cfg, err := config.Decode([]byte(doc))
	require.NoError(t, err)

	pd := datastore.NewStaticPipelineData(map[types.DataKey][]types.FileRef{
		"raw": {datastore.NewFileRef("main.raw", "raw", "/in/raw.txt", nil)},
	})
	e, _ := newTestEngine(t, pd, nil, nil)
	require.NoError(t, e.Build(cfg))

	err = e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bwa")
}
