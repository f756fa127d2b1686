package node

import (
	"context"
	"testing"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/module"
	"github.com/cloudconductor/orchestrator/pkg/module/testmodules"
	"github.com/cloudconductor/orchestrator/pkg/processor"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestProcessor(t *testing.T, fp *provider.FakeProvider) *processor.Processor {
	t.Helper()
	p := processor.New("node-under-test", types.InstanceShape{Zone: "us-central1-a"}, fp, rate.NewLimiter(rate.Inf, 1))
	p.WithTiming(2, time.Millisecond, time.Millisecond, time.Millisecond)
	p.WithSSHCheck(func(ctx context.Context, ip string) bool { return true })
	return p
}

func newTestModule(t *testing.T, params map[string]any) module.Module {
	t.Helper()
	m, err := testmodules.NewTool("A", params)
	require.NoError(t, err)
	return m
}

func TestNode_CheckInput_MissingKey(t *testing.T) {
	m := newTestModule(t, map[string]any{"input_keys": []string{"raw"}})
	n := New("A", m, newTestProcessor(t, provider.NewFakeProvider()), nil)

	err := n.CheckInput(types.NewDataKeySet("other"))
	require.Error(t, err)
}

func TestNode_CheckInput_Satisfied(t *testing.T) {
	m := newTestModule(t, map[string]any{"input_keys": []string{"raw"}})
	n := New("A", m, newTestProcessor(t, provider.NewFakeProvider()), nil)

	err := n.CheckInput(types.NewDataKeySet("raw", "extra"))
	require.NoError(t, err)
}

func TestNode_CheckOutput_UndeclaredFinalOutput(t *testing.T) {
	m := newTestModule(t, map[string]any{"output_keys": []string{"x"}})
	n := New("A", m, newTestProcessor(t, provider.NewFakeProvider()), []string{"y"})

	err := n.CheckOutput(n.FinalOutputKeys)
	require.Error(t, err)
}

func TestNode_CheckRequirements_ReportsMissing(t *testing.T) {
	m := newTestModule(t, map[string]any{"tools": []string{"bwa"}, "resources": []string{"ref_fasta"}})
	n := New("A", m, newTestProcessor(t, provider.NewFakeProvider()), nil)

	missingTools, missingResources := n.CheckRequirements(map[string]struct{}{}, map[string]struct{}{"ref_fasta": {}})
	assert.Equal(t, []string{"bwa"}, missingTools)
	assert.Empty(t, missingResources)
}

func TestNode_StartFinalize_ProducesOutput(t *testing.T) {
	m := newTestModule(t, map[string]any{"output_keys": []string{"x"}})
	n := New("A", m, newTestProcessor(t, provider.NewFakeProvider()), nil)

	n.SetInput(&module.InputBundle{})
	n.Start()

	require.Eventually(t, n.Finished, 2*time.Second, time.Millisecond)
	require.NoError(t, n.Finalize())

	out, ok := n.GetOutput().([]types.FileRef)
	require.True(t, ok)
	require.Len(t, out, 1)
	assert.Equal(t, "A.x", out[0].FileID)
}

func TestNode_Finalize_WrapsFailureAsWorkerFailure(t *testing.T) {
	fp := provider.NewFakeProvider()
	fp.RunFunc = func(ctx context.Context, ip, cmd string) (string, string, error) {
		return "", "boom", assertError("remote command failed")
	}
	m := newTestModule(t, map[string]any{})
	p := newTestProcessor(t, fp)
	n := New("A", m, p, nil)

	n.SetInput(&module.InputBundle{})
	n.Start()

	require.Eventually(t, n.Finished, 2*time.Second, time.Millisecond)

	err := n.Finalize()
	require.Error(t, err)
	var failure *types.WorkerFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, "A", failure.ToolID)
}

type assertError string

func (e assertError) Error() string { return string(e) }
