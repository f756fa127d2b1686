package processor

import (
	"context"
	"testing"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestProcessor(t *testing.T, fp *provider.FakeProvider) *Processor {
	t.Helper()
	p := New("node-1-test", types.InstanceShape{Zone: "us-central1-a", Image: "debian-12"}, fp, rate.NewLimiter(rate.Inf, 1))
	p.WithTiming(2, 10*time.Millisecond, 5*time.Millisecond, 5*time.Millisecond)
	p.sshCheck = func(ctx context.Context, ip string) bool { return true }
	return p
}

func TestCreate_SucceedsWhenProviderIsHealthy(t *testing.T) {
	fp := provider.NewFakeProvider()
	p := newTestProcessor(t, fp)

	err := p.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.ProcessorAvailable, p.Status())
	assert.Len(t, fp.CreateCalls, 1)
}

func TestCreate_FailsWhenLocked(t *testing.T) {
	fp := provider.NewFakeProvider()
	p := newTestProcessor(t, fp)
	p.Lock()

	err := p.Create(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrLocked)
}

func TestDestroy_SetsStatusOff(t *testing.T) {
	fp := provider.NewFakeProvider()
	p := newTestProcessor(t, fp)

	require.NoError(t, p.Create(context.Background()))
	require.NoError(t, p.Destroy(context.Background(), true))

	assert.Equal(t, types.ProcessorOff, p.Status())
	assert.Len(t, fp.DestroyCalls, 1)
}

func TestUpdateStatus_MapsProviderStates(t *testing.T) {
	cases := []struct {
		providerStatus types.ProviderStatus
		sshReady       bool
		want           types.ProcessorStatus
	}{
		{types.ProviderTerminated, false, types.ProcessorDestroying},
		{types.ProviderStopping, false, types.ProcessorDestroying},
		{types.ProviderProvisioning, false, types.ProcessorCreating},
		{types.ProviderStaging, false, types.ProcessorCreating},
		{types.ProviderRunning, false, types.ProcessorCreating},
		{types.ProviderRunning, true, types.ProcessorAvailable},
	}

	for _, tc := range cases {
		fp := provider.NewFakeProvider()
		fp.DescribeFunc = func(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
			return types.InstanceDescription{Status: tc.providerStatus, IP: "10.0.0.9"}, nil
		}
		p := newTestProcessor(t, fp)
		p.sshReady = tc.sshReady

		require.NoError(t, p.UpdateStatus(context.Background()))
		assert.Equal(t, tc.want, p.Status())
	}
}

func TestUpdateStatus_NotFoundSetsOff(t *testing.T) {
	fp := provider.NewFakeProvider()
	fp.DescribeFunc = func(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
		return types.InstanceDescription{}, provider.ErrNotFound
	}
	p := newTestProcessor(t, fp)
	p.status = types.ProcessorAvailable

	require.NoError(t, p.UpdateStatus(context.Background()))
	assert.Equal(t, types.ProcessorOff, p.Status())
	assert.Empty(t, p.IP())
}

func TestRun_SucceedsAndWaitProcessReturnsOutput(t *testing.T) {
	fp := provider.NewFakeProvider()
	fp.RunFunc = func(ctx context.Context, ip, cmd string) (string, string, error) {
		return "ok\n", "", nil
	}
	p := newTestProcessor(t, fp)
	p.ip = "10.0.0.2"

	_, err := p.Run(context.Background(), "work", "echo ok", DefaultNumCmdRetries, false)
	require.NoError(t, err)

	out, err := p.WaitProcess(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}

func TestHandleFailure_AvailableCreateAlreadyRunningIsNotAnError(t *testing.T) {
	fp := provider.NewFakeProvider()
	fp.DescribeFunc = func(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
		return types.InstanceDescription{Status: types.ProviderRunning, IP: "10.0.0.3"}, nil
	}
	p := newTestProcessor(t, fp)
	p.sshReady = true

	proc := newTrackedProcess("create", "", DefaultNumCmdRetries, false)
	proc.stderr = "some transient warning"
	close(proc.done)

	err := p.handleFailure(context.Background(), proc)
	assert.NoError(t, err)
}

func TestHandleFailure_NoRetriesLeftIsFatal(t *testing.T) {
	fp := provider.NewFakeProvider()
	fp.DescribeFunc = func(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
		return types.InstanceDescription{Status: types.ProviderTerminated}, nil
	}
	p := newTestProcessor(t, fp)

	proc := newTrackedProcess("work", "echo hi", 0, false)
	proc.stderr = "boom"
	close(proc.done)

	err := p.handleFailure(context.Background(), proc)
	require.Error(t, err)

	var procErr *types.ProcessorError
	assert.ErrorAs(t, err, &procErr)
	assert.ErrorIs(t, err, types.ErrProviderFatal)
}

func TestRecreate_ExhaustedResetsIsFatal(t *testing.T) {
	fp := provider.NewFakeProvider()
	p := newTestProcessor(t, fp)
	p.creationResets = DefaultNumCmdRetries

	err := p.Recreate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrProviderFatal)
}
