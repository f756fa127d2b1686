package provider

import (
	"context"
	"sync"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// FakeProvider is a scriptable Provider for exercising pkg/processor
// without a real cloud account. Each field is optional: a nil function
// falls back to a reasonable default (instance running and reachable,
// commands succeed).
type FakeProvider struct {
	mu sync.Mutex

	DescribeFunc func(ctx context.Context, name, zone string) (types.InstanceDescription, error)
	PriceFunc    func(ctx context.Context, shape types.InstanceShape, instanceType string) (float64, error)
	OptimalFunc  func(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (int, int, string, error)
	CreateFunc   func(ctx context.Context, name string, shape types.InstanceShape, instanceType string) (string, string, error)
	DestroyFunc  func(ctx context.Context, name, zone string) (string, string, error)
	RunFunc      func(ctx context.Context, ip, cmd string) (string, string, error)

	CreateCalls []string
	DestroyCalls []string
	RunCalls    []string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{}
}

func (f *FakeProvider) Describe(ctx context.Context, name, zone string) (types.InstanceDescription, error) {
	if f.DescribeFunc != nil {
		return f.DescribeFunc(ctx, name, zone)
	}
	return types.InstanceDescription{Status: types.ProviderRunning, IP: "10.0.0.1"}, nil
}

func (f *FakeProvider) Price(ctx context.Context, shape types.InstanceShape, instanceType string) (float64, error) {
	if f.PriceFunc != nil {
		return f.PriceFunc(ctx, shape, instanceType)
	}
	return 10.0, nil
}

func (f *FakeProvider) OptimalInstanceType(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (int, int, string, error) {
	if f.OptimalFunc != nil {
		return f.OptimalFunc(ctx, cpus, memGB, zone, preemptible)
	}
	return cpus, memGB, "n1-standard-1", nil
}

func (f *FakeProvider) Create(ctx context.Context, name string, shape types.InstanceShape, instanceType string) (string, string, error) {
	f.mu.Lock()
	f.CreateCalls = append(f.CreateCalls, name)
	f.mu.Unlock()
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, name, shape, instanceType)
	}
	return "", "", nil
}

func (f *FakeProvider) Destroy(ctx context.Context, name, zone string) (string, string, error) {
	f.mu.Lock()
	f.DestroyCalls = append(f.DestroyCalls, name)
	f.mu.Unlock()
	if f.DestroyFunc != nil {
		return f.DestroyFunc(ctx, name, zone)
	}
	return "", "", nil
}

func (f *FakeProvider) RunRemote(ctx context.Context, ip, cmd string) (string, string, error) {
	f.mu.Lock()
	f.RunCalls = append(f.RunCalls, cmd)
	f.mu.Unlock()
	if f.RunFunc != nil {
		return f.RunFunc(ctx, ip, cmd)
	}
	return "", "", nil
}
