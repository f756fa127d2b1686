package provider

import (
	"context"
	"math"
	"strconv"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Per-vCPU and per-GB hourly rates for a GCE custom machine type, in
// cents/hour. These are flat approximations of published list pricing, not
// a live billing lookup — good enough for the cost estimates
// Processor.Create logs, and a concrete default so GCloudProvider never
// dispatches through a nil PricingTable. A deployment that needs exact
// billing can inject its own PricingTable.
const (
	centsPerVCPUHour  = 3.3174
	centsPerGBHour    = 0.4446
	preemptibleFactor = 0.2
)

// DefaultPricingTable estimates cost from the flat per-vCPU/per-GB rates
// above, discounted for preemptible instances the way GCE's own preemptible
// pricing is a fixed fraction of on-demand.
type DefaultPricingTable struct{}

func (DefaultPricingTable) Price(ctx context.Context, shape types.InstanceShape, instanceType string) (float64, error) {
	cost := float64(shape.CPUs)*centsPerVCPUHour + float64(shape.MemoryGB)*centsPerGBHour
	if shape.Preemptible {
		cost *= preemptibleFactor
	}
	return cost, nil
}

// GCE custom machine types require an even vCPU count (or exactly 1) and a
// memory-per-vCPU ratio between 0.9GB and 6.5GB, in multiples of 256MB.
const (
	minMemPerVCPU = 0.9
	maxMemPerVCPU = 6.5
)

// DefaultInstanceTypeSelector adjusts a requested cpu/mem pair to the
// nearest shape GCE's custom machine types will actually accept and names
// it in the "custom-CPUS-MEMORY_MB" form buildCreateCommand recognizes via
// its "custom" substring check.
type DefaultInstanceTypeSelector struct{}

func (DefaultInstanceTypeSelector) Select(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (int, int, string, error) {
	adjCPUs := cpus
	if adjCPUs < 1 {
		adjCPUs = 1
	} else if adjCPUs != 1 && adjCPUs%2 != 0 {
		adjCPUs++
	}

	minMem := int(math.Ceil(float64(adjCPUs) * minMemPerVCPU))
	maxMem := int(float64(adjCPUs) * maxMemPerVCPU)
	adjMemGB := memGB
	if adjMemGB < minMem {
		adjMemGB = minMem
	}
	if adjMemGB > maxMem {
		adjMemGB = maxMem
	}
	if adjMemGB < 1 {
		adjMemGB = 1
	}

	instanceType := instanceTypeName(adjCPUs, adjMemGB)
	return adjCPUs, adjMemGB, instanceType, nil
}

func instanceTypeName(cpus, memGB int) string {
	return "custom-" + strconv.Itoa(cpus) + "-" + strconv.Itoa(memGB*1024)
}
