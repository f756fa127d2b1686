// Package provider implements the cloud-provider collaborator: the three
// read operations a processor needs (describe, price, optimal instance
// type) plus the create/destroy/run-remote operations a reference provider
// encodes as gcloud and ssh invocations.
package provider

import (
	"context"
	"fmt"

	"github.com/cloudconductor/orchestrator/pkg/types"
)

// ErrNotFound is returned by Describe when the provider reports the named
// resource absent — the processor maps this to ProcessorOff. It is the same
// value as types.ErrProviderNotFound.
var ErrNotFound = types.ErrProviderNotFound

// ErrUnknownStatus is returned by Describe when the provider reports a
// status string the processor does not recognize. It wraps
// types.ErrProviderFatal.
var ErrUnknownStatus = fmt.Errorf("provider: unknown instance status: %w", types.ErrProviderFatal)

// RateLimitError wraps a provider failure caused by API rate limiting. The
// processor's retry policy does not use it: handleFailure classifies rate
// limiting by matching the failed command's stderr text.
type RateLimitError struct {
	Err error
}

func (e *RateLimitError) Error() string { return "provider: rate limit exceeded: " + e.Err.Error() }
func (e *RateLimitError) Unwrap() error { return e.Err }

// PublicKeyError wraps an SSH authentication failure. The processor's retry
// policy does not use it either: handleFailure detects a rejected public key
// from the failed command's stderr text and recreates.
type PublicKeyError struct {
	Err error
}

func (e *PublicKeyError) Error() string { return "provider: ssh public key rejected: " + e.Err.Error() }
func (e *PublicKeyError) Unwrap() error { return e.Err }

// Provider is the cloud-provider collaborator. A Processor drives exactly
// one Provider for its entire lifetime.
type Provider interface {
	// Describe returns the current status and reachable IP of the named
	// instance. Returns ErrNotFound if the provider reports it absent,
	// ErrUnknownStatus if the status string isn't recognized.
	Describe(ctx context.Context, name, zone string) (types.InstanceDescription, error)

	// Price returns the estimated cents/hour for running shape.
	Price(ctx context.Context, shape types.InstanceShape, instanceType string) (centsPerHour float64, err error)

	// OptimalInstanceType adjusts the requested cpu/mem to the nearest
	// instance class the provider can actually bill and returns its type
	// string.
	OptimalInstanceType(ctx context.Context, cpus, memGB int, zone string, preemptible bool) (adjCPUs, adjMemGB int, instanceType string, err error)

	// Create issues the provisioning request for name and returns once the
	// request itself completes (not once the instance is reachable — the
	// processor's readiness probe does that separately).
	Create(ctx context.Context, name string, shape types.InstanceShape, instanceType string) (stdout, stderr string, err error)

	// Destroy issues the deprovisioning request for name.
	Destroy(ctx context.Context, name, zone string) (stdout, stderr string, err error)

	// RunRemote executes cmd on the instance at ip over the provider's
	// remote-shell transport and returns its captured output.
	RunRemote(ctx context.Context, ip, cmd string) (stdout, stderr string, err error)
}
