package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/health"
	"github.com/cloudconductor/orchestrator/pkg/metrics"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Create provisions the resource and blocks until it is reachable over the
// remote-shell channel. The processor must not be locked on entry.
func (p *Processor) Create(ctx context.Context) error {
	if p.isLocked() {
		p.logger.Error().Msg("failed to create processor: locked")
		return types.ErrLocked
	}

	p.logger.Info().Msg("process 'create' started")

	timer := metrics.NewTimer()

	adjCPUs, adjMemGB, instanceType, err := p.provider.OptimalInstanceType(ctx, p.shape.CPUs, p.shape.MemoryGB, p.shape.Zone, p.shape.Preemptible)
	if err != nil {
		return fmt.Errorf("optimal instance type lookup: %w", err)
	}
	p.shape.CPUs = adjCPUs
	p.shape.MemoryGB = adjMemGB
	p.instanceType = instanceType

	price, err := p.provider.Price(ctx, p.shape, instanceType)
	if err != nil {
		return fmt.Errorf("price lookup: %w", err)
	}
	p.mu.Lock()
	p.cost.PricePerHourCents = price
	p.mu.Unlock()
	p.logger.Debug().Str("instance_type", instanceType).Float64("price_cents_per_hour", price).Msg("resolved instance shape")

	proc := newTrackedProcess("create", "", DefaultNumCmdRetries, false)
	p.mu.Lock()
	p.processes["create"] = proc
	p.mu.Unlock()
	if err := p.runCreateCommand(ctx, proc); err != nil {
		return err
	}

	p.logger.Debug().Msg("waiting for instance to become reachable")
	if err := p.waitUntilReady(ctx); err != nil {
		return err
	}

	metrics.ProcessorsCreatedTotal.Inc()
	timer.ObserveDuration(metrics.ProcessorCreateDuration)
	return nil
}

func (p *Processor) runCreateCommand(ctx context.Context, proc *trackedProcess) error {
	stdout, stderr, err := p.provider.Create(ctx, p.Name, p.shape, p.instanceType)
	proc.stdout, proc.stderr, proc.err = stdout, stderr, err
	close(proc.done)
	if err != nil {
		return p.handleFailure(ctx, proc)
	}
	p.mu.Lock()
	p.cost.StartedAt = time.Now()
	p.mu.Unlock()
	p.logger.Info().Msg("process 'create' complete")
	return nil
}

// Recreate destroys and recreates the resource, bounded by
// DefaultNumCmdRetries resets, matching the source's recreate() guard
// against an instance that never becomes reachable.
func (p *Processor) Recreate(ctx context.Context) error {
	p.mu.Lock()
	exhausted := p.creationResets >= DefaultNumCmdRetries
	if !exhausted {
		p.creationResets++
	}
	p.mu.Unlock()

	if exhausted {
		p.logger.Debug().Msg("instance successfully created but never became available after multiple resets")
		return fmt.Errorf("processor %q: never became available after %d resets: %w", p.Name, DefaultNumCmdRetries, types.ErrProviderFatal)
	}

	metrics.ProcessorRecreatesTotal.Inc()
	if err := p.Destroy(ctx, true); err != nil {
		return err
	}
	return p.Create(ctx)
}

// Destroy requests deprovisioning; if wait, blocks until the request
// completes, otherwise returns immediately.
func (p *Processor) Destroy(ctx context.Context, wait bool) error {
	p.logger.Info().Msg("process 'destroy' started")

	proc := newTrackedProcess("destroy", "", DefaultNumCmdRetries, false)
	p.mu.Lock()
	p.processes["destroy"] = proc
	p.mu.Unlock()

	run := func() error {
		stdout, stderr, err := p.provider.Destroy(ctx, p.Name, p.shape.Zone)
		proc.stdout, proc.stderr, proc.err = stdout, stderr, err
		close(proc.done)
		if err != nil {
			return p.handleFailure(ctx, proc)
		}
		p.mu.Lock()
		p.cost.StoppedAt = time.Now()
		p.status = types.ProcessorOff
		p.mu.Unlock()
		p.logger.Info().Msg("process 'destroy' complete")
		return nil
	}

	if wait {
		return run()
	}
	go func() {
		if err := run(); err != nil {
			p.logger.Error().Err(err).Msg("destroy failed in background")
		}
	}()
	return nil
}

// UpdateStatus refreshes status and endpoint from the provider, with
// bounded internal retries on transient errors. If the provider reports the
// resource absent, status becomes OFF and the endpoint becomes empty.
func (p *Processor) UpdateStatus(ctx context.Context) error {
	var lastErr error
	for attempt := 0; attempt <= statusRetryMaxAttempts; attempt++ {
		desc, err := p.provider.Describe(ctx, p.Name, p.shape.Zone)
		if err == nil {
			p.mu.Lock()
			p.ip = desc.IP
			p.mu.Unlock()
			switch desc.Status {
			case types.ProviderTerminated, types.ProviderStopping:
				p.setStatus(types.ProcessorDestroying)
			case types.ProviderProvisioning, types.ProviderStaging:
				p.setStatus(types.ProcessorCreating)
			case types.ProviderRunning:
				p.mu.Lock()
				ready := p.sshReady
				p.mu.Unlock()
				if ready {
					p.setStatus(types.ProcessorAvailable)
				} else {
					p.setStatus(types.ProcessorCreating)
				}
			default:
				return fmt.Errorf("%w: %q", types.ErrProviderFatal, desc.Status)
			}
			return nil
		}

		if isNotFound(err) {
			p.mu.Lock()
			p.ip = ""
			p.mu.Unlock()
			p.setStatus(types.ProcessorOff)
			return nil
		}

		lastErr = err
		if attempt < statusRetryMaxAttempts {
			interruptibleSleep(p.lockContext(), p.statusRetrySleep)
		}
	}
	return fmt.Errorf("update status: %w", lastErr)
}

func isNotFound(err error) bool {
	return errors.Is(err, provider.ErrNotFound)
}

// waitUntilReady polls status for up to readinessCycles x
// readinessCycleInterval, probing the endpoint's SSH port each cycle. On
// the first successful probe it performs one-time SSH tuning and marks the
// processor ready; if the loop exhausts without success it recreates.
func (p *Processor) waitUntilReady(ctx context.Context) error {
	p.mu.Lock()
	p.sshReady = false
	p.mu.Unlock()

	needsRecreate := true

	for cycle := 0; cycle < p.readinessCycles; cycle++ {
		if p.isLocked() {
			p.logger.Debug().Msg("instance locked while waiting for creation")
			return types.ErrLocked
		}

		interruptibleSleep(p.lockContext(), p.readinessCycleInterval)
		if p.isLocked() {
			return types.ErrLocked
		}

		if err := p.UpdateStatus(ctx); err != nil {
			return err
		}

		status := p.Status()
		if status != types.ProcessorCreating && status != types.ProcessorAvailable {
			p.logger.Debug().Msg("instance has been shut down, removed, or preempted; resetting")
			break
		}

		if p.checkSSH(ctx) {
			if err := p.configureSSH(ctx); err != nil {
				return err
			}
			needsRecreate = false
			break
		}
	}

	if needsRecreate {
		return p.Recreate(ctx)
	}

	p.mu.Lock()
	p.sshReady = true
	p.mu.Unlock()
	p.setStatus(types.ProcessorAvailable)
	p.logger.Debug().Msg("instance can be accessed through SSH")
	return nil
}

// checkSSH probes the endpoint's SSH port via the processor's configured
// checker, defaultSSHCheck unless a test overrides it.
func (p *Processor) checkSSH(ctx context.Context) bool {
	ip := p.IP()
	if ip == "" {
		return false
	}
	return p.sshCheck(ctx, ip)
}

// defaultSSHCheck dials the instance's SSH port with health.TCPChecker.
func defaultSSHCheck(ctx context.Context, ip string) bool {
	checker := health.NewTCPChecker(fmt.Sprintf("%s:22", ip))
	return checker.Check(ctx).Healthy
}

// configureSSH raises the concurrent-connection limit and restarts sshd,
// exactly once per processor lifetime, so later retries of the probe don't
// redo work the first success already did.
func (p *Processor) configureSSH(ctx context.Context) error {
	p.mu.Lock()
	already := p.sshConnectionsIncreased
	p.mu.Unlock()
	if already {
		return nil
	}

	const maxConnections = 500
	raiseLimit := fmt.Sprintf("sudo bash -c 'echo \"MaxStartups %d\" >> /etc/ssh/sshd_config'", maxConnections)
	if _, err := p.Run(ctx, "configureSSH", raiseLimit, DefaultNumCmdRetries, false); err != nil {
		return err
	}
	if _, err := p.WaitProcess(ctx, "configureSSH"); err != nil {
		return err
	}

	if _, err := p.Run(ctx, "restartSSH", "sudo service sshd restart", DefaultNumCmdRetries, false); err != nil {
		return err
	}
	if _, err := p.WaitProcess(ctx, "restartSSH"); err != nil {
		return err
	}

	p.mu.Lock()
	p.sshConnectionsIncreased = true
	p.mu.Unlock()
	return nil
}
