package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudconductor/orchestrator/pkg/metrics"
	"github.com/cloudconductor/orchestrator/pkg/types"
)

// Run starts a remote command under a symbolic job_name, unique among
// currently-tracked processes for this processor, and returns a handle
// (the job_name itself) to join later with WaitProcess. It does not block.
func (p *Processor) Run(ctx context.Context, jobName, cmd string, numRetries int, quietFailure bool) (string, error) {
	proc := newTrackedProcess(jobName, cmd, numRetries, quietFailure)
	p.mu.Lock()
	p.processes[jobName] = proc
	p.mu.Unlock()

	go func() {
		defer close(proc.done)
		if err := p.limiter.Wait(ctx); err != nil {
			proc.err = err
			return
		}
		stdout, stderr, err := p.provider.RunRemote(ctx, p.IP(), cmd)
		proc.stdout, proc.stderr, proc.err = stdout, stderr, err
	}()

	return jobName, nil
}

// WaitProcess joins the named job and collects its output, applying the
// failure-handling and retry policy from spec.md §4.1 and §7.
func (p *Processor) WaitProcess(ctx context.Context, jobName string) (string, error) {
	p.mu.Lock()
	proc := p.processes[jobName]
	p.mu.Unlock()
	if proc == nil {
		return "", fmt.Errorf("processor %q: no tracked process named %q", p.Name, jobName)
	}

	<-proc.done

	if proc.err != nil {
		if err := p.handleFailure(ctx, proc); err != nil {
			return "", err
		}
		// handleFailure resubmitted the job under the same name; wait again.
		return p.WaitProcess(ctx, jobName)
	}

	p.logger.Info().Str("job", jobName).Msg("process complete")
	return proc.stdout, nil
}

// handleFailure implements the retry table from spec.md §4.1/§7: rate-limit
// detection triggers adaptive backoff, a public-key failure during SSH
// configuration triggers an immediate recreate, and otherwise the current
// status plus the job's kind decide whether a retry is warranted.
func (p *Processor) handleFailure(ctx context.Context, proc *trackedProcess) error {
	if p.isLocked() && proc.jobName != "destroy" {
		return types.ErrLocked
	}

	if strings.Contains(proc.stderr, "Rate Limit Exceeded") {
		p.throttleAPIRate(ctx, proc)
	}

	if p.isLocked() && proc.jobName != "destroy" {
		return types.ErrLocked
	}

	lowerErr := strings.ToLower(proc.stderr)
	if strings.Contains(lowerErr, "permission denied (publickey).") &&
		(proc.jobName == "configureSSH" || proc.jobName == "restartSSH") {
		return p.Recreate(ctx)
	}

	if err := p.UpdateStatus(ctx); err != nil {
		return err
	}
	status := p.Status()

	canRetry := false
	switch status {
	case types.ProcessorOff:
		if proc.jobName == "destroy" {
			p.logger.Debug().Msg("processor already destroyed")
			return nil
		}
		canRetry = proc.jobName == "create" && proc.numRetries > 0

	case types.ProcessorCreating:
		canRetry = proc.jobName == "destroy" && proc.numRetries > 0

	case types.ProcessorAvailable:
		if proc.jobName == "create" && !strings.Contains(proc.stderr, "already exists") {
			return nil
		}
		canRetry = proc.numRetries > 0 && proc.jobName != "create"

	case types.ProcessorDestroying:
		canRetry = proc.jobName == "destroy" && proc.numRetries > 0
	}

	if !canRetry {
		return &types.ProcessorError{Name: p.Name, Job: proc.jobName, Err: fmt.Errorf("%w: %s", types.ErrProviderFatal, proc.stderr)}
	}

	metrics.ProcessorCommandRetriesTotal.WithLabelValues(proc.jobName).Inc()
	interruptibleSleep(p.lockContext(), p.interRetryPause)
	p.logger.Warn().Str("job", proc.jobName).Int("retries_left", proc.numRetries).Msg("process failed, retrying")

	switch proc.jobName {
	case "create":
		retry := newTrackedProcess("create", "", proc.numRetries-1, false)
		p.mu.Lock()
		p.processes["create"] = retry
		p.mu.Unlock()
		return p.runCreateCommand(ctx, retry)
	case "destroy":
		retry := newTrackedProcess("destroy", "", proc.numRetries-1, false)
		p.mu.Lock()
		p.processes["destroy"] = retry
		p.mu.Unlock()
		stdout, stderr, err := p.provider.Destroy(ctx, p.Name, p.shape.Zone)
		retry.stdout, retry.stderr, retry.err = stdout, stderr, err
		close(retry.done)
		if err != nil {
			return p.handleFailure(ctx, retry)
		}
		return nil
	default:
		_, err := p.Run(ctx, proc.jobName, proc.cmd, proc.numRetries-1, proc.quietFailure)
		return err
	}
}
