// Package processor implements the ProcessorStateMachine: ownership of one
// remote compute resource and a reliable request/response channel for
// arbitrary shell commands, regardless of transient provider failures.
package processor

import (
	"context"
	"sync"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/log"
	"github.com/cloudconductor/orchestrator/pkg/metrics"
	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultNumCmdRetries bounds the number of retries for create/destroy/run
// commands and the number of recreate cycles a processor will attempt.
const DefaultNumCmdRetries = 3

// readinessCycles and readinessCycleInterval implement the 40-cycle x 15s
// (=10 minute) readiness probe from spec.md's §4.1.
const (
	readinessCycles         = 40
	readinessCycleInterval  = 15 * time.Second
	interRetryPause         = 3 * time.Second
	statusRetrySleep        = 5 * time.Second
	statusRetryMaxAttempts  = DefaultNumCmdRetries
)

// trackedProcess records the retry budget and quiet-failure flag for one
// named job, so wait_process/handle_failure can resubmit it without the
// caller re-supplying those parameters.
type trackedProcess struct {
	jobName      string
	cmd          string
	numRetries   int
	quietFailure bool

	// done is closed exactly once, by the single goroutine that produces
	// stdout/stderr/err, so WaitProcess can block on it instead of polling.
	done   chan struct{}
	stdout string
	stderr string
	err    error
}

func newTrackedProcess(jobName, cmd string, numRetries int, quietFailure bool) *trackedProcess {
	return &trackedProcess{
		jobName:      jobName,
		cmd:          cmd,
		numRetries:   numRetries,
		quietFailure: quietFailure,
		done:         make(chan struct{}),
	}
}

// Processor owns one remote compute resource for the lifetime of a Node.
// Its status field is guarded by mu, mirroring the finished-flag guarding
// pattern task.Worker uses for its own one-shot state.
type Processor struct {
	Name string

	shape        types.InstanceShape
	instanceType string
	provider     provider.Provider
	limiter      *rate.Limiter
	logger       zerolog.Logger

	mu                      sync.Mutex
	status                  types.ProcessorStatus
	ip                      string
	sshReady                bool
	sshConnectionsIncreased bool
	locked                  bool
	lockCancel              context.CancelFunc
	lockCtx                 context.Context
	creationResets          int
	apiRateLimitRetries     int
	cost                    types.CostRecord

	processes map[string]*trackedProcess

	// sshCheck probes an instance's SSH port; overridable so tests don't
	// need a reachable real address.
	sshCheck func(ctx context.Context, ip string) bool

	// Timing knobs default to the spec's real-world values; tests shrink
	// them so the readiness probe and retry pauses don't dominate wall
	// clock time.
	readinessCycles        int
	readinessCycleInterval time.Duration
	interRetryPause        time.Duration
	statusRetrySleep       time.Duration
}

// New creates a Processor bound to one provider and instance shape. limiter
// throttles the processor's remote command submissions (Run); describe,
// price, create and destroy calls do not wait on it. The engine typically
// shares one limiter across every processor it owns so a burst of
// concurrently-launching nodes doesn't itself trip the provider's own rate
// limiting.
func New(name string, shape types.InstanceShape, p provider.Provider, limiter *rate.Limiter) *Processor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		Name:                   name,
		shape:                  shape,
		provider:               p,
		limiter:                limiter,
		logger:                 log.WithProcessor(name),
		status:                 types.ProcessorOff,
		lockCtx:                ctx,
		lockCancel:             cancel,
		processes:              make(map[string]*trackedProcess),
		readinessCycles:        readinessCycles,
		readinessCycleInterval: readinessCycleInterval,
		interRetryPause:        interRetryPause,
		statusRetrySleep:       statusRetrySleep,
		sshCheck:               defaultSSHCheck,
	}
}

// WithTiming overrides the processor's readiness-probe and retry timing,
// for tests that need the state machine's logic without its real-world
// wall-clock durations.
func (p *Processor) WithTiming(readinessCycles int, readinessCycleInterval, interRetryPause, statusRetrySleep time.Duration) *Processor {
	p.readinessCycles = readinessCycles
	p.readinessCycleInterval = readinessCycleInterval
	p.interRetryPause = interRetryPause
	p.statusRetrySleep = statusRetrySleep
	return p
}

// WithSSHCheck overrides the readiness probe's reachability check, for
// callers outside this package (pkg/node's tests, in particular) that need
// a processor bound to a FakeProvider without a real network dependency.
func (p *Processor) WithSSHCheck(check func(ctx context.Context, ip string) bool) *Processor {
	p.sshCheck = check
	return p
}

// Status returns the processor's last-known status.
func (p *Processor) Status() types.ProcessorStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// IP returns the processor's last-known reachable address, empty if none.
func (p *Processor) IP() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ip
}

// Lock marks the processor locked: every operation but Destroy will fail
// with types.ErrLocked, and every interruptible sleep inside the processor
// wakes immediately.
func (p *Processor) Lock() {
	p.mu.Lock()
	p.locked = true
	p.mu.Unlock()
	p.lockCancel()
}

func (p *Processor) isLocked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.locked
}

func (p *Processor) setStatus(s types.ProcessorStatus) {
	p.mu.Lock()
	p.status = s
	p.mu.Unlock()
	metrics.NodesTotal.WithLabelValues(s.String()).Inc()
}

// CostCents returns the accrued cost for the processor's current or most
// recently completed lifetime.
func (p *Processor) CostCents() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cost.TotalCostCents()
}

// lockContext returns the context that is cancelled the moment the
// processor is locked, for every suspension point to select on.
func (p *Processor) lockContext() context.Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lockCtx
}

// interruptibleSleep sleeps for d in 1s increments, returning early if the
// processor is locked in the meantime. It never blocks uninterruptibly for
// the full duration, per spec.md §5 and §9's DESIGN NOTES.
func interruptibleSleep(ctx context.Context, d time.Duration) {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		step := time.Second
		if remaining < step {
			step = remaining
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
