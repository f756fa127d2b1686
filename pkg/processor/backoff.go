package processor

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cloudconductor/orchestrator/pkg/metrics"
)

// rateLimitBackoff implements backoff.BackOff with the bespoke formula from
// spec.md §4.1: 180*2^k + random(0, 600) seconds, where k counts this
// rate-limit retry among those the processor has suffered, starting at 1 —
// so the first backoff lies in [360, 960] seconds and the second in
// [720, 1320]. attempt holds the number of earlier retries (k-1). It is not
// one of backoff/v4's built-in curves, so it implements the interface
// directly rather than composing ExponentialBackOff.
type rateLimitBackoff struct {
	attempt int
}

func (b *rateLimitBackoff) NextBackOff() time.Duration {
	seconds := 180*math.Pow(2, float64(b.attempt+1)) + float64(rand.Intn(601))
	b.attempt++
	return time.Duration(seconds) * time.Second
}

func (b *rateLimitBackoff) Reset() {
	b.attempt = 0
}

var _ backoff.BackOff = (*rateLimitBackoff)(nil)

// throttleAPIRate sleeps for the next rate-limit backoff interval,
// interruptibly, and records the retry against the processor's own
// counter (so the formula's exponent is per-processor, matching the
// source's self.api_rate_limit_retries) and against the global metric.
func (p *Processor) throttleAPIRate(ctx context.Context, proc *trackedProcess) {
	p.mu.Lock()
	b := &rateLimitBackoff{attempt: p.apiRateLimitRetries}
	p.apiRateLimitRetries++
	p.mu.Unlock()

	sleepFor := b.NextBackOff()
	metrics.ProcessorRateLimitRetriesTotal.Inc()
	p.logger.Warn().Str("job", proc.jobName).Dur("sleep", sleepFor).Msg("rate limit exceeded, backing off")

	interruptibleSleep(p.lockContext(), sleepFor)
}
