package processor

import (
	"context"
	"testing"
	"time"

	"github.com/cloudconductor/orchestrator/pkg/provider"
	"github.com/cloudconductor/orchestrator/pkg/types"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestRateLimitBackoff_FirstTwoAttemptsWithinSpecBounds(t *testing.T) {
	b := &rateLimitBackoff{}

	first := b.NextBackOff()
	assert.GreaterOrEqual(t, first, 360*time.Second)
	assert.LessOrEqual(t, first, 960*time.Second)

	second := b.NextBackOff()
	assert.GreaterOrEqual(t, second, 720*time.Second)
	assert.LessOrEqual(t, second, 1320*time.Second)
}

func TestRateLimitBackoff_ResetRestartsExponent(t *testing.T) {
	b := &rateLimitBackoff{attempt: 5}
	b.Reset()
	assert.Equal(t, 0, b.attempt)
}

func TestThrottleAPIRate_IncrementsCounterAndStopsOnLock(t *testing.T) {
	p := New("node-1", types.InstanceShape{}, provider.NewFakeProvider(), rate.NewLimiter(rate.Inf, 1))

	// Lock immediately so the interruptible sleep returns without waiting
	// out the real backoff duration, which can run into the minutes here.
	p.Lock()

	done := make(chan struct{})
	go func() {
		p.throttleAPIRate(context.Background(), &trackedProcess{jobName: "run"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("throttleAPIRate did not return promptly after lock")
	}

	assert.Equal(t, 1, p.apiRateLimitRetries)
}
