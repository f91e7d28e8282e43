package ingest

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"paperkb/internal/model"
)

// BackoffPolicy bounds retries of remote store calls: exponential delay
// with jitter, capped attempts. Non-retryable errors fail immediately.
type BackoffPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func (p BackoffPolicy) withDefaults() BackoffPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 10 * time.Second
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 2.0
	}
	return p
}

// retry runs fn until it succeeds, returns a non-retryable error, the
// attempt budget runs out, or ctx is done. sleep is injectable for tests.
func retry(ctx context.Context, policy BackoffPolicy, sleep func(time.Duration), fn func() error) error {
	policy = policy.withDefaults()
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !model.IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
		sleep(backoffDelay(attempt, policy))
	}
	return fmt.Errorf("all %d attempts failed: %w", policy.MaxAttempts, lastErr)
}

func backoffDelay(attempt int, policy BackoffPolicy) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt-1))
	// up to 10% jitter either way so parallel runs don't sync up
	delay += delay * 0.1 * (2*rand.Float64() - 1)
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	return time.Duration(delay)
}
