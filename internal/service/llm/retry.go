package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chatprojects/internal/config"
	"chatprojects/internal/domain"
	domainllm "chatprojects/internal/domain/services/llm"
)

// RetryPolicy bounds provider calls: Attempts total tries, with waits
// doubling from InitialWait and capped at MaxWait between them.
type RetryPolicy struct {
	Attempts    int
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultRetryPolicy is 5 attempts waiting 4s, 8s, 10s, 10s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, InitialWait: 4 * time.Second, MaxWait: 10 * time.Second}
}

// RetryPolicyFromConfig reads the LLM_RETRY_* settings, falling back to defaults for unset values
func RetryPolicyFromConfig(cfg *config.Config) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.RetryAttempts > 0 {
		p.Attempts = cfg.RetryAttempts
	}
	if cfg.RetryInitialWait > 0 {
		p.InitialWait = cfg.RetryInitialWait
	}
	if cfg.RetryMaxWait > 0 {
		p.MaxWait = cfg.RetryMaxWait
	}
	if p.MaxWait < p.InitialWait {
		p.MaxWait = p.InitialWait
	}
	return p
}

// Wait returns the pause after the given failed attempt (1-based)
func (p RetryPolicy) Wait(attempt int) time.Duration {
	wait := p.InitialWait
	for i := 1; i < attempt; i++ {
		wait *= 2
		if wait >= p.MaxWait {
			return p.MaxWait
		}
	}
	if wait > p.MaxWait {
		return p.MaxWait
	}
	return wait
}

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Retrier runs an operation under a RetryPolicy
type Retrier struct {
	policy RetryPolicy
	sleep  SleepFunc
	logger *slog.Logger
}

// NewRetrier creates a retrier that sleeps on the wall clock
func NewRetrier(policy RetryPolicy, logger *slog.Logger) *Retrier {
	return NewRetrierWithSleep(policy, sleepContext, logger)
}

// NewRetrierWithSleep lets tests observe waits without sleeping
func NewRetrierWithSleep(policy RetryPolicy, sleep SleepFunc, logger *slog.Logger) *Retrier {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	return &Retrier{policy: policy, sleep: sleep, logger: logger}
}

// Do calls op until it succeeds, returns a permanent error, ctx ends, or the
// attempts run out. Failures are wrapped in domain.ErrProviderFailure and
// keep the last underlying error.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.Attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if domainllm.IsPermanent(lastErr) {
			r.logger.Warn("llm call failed permanently", "attempt", attempt, "error", lastErr)
			return fmt.Errorf("%w: %w", domain.ErrProviderFailure, lastErr)
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", domain.ErrProviderFailure, lastErr)
		}

		if attempt == r.policy.Attempts {
			break
		}

		wait := r.policy.Wait(attempt)
		r.logger.Warn("llm call failed, retrying",
			"attempt", attempt,
			"max_attempts", r.policy.Attempts,
			"wait", wait,
			"error", lastErr,
		)
		if err := r.sleep(ctx, wait); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrProviderFailure, lastErr)
		}
	}

	return fmt.Errorf("%w: giving up after %d attempts: %w", domain.ErrProviderFailure, r.policy.Attempts, lastErr)
}
