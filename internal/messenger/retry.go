package messenger

import (
	"context"
	"math"
	"time"

	"github.com/hugo-lorenzo-mato/caso/internal/core"
	"github.com/hugo-lorenzo-mato/caso/internal/logging"
)

// RetryPolicy defines how failed pushes are retried.
type RetryPolicy struct {
	// Retries is the number of attempts after the first one.
	Retries int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries. Zero means no cap.
	MaxDelay time.Duration
}

// Delay returns the wait before attempt (1 is the first retry).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(p.InitialDelay) * math.Pow(2, float64(attempt-1))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// retrying wraps a messenger with retries.
type retrying struct {
	core.Messenger
	policy RetryPolicy
	logger *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps m so each Push is retried per policy. Only errors for
// which core.IsRetryable is true are retried. A policy without
// retries returns m unchanged.
func WithRetry(m core.Messenger, policy RetryPolicy, logger *logging.Logger) core.Messenger {
	if policy.Retries <= 0 {
		return m
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &retrying{Messenger: m, policy: policy, logger: logger, sleep: sleepContext}
}

// Push implements core.Messenger.
func (r *retrying) Push(ctx context.Context, records []core.Record) error {
	var lastErr error
	for attempt := 0; attempt <= r.policy.Retries; attempt++ {
		if attempt > 0 {
			delay := r.policy.Delay(attempt)
			r.logger.Warn("retrying push",
				"messenger", r.Name(), "attempt", attempt, "delay", delay, "error", lastErr)
			if err := r.sleep(ctx, delay); err != nil {
				return lastErr
			}
		}
		if lastErr = r.Messenger.Push(ctx, records); lastErr == nil {
			return nil
		}
		if ctx.Err() != nil || !core.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
