// package retry provides a generic bounded-retry decorator for remote
// calls. It knows nothing about the operations it wraps; callers supply a
// predicate deciding which failures are terminal and must not be retried.
package retry

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Policy configures an Invoker.
type Policy struct {
	// MaxAttempts is the total invocation budget, including the first call.
	MaxAttempts int

	// InitialInterval is the wait before the second attempt. Each further
	// wait is the previous one multiplied by BackoffMultiplier.
	InitialInterval time.Duration

	BackoffMultiplier float64

	// OverallTimeout, when positive, bounds all attempts and waits of one
	// Do call together. Zero disables the bound.
	OverallTimeout time.Duration

	// IsTerminal classifies failures that must surface immediately without
	// further attempts, such as unauthorized or not-found responses.
	// A nil predicate treats every failure as retryable.
	IsTerminal func(error) bool
}

// DefaultPolicy returns the retry policy used when no configuration
// overrides it: 4 attempts, 1s initial interval, backoff factor 5.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:       4,
		InitialInterval:   time.Second,
		BackoffMultiplier: 5,
	}
}

// Invoker applies a Policy around arbitrary operations.
type Invoker struct {
	policy Policy
	logger *zap.SugaredLogger
}

// NewInvoker returns an Invoker with the provided policy and logger.
func NewInvoker(policy Policy, logger *zap.SugaredLogger) *Invoker {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Invoker{
		policy: policy,
		logger: logger,
	}
}

// Do invokes op, retrying retryable failures up to the attempt budget with
// exponential backoff between attempts. Terminal failures and exhaustion
// surface the operation's error unchanged. The wait between attempts
// honors context cancellation.
func (i *Invoker) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if i.policy.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.policy.OverallTimeout)
		defer cancel()
	}

	interval := i.policy.InitialInterval
	var lastErr error

	for attempt := 1; attempt <= i.policy.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if i.policy.IsTerminal != nil && i.policy.IsTerminal(lastErr) {
			return lastErr
		}

		if attempt == i.policy.MaxAttempts {
			break
		}

		i.logger.Warnf("Attempt %d/%d failed, retrying in %s: %v", attempt, i.policy.MaxAttempts, interval, lastErr)

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return lastErr
		case <-timer.C:
		}

		interval = time.Duration(float64(interval) * i.policy.BackoffMultiplier)
	}

	return lastErr
}
