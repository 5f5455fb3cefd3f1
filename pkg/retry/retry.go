package retry

import (
	"context"
	"errors"
	"time"

	retrylib "github.com/sethvargo/go-retry"

	"github.com/Additional-Code/rentalhub/pkg/errorbank"
)

// Policy bounds how a storage operation is retried. Attempts counts total
// invocations, not re-invocations: Attempts=3 means the operation runs at
// most three times. Delay is a fixed wait between attempts; call sites pick
// it per operation criticality.
type Policy struct {
	Attempts int
	Delay    time.Duration
	// RetryIf decides whether a failure is worth another attempt. A nil
	// hook retries every failure. Permanent faults such as constraint
	// violations should return false so the budget is not burned on them.
	RetryIf func(error) bool
}

func (p Policy) retryable(err error) bool {
	if p.RetryIf == nil {
		return true
	}
	return p.RetryIf(err)
}

// Do invokes op under the policy. The final failure after the budget is
// exhausted comes back as a transient errorbank error carrying the last
// underlying cause; permanent failures propagate untouched on the first
// attempt that observes them.
func Do[T any](ctx context.Context, p Policy, op func(context.Context) (T, error)) (T, error) {
	var result T

	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := p.Delay
	if delay <= 0 {
		delay = time.Nanosecond
	}

	var err error
	backoff := retrylib.NewConstant(delay)
	if err != nil {
		return result, errorbank.Internal("invalid retry delay", errorbank.WithCause(err))
	}
	backoff = retrylib.WithMaxRetries(uint64(attempts-1), backoff)

	err = retrylib.Do(ctx, backoff, func(ctx context.Context) error {
		value, opErr := op(ctx)
		if opErr != nil {
			if p.retryable(opErr) {
				return retrylib.RetryableError(opErr)
			}
			return opErr
		}
		result = value
		return nil
	})
	if err == nil {
		return result, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return result, err
	}
	if !p.retryable(err) {
		return result, err
	}
	return result, errorbank.Transient("storage operation failed after retries",
		errorbank.WithCause(err),
		errorbank.WithDetail("attempts", attempts),
	)
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, p Policy, op func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
