package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/rentalhub/pkg/errorbank"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Delay: time.Millisecond}
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttemptsExactly(t *testing.T) {
	calls := 0
	boom := errors.New("connection reset")
	_, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, errorbank.IsKind(err, errorbank.KindTransient))
	assert.ErrorIs(t, err, boom)
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("timeout")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentFailure(t *testing.T) {
	calls := 0
	policy := fastPolicy(5)
	policy.RetryIf = func(err error) bool { return !errorbank.Permanent(err) }

	_, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, errorbank.Conflict("duplicate code")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	assert.False(t, errorbank.IsKind(err, errorbank.KindTransient))
}

func TestDoZeroAttemptsStillRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	policy := Policy{Attempts: 10, Delay: 50 * time.Millisecond}

	_, err := Do(ctx, policy, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("timeout")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRunWrapsOperationsWithoutResults(t *testing.T) {
	calls := 0
	err := Run(context.Background(), fastPolicy(2), func(context.Context) error {
		calls++
		return errors.New("timeout")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, errorbank.IsKind(err, errorbank.KindTransient))
}
