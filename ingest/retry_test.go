package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("success on first attempt", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, fastPolicy(3), func(context.Context) error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("success after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, fastPolicy(3), func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("returns last error", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, fastPolicy(2), func(context.Context) error {
			calls++
			return assert.AnError
		})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 2, calls)
	})

	t.Run("permanent error stops", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, fastPolicy(5), func(context.Context) error {
			calls++
			return Permanent(assert.AnError)
		})
		assert.Equal(t, assert.AnError, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("invalid max attempts", func(t *testing.T) {
		err := RetryWithBackoff(ctx, fastPolicy(0), func(context.Context) error { return nil })
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		calls := 0
		err := RetryWithBackoff(cancelled, fastPolicy(3), func(context.Context) error {
			calls++
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, calls)
	})

	t.Run("cancelled while waiting", func(t *testing.T) {
		cancellable, cancel := context.WithCancel(ctx)
		policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Hour}
		err := RetryWithBackoff(cancellable, policy, func(context.Context) error {
			cancel()
			return assert.AnError
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryPolicyDelay(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
	assert.Equal(t, time.Second, p.delay(1))
	assert.Equal(t, 2*time.Second, p.delay(2))
	assert.Equal(t, 4*time.Second, p.delay(3))
	assert.Equal(t, 5*time.Second, p.delay(4))
	assert.Equal(t, 5*time.Second, p.delay(9))

	unbounded := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Second}
	assert.Equal(t, 8*time.Second, unbounded.delay(4))
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
