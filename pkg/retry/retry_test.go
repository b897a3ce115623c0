package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/medvisit/pkg/retry"
)

func fastConfig(maxAttempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   maxAttempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestDo(t *testing.T) {
	t.Run("returns nil on first success", func(t *testing.T) {
		calls := 0
		err := retry.Do(context.Background(), fastConfig(3), func() error {
			calls++
			return nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := retry.Do(context.Background(), fastConfig(5), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, nil)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops after max attempts and wraps the last error", func(t *testing.T) {
		sentinel := errors.New("down")
		calls := 0
		err := retry.Do(context.Background(), fastConfig(3), func() error {
			calls++
			return sentinel
		}, nil)

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.ErrorIs(t, err, sentinel)
	})

	t.Run("notify fires before each sleep", func(t *testing.T) {
		var attempts []int
		_ = retry.Do(context.Background(), fastConfig(3), func() error {
			return errors.New("down")
		}, func(attempt int, err error, nextDelay time.Duration) {
			attempts = append(attempts, attempt)
		})

		// no notification for the final, non-retried attempt
		assert.Equal(t, []int{1, 2}, attempts)
	})

	t.Run("cancelled context aborts between attempts", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retry.Do(ctx, fastConfig(10), func() error {
			calls++
			cancel()
			return errors.New("down")
		}, nil)

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}
