package utils_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mallorder/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	t.Parallel()

	cfg := utils.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond}

	t.Run("succeeds without retrying", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		t.Parallel()
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		t.Parallel()
		calls := 0
		wantErr := errors.New("still broken")
		err := utils.Retry(cfg, func() error {
			calls++
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		t.Parallel()
		permanent := errors.New("permanent")
		calls := 0
		err := utils.Retry(cfg, func() error {
			calls++
			return fmt.Errorf("wrapped: %w", permanent)
		}, permanent)
		require.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})
}
