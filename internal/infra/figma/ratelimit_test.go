package figma

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	t.Run("burst passes immediately", func(t *testing.T) {
		limiter := NewRateLimiter(1.0, 3)
		ctx := context.Background()

		start := time.Now()
		for i := 0; i < 3; i++ {
			require.NoError(t, limiter.Allow(ctx))
		}
		assert.Less(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		limiter := NewRateLimiter(0.001, 1)
		ctx := context.Background()

		// Drain the single burst token.
		require.NoError(t, limiter.Allow(ctx))

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := limiter.Allow(waitCtx)
		assert.Error(t, err)
	})
}
