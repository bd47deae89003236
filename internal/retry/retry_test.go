// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func noSleepPolicy() Policy {
	return Policy{MaxRetries: 5, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Sleep: func(time.Duration) {}}
}

func TestDoNotFoundCalledOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), noSleepPolicy(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		return 0, New(NotFound, "test", "missing")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRateLimitRetriesThenSucceeds(t *testing.T) {
	calls := 0
	val, err := Do(context.Background(), noSleepPolicy(), func(ctx context.Context, attempt int) (int, error) {
		calls++
		if calls < 3 {
			return 0, New(RateLimit, "test", "slow down")
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, val)
	require.Equal(t, 3, calls)
}

func TestFallbackChainUsesSecondStrategy(t *testing.T) {
	chain := NewFallbackChain[int](noSleepPolicy())
	chain.AddStrategy("first", func(ctx context.Context) (int, error) {
		return 0, New(Network, "first", "down")
	}, 1, 1)
	chain.AddStrategy("second", func(ctx context.Context) (int, error) {
		return 7, nil
	}, 2, 1)

	val, err := chain.Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, val)

	stats := chain.GetStats()
	require.Equal(t, 1, stats.FallbackUsed)
	require.Equal(t, 1, stats.SuccessBySource["second"])
}

func TestFallbackChainAllFail(t *testing.T) {
	chain := NewFallbackChain[int](noSleepPolicy())
	chain.AddStrategy("only", func(ctx context.Context) (int, error) {
		return 0, New(Network, "only", "down")
	}, 1, 1)

	_, err := chain.Execute(context.Background())
	require.Error(t, err)
}

func TestClassifyStatusCodes(t *testing.T) {
	require.Equal(t, RateLimit, Classify("src", 429, nil).Kind)
	require.Equal(t, NotFound, Classify("src", 404, nil).Kind)
	require.Equal(t, InvalidInput, Classify("src", 400, nil).Kind)
	require.Equal(t, APIError, Classify("src", 503, nil).Kind)
}
