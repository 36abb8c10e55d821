package ratelimit_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutdeck/enricher/internal/ratelimit"
)

// fastConfig keeps backoff sleeps in the low-millisecond range.
func fastConfig() ratelimit.Config {
	return ratelimit.Config{
		MaxRetries:            3,
		BaseDelay:             time.Millisecond,
		MaxDelay:              20 * time.Millisecond,
		ErrorThresholdPercent: 20,
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string   { return fmt.Sprintf("http status %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())

	res := ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		return "ok", nil
	}, nil)

	require.True(t, res.Success)
	assert.Equal(t, "ok", res.Data)
	assert.Zero(t, res.Retries)
	assert.False(t, res.WasRateLimited)
	assert.Zero(t, l.ConsecutiveRateLimits())
}

func TestExecuteRetriesTransientErrorThenSucceeds(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())
	calls := 0

	res := ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	}, nil)

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Retries)
	assert.False(t, res.WasRateLimited)
}

func TestExecuteExhaustsRetriesOnRateLimit(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())
	calls := 0

	res := ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		calls++
		return "", &statusError{code: 429}
	}, nil)

	require.False(t, res.Success)
	assert.Equal(t, 4, calls)
	assert.Equal(t, 3, res.Retries)
	assert.True(t, res.WasRateLimited)
	assert.Equal(t, 4, l.ConsecutiveRateLimits())

	m := l.GetMetrics()
	assert.Equal(t, 4, m.Attempts)
	assert.Equal(t, 4, m.RateLimitEvents)
}

func TestExecuteSuccessResetsConsecutiveRateLimits(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())
	calls := 0

	res := ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &statusError{code: 429}
		}
		return "ok", nil
	}, nil)

	require.True(t, res.Success)
	assert.Zero(t, l.ConsecutiveRateLimits())
}

func TestExecuteNonRateLimitErrorResetsConsecutive(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())
	errs := []error{
		&statusError{code: 429},
		errors.New("timeout after 30s"),
		&statusError{code: 429},
		&statusError{code: 429},
	}
	calls := 0

	res := ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		err := errs[calls]
		calls++
		return "", err
	}, nil)

	require.False(t, res.Success)
	assert.Equal(t, 2, l.ConsecutiveRateLimits())
}

func TestBackoffDelaysNonDecreasingAndCapped(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{
		MaxRetries:            5,
		BaseDelay:             time.Millisecond,
		MaxDelay:              8 * time.Millisecond,
		ErrorThresholdPercent: 20,
	})

	var delays []time.Duration
	ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		return "", errors.New("boom")
	}, func(attempt int, delay time.Duration) {
		delays = append(delays, delay)
	})

	require.Len(t, delays, 5)
	for i, d := range delays {
		assert.LessOrEqual(t, d, 8*time.Millisecond)
		if i > 0 {
			assert.GreaterOrEqual(t, d, delays[i-1])
		}
	}
}

func TestExecuteStopsOnContextCancel(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{
		MaxRetries:            3,
		BaseDelay:             time.Minute,
		MaxDelay:              2 * time.Minute,
		ErrorThresholdPercent: 20,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := ratelimit.Execute(ctx, l, func(context.Context) (string, error) {
		return "", errors.New("boom")
	}, nil)

	require.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestGetMetricsErrorRate(t *testing.T) {
	l := ratelimit.NewLimiter(ratelimit.Config{
		MaxRetries:            0,
		BaseDelay:             time.Millisecond,
		MaxDelay:              time.Millisecond,
		ErrorThresholdPercent: 20,
	})

	// 12 attempts, 3 failures: 25.0% error rate over a meaningful sample.
	for i := 0; i < 12; i++ {
		fail := i < 3
		ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
			if fail {
				return "", errors.New("boom")
			}
			return "ok", nil
		}, nil)
	}

	m := l.GetMetrics()
	assert.Equal(t, 12, m.Attempts)
	assert.Equal(t, 3, m.Errors)
	assert.InDelta(t, 25.0, m.ErrorRate, 0.01)
	assert.True(t, m.ShouldSlowDown)
}

func TestShouldSlowDownNeedsSample(t *testing.T) {
	l := ratelimit.NewLimiter(fastConfig())

	// One attempt, one failure: 100% error rate but too small a sample.
	ratelimit.Execute(context.Background(), l, func(context.Context) (string, error) {
		return "", errors.New("boom")
	}, nil)

	assert.False(t, l.GetMetrics().ShouldSlowDown)
}

func TestIsRateLimit(t *testing.T) {
	assert.True(t, ratelimit.IsRateLimit(&statusError{code: 429}))
	assert.False(t, ratelimit.IsRateLimit(&statusError{code: 503}))
	assert.True(t, ratelimit.IsRateLimit(errors.New("HTTP Error 429: Too Many Requests")))
	assert.True(t, ratelimit.IsRateLimit(errors.New("rate limit exceeded")))
	assert.False(t, ratelimit.IsRateLimit(errors.New("connection refused")))
	assert.False(t, ratelimit.IsRateLimit(nil))
}
