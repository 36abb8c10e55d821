// Package ratelimit wraps a single unit of scraping work with bounded retries,
// exponential backoff keyed to HTTP 429 responses, and running error
// statistics. A Limiter is constructed fresh for every batch invocation and is
// not shared across invocations or jobs.
package ratelimit

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Default limiter configuration values.
const (
	DefaultMaxRetries     = 3
	DefaultBaseDelay      = 5 * time.Second
	DefaultMaxDelay       = 2 * time.Minute
	DefaultErrorThreshold = 20.0

	// rateLimitBackoffFactor stretches the backoff base for 429 responses.
	rateLimitBackoffFactor = 3

	// jitterFraction is the +/- random spread applied to each backoff delay.
	jitterFraction = 0.2

	// minAttemptsForSlowMode avoids flagging slow mode on a tiny sample.
	minAttemptsForSlowMode = 10
)

// Config parameterizes a Limiter.
type Config struct {
	MaxRetries            int
	BaseDelay             time.Duration
	MaxDelay              time.Duration
	ErrorThresholdPercent float64
}

// DefaultConfig returns the production limiter configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:            DefaultMaxRetries,
		BaseDelay:             DefaultBaseDelay,
		MaxDelay:              DefaultMaxDelay,
		ErrorThresholdPercent: DefaultErrorThreshold,
	}
}

// Result is the outcome of one Execute call.
type Result[T any] struct {
	Success        bool
	Data           T
	Err            error
	Retries        int
	WasRateLimited bool
}

// Metrics is a snapshot of the limiter's running statistics.
type Metrics struct {
	Attempts              int
	Errors                int
	RateLimitEvents       int
	ConsecutiveRateLimits int
	// ErrorRate is a percentage rounded to one decimal.
	ErrorRate float64
	// ShouldSlowDown reports that the error rate crossed the configured
	// threshold over a meaningful sample.
	ShouldSlowDown bool
}

// RetryFunc is invoked before each retry sleep for observability.
type RetryFunc func(attempt int, delay time.Duration)

// Limiter tracks retry and rate-limit statistics across the units of work of
// one batch. Not safe for concurrent use; batch processing is sequential.
type Limiter struct {
	cfg                   Config
	attempts              int
	errors                int
	rateLimitEvents       int
	consecutiveRateLimits int
}

// NewLimiter creates a limiter, filling unset config values with defaults.
// MaxRetries of zero is a valid setting (no retries); negative means default.
func NewLimiter(cfg Config) *Limiter {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.ErrorThresholdPercent == 0 {
		cfg.ErrorThresholdPercent = DefaultErrorThreshold
	}
	return &Limiter{cfg: cfg}
}

// Execute runs fn with retry logic and exponential backoff. Rate-limit
// failures (HTTP 429) and other transient failures share the same retry cap;
// 429s use a longer backoff base and are tracked separately.
func Execute[T any](ctx context.Context, l *Limiter, fn func(context.Context) (T, error), onRetry RetryFunc) Result[T] {
	var zero T
	var lastErr error
	wasRateLimited := false

	for attempt := 0; attempt <= l.cfg.MaxRetries; attempt++ {
		l.attempts++

		data, err := fn(ctx)
		if err == nil {
			l.consecutiveRateLimits = 0
			return Result[T]{Success: true, Data: data, Retries: attempt}
		}

		l.errors++
		lastErr = err

		rateLimited := IsRateLimit(err)
		if rateLimited {
			wasRateLimited = true
			l.rateLimitEvents++
			l.consecutiveRateLimits++
		} else {
			l.consecutiveRateLimits = 0
		}

		if attempt == l.cfg.MaxRetries {
			break
		}

		delay := l.backoffDelay(attempt, rateLimited)
		if onRetry != nil {
			onRetry(attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return Result[T]{Data: zero, Err: ctx.Err(), Retries: attempt, WasRateLimited: wasRateLimited}
		case <-time.After(delay):
		}
	}

	return Result[T]{Data: zero, Err: lastErr, Retries: l.cfg.MaxRetries, WasRateLimited: wasRateLimited}
}

// backoffDelay computes min(base * 2^attempt, cap) with a tripled base for
// rate limits and +/-20% jitter. The jitter band is narrower than the doubling
// step, so the sequence stays non-decreasing.
func (l *Limiter) backoffDelay(attempt int, rateLimited bool) time.Duration {
	base := l.cfg.BaseDelay
	if rateLimited {
		base *= rateLimitBackoffFactor
	}

	delay := float64(base) * math.Pow(2, float64(attempt))
	jitter := delay * jitterFraction * (rand.Float64()*2 - 1)
	delay += jitter

	if capped := float64(l.cfg.MaxDelay); delay > capped {
		delay = capped
	}

	return time.Duration(delay)
}

// GetMetrics returns a snapshot of the limiter's running statistics.
func (l *Limiter) GetMetrics() Metrics {
	var errorRate float64
	if l.attempts > 0 {
		errorRate = float64(l.errors) / float64(l.attempts) * 100
		errorRate = math.Round(errorRate*10) / 10
	}

	return Metrics{
		Attempts:              l.attempts,
		Errors:                l.errors,
		RateLimitEvents:       l.rateLimitEvents,
		ConsecutiveRateLimits: l.consecutiveRateLimits,
		ErrorRate:             errorRate,
		ShouldSlowDown:        l.attempts >= minAttemptsForSlowMode && errorRate >= l.cfg.ErrorThresholdPercent,
	}
}

// ConsecutiveRateLimits returns the current consecutive-429 count. The
// orchestrator reads this to trip its circuit breaker.
func (l *Limiter) ConsecutiveRateLimits() int {
	return l.consecutiveRateLimits
}

// statusCoder is implemented by errors carrying an HTTP status code.
type statusCoder interface {
	StatusCode() int
}

// IsRateLimit classifies an error as an HTTP 429 rate-limit response, either
// through a carried status code or by message inspection.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode() == 429
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}
