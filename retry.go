package sliqsim

import (
	"math"
	"time"
)

// RetryPolicy defines retry behavior
type RetryPolicy struct {
	MaxAttempts int
	Strategy    RetryStrategy
	// Filter reports whether an error may be retried. Nil retries everything.
	Filter func(error) bool
}

// RetryStrategy defines the interface for retry behavior
type RetryStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff implements RetryStrategy
type ExponentialBackoff struct {
	Initial time.Duration
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	return eb.Initial * time.Duration(math.Pow(2, float64(attempt-1)))
}

// retryable refuses every simulation pipeline error.
func retryable(err error) bool {
	return !isPipelineError(err)
}

func defaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 1,
		Strategy:    &ExponentialBackoff{Initial: time.Second},
		Filter:      retryable,
	}
}

// WithCircuitBreaker configures circuit breaker for a task
func WithCircuitBreaker(id string, maxFailures int, resetTimeout time.Duration, halfOpenMax int) TaskOption {
	return func(t *Task) {
		t.CircuitID = id
		t.CircuitConfig = &CircuitBreakerConfig{
			MaxFailures:  maxFailures,
			ResetTimeout: resetTimeout,
			HalfOpenMax:  halfOpenMax,
		}
	}
}

// WithRetry configures retry behavior for a task. Pipeline errors are still never retried.
func WithRetry(attempts int, strategy RetryStrategy) TaskOption {
	return func(t *Task) {
		t.RetryPolicy = &RetryPolicy{
			MaxAttempts: attempts,
			Strategy:    strategy,
			Filter:      retryable,
		}
	}
}
