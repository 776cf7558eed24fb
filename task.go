package sliqsim

import (
	"context"
	"time"
)

// Task is a unit of work scheduled on the pool.
type Task struct {
	ID            string
	Fn            func(ctx context.Context) (any, error)
	RetryPolicy   *RetryPolicy
	CircuitID     string
	CircuitConfig *CircuitBreakerConfig
	TTL           time.Duration
	Timeout       time.Duration
	OnStart       func()
	Attempt       int
	LastError     error
	StartTime     time.Time
}

// TaskOption configures a task before it is queued.
type TaskOption func(*Task)

// CircuitBreakerConfig struct
type CircuitBreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	HalfOpenMax  int
}

// WithTTL configures how long a task's outcome is kept
func WithTTL(ttl time.Duration) TaskOption {
	return func(t *Task) {
		t.TTL = ttl
	}
}

// WithTimeout bounds the task's run time through its context.
func WithTimeout(timeout time.Duration) TaskOption {
	return func(t *Task) {
		t.Timeout = timeout
	}
}

// WithStartHook is called by the worker right before the task first runs.
func WithStartHook(fn func()) TaskOption {
	return func(t *Task) {
		t.OnStart = fn
	}
}
