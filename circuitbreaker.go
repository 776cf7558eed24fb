package sliqsim

import (
	"sync"
	"time"
)

/*
CircuitState represents the state of the circuit breaker.
This is used to track whether a simulator executable is currently trusted
to run jobs, based on how its recent runs went.
*/
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Normal operation state
	CircuitOpen                         // Failure state, rejecting jobs
	CircuitHalfOpen                     // Probationary state, allowing limited jobs
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

/*
CircuitBreaker implements both the circuit breaker pattern and Regulator interface.
Backends key one breaker per simulator executable: when the binary keeps
crashing or exiting non-zero, further jobs are rejected at scheduling time
instead of each spawning a process that is bound to fail.

The circuit breaker operates in three states:
  - Closed: Normal operation, all jobs are allowed
  - Open: Failure threshold exceeded, all jobs are rejected
  - Half-Open: Probationary state allowing limited jobs to test the executable
*/
type CircuitBreaker struct {
	mu                sync.RWMutex
	maxFailures       int           // Maximum failures before opening circuit
	resetTimeout      time.Duration // Time to wait before attempting recovery
	halfOpenMax       int           // Probe jobs admitted while half-open
	failureCount      int           // Current count of consecutive failures
	state             CircuitState  // Current state of the circuit breaker
	openTime          time.Time     // Time when circuit was opened
	halfOpenAttempts  int           // Probes admitted since entering half-open
	halfOpenSuccesses int           // Probes that succeeded since entering half-open
	metrics           *Metrics      // Current pool metrics
}

/*
NewCircuitBreaker creates a new circuit breaker instance with specified parameters.

Parameters:
  - maxFailures: Number of failures allowed before opening the circuit
  - resetTimeout: Duration to wait before attempting to close an open circuit
  - halfOpenMax: Number of probe jobs admitted while half-open; all of them
    must succeed before the circuit closes again

Returns:
  - *CircuitBreaker: A new circuit breaker instance initialized in closed state
*/
func NewCircuitBreaker(maxFailures int, resetTimeout time.Duration, halfOpenMax int) *CircuitBreaker {
	return &CircuitBreaker{
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		halfOpenMax:  halfOpenMax,
		state:        CircuitClosed,
	}
}

/*
Observe implements the Regulator interface by accepting pool metrics.
*/
func (cb *CircuitBreaker) Observe(metrics *Metrics) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.metrics = metrics
}

/*
Limit implements the Regulator interface by determining if jobs should be limited.
Unlike Allow it admits nothing, so a half-open probe is only taken by the
worker that actually runs the job.

Returns:
  - bool: true if jobs should be limited, false if they should proceed
*/
func (cb *CircuitBreaker) Limit() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	switch cb.state {
	case CircuitOpen:
		return time.Since(cb.openTime) <= cb.resetTimeout
	case CircuitHalfOpen:
		return cb.halfOpenAttempts >= cb.halfOpenMax
	default:
		return false
	}
}

/*
Renormalize implements the Regulator interface by attempting to restore normal operation.
This method checks if enough time has passed since the circuit was opened and
transitions to half-open state if appropriate.
*/
func (cb *CircuitBreaker) Renormalize() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitOpen && time.Since(cb.openTime) > cb.resetTimeout {
		cb.enterHalfOpen()
		logger.Info("circuit breaker renormalized to half-open state")
	}
}

/*
RecordFailure records a failure and updates the circuit state.
This method tracks the number of consecutive failures and opens the circuit
once the threshold is reached. A failure while half-open reopens it at once.
*/
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++

	switch cb.state {
	case CircuitHalfOpen:
		cb.state = CircuitOpen
		cb.openTime = time.Now()
		logger.Warn("circuit breaker reopened from half-open state")
	case CircuitClosed:
		if cb.failureCount >= cb.maxFailures {
			cb.state = CircuitOpen
			cb.openTime = time.Now()
			logger.Warn("circuit breaker opened", "failures", cb.failureCount)
		}
	}
}

/*
RecordSuccess records a successful attempt and updates the circuit state.
This method handles the transition from half-open to closed state after
successful jobs, and resets failure counts in closed state.
*/
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.halfOpenMax {
			cb.state = CircuitClosed
			cb.failureCount = 0
			cb.halfOpenAttempts = 0
			cb.halfOpenSuccesses = 0
			logger.Info("circuit breaker closed from half-open")
		}
	case CircuitClosed:
		cb.failureCount = 0
	}
}

/*
Allow determines if a job is allowed based on the circuit state. While
half-open every true result takes one of the halfOpenMax probes; a probe
that ends without a verdict on the executable is handed back with Release.

Returns:
  - bool: true if the job should be allowed, false if it should be rejected
*/
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if time.Since(cb.openTime) <= cb.resetTimeout {
			return false
		}
		cb.enterHalfOpen()
		return cb.admitProbe()
	case CircuitHalfOpen:
		return cb.admitProbe()
	default:
		return false
	}
}

// Release returns a half-open probe whose job failed for reasons unrelated to the executable.
func (cb *CircuitBreaker) Release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen && cb.halfOpenAttempts > 0 {
		cb.halfOpenAttempts--
	}
}

func (cb *CircuitBreaker) enterHalfOpen() {
	cb.state = CircuitHalfOpen
	cb.halfOpenAttempts = 0
	cb.halfOpenSuccesses = 0
}

func (cb *CircuitBreaker) admitProbe() bool {
	if cb.halfOpenAttempts >= cb.halfOpenMax {
		return false
	}
	cb.halfOpenAttempts++
	return true
}

// State returns the breaker's current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
