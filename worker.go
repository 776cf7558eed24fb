package sliqsim

import (
	"context"
	"fmt"
	"time"
)

// Worker processes tasks
type Worker struct {
	id   int
	pool *Q
}

func (w *Worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-w.pool.tasks:
			if err := ctx.Err(); err != nil {
				w.pool.space.Store(task.ID, nil, fmt.Errorf("pool is closed: %w", err), task.TTL)
				return
			}
			result, err := w.processTask(ctx, task)
			w.pool.space.Store(task.ID, result, err, task.TTL)
		}
	}
}

func (w *Worker) processTask(ctx context.Context, task Task) (any, error) {
	if breaker := w.pool.breaker(task.CircuitID); breaker != nil && !breaker.Allow() {
		logger.Warn("task not allowed by circuit breaker", "task", task.ID, "circuit", task.CircuitID)
		return nil, fmt.Errorf("circuit breaker open for %s", task.CircuitID)
	}

	if task.OnStart != nil {
		task.OnStart()
	}

	if task.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, task.Timeout)
		defer cancel()
	}

	result, err := w.executeWithRetries(ctx, task)
	w.pool.metrics.recordJobExecution(task.StartTime, err == nil)

	if err != nil {
		return nil, err
	}

	if breaker := w.pool.breaker(task.CircuitID); breaker != nil {
		breaker.RecordSuccess()
	}
	return result, nil
}

func (w *Worker) executeWithRetries(ctx context.Context, task Task) (any, error) {
	policy := task.RetryPolicy
	if policy == nil {
		policy = defaultRetryPolicy()
	}

	for task.Attempt = 0; task.Attempt < max(policy.MaxAttempts, 1); task.Attempt++ {
		if task.Attempt > 0 {
			delay := policy.Strategy.NextDelay(task.Attempt)
			logger.Info("retrying task", "task", task.ID, "attempt", task.Attempt+1, "delay", delay)

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("task %s cancelled before retry: %w", task.ID, task.LastError)
			case <-time.After(delay):
			}
		}

		result, err := task.Fn(ctx)
		if err == nil {
			return result, nil
		}

		task.LastError = err
		logger.Error("task attempt failed", "task", task.ID, "attempt", task.Attempt+1, "err", err)
		w.recordFailure(task.CircuitID, err)

		if policy.Filter != nil && !policy.Filter(err) {
			break
		}
	}

	if policy.MaxAttempts <= 1 || task.Attempt == 0 {
		return nil, task.LastError
	}
	return nil, fmt.Errorf("all retries failed for task %s: %w", task.ID, task.LastError)
}

/*
recordFailure only counts failures of the simulator process itself against
the breaker: a circuit using an unsupported gate says nothing about whether
the executable works, so such a failure only hands back its half-open probe.
*/
func (w *Worker) recordFailure(circuitID string, err error) {
	breaker := w.pool.breaker(circuitID)
	if breaker == nil {
		return
	}

	if isPipelineError(err) && !isExecutionError(err) {
		breaker.Release()
		return
	}
	breaker.RecordFailure()
}
