package sliqsim

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Q is the worker pool jobs run on
type Q struct {
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	tasks      chan Task
	space      *Space
	metrics    *Metrics
	breakers   map[string]*CircuitBreaker
	breakersMu sync.RWMutex
	workerMu   sync.Mutex
	workerList []*Worker
	config     *Config
	closeOnce  sync.Once
}

// NewQ creates a pool with config.Workers workers
func NewQ(ctx context.Context, config *Config) *Q {
	if config == nil {
		config = NewConfig()
	}

	ctx, cancel := context.WithCancel(ctx)
	q := &Q{
		ctx:        ctx,
		cancel:     cancel,
		tasks:      make(chan Task, config.QueueSize),
		space:      NewSpace(time.Minute),
		metrics:    NewMetrics(),
		breakers:   make(map[string]*CircuitBreaker),
		workerList: make([]*Worker, 0, config.Workers),
		config:     config,
	}

	for i := 0; i < config.Workers; i++ {
		q.startWorker(i)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.collectMetrics()
	}()

	return q
}

func (q *Q) collectMetrics() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.refreshMetrics()
		}
	}
}

func (q *Q) refreshMetrics() {
	q.metrics.mu.Lock()
	q.metrics.JobQueueSize = len(q.tasks)
	q.metrics.mu.Unlock()

	q.breakersMu.RLock()
	defer q.breakersMu.RUnlock()

	for id, breaker := range q.breakers {
		var regulator Regulator = breaker
		regulator.Observe(q.metrics)
		regulator.Renormalize()

		q.metrics.mu.Lock()
		q.metrics.CircuitBreakerStates[id] = breaker.State()
		q.metrics.mu.Unlock()
	}
}

// failed hands back an already resolved outcome channel for a task that never ran.
func (q *Q) failed(task Task, err error) chan Outcome {
	q.space.Store(task.ID, nil, err, task.TTL)
	return q.space.Await(task.ID)
}

// Schedule queues fn under id and returns a channel that receives its outcome.
func (q *Q) Schedule(id string, fn func(ctx context.Context) (any, error), opts ...TaskOption) chan Outcome {
	task := Task{
		ID:          id,
		Fn:          fn,
		RetryPolicy: defaultRetryPolicy(),
		TTL:         q.config.ResultTTL,
		StartTime:   time.Now(),
	}

	for _, opt := range opts {
		opt(&task)
	}

	if err := q.ctx.Err(); err != nil {
		return q.failed(task, fmt.Errorf("pool is closed: %w", err))
	}

	if breaker := q.getCircuitBreaker(task); breaker != nil && breaker.Limit() {
		q.metrics.recordRejection()
		logger.Warn("task rejected by circuit breaker", "task", id, "circuit", task.CircuitID)
		return q.failed(task, fmt.Errorf("circuit breaker %s is open", task.CircuitID))
	}

	timer := time.NewTimer(q.config.SchedulingTimeout)
	defer timer.Stop()

	select {
	case q.tasks <- task:
		logger.Debug("task scheduled", "task", id)
		return q.space.Await(id)
	case <-timer.C:
		q.metrics.recordSchedulingFailure()
		return q.failed(task, fmt.Errorf("task scheduling timeout after %v", q.config.SchedulingTimeout))
	case <-q.ctx.Done():
		return q.failed(task, fmt.Errorf("pool is closed: %w", q.ctx.Err()))
	}
}

// Await returns the outcome channel of a previously scheduled task.
func (q *Q) Await(id string) chan Outcome {
	return q.space.Await(id)
}

// Pending is the number of tasks waiting for a worker.
func (q *Q) Pending() int {
	return len(q.tasks)
}

// Metrics exposes the pool's live metrics. Read them through ExportMetrics.
func (q *Q) Metrics() *Metrics {
	return q.metrics
}

func (q *Q) startWorker(id int) {
	worker := &Worker{
		id:   id,
		pool: q,
	}

	q.workerMu.Lock()
	q.workerList = append(q.workerList, worker)
	q.workerMu.Unlock()

	q.metrics.mu.Lock()
	q.metrics.WorkerCount++
	count := q.metrics.WorkerCount
	q.metrics.mu.Unlock()

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		worker.run(q.ctx)
	}()

	logger.Debug("started worker", "worker", id, "total", count)
}

func (q *Q) getCircuitBreaker(task Task) *CircuitBreaker {
	if task.CircuitID == "" {
		return nil
	}

	q.breakersMu.Lock()
	defer q.breakersMu.Unlock()

	breaker, exists := q.breakers[task.CircuitID]
	if !exists {
		if task.CircuitConfig == nil {
			return nil
		}
		breaker = NewCircuitBreaker(
			task.CircuitConfig.MaxFailures,
			task.CircuitConfig.ResetTimeout,
			task.CircuitConfig.HalfOpenMax,
		)
		q.breakers[task.CircuitID] = breaker
	}

	return breaker
}

func (q *Q) breaker(id string) *CircuitBreaker {
	if id == "" {
		return nil
	}
	q.breakersMu.RLock()
	defer q.breakersMu.RUnlock()
	return q.breakers[id]
}

// Close cancels running work and waits for every worker to exit.
func (q *Q) Close() {
	if q == nil {
		return
	}

	q.closeOnce.Do(func() {
		logger.Debug("closing pool")
		q.cancel()
		q.wg.Wait()
		q.drain()
		q.space.Close()

		q.workerMu.Lock()
		q.workerList = nil
		q.workerMu.Unlock()
	})
}

// drain fails every task that was still queued when the workers stopped.
func (q *Q) drain() {
	for {
		select {
		case task := <-q.tasks:
			logger.Debug("dropping queued task", "task", task.ID)
			q.space.Store(task.ID, nil, fmt.Errorf("pool is closed: %w", q.ctx.Err()), task.TTL)
		default:
			return
		}
	}
}
