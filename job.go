package sliqsim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// JobStatus is where a job is in its lifecycle.
type JobStatus string

const (
	JobInitializing JobStatus = "INITIALIZING"
	JobQueued       JobStatus = "QUEUED"
	JobRunning      JobStatus = "RUNNING"
	JobDone         JobStatus = "DONE"
	JobError        JobStatus = "ERROR"
)

/*
Job is one qobj submitted to a backend. It runs asynchronously on the
provider's pool; Result blocks until it has finished.
*/
type Job struct {
	mu      sync.RWMutex
	id      string
	backend *Backend
	qobj    *Qobj
	status  JobStatus
	outcome chan Outcome
	result  *Result
	err     error
	done    chan struct{}
}

func newJob(backend *Backend, qobj *Qobj) *Job {
	return &Job{
		id:      uuid.NewString(),
		backend: backend,
		qobj:    qobj,
		status:  JobInitializing,
		done:    make(chan struct{}),
	}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) Backend() *Backend {
	return j.backend
}

// Submit schedules the job. A job can only be submitted once.
func (j *Job) Submit() error {
	j.mu.Lock()
	if j.status != JobInitializing {
		j.mu.Unlock()
		return fmt.Errorf("job %s: %w", j.id, ErrJobSubmitted)
	}
	j.status = JobQueued
	j.mu.Unlock()

	outcome := j.backend.schedule(j)

	go j.wait(outcome)
	return nil
}

func (j *Job) wait(outcome chan Outcome) {
	value := <-outcome

	j.mu.Lock()
	defer j.mu.Unlock()

	if value.Error != nil {
		j.status = JobError
		j.err = value.Error
	} else if result, ok := value.Value.(*Result); ok {
		j.status = JobDone
		j.result = result
	} else {
		j.status = JobError
		j.err = fmt.Errorf("job %s produced %T instead of a result", j.id, value.Value)
	}
	close(j.done)
}

func (j *Job) markRunning() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.status == JobQueued {
		j.status = JobRunning
	}
}

func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Done reports whether the job has finished, successfully or not.
func (j *Job) Done() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Result waits for the job and returns its result or the error that aborted it.
func (j *Job) Result(ctx context.Context) (*Result, error) {
	if j.Status() == JobInitializing {
		return nil, fmt.Errorf("job %s was never submitted: %w", j.id, ErrJobNotDone)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("job %s: %w: %w", j.id, ErrJobNotDone, ctx.Err())
	case <-j.done:
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result, j.err
}
