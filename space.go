package sliqsim

import (
	"errors"
	"sync"
	"time"
)

// ErrSpaceClosed resolves any wait that can no longer be satisfied.
var ErrSpaceClosed = errors.New("outcome space is closed")

// Outcome wraps a finished task's value with metadata
type Outcome struct {
	Value     any
	Error     error
	CreatedAt time.Time
	TTL       time.Duration
}

// Space keeps task outcomes until they expire and hands them to waiters.
type Space struct {
	mu      sync.RWMutex
	values  map[string]Outcome
	waiting map[string][]chan Outcome
	done    chan struct{}
	closed  bool
	once    sync.Once
	wg      sync.WaitGroup
}

func NewSpace(cleanupInterval time.Duration) *Space {
	s := &Space{
		values:  make(map[string]Outcome),
		waiting: make(map[string][]chan Outcome),
		done:    make(chan struct{}),
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.cleanup(cleanupInterval)
	}()

	return s
}

// Store records an outcome and notifies any waiting channels
func (s *Space) Store(id string, value any, err error, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcome := Outcome{
		Value:     value,
		Error:     err,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	s.values[id] = outcome
	logger.Debug("stored outcome", "task", id, "err", err)

	for _, ch := range s.waiting[id] {
		// Await channels are buffered for exactly one outcome.
		ch <- outcome
		close(ch)
	}
	delete(s.waiting, id)
}

// Await returns a channel that receives the outcome once it is stored
func (s *Space) Await(id string) chan Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Outcome, 1)

	if outcome, ok := s.values[id]; ok {
		ch <- outcome
		close(ch)
		return ch
	}

	if s.closed {
		ch <- Outcome{Error: ErrSpaceClosed, CreatedAt: time.Now()}
		close(ch)
		return ch
	}

	s.waiting[id] = append(s.waiting[id], ch)
	return ch
}

// Lookup returns a stored outcome without waiting.
func (s *Space) Lookup(id string) (Outcome, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outcome, ok := s.values[id]
	return outcome, ok
}

func (s *Space) cleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.CleanUp()
		}
	}
}

// CleanUp drops outcomes whose TTL has passed. A zero TTL never expires.
func (s *Space) CleanUp() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, outcome := range s.values {
		if outcome.TTL > 0 && now.Sub(outcome.CreatedAt) > outcome.TTL {
			delete(s.values, id)
		}
	}
}

// Close stops the cleanup loop and fails every outstanding wait with ErrSpaceClosed.
func (s *Space) Close() {
	s.once.Do(func() {
		close(s.done)

		s.mu.Lock()
		s.closed = true
		outcome := Outcome{Error: ErrSpaceClosed, CreatedAt: time.Now()}
		for id, waiters := range s.waiting {
			for _, ch := range waiters {
				ch <- outcome
				close(ch)
			}
			delete(s.waiting, id)
		}
		s.mu.Unlock()
	})
	s.wg.Wait()
}
