package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// TaskFn is the function signature for scheduled tasks.
type TaskFn func()

// Scheduler runs named periodic and one-shot tasks. Registering a task under
// an existing name replaces the old one, so an owner can reschedule by name
// without tracking handles.
type Scheduler struct {
	mu      sync.Mutex
	cancels map[string]func()
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped bool
}

// New creates a Scheduler.
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cancels: make(map[string]func()),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Every registers fn to run on a fixed interval until removed or the
// scheduler stops.
func (s *Scheduler) Every(name string, interval time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.replaceLocked(name)

	stopCh := make(chan struct{})
	s.cancels[name] = func() { close(stopCh) }

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(name, fn)
			case <-stopCh:
				return
			case <-s.stopCh:
				return
			}
		}
	}()
	s.logger.Debug("scheduler task registered",
		zap.String("name", name), zap.Duration("interval", interval))
}

// After runs fn once after the given delay unless removed first.
func (s *Scheduler) After(name string, delay time.Duration, fn TaskFn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.replaceLocked(name)

	timer := time.AfterFunc(delay, func() {
		s.Remove(name)
		s.run(name, fn)
	})
	s.cancels[name] = func() { timer.Stop() }
}

// Remove cancels the task registered under name, if any.
func (s *Scheduler) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(name)
}

// Stop cancels every task. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.stopCh)
	for name, cancel := range s.cancels {
		cancel()
		delete(s.cancels, name)
	}
}

func (s *Scheduler) replaceLocked(name string) {
	if cancel, ok := s.cancels[name]; ok {
		cancel()
		delete(s.cancels, name)
	}
}

// run executes one task invocation, keeping a panicking task from taking the
// whole process down.
func (s *Scheduler) run(name string, fn TaskFn) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler task panicked",
				zap.String("task", name), zap.Any("recover", r))
		}
	}()
	fn()
}
