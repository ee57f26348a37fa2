package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a deferred unit of work executed when its timer fires.
type Task func(context.Context)

// Scheduler runs keyed tasks after a delay. Scheduling an existing key
// replaces its pending timer; Cancel discards it. A fired task is detached
// from the key before it runs, so it may re-schedule itself.
type Scheduler struct {
	logger *zap.Logger

	mu      sync.Mutex
	timers  map[string]*time.Timer
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler builds an idle scheduler.
func NewScheduler(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		logger: logger,
		timers: make(map[string]*time.Timer),
	}
}

// Start activates the scheduler. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.logger.Sugar().Infow("scheduler started")
}

// Stop cancels all pending timers and waits for in-flight tasks.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	for key, timer := range s.timers {
		if timer.Stop() {
			s.wg.Done()
		}
		delete(s.timers, key)
	}
	s.started = false
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Sugar().Infow("scheduler stopped")
}

// Schedule queues task to run after delay under key, replacing any pending
// timer for the same key. A non-positive delay fires immediately.
func (s *Scheduler) Schedule(key string, delay time.Duration, task func(context.Context)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return fmt.Errorf("scheduler not started")
	}
	if prev, ok := s.timers[key]; ok {
		if prev.Stop() {
			s.wg.Done()
		}
	}
	if delay < 0 {
		delay = 0
	}
	s.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		if current, ok := s.timers[key]; ok && current == timer {
			delete(s.timers, key)
		}
		ctx := s.ctx
		s.mu.Unlock()

		if ctx == nil || ctx.Err() != nil {
			return
		}
		task(ctx)
	})
	s.timers[key] = timer
	return nil
}

// Cancel stops the pending timer for key. It reports whether a timer was
// pending; a task that already fired is not interrupted.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	if timer.Stop() {
		s.wg.Done()
	}
	return true
}

// Pending returns the number of timers that have not fired.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
