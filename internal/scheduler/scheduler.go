// Package scheduler runs named maintenance tasks on fixed intervals, such
// as sweeping expired feed cache entries.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Task is one unit of periodic work. It must respect ctx cancellation.
type Task func(ctx context.Context)

type job struct {
	name     string
	interval time.Duration
	task     Task
}

// Scheduler runs registered tasks on their intervals until stopped.
type Scheduler struct {
	clock  clockwork.Clock
	logger *slog.Logger

	mu      sync.Mutex
	jobs    []job
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// NewScheduler creates a scheduler.
func NewScheduler(clock clockwork.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		logger: logger,
	}
}

// Add registers a task. Must be called before Start.
func (s *Scheduler) Add(name string, interval time.Duration, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, job{name: name, interval: interval, task: task})
}

// Start launches one goroutine per registered task. Calling Start twice is a
// no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	ctx, s.cancel = context.WithCancel(ctx)
	for _, j := range s.jobs {
		s.wg.Add(1)
		go s.run(ctx, j)
	}
}

func (s *Scheduler) run(ctx context.Context, j job) {
	defer s.wg.Done()

	s.logger.Info("scheduler task started",
		slog.String("task", j.name),
		slog.Duration("interval", j.interval),
	)

	ticker := s.clock.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler task stopped", slog.String("task", j.name))
			return
		case <-ticker.Chan():
			j.task(ctx)
		}
	}
}

// Stop cancels every task and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	started := s.started
	s.mu.Unlock()

	if !started || cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
}
