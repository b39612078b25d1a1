package cron

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"caredesk/models"

	"go.uber.org/zap"
)

// Task is one periodic job. Run must not be called concurrently with itself; the
// scheduler guarantees that by running every task on its single goroutine.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives a fixed task list from one goroutine. Tasks run one after another,
// never in parallel; a task that is due while another runs waits its turn.
type Scheduler struct {
	tasks  []Task
	jitter time.Duration
	logger *zap.Logger

	mu   sync.Mutex
	rand *rand.Rand
}

func NewScheduler(logger *zap.Logger, jitter time.Duration, tasks ...Task) *Scheduler {
	return &Scheduler{
		tasks:  tasks,
		jitter: jitter,
		logger: logger.Named("Scheduler"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Scheduler) delay(interval time.Duration) time.Duration {
	if s.jitter <= 0 {
		return interval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return interval + time.Duration(s.rand.Int63n(int64(s.jitter)))
}

// RunOnce runs the named task synchronously.
func (s *Scheduler) RunOnce(ctx context.Context, name string) error {
	for _, t := range s.tasks {
		if t.Name == name {
			return s.run(ctx, t)
		}
	}
	return fmt.Errorf("unknown task %q", name)
}

func (s *Scheduler) run(ctx context.Context, t Task) error {
	started := time.Now()
	err := t.Run(ctx)
	switch {
	case errors.Is(err, models.ErrAlreadyRunning):
		s.logger.Info("task skipped, a reconciliation pass is running", zap.String("task", t.Name))
	case err != nil:
		s.logger.Error("task failed", zap.String("task", t.Name), zap.Error(err))
	default:
		s.logger.Debug("task finished", zap.String("task", t.Name), zap.Duration("took", time.Since(started)))
	}
	return err
}

// Start runs the loop in the background until ctx is cancelled. The returned channel is
// closed once the loop has exited.
func (s *Scheduler) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.loop(ctx)
	}()
	return done
}

func (s *Scheduler) loop(ctx context.Context) {
	now := time.Now()
	next := make([]time.Time, len(s.tasks))
	for i, t := range s.tasks {
		next[i] = now.Add(s.delay(t.Interval))
	}

	for {
		idx := -1
		for i, t := range s.tasks {
			if t.Interval <= 0 {
				continue
			}
			if idx < 0 || next[i].Before(next[idx]) {
				idx = i
			}
		}
		if idx < 0 {
			<-ctx.Done()
			return
		}

		timer := time.NewTimer(time.Until(next[idx]))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		_ = s.run(ctx, s.tasks[idx])
		next[idx] = time.Now().Add(s.delay(s.tasks[idx].Interval))
	}
}
