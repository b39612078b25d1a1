package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"caredesk/models"

	"go.uber.org/zap"
)

func TestScheduler_RunOnce(t *testing.T) {
	var calls int
	s := NewScheduler(zap.NewNop(), 0, Task{
		Name:     "booking-sync",
		Interval: time.Hour,
		Run: func(context.Context) error {
			calls++
			return nil
		},
	})

	if err := s.RunOnce(context.Background(), "booking-sync"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if err := s.RunOnce(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for unknown task")
	}
}

func TestScheduler_RunOnceSurfacesSkip(t *testing.T) {
	s := NewScheduler(zap.NewNop(), 0, Task{
		Name: "full",
		Run:  func(context.Context) error { return models.ErrAlreadyRunning },
	})
	if err := s.RunOnce(context.Background(), "full"); !errors.Is(err, models.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestScheduler_LoopRunsDueTasksSequentially(t *testing.T) {
	var fast, slow, inFlight, overlap int32
	guard := func(counter *int32) func(context.Context) error {
		return func(context.Context) error {
			if atomic.AddInt32(&inFlight, 1) > 1 {
				atomic.StoreInt32(&overlap, 1)
			}
			atomic.AddInt32(counter, 1)
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}
	}
	s := NewScheduler(zap.NewNop(), time.Millisecond,
		Task{Name: "fast", Interval: 5 * time.Millisecond, Run: guard(&fast)},
		Task{Name: "slow", Interval: 20 * time.Millisecond, Run: guard(&slow)},
		Task{Name: "manual", Interval: 0, Run: func(context.Context) error {
			t.Error("manual task must not be scheduled")
			return nil
		}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	<-s.Start(ctx)

	if atomic.LoadInt32(&fast) < 3 || atomic.LoadInt32(&slow) < 1 {
		t.Fatalf("expected both tasks to run, got fast=%d slow=%d", fast, slow)
	}
	if atomic.LoadInt32(&fast) <= atomic.LoadInt32(&slow) {
		t.Fatalf("expected the fast task to run more often, got fast=%d slow=%d", fast, slow)
	}
	if atomic.LoadInt32(&overlap) != 0 {
		t.Fatal("expected tasks never to overlap")
	}
}

func TestScheduler_StopsWithoutTasks(t *testing.T) {
	s := NewScheduler(zap.NewNop(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := s.Start(ctx)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the loop to exit after cancellation")
	}
}
