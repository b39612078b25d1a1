package cron

import (
	"context"
	"errors"
	"testing"

	"caredesk/models"
	"caredesk/services/reconcile"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type fakeRunner struct {
	synced []models.ProfessionalRef
	full   int
	err    error
}

func (f *fakeRunner) RunFull(context.Context) (*reconcile.Report, error) {
	f.full++
	return &reconcile.Report{}, f.err
}

func (f *fakeRunner) SyncAvailability(_ context.Context, only *models.ProfessionalRef) (*reconcile.PhaseResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.synced = append(f.synced, *only)
	return &reconcile.PhaseResult{Phase: reconcile.PhaseAvailabilitySync}, nil
}

func TestHandleAvailabilitySync(t *testing.T) {
	runner := &fakeRunner{}
	ref := models.ProfessionalRef{Kind: models.KindPathology, ID: "lab-7"}
	task, err := NewAvailabilitySyncTask(ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := handleAvailabilitySync(runner, zap.NewNop())(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runner.synced) != 1 || runner.synced[0] != ref {
		t.Fatalf("expected sync for %s, got %v", ref, runner.synced)
	}
}

func TestHandleAvailabilitySync_RetriesWhenBusy(t *testing.T) {
	runner := &fakeRunner{err: models.ErrAlreadyRunning}
	task, _ := NewAvailabilitySyncTask(models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"})

	err := handleAvailabilitySync(runner, zap.NewNop())(context.Background(), task)
	if !errors.Is(err, models.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning so the task is retried, got %v", err)
	}
	if errors.Is(err, asynq.SkipRetry) {
		t.Fatal("a busy reconciler must not skip retries")
	}
}

func TestHandleAvailabilitySync_BadPayloadSkipsRetry(t *testing.T) {
	runner := &fakeRunner{}
	for _, payload := range [][]byte{[]byte("{"), []byte(`{"professional":{"professionalType":"nurse","professionalId":"x"}}`)} {
		err := handleAvailabilitySync(runner, zap.NewNop())(context.Background(), asynq.NewTask(TypeAvailabilitySync, payload))
		if !errors.Is(err, asynq.SkipRetry) {
			t.Fatalf("expected SkipRetry for %s, got %v", payload, err)
		}
	}
	if len(runner.synced) != 0 {
		t.Fatalf("expected no syncs, got %v", runner.synced)
	}
}

func TestHandleFullReconcile(t *testing.T) {
	runner := &fakeRunner{}
	if err := handleFullReconcile(runner, zap.NewNop())(context.Background(), asynq.NewTask(TypeFullReconcile, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.full != 1 {
		t.Fatalf("expected one full pass, got %d", runner.full)
	}
}
