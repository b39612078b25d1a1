package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"caredesk/config"
	"caredesk/models"
	"caredesk/services/reconcile"
	"caredesk/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeAvailabilitySync = "calendar:availability-sync"
	TypeFullReconcile    = "calendar:full-reconcile"

	queueName = "calendar"
)

// AvailabilitySyncPayload names the professional whose entries must follow a template change.
type AvailabilitySyncPayload struct {
	Professional models.ProfessionalRef `json:"professional"`
}

// ReconcileRunner is the part of the reconciler the worker drives.
type ReconcileRunner interface {
	RunFull(ctx context.Context) (*reconcile.Report, error)
	SyncAvailability(ctx context.Context, only *models.ProfessionalRef) (*reconcile.PhaseResult, error)
}

func NewAvailabilitySyncTask(ref models.ProfessionalRef) (*asynq.Task, error) {
	b, err := json.Marshal(AvailabilitySyncPayload{Professional: ref})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeAvailabilitySync, b), nil
}

func redisOpt() asynq.RedisClientOpt {
	addr, password, db := utils.QueueRedisOpt()
	return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}

// Enqueuer hands calendar work to the async worker.
type Enqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewEnqueuer(logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(redisOpt()), logger: logger.Named("Enqueuer")}
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// RequestAvailabilitySync queues one sync per professional; a duplicate within the
// uniqueness window is already covered by the queued task.
func (e *Enqueuer) RequestAvailabilitySync(ctx context.Context, ref models.ProfessionalRef) error {
	task, err := NewAvailabilitySyncTask(ref)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(queueName),
		asynq.MaxRetry(10),
		asynq.Unique(time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue availability sync for %s: %w", ref, err)
	}
	e.logger.Debug("availability sync queued", zap.String("professional", ref.String()))
	return nil
}

// RequestFullReconcile queues a full pass, used by the admin trigger.
func (e *Enqueuer) RequestFullReconcile(ctx context.Context) error {
	_, err := e.client.EnqueueContext(ctx, asynq.NewTask(TypeFullReconcile, nil),
		asynq.Queue(queueName),
		asynq.MaxRetry(3),
		asynq.Unique(5*time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// NewMux routes calendar task types to their handlers.
func NewMux(runner ReconcileRunner, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAvailabilitySync, handleAvailabilitySync(runner, logger))
	mux.HandleFunc(TypeFullReconcile, handleFullReconcile(runner, logger))
	return mux
}

// StartWorker runs the async worker in background until Shutdown is called on the result.
func StartWorker(runner ReconcileRunner, logger *zap.Logger) *asynq.Server {
	logger = logger.Named("CalendarWorker")
	concurrency := config.AppConfig.AsyncWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	srv := asynq.NewServer(
		redisOpt(),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				queueName: 1,
			},
			// Skipped syncs come back after the running pass, not immediately.
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				if errors.Is(err, models.ErrAlreadyRunning) {
					return 15 * time.Second
				}
				return asynq.DefaultRetryDelayFunc(n, err, task)
			},
		},
	)
	mux := NewMux(runner, logger)

	go func() {
		logger.Info("starting async worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				return
			}
			logger.Error("async worker failed to start",
				zap.Int("attempt", attempts), zap.Int("maxAttempts", maxAttempts), zap.Error(err))
			if attempts == maxAttempts {
				// Periodic passes still converge without the worker.
				logger.Error("async worker gave up; template changes wait for the next scheduled pass")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

func handleAvailabilitySync(runner ReconcileRunner, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p AvailabilitySyncPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid availability sync payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		if err := p.Professional.Validate(); err != nil {
			logger.Error("invalid availability sync payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}

		res, err := runner.SyncAvailability(ctx, &p.Professional)
		if err != nil {
			if errors.Is(err, models.ErrAlreadyRunning) {
				logger.Info("availability sync deferred, pass in progress", zap.String("professional", p.Professional.String()))
			}
			return err
		}
		logger.Info("availability sync done",
			zap.String("professional", p.Professional.String()),
			zap.Int("written", res.Written))
		return nil
	}
}

func handleFullReconcile(runner ReconcileRunner, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		if _, err := runner.RunFull(ctx); err != nil {
			if !errors.Is(err, models.ErrAlreadyRunning) {
				logger.Error("full reconciliation task failed", zap.Error(err))
			}
			return err
		}
		return nil
	}
}
