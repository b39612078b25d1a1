// Package reconcile converges calendar documents onto the ledger and the availability
// templates. Every phase is idempotent and may run at any time relative to bookings.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync/atomic"
	"time"

	calendarRepo "caredesk/database/repository/calendar"
	ledgerRepo "caredesk/database/repository/ledger"
	"caredesk/models"
	"caredesk/services/calendar"
	"caredesk/utils"

	"go.uber.org/zap"
)

const (
	PhaseBookingSync      = "booking_sync"
	PhaseMonthInit        = "month_init"
	PhaseRetentionPrune   = "retention_prune"
	PhaseAvailabilitySync = "availability_sync"
)

// TemplatePurger is implemented by template caches that must be dropped before a full pass.
type TemplatePurger interface {
	Purge()
}

// Config bounds the rolling window.
type Config struct {
	FutureMonths    int
	RetentionMonths int
}

// PhaseResult describes one phase of a pass.
type PhaseResult struct {
	Phase    string        `json:"phase"`
	Written  int           `json:"documentsWritten"`
	Deleted  int64         `json:"documentsDeleted,omitempty"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Report summarises a pass.
type Report struct {
	StartedAt time.Time     `json:"startedAt"`
	Phases    []PhaseResult `json:"phases"`
}

// Reconciler owns the single in-process run flag: a pass requested while another one runs
// is skipped with models.ErrAlreadyRunning, never queued.
type Reconciler struct {
	store     *calendar.MonthStore
	deriver   *calendar.Deriver
	calendars calendarRepo.CalendarRepository
	ledger    ledgerRepo.LedgerRepository
	cfg       Config

	Cache     calendar.SlotCache
	Templates TemplatePurger
	Metrics   *utils.Metrics

	running atomic.Bool
	logger  *zap.Logger
}

func NewReconciler(store *calendar.MonthStore, ledger ledgerRepo.LedgerRepository, cfg Config, logger *zap.Logger) *Reconciler {
	if cfg.FutureMonths < 0 {
		cfg.FutureMonths = 0
	}
	if cfg.RetentionMonths < 0 {
		cfg.RetentionMonths = 0
	}
	return &Reconciler{
		store:     store,
		deriver:   store.Deriver,
		calendars: store.Repo,
		ledger:    ledger,
		cfg:       cfg,
		logger:    logger.Named("Reconciler"),
	}
}

// Running reports whether a pass currently holds the flag.
func (r *Reconciler) Running() bool {
	return r.running.Load()
}

func (r *Reconciler) acquire() error {
	if !r.running.CompareAndSwap(false, true) {
		r.Metrics.Skipped()
		return models.ErrAlreadyRunning
	}
	return nil
}

func (r *Reconciler) release() {
	r.running.Store(false)
}

// window is the rolling range: current month through the last future month.
func (r *Reconciler) window() (first, last models.MonthKey) {
	first = r.deriver.Today().MonthKey()
	return first, first.AddMonths(r.cfg.FutureMonths)
}

// syncMonths lists the months the sync phases visit: the rolling window plus every stored
// month after it. Slot queries and bookings create documents beyond the window, and those
// must converge too. The result is sorted and never empty; a listing failure falls back to
// the window alone and is reported.
func (r *Reconciler) syncMonths(ctx context.Context) ([]models.MonthKey, []error) {
	first, last := r.window()
	var keys []models.MonthKey
	for key := first; !last.Before(key); key = key.AddMonths(1) {
		keys = append(keys, key)
	}

	stored, err := r.calendars.ListMonthKeys(ctx)
	if err != nil {
		return keys, []error{models.StoreError("list calendar months", err)}
	}
	for _, key := range stored {
		if last.Before(key) {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := keys[:1]
	for _, key := range keys[1:] {
		if key != out[len(out)-1] {
			out = append(out, key)
		}
	}
	return out, nil
}

// RunFull runs every phase in order. A failing phase does not stop later ones.
func (r *Reconciler) RunFull(ctx context.Context) (*Report, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	if r.Templates != nil {
		r.Templates.Purge()
	}
	report := &Report{StartedAt: time.Now().UTC()}
	var errs []error
	for _, phase := range []func(context.Context) PhaseResult{
		r.syncBookings,
		r.initMonths,
		r.pruneRetention,
		func(ctx context.Context) PhaseResult { return r.syncAvailability(ctx, nil) },
	} {
		res := phase(ctx)
		report.Phases = append(report.Phases, res)
		if res.Error != "" {
			errs = append(errs, fmt.Errorf("%s: %s", res.Phase, res.Error))
		}
	}
	r.logger.Info("full reconciliation finished", zap.Any("phases", report.Phases))
	return report, errors.Join(errs...)
}

// SyncBookings runs the booking sync phase alone.
func (r *Reconciler) SyncBookings(ctx context.Context) (*PhaseResult, error) {
	return r.runPhase(ctx, r.syncBookings)
}

// InitMonths ensures documents exist for the current and future months.
func (r *Reconciler) InitMonths(ctx context.Context) (*PhaseResult, error) {
	return r.runPhase(ctx, r.initMonths)
}

// PruneRetention deletes documents older than the retention floor.
func (r *Reconciler) PruneRetention(ctx context.Context) (*PhaseResult, error) {
	return r.runPhase(ctx, r.pruneRetention)
}

// SyncAvailability derives working hours for every eligible professional, or for only one.
func (r *Reconciler) SyncAvailability(ctx context.Context, only *models.ProfessionalRef) (*PhaseResult, error) {
	return r.runPhase(ctx, func(ctx context.Context) PhaseResult { return r.syncAvailability(ctx, only) })
}

// InitMonth creates the document of one current or future month.
func (r *Reconciler) InitMonth(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	if key.Year < 1 || key.Month < 1 || key.Month > 12 {
		return nil, &models.ValidationError{Field: "month", Reason: fmt.Sprintf("invalid month %d-%d", key.Year, key.Month)}
	}
	if key.Before(r.deriver.Today().MonthKey()) {
		return nil, &models.ValidationError{Field: "month", Reason: "month is entirely in the past"}
	}
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()
	return r.store.Load(ctx, key)
}

func (r *Reconciler) runPhase(ctx context.Context, phase func(context.Context) PhaseResult) (*PhaseResult, error) {
	if err := r.acquire(); err != nil {
		return nil, err
	}
	defer r.release()

	res := phase(ctx)
	if res.Error != "" {
		return &res, fmt.Errorf("%s: %s", res.Phase, res.Error)
	}
	return &res, nil
}

func (r *Reconciler) finish(res *PhaseResult, started time.Time, errs []error) PhaseResult {
	res.Duration = time.Since(started)
	err := errors.Join(errs...)
	if err != nil {
		res.Error = err.Error()
		r.logger.Error("reconciliation phase failed", zap.String("phase", res.Phase), zap.Error(err))
	} else {
		r.logger.Debug("reconciliation phase done",
			zap.String("phase", res.Phase),
			zap.Int("written", res.Written),
			zap.Duration("took", res.Duration),
		)
	}
	r.Metrics.ObservePhase(res.Phase, started, err)
	return *res
}

func (r *Reconciler) syncBookings(ctx context.Context) PhaseResult {
	started := time.Now()
	res := PhaseResult{Phase: PhaseBookingSync}
	keys, errs := r.syncMonths(ctx)
	from, to := keys[0].FirstDay(), keys[len(keys)-1].LastDay()

	records, err := r.ledger.ListActiveInRange(ctx, from, to)
	if err != nil {
		return r.finish(&res, started, append(errs, models.StoreError("list active bookings", err)))
	}
	byDate := calendar.GroupByDate(records)

	for _, key := range keys {
		written, err := r.update(ctx, key, func(m *models.CalendarMonth) {
			r.deriver.ApplyBookingsToMonth(m, from, to, byDate)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("month %s: %w", key, err))
			continue
		}
		if written {
			res.Written++
		}
	}
	return r.finish(&res, started, errs)
}

func (r *Reconciler) initMonths(ctx context.Context) PhaseResult {
	started := time.Now()
	res := PhaseResult{Phase: PhaseMonthInit}
	first, last := r.window()

	var errs []error
	for key := first; !last.Before(key); key = key.AddMonths(1) {
		exists, err := r.store.Exists(ctx, key)
		if err != nil {
			errs = append(errs, fmt.Errorf("month %s: %w", key, err))
			continue
		}
		if exists {
			continue
		}
		if _, err := r.store.Load(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("month %s: %w", key, err))
			continue
		}
		res.Written++
	}
	return r.finish(&res, started, errs)
}

func (r *Reconciler) pruneRetention(ctx context.Context) PhaseResult {
	started := time.Now()
	res := PhaseResult{Phase: PhaseRetentionPrune}
	floor := calendar.RetentionFloor(r.deriver.Today(), r.cfg.RetentionMonths)

	n, err := r.calendars.DeleteMonthsBefore(ctx, floor)
	if err != nil {
		return r.finish(&res, started, []error{models.StoreError("prune calendars", err)})
	}
	res.Deleted = n
	if n > 0 {
		r.logger.Info("pruned calendar months", zap.Int64("deleted", n), zap.String("floor", floor.String()))
	}
	return r.finish(&res, started, nil)
}

func (r *Reconciler) syncAvailability(ctx context.Context, only *models.ProfessionalRef) PhaseResult {
	started := time.Now()
	res := PhaseResult{Phase: PhaseAvailabilitySync}
	today := r.deriver.Today()
	keys, errs := r.syncMonths(ctx)

	plan, err := r.deriver.LoadAvailabilityPlan(ctx, only)
	if err != nil {
		return r.finish(&res, started, append(errs, models.StoreError("load availability", err)))
	}

	for _, key := range keys {
		written, err := r.update(ctx, key, func(m *models.CalendarMonth) {
			r.deriver.ApplyAvailabilityToMonth(m, today, plan)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("month %s: %w", key, err))
			continue
		}
		if written {
			res.Written++
		}
	}
	return r.finish(&res, started, errs)
}

type entryKey struct {
	ref  models.ProfessionalRef
	date models.DateKey
}

// update writes the month when apply changed it and drops cached slot lists of every
// entry that changed.
func (r *Reconciler) update(ctx context.Context, key models.MonthKey, apply func(*models.CalendarMonth)) (bool, error) {
	var changed []entryKey
	written, err := r.store.Update(ctx, key, "reconcile", func(m *models.CalendarMonth) error {
		before := m.Clone()
		apply(m)
		changed = diffEntries(before, m)
		return nil
	})
	if err != nil || !written || r.Cache == nil {
		return written, err
	}
	for _, k := range changed {
		r.Cache.Invalidate(ctx, k.ref, k.date)
	}
	return written, nil
}

func diffEntries(before, after *models.CalendarMonth) []entryKey {
	var out []entryKey
	for i := range after.Days {
		day := &after.Days[i]
		old := before.Day(day.Date)
		seen := make(map[models.ProfessionalRef]bool)
		for _, s := range day.Schedules {
			seen[s.Ref()] = true
			var prev *models.ProfessionalSchedule
			if old != nil {
				prev = old.Schedule(s.Ref())
			}
			if prev == nil || !reflect.DeepEqual(*prev, s) {
				out = append(out, entryKey{ref: s.Ref(), date: day.Date})
			}
		}
		if old == nil {
			continue
		}
		for _, s := range old.Schedules {
			if !seen[s.Ref()] {
				out = append(out, entryKey{ref: s.Ref(), date: day.Date})
			}
		}
	}
	return out
}
