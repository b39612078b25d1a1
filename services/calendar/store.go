package calendar

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	calendarRepo "caredesk/database/repository/calendar"
	"caredesk/models"
	"caredesk/utils"

	"go.uber.org/zap"
)

const defaultWriteAttempts = 3

// MonthStore is the read-modify-write access path to calendar documents.
type MonthStore struct {
	Repo     calendarRepo.CalendarRepository
	Deriver  *Deriver
	Metrics  *utils.Metrics
	Logger   *zap.Logger
	Attempts int
}

// Load returns the stored month. Current and future months missing from the store are
// built and created on the spot; past months yield models.ErrNotFound.
func (s *MonthStore) Load(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	m, err := s.Repo.GetMonth(ctx, key)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, models.StoreError("get calendar month", err)
	}
	if key.Before(s.Deriver.Today().MonthKey()) {
		return nil, models.ErrNotFound
	}
	return s.create(ctx, key)
}

func (s *MonthStore) create(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	m, err := s.Deriver.BuildMonth(ctx, key)
	if err != nil {
		return nil, err
	}
	err = s.Repo.CreateMonth(ctx, m)
	switch {
	case err == nil:
		s.Metrics.DocumentWritten("init")
		s.Logger.Info("calendar month initialised", zap.String("month", key.String()))
		return m, nil
	case errors.Is(err, models.ErrAlreadyExists):
		// Lost the race against another initialiser; theirs is as good as ours.
		got, err := s.Repo.GetMonth(ctx, key)
		if err != nil {
			return nil, models.StoreError("get calendar month", err)
		}
		return got, nil
	default:
		return nil, models.StoreError("create calendar month", err)
	}
}

// Exists reports whether a document is stored for key without creating one.
func (s *MonthStore) Exists(ctx context.Context, key models.MonthKey) (bool, error) {
	_, err := s.Repo.GetMonth(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, models.StoreError("get calendar month", err)
	}
	return true, nil
}

// Update loads the month, applies mutate to a copy and writes it back when it changed,
// re-reading and retrying on version conflicts. It reports whether a write happened.
func (s *MonthStore) Update(ctx context.Context, key models.MonthKey, writer string, mutate func(*models.CalendarMonth) error) (bool, error) {
	attempts := s.Attempts
	if attempts <= 0 {
		attempts = defaultWriteAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		current, err := s.Load(ctx, key)
		if err != nil {
			return false, err
		}
		before := current.Clone()
		next := current.Clone()
		if err := mutate(next); err != nil {
			return false, err
		}
		if reflect.DeepEqual(before, next) {
			return false, nil
		}

		err = s.Repo.ReplaceMonth(ctx, next)
		if err == nil {
			s.Metrics.DocumentWritten(writer)
			return true, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return false, models.StoreError("replace calendar month", err)
		}
		lastErr = err
		s.Logger.Debug("calendar version conflict, retrying",
			zap.String("month", key.String()),
			zap.String("writer", writer),
			zap.Int("attempt", attempt),
		)
	}
	return false, models.StoreError("replace calendar month", fmt.Errorf("%s after %d attempts: %w", key, attempts, lastErr))
}
