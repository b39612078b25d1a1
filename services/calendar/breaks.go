package calendar

import (
	"context"
	"fmt"

	"caredesk/models"
	"caredesk/services/interval"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BreakRequest is operator-entered unavailability on one day.
type BreakRequest struct {
	Professional models.ProfessionalRef `json:"professional"`
	Date         models.DateKey         `json:"date"`
	Start        int                    `json:"start"`
	End          int                    `json:"end"`
	Reason       string                 `json:"reason"`
}

func (s *DefaultCalendarService) AddBreak(ctx context.Context, req BreakRequest) (*models.Break, error) {
	if err := req.Professional.Validate(); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, &models.ValidationError{Field: "date", Reason: "required"}
	}
	if !interval.New(req.Start, req.End).Valid() {
		return nil, &models.ValidationError{Field: "time", Reason: fmt.Sprintf("invalid range [%d,%d)", req.Start, req.End)}
	}
	if req.Date.Before(s.Deriver.Today()) {
		return nil, &models.ValidationError{Field: "date", Reason: "date is in the past"}
	}

	brk := models.Break{ID: uuid.NewString(), Start: req.Start, End: req.End, Reason: req.Reason}
	_, err := s.Store.Update(ctx, req.Date.MonthKey(), "break", func(m *models.CalendarMonth) error {
		entry, err := scheduleOf(m, req.Professional, req.Date)
		if err != nil {
			return err
		}
		entry.Breaks = append(entry.Breaks, brk)
		return nil
	})
	if err != nil {
		return nil, models.StoreError("add break", err)
	}
	s.invalidate(ctx, req.Professional, req.Date)
	s.Logger.Info("break added",
		zap.String("professional", req.Professional.String()),
		zap.String("date", req.Date.String()),
		zap.String("breakId", brk.ID),
	)
	return &brk, nil
}

func (s *DefaultCalendarService) RemoveBreak(ctx context.Context, ref models.ProfessionalRef, date models.DateKey, breakID string) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if date.IsZero() || breakID == "" {
		return &models.ValidationError{Field: "breakId", Reason: "date and break id are required"}
	}

	_, err := s.Store.Update(ctx, date.MonthKey(), "break", func(m *models.CalendarMonth) error {
		entry, err := scheduleOf(m, ref, date)
		if err != nil {
			return err
		}
		for i, b := range entry.Breaks {
			if b.ID == breakID {
				entry.Breaks = append(entry.Breaks[:i], entry.Breaks[i+1:]...)
				return nil
			}
		}
		return models.ErrNotFound
	})
	if err != nil {
		return models.StoreError("remove break", err)
	}
	s.invalidate(ctx, ref, date)
	return nil
}

func scheduleOf(m *models.CalendarMonth, ref models.ProfessionalRef, date models.DateKey) (*models.ProfessionalSchedule, error) {
	day := m.Day(date)
	if day == nil {
		return nil, models.ErrNotFound
	}
	entry := day.Schedule(ref)
	if entry == nil {
		return nil, models.ErrNotFound
	}
	return entry, nil
}
