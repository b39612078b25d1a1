package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caredesk/models"

	"go.uber.org/zap"
)

func (s *DefaultCalendarService) GetAvailability(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	tpl, err := s.Templates.GetTemplate(ctx, ref)
	if err != nil {
		return nil, models.StoreError("get availability", err)
	}
	return tpl, nil
}

// UpdateAvailability replaces a professional's weekly template. Calendar entries follow
// asynchronously through an availability sync.
func (s *DefaultCalendarService) UpdateAvailability(ctx context.Context, tpl *models.AvailabilityTemplate) error {
	if tpl == nil {
		return &models.ValidationError{Field: "template", Reason: "required"}
	}
	if err := tpl.Validate(); err != nil {
		return err
	}
	tpl.Normalize()
	if _, err := s.Directory.Get(ctx, tpl.Professional); err != nil {
		return models.StoreError("get professional", err)
	}
	if err := s.Templates.SaveTemplate(ctx, tpl); err != nil {
		return models.StoreError("save availability", err)
	}
	s.afterTemplateChange(ctx, tpl.Professional)
	return nil
}

// UpdateAvailabilityDay replaces the ranges of one weekday; empty ranges remove the weekday.
func (s *DefaultCalendarService) UpdateAvailabilityDay(ctx context.Context, ref models.ProfessionalRef, weekday time.Weekday, ranges []models.AvailabilityRange) (*models.AvailabilityTemplate, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if weekday < time.Sunday || weekday > time.Saturday {
		return nil, &models.ValidationError{Field: "weekday", Reason: fmt.Sprintf("invalid weekday %d", weekday)}
	}
	for _, r := range ranges {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	if _, err := s.Directory.Get(ctx, ref); err != nil {
		return nil, models.StoreError("get professional", err)
	}

	tpl, err := s.Templates.GetTemplate(ctx, ref)
	if errors.Is(err, models.ErrNotFound) {
		tpl = &models.AvailabilityTemplate{Professional: ref}
	} else if err != nil {
		return nil, models.StoreError("get availability", err)
	}
	tpl.SetDay(weekday, ranges)
	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	if err := s.Templates.SaveTemplate(ctx, tpl); err != nil {
		return nil, models.StoreError("save availability", err)
	}
	s.afterTemplateChange(ctx, ref)
	return tpl, nil
}

func (s *DefaultCalendarService) afterTemplateChange(ctx context.Context, ref models.ProfessionalRef) {
	if s.Cache != nil {
		s.Cache.InvalidateProfessional(ctx, ref)
	}
	s.Logger.Info("availability template updated", zap.String("professional", ref.String()))
	s.requestSync(ctx, ref)
}
