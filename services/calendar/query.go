package calendar

import (
	"context"
	"errors"
	"fmt"

	"caredesk/models"
	"caredesk/services/interval"
	"caredesk/services/slots"

	"go.uber.org/zap"
)

// maxPastViewDays bounds one past-period request.
const maxPastViewDays = 366

// QueryMonth returns the days of a month, each filtered to one professional when filter is set.
// Months before the retention floor, and past months that were never stored, come from the ledger.
func (s *DefaultCalendarService) QueryMonth(ctx context.Context, key models.MonthKey, filter *models.ProfessionalRef) ([]models.CalendarDay, error) {
	if key.Year < 1 || key.Month < 1 || key.Month > 12 {
		return nil, &models.ValidationError{Field: "month", Reason: fmt.Sprintf("invalid month %d-%d", key.Year, key.Month)}
	}
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}

	if key.Before(s.RetentionFloor()) {
		return s.PastView(ctx, key.FirstDay(), key.LastDay(), filter)
	}

	m, err := s.Store.Load(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return s.PastView(ctx, key.FirstDay(), key.LastDay(), filter)
	}
	if err != nil {
		return nil, err
	}

	days := m.Days
	if filter != nil {
		for i := range days {
			var kept []models.ProfessionalSchedule
			if entry := days[i].Schedule(*filter); entry != nil {
				kept = append(kept, *entry)
			}
			if kept == nil {
				kept = []models.ProfessionalSchedule{}
			}
			days[i].Schedules = kept
		}
	}
	return days, nil
}

// PastView synthesises read-only days from the ledger alone. The calendar store is neither
// read nor written.
func (s *DefaultCalendarService) PastView(ctx context.Context, from, to models.DateKey, filter *models.ProfessionalRef) ([]models.CalendarDay, error) {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil, &models.ValidationError{Field: "range", Reason: "from must not be after to"}
	}
	if from.AddDays(maxPastViewDays).Before(to) {
		return nil, &models.ValidationError{Field: "range", Reason: fmt.Sprintf("at most %d days per request", maxPastViewDays)}
	}
	if filter != nil {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
	}

	records, err := s.Ledger.ListHistory(ctx, from, to, filter)
	if err != nil {
		return nil, models.StoreError("list booking history", err)
	}
	return BuildPastDays(from, to, records, s.Deriver.Holidays), nil
}

// BuildPastDays groups records by date and professional into booked-slot-only days.
func BuildPastDays(from, to models.DateKey, records []models.LedgerRecord, holidays HolidaySet) []models.CalendarDay {
	byDate := GroupByDate(records)
	var days []models.CalendarDay
	for d := from; !d.After(to); d = d.AddDays(1) {
		day := models.NewCalendarDay(d, holidays.IsHoliday(d))
		for _, rec := range byDate[d] {
			entry, _ := day.EnsureSchedule(rec.Professional)
			entry.BookedSlots = append(entry.BookedSlots, rec.BookedSlot())
		}
		for i := range day.Schedules {
			day.Schedules[i].SortBookedSlots()
		}
		days = append(days, day)
	}
	return days
}

// SlotQuery asks for the free slots of one professional on one date.
type SlotQuery struct {
	Professional models.ProfessionalRef
	Date         models.DateKey
	Duration     int
	VisitType    models.VisitType
}

func (q SlotQuery) Validate() error {
	if err := q.Professional.Validate(); err != nil {
		return err
	}
	if q.Date.IsZero() {
		return &models.ValidationError{Field: "date", Reason: "required"}
	}
	if q.Duration <= 0 || q.Duration > models.MinutesPerDay {
		return &models.ValidationError{Field: "duration", Reason: fmt.Sprintf("must be within 1..%d minutes", models.MinutesPerDay)}
	}
	if q.VisitType != "" && !q.VisitType.Valid() {
		return &models.ValidationError{Field: "visitType", Reason: fmt.Sprintf("unknown visit type %q", q.VisitType)}
	}
	return nil
}

// AvailableSlots lists bookable slots. Anything but invalid input degrades to an empty list.
func (s *DefaultCalendarService) AvailableSlots(ctx context.Context, q SlotQuery) ([]slots.Slot, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	log := s.Logger.With(
		zap.String("professional", q.Professional.String()),
		zap.String("date", q.Date.String()),
	)

	today := s.Deriver.Today()
	if q.Date.Before(today) {
		return []slots.Slot{}, nil
	}

	if s.Cache != nil {
		if list, ok := s.Cache.Get(ctx, q.Professional, q.Date, q.Duration, q.VisitType); ok {
			s.Metrics.SlotQuery("ok", true)
			return s.dropElapsed(q.Date, list), nil
		}
	}

	list, err := s.computeSlots(ctx, q)
	if err != nil {
		s.Metrics.SlotQuery("degraded", false)
		log.Warn("slot query degraded to empty list", zap.Error(err))
		return []slots.Slot{}, nil
	}
	s.Metrics.SlotQuery("ok", false)
	if s.Cache != nil {
		s.Cache.Set(ctx, q.Professional, q.Date, q.Duration, q.VisitType, list)
	}
	return s.dropElapsed(q.Date, list), nil
}

func (s *DefaultCalendarService) computeSlots(ctx context.Context, q SlotQuery) ([]slots.Slot, error) {
	eligible, err := s.Directory.IsEligible(ctx, q.Professional)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return []slots.Slot{}, nil
	}

	m, err := s.Store.Load(ctx, q.Date.MonthKey())
	if err != nil {
		return nil, err
	}
	day := m.Day(q.Date)
	if day == nil {
		return nil, fmt.Errorf("calendar %s has no day %s", m.ID, q.Date)
	}
	entry := day.Schedule(q.Professional)
	if entry == nil {
		return []slots.Slot{}, nil
	}

	req := slots.Request{Duration: q.Duration, VisitType: q.VisitType}
	records, err := s.Ledger.ListActive(ctx, q.Professional, q.Date)
	if err != nil {
		// The cached booked slots still give a usable answer.
		s.Logger.Warn("ledger unavailable for slot query, using cached bookings", zap.Error(err))
	}
	for _, rec := range records {
		if !entry.HasBooking(rec.ID) {
			req.ExtraBusy = append(req.ExtraBusy, interval.New(rec.Start, rec.End))
		}
	}
	return slots.Compute(*entry, req), nil
}

// dropElapsed hides slots of today that already started.
func (s *DefaultCalendarService) dropElapsed(date models.DateKey, list []slots.Slot) []slots.Slot {
	if date != s.Deriver.Today() {
		return list
	}
	now := s.Deriver.MinutesNow()
	out := make([]slots.Slot, 0, len(list))
	for _, sl := range list {
		if sl.Start >= now {
			out = append(out, sl)
		}
	}
	return out
}
