package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caredesk/models"
	"caredesk/services/interval"

	"go.uber.org/zap"
)

// BookingRequest mirrors a ledger record that was just created upstream into the calendar.
type BookingRequest struct {
	Professional models.ProfessionalRef `json:"professional"`
	Date         models.DateKey         `json:"date"`
	Start        int                    `json:"start"`
	End          int                    `json:"end"`
	BookingID    string                 `json:"bookingId"`
	SubjectID    string                 `json:"subjectId"`
}

func (r BookingRequest) Validate() error {
	if err := r.Professional.Validate(); err != nil {
		return err
	}
	if r.Date.IsZero() {
		return &models.ValidationError{Field: "date", Reason: "required"}
	}
	if !interval.New(r.Start, r.End).Valid() {
		return &models.ValidationError{Field: "time", Reason: fmt.Sprintf("invalid range [%d,%d)", r.Start, r.End)}
	}
	if r.BookingID == "" {
		return &models.ValidationError{Field: "bookingId", Reason: "required"}
	}
	return nil
}

// BookSlot records a booking in the calendar. The fresh ledger read is the conflict check of
// record; the calendar document is only updated after it passes. A store failure after that
// point is surfaced but not rolled back, the next booking sync converges.
func (s *DefaultCalendarService) BookSlot(ctx context.Context, req BookingRequest) (*models.BookedSlot, error) {
	if err := req.Validate(); err != nil {
		s.Metrics.Booking("invalid")
		return nil, err
	}
	if req.Date.Before(s.Deriver.Today()) {
		s.Metrics.Booking("invalid")
		return nil, &models.ValidationError{Field: "date", Reason: "date is in the past"}
	}
	log := s.Logger.With(
		zap.String("bookingId", req.BookingID),
		zap.String("professional", req.Professional.String()),
		zap.String("date", req.Date.String()),
	)

	prof, err := s.Directory.Get(ctx, req.Professional)
	if err != nil {
		s.Metrics.Booking("error")
		return nil, models.StoreError("get professional", err)
	}
	if !prof.Eligible() {
		s.Metrics.Booking("conflict")
		return nil, fmt.Errorf("%w: %s is not accepting bookings", models.ErrSlotUnavailable, req.Professional)
	}

	if s.Locker != nil {
		release, err := s.Locker.Acquire(ctx, req.Professional, req.Date)
		switch {
		case err == nil:
			defer release()
		case errors.Is(err, ErrLockBusy):
			s.Metrics.Booking("error")
			return nil, models.StoreError("acquire booking lock", err)
		default:
			// Redis trouble only costs us the advisory lock.
			log.Warn("booking lock unavailable, continuing on ledger check", zap.Error(err))
		}
	}

	records, err := s.Ledger.ListActive(ctx, req.Professional, req.Date)
	if err != nil {
		s.Metrics.Booking("error")
		return nil, models.StoreError("list active bookings", err)
	}

	slot := models.BookedSlot{
		BookingID:  req.BookingID,
		SubjectID:  req.SubjectID,
		Start:      req.Start,
		End:        req.End,
		RecordedAt: time.Now().UTC(),
		Status:     models.StatusPending,
	}
	inLedger := false
	active := make(map[string]bool, len(records)+1)
	for _, rec := range records {
		active[rec.ID] = true
		if rec.ID == req.BookingID {
			if rec.Start != req.Start || rec.End != req.End {
				s.Metrics.Booking("invalid")
				return nil, &models.ValidationError{Field: "bookingId", Reason: "ledger records a different time for this booking"}
			}
			inLedger = true
			slot = rec.BookedSlot()
			if slot.SubjectID == "" {
				slot.SubjectID = req.SubjectID
			}
			continue
		}
		if interval.Overlaps(req.Start, req.End, rec.Start, rec.End) {
			s.Metrics.Booking("conflict")
			log.Info("booking rejected by ledger conflict", zap.String("conflictsWith", rec.ID))
			return nil, fmt.Errorf("%w: overlaps booking %s", models.ErrSlotUnavailable, rec.ID)
		}
	}
	active[req.BookingID] = true

	created := false
	var result models.BookedSlot
	_, err = s.Store.Update(ctx, req.Date.MonthKey(), "booking", func(m *models.CalendarMonth) error {
		day := m.Day(req.Date)
		if day == nil {
			return fmt.Errorf("calendar %s has no day %s", m.ID, req.Date)
		}
		entry, isNew := day.EnsureSchedule(req.Professional)
		if isNew {
			// Working hours are left to the availability sync.
			entry.IsAvailable = false
		}
		created = isNew

		mirrored := slot
		kept := entry.BookedSlots[:0]
		for _, b := range entry.BookedSlots {
			if b.BookingID == req.BookingID && !inLedger {
				// Not visible in the ledger yet; keep what an earlier call mirrored.
				mirrored = b
				continue
			}
			if !active[b.BookingID] || b.BookingID == req.BookingID {
				continue
			}
			kept = append(kept, b)
		}
		entry.BookedSlots = append(kept, mirrored)
		result = mirrored
		entry.SortBookedSlots()
		return nil
	})
	if err != nil {
		s.Metrics.Booking("error")
		log.Error("calendar update failed after ledger check; left to reconciliation", zap.Error(err))
		return nil, models.StoreError("book slot", err)
	}

	s.invalidate(ctx, req.Professional, req.Date)
	if created {
		s.requestSync(ctx, req.Professional)
	}
	s.Metrics.Booking("ok")
	log.Info("slot booked", zap.Int("start", req.Start), zap.Int("end", req.End))
	return &result, nil
}
