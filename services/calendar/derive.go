package calendar

import (
	"sort"

	"caredesk/models"
	"caredesk/services/interval"

	"go.uber.org/zap"
)

// WorkingHoursFrom converts template ranges into working hours, dropping malformed ranges.
func WorkingHoursFrom(ranges []models.AvailabilityRange) []models.WorkingHours {
	out := make([]models.WorkingHours, 0, len(ranges))
	for _, r := range ranges {
		if !interval.New(r.Start, r.End).Valid() {
			zap.L().Warn("dropping malformed availability range", zap.Int("start", r.Start), zap.Int("end", r.End))
			continue
		}
		out = append(out, models.WorkingHours{
			Start:     r.Start,
			End:       r.End,
			VisitType: r.VisitType,
			Fee:       r.Fee,
			Capacity:  r.Capacity,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// ApplyAvailability moves one professional's entry on day through its presence states.
// ranges is what the template offers for that day; nil means no template entry.
//
//	template, bookings -> working hours, available
//	bookings only      -> no working hours, unavailable
//	neither            -> entry removed
func ApplyAvailability(day *models.CalendarDay, ref models.ProfessionalRef, ranges []models.AvailabilityRange) {
	hours := WorkingHoursFrom(ranges)
	if len(hours) > 0 {
		entry, _ := day.EnsureSchedule(ref)
		entry.WorkingHours = hours
		entry.IsAvailable = true
		return
	}

	entry := day.Schedule(ref)
	if entry == nil {
		return
	}
	if len(entry.BookedSlots) == 0 {
		logDroppedBreaks(zap.L(), day.Date, entry)
		day.RemoveSchedule(ref)
		return
	}
	entry.WorkingHours = []models.WorkingHours{}
	entry.IsAvailable = false
}

// logDroppedBreaks records the breaks removed along with entry.
func logDroppedBreaks(logger *zap.Logger, date models.DateKey, entry *models.ProfessionalSchedule) {
	for _, b := range entry.Breaks {
		logger.Warn("dropping break with its calendar entry",
			zap.String("professional", entry.Ref().String()),
			zap.String("date", date.String()),
			zap.String("breakId", b.ID),
			zap.Int("start", b.Start),
			zap.Int("end", b.End),
		)
	}
}

// SelectNonOverlapping keeps, per professional, the earliest recorded of any overlapping
// records. The ledger should never hold overlaps; when it does the calendar still must not.
func SelectNonOverlapping(records []models.LedgerRecord) (kept, dropped []models.LedgerRecord) {
	ordered := append([]models.LedgerRecord(nil), records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].RecordedAt.Equal(ordered[j].RecordedAt) {
			return ordered[i].RecordedAt.Before(ordered[j].RecordedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	accepted := make(map[models.ProfessionalRef][]interval.Interval)
	for _, rec := range ordered {
		iv := interval.New(rec.Start, rec.End)
		if !iv.Valid() {
			dropped = append(dropped, rec)
			continue
		}
		clash := false
		for _, other := range accepted[rec.Professional] {
			if iv.Overlaps(other) {
				clash = true
				break
			}
		}
		if clash {
			dropped = append(dropped, rec)
			continue
		}
		accepted[rec.Professional] = append(accepted[rec.Professional], iv)
		kept = append(kept, rec)
	}
	return kept, dropped
}

// ApplyBookings makes the booked slots of day mirror records, the active ledger records
// of that date. Working hours are never touched.
func ApplyBookings(day *models.CalendarDay, records []models.LedgerRecord, logger *zap.Logger) {
	kept, dropped := SelectNonOverlapping(records)
	for _, rec := range dropped {
		logger.Warn("ledger record overlaps an earlier booking, not mirrored",
			zap.String("bookingId", rec.ID),
			zap.String("professional", rec.Professional.String()),
			zap.String("date", day.Date.String()),
		)
	}

	byRef := make(map[models.ProfessionalRef]map[string]models.LedgerRecord)
	for _, rec := range kept {
		if byRef[rec.Professional] == nil {
			byRef[rec.Professional] = make(map[string]models.LedgerRecord)
		}
		byRef[rec.Professional][rec.ID] = rec
	}

	for i := 0; i < len(day.Schedules); i++ {
		entry := &day.Schedules[i]
		live := byRef[entry.Ref()]

		slots := entry.BookedSlots[:0]
		for _, b := range entry.BookedSlots {
			rec, ok := live[b.BookingID]
			if !ok {
				continue
			}
			slots = append(slots, rec.BookedSlot())
		}
		entry.BookedSlots = slots
		for _, rec := range live {
			if !entry.HasBooking(rec.ID) {
				entry.BookedSlots = append(entry.BookedSlots, rec.BookedSlot())
			}
		}
		entry.SortBookedSlots()
		delete(byRef, entry.Ref())

		// A bookings-only entry whose bookings are gone has nothing left to show.
		if len(entry.BookedSlots) == 0 && len(entry.WorkingHours) == 0 && !entry.IsAvailable {
			logDroppedBreaks(logger, day.Date, entry)
			day.Schedules = append(day.Schedules[:i], day.Schedules[i+1:]...)
			i--
		}
	}

	for ref, live := range byRef {
		entry, _ := day.EnsureSchedule(ref)
		for _, rec := range live {
			entry.BookedSlots = append(entry.BookedSlots, rec.BookedSlot())
		}
		entry.SortBookedSlots()
	}
}

// GroupByDate buckets records by their calendar date.
func GroupByDate(records []models.LedgerRecord) map[models.DateKey][]models.LedgerRecord {
	out := make(map[models.DateKey][]models.LedgerRecord)
	for _, rec := range records {
		out[rec.Date] = append(out[rec.Date], rec)
	}
	return out
}
