// Package slots turns one day's schedule entry into bookable candidate slots.
package slots

import (
	"sort"

	"caredesk/models"
	"caredesk/services/interval"

	"go.uber.org/zap"
)

// Slot is a free, bookable window tagged with the visit type and fee of its working-hours range.
type Slot struct {
	Start     int              `json:"start"`
	End       int              `json:"end"`
	VisitType models.VisitType `json:"visitType"`
	Fee       float64          `json:"fee"`
	Label     string           `json:"label"`
}

// Request describes the slots a caller is looking for.
type Request struct {
	Duration  int              // minutes, > 0
	VisitType models.VisitType // empty matches every range
	// ExtraBusy holds ledger intervals not yet reflected in the cached entry.
	ExtraBusy []interval.Interval
}

// Compute returns the free slots of entry, ordered by start. An empty result is valid.
func Compute(entry models.ProfessionalSchedule, req Request) []Slot {
	out := []Slot{}
	if req.Duration <= 0 || !entry.IsAvailable {
		return out
	}

	busy := make([]interval.Interval, 0, len(entry.Breaks)+len(entry.BookedSlots)+len(req.ExtraBusy))
	for _, b := range entry.Breaks {
		busy = append(busy, interval.New(b.Start, b.End))
	}
	for _, b := range entry.BookedSlots {
		busy = append(busy, interval.New(b.Start, b.End))
	}
	busy = append(busy, req.ExtraBusy...)

	var candidates []Slot
	for _, wh := range mergeRanges(entry, req.VisitType) {
		base := interval.New(wh.Start, wh.End)
		var clamped []interval.Interval
		for _, b := range busy {
			if c, ok := interval.Clamp(b, base.Start, base.End); ok {
				clamped = append(clamped, c)
			}
		}
		free := interval.Subtract(base, interval.Merge(clamped))

		for _, c := range tile(base, free, req.Duration) {
			candidates = append(candidates, Slot{
				Start:     c.Start,
				End:       c.End,
				VisitType: wh.VisitType,
				Fee:       wh.Fee,
				Label:     FormatRange(c.Start, c.End),
			})
		}
	}

	// Ranges of different visit types may still overlap; the earliest candidate wins.
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Start < candidates[j].Start })
	lastEnd := -1
	for _, c := range candidates {
		if c.Start < lastEnd {
			continue
		}
		out = append(out, c)
		lastEnd = c.End
	}
	return out
}

// mergeRanges returns the valid working hours of entry matching visitType, with
// overlapping ranges of one visit type merged. A merged range keeps the fee and
// capacity of its earliest range.
func mergeRanges(entry models.ProfessionalSchedule, visitType models.VisitType) []models.WorkingHours {
	ranges := make([]models.WorkingHours, 0, len(entry.WorkingHours))
	for _, wh := range entry.WorkingHours {
		if visitType != "" && wh.VisitType != visitType {
			continue
		}
		if !interval.New(wh.Start, wh.End).Valid() {
			zap.L().Warn("skipping malformed working hours",
				zap.String("professionalId", entry.ProfessionalID),
				zap.Int("start", wh.Start), zap.Int("end", wh.End))
			continue
		}
		ranges = append(ranges, wh)
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].VisitType != ranges[j].VisitType {
			return ranges[i].VisitType < ranges[j].VisitType
		}
		return ranges[i].Start < ranges[j].Start
	})

	var out []models.WorkingHours
	for _, wh := range ranges {
		if n := len(out); n > 0 && out[n-1].VisitType == wh.VisitType && wh.Start < out[n-1].End {
			if wh.End > out[n-1].End {
				out[n-1].End = wh.End
			}
			continue
		}
		out = append(out, wh)
	}
	return out
}

// tile lays fixed-size candidates on the grid anchored at base.Start and keeps those
// that fit entirely inside one free interval.
func tile(base interval.Interval, free []interval.Interval, duration int) []interval.Interval {
	var out []interval.Interval
	for _, f := range free {
		// first grid point at or after f.Start
		offset := f.Start - base.Start
		start := base.Start + ((offset+duration-1)/duration)*duration
		for ; start+duration <= f.End; start += duration {
			out = append(out, interval.New(start, start+duration))
		}
	}
	return out
}
