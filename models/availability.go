package models

import (
	"fmt"
	"sort"
	"time"
)

// VisitType tags where a consultation happens.
type VisitType string

const (
	VisitClinic VisitType = "clinic"
	VisitHome   VisitType = "home"
)

func (v VisitType) Valid() bool {
	return v == VisitClinic || v == VisitHome
}

// MinutesPerDay bounds every minute offset: 0 <= start < end <= MinutesPerDay.
const MinutesPerDay = 24 * 60

// AvailabilityRange is one bookable window of a weekday template.
type AvailabilityRange struct {
	Start     int       `bson:"start" json:"start"` // minutes from midnight
	End       int       `bson:"end" json:"end"`     // minutes from midnight, exclusive
	VisitType VisitType `bson:"visitType" json:"visitType"`
	Capacity  int       `bson:"capacity" json:"capacity"`
	Fee       float64   `bson:"fee" json:"fee"`
}

func (r AvailabilityRange) Validate() error {
	if r.Start < 0 || r.End > MinutesPerDay || r.Start >= r.End {
		return &ValidationError{Field: "ranges", Reason: fmt.Sprintf("invalid range [%d,%d)", r.Start, r.End)}
	}
	if !r.VisitType.Valid() {
		return &ValidationError{Field: "visitType", Reason: fmt.Sprintf("unknown visit type %q", r.VisitType)}
	}
	if r.Capacity < 0 {
		return &ValidationError{Field: "capacity", Reason: "must not be negative"}
	}
	if r.Fee < 0 {
		return &ValidationError{Field: "fee", Reason: "must not be negative"}
	}
	return nil
}

// WeekdayAvailability holds the ranges offered on one weekday.
type WeekdayAvailability struct {
	Weekday time.Weekday        `bson:"weekday" json:"weekday"`
	Ranges  []AvailabilityRange `bson:"ranges" json:"ranges"`
}

// AvailabilityTemplate is a professional's recurring weekly availability.
type AvailabilityTemplate struct {
	Professional ProfessionalRef       `bson:"professional" json:"professional"`
	Days         []WeekdayAvailability `bson:"days" json:"days"`
	UpdatedAt    time.Time             `bson:"updatedAt" json:"updatedAt,omitzero"`
}

// RangesFor returns the ranges configured for weekday. A weekday with no ranges
// counts as having no template entry.
func (t *AvailabilityTemplate) RangesFor(weekday time.Weekday) []AvailabilityRange {
	if t == nil {
		return nil
	}
	var out []AvailabilityRange
	for _, d := range t.Days {
		if d.Weekday == weekday {
			out = append(out, d.Ranges...)
		}
	}
	return out
}

// Validate checks every range and rejects duplicate weekdays.
func (t *AvailabilityTemplate) Validate() error {
	if err := t.Professional.Validate(); err != nil {
		return err
	}
	seen := make(map[time.Weekday]bool, len(t.Days))
	for _, d := range t.Days {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return &ValidationError{Field: "weekday", Reason: fmt.Sprintf("invalid weekday %d", d.Weekday)}
		}
		if seen[d.Weekday] {
			return &ValidationError{Field: "weekday", Reason: fmt.Sprintf("duplicate weekday %s", d.Weekday)}
		}
		seen[d.Weekday] = true
		for _, r := range d.Ranges {
			if err := r.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Normalize orders days by weekday and ranges by start, dropping empty days.
func (t *AvailabilityTemplate) Normalize() {
	days := t.Days[:0]
	for _, d := range t.Days {
		if len(d.Ranges) == 0 {
			continue
		}
		sort.SliceStable(d.Ranges, func(i, j int) bool { return d.Ranges[i].Start < d.Ranges[j].Start })
		days = append(days, d)
	}
	sort.SliceStable(days, func(i, j int) bool { return days[i].Weekday < days[j].Weekday })
	t.Days = days
}

// SetDay replaces the ranges of one weekday; nil ranges remove it.
func (t *AvailabilityTemplate) SetDay(weekday time.Weekday, ranges []AvailabilityRange) {
	days := t.Days[:0]
	for _, d := range t.Days {
		if d.Weekday != weekday {
			days = append(days, d)
		}
	}
	if len(ranges) > 0 {
		days = append(days, WeekdayAvailability{Weekday: weekday, Ranges: ranges})
	}
	t.Days = days
	t.Normalize()
}
