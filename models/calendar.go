package models

import (
	"sort"
	"time"
)

// WorkingHours is a template-derived range. Only availability derivation writes it.
type WorkingHours struct {
	Start     int       `bson:"start" json:"start"`
	End       int       `bson:"end" json:"end"`
	VisitType VisitType `bson:"visitType" json:"visitType"`
	Fee       float64   `bson:"fee" json:"fee"`
	Capacity  int       `bson:"capacity" json:"capacity"`
}

// Break is operator-entered unavailability.
type Break struct {
	ID     string `bson:"id" json:"id"`
	Start  int    `bson:"start" json:"start"`
	End    int    `bson:"end" json:"end"`
	Reason string `bson:"reason" json:"reason"`
}

// BookedSlot is a calendar entry mirroring an active ledger record.
// Only the ledger sync and the booking transaction write it.
type BookedSlot struct {
	BookingID  string        `bson:"bookingId" json:"bookingId"`
	SubjectID  string        `bson:"subjectId" json:"subjectId"`
	Start      int           `bson:"start" json:"start"`
	End        int           `bson:"end" json:"end"`
	RecordedAt time.Time     `bson:"recordedAt" json:"recordedAt"`
	Status     BookingStatus `bson:"status" json:"status"`
}

// ProfessionalSchedule is one professional's state on one day.
type ProfessionalSchedule struct {
	ProfessionalID   string           `bson:"professionalId" json:"professionalId"`
	ProfessionalKind ProfessionalKind `bson:"professionalType" json:"professionalType"`
	WorkingHours     []WorkingHours   `bson:"workingHours" json:"workingHours"`
	Breaks           []Break          `bson:"breaks" json:"breaks"`
	BookedSlots      []BookedSlot     `bson:"bookedSlots" json:"bookedSlots"`
	IsAvailable      bool             `bson:"isAvailable" json:"isAvailable"`
}

func (s ProfessionalSchedule) Ref() ProfessionalRef {
	return ProfessionalRef{Kind: s.ProfessionalKind, ID: s.ProfessionalID}
}

// NewProfessionalSchedule returns an empty entry with non-nil lists.
func NewProfessionalSchedule(ref ProfessionalRef) ProfessionalSchedule {
	return ProfessionalSchedule{
		ProfessionalID:   ref.ID,
		ProfessionalKind: ref.Kind,
		WorkingHours:     []WorkingHours{},
		Breaks:           []Break{},
		BookedSlots:      []BookedSlot{},
	}
}

func (s *ProfessionalSchedule) HasBooking(bookingID string) bool {
	for _, b := range s.BookedSlots {
		if b.BookingID == bookingID {
			return true
		}
	}
	return false
}

func (s *ProfessionalSchedule) SortBookedSlots() {
	sort.SliceStable(s.BookedSlots, func(i, j int) bool {
		if s.BookedSlots[i].Start != s.BookedSlots[j].Start {
			return s.BookedSlots[i].Start < s.BookedSlots[j].Start
		}
		return s.BookedSlots[i].BookingID < s.BookedSlots[j].BookingID
	})
}

// CalendarDay holds every professional schedule of one date.
type CalendarDay struct {
	Date        DateKey                `bson:"date" json:"date"`
	WeekdayName string                 `bson:"weekdayName" json:"weekdayName"`
	IsHoliday   bool                   `bson:"isHoliday" json:"isHoliday"`
	Schedules   []ProfessionalSchedule `bson:"professionalSchedules" json:"professionalSchedules"`
}

func NewCalendarDay(date DateKey, holiday bool) CalendarDay {
	return CalendarDay{
		Date:        date,
		WeekdayName: date.Weekday().String(),
		IsHoliday:   holiday,
		Schedules:   []ProfessionalSchedule{},
	}
}

// Schedule returns the entry for ref, or nil.
func (d *CalendarDay) Schedule(ref ProfessionalRef) *ProfessionalSchedule {
	for i := range d.Schedules {
		if d.Schedules[i].ProfessionalID == ref.ID && d.Schedules[i].ProfessionalKind == ref.Kind {
			return &d.Schedules[i]
		}
	}
	return nil
}

// EnsureSchedule returns the entry for ref, appending an empty one when missing.
func (d *CalendarDay) EnsureSchedule(ref ProfessionalRef) (*ProfessionalSchedule, bool) {
	if s := d.Schedule(ref); s != nil {
		return s, false
	}
	d.Schedules = append(d.Schedules, NewProfessionalSchedule(ref))
	d.SortSchedules()
	return d.Schedule(ref), true
}

func (d *CalendarDay) RemoveSchedule(ref ProfessionalRef) bool {
	for i := range d.Schedules {
		if d.Schedules[i].ProfessionalID == ref.ID && d.Schedules[i].ProfessionalKind == ref.Kind {
			d.Schedules = append(d.Schedules[:i], d.Schedules[i+1:]...)
			return true
		}
	}
	return false
}

func (d *CalendarDay) SortSchedules() {
	sort.SliceStable(d.Schedules, func(i, j int) bool {
		if d.Schedules[i].ProfessionalKind != d.Schedules[j].ProfessionalKind {
			return d.Schedules[i].ProfessionalKind < d.Schedules[j].ProfessionalKind
		}
		return d.Schedules[i].ProfessionalID < d.Schedules[j].ProfessionalID
	})
}

// CalendarMonth is the persisted document for one (year, month).
type CalendarMonth struct {
	ID        string        `bson:"_id" json:"id"` // "YYYY-MM"
	Year      int           `bson:"year" json:"year"`
	Month     time.Month    `bson:"month" json:"month"`
	Days      []CalendarDay `bson:"days" json:"days"`
	Version   int           `bson:"version" json:"version"`
	CreatedAt time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (m *CalendarMonth) Key() MonthKey {
	return MonthKey{Year: m.Year, Month: m.Month}
}

// Day locates a day by its date key.
func (m *CalendarMonth) Day(date DateKey) *CalendarDay {
	for i := range m.Days {
		if m.Days[i].Date == date {
			return &m.Days[i]
		}
	}
	return nil
}

// NewCalendarMonth builds an ordered skeleton with one empty day per date.
func NewCalendarMonth(key MonthKey, isHoliday func(DateKey) bool) *CalendarMonth {
	m := &CalendarMonth{
		ID:    key.String(),
		Year:  key.Year,
		Month: key.Month,
	}
	last := key.LastDay()
	for d := key.FirstDay(); !d.After(last); d = d.AddDays(1) {
		holiday := isHoliday != nil && isHoliday(d)
		m.Days = append(m.Days, NewCalendarDay(d, holiday))
	}
	return m
}

// Clone deep-copies the month so callers can diff before and after a mutation.
func (m *CalendarMonth) Clone() *CalendarMonth {
	out := *m
	out.Days = make([]CalendarDay, len(m.Days))
	for i, d := range m.Days {
		nd := d
		nd.Schedules = make([]ProfessionalSchedule, len(d.Schedules))
		for j, s := range d.Schedules {
			ns := s
			ns.WorkingHours = append([]WorkingHours{}, s.WorkingHours...)
			ns.Breaks = append([]Break{}, s.Breaks...)
			ns.BookedSlots = append([]BookedSlot{}, s.BookedSlots...)
			nd.Schedules[j] = ns
		}
		out.Days[i] = nd
	}
	return &out
}
