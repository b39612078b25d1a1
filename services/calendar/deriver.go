package calendar

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	ledgerRepo "caredesk/database/repository/ledger"
	professionalRepo "caredesk/database/repository/professional"
	"caredesk/models"

	"go.uber.org/zap"
)

// Deriver computes calendar content from the template directory and the ledger.
type Deriver struct {
	Directory professionalRepo.Directory
	Ledger    ledgerRepo.LedgerRepository
	Holidays  HolidaySet
	Location  *time.Location
	Now       func() time.Time
	Logger    *zap.Logger
}

func (d *Deriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Today is the current canonical local date.
func (d *Deriver) Today() models.DateKey {
	return models.DateKeyIn(d.now(), d.Location)
}

// MinutesNow is the current minute offset of Today.
func (d *Deriver) MinutesNow() int {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	t := d.now().In(loc)
	return t.Hour()*60 + t.Minute()
}

// NewMonth returns an empty skeleton with holidays flagged.
func (d *Deriver) NewMonth(key models.MonthKey) *models.CalendarMonth {
	return models.NewCalendarMonth(key, d.Holidays.IsHoliday)
}

// AvailabilityPlan is the eligibility and template snapshot one availability pass works from.
type AvailabilityPlan struct {
	Eligible  map[models.ProfessionalRef]bool
	Templates map[models.ProfessionalRef]*models.AvailabilityTemplate
	// Only restricts the pass to a single professional.
	Only *models.ProfessionalRef
}

// LoadAvailabilityPlan snapshots eligibility and templates, for every eligible professional
// or only for one.
func (d *Deriver) LoadAvailabilityPlan(ctx context.Context, only *models.ProfessionalRef) (*AvailabilityPlan, error) {
	plan := &AvailabilityPlan{
		Eligible:  make(map[models.ProfessionalRef]bool),
		Templates: make(map[models.ProfessionalRef]*models.AvailabilityTemplate),
		Only:      only,
	}

	var refs []models.ProfessionalRef
	if only != nil {
		ok, err := d.Directory.IsEligible(ctx, *only)
		if err != nil {
			return nil, fmt.Errorf("check eligibility of %s: %w", only, err)
		}
		if ok {
			refs = append(refs, *only)
		}
	} else {
		list, err := d.Directory.ListEligible(ctx)
		if err != nil {
			return nil, fmt.Errorf("list eligible professionals: %w", err)
		}
		for _, p := range list {
			refs = append(refs, p.Ref())
		}
	}

	for _, ref := range refs {
		plan.Eligible[ref] = true
		tpl, err := d.Directory.Template(ctx, ref)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load template of %s: %w", ref, err)
		}
		plan.Templates[ref] = tpl
	}
	return plan, nil
}

// rangesFor is nil whenever the professional should be treated as having no template entry.
func (p *AvailabilityPlan) rangesFor(ref models.ProfessionalRef, day *models.CalendarDay) []models.AvailabilityRange {
	if day.IsHoliday || !p.Eligible[ref] {
		return nil
	}
	return p.Templates[ref].RangesFor(day.Date.Weekday())
}

// ApplyAvailabilityToMonth derives working hours for every day of m on or after from.
// Earlier days keep whatever they hold.
func (d *Deriver) ApplyAvailabilityToMonth(m *models.CalendarMonth, from models.DateKey, plan *AvailabilityPlan) {
	for i := range m.Days {
		day := &m.Days[i]
		if day.Date.Before(from) {
			continue
		}
		day.IsHoliday = d.Holidays.IsHoliday(day.Date)

		var refs []models.ProfessionalRef
		if plan.Only != nil {
			refs = []models.ProfessionalRef{*plan.Only}
		} else {
			seen := make(map[models.ProfessionalRef]bool)
			for ref := range plan.Eligible {
				seen[ref] = true
			}
			for _, s := range day.Schedules {
				seen[s.Ref()] = true
			}
			for ref := range seen {
				refs = append(refs, ref)
			}
			sort.Slice(refs, func(a, b int) bool { return refs[a].String() < refs[b].String() })
		}

		for _, ref := range refs {
			ApplyAvailability(day, ref, plan.rangesFor(ref, day))
		}
	}
}

// ApplyBookingsToMonth mirrors the ledger onto every day of m within [from, to].
func (d *Deriver) ApplyBookingsToMonth(m *models.CalendarMonth, from, to models.DateKey, byDate map[models.DateKey][]models.LedgerRecord) {
	for i := range m.Days {
		day := &m.Days[i]
		if day.Date.Before(from) || day.Date.After(to) {
			continue
		}
		ApplyBookings(day, byDate[day.Date], d.Logger)
	}
}

// BuildMonth creates a fully derived month: bookings for every day, working hours from today on.
func (d *Deriver) BuildMonth(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	m := d.NewMonth(key)
	first, last := key.FirstDay(), key.LastDay()

	records, err := d.Ledger.ListActiveInRange(ctx, first, last)
	if err != nil {
		return nil, models.StoreError("list active bookings", err)
	}
	d.ApplyBookingsToMonth(m, first, last, GroupByDate(records))

	today := d.Today()
	if !last.Before(today) {
		plan, err := d.LoadAvailabilityPlan(ctx, nil)
		if err != nil {
			return nil, models.StoreError("load availability", err)
		}
		from := first
		if from.Before(today) {
			from = today
		}
		d.ApplyAvailabilityToMonth(m, from, plan)
	}
	return m, nil
}
