package availabilityRepo

import (
	"context"
	"sync"
	"time"

	"caredesk/models"
)

type MemoryAvailabilityRepo struct {
	mu        sync.RWMutex
	templates map[models.ProfessionalRef]models.AvailabilityTemplate
	Reads     int
}

func NewMemoryAvailabilityRepo() *MemoryAvailabilityRepo {
	return &MemoryAvailabilityRepo{templates: make(map[models.ProfessionalRef]models.AvailabilityTemplate)}
}

func (r *MemoryAvailabilityRepo) GetTemplate(_ context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	tpl, ok := r.templates[ref]
	if !ok {
		return nil, models.ErrNotFound
	}
	return copyTemplate(tpl), nil
}

func (r *MemoryAvailabilityRepo) SaveTemplate(_ context.Context, tpl *models.AvailabilityTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tpl.UpdatedAt = time.Now().UTC()
	r.templates[tpl.Professional] = *copyTemplate(*tpl)
	return nil
}

func copyTemplate(tpl models.AvailabilityTemplate) *models.AvailabilityTemplate {
	out := tpl
	out.Days = make([]models.WeekdayAvailability, len(tpl.Days))
	for i, d := range tpl.Days {
		out.Days[i] = models.WeekdayAvailability{
			Weekday: d.Weekday,
			Ranges:  append([]models.AvailabilityRange(nil), d.Ranges...),
		}
	}
	return &out
}
