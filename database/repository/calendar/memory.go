package calendarRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"caredesk/models"
)

// MemoryCalendarRepo is an in-process CalendarRepository with the same version semantics
// as the Mongo implementation.
type MemoryCalendarRepo struct {
	mu     sync.Mutex
	months map[string]*models.CalendarMonth
	// Writes counts successful create/replace calls.
	Writes int
}

func NewMemoryCalendarRepo() *MemoryCalendarRepo {
	return &MemoryCalendarRepo{months: make(map[string]*models.CalendarMonth)}
}

func (r *MemoryCalendarRepo) GetMonth(_ context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.months[key.String()]
	if !ok {
		return nil, models.ErrNotFound
	}
	return m.Clone(), nil
}

func (r *MemoryCalendarRepo) CreateMonth(_ context.Context, month *models.CalendarMonth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := month.Key().String()
	if _, ok := r.months[id]; ok {
		return models.ErrAlreadyExists
	}
	now := time.Now().UTC()
	month.ID = id
	month.Version = 1
	month.CreatedAt = now
	month.UpdatedAt = now
	r.months[id] = month.Clone()
	r.Writes++
	return nil
}

func (r *MemoryCalendarRepo) ReplaceMonth(_ context.Context, month *models.CalendarMonth) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.months[month.ID]
	if !ok || cur.Version != month.Version {
		return models.ErrVersionConflict
	}
	month.Version++
	month.UpdatedAt = time.Now().UTC()
	r.months[month.ID] = month.Clone()
	r.Writes++
	return nil
}

func (r *MemoryCalendarRepo) DeleteMonthsBefore(_ context.Context, key models.MonthKey) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.months {
		if m.Key().Before(key) {
			delete(r.months, id)
			n++
		}
	}
	return n, nil
}

func (r *MemoryCalendarRepo) ListMonthKeys(_ context.Context) ([]models.MonthKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]models.MonthKey, 0, len(r.months))
	for _, m := range r.months {
		keys = append(keys, m.Key())
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys, nil
}
