package ledgerRepo

import (
	"context"
	"sort"
	"sync"

	"caredesk/models"
)

// MemoryLedgerRepo is an in-process ledger used by tests and local runs.
type MemoryLedgerRepo struct {
	mu      sync.RWMutex
	records map[string]models.LedgerRecord
	// Err, when set, is returned by every read.
	Err error
}

func NewMemoryLedgerRepo(records ...models.LedgerRecord) *MemoryLedgerRepo {
	r := &MemoryLedgerRepo{records: make(map[string]models.LedgerRecord)}
	for _, rec := range records {
		r.records[rec.ID] = rec
	}
	return r
}

// Put inserts or replaces a record.
func (r *MemoryLedgerRepo) Put(rec models.LedgerRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = rec
}

func (r *MemoryLedgerRepo) SetStatus(id string, status models.BookingStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return false
	}
	rec.Status = status
	r.records[id] = rec
	return true
}

func (r *MemoryLedgerRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
}

func (r *MemoryLedgerRepo) ListActive(_ context.Context, ref models.ProfessionalRef, date models.DateKey) ([]models.LedgerRecord, error) {
	return r.filter(func(rec models.LedgerRecord) bool {
		return rec.Professional == ref && rec.Date == date && rec.Status.Active()
	})
}

func (r *MemoryLedgerRepo) ListActiveInRange(_ context.Context, from, to models.DateKey) ([]models.LedgerRecord, error) {
	return r.filter(func(rec models.LedgerRecord) bool {
		return !rec.Date.Before(from) && !rec.Date.After(to) && rec.Status.Active()
	})
}

func (r *MemoryLedgerRepo) ListHistory(_ context.Context, from, to models.DateKey, ref *models.ProfessionalRef) ([]models.LedgerRecord, error) {
	return r.filter(func(rec models.LedgerRecord) bool {
		if ref != nil && rec.Professional != *ref {
			return false
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			return false
		}
		for _, s := range models.HistoricalStatuses {
			if rec.Status == s {
				return true
			}
		}
		return false
	})
}

func (r *MemoryLedgerRepo) filter(keep func(models.LedgerRecord) bool) ([]models.LedgerRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	var out []models.LedgerRecord
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.Date.Compare(b.Date); c != 0 {
			return c < 0
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if !a.RecordedAt.Equal(b.RecordedAt) {
			return a.RecordedAt.Before(b.RecordedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}
