package professionalRepo

import (
	"context"
	"sort"
	"sync"

	availabilityRepo "caredesk/database/repository/availability"
	"caredesk/models"
)

// MemorySource is an in-process Source for one kind.
type MemorySource struct {
	kind      models.ProfessionalKind
	mu        sync.RWMutex
	profiles  map[string]models.Professional
	templates availabilityRepo.AvailabilityRepository
}

func NewMemorySource(kind models.ProfessionalKind, templates availabilityRepo.AvailabilityRepository) *MemorySource {
	return &MemorySource{
		kind:      kind,
		profiles:  make(map[string]models.Professional),
		templates: templates,
	}
}

func (s *MemorySource) Put(p models.Professional) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Kind = s.kind
	s.profiles[p.ID] = p
}

func (s *MemorySource) Kind() models.ProfessionalKind { return s.kind }

func (s *MemorySource) GetDetails(_ context.Context, id string) (*models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &p, nil
}

func (s *MemorySource) GetTemplate(ctx context.Context, id string) (*models.AvailabilityTemplate, error) {
	return s.templates.GetTemplate(ctx, models.ProfessionalRef{Kind: s.kind, ID: id})
}

func (s *MemorySource) ListEligible(_ context.Context) ([]models.Professional, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Professional
	for _, p := range s.profiles {
		if p.Eligible() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
