package professionalRepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"caredesk/models"
)

type directory struct {
	sources map[models.ProfessionalKind]Source
}

// NewDirectory registers one source per kind; a later source for the same kind wins.
func NewDirectory(sources ...Source) Directory {
	d := &directory{sources: make(map[models.ProfessionalKind]Source, len(sources))}
	for _, s := range sources {
		d.sources[s.Kind()] = s
	}
	return d
}

func (d *directory) source(kind models.ProfessionalKind) (Source, error) {
	s, ok := d.sources[kind]
	if !ok {
		return nil, &models.ValidationError{Field: "professionalType", Reason: fmt.Sprintf("no directory for %q", kind)}
	}
	return s, nil
}

func (d *directory) Get(ctx context.Context, ref models.ProfessionalRef) (*models.Professional, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	s, err := d.source(ref.Kind)
	if err != nil {
		return nil, err
	}
	return s.GetDetails(ctx, ref.ID)
}

func (d *directory) IsEligible(ctx context.Context, ref models.ProfessionalRef) (bool, error) {
	p, err := d.Get(ctx, ref)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.Eligible(), nil
}

func (d *directory) Template(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	s, err := d.source(ref.Kind)
	if err != nil {
		return nil, err
	}
	return s.GetTemplate(ctx, ref.ID)
}

func (d *directory) ListEligible(ctx context.Context) ([]models.Professional, error) {
	var out []models.Professional
	for _, kind := range models.ProfessionalKinds() {
		s, ok := d.sources[kind]
		if !ok {
			continue
		}
		list, err := s.ListEligible(ctx)
		if err != nil {
			return nil, fmt.Errorf("list eligible %s: %w", kind, err)
		}
		out = append(out, list...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
