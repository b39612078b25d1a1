// File: database/repository/professional/interface.go
package professionalRepo

import (
	"context"

	"caredesk/models"
)

// Source resolves professionals of a single kind. Each kind lives in its own collection
// upstream, so the calendar talks to them through this small capability set.
type Source interface {
	Kind() models.ProfessionalKind
	GetDetails(ctx context.Context, id string) (*models.Professional, error)
	GetTemplate(ctx context.Context, id string) (*models.AvailabilityTemplate, error)
	ListEligible(ctx context.Context) ([]models.Professional, error)
}

// Directory dispatches a ProfessionalRef to the Source registered for its kind.
type Directory interface {
	Get(ctx context.Context, ref models.ProfessionalRef) (*models.Professional, error)
	IsEligible(ctx context.Context, ref models.ProfessionalRef) (bool, error)
	Template(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error)
	// ListEligible returns every active and verified professional across all kinds.
	ListEligible(ctx context.Context) ([]models.Professional, error)
}
