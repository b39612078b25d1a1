// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"

	"caredesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// AvailabilityRepository stores one weekly template per professional.
type AvailabilityRepository interface {
	// GetTemplate returns models.ErrNotFound when the professional never published one.
	GetTemplate(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error)
	SaveTemplate(ctx context.Context, tpl *models.AvailabilityTemplate) error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{
		coll: db.Collection("availability_templates"),
	}
}
