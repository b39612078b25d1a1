// File: database/repository/professional/mongo.go
package professionalRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityRepo "caredesk/database/repository/availability"
	"caredesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionFor names the profile collection of each kind.
func CollectionFor(kind models.ProfessionalKind) string {
	switch kind {
	case models.KindDoctor:
		return "doctors"
	case models.KindPhysiotherapist:
		return "physiotherapists"
	case models.KindPathology:
		return "pathology_labs"
	}
	return ""
}

type mongoSource struct {
	kind      models.ProfessionalKind
	coll      *mongo.Collection
	templates availabilityRepo.AvailabilityRepository
}

// NewMongoSource reads profiles of one kind; templates are resolved through the shared
// availability repository.
func NewMongoSource(db *mongo.Database, kind models.ProfessionalKind, templates availabilityRepo.AvailabilityRepository) Source {
	return &mongoSource{
		kind:      kind,
		coll:      db.Collection(CollectionFor(kind)),
		templates: templates,
	}
}

// NewMongoDirectory wires a Mongo source for every known kind.
func NewMongoDirectory(db *mongo.Database, templates availabilityRepo.AvailabilityRepository) Directory {
	var sources []Source
	for _, kind := range models.ProfessionalKinds() {
		sources = append(sources, NewMongoSource(db, kind, templates))
	}
	return NewDirectory(sources...)
}

func (s *mongoSource) Kind() models.ProfessionalKind { return s.kind }

func (s *mongoSource) GetDetails(ctx context.Context, id string) (*models.Professional, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Professional
	if err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch %s %s: %w", s.kind, id, err)
	}
	p.Kind = s.kind
	return &p, nil
}

func (s *mongoSource) GetTemplate(ctx context.Context, id string) (*models.AvailabilityTemplate, error) {
	return s.templates.GetTemplate(ctx, models.ProfessionalRef{Kind: s.kind, ID: id})
}

func (s *mongoSource) ListEligible(ctx context.Context) ([]models.Professional, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"id": 1, "name": 1, "verified": 1, "active": 1, "updatedAt": 1}).
		SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"active": true, "verified": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list eligible %s: %w", s.kind, err)
	}
	defer cursor.Close(ctx)

	var list []models.Professional
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("error decoding %s profiles: %w", s.kind, err)
	}
	for i := range list {
		list[i].Kind = s.kind
	}
	return list, nil
}
