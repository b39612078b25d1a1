// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caredesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func refFilter(ref models.ProfessionalRef) bson.M {
	return bson.M{
		"professional.kind": string(ref.Kind),
		"professional.id":   ref.ID,
	}
}

func (r *mongoAvailabilityRepo) GetTemplate(ctx context.Context, ref models.ProfessionalRef) (*models.AvailabilityTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var tpl models.AvailabilityTemplate
	if err := r.coll.FindOne(ctx, refFilter(ref)).Decode(&tpl); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch availability for %s: %w", ref, err)
	}
	return &tpl, nil
}

func (r *mongoAvailabilityRepo) SaveTemplate(ctx context.Context, tpl *models.AvailabilityTemplate) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tpl.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, refFilter(tpl.Professional), tpl, opts); err != nil {
		return fmt.Errorf("failed to save availability for %s: %w", tpl.Professional, err)
	}
	return nil
}

// EnsureIndexes makes the professional reference unique.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection("availability_templates").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "professional.kind", Value: 1}, {Key: "professional.id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("professional_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return nil
}
