// FILE: database/repository/calendar/indexes.go
package calendarRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the calendars collection.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// One document per (year, month)
		{
			Keys:    bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("year_month_unique"),
		},
		{
			Keys:    bson.D{{Key: "days.professionalSchedules.professionalId", Value: 1}},
			Options: options.Index().SetName("schedule_professional_idx"),
		},
	}

	_, err := db.Collection("calendars").Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create calendar indexes: %w", err)
	}
	return nil
}
