// File: database/repository/calendar/crud.go
package calendarRepo

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

func (r *mongoCalendarRepo) GetMonth(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var month models.CalendarMonth
	err := r.coll.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&month)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch calendar %s: %w", key, err)
	}
	return &month, nil
}

func (r *mongoCalendarRepo) CreateMonth(ctx context.Context, month *models.CalendarMonth) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	month.ID = month.Key().String()
	month.Version = 1
	month.CreatedAt = now
	month.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, month); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create calendar %s: %w", month.ID, err)
	}
	return nil
}

func (r *mongoCalendarRepo) ReplaceMonth(ctx context.Context, month *models.CalendarMonth) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	expected := month.Version
	next := *month
	next.Version = expected + 1
	next.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": month.ID, "version": expected}
	res, err := r.coll.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return fmt.Errorf("failed to replace calendar %s: %w", month.ID, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrVersionConflict
	}
	month.Version = next.Version
	month.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *mongoCalendarRepo) DeleteMonthsBefore(ctx context.Context, key models.MonthKey) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"year": bson.M{"$lt": key.Year}},
		bson.M{"year": key.Year, "month": bson.M{"$lt": int(key.Month)}},
	}}
	res, err := r.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to prune calendars before %s: %w", key, err)
	}
	return res.DeletedCount, nil
}

func (r *mongoCalendarRepo) ListMonthKeys(ctx context.Context) ([]models.MonthKey, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"year": 1, "month": 1}).
		SetSort(bson.D{{Key: "year", Value: 1}, {Key: "month", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Year  int `bson:"year"`
		Month int `bson:"month"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding calendar keys: %w", err)
	}
	keys := make([]models.MonthKey, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, models.MonthKey{Year: row.Year, Month: time.Month(row.Month)})
	}
	return keys, nil
}
