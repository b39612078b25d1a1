// File: database/repository/ledger/queries.go
package ledgerRepo

import (
	"context"
	"fmt"
	"time"

	"caredesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func statusIn(statuses []models.BookingStatus) bson.M {
	values := make(bson.A, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	return bson.M{"$in": values}
}

func (r *mongoLedgerRepo) ListActive(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) ([]models.LedgerRecord, error) {
	filter := bson.M{
		"professional.kind": string(ref.Kind),
		"professional.id":   ref.ID,
		"date":              date.String(),
		"status":            statusIn(models.ActiveStatuses),
	}
	return r.find(ctx, filter, "list active bookings")
}

func (r *mongoLedgerRepo) ListActiveInRange(ctx context.Context, from, to models.DateKey) ([]models.LedgerRecord, error) {
	filter := bson.M{
		"date":   bson.M{"$gte": from.String(), "$lte": to.String()},
		"status": statusIn(models.ActiveStatuses),
	}
	return r.find(ctx, filter, "list active bookings in range")
}

func (r *mongoLedgerRepo) ListHistory(ctx context.Context, from, to models.DateKey, ref *models.ProfessionalRef) ([]models.LedgerRecord, error) {
	filter := bson.M{
		"date":   bson.M{"$gte": from.String(), "$lte": to.String()},
		"status": statusIn(models.HistoricalStatuses),
	}
	if ref != nil {
		filter["professional.kind"] = string(ref.Kind)
		filter["professional.id"] = ref.ID
	}
	return r.find(ctx, filter, "list booking history")
}

func (r *mongoLedgerRepo) find(ctx context.Context, filter bson.M, op string) ([]models.LedgerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "start", Value: 1},
		{Key: "recordedAt", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer cursor.Close(ctx)

	var records []models.LedgerRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return records, nil
}
