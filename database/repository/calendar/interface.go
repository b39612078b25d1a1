// File: database/repository/calendar/interface.go
package calendarRepo

import (
	"context"

	"caredesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// CalendarRepository persists one document per (year, month). Every write replaces the
// whole document; callers re-fetch after models.ErrVersionConflict.
type CalendarRepository interface {
	GetMonth(ctx context.Context, key models.MonthKey) (*models.CalendarMonth, error)
	// CreateMonth inserts a new document; models.ErrAlreadyExists when one is present.
	CreateMonth(ctx context.Context, month *models.CalendarMonth) error
	// ReplaceMonth writes month if its stored version still equals month.Version,
	// then bumps month.Version.
	ReplaceMonth(ctx context.Context, month *models.CalendarMonth) error
	DeleteMonthsBefore(ctx context.Context, key models.MonthKey) (int64, error)
	ListMonthKeys(ctx context.Context) ([]models.MonthKey, error)
}

type mongoCalendarRepo struct {
	coll *mongo.Collection
}

// NewMongoCalendarRepo constructs a MongoDB CalendarRepository.
func NewMongoCalendarRepo(db *mongo.Database) CalendarRepository {
	return &mongoCalendarRepo{
		coll: db.Collection("calendars"),
	}
}
