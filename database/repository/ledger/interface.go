// File: database/repository/ledger/interface.go
package ledgerRepo

import (
	"context"

	"caredesk/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// LedgerRepository reads the authoritative appointment ledger. Records are written by the
// booking flow upstream; the calendar only ever reads them.
type LedgerRepository interface {
	// ListActive returns active records of one professional on one date, ordered by start.
	ListActive(ctx context.Context, ref models.ProfessionalRef, date models.DateKey) ([]models.LedgerRecord, error)
	// ListActiveInRange returns active records with from <= date <= to.
	ListActiveInRange(ctx context.Context, from, to models.DateKey) ([]models.LedgerRecord, error)
	// ListHistory returns records in a historical status for the range, optionally for one professional.
	ListHistory(ctx context.Context, from, to models.DateKey, ref *models.ProfessionalRef) ([]models.LedgerRecord, error)
}

type mongoLedgerRepo struct {
	coll *mongo.Collection
}

// NewMongoLedgerRepo reads the shared "appointments" collection.
func NewMongoLedgerRepo(db *mongo.Database) LedgerRepository {
	return &mongoLedgerRepo{
		coll: db.Collection("appointments"),
	}
}
