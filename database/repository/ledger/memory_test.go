package ledgerRepo

import (
	"context"
	"testing"
	"time"

	"caredesk/models"
)

func TestMemoryLedgerRepo_ActiveFilter(t *testing.T) {
	doc := models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"}
	day := models.NewDateKey(2026, time.November, 2)
	repo := NewMemoryLedgerRepo(
		models.LedgerRecord{ID: "b1", Professional: doc, Date: day, Start: 600, End: 630, Status: models.StatusConfirmed},
		models.LedgerRecord{ID: "b2", Professional: doc, Date: day, Start: 540, End: 570, Status: models.StatusPending},
		models.LedgerRecord{ID: "b3", Professional: doc, Date: day, Start: 700, End: 730, Status: models.StatusCancelled},
		models.LedgerRecord{ID: "b4", Professional: doc, Date: day.AddDays(1), Start: 600, End: 630, Status: models.StatusAccepted},
	)

	got, err := repo.ListActive(context.Background(), doc, day)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b2" || got[1].ID != "b1" {
		t.Fatalf("expected [b2 b1], got %+v", got)
	}

	repo.SetStatus("b1", models.StatusCancelled)
	got, _ = repo.ListActiveInRange(context.Background(), day, day.AddDays(1))
	if len(got) != 2 || got[0].ID != "b2" || got[1].ID != "b4" {
		t.Fatalf("expected [b2 b4], got %+v", got)
	}
}

func TestMemoryLedgerRepo_History(t *testing.T) {
	doc := models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"}
	physio := models.ProfessionalRef{Kind: models.KindPhysiotherapist, ID: "p1"}
	day := models.NewDateKey(2026, time.March, 3)
	repo := NewMemoryLedgerRepo(
		models.LedgerRecord{ID: "h1", Professional: doc, Date: day, Start: 600, End: 630, Status: models.StatusCompleted},
		models.LedgerRecord{ID: "h2", Professional: doc, Date: day, Start: 660, End: 690, Status: models.StatusNoShow},
		models.LedgerRecord{ID: "h3", Professional: physio, Date: day, Start: 600, End: 630, Status: models.StatusConfirmed},
	)

	got, _ := repo.ListHistory(context.Background(), day, day, nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 historical records, got %d", len(got))
	}
	got, _ = repo.ListHistory(context.Background(), day, day, &physio)
	if len(got) != 1 || got[0].ID != "h3" {
		t.Fatalf("expected [h3], got %+v", got)
	}
}
