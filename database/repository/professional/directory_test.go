package professionalRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	availabilityRepo "caredesk/database/repository/availability"
	"caredesk/models"
)

func newTestDirectory(t *testing.T) (Directory, *MemorySource, *MemorySource, *availabilityRepo.MemoryAvailabilityRepo) {
	t.Helper()
	templates := availabilityRepo.NewMemoryAvailabilityRepo()
	doctors := NewMemorySource(models.KindDoctor, templates)
	physios := NewMemorySource(models.KindPhysiotherapist, templates)
	return NewDirectory(doctors, physios), doctors, physios, templates
}

func TestDirectory_Eligibility(t *testing.T) {
	dir, doctors, _, _ := newTestDirectory(t)
	ctx := context.Background()
	doctors.Put(models.Professional{ID: "d1", Active: true, Verified: true})
	doctors.Put(models.Professional{ID: "d2", Active: true, Verified: false})

	cases := []struct {
		ref  models.ProfessionalRef
		want bool
	}{
		{models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"}, true},
		{models.ProfessionalRef{Kind: models.KindDoctor, ID: "d2"}, false},
		{models.ProfessionalRef{Kind: models.KindDoctor, ID: "missing"}, false},
		// Same id under another kind is a different professional.
		{models.ProfessionalRef{Kind: models.KindPhysiotherapist, ID: "d1"}, false},
	}
	for _, tc := range cases {
		got, err := dir.IsEligible(ctx, tc.ref)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.ref, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.ref, tc.want, got)
		}
	}
}

func TestDirectory_UnregisteredKind(t *testing.T) {
	dir, _, _, _ := newTestDirectory(t)
	_, err := dir.Get(context.Background(), models.ProfessionalRef{Kind: models.KindPathology, ID: "lab"})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDirectory_TemplateAndListing(t *testing.T) {
	dir, doctors, physios, templates := newTestDirectory(t)
	ctx := context.Background()
	doctors.Put(models.Professional{ID: "d1", Active: true, Verified: true})
	physios.Put(models.Professional{ID: "p1", Active: true, Verified: true})
	physios.Put(models.Professional{ID: "p2", Active: false, Verified: true})

	ref := models.ProfessionalRef{Kind: models.KindPhysiotherapist, ID: "p1"}
	if _, err := dir.Template(ctx, ref); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	_ = templates.SaveTemplate(ctx, &models.AvailabilityTemplate{
		Professional: ref,
		Days: []models.WeekdayAvailability{{Weekday: time.Friday, Ranges: []models.AvailabilityRange{
			{Start: 600, End: 720, VisitType: models.VisitHome},
		}}},
	})
	tpl, err := dir.Template(ctx, ref)
	if err != nil || len(tpl.RangesFor(time.Friday)) != 1 {
		t.Fatalf("expected friday range, got %+v err=%v", tpl, err)
	}

	list, err := dir.ListEligible(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[0].Ref() != (models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"}) || list[1].ID != "p1" {
		t.Fatalf("expected [doctor:d1 physiotherapist:p1], got %+v", list)
	}
}
