package slots

import (
	"testing"

	"caredesk/models"
	"caredesk/services/interval"
)

func clinicDay(ranges ...models.WorkingHours) models.ProfessionalSchedule {
	s := models.NewProfessionalSchedule(models.ProfessionalRef{Kind: models.KindDoctor, ID: "doc-1"})
	s.WorkingHours = ranges
	s.IsAvailable = true
	return s
}

func nineToFive() models.WorkingHours {
	return models.WorkingHours{Start: 9 * 60, End: 17 * 60, VisitType: models.VisitClinic, Fee: 50}
}

func startsOf(slots []Slot) []int {
	out := make([]int, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestCompute_FullDay(t *testing.T) {
	got := Compute(clinicDay(nineToFive()), Request{Duration: 30, VisitType: models.VisitClinic})
	if len(got) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(got))
	}
	if got[0].Start != 540 || got[15].Start != 990 || got[15].End != 1020 {
		t.Fatalf("expected 09:00..16:30 starts, got first=%d last=%d", got[0].Start, got[15].Start)
	}
	for i, s := range got {
		if s.Fee != 50 || s.VisitType != models.VisitClinic {
			t.Fatalf("slot %d: expected clinic fee 50, got %+v", i, s)
		}
		if i > 0 && got[i-1].End != s.Start {
			t.Fatalf("expected consecutive slots, got %v", startsOf(got))
		}
	}
	if got[0].Label != "09:00 - 09:30" {
		t.Fatalf("expected label 09:00 - 09:30, got %q", got[0].Label)
	}
}

func TestCompute_BookingExcludesOneSlot(t *testing.T) {
	day := clinicDay(nineToFive())
	day.BookedSlots = []models.BookedSlot{{BookingID: "b1", Start: 600, End: 630}}

	got := Compute(day, Request{Duration: 30, VisitType: models.VisitClinic})
	if len(got) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(got))
	}
	for _, s := range got {
		if s.Start == 600 {
			t.Fatalf("expected 10:00 to be excluded, got %v", startsOf(got))
		}
	}
}

func TestCompute_BreakExcludesWindow(t *testing.T) {
	day := clinicDay(nineToFive())
	day.Breaks = []models.Break{{ID: "lunch", Start: 720, End: 780, Reason: "lunch"}}
	day.BookedSlots = []models.BookedSlot{{BookingID: "b1", Start: 600, End: 630}}

	got := Compute(day, Request{Duration: 30})
	if len(got) != 13 {
		t.Fatalf("expected 13 slots, got %d: %v", len(got), startsOf(got))
	}
	for _, s := range got {
		if interval.Overlaps(s.Start, s.End, 720, 780) {
			t.Fatalf("expected no slot inside the break, got %v", s)
		}
	}
}

func TestCompute_GridAnchoredAtRangeStart(t *testing.T) {
	day := clinicDay(nineToFive())
	// frees 10:10 onwards, the next grid point is 10:30
	day.BookedSlots = []models.BookedSlot{{BookingID: "b1", Start: 540, End: 610}}

	got := Compute(day, Request{Duration: 30})
	if got[0].Start != 630 {
		t.Fatalf("expected first slot at 10:30, got %d", got[0].Start)
	}
}

func TestCompute_ExtraBusyFromLedger(t *testing.T) {
	got := Compute(clinicDay(nineToFive()), Request{
		Duration:  30,
		ExtraBusy: []interval.Interval{{Start: 615, End: 645}},
	})
	for _, s := range got {
		if s.Start == 600 || s.Start == 630 {
			t.Fatalf("expected 10:00 and 10:30 to be busy, got %v", startsOf(got))
		}
	}
	if len(got) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(got))
	}
}

func TestCompute_VisitTypeFilter(t *testing.T) {
	home := models.WorkingHours{Start: 18 * 60, End: 19 * 60, VisitType: models.VisitHome, Fee: 90}
	got := Compute(clinicDay(nineToFive(), home), Request{Duration: 30, VisitType: models.VisitHome})
	if len(got) != 2 {
		t.Fatalf("expected 2 home slots, got %d", len(got))
	}
	if got[0].Fee != 90 {
		t.Fatalf("expected home fee 90, got %v", got[0].Fee)
	}
}

func TestCompute_SkipsMalformedAndDeduplicatesOverlap(t *testing.T) {
	day := clinicDay(
		models.WorkingHours{Start: 600, End: 600, VisitType: models.VisitClinic},
		models.WorkingHours{Start: 700, End: 650, VisitType: models.VisitClinic},
		models.WorkingHours{Start: 540, End: 660, VisitType: models.VisitClinic},
		models.WorkingHours{Start: 600, End: 720, VisitType: models.VisitClinic},
	)
	got := Compute(day, Request{Duration: 60})
	want := []int{540, 600, 660}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, startsOf(got))
	}
	for i := range want {
		if got[i].Start != want[i] {
			t.Fatalf("expected %v, got %v", want, startsOf(got))
		}
	}
}

func TestCompute_MergesOverlappingRangesOffGrid(t *testing.T) {
	day := clinicDay(
		models.WorkingHours{Start: 540, End: 660, VisitType: models.VisitClinic, Fee: 40},
		models.WorkingHours{Start: 570, End: 690, VisitType: models.VisitClinic, Fee: 70},
	)
	got := Compute(day, Request{Duration: 60, VisitType: models.VisitClinic})
	want := []int{540, 600}
	if len(got) != len(want) || got[0].Start != want[0] || got[1].Start != want[1] {
		t.Fatalf("expected %v, got %v", want, startsOf(got))
	}
	for _, s := range got {
		if s.Fee != 40 {
			t.Fatalf("expected fee of the earliest range, got %+v", s)
		}
	}
	assertDisjoint(t, got)
}

func TestCompute_OverlappingVisitTypesNeverOverlap(t *testing.T) {
	day := clinicDay(
		models.WorkingHours{Start: 540, End: 660, VisitType: models.VisitClinic, Fee: 40},
		models.WorkingHours{Start: 570, End: 690, VisitType: models.VisitHome, Fee: 90},
	)
	got := Compute(day, Request{Duration: 60})
	if len(got) != 2 || got[0].Start != 540 || got[1].Start != 600 {
		t.Fatalf("expected [540 600], got %v", startsOf(got))
	}
	if got[0].VisitType != models.VisitClinic {
		t.Fatalf("expected the earliest candidate to win, got %+v", got[0])
	}
	assertDisjoint(t, got)
}

func assertDisjoint(t *testing.T, slots []Slot) {
	t.Helper()
	for i := 1; i < len(slots); i++ {
		if slots[i].Start < slots[i-1].End {
			t.Fatalf("expected disjoint slots, got %v", startsOf(slots))
		}
	}
}

func TestCompute_UnavailableEntry(t *testing.T) {
	day := clinicDay(nineToFive())
	day.IsAvailable = false
	if got := Compute(day, Request{Duration: 30}); len(got) != 0 {
		t.Fatalf("expected no slots, got %d", len(got))
	}
}

func TestCompute_BookingSpanningBreakIsFullyBusy(t *testing.T) {
	day := clinicDay(nineToFive())
	day.Breaks = []models.Break{{ID: "x", Start: 600, End: 630}}
	day.BookedSlots = []models.BookedSlot{{BookingID: "b", Start: 585, End: 645}}
	for _, s := range Compute(day, Request{Duration: 15}) {
		if interval.Overlaps(s.Start, s.End, 585, 645) {
			t.Fatalf("expected [585,645) fully busy, got %v", s)
		}
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	if err != nil || m != 570 {
		t.Fatalf("expected 570, got %d err=%v", m, err)
	}
	if m, err := ParseClock("24:00"); err != nil || m != 1440 {
		t.Fatalf("expected 1440, got %d err=%v", m, err)
	}
	if _, err := ParseClock("25:00"); err == nil {
		t.Fatalf("expected error for 25:00")
	}
}
