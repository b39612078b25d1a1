package calendarRepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"caredesk/models"
)

func TestMemoryCalendarRepo_VersionConflict(t *testing.T) {
	repo := NewMemoryCalendarRepo()
	ctx := context.Background()
	key := models.MonthKey{Year: 2026, Month: time.November}

	if err := repo.CreateMonth(ctx, models.NewCalendarMonth(key, nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.CreateMonth(ctx, models.NewCalendarMonth(key, nil)); !errors.Is(err, models.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	a, _ := repo.GetMonth(ctx, key)
	b, _ := repo.GetMonth(ctx, key)
	if err := repo.ReplaceMonth(ctx, a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Version != 2 {
		t.Fatalf("expected version 2, got %d", a.Version)
	}
	if err := repo.ReplaceMonth(ctx, b); !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestMemoryCalendarRepo_DeleteMonthsBefore(t *testing.T) {
	repo := NewMemoryCalendarRepo()
	ctx := context.Background()
	for _, k := range []models.MonthKey{{Year: 2025, Month: time.December}, {Year: 2026, Month: time.June}, {Year: 2026, Month: time.July}} {
		if err := repo.CreateMonth(ctx, models.NewCalendarMonth(k, nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	n, err := repo.DeleteMonthsBefore(ctx, models.MonthKey{Year: 2026, Month: time.July})
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deletions, got %d err=%v", n, err)
	}
	keys, _ := repo.ListMonthKeys(ctx)
	if len(keys) != 1 || keys[0] != (models.MonthKey{Year: 2026, Month: time.July}) {
		t.Fatalf("expected only 2026-07 to remain, got %v", keys)
	}
}
