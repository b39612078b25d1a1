package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	availabilityRepo "caredesk/database/repository/availability"
	calendarRepo "caredesk/database/repository/calendar"
	ledgerRepo "caredesk/database/repository/ledger"
	professionalRepo "caredesk/database/repository/professional"
	"caredesk/models"
	"caredesk/services/calendar"
	"caredesk/services/reconcile"
	"caredesk/services/slots"
	"caredesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var doctor = models.ProfessionalRef{Kind: models.KindDoctor, ID: "d1"}

type fakeReconciler struct {
	err    error
	inited []models.MonthKey
}

func (f *fakeReconciler) RunFull(context.Context) (*reconcile.Report, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &reconcile.Report{Phases: []reconcile.PhaseResult{{Phase: reconcile.PhaseBookingSync}}}, nil
}

func (f *fakeReconciler) PruneRetention(context.Context) (*reconcile.PhaseResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &reconcile.PhaseResult{Phase: reconcile.PhaseRetentionPrune, Deleted: 2}, nil
}

func (f *fakeReconciler) InitMonth(_ context.Context, key models.MonthKey) (*models.CalendarMonth, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.inited = append(f.inited, key)
	return models.NewCalendarMonth(key, nil), nil
}

type queueRecorder struct{ full int }

func (q *queueRecorder) RequestFullReconcile(context.Context) error {
	q.full++
	return nil
}

type syncRecorder struct{ refs []models.ProfessionalRef }

func (s *syncRecorder) RequestAvailabilitySync(_ context.Context, ref models.ProfessionalRef) error {
	s.refs = append(s.refs, ref)
	return nil
}

type testServer struct {
	router     *gin.Engine
	ledger     *ledgerRepo.MemoryLedgerRepo
	reconciler *fakeReconciler
	queue      *queueRecorder
	sync       *syncRecorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	templates := availabilityRepo.NewMemoryAvailabilityRepo()
	doctors := professionalRepo.NewMemorySource(models.KindDoctor, templates)
	doctors.Put(models.Professional{ID: "d1", Name: "Dr. One", Active: true, Verified: true})
	dir := professionalRepo.NewDirectory(doctors)
	_ = templates.SaveTemplate(context.Background(), &models.AvailabilityTemplate{
		Professional: doctor,
		Days: []models.WeekdayAvailability{{
			Weekday: time.Monday,
			Ranges:  []models.AvailabilityRange{{Start: 540, End: 1020, VisitType: models.VisitClinic, Fee: 50}},
		}},
	})

	ts := &testServer{
		ledger:     ledgerRepo.NewMemoryLedgerRepo(),
		reconciler: &fakeReconciler{},
		queue:      &queueRecorder{},
		sync:       &syncRecorder{},
	}
	now := time.Date(2026, time.November, 2, 7, 0, 0, 0, time.UTC)
	deriver := &calendar.Deriver{
		Directory: dir,
		Ledger:    ts.ledger,
		Holidays:  calendar.HolidaySet{},
		Location:  time.UTC,
		Now:       func() time.Time { return now },
		Logger:    zap.NewNop(),
	}
	store := &calendar.MonthStore{Repo: calendarRepo.NewMemoryCalendarRepo(), Deriver: deriver, Logger: zap.NewNop()}
	svc, err := calendar.NewDefaultCalendarService(store, ts.ledger, dir, templates, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Sync = ts.sync

	hb := NewHandlerBundle(
		NewCalendarHandler(svc),
		NewAvailabilityHandler(svc),
		NewAdminHandler(ts.reconciler, ts.queue, zap.NewNop()),
		nil,
	)
	r := gin.New()
	api := r.Group("/api")
	api.GET("/calendar/months/:year/:month", hb.QueryMonthHandler)
	api.GET("/calendar/slots", hb.SlotsHandler)
	api.POST("/calendar/bookings", hb.BookSlotHandler)
	api.GET("/calendar/history", hb.HistoryHandler)
	api.POST("/calendar/breaks", hb.AddBreakHandler)
	api.DELETE("/calendar/breaks/:breakId", hb.RemoveBreakHandler)
	api.GET("/availability/:professionalType/:professionalId", hb.GetAvailabilityHandler)
	api.PUT("/availability/:professionalType/:professionalId/days/:weekday", hb.UpdateAvailabilityDayHandler)
	api.POST("/admin/calendar/reconcile", hb.ReconcileHandler)
	api.POST("/admin/calendar/prune", hb.PruneHandler)
	api.POST("/admin/calendar/months/:year/:month/init", hb.InitMonthHandler)
	r.GET("/health", HealthHandler)
	ts.router = r
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

const slotsPath = "/api/calendar/slots?professionalType=doctor&professionalId=d1&date=2026-11-09&duration=30&visitType=clinic"

func TestSlotsHandler_ListsTemplateSlots(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, slotsPath, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Slots []slots.Slot `json:"slots"`
	}
	decode(t, w, &resp)
	if len(resp.Slots) != 16 || resp.Slots[0].Start != 540 || resp.Slots[0].Fee != 50 {
		t.Fatalf("expected 16 slots from 09:00 at fee 50, got %+v", resp.Slots)
	}
}

func TestSlotsHandler_RejectsMalformedQueries(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{
		"/api/calendar/slots?professionalType=doctor&date=2026-11-09",
		"/api/calendar/slots?professionalType=nurse&professionalId=d1&date=2026-11-09",
		"/api/calendar/slots?professionalType=doctor&professionalId=d1&date=09-11-2026",
		"/api/calendar/slots?professionalType=doctor&professionalId=d1&date=2026-11-09&duration=abc",
		"/api/calendar/slots?professionalType=doctor&professionalId=d1&date=2026-11-09&duration=-5",
	} {
		if w := ts.do(t, http.MethodGet, path, nil); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestSlotsHandler_UnknownProfessionalIsEmpty(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/calendar/slots?professionalType=doctor&professionalId=ghost&date=2026-11-09", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Slots []slots.Slot `json:"slots"`
	}
	decode(t, w, &resp)
	if resp.Slots == nil || len(resp.Slots) != 0 {
		t.Fatalf("expected an empty list, got %+v", resp.Slots)
	}
}

func bookingBody(id string, start, end int) map[string]any {
	return map[string]any{
		"professional": map[string]string{"professionalType": "doctor", "professionalId": "d1"},
		"date":         "2026-11-09",
		"start":        start,
		"end":          end,
		"bookingId":    id,
		"subjectId":    "patient-" + id,
	}
}

func TestBookSlotHandler_CreatedThenConflict(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/calendar/bookings", bookingBody("b1", 600, 630))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	ts.ledger.Put(models.LedgerRecord{
		ID: "b1", Professional: doctor, Date: models.NewDateKey(2026, time.November, 9),
		Start: 600, End: 630, Status: models.StatusConfirmed,
	})
	w = ts.do(t, http.MethodPost, "/api/calendar/bookings", bookingBody("b2", 615, 645))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
	var resp utils.ErrorResponse
	decode(t, w, &resp)
	if resp.Code != "slot_unavailable" {
		t.Fatalf("expected code slot_unavailable, got %q", resp.Code)
	}
}

func TestBookSlotHandler_BadPayload(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodPost, "/api/calendar/bookings", bookingBody("", 600, 630)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without booking id, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/calendar/bookings", bookingBody("b1", 630, 600)); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reversed range, got %d", w.Code)
	}
}

func TestQueryMonthHandler(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/calendar/months/2026/11?professionalType=doctor&professionalId=d1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Month string               `json:"month"`
		Days  []models.CalendarDay `json:"days"`
	}
	decode(t, w, &resp)
	if resp.Month != "2026-11" || len(resp.Days) != 30 {
		t.Fatalf("expected 30 days of 2026-11, got %s with %d days", resp.Month, len(resp.Days))
	}

	if w := ts.do(t, http.MethodGet, "/api/calendar/months/2026/13", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for month 13, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/calendar/months/2026/11?professionalId=d1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for half a professional filter, got %d", w.Code)
	}
}

func TestHistoryHandler_RejectsReversedRange(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/api/calendar/history?from=2026-10-10&to=2026-10-01", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/calendar/history?from=2026-10-01&to=2026-10-10", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestBreakHandlers_AddAndRemove(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{
		"professional": map[string]string{"professionalType": "doctor", "professionalId": "d1"},
		"date":         "2026-11-09",
		"start":        720,
		"end":          780,
		"reason":       "lunch",
	}
	w := ts.do(t, http.MethodPost, "/api/calendar/breaks", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Break models.Break `json:"break"`
	}
	decode(t, w, &resp)
	if resp.Break.ID == "" {
		t.Fatalf("expected a break id")
	}

	path := "/api/calendar/breaks/" + resp.Break.ID + "?professionalType=doctor&professionalId=d1&date=2026-11-09"
	if w := ts.do(t, http.MethodDelete, path, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := ts.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second removal, got %d", w.Code)
	}
}

func TestAvailabilityHandlers(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/api/availability/doctor/d1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/availability/doctor/nobody", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	body := map[string]any{"ranges": []map[string]any{{"start": 600, "end": 720, "visitType": "home", "fee": 80}}}
	w := ts.do(t, http.MethodPut, "/api/availability/doctor/d1/days/tuesday", body)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(ts.sync.refs) != 1 || ts.sync.refs[0] != doctor {
		t.Fatalf("expected one sync request for %s, got %v", doctor, ts.sync.refs)
	}

	if w := ts.do(t, http.MethodPut, "/api/availability/doctor/d1/days/funday", body); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown weekday, got %d", w.Code)
	}
}

func TestAdminHandlers(t *testing.T) {
	ts := newTestServer(t)

	if w := ts.do(t, http.MethodPost, "/api/admin/calendar/reconcile", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := ts.do(t, http.MethodPost, "/api/admin/calendar/reconcile?async=true", nil); w.Code != http.StatusAccepted || ts.queue.full != 1 {
		t.Fatalf("expected 202 and one queued pass, got %d and %d", w.Code, ts.queue.full)
	}
	if w := ts.do(t, http.MethodPost, "/api/admin/calendar/months/2026/12/init", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(ts.reconciler.inited) != 1 || ts.reconciler.inited[0] != (models.MonthKey{Year: 2026, Month: time.December}) {
		t.Fatalf("expected 2026-12 initialised, got %v", ts.reconciler.inited)
	}

	ts.reconciler.err = models.ErrAlreadyRunning
	for _, path := range []string{"/api/admin/calendar/reconcile", "/api/admin/calendar/prune", "/api/admin/calendar/months/2026/12/init"} {
		if w := ts.do(t, http.MethodPost, path, nil); w.Code != http.StatusConflict {
			t.Fatalf("%s: expected 409 while running, got %d", path, w.Code)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{"monday": time.Monday, "Sun": time.Sunday, "6": time.Saturday, "WEDNESDAY": time.Wednesday}
	for in, want := range cases {
		got, err := parseWeekday(in)
		if err != nil || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := parseWeekday("7"); err == nil {
		t.Fatalf("expected error for 7")
	}
}

func TestHealthHandler_UnhealthyBeforeFirstCheck(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/health", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
