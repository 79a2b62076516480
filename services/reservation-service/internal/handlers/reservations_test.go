package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/booking"
	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

// Monday far enough ahead that slot listing never trims for the clock.
var handlerTestDay = time.Date(2030, 3, 4, 0, 0, 0, 0, time.UTC)

type stubMasterStore struct{}

func (stubMasterStore) GetStylist(_ context.Context, id string) (model.Stylist, error) {
	if id != "sty-1" {
		return model.Stylist{}, fmt.Errorf("stylist %s: %w", id, model.ErrNotFound)
	}
	return model.Stylist{ID: "sty-1", Name: "Ana", Active: true, Version: 1}, nil
}

func (stubMasterStore) GetService(_ context.Context, id string) (model.Service, error) {
	if id != "svc-cut" {
		return model.Service{}, fmt.Errorf("service %s: %w", id, model.ErrNotFound)
	}
	return model.Service{ID: "svc-cut", Name: "Cut", DurationMinutes: 45, Price: "25.00", Available: true, Version: 1}, nil
}

func (stubMasterStore) GetDaySchedule(_ context.Context, stylistID string, weekday time.Weekday) (model.DaySchedule, error) {
	if weekday == time.Sunday || weekday == time.Saturday {
		return model.DaySchedule{}, model.ErrNotFound
	}
	return model.DaySchedule{
		StylistID: stylistID, Weekday: int(weekday), IsWorking: true,
		StartMinute: 540, EndMinute: 1080,
		HasBreak: true, BreakStartMinute: 780, BreakEndMinute: 840,
		Version: 1,
	}, nil
}

func (stubMasterStore) ListBlockoutsInRange(context.Context, string, time.Time, time.Time) ([]model.Blockout, error) {
	return nil, nil
}

type memReservationStore struct {
	seq          int
	reservations map[string]model.Reservation
}

func newMemReservationStore() *memReservationStore {
	return &memReservationStore{reservations: make(map[string]model.Reservation)}
}

func (m *memReservationStore) Get(_ context.Context, id string) (model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
	}
	return r, nil
}

func (m *memReservationStore) ListActiveForStylistOnDay(_ context.Context, stylistID string, day time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.StylistID == stylistID && r.Day.Equal(day) && r.Status.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservationStore) Insert(_ context.Context, res *model.Reservation) (string, error) {
	m.seq++
	id := "r-" + strconv.Itoa(m.seq)
	stored := *res
	stored.ID = id
	m.reservations[id] = stored
	return id, nil
}

func (m *memReservationStore) UpdateStatus(_ context.Context, id string, status model.Status) error {
	r := m.reservations[id]
	r.Status = status
	m.reservations[id] = r
	return nil
}

func (m *memReservationStore) UpdateInterval(_ context.Context, id string, day, start, end time.Time) error {
	r := m.reservations[id]
	r.Day = day
	r.StartTime = start
	r.EndTime = end
	m.reservations[id] = r
	return nil
}

func (m *memReservationStore) ListByClient(_ context.Context, clientID string, _ int) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservationStore) ListForStylistInRange(_ context.Context, stylistID string, from, to time.Time) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.reservations {
		if r.StylistID == stylistID && !r.Day.Before(from) && !r.Day.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memReservationStore) ListAll(context.Context, int) ([]model.Reservation, error) {
	var out []model.Reservation
	for _, r := range m.reservations {
		out = append(out, r)
	}
	return out, nil
}

func newTestHandler() (*ReservationHandler, *memReservationStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemReservationStore()
	svc := booking.NewService(stubMasterStore{}, store, booking.NewMemoryLock(), logger, booking.Config{})
	return NewReservationHandler(svc, store, logger), store
}

func postJSON(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestCreate_Returns201(t *testing.T) {
	h, _ := newTestHandler()

	rec := postJSON(h.Create, "/api/v1/reservations",
		`{"stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1","date":"2030-03-04","start_time":"10:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		ReservationID string `json:"reservation_id"`
		Status        string `json:"status"`
		EndTime       string `json:"end_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if out.ReservationID == "" || out.Status != "pending" {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if !strings.HasPrefix(out.EndTime, "2030-03-04T10:45") {
		t.Fatalf("expected end 10:45, got %s", out.EndTime)
	}
}

func TestCreate_ConflictMapsTo409(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1","date":"2030-03-04","start_time":"10:00"}`
	if rec := postJSON(h.Create, "/api/v1/reservations", body); rec.Code != http.StatusCreated {
		t.Fatalf("seed create failed: %d", rec.Code)
	}

	rec := postJSON(h.Create, "/api/v1/reservations", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ErrorCode string `json:"error_code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.ErrorCode != booking.CodeSlotTaken {
		t.Fatalf("expected SLOT_TAKEN, got %q", out.ErrorCode)
	}
}

func TestCreate_OutsideHoursMapsTo422(t *testing.T) {
	h, _ := newTestHandler()

	rec := postJSON(h.Create, "/api/v1/reservations",
		`{"stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1","date":"2030-03-04","start_time":"07:00"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		ErrorCode string `json:"error_code"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.ErrorCode != booking.CodeOutsideWorkingHours {
		t.Fatalf("expected OUTSIDE_WORKING_HOURS, got %q", out.ErrorCode)
	}
}

func TestCreate_BadRequests(t *testing.T) {
	h, _ := newTestHandler()

	cases := []string{
		`not json`,
		`{"stylist_id":"","service_id":"svc-cut","client_id":"cli-1","date":"2030-03-04","start_time":"10:00"}`,
		`{"stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1","date":"03/02/2026","start_time":"10:00"}`,
		`{"stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1","date":"2030-03-04","start_time":"25:99"}`,
	}
	for i, body := range cases {
		if rec := postJSON(h.Create, "/api/v1/reservations", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}

func TestChangeStatus_UnknownReservationMapsTo404(t *testing.T) {
	h, _ := newTestHandler()

	rec := postJSON(h.ChangeStatus, "/api/v1/reservations/status",
		`{"reservation_id":"missing","status":"confirmed"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestChangeStatus_InvalidStatusMapsTo400(t *testing.T) {
	h, _ := newTestHandler()

	rec := postJSON(h.ChangeStatus, "/api/v1/reservations/status",
		`{"reservation_id":"r-1","status":"paused"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSlots_ListsBookableStarts(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/public/slots?stylist_id=sty-1&service_id=svc-cut&date=2030-03-04", nil)
	rec := httptest.NewRecorder()
	h.Slots(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out []struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected slots for an open day")
	}
}

func TestList_ByClient(t *testing.T) {
	h, store := newTestHandler()
	store.reservations["r-9"] = model.Reservation{
		ID: "r-9", StylistID: "sty-1", ServiceID: "svc-cut", ClientID: "cli-7",
		Day: handlerTestDay, StartTime: handlerTestDay.Add(10 * time.Hour),
		EndTime: handlerTestDay.Add(10*time.Hour + 45*time.Minute), Status: model.StatusConfirmed,
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations?client_id=cli-7", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []struct {
		ReservationID string `json:"reservation_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid response json: %v", err)
	}
	if len(out) != 1 || out[0].ReservationID != "r-9" {
		t.Fatalf("unexpected list: %s", rec.Body.String())
	}
}
