package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/salonworks/stylebook/services/reservation-service/internal/booking"
	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

type ReservationHandler struct {
	svc    *booking.Service
	store  booking.ReservationStore
	logger *slog.Logger
}

func NewReservationHandler(svc *booking.Service, store booking.ReservationStore, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{svc: svc, store: store, logger: logger}
}

type reservationItem struct {
	ReservationID string `json:"reservation_id"`
	StylistID     string `json:"stylist_id"`
	ServiceID     string `json:"service_id"`
	ClientID      string `json:"client_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

type slotItem struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type createRequest struct {
	StylistID string `json:"stylist_id"`
	ServiceID string `json:"service_id"`
	ClientID  string `json:"client_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.StylistID = strings.TrimSpace(req.StylistID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.ClientID = strings.TrimSpace(req.ClientID)
	if req.StylistID == "" || req.ServiceID == "" || req.ClientID == "" {
		http.Error(w, "stylist_id, service_id, and client_id are required", http.StatusBadRequest)
		return
	}

	day, startMinute, ok := parseDayAndStart(req.Date, req.StartTime)
	if !ok {
		http.Error(w, "invalid date or start_time", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Create(r.Context(), booking.CreateCommand{
		StylistID:   req.StylistID,
		ServiceID:   req.ServiceID,
		ClientID:    req.ClientID,
		Day:         day,
		StartMinute: startMinute,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toItem(res))
}

type rescheduleRequest struct {
	ReservationID string `json:"reservation_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
}

func (h *ReservationHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if req.ReservationID == "" {
		http.Error(w, "reservation_id is required", http.StatusBadRequest)
		return
	}
	day, startMinute, ok := parseDayAndStart(req.Date, req.StartTime)
	if !ok {
		http.Error(w, "invalid date or start_time", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Reschedule(r.Context(), booking.RescheduleCommand{
		ReservationID: req.ReservationID,
		Day:           day,
		StartMinute:   startMinute,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(res))
}

type changeStatusRequest struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

func (h *ReservationHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req changeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if req.ReservationID == "" {
		http.Error(w, "reservation_id is required", http.StatusBadRequest)
		return
	}
	status, err := model.ParseStatus(strings.TrimSpace(req.Status))
	if err != nil {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	res, err := h.svc.ChangeStatus(r.Context(), req.ReservationID, status)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(res))
}

type cancelRequest struct {
	ReservationID string `json:"reservation_id"`
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ReservationID = strings.TrimSpace(req.ReservationID)
	if req.ReservationID == "" {
		http.Error(w, "reservation_id is required", http.StatusBadRequest)
		return
	}

	res, err := h.svc.Cancel(r.Context(), req.ReservationID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItem(res))
}

// List serves the query operations: by client, by stylist on a date, by
// stylist in a date range, or everything (paginated by limit).
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	clientID := strings.TrimSpace(q.Get("client_id"))
	stylistID := strings.TrimSpace(q.Get("stylist_id"))
	limit := 100
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	var (
		out []model.Reservation
		err error
	)
	switch {
	case clientID != "":
		out, err = h.store.ListByClient(r.Context(), clientID, limit)
	case stylistID != "" && strings.TrimSpace(q.Get("date")) != "":
		var day time.Time
		day, err = parseDate(q.Get("date"))
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		out, err = h.store.ListForStylistInRange(r.Context(), stylistID, day, day)
	case stylistID != "":
		from, errFrom := parseDate(q.Get("from"))
		to, errTo := parseDate(q.Get("to"))
		if errFrom != nil || errTo != nil || to.Before(from) {
			http.Error(w, "valid from and to dates are required", http.StatusBadRequest)
			return
		}
		out, err = h.store.ListForStylistInRange(r.Context(), stylistID, from, to)
	default:
		out, err = h.store.ListAll(r.Context(), limit)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]reservationItem, 0, len(out))
	for _, res := range out {
		items = append(items, toItem(res))
	}
	writeJSON(w, http.StatusOK, items)
}

// Slots lists bookable start times for a stylist/service/date.
func (h *ReservationHandler) Slots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	stylistID := strings.TrimSpace(q.Get("stylist_id"))
	serviceID := strings.TrimSpace(q.Get("service_id"))
	dateStr := strings.TrimSpace(q.Get("date"))
	if stylistID == "" || serviceID == "" || dateStr == "" {
		http.Error(w, "stylist_id, service_id, and date are required", http.StatusBadRequest)
		return
	}
	day, err := parseDate(dateStr)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}

	slots, err := h.svc.FreeSlots(r.Context(), stylistID, serviceID, day)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]slotItem, 0, len(slots))
	for _, s := range slots {
		items = append(items, slotItem{
			StartTime: s.Start.Format(time.RFC3339),
			EndTime:   s.End.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, err error) {
	if re, ok := booking.AsRuleError(err); ok {
		status := http.StatusUnprocessableEntity
		if re.Code == booking.CodeSlotTaken {
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]string{
			"error_code": re.Code,
			"message":    re.Message,
		})
		return
	}
	if errors.Is(err, model.ErrNotFound) {
		http.Error(w, "entity not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, booking.ErrLockTimeout) {
		http.Error(w, "stylist is busy, retry shortly", http.StatusServiceUnavailable)
		return
	}
	h.logger.Error("reservation request failed", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func toItem(res model.Reservation) reservationItem {
	return reservationItem{
		ReservationID: res.ID,
		StylistID:     res.StylistID,
		ServiceID:     res.ServiceID,
		ClientID:      res.ClientID,
		Date:          res.Day.Format("2006-01-02"),
		StartTime:     res.StartTime.Format(time.RFC3339),
		EndTime:       res.EndTime.Format(time.RFC3339),
		Status:        string(res.Status),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "failed to build response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// parseDate interprets YYYY-MM-DD as midnight in the salon's wall-clock
// time. No timezone conversion happens anywhere in the scheduling core.
func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), time.UTC)
}

func parseDayAndStart(dateStr, startStr string) (time.Time, int, bool) {
	day, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, 0, false
	}
	clock, err := time.Parse("15:04", strings.TrimSpace(startStr))
	if err != nil {
		return time.Time{}, 0, false
	}
	return day, clock.Hour()*60 + clock.Minute(), true
}
