package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salonworks/stylebook/services/admin-service/internal/storage"
)

type StylistHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewStylistHandler(repo *storage.Repository, logger *slog.Logger) *StylistHandler {
	return &StylistHandler{repo: repo, logger: logger}
}

// Stylists handles POST (create) and GET (list) on /api/v1/stylists.
func (h *StylistHandler) Stylists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createStylist(w, r)
	case http.MethodGet:
		h.listStylists(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StylistHandler) createStylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Active *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.repo.CreateStylist(r.Context(), req.Name, active)
	if err != nil {
		h.logger.Error("stylist create failed", "err", err)
		http.Error(w, "failed to create stylist", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *StylistHandler) listStylists(w http.ResponseWriter, r *http.Request) {
	stylists, err := h.repo.ListStylists(r.Context(), 100)
	if err != nil {
		h.logger.Error("stylist list failed", "err", err)
		http.Error(w, "failed to list stylists", http.StatusInternalServerError)
		return
	}

	type item struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Active  bool   `json:"active"`
		Version int64  `json:"version"`
	}
	out := make([]item, 0, len(stylists))
	for _, s := range stylists {
		out = append(out, item{ID: s.ID, Name: s.Name, Active: s.Active, Version: s.Version})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *StylistHandler) UpdateStylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	var req struct {
		Name   string `json:"name"`
		Active *bool  `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	if err := h.repo.UpdateStylist(r.Context(), id, req.Name, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "stylist not found", http.StatusNotFound)
			return
		}
		h.logger.Error("stylist update failed", "err", err)
		http.Error(w, "failed to update stylist", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StylistHandler) DeleteStylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteStylist(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "stylist not found", http.StatusNotFound)
			return
		}
		h.logger.Error("stylist delete failed", "err", err)
		http.Error(w, "failed to delete stylist", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type scheduleDayRequest struct {
	Weekday          int  `json:"weekday"`
	IsWorking        bool `json:"is_working"`
	StartMinute      int  `json:"start_minute"`
	EndMinute        int  `json:"end_minute"`
	HasBreak         bool `json:"has_break"`
	BreakStartMinute int  `json:"break_start_minute"`
	BreakEndMinute   int  `json:"break_end_minute"`
}

// Schedule handles GET (read week) and PUT (replace whole week) on
// /api/v1/stylists/schedule. The week is always replaced as a unit so the
// feed never carries a half-edited template.
func (h *StylistHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	stylistID := strings.TrimSpace(r.URL.Query().Get("stylist_id"))
	if stylistID == "" {
		http.Error(w, "stylist_id is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getSchedule(w, r, stylistID)
	case http.MethodPut:
		h.replaceSchedule(w, r, stylistID)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StylistHandler) getSchedule(w http.ResponseWriter, r *http.Request, stylistID string) {
	days, version, err := h.repo.GetWeek(r.Context(), stylistID)
	if err != nil {
		h.logger.Error("schedule read failed", "err", err)
		http.Error(w, "failed to read schedule", http.StatusInternalServerError)
		return
	}

	out := make([]scheduleDayRequest, 0, len(days))
	for _, d := range days {
		out = append(out, scheduleDayRequest{
			Weekday:          d.Weekday,
			IsWorking:        d.IsWorking,
			StartMinute:      d.StartMinute,
			EndMinute:        d.EndMinute,
			HasBreak:         d.HasBreak,
			BreakStartMinute: d.BreakStartMinute,
			BreakEndMinute:   d.BreakEndMinute,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stylist_id": stylistID,
		"version":    version,
		"days":       out,
	})
}

func (h *StylistHandler) replaceSchedule(w http.ResponseWriter, r *http.Request, stylistID string) {
	var req struct {
		Days []scheduleDayRequest `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if len(req.Days) != 7 {
		http.Error(w, "days must cover all 7 weekdays", http.StatusBadRequest)
		return
	}

	seen := [7]bool{}
	days := make([]storage.ScheduleDay, 0, 7)
	for _, d := range req.Days {
		if d.Weekday < 0 || d.Weekday > 6 || seen[d.Weekday] {
			http.Error(w, "each weekday 0-6 must appear exactly once", http.StatusBadRequest)
			return
		}
		seen[d.Weekday] = true

		if !d.IsWorking {
			days = append(days, storage.ScheduleDay{Weekday: d.Weekday})
			continue
		}
		if d.StartMinute < 0 || d.StartMinute >= 1440 || d.EndMinute <= 0 || d.EndMinute > 1440 || d.StartMinute >= d.EndMinute {
			http.Error(w, "invalid start_minute/end_minute", http.StatusBadRequest)
			return
		}
		if d.HasBreak {
			if d.BreakStartMinute < d.StartMinute || d.BreakEndMinute > d.EndMinute || d.BreakStartMinute >= d.BreakEndMinute {
				http.Error(w, "break must sit inside the working window", http.StatusBadRequest)
				return
			}
		}
		days = append(days, storage.ScheduleDay{
			Weekday:          d.Weekday,
			IsWorking:        true,
			StartMinute:      d.StartMinute,
			EndMinute:        d.EndMinute,
			HasBreak:         d.HasBreak,
			BreakStartMinute: d.BreakStartMinute,
			BreakEndMinute:   d.BreakEndMinute,
		})
	}

	if err := h.repo.ReplaceWeek(r.Context(), stylistID, days); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "stylist not found", http.StatusNotFound)
			return
		}
		h.logger.Error("schedule replace failed", "err", err)
		http.Error(w, "failed to replace schedule", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Blockouts handles POST (create), GET (list in range), PUT (update), and
// DELETE on /api/v1/stylists/blockouts.
func (h *StylistHandler) Blockouts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createBlockout(w, r)
	case http.MethodGet:
		h.listBlockouts(w, r)
	case http.MethodPut:
		h.updateBlockout(w, r)
	case http.MethodDelete:
		h.deleteBlockout(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *StylistHandler) createBlockout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StylistID string `json:"stylist_id"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.StylistID = strings.TrimSpace(req.StylistID)
	req.Reason = strings.TrimSpace(req.Reason)
	if req.StylistID == "" {
		http.Error(w, "stylist_id is required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateBlockout(r.Context(), req.StylistID, start, end, req.Reason)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503":
				http.Error(w, "stylist not found", http.StatusNotFound)
				return
			case "23P01":
				http.Error(w, "blockout overlaps an existing entry", http.StatusConflict)
				return
			}
		}
		h.logger.Error("blockout create failed", "err", err)
		http.Error(w, "failed to create blockout", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *StylistHandler) listBlockouts(w http.ResponseWriter, r *http.Request) {
	stylistID := strings.TrimSpace(r.URL.Query().Get("stylist_id"))
	fromStr := strings.TrimSpace(r.URL.Query().Get("from"))
	toStr := strings.TrimSpace(r.URL.Query().Get("to"))
	if stylistID == "" || fromStr == "" || toStr == "" {
		http.Error(w, "stylist_id, from, and to are required (RFC3339)", http.StatusBadRequest)
		return
	}
	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	blockouts, err := h.repo.ListBlockouts(r.Context(), stylistID, from, to, 100)
	if err != nil {
		h.logger.Error("blockout list failed", "err", err)
		http.Error(w, "failed to list blockouts", http.StatusInternalServerError)
		return
	}

	type item struct {
		ID        string `json:"id"`
		StylistID string `json:"stylist_id"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Reason    string `json:"reason"`
		Version   int64  `json:"version"`
	}
	out := make([]item, 0, len(blockouts))
	for _, b := range blockouts {
		out = append(out, item{
			ID:        b.ID,
			StylistID: b.StylistID,
			StartTime: b.StartTime.Format(time.RFC3339),
			EndTime:   b.EndTime.Format(time.RFC3339),
			Reason:    b.Reason,
			Version:   b.Version,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *StylistHandler) updateBlockout(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	var req struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartTime))
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, strings.TrimSpace(req.EndTime))
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !end.After(start) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateBlockout(r.Context(), id, start, end, strings.TrimSpace(req.Reason)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "blockout not found", http.StatusNotFound)
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
			http.Error(w, "blockout overlaps an existing entry", http.StatusConflict)
			return
		}
		h.logger.Error("blockout update failed", "err", err)
		http.Error(w, "failed to update blockout", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StylistHandler) deleteBlockout(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteBlockout(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "blockout not found", http.StatusNotFound)
			return
		}
		h.logger.Error("blockout delete failed", "err", err)
		http.Error(w, "failed to delete blockout", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
