package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salonworks/stylebook/services/admin-service/internal/storage"
)

// Shortest bookable service. Anything under this is a data-entry mistake.
const minServiceDurationMinutes = 45

type CatalogHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewCatalogHandler(repo *storage.Repository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, logger: logger}
}

// Categories handles POST (create) and GET (list) on /api/v1/categories.
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createCategory(w, r)
	case http.MethodGet:
		h.listCategories(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
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

	id, err := h.repo.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("category create failed", "err", err)
		http.Error(w, "failed to create category", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *CatalogHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context(), 100)
	if err != nil {
		h.logger.Error("category list failed", "err", err)
		http.Error(w, "failed to list categories", http.StatusInternalServerError)
		return
	}

	type item struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Active  bool   `json:"active"`
		Version int64  `json:"version"`
	}
	out := make([]item, 0, len(categories))
	for _, c := range categories {
		out = append(out, item{ID: c.ID, Name: c.Name, Active: c.Active, Version: c.Version})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *CatalogHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
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

	if err := h.repo.UpdateCategory(r.Context(), id, req.Name, active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		h.logger.Error("category update failed", "err", err)
		http.Error(w, "failed to update category", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			http.Error(w, "category still has services", http.StatusConflict)
			return
		}
		h.logger.Error("category delete failed", "err", err)
		http.Error(w, "failed to delete category", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Services handles POST (create) and GET (list) on /api/v1/services.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createService(w, r)
	case http.MethodGet:
		h.listServices(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *CatalogHandler) createService(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID   string  `json:"category_id"`
		Name         string  `json:"name"`
		DurationMins int     `json:"duration_minutes"`
		Price        float64 `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	req.Name = strings.TrimSpace(req.Name)
	if req.CategoryID == "" || req.Name == "" {
		http.Error(w, "category_id and name are required", http.StatusBadRequest)
		return
	}
	if req.DurationMins < minServiceDurationMinutes {
		http.Error(w, "duration_minutes must be at least 45", http.StatusBadRequest)
		return
	}

	id, err := h.repo.CreateService(r.Context(), req.CategoryID, req.Name, req.DurationMins, strconv.FormatFloat(req.Price, 'f', 2, 64))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			http.Error(w, "category not found", http.StatusNotFound)
			return
		}
		h.logger.Error("service create failed", "err", err)
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id})
}

func (h *CatalogHandler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.repo.ListServices(r.Context(), 100)
	if err != nil {
		h.logger.Error("service list failed", "err", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	type item struct {
		ID           string `json:"id"`
		CategoryID   string `json:"category_id"`
		Name         string `json:"name"`
		DurationMins int    `json:"duration_minutes"`
		Price        string `json:"price"`
		Available    bool   `json:"available"`
		Version      int64  `json:"version"`
	}
	out := make([]item, 0, len(services))
	for _, s := range services {
		out = append(out, item{
			ID:           s.ID,
			CategoryID:   s.CategoryID,
			Name:         s.Name,
			DurationMins: s.DurationMinutes,
			Price:        s.Price,
			Available:    s.Available,
			Version:      s.Version,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (h *CatalogHandler) UpdateService(w http.ResponseWriter, r *http.Request) {
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
		Name         string  `json:"name"`
		DurationMins int     `json:"duration_minutes"`
		Price        float64 `json:"price"`
		Available    *bool   `json:"available"`
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
	if req.DurationMins < minServiceDurationMinutes {
		http.Error(w, "duration_minutes must be at least 45", http.StatusBadRequest)
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}

	err := h.repo.UpdateService(r.Context(), id, req.Name, req.DurationMins, strconv.FormatFloat(req.Price, 'f', 2, 64), available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("service update failed", "err", err)
		http.Error(w, "failed to update service", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	if err := h.repo.DeleteService(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("service delete failed", "err", err)
		http.Error(w, "failed to delete service", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
