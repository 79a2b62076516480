package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/salonworks/stylebook/services/notification-service/internal/storage"
)

type ContactsHandler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func NewContactsHandler(repo *storage.Repository, logger *slog.Logger) *ContactsHandler {
	return &ContactsHandler{repo: repo, logger: logger}
}

// Contacts handles PUT (upsert) and GET (lookup) on /api/v1/contacts.
func (h *ContactsHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		h.upsert(w, r)
	case http.MethodGet:
		h.get(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ContactsHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"client_id"`
		Channel  string `json:"channel"`
		Address  string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)
	req.Channel = strings.ToLower(strings.TrimSpace(req.Channel))
	req.Address = strings.TrimSpace(req.Address)
	if req.ClientID == "" || req.Address == "" {
		http.Error(w, "client_id and address are required", http.StatusBadRequest)
		return
	}
	if req.Channel != "email" && req.Channel != "sms" {
		http.Error(w, "channel must be email or sms", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpsertContact(r.Context(), storage.Contact{
		ClientID: req.ClientID,
		Channel:  req.Channel,
		Address:  req.Address,
	}); err != nil {
		h.logger.Error("contact upsert failed", "err", err)
		http.Error(w, "failed to save contact", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactsHandler) get(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimSpace(r.URL.Query().Get("client_id"))
	if clientID == "" {
		http.Error(w, "client_id is required", http.StatusBadRequest)
		return
	}

	contact, err := h.repo.GetContact(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, storage.ErrNoContact) {
			http.Error(w, "contact not found", http.StatusNotFound)
			return
		}
		h.logger.Error("contact lookup failed", "err", err)
		http.Error(w, "failed to load contact", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"client_id": contact.ClientID,
		"channel":   contact.Channel,
		"address":   contact.Address,
	})
}
