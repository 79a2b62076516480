package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Validation runs before any repository call, so these requests must be
// rejected without a database behind the handler.
func newValidationHandler() *StylistHandler {
	return NewStylistHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func doBlockouts(h *StylistHandler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Blockouts(rec, req)
	return rec
}

func TestBlockouts_UpdateRejectsBadRequests(t *testing.T) {
	h := newValidationHandler()

	cases := []struct {
		name   string
		target string
		body   string
	}{
		{"missing id", "/api/v1/stylists/blockouts",
			`{"start_time":"2026-03-02T10:00:00Z","end_time":"2026-03-02T12:00:00Z"}`},
		{"bad json", "/api/v1/stylists/blockouts?id=b-1", `not json`},
		{"bad start", "/api/v1/stylists/blockouts?id=b-1",
			`{"start_time":"bogus","end_time":"2026-03-02T12:00:00Z"}`},
		{"bad end", "/api/v1/stylists/blockouts?id=b-1",
			`{"start_time":"2026-03-02T10:00:00Z","end_time":"bogus"}`},
		{"inverted range", "/api/v1/stylists/blockouts?id=b-1",
			`{"start_time":"2026-03-02T12:00:00Z","end_time":"2026-03-02T10:00:00Z"}`},
	}
	for _, tc := range cases {
		rec := doBlockouts(h, http.MethodPut, tc.target, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", tc.name, rec.Code, rec.Body.String())
		}
	}
}

func TestBlockouts_UnknownMethodRejected(t *testing.T) {
	h := newValidationHandler()

	rec := doBlockouts(h, http.MethodPatch, "/api/v1/stylists/blockouts?id=b-1", `{}`)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestBlockouts_CreateRejectsBadRequests(t *testing.T) {
	h := newValidationHandler()

	cases := []string{
		`not json`,
		`{"stylist_id":"","start_time":"2026-03-02T10:00:00Z","end_time":"2026-03-02T12:00:00Z"}`,
		`{"stylist_id":"sty-1","start_time":"bogus","end_time":"2026-03-02T12:00:00Z"}`,
		`{"stylist_id":"sty-1","start_time":"2026-03-02T12:00:00Z","end_time":"2026-03-02T10:00:00Z"}`,
	}
	for i, body := range cases {
		rec := doBlockouts(h, http.MethodPost, "/api/v1/stylists/blockouts", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
}
