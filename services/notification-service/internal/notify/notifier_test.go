package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/salonworks/stylebook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	contacts map[string]storage.Contact
	sent     []storage.Notification
	failed   []storage.Notification
	skipped  []storage.Notification
	reasons  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{contacts: make(map[string]storage.Contact)}
}

func (s *fakeStore) GetContact(_ context.Context, clientID string) (storage.Contact, error) {
	c, ok := s.contacts[clientID]
	if !ok {
		return storage.Contact{}, storage.ErrNoContact
	}
	return c, nil
}

func (s *fakeStore) RecordSent(_ context.Context, n storage.Notification, _ string) error {
	s.sent = append(s.sent, n)
	return nil
}

func (s *fakeStore) RecordFailed(_ context.Context, n storage.Notification, reason string) error {
	s.failed = append(s.failed, n)
	s.reasons = append(s.reasons, reason)
	return nil
}

func (s *fakeStore) RecordSkipped(_ context.Context, n storage.Notification, reason string) error {
	s.skipped = append(s.skipped, n)
	s.reasons = append(s.reasons, reason)
	return nil
}

type fakeEmail struct {
	sent []string
	err  error
}

func (f *fakeEmail) Send(to string, _ string, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

type fakeSMS struct {
	sent []string
}

func (f *fakeSMS) Send(_ context.Context, to string, body string) error {
	f.sent = append(f.sent, to+"|"+body)
	return nil
}

func (f *fakeSMS) ProviderID() string { return "sms-fake" }

func newTestNotifier() (*Notifier, *fakeStore, *fakeEmail, *fakeSMS) {
	store := newFakeStore()
	em := &fakeEmail{}
	sm := &fakeSMS{}
	n := New(store, em, sm, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return n, store, em, sm
}

func bookedEvent() string {
	return `{"reservation_id":"r-1","stylist_id":"sty-1","service_id":"svc-cut","client_id":"cli-1",` +
		`"day":"2026-03-02","start_time":"2026-03-02T10:00:00Z","end_time":"2026-03-02T10:45:00Z","status":"pending"}`
}

func TestHandle_BookedSendsEmail(t *testing.T) {
	n, store, em, _ := newTestNotifier()
	store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "email", Address: "ana@example.com"}

	err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationBooked, Value: []byte(bookedEvent())})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(em.sent) != 1 || !strings.Contains(em.sent[0], "ana@example.com") {
		t.Fatalf("email not sent: %v", em.sent)
	}
	if !strings.Contains(em.sent[0], "2026-03-02 at 10:00") {
		t.Fatalf("body missing slot time: %v", em.sent[0])
	}
	if len(store.sent) != 1 || store.sent[0].ReservationID != "r-1" {
		t.Fatalf("sent outcome not recorded: %+v", store.sent)
	}
}

func TestHandle_SMSChannelUsesSMSSender(t *testing.T) {
	n, store, em, sm := newTestNotifier()
	store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "sms", Address: "+34600111222"}

	err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationBooked, Value: []byte(bookedEvent())})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(sm.sent) != 1 || len(em.sent) != 0 {
		t.Fatalf("expected one sms and no email, got sms=%v email=%v", sm.sent, em.sent)
	}
}

func TestHandle_MissingContactRecordsSkip(t *testing.T) {
	n, store, em, _ := newTestNotifier()

	err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationBooked, Value: []byte(bookedEvent())})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(em.sent) != 0 {
		t.Fatalf("nothing should be sent without a contact")
	}
	if len(store.skipped) != 1 || store.reasons[0] != "no contact on file" {
		t.Fatalf("skip not recorded: %+v %v", store.skipped, store.reasons)
	}
}

func TestHandle_SendFailureRecordsFailed(t *testing.T) {
	n, store, em, _ := newTestNotifier()
	store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "email", Address: "ana@example.com"}
	em.err = errors.New("smtp down")

	err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationBooked, Value: []byte(bookedEvent())})
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(store.failed) != 1 || store.reasons[0] != "smtp down" {
		t.Fatalf("failure not recorded: %+v %v", store.failed, store.reasons)
	}
}

func TestHandle_StatusChanges(t *testing.T) {
	cases := []struct {
		status   string
		notifies bool
	}{
		{"confirmed", true},
		{"cancelled", true},
		{"in_progress", false},
		{"completed", false},
		{"no_show", false},
	}
	for _, tc := range cases {
		n, store, em, _ := newTestNotifier()
		store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "email", Address: "ana@example.com"}

		payload := `{"reservation_id":"r-1","client_id":"cli-1","day":"2026-03-02",` +
			`"start_time":"2026-03-02T10:00:00Z","end_time":"2026-03-02T10:45:00Z","status":"` + tc.status + `"}`
		err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationStatusChanged, Value: []byte(payload)})
		if err != nil {
			t.Fatalf("%s: handle failed: %v", tc.status, err)
		}
		if tc.notifies && len(em.sent) != 1 {
			t.Fatalf("%s: expected a notification, got %v", tc.status, em.sent)
		}
		if !tc.notifies && (len(em.sent) != 0 || len(store.sent) != 0 || len(store.skipped) != 0) {
			t.Fatalf("%s: expected silence, got sent=%v skipped=%v", tc.status, store.sent, store.skipped)
		}
	}
}

func TestHandle_MalformedEventsSkippedWithoutError(t *testing.T) {
	n, store, em, _ := newTestNotifier()
	store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "email", Address: "ana@example.com"}

	cases := []string{
		`not json`,
		`{"reservation_id":"","client_id":"cli-1","start_time":"2026-03-02T10:00:00Z"}`,
		`{"reservation_id":"r-1","client_id":"cli-1","start_time":"bogus"}`,
	}
	for i, payload := range cases {
		if err := n.Handle(context.Background(), kafka.Message{Topic: TopicReservationBooked, Value: []byte(payload)}); err != nil {
			t.Fatalf("case %d: malformed event must be skipped, got %v", i, err)
		}
	}
	if len(em.sent) != 0 || len(store.sent) != 0 || len(store.failed) != 0 {
		t.Fatalf("malformed events must not notify")
	}
}

func TestHandle_UnknownTopicIgnored(t *testing.T) {
	n, store, em, _ := newTestNotifier()
	store.contacts["cli-1"] = storage.Contact{ClientID: "cli-1", Channel: "email", Address: "ana@example.com"}

	if err := n.Handle(context.Background(), kafka.Message{Topic: "unknown.topic.v1", Value: []byte(bookedEvent())}); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(em.sent) != 0 {
		t.Fatalf("unknown topic must not notify")
	}
}
