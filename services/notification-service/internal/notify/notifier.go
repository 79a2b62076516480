package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/salonworks/stylebook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
)

// Reservation lifecycle topics this service subscribes to.
const (
	TopicReservationBooked        = "reservations.reservation.booked.v1"
	TopicReservationRescheduled   = "reservations.reservation.rescheduled.v1"
	TopicReservationStatusChanged = "reservations.reservation.status_changed.v1"
)

// lifecycleEvent mirrors the payload the reservation service writes to
// its outbox for every booking, reschedule, and status change.
type lifecycleEvent struct {
	ReservationID string `json:"reservation_id"`
	StylistID     string `json:"stylist_id"`
	ServiceID     string `json:"service_id"`
	ClientID      string `json:"client_id"`
	Day           string `json:"day"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Status        string `json:"status"`
}

type Store interface {
	GetContact(ctx context.Context, clientID string) (storage.Contact, error)
	RecordSent(ctx context.Context, n storage.Notification, providerID string) error
	RecordFailed(ctx context.Context, n storage.Notification, reason string) error
	RecordSkipped(ctx context.Context, n storage.Notification, reason string) error
}

type EmailSender interface {
	Send(to string, subject string, body string) error
}

type SMSSender interface {
	Send(ctx context.Context, to string, body string) error
	ProviderID() string
}

// Notifier turns reservation lifecycle events into client messages.
// Malformed events and events with no message to send are dropped
// without error; delivery outcomes are persisted either way.
type Notifier struct {
	store           Store
	email           EmailSender
	sms             SMSSender
	emailProviderID string
	logger          *slog.Logger
}

func New(store Store, email EmailSender, sms SMSSender, logger *slog.Logger) *Notifier {
	return &Notifier{
		store:           store,
		email:           email,
		sms:             sms,
		emailProviderID: "smtp",
		logger:          logger,
	}
}

func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	var evt lifecycleEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid lifecycle payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.ReservationID == "" || evt.ClientID == "" {
		n.logger.Error("lifecycle event missing ids", "topic", msg.Topic)
		return nil
	}
	start, err := time.Parse(time.RFC3339, evt.StartTime)
	if err != nil {
		n.logger.Error("invalid start_time", "err", err, "reservation_id", evt.ReservationID)
		return nil
	}

	subject, body, ok := composeMessage(msg.Topic, evt, start)
	if !ok {
		return nil
	}

	record := storage.Notification{
		ReservationID: evt.ReservationID,
		ClientID:      evt.ClientID,
		Body:          body,
	}

	contact, err := n.store.GetContact(ctx, evt.ClientID)
	if errors.Is(err, storage.ErrNoContact) {
		n.logger.Info("no contact on file, skipping", "client_id", evt.ClientID, "reservation_id", evt.ReservationID)
		return n.store.RecordSkipped(ctx, record, "no contact on file")
	}
	if err != nil {
		return err
	}
	record.Channel = contact.Channel
	record.Recipient = contact.Address

	var providerID string
	switch strings.ToLower(contact.Channel) {
	case "email":
		if err := n.email.Send(contact.Address, subject, body); err != nil {
			n.logger.Error("email send failed", "err", err, "recipient", contact.Address)
			return n.store.RecordFailed(ctx, record, err.Error())
		}
		providerID = n.emailProviderID
	case "sms":
		if err := n.sms.Send(ctx, contact.Address, body); err != nil {
			n.logger.Error("sms send failed", "err", err, "recipient", contact.Address)
			return n.store.RecordFailed(ctx, record, err.Error())
		}
		providerID = n.sms.ProviderID()
	default:
		n.logger.Error("unsupported channel", "channel", contact.Channel, "client_id", evt.ClientID)
		return n.store.RecordFailed(ctx, record, "unsupported channel: "+contact.Channel)
	}

	if err := n.store.RecordSent(ctx, record, providerID); err != nil {
		return err
	}
	n.logger.Info("notification sent", "reservation_id", evt.ReservationID, "channel", record.Channel)
	return nil
}

// composeMessage picks the client-facing text for an event. Not every
// lifecycle event notifies: in_progress and completed are internal
// bookkeeping, and no_show is handled by the front desk, not by mail.
func composeMessage(topic string, evt lifecycleEvent, start time.Time) (subject string, body string, ok bool) {
	when := fmt.Sprintf("%s at %s", evt.Day, start.Format("15:04"))
	switch topic {
	case TopicReservationBooked:
		return "Appointment booked",
			fmt.Sprintf("Your appointment on %s is booked. Reservation %s.", when, evt.ReservationID),
			true
	case TopicReservationRescheduled:
		return "Appointment rescheduled",
			fmt.Sprintf("Your appointment was moved to %s. Reservation %s.", when, evt.ReservationID),
			true
	case TopicReservationStatusChanged:
		switch evt.Status {
		case "confirmed":
			return "Appointment confirmed",
				fmt.Sprintf("Your appointment on %s is confirmed. Reservation %s.", when, evt.ReservationID),
				true
		case "cancelled":
			return "Appointment cancelled",
				fmt.Sprintf("Your appointment on %s was cancelled. Reservation %s.", when, evt.ReservationID),
				true
		default:
			return "", "", false
		}
	default:
		return "", "", false
	}
}
