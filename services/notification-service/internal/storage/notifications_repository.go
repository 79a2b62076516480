package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/services/notification-service/internal/outbox"
)

// ErrNoContact is returned when a client has no contact details on file.
var ErrNoContact = errors.New("no contact on file")

// Contact is the delivery address registered for a client.
type Contact struct {
	ClientID string
	Channel  string
	Address  string
}

// Notification is one delivery attempt recorded for a reservation event.
type Notification struct {
	ReservationID string
	ClientID      string
	Channel       string
	Recipient     string
	Body          string
	Status        string
	FailureReason string
}

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

func (r *Repository) UpsertContact(ctx context.Context, c Contact) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (client_id, channel, address, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (client_id)
		DO UPDATE SET channel = EXCLUDED.channel, address = EXCLUDED.address, updated_at = now()
	`, c.ClientID, c.Channel, c.Address)
	return err
}

func (r *Repository) GetContact(ctx context.Context, clientID string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT client_id, channel, address
		FROM contacts
		WHERE client_id = $1
	`, clientID).Scan(&c.ClientID, &c.Channel, &c.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNoContact
	}
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

// RecordSent stores the delivery row and enqueues notification.sent.v1
// in the same transaction.
func (r *Repository) RecordSent(ctx context.Context, n Notification, providerID string) error {
	n.Status = "sent"
	payload, err := json.Marshal(map[string]any{
		"reservation_id": n.ReservationID,
		"client_id":      n.ClientID,
		"channel":        n.Channel,
		"provider_id":    providerID,
		"sent_at":        time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.record(ctx, n, outbox.TopicNotificationSent, payload)
}

// RecordFailed stores the delivery row and enqueues notification.failed.v1
// in the same transaction.
func (r *Repository) RecordFailed(ctx context.Context, n Notification, reason string) error {
	n.Status = "failed"
	n.FailureReason = reason
	payload, err := json.Marshal(map[string]any{
		"reservation_id": n.ReservationID,
		"client_id":      n.ClientID,
		"channel":        n.Channel,
		"error_reason":   reason,
		"failed_at":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return r.record(ctx, n, outbox.TopicNotificationFailed, payload)
}

// RecordSkipped stores the delivery row only. Nothing downstream cares
// about notifications we deliberately did not send.
func (r *Repository) RecordSkipped(ctx context.Context, n Notification, reason string) error {
	n.Status = "skipped"
	n.FailureReason = reason
	_, err := r.pool.Exec(ctx, insertNotificationSQL,
		n.ReservationID, n.ClientID, n.Channel, n.Recipient, n.Body, n.Status, n.FailureReason)
	return err
}

const insertNotificationSQL = `
	INSERT INTO notifications (reservation_id, client_id, channel, recipient, body, status, failure_reason)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (r *Repository) record(ctx context.Context, n Notification, topic string, payload []byte) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertNotificationSQL,
		n.ReservationID, n.ClientID, n.Channel, n.Recipient, n.Body, n.Status, n.FailureReason); err != nil {
		return err
	}
	if err := r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "notification",
		AggregateID:   n.ReservationID,
		EventType:     topic,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
