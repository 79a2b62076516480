package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
	"github.com/salonworks/stylebook/services/reservation-service/internal/outbox"
)

// ReservationRepository persists reservations and writes the matching
// lifecycle event to the outbox in the same transaction. The reservations
// table carries an exclusion constraint over (stylist_id, interval) for
// rows in an active status, so an overlapping write fails with 23P01 even
// if two service instances race past the in-process lock.
type ReservationRepository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewReservationRepository(pool *db.Pool, outboxRepo *outbox.Repository) *ReservationRepository {
	return &ReservationRepository{pool: pool, outbox: outboxRepo}
}

const reservationColumns = `
	id::text, stylist_id::text, service_id::text, client_id::text,
	day, start_time, end_time, status, created_at, updated_at`

func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO reservations (stylist_id, service_id, client_id, day, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text
	`, res.StylistID, res.ServiceID, res.ClientID, res.Day, res.StartTime, res.EndTime, res.Status).Scan(&id)
	if err != nil {
		return "", classifyWriteError(err)
	}
	res.ID = id

	if err := r.insertLifecycleEvent(ctx, tx, outbox.TopicReservationBooked, *res); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *ReservationRepository) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := scanReservation(tx.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+reservationColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
		}
		return err
	}

	if err := r.insertLifecycleEvent(ctx, tx, outbox.TopicReservationStatusChanged, res); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ReservationRepository) UpdateInterval(ctx context.Context, id string, day, start, end time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	res, err := scanReservation(tx.QueryRow(ctx, `
		UPDATE reservations
		SET day = $2, start_time = $3, end_time = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+reservationColumns, id, day, start, end))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
		}
		return classifyWriteError(err)
	}

	if err := r.insertLifecycleEvent(ctx, tx, outbox.TopicReservationRescheduled, res); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (model.Reservation, error) {
	res, err := scanReservation(r.pool.QueryRow(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Reservation{}, fmt.Errorf("reservation %s: %w", id, model.ErrNotFound)
	}
	return res, err
}

func (r *ReservationRepository) ListActiveForStylistOnDay(ctx context.Context, stylistID string, day time.Time) ([]model.Reservation, error) {
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE stylist_id = $1
			AND day = $2
			AND status IN ('pending', 'confirmed', 'in_progress')
		ORDER BY start_time ASC
	`, stylistID, day)
}

func (r *ReservationRepository) ListByClient(ctx context.Context, clientID string, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE client_id = $1
		ORDER BY start_time DESC
		LIMIT $2
	`, clientID, limit)
}

func (r *ReservationRepository) ListForStylistInRange(ctx context.Context, stylistID string, from, to time.Time) ([]model.Reservation, error) {
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE stylist_id = $1
			AND day >= $2
			AND day <= $3
		ORDER BY start_time ASC
	`, stylistID, from, to)
}

func (r *ReservationRepository) ListAll(ctx context.Context, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		ORDER BY start_time DESC
		LIMIT $1
	`, limit)
}

func (r *ReservationRepository) list(ctx context.Context, query string, args ...any) ([]model.Reservation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *ReservationRepository) insertLifecycleEvent(ctx context.Context, tx pgx.Tx, topic string, res model.Reservation) error {
	payload, err := json.Marshal(map[string]any{
		"reservation_id": res.ID,
		"stylist_id":     res.StylistID,
		"service_id":     res.ServiceID,
		"client_id":      res.ClientID,
		"day":            res.Day.Format("2006-01-02"),
		"start_time":     res.StartTime.Format(time.RFC3339),
		"end_time":       res.EndTime.Format(time.RFC3339),
		"status":         string(res.Status),
	})
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reservation",
		AggregateID:   res.ID,
		EventType:     topic,
		Payload:       payload,
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var res model.Reservation
	var status string
	err := row.Scan(
		&res.ID,
		&res.StylistID,
		&res.ServiceID,
		&res.ClientID,
		&res.Day,
		&res.StartTime,
		&res.EndTime,
		&status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.Status(status)
	return res, nil
}

func classifyWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "23P01" || pgErr.Code == "23505") {
		return fmt.Errorf("%w: %s", model.ErrSlotConflict, pgErr.Detail)
	}
	return err
}
