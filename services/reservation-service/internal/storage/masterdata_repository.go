package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/services/reservation-service/internal/model"
)

// MasterDataRepository is the local read model of admin-owned entities.
// Upserts are version-gated in SQL so replaying an event or applying one
// out of order never moves the row backwards.
type MasterDataRepository struct {
	pool *db.Pool
}

func NewMasterDataRepository(pool *db.Pool) *MasterDataRepository {
	return &MasterDataRepository{pool: pool}
}

func (r *MasterDataRepository) GetStylist(ctx context.Context, id string) (model.Stylist, error) {
	var s model.Stylist
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, active, version
		FROM stylists
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Active, &s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Stylist{}, fmt.Errorf("stylist %s: %w", id, model.ErrNotFound)
	}
	return s, err
}

func (r *MasterDataRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, category_id::text, name, duration_minutes, price::text, available, version
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.CategoryID, &s.Name, &s.DurationMinutes, &s.Price, &s.Available, &s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Service{}, fmt.Errorf("service %s: %w", id, model.ErrNotFound)
	}
	return s, err
}

func (r *MasterDataRepository) GetDaySchedule(ctx context.Context, stylistID string, weekday time.Weekday) (model.DaySchedule, error) {
	var d model.DaySchedule
	err := r.pool.QueryRow(ctx, `
		SELECT stylist_id::text, weekday, is_working, start_minute, end_minute,
			has_break, break_start_minute, break_end_minute, version
		FROM stylist_day_schedules
		WHERE stylist_id = $1 AND weekday = $2
	`, stylistID, int(weekday)).Scan(
		&d.StylistID, &d.Weekday, &d.IsWorking, &d.StartMinute, &d.EndMinute,
		&d.HasBreak, &d.BreakStartMinute, &d.BreakEndMinute, &d.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DaySchedule{}, fmt.Errorf("schedule for stylist %s weekday %d: %w", stylistID, weekday, model.ErrNotFound)
	}
	return d, err
}

func (r *MasterDataRepository) ListBlockoutsInRange(ctx context.Context, stylistID string, from, to time.Time) ([]model.Blockout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, stylist_id::text, start_time, end_time, version
		FROM blockouts
		WHERE stylist_id = $1
			AND end_time > $2
			AND start_time < $3
		ORDER BY start_time ASC
	`, stylistID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Blockout
	for rows.Next() {
		var b model.Blockout
		if err := rows.Scan(&b.ID, &b.StylistID, &b.Start, &b.End, &b.Version); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *MasterDataRepository) UpsertCategory(ctx context.Context, c model.Category) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, active, version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			active = EXCLUDED.active,
			version = EXCLUDED.version
		WHERE categories.version < EXCLUDED.version
	`, c.ID, c.Name, c.Active, c.Version)
	return err
}

func (r *MasterDataRepository) DeleteCategory(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}

func (r *MasterDataRepository) UpsertService(ctx context.Context, s model.Service) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, category_id, name, duration_minutes, price, available, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET category_id = EXCLUDED.category_id,
			name = EXCLUDED.name,
			duration_minutes = EXCLUDED.duration_minutes,
			price = EXCLUDED.price,
			available = EXCLUDED.available,
			version = EXCLUDED.version
		WHERE services.version < EXCLUDED.version
	`, s.ID, s.CategoryID, s.Name, s.DurationMinutes, s.Price, s.Available, s.Version)
	return err
}

func (r *MasterDataRepository) DeleteService(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	return err
}

func (r *MasterDataRepository) UpsertStylist(ctx context.Context, s model.Stylist) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO stylists (id, name, active, version)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			active = EXCLUDED.active,
			version = EXCLUDED.version
		WHERE stylists.version < EXCLUDED.version
	`, s.ID, s.Name, s.Active, s.Version)
	return err
}

func (r *MasterDataRepository) DeleteStylist(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM stylist_day_schedules WHERE stylist_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM blockouts WHERE stylist_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM stylists WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *MasterDataRepository) ReplaceWeek(ctx context.Context, stylistID string, days []model.DaySchedule, version int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current int64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0)
		FROM stylist_day_schedules
		WHERE stylist_id = $1
	`, stylistID).Scan(&current); err != nil {
		return err
	}
	if current >= version {
		// Stale or replayed snapshot; keep what we have.
		return tx.Commit(ctx)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stylist_day_schedules WHERE stylist_id = $1`, stylistID); err != nil {
		return err
	}
	for _, d := range days {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stylist_day_schedules
				(stylist_id, weekday, is_working, start_minute, end_minute, has_break, break_start_minute, break_end_minute, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, stylistID, d.Weekday, d.IsWorking, d.StartMinute, d.EndMinute, d.HasBreak, d.BreakStartMinute, d.BreakEndMinute, version); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *MasterDataRepository) UpsertBlockout(ctx context.Context, b model.Blockout) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blockouts (id, stylist_id, start_time, end_time, version)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET stylist_id = EXCLUDED.stylist_id,
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			version = EXCLUDED.version
		WHERE blockouts.version < EXCLUDED.version
	`, b.ID, b.StylistID, b.Start, b.End, b.Version)
	return err
}

func (r *MasterDataRepository) DeleteBlockout(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM blockouts WHERE id = $1`, id)
	return err
}
