package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/services/admin-service/internal/outbox"
)

// Repository owns the authoritative master data. Every mutation bumps the
// entity's version and writes the new snapshot to the outbox in the same
// transaction, so the feed never skips or reorders a committed change.
type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

func (r *Repository) emit(ctx context.Context, tx pgx.Tx, aggregateType, aggregateID, topic string, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     topic,
		Payload:       payload,
	})
}

type Category struct {
	ID        string
	Name      string
	Active    bool
	Version   int64
	CreatedAt time.Time
}

func categorySnapshot(c Category, action string) outbox.CategorySnapshot {
	return outbox.CategorySnapshot{
		CategoryID: c.ID,
		Name:       c.Name,
		Active:     c.Active,
		Version:    c.Version,
		Action:     action,
	}
}

func (r *Repository) CreateCategory(ctx context.Context, name string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Category
	err = tx.QueryRow(ctx, `
		INSERT INTO categories (id, name, active, version)
		VALUES ($1, $2, true, 1)
		RETURNING id::text, name, active, version, created_at
	`, uuid.NewString(), name).Scan(&c.ID, &c.Name, &c.Active, &c.Version, &c.CreatedAt)
	if err != nil {
		return "", err
	}

	if err := r.emit(ctx, tx, "category", c.ID, outbox.TopicCategoryChanged, categorySnapshot(c, outbox.ActionCreated)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, id, name string, active bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Category
	err = tx.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, active = $3, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING id::text, name, active, version, created_at
	`, id, name, active).Scan(&c.ID, &c.Name, &c.Active, &c.Version, &c.CreatedAt)
	if err != nil {
		return err
	}

	if err := r.emit(ctx, tx, "category", c.ID, outbox.TopicCategoryChanged, categorySnapshot(c, outbox.ActionUpdated)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteCategory(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Category
	err = tx.QueryRow(ctx, `
		DELETE FROM categories
		WHERE id = $1
		RETURNING id::text, name, active, version, created_at
	`, id).Scan(&c.ID, &c.Name, &c.Active, &c.Version, &c.CreatedAt)
	if err != nil {
		return err
	}
	c.Version++

	if err := r.emit(ctx, tx, "category", c.ID, outbox.TopicCategoryChanged, categorySnapshot(c, outbox.ActionDeleted)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListCategories(ctx context.Context, limit int) ([]Category, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, active, version, created_at
		FROM categories
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active, &c.Version, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type Service struct {
	ID              string
	CategoryID      string
	Name            string
	DurationMinutes int
	Price           string
	Available       bool
	Version         int64
	CreatedAt       time.Time
}

func serviceSnapshot(s Service, action string) outbox.ServiceSnapshot {
	return outbox.ServiceSnapshot{
		ServiceID:       s.ID,
		CategoryID:      s.CategoryID,
		Name:            s.Name,
		DurationMinutes: s.DurationMinutes,
		Price:           s.Price,
		Available:       s.Available,
		Version:         s.Version,
		Action:          action,
	}
}

const serviceColumns = `id::text, category_id::text, name, duration_minutes, price::text, available, version, created_at`

func scanService(row pgx.Row) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.CategoryID, &s.Name, &s.DurationMinutes, &s.Price, &s.Available, &s.Version, &s.CreatedAt)
	return s, err
}

func (r *Repository) CreateService(ctx context.Context, categoryID, name string, durationMinutes int, price string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := scanService(tx.QueryRow(ctx, `
		INSERT INTO services (id, category_id, name, duration_minutes, price, available, version)
		VALUES ($1, $2, $3, $4, $5, true, 1)
		RETURNING `+serviceColumns, uuid.NewString(), categoryID, name, durationMinutes, price))
	if err != nil {
		return "", err
	}

	if err := r.emit(ctx, tx, "service", s.ID, outbox.TopicServiceChanged, serviceSnapshot(s, outbox.ActionCreated)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return s.ID, nil
}

func (r *Repository) UpdateService(ctx context.Context, id string, name string, durationMinutes int, price string, available bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := scanService(tx.QueryRow(ctx, `
		UPDATE services
		SET name = $2, duration_minutes = $3, price = $4, available = $5, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING `+serviceColumns, id, name, durationMinutes, price, available))
	if err != nil {
		return err
	}

	if err := r.emit(ctx, tx, "service", s.ID, outbox.TopicServiceChanged, serviceSnapshot(s, outbox.ActionUpdated)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteService(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	s, err := scanService(tx.QueryRow(ctx, `
		DELETE FROM services
		WHERE id = $1
		RETURNING `+serviceColumns, id))
	if err != nil {
		return err
	}
	s.Version++

	if err := r.emit(ctx, tx, "service", s.ID, outbox.TopicServiceChanged, serviceSnapshot(s, outbox.ActionDeleted)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListServices(ctx context.Context, limit int) ([]Service, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type Stylist struct {
	ID        string
	Name      string
	Active    bool
	Version   int64
	CreatedAt time.Time
}

func stylistSnapshot(s Stylist, action string) outbox.StylistSnapshot {
	return outbox.StylistSnapshot{
		StylistID: s.ID,
		Name:      s.Name,
		Active:    s.Active,
		Version:   s.Version,
		Action:    action,
	}
}

type ScheduleDay struct {
	Weekday          int
	IsWorking        bool
	StartMinute      int
	EndMinute        int
	HasBreak         bool
	BreakStartMinute int
	BreakEndMinute   int
}

// DefaultWeek is the schedule new stylists start with: Mon-Fri 09:00-17:00
// with no fixed break, weekend off.
func DefaultWeek() []ScheduleDay {
	week := make([]ScheduleDay, 7)
	for wd := 0; wd <= 6; wd++ {
		day := ScheduleDay{Weekday: wd}
		if wd >= 1 && wd <= 5 {
			day.IsWorking = true
			day.StartMinute = 540
			day.EndMinute = 1020
		}
		week[wd] = day
	}
	return week
}

func scheduleSnapshot(stylistID string, days []ScheduleDay, version int64, action string) outbox.ScheduleSnapshot {
	snap := outbox.ScheduleSnapshot{
		StylistID: stylistID,
		Version:   version,
		Action:    action,
	}
	for _, d := range days {
		snap.Days = append(snap.Days, outbox.ScheduleDaySnapshot{
			Weekday:          d.Weekday,
			IsWorking:        d.IsWorking,
			StartMinute:      d.StartMinute,
			EndMinute:        d.EndMinute,
			HasBreak:         d.HasBreak,
			BreakStartMinute: d.BreakStartMinute,
			BreakEndMinute:   d.BreakEndMinute,
		})
	}
	return snap
}

func (r *Repository) CreateStylist(ctx context.Context, name string, active bool) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s Stylist
	err = tx.QueryRow(ctx, `
		INSERT INTO stylists (name, active, version)
		VALUES ($1, $2, 1)
		RETURNING id::text, name, active, version, created_at
	`, name, active).Scan(&s.ID, &s.Name, &s.Active, &s.Version, &s.CreatedAt)
	if err != nil {
		return "", err
	}

	week := DefaultWeek()
	if err := insertWeek(ctx, tx, s.ID, week, 1); err != nil {
		return "", err
	}

	if err := r.emit(ctx, tx, "stylist", s.ID, outbox.TopicStylistChanged, stylistSnapshot(s, outbox.ActionCreated)); err != nil {
		return "", err
	}
	if err := r.emit(ctx, tx, "schedule", s.ID, outbox.TopicScheduleChanged, scheduleSnapshot(s.ID, week, 1, outbox.ActionCreated)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return s.ID, nil
}

func (r *Repository) UpdateStylist(ctx context.Context, id, name string, active bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var s Stylist
	err = tx.QueryRow(ctx, `
		UPDATE stylists
		SET name = $2, active = $3, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING id::text, name, active, version, created_at
	`, id, name, active).Scan(&s.ID, &s.Name, &s.Active, &s.Version, &s.CreatedAt)
	if err != nil {
		return err
	}

	if err := r.emit(ctx, tx, "stylist", s.ID, outbox.TopicStylistChanged, stylistSnapshot(s, outbox.ActionUpdated)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteStylist(ctx context.Context, id string) error {
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

	var s Stylist
	err = tx.QueryRow(ctx, `
		DELETE FROM stylists
		WHERE id = $1
		RETURNING id::text, name, active, version, created_at
	`, id).Scan(&s.ID, &s.Name, &s.Active, &s.Version, &s.CreatedAt)
	if err != nil {
		return err
	}
	s.Version++

	if err := r.emit(ctx, tx, "stylist", s.ID, outbox.TopicStylistChanged, stylistSnapshot(s, outbox.ActionDeleted)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetStylist(ctx context.Context, id string) (Stylist, error) {
	var s Stylist
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, active, version, created_at
		FROM stylists
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Active, &s.Version, &s.CreatedAt)
	return s, err
}

func (r *Repository) ListStylists(ctx context.Context, limit int) ([]Stylist, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, active, version, created_at
		FROM stylists
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stylist
	for rows.Next() {
		var s Stylist
		if err := rows.Scan(&s.ID, &s.Name, &s.Active, &s.Version, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func insertWeek(ctx context.Context, tx pgx.Tx, stylistID string, days []ScheduleDay, version int64) error {
	for _, d := range days {
		if _, err := tx.Exec(ctx, `
			INSERT INTO stylist_day_schedules
				(stylist_id, weekday, is_working, start_minute, end_minute, has_break, break_start_minute, break_end_minute, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, stylistID, d.Weekday, d.IsWorking, d.StartMinute, d.EndMinute, d.HasBreak, d.BreakStartMinute, d.BreakEndMinute, version); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetWeek(ctx context.Context, stylistID string) ([]ScheduleDay, int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT weekday, is_working, start_minute, end_minute, has_break, break_start_minute, break_end_minute, version
		FROM stylist_day_schedules
		WHERE stylist_id = $1
		ORDER BY weekday ASC
	`, stylistID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out     []ScheduleDay
		version int64
	)
	for rows.Next() {
		var d ScheduleDay
		if err := rows.Scan(&d.Weekday, &d.IsWorking, &d.StartMinute, &d.EndMinute, &d.HasBreak, &d.BreakStartMinute, &d.BreakEndMinute, &version); err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return out, version, nil
}

// ReplaceWeek swaps a stylist's whole weekly template in one transaction.
// The week is versioned as a unit so partial updates can never be observed
// downstream.
func (r *Repository) ReplaceWeek(ctx context.Context, stylistID string, days []ScheduleDay) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM stylists WHERE id = $1)
	`, stylistID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}

	var version int64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM stylist_day_schedules
		WHERE stylist_id = $1
	`, stylistID).Scan(&version); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stylist_day_schedules WHERE stylist_id = $1`, stylistID); err != nil {
		return err
	}
	if err := insertWeek(ctx, tx, stylistID, days, version); err != nil {
		return err
	}

	if err := r.emit(ctx, tx, "schedule", stylistID, outbox.TopicScheduleChanged, scheduleSnapshot(stylistID, days, version, outbox.ActionUpdated)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type Blockout struct {
	ID        string
	StylistID string
	StartTime time.Time
	EndTime   time.Time
	Reason    string
	Version   int64
	CreatedAt time.Time
}

func blockoutSnapshot(b Blockout, action string) outbox.BlockoutSnapshot {
	return outbox.BlockoutSnapshot{
		BlockoutID: b.ID,
		StylistID:  b.StylistID,
		StartTime:  b.StartTime.Format(time.RFC3339),
		EndTime:    b.EndTime.Format(time.RFC3339),
		Version:    b.Version,
		Action:     action,
	}
}

func (r *Repository) CreateBlockout(ctx context.Context, stylistID string, start, end time.Time, reason string) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var b Blockout
	err = tx.QueryRow(ctx, `
		INSERT INTO blockouts (id, stylist_id, start_time, end_time, reason, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING id::text, stylist_id::text, start_time, end_time, reason, version, created_at
	`, uuid.NewString(), stylistID, start, end, reason).Scan(&b.ID, &b.StylistID, &b.StartTime, &b.EndTime, &b.Reason, &b.Version, &b.CreatedAt)
	if err != nil {
		return "", err
	}

	if err := r.emit(ctx, tx, "blockout", b.ID, outbox.TopicBlockoutChanged, blockoutSnapshot(b, outbox.ActionCreated)); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return b.ID, nil
}

func (r *Repository) UpdateBlockout(ctx context.Context, id string, start, end time.Time, reason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var b Blockout
	err = tx.QueryRow(ctx, `
		UPDATE blockouts
		SET start_time = $2, end_time = $3, reason = $4, version = version + 1
		WHERE id = $1
		RETURNING id::text, stylist_id::text, start_time, end_time, reason, version, created_at
	`, id, start, end, reason).Scan(&b.ID, &b.StylistID, &b.StartTime, &b.EndTime, &b.Reason, &b.Version, &b.CreatedAt)
	if err != nil {
		return err
	}

	if err := r.emit(ctx, tx, "blockout", b.ID, outbox.TopicBlockoutChanged, blockoutSnapshot(b, outbox.ActionUpdated)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) DeleteBlockout(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var b Blockout
	err = tx.QueryRow(ctx, `
		DELETE FROM blockouts
		WHERE id = $1
		RETURNING id::text, stylist_id::text, start_time, end_time, reason, version, created_at
	`, id).Scan(&b.ID, &b.StylistID, &b.StartTime, &b.EndTime, &b.Reason, &b.Version, &b.CreatedAt)
	if err != nil {
		return err
	}
	b.Version++

	if err := r.emit(ctx, tx, "blockout", b.ID, outbox.TopicBlockoutChanged, blockoutSnapshot(b, outbox.ActionDeleted)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) ListBlockouts(ctx context.Context, stylistID string, from, to time.Time, limit int) ([]Blockout, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, stylist_id::text, start_time, end_time, reason, version, created_at
		FROM blockouts
		WHERE stylist_id = $1
			AND end_time > $2
			AND start_time < $3
		ORDER BY start_time ASC
		LIMIT $4
	`, stylistID, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Blockout
	for rows.Next() {
		var b Blockout
		if err := rows.Scan(&b.ID, &b.StylistID, &b.StartTime, &b.EndTime, &b.Reason, &b.Version, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) ListAllBlockouts(ctx context.Context, after time.Time) ([]Blockout, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, stylist_id::text, start_time, end_time, reason, version, created_at
		FROM blockouts
		WHERE end_time > $1
		ORDER BY start_time ASC
	`, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Blockout
	for rows.Next() {
		var b Blockout
		if err := rows.Scan(&b.ID, &b.StylistID, &b.StartTime, &b.EndTime, &b.Reason, &b.Version, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
